package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	eosr "plantpulse/internal/eosr/domain"
)

// MailNotifier sends report emails through an HTTP mail API.
type MailNotifier struct {
	url    string
	apiKey string
	from   string
	to     []string
	client *http.Client
}

type mailAddress struct {
	Email string `json:"email"`
}

type mailPersonalization struct {
	To []mailAddress `json:"to"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type mailPayload struct {
	Personalizations []mailPersonalization `json:"personalizations"`
	From             mailAddress           `json:"from"`
	Subject          string                `json:"subject"`
	Content          []mailContent         `json:"content"`
}

// NewMailNotifier constructs a notifier. Recipients is a comma-separated
// address list.
func NewMailNotifier(url, apiKey, from, recipients string) (*MailNotifier, error) {
	if url == "" {
		return nil, errors.New("mail notifier: empty url")
	}
	if apiKey == "" {
		return nil, errors.New("mail notifier: empty api key")
	}
	addrs := make([]string, 0, 4)
	for _, addr := range strings.Split(recipients, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			addrs = append(addrs, addr)
		}
	}
	if len(addrs) == 0 {
		return nil, errors.New("mail notifier: no recipients")
	}
	if from == "" {
		from = "no-reply@example.com"
	}
	return &MailNotifier{
		url:    strings.TrimRight(url, "/"),
		apiKey: apiKey,
		from:   from,
		to:     addrs,
		client: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Notify sends one report email.
func (n *MailNotifier) Notify(ctx context.Context, report eosr.Report) error {
	payload := mailPayload{
		Personalizations: []mailPersonalization{{To: addresses(n.to)}},
		From:             mailAddress{Email: n.from},
		Subject:          subject(report),
		Content: []mailContent{
			{Type: "text/plain", Value: plainBody(report)},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("mail notifier: http %d", resp.StatusCode)
	}
	return nil
}

func addresses(addrs []string) []mailAddress {
	out := make([]mailAddress, 0, len(addrs))
	for _, addr := range addrs {
		out = append(out, mailAddress{Email: addr})
	}
	return out
}

func subject(report eosr.Report) string {
	return fmt.Sprintf("[EOSR][%s] %s shift", strings.ToUpper(report.Priority), report.Shift)
}

func plainBody(report eosr.Report) string {
	submittedBy := report.SubmittedBy
	if submittedBy == "" {
		submittedBy = "(not provided)"
	}
	var b strings.Builder
	b.WriteString("End of Shift Report\n\n")
	fmt.Fprintf(&b, "When: %s (%s)\n", report.LocalDay, report.TZ)
	fmt.Fprintf(&b, "Shift: %s\n", report.Shift)
	fmt.Fprintf(&b, "Priority: %s\n", report.Priority)
	fmt.Fprintf(&b, "Submitted by: %s\n", submittedBy)
	fmt.Fprintf(&b, "Affected areas: %s\n", report.AffectedAreas)
	fmt.Fprintf(&b, "\nNotes:\n%s\n", report.Notes)
	return b.String()
}
