package submission

import (
	"encoding/json"
	"strings"
	"time"
)

// Event is one submission record as it appears on disk: a single JSON
// object per line in the area's calendar-date file.
type Event struct {
	SubmissionID string `json:"submission_id"`
	AreaID       string `json:"area_id"`
	Responder    string `json:"responder,omitempty"`
	IssueCount   int    `json:"issue_count"`
	Timestamp    string `json:"timestamp"`

	at time.Time
}

// At returns the parsed event instant.
func (e Event) At() time.Time { return e.at }

// ParseLine decodes one raw line into an Event. Malformed JSON and
// unusable timestamps are reported as errors so the caller can drop the
// line and continue; they never abort a batch.
func ParseLine(line string) (Event, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Event{}, ErrEmptyLine
	}

	var evt Event
	if err := json.Unmarshal([]byte(line), &evt); err != nil {
		return Event{}, ErrMalformedRecord
	}

	at, err := parseTimestamp(evt.Timestamp)
	if err != nil {
		return Event{}, ErrMalformedRecord
	}
	evt.at = at
	evt.AreaID = strings.ToUpper(strings.TrimSpace(evt.AreaID))

	// Issue counts are clamped on read, never trusted negative.
	if evt.IssueCount < 0 {
		evt.IssueCount = 0
	}
	return evt, nil
}

// NewEvent builds a validated event stamped at the given instant.
func NewEvent(submissionID, areaID, responder string, issueCount int, at time.Time) (Event, error) {
	submissionID = strings.TrimSpace(submissionID)
	areaID = strings.ToUpper(strings.TrimSpace(areaID))
	if submissionID == "" {
		return Event{}, ErrMissingField
	}
	if areaID == "" {
		return Event{}, ErrEmptyAreaID
	}
	if issueCount < 0 {
		issueCount = 0
	}
	return Event{
		SubmissionID: submissionID,
		AreaID:       areaID,
		Responder:    strings.TrimSpace(responder),
		IssueCount:   issueCount,
		Timestamp:    at.UTC().Format(time.RFC3339),
		at:           at,
	}, nil
}

// ParseTimestamp parses an incoming timestamp in any accepted layout.
func ParseTimestamp(value string) (time.Time, error) {
	return parseTimestamp(value)
}

// Line encodes the event as its on-disk JSON line (no trailing newline).
func (e Event) Line() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrMalformedRecord
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if at, err := time.Parse(layout, value); err == nil {
			return at, nil
		}
	}
	return time.Time{}, ErrMalformedRecord
}
