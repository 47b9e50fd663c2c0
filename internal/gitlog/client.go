// Package gitlog is a thin client for append-only JSONL files kept on a
// branch of a Git hosting service. Reads go through the raw file endpoint;
// writes are a read-modify-put through the contents API keyed by the
// current blob SHA.
package gitlog

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"context"
)

// ErrNotFound reports a path that does not exist on the branch.
var ErrNotFound = errors.New("gitlog: not found")

// Client talks to one repository branch.
type Client struct {
	apiBase string // e.g. https://api.github.com/repos/<owner>/<repo>/contents
	rawBase string // e.g. https://raw.githubusercontent.com/<owner>/<repo>
	branch  string
	token   string
	client  *http.Client
}

// NewClient constructs a client for one branch.
func NewClient(apiBase, rawBase, branch, token string) (*Client, error) {
	if apiBase == "" || rawBase == "" {
		return nil, errors.New("gitlog: empty base url")
	}
	if branch == "" {
		return nil, errors.New("gitlog: empty branch")
	}
	return &Client{
		apiBase: strings.TrimRight(apiBase, "/"),
		rawBase: strings.TrimRight(rawBase, "/"),
		branch:  branch,
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Entry is one item of a directory listing.
type Entry struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	SHA     string `json:"sha"`
	Content string `json:"content"`
}

// ListDir lists the entries of a directory on the branch.
func (c *Client) ListDir(ctx context.Context, dir string) ([]Entry, error) {
	var entries []Entry
	if err := c.getJSON(ctx, c.apiBase+"/"+escapePath(dir)+"?ref="+url.QueryEscape(c.branch), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ReadFile fetches a file's text through the raw endpoint.
func (c *Client) ReadFile(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.rawBase+"/"+c.branch+"/"+path, nil)
	if err != nil {
		return "", err
	}
	c.authorize(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gitlog: http %d", resp.StatusCode)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Append adds one line to a file, creating the file when absent. The put
// carries the blob SHA observed during the read, so a concurrent writer
// makes the put fail rather than silently drop lines.
func (c *Client) Append(ctx context.Context, path, message, line string) error {
	existing, sha, err := c.getContent(ctx, path)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	next := existing + line + "\n"
	return c.putContent(ctx, path, message, next, sha)
}

func (c *Client) getContent(ctx context.Context, path string) (string, string, error) {
	var entry Entry
	err := c.getJSON(ctx, c.apiBase+"/"+escapePath(path)+"?ref="+url.QueryEscape(c.branch), &entry)
	if err != nil {
		return "", "", err
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(entry.Content, "\n", ""))
	if err != nil {
		return "", "", err
	}
	return string(decoded), entry.SHA, nil
}

func (c *Client) putContent(ctx context.Context, path, message, content, sha string) error {
	body := map[string]any{
		"message": message,
		"content": base64.StdEncoding.EncodeToString([]byte(content)),
		"branch":  c.branch,
	}
	if sha != "" {
		body["sha"] = sha
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.apiBase+"/"+escapePath(path), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.github+json")
	c.authorize(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("gitlog: put http %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	c.authorize(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("gitlog: http %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func escapePath(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

// SplitLines turns file text into its non-blank lines.
func SplitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
