// Package gitlog stores submission logs as data/<area>/<YYYY-MM-DD>.jsonl
// files on a Git hosting branch.
package gitlog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"plantpulse/internal/gitlog"
	"plantpulse/internal/plantday"
	submission "plantpulse/internal/submission/domain"
)

// Client is an EventSource backed by a branch of a Git repository.
type Client struct {
	inner   *gitlog.Client
	dataDir string
}

// NewClient constructs a gitlog-backed event source.
func NewClient(apiBase, rawBase, branch, token, dataDir string) (*Client, error) {
	inner, err := gitlog.NewClient(apiBase, rawBase, branch, token)
	if err != nil {
		return nil, err
	}
	if dataDir == "" {
		dataDir = "data"
	}
	return &Client{inner: inner, dataDir: strings.Trim(dataDir, "/")}, nil
}

// ListAreas lists area directories under the data dir, uppercased and sorted.
// Listing failures read as no areas: read paths fail closed.
func (c *Client) ListAreas(ctx context.Context) ([]string, error) {
	entries, err := c.inner.ListDir(ctx, c.dataDir)
	if err != nil {
		return nil, nil
	}
	areas := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type != "dir" || entry.Name == "" {
			continue
		}
		areas = append(areas, strings.ToUpper(entry.Name))
	}
	sort.Strings(areas)
	return areas, nil
}

// ReadDay fetches one calendar-date file and splits it into lines. A
// missing or unreachable file reads as empty.
func (c *Client) ReadDay(ctx context.Context, area string, date plantday.Date) ([]string, error) {
	if strings.TrimSpace(area) == "" {
		return nil, submission.ErrEmptyAreaID
	}
	text, err := c.inner.ReadFile(ctx, c.filePath(area, date))
	if err != nil {
		return nil, nil
	}
	return gitlog.SplitLines(text), nil
}

// AppendLine appends one record line to a calendar-date file, creating the
// file when absent.
func (c *Client) AppendLine(ctx context.Context, area string, date plantday.Date, line string) error {
	area = strings.TrimSpace(area)
	if area == "" {
		return submission.ErrEmptyAreaID
	}
	path := c.filePath(area, date)
	return c.inner.Append(ctx, path, fmt.Sprintf("Append submission to %s", path), line)
}

func (c *Client) filePath(area string, date plantday.Date) string {
	return c.dataDir + "/" + strings.ToLower(area) + "/" + date.String() + ".jsonl"
}
