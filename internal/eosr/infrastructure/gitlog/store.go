// Package gitlog stores end-of-shift reports as data-eosr/<week>.jsonl
// files on a Git hosting branch.
package gitlog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"plantpulse/internal/gitlog"
)

// Store keeps one JSONL file per ISO week.
type Store struct {
	inner   *gitlog.Client
	dataDir string
}

// NewStore constructs a gitlog-backed report store.
func NewStore(apiBase, rawBase, branch, token, dataDir string) (*Store, error) {
	inner, err := gitlog.NewClient(apiBase, rawBase, branch, token)
	if err != nil {
		return nil, err
	}
	if dataDir == "" {
		dataDir = "data-eosr"
	}
	return &Store{inner: inner, dataDir: strings.Trim(dataDir, "/")}, nil
}

// ReadWeek fetches one week file and splits it into lines. A missing or
// unreachable file reads as empty.
func (s *Store) ReadWeek(ctx context.Context, weekID string) ([]string, error) {
	text, err := s.inner.ReadFile(ctx, s.filePath(weekID))
	if err != nil {
		return nil, nil
	}
	return gitlog.SplitLines(text), nil
}

// AppendLine appends one report line to a week file, creating it when
// absent.
func (s *Store) AppendLine(ctx context.Context, weekID, line string) error {
	return s.inner.Append(ctx, s.filePath(weekID), fmt.Sprintf("EOSR %s", weekID), line)
}

// ListWeeks lists week files under the data dir, newest first. Listing
// failures read as no weeks.
func (s *Store) ListWeeks(ctx context.Context) ([]string, error) {
	entries, err := s.inner.ListDir(ctx, s.dataDir)
	if err != nil {
		return nil, nil
	}
	weeks := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name, ".jsonl") {
			continue
		}
		weeks = append(weeks, strings.TrimSuffix(entry.Name, ".jsonl"))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(weeks)))
	return weeks, nil
}

func (s *Store) filePath(weekID string) string {
	return s.dataDir + "/" + weekID + ".jsonl"
}
