// Package eosr holds end-of-shift reports: free-form shift narratives filed
// by supervisors and kept per ISO week, separate from the submission logs.
package eosr

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Validation errors for incoming reports.
var (
	ErrShiftRequired = errors.New("eosr: shift required")
	ErrNotesRequired = errors.New("eosr: notes required")
)

// Default field values for reports that omit them.
const (
	DefaultPriority      = "normal"
	DefaultAffectedAreas = "USP Complex"
)

// Report is one end-of-shift narrative as stored on disk, one JSON line per
// report in the week's file.
type Report struct {
	TsUTC         string `json:"ts_utc"`
	TZ            string `json:"tz"`
	LocalDay      string `json:"local_day"`
	Week          string `json:"week"`
	Shift         string `json:"shift"`
	Priority      string `json:"priority"`
	SubmittedBy   string `json:"submitted_by"`
	AffectedAreas string `json:"affected_areas"`
	Notes         string `json:"notes"`
}

// Draft is the caller-supplied part of a report before stamping.
type Draft struct {
	Shift       string
	Priority    string
	SubmittedBy string
	Notes       string
}

// Normalize validates a draft and fills defaults. Shift is lowercased;
// priority defaults to normal.
func (d Draft) Normalize() (Draft, error) {
	d.Shift = strings.ToLower(strings.TrimSpace(d.Shift))
	d.Notes = strings.TrimSpace(d.Notes)
	d.SubmittedBy = strings.TrimSpace(d.SubmittedBy)
	d.Priority = strings.TrimSpace(d.Priority)
	if d.Priority == "" {
		d.Priority = DefaultPriority
	}
	if d.Shift == "" {
		return Draft{}, ErrShiftRequired
	}
	if d.Notes == "" {
		return Draft{}, ErrNotesRequired
	}
	return d, nil
}

// Stamp turns a normalized draft into the stored report for a week.
func (d Draft) Stamp(now time.Time, tzName string, loc *time.Location, weekID string) Report {
	local := now.In(loc)
	return Report{
		TsUTC:         now.UTC().Format(time.RFC3339),
		TZ:            tzName,
		LocalDay:      local.Format("Monday, Jan 02 2006 15:04"),
		Week:          weekID,
		Shift:         d.Shift,
		Priority:      d.Priority,
		SubmittedBy:   d.SubmittedBy,
		AffectedAreas: DefaultAffectedAreas,
		Notes:         d.Notes,
	}
}

// Line encodes the report as one JSONL line.
func (r Report) Line() (string, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// ParseLine decodes one stored line. Malformed lines return an error and
// are skipped by readers, never fatal.
func ParseLine(line string) (Report, error) {
	var r Report
	if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &r); err != nil {
		return Report{}, err
	}
	return r, nil
}
