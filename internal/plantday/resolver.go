package plantday

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// Resolver converts instants to the plant's civil calendar and classifies
// them into plant days. A plant day starts at the boundary time-of-day
// (05:00 in most deployments, 05:30 in one) and spans 24 hours, so a plant
// day's events straddle two calendar-date files.
type Resolver struct {
	loc      *time.Location
	boundary int // minutes since local midnight
}

// NewResolver constructs a resolver for a timezone name and a boundary in
// HH:MM form. The timezone is resolved through the civil calendar, never a
// fixed UTC offset.
func NewResolver(tzName, boundary string) (*Resolver, error) {
	if tzName == "" {
		return nil, ErrUnknownTimezone
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTimezone, tzName)
	}
	minutes, err := parseBoundary(boundary)
	if err != nil {
		return nil, err
	}
	return &Resolver{loc: loc, boundary: minutes}, nil
}

// Location returns the plant timezone.
func (r *Resolver) Location() *time.Location { return r.loc }

// TimezoneName returns the configured timezone name.
func (r *Resolver) TimezoneName() string { return r.loc.String() }

// Boundary returns the plant-day boundary as minutes since local midnight.
func (r *Resolver) Boundary() int { return r.boundary }

// Localize converts an instant to its civil date and minute-of-day in the
// plant timezone.
func (r *Resolver) Localize(t time.Time) (Date, int) {
	local := t.In(r.loc)
	return DateOf(local), local.Hour()*60 + local.Minute()
}

// PlantDayOf returns the plant day an instant belongs to: the local calendar
// date when the time-of-day is at or past the boundary, otherwise the
// previous calendar date.
func (r *Resolver) PlantDayOf(t time.Time) Date {
	date, minute := r.Localize(t)
	if minute >= r.boundary {
		return date
	}
	return date.AddDays(-1)
}

// ShiftAt classifies an instant into a shift.
func (r *Resolver) ShiftAt(t time.Time) Shift {
	_, minute := r.Localize(t)
	return ShiftOf(minute)
}

// InPlantDay reports whether an instant falls inside the given plant day.
func (r *Resolver) InPlantDay(t time.Time, day Date) bool {
	return r.PlantDayOf(t) == day
}

// MinutesSinceBoundary returns minutes elapsed from the plant day's start to
// the instant, or -1 when the instant is outside that plant day.
func (r *Resolver) MinutesSinceBoundary(t time.Time, day Date) int {
	date, minute := r.Localize(t)
	switch {
	case date == day && minute >= r.boundary:
		return minute - r.boundary
	case date == day.Next() && minute < r.boundary:
		return (minutesPerDay - r.boundary) + minute
	default:
		return -1
	}
}

// CandidateFiles returns the two calendar-date file keys that can hold a
// plant day's events: the start date and the date after it.
func (r *Resolver) CandidateFiles(day Date) [2]Date {
	return [2]Date{day, day.Next()}
}

func parseBoundary(value string) (int, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBoundary, value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBoundary, value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBoundary, value)
	}
	return hour*60 + minute, nil
}
