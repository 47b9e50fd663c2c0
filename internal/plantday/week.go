package plantday

import (
	"fmt"
	"time"
)

// WorkWeek is the Monday-to-Friday span of plant days scored together.
type WorkWeek struct {
	Start Date    // the Monday
	Days  [5]Date // Monday..Friday plant-day start dates
}

// End returns the Friday of the work week.
func (w WorkWeek) End() Date { return w.Days[4] }

// Key returns the archive key for the week ("week-YYYY-MM-DD", Monday-based).
func (w WorkWeek) Key() string {
	return "week-" + w.Start.String()
}

// WorkWeekFrom builds the work week starting at the given Monday. A non-Monday
// start is normalized back to the Monday of its week.
func WorkWeekFrom(start Date) WorkWeek {
	daysBack := (int(start.Weekday()) + 6) % 7
	monday := start.AddDays(-daysBack)
	week := WorkWeek{Start: monday}
	for i := range week.Days {
		week.Days[i] = monday.AddDays(i)
	}
	return week
}

// WorkWeekContaining returns the work week of the instant's local calendar
// date. Weekend instants resolve to the week that just ended.
func (r *Resolver) WorkWeekContaining(t time.Time) WorkWeek {
	date, _ := r.Localize(t)
	return WorkWeekFrom(date)
}

// ISOWeekID returns the ISO week identifier of the instant, e.g. "2024-W02".
// The week rolls over at Monday's plant-day boundary, not at midnight, so a
// third-shift report filed early Monday morning lands in the week it closes.
func (r *Resolver) ISOWeekID(t time.Time) string {
	shifted := t.In(r.loc).Add(-time.Duration(r.boundary) * time.Minute)
	year, week := shifted.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
