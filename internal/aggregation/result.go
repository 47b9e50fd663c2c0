package aggregation

import (
	"strings"
	"time"

	"plantpulse/internal/plantday"
	submission "plantpulse/internal/submission/domain"
)

// ShiftCounts holds one integer per shift.
type ShiftCounts struct {
	First  int `json:"first"`
	Second int `json:"second"`
	Third  int `json:"third"`
}

// Add increments the counter for a shift. ShiftNone is ignored.
func (c *ShiftCounts) Add(shift plantday.Shift, n int) {
	switch shift {
	case plantday.ShiftFirst:
		c.First += n
	case plantday.ShiftSecond:
		c.Second += n
	case plantday.ShiftThird:
		c.Third += n
	}
}

// Get returns the counter for a shift.
func (c ShiftCounts) Get(shift plantday.Shift) int {
	switch shift {
	case plantday.ShiftFirst:
		return c.First
	case plantday.ShiftSecond:
		return c.Second
	case plantday.ShiftThird:
		return c.Third
	default:
		return 0
	}
}

// Period describes the span a result covers.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
	TZ    string `json:"tz"`
}

// DayCounts is the per-day raw breakdown in a week result.
type DayCounts struct {
	Label  string `json:"label"`
	First  int    `json:"first"`
	Second int    `json:"second"`
	Third  int    `json:"third"`
}

// WeekResult is the scored outcome of one work week.
type WeekResult struct {
	Period  Period      `json:"period"`
	Days    []DayCounts `json:"days"`
	Totals  ShiftCounts `json:"totals"`
	Counted ShiftCounts `json:"counted"`
	Percent ShiftCounts `json:"percent"`
	Winner  string      `json:"winner"`
}

// DayAggregate is one area's activity within a single plant day.
type DayAggregate struct {
	Area        string
	Day         plantday.Date
	Events      []submission.Event // in plant day, sorted by time
	ShiftCounts ShiftCounts
	IssuesToday int
	LastTime    time.Time // zero when no events
}

// winnerLabel formats the winning shift label(s); ties list every winner.
func winnerLabel(percent ShiftCounts) string {
	best := percent.First
	if percent.Second > best {
		best = percent.Second
	}
	if percent.Third > best {
		best = percent.Third
	}
	var winners []string
	for _, shift := range plantday.Shifts() {
		if percent.Get(shift) == best {
			winners = append(winners, shift.Label())
		}
	}
	return strings.Join(winners, ", ")
}
