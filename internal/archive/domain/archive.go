package archive

import (
	"time"

	"plantpulse/internal/aggregation"
)

// WeeklyArchive is the one persisted derived entity: the final result of a
// work week. Invariant: once created it is never overwritten, even when the
// underlying raw logs later change.
type WeeklyArchive struct {
	Period  aggregation.Period      `json:"period"`
	Days    []aggregation.DayCounts `json:"days"`
	Totals  aggregation.ShiftCounts `json:"totals"`
	Counted aggregation.ShiftCounts `json:"counted"`
	Percent aggregation.ShiftCounts `json:"percent"`
	Winner  string                  `json:"winner"`
	SavedAt time.Time               `json:"savedAt"`
}

// FromWeekResult builds the archive record for a computed week.
func FromWeekResult(result aggregation.WeekResult, savedAt time.Time) WeeklyArchive {
	return WeeklyArchive{
		Period:  result.Period,
		Days:    result.Days,
		Totals:  result.Totals,
		Counted: result.Counted,
		Percent: result.Percent,
		Winner:  result.Winner,
		SavedAt: savedAt.UTC(),
	}
}
