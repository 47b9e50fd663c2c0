package status

import "time"

// Status is the point-in-time health classification of one area.
type Status string

const (
	StatusOK        Status = "OK"
	StatusAttention Status = "Attention"
	StatusAlert     Status = "Alert"
	StatusCritical  Status = "Critical"
)

// Classify maps today's issue count onto the ordered thresholds.
func Classify(issuesToday int) Status {
	switch {
	case issuesToday >= 5:
		return StatusCritical
	case issuesToday >= 3:
		return StatusAlert
	case issuesToday >= 1:
		return StatusAttention
	default:
		return StatusOK
	}
}

// MinutesSince returns whole minutes elapsed from the latest event to now,
// never negative.
func MinutesSince(latest, now time.Time) int {
	delta := now.Sub(latest)
	if delta < 0 {
		return 0
	}
	return int(delta / time.Minute)
}
