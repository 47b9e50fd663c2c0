package plantday

// Shift is one of the three fixed 8-hour partitions of a plant day.
type Shift string

const (
	ShiftFirst  Shift = "first"
	ShiftSecond Shift = "second"
	ShiftThird  Shift = "third"
	// ShiftNone is a sentinel for a minute that maps to no shift. The three
	// shifts partition the full day, so seeing it indicates a bug upstream.
	ShiftNone Shift = "none"
)

// Fixed shift boundaries in minutes since midnight. These do not move with
// the plant-day boundary.
const (
	firstShiftStart  = 5 * 60
	secondShiftStart = 13 * 60
	thirdShiftStart  = 21 * 60
)

// ShiftOf classifies a local minute-of-day into a shift.
func ShiftOf(minuteOfDay int) Shift {
	switch {
	case minuteOfDay >= firstShiftStart && minuteOfDay < secondShiftStart:
		return ShiftFirst
	case minuteOfDay >= secondShiftStart && minuteOfDay < thirdShiftStart:
		return ShiftSecond
	case minuteOfDay >= thirdShiftStart || (minuteOfDay >= 0 && minuteOfDay < firstShiftStart):
		return ShiftThird
	default:
		return ShiftNone
	}
}

// Label returns the display label used in weekly results ("1st", "2nd", "3rd").
func (s Shift) Label() string {
	switch s {
	case ShiftFirst:
		return "1st"
	case ShiftSecond:
		return "2nd"
	case ShiftThird:
		return "3rd"
	default:
		return string(s)
	}
}

// Shifts lists the three real shifts in order.
func Shifts() [3]Shift {
	return [3]Shift{ShiftFirst, ShiftSecond, ShiftThird}
}
