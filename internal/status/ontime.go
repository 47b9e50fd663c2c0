package status

import "errors"

// WindowTracker scores submission punctuality inside the current plant day
// using fixed-size windows. A window is "seen" when any event lands in it
// and "on time" when one lands within the tolerance of its start.
type WindowTracker struct {
	window    int // minutes per window
	tolerance int // on-time minutes at the window start
}

// NewWindowTracker constructs a tracker.
func NewWindowTracker(windowMinutes, toleranceMinutes int) (*WindowTracker, error) {
	if windowMinutes <= 0 {
		return nil, errors.New("window tracker: window must be positive")
	}
	if toleranceMinutes < 0 || toleranceMinutes > windowMinutes {
		return nil, errors.New("window tracker: tolerance out of range")
	}
	return &WindowTracker{window: windowMinutes, tolerance: toleranceMinutes}, nil
}

// WindowScore is the punctuality outcome for a plant day so far.
type WindowScore struct {
	ElapsedWindows int
	SeenWindows    int
	OnTimeWindows  int
	CompletionPct  int
	OnTimePct      int
}

// Score evaluates event offsets (minutes since the plant-day boundary;
// negative offsets are outside the day and skipped) against the elapsed
// portion of the day. Both percentages are monotonically non-decreasing as
// events accumulate within the same elapsed-window count.
func (t *WindowTracker) Score(eventOffsets []int, nowOffset int) WindowScore {
	elapsed := nowOffset/t.window + 1
	if elapsed < 1 {
		elapsed = 1
	}

	seen := make(map[int]struct{})
	onTime := make(map[int]struct{})
	for _, offset := range eventOffsets {
		if offset < 0 {
			continue
		}
		idx := offset / t.window
		seen[idx] = struct{}{}
		if offset%t.window < t.tolerance {
			onTime[idx] = struct{}{}
		}
	}

	completed := len(seen)
	if completed > elapsed {
		completed = elapsed
	}
	punctual := len(onTime)
	if punctual > elapsed {
		punctual = elapsed
	}

	return WindowScore{
		ElapsedWindows: elapsed,
		SeenWindows:    completed,
		OnTimeWindows:  punctual,
		CompletionPct:  windowPct(completed, elapsed),
		OnTimePct:      windowPct(punctual, elapsed),
	}
}

func windowPct(n, elapsed int) int {
	if elapsed <= 0 {
		return 0
	}
	pct := (n*100 + elapsed/2) / elapsed
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
