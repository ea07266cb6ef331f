package availability

import (
	"errors"
	"time"
)

// DefaultStep is the fixed slot granularity offered to clients.
const DefaultStep = 30 * time.Minute

var ErrInvalidDuration = errors.New("service duration must be positive")

type Interval struct {
	Start time.Time
	End   time.Time
}

// ComputeSlots returns candidate start times within [windowStart, windowEnd)
// where a booking of length duration would not overlap any busy appointment
// interval or blocked interval. Candidates strictly in the past (start <= now)
// are excluded. The result is in ascending order and fully determined by the
// inputs.
//
// All times are expected to be in the same location (timezone).
func ComputeSlots(windowStart, windowEnd time.Time, duration, step time.Duration, busy, blocked []Interval, now time.Time) ([]time.Time, error) {
	if duration <= 0 || step <= 0 {
		return nil, ErrInvalidDuration
	}
	if !windowEnd.After(windowStart) {
		return nil, nil
	}

	var slots []time.Time
	for t := windowStart; !t.Add(duration).After(windowEnd); t = t.Add(step) {
		if !t.After(now) {
			continue
		}
		end := t.Add(duration)
		if overlapsAny(t, end, busy) || overlapsAny(t, end, blocked) {
			continue
		}
		slots = append(slots, t)
	}
	return slots, nil
}

func overlapsAny(start, end time.Time, intervals []Interval) bool {
	for _, iv := range intervals {
		// Half-open intervals: [start,end) overlaps [iv.Start,iv.End) iff
		// start < iv.End && iv.Start < end. A candidate that exactly abuts an
		// interval does not overlap it.
		if start.Before(iv.End) && iv.Start.Before(end) {
			return true
		}
	}
	return false
}
