// Package streak computes a habit's current run of consecutive completed days.
package streak

import (
	"time"

	"focusdesk/internal/calendar"
)

// Compute returns the length of the unbroken chain of completed days that is
// still alive at now: it must end today or, while today is still unmarked,
// yesterday. A chain whose latest day is older than yesterday counts as 0 no
// matter how long it was.
//
// history maps calendar-date keys to completion; only true entries count and
// keys that are not valid dates are ignored.
func Compute(history map[string]bool, now time.Time) int {
	latest := ""
	for key, done := range history {
		if !done || !calendar.Valid(key) {
			continue
		}
		// canonical keys sort chronologically
		if key > latest {
			latest = key
		}
	}
	if latest == "" {
		return 0
	}
	if latest != calendar.Key(now) && latest != calendar.Yesterday(now) {
		return 0
	}

	day, _ := calendar.Parse(latest)
	count := 0
	for history[calendar.Key(day)] {
		count++
		day = day.AddDate(0, 0, -1)
	}
	return count
}
