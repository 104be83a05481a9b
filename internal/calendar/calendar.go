// Package calendar converts between instants and "YYYY-MM-DD" calendar-date keys.
//
// A key names a local calendar day: the caller decides the time zone by the
// location of the time.Time it passes in. Day arithmetic is done on civil
// dates, so DST transitions never skip or repeat a key.
package calendar

import (
	"fmt"
	"time"
)

// Layout is the key format.
const Layout = "2006-01-02"

// Key returns the calendar-date key of t in t's location.
func Key(t time.Time) string {
	return t.Format(Layout)
}

// Parse returns the civil date of key as midnight UTC.
func Parse(key string) (time.Time, error) {
	t, err := time.Parse(Layout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", key, err)
	}
	if t.Format(Layout) != key {
		return time.Time{}, fmt.Errorf("invalid date %q: not in canonical form", key)
	}
	return t, nil
}

// Valid reports whether key is a well-formed calendar date.
func Valid(key string) bool {
	_, err := Parse(key)
	return err == nil
}

// AddDays shifts key by n days (n may be negative).
func AddDays(key string, n int) (string, error) {
	t, err := Parse(key)
	if err != nil {
		return "", err
	}
	return Key(t.AddDate(0, 0, n)), nil
}

// Yesterday returns the key of the day before now's calendar day.
func Yesterday(now time.Time) string {
	y, m, d := now.Date()
	return Key(time.Date(y, m, d-1, 0, 0, 0, 0, time.UTC))
}

// LastDays returns the n keys ending at now's calendar day, oldest first.
func LastDays(now time.Time, n int) []string {
	y, m, d := now.Date()
	keys := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		keys = append(keys, Key(time.Date(y, m, d-i, 0, 0, 0, 0, time.UTC)))
	}
	return keys
}
