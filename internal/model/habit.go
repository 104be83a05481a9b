package model

import "time"

const DefaultCategory = "General"

// Habit is persisted under habits_data as part of one JSON array.
// Streak caches streak.Compute(History) as of the last mutation.
type Habit struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	StartDate time.Time       `json:"startDate"`
	History   map[string]bool `json:"history"`
	Streak    int             `json:"streak"`
}

// Done reports whether the habit is marked complete on date.
func (h *Habit) Done(date string) bool {
	return h.History[date]
}

// Completions counts the marked days.
func (h *Habit) Completions() int {
	n := 0
	for _, done := range h.History {
		if done {
			n++
		}
	}
	return n
}

// Clone returns a deep copy so callers cannot mutate a store's cache.
func (h Habit) Clone() Habit {
	history := make(map[string]bool, len(h.History))
	for k, v := range h.History {
		history[k] = v
	}
	h.History = history
	return h
}

type HabitStats struct {
	TotalHabits    int `json:"totalHabits"`
	CompletedToday int `json:"completedToday"`
}

// DayMark is one cell of a habit's weekly view.
type DayMark struct {
	Date string `json:"date"`
	Done bool   `json:"done"`
}
