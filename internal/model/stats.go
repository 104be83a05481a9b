package model

import "time"

// Stats holds per-day counters keyed by calendar date.
type Stats struct {
	Pomodoros      map[string]int `json:"pomodoros"`
	TasksCompleted map[string]int `json:"tasksCompleted"`
}

func NewStats() Stats {
	return Stats{
		Pomodoros:      map[string]int{},
		TasksCompleted: map[string]int{},
	}
}

// Summary is the dashboard view of one day.
type Summary struct {
	Date            string `json:"date"`
	Pomodoros       int    `json:"pomodoros"`
	TasksCompleted  int    `json:"tasksCompleted"`
	HabitsCompleted int    `json:"habitsCompleted"`
	HabitsTotal     int    `json:"habitsTotal"`
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Backup is the JSON export/import document.
type Backup struct {
	Habits    []Habit   `json:"habits"`
	Tasks     []Task    `json:"tasks"`
	Timestamp time.Time `json:"timestamp"`
}
