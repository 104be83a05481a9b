package mq

type HabitCreatedPayload struct {
	HabitID  string `json:"habit_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

type HabitDeletedPayload struct {
	HabitID string `json:"habit_id"`
}

type HabitToggledPayload struct {
	HabitID string `json:"habit_id"`
	Date    string `json:"date"`
	Done    bool   `json:"done"`
	Streak  int    `json:"streak"`
}

// HabitStreakChangedPayload is emitted when a day rollover changes a cached streak.
type HabitStreakChangedPayload struct {
	HabitID  string `json:"habit_id"`
	Name     string `json:"name"`
	Previous int    `json:"previous"`
	Streak   int    `json:"streak"`
}
