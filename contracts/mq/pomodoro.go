package mq

type PomodoroTickPayload struct {
	Mode      string `json:"mode"`
	Remaining int    `json:"remaining_seconds"`
	Total     int    `json:"total_seconds"`
}

// PomodoroCompletedPayload is emitted when a work session ends; TaskID is empty
// when no task was selected.
type PomodoroCompletedPayload struct {
	TaskID string `json:"task_id,omitempty"`
	Date   string `json:"date"`
}
