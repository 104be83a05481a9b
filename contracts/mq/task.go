package mq

type TaskCreatedPayload struct {
	TaskID string `json:"task_id"`
	Text   string `json:"text"`
}

type TaskCompletedPayload struct {
	TaskID string `json:"task_id"`
	Date   string `json:"date"`
}

type TaskDeletedPayload struct {
	TaskID string `json:"task_id"`
}

type BackupImportedPayload struct {
	Habits int `json:"habits"`
	Tasks  int `json:"tasks"`
}
