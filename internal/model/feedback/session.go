package feedback

import "time"

// Status tracks a feedback session from interview to generated profile.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
)

// Session captures one founder interview.
type Session struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
