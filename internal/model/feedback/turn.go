package feedback

import "time"

// Role identifies who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in the interview transcript.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Clock renders the timestamp the way the chat view shows it.
func (t Turn) Clock() string {
	return t.Timestamp.Format("15:04")
}
