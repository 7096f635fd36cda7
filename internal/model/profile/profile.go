package profile

import "time"

// Status of founder profile generation.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
)

// FounderProfile is what investors see after a founder finishes the interview.
type FounderProfile struct {
	SessionID    string    `json:"sessionId"`
	StartupID    string    `json:"startupId"`
	Industry     string    `json:"industry"`
	Score        int       `json:"score"`
	Strengths    []string  `json:"strengths"`
	Improvements []string  `json:"improvements"`
	Pitch        string    `json:"pitch"`
	GeneratedAt  time.Time `json:"generatedAt"`
}

// Record pairs the generation status with the profile once ready.
type Record struct {
	Status  Status          `json:"status"`
	Profile *FounderProfile `json:"profile,omitempty"`
}
