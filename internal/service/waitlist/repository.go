package waitlist

import (
	"context"
	"time"
)

// Entry is a single waitlist signup.
type Entry struct {
	Email    string
	JoinedAt time.Time
}

// Repository persists waitlist signups.
type Repository interface {
	Add(ctx context.Context, entry Entry) error
	Exists(ctx context.Context, email string) (bool, error)
	Count(ctx context.Context) (int, error)
	// Reset drops every signup.
	Reset(ctx context.Context) error
	Close() error
}
