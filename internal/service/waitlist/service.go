package waitlist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/earlysignal/backend/pkg/logger"
)

var (
	ErrInvalidEmail  = errors.New("invalid email")
	ErrAlreadyJoined = errors.New("email already on the waitlist")
)

// Service validates signups and stores them in a Repository.
type Service struct {
	// serializes the exists-then-add check
	mu   sync.Mutex
	repo Repository
	now  func() time.Time
}

// NewService wraps repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Join adds email to the waitlist and returns the new signup count.
func (s *Service) Join(ctx context.Context, email string) (int, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return 0, ErrInvalidEmail
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.repo.Exists(ctx, email)
	if err != nil {
		return 0, fmt.Errorf("join waitlist: %w", err)
	}
	if exists {
		return 0, ErrAlreadyJoined
	}
	if err := s.repo.Add(ctx, Entry{Email: email, JoinedAt: s.now().UTC()}); err != nil {
		return 0, fmt.Errorf("join waitlist: %w", err)
	}

	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("join waitlist: %w", err)
	}
	logger.WithCtx(ctx).Info("waitlist signup", zap.Int("count", count))
	return count, nil
}

// Count returns the number of signups.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Reset clears the waitlist.
func (s *Service) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Reset(ctx)
}
