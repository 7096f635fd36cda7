package feedback

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	model "github.com/earlysignal/backend/internal/model/feedback"
	"github.com/earlysignal/backend/pkg/logger"
	"github.com/earlysignal/backend/pkg/scheduler"
)

var (
	ErrSessionNotFound = errors.New("session not found")
)

// CompletionFunc consumes a finished interview.
type CompletionFunc func(sessionID string, transcript []model.Turn)

// Config carries the simulated latencies of the interview.
type Config struct {
	ReplyDelay      time.Duration
	CompletionDelay time.Duration
}

type entry struct {
	session      model.Session
	conversation *Conversation
}

// Service owns the live interviews, one Conversation per session.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	dialogue   *Dialogue
	sched      scheduler.Scheduler
	cfg        Config
	onComplete CompletionFunc
}

// NewService bootstraps the in-memory session registry.
func NewService(dialogue *Dialogue, sched scheduler.Scheduler, cfg Config) *Service {
	if sched == nil {
		sched = scheduler.NewReal()
	}
	return &Service{
		sessions: make(map[string]*entry),
		dialogue: dialogue,
		sched:    sched,
		cfg:      cfg,
	}
}

// OnComplete registers the consumer of finished interviews.
func (s *Service) OnComplete(fn CompletionFunc) {
	s.mu.Lock()
	s.onComplete = fn
	s.mu.Unlock()
}

// CreateSession starts a new interview.
func (s *Service) CreateSession(ctx context.Context) (model.Session, *Conversation, error) {
	session := model.Session{
		ID:        uuid.NewString(),
		Status:    model.StatusInProgress,
		CreatedAt: s.sched.Now(),
	}

	sessionID := session.ID
	conv := NewConversation(s.dialogue, Options{
		Scheduler:       s.sched,
		ReplyDelay:      s.cfg.ReplyDelay,
		CompletionDelay: s.cfg.CompletionDelay,
		OnComplete: func(transcript []model.Turn) {
			s.handleComplete(sessionID, transcript)
		},
	})

	s.mu.Lock()
	s.sessions[session.ID] = &entry{session: session, conversation: conv}
	s.mu.Unlock()

	logger.WithCtx(ctx).Info("feedback session created", zap.String("session_id", session.ID))
	return session, conv, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[sessionID]
	if !ok {
		return model.Session{}, ErrSessionNotFound
	}
	return e.session, nil
}

// Conversation returns the live interview of a session.
func (s *Service) Conversation(_ context.Context, sessionID string) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e.conversation, nil
}

// SetStatus moves a session along in_progress -> processing -> completed.
func (s *Service) SetStatus(_ context.Context, sessionID string, status model.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	e.session.Status = status
	return nil
}

// LoadTranscript returns the turns of a session.
func (s *Service) LoadTranscript(ctx context.Context, sessionID string) ([]model.Turn, error) {
	conv, err := s.Conversation(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return conv.Transcript(), nil
}

// CloseSession tears an interview down and forgets it.
func (s *Service) CloseSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	e, ok := s.sessions[sessionID]
	if ok {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	e.conversation.Close()
	logger.WithCtx(ctx).Info("feedback session closed", zap.String("session_id", sessionID))
	return nil
}

// Close tears down every interview.
func (s *Service) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*entry)
	s.mu.Unlock()

	for _, e := range sessions {
		e.conversation.Close()
	}
}

func (s *Service) handleComplete(sessionID string, transcript []model.Turn) {
	s.mu.Lock()
	e, ok := s.sessions[sessionID]
	if ok {
		e.session.Status = model.StatusProcessing
	}
	callback := s.onComplete
	s.mu.Unlock()

	if !ok {
		return
	}

	logger.L().Info("feedback interview completed",
		zap.String("session_id", sessionID),
		zap.Int("turns", len(transcript)))

	if callback != nil {
		callback(sessionID, transcript)
	}
}
