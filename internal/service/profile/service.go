package profile

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/earlysignal/backend/internal/analysis/industry"
	feedbackModel "github.com/earlysignal/backend/internal/model/feedback"
	model "github.com/earlysignal/backend/internal/model/profile"
	startupModel "github.com/earlysignal/backend/internal/model/startup"
	"github.com/earlysignal/backend/internal/service/feedback"
	"github.com/earlysignal/backend/pkg/logger"
	"github.com/earlysignal/backend/pkg/scheduler"
)

const (
	DefaultDelay = 3 * time.Second

	maxDescriptionLen = 160
)

var (
	ErrProfileNotFound = errors.New("profile not found")
)

// ReadyFunc is notified once a profile has been published.
type ReadyFunc func(p model.FounderProfile)

// Config tunes profile generation.
type Config struct {
	Delay time.Duration
}

// Service turns finished interviews into founder profiles listed on the dashboard.
type Service struct {
	mu      sync.RWMutex
	records map[string]model.Record
	timers  map[string]scheduler.Timer
	onReady ReadyFunc
	closed  bool

	sched      scheduler.Scheduler
	store      startupModel.Store
	assessment feedbackModel.Assessment
	delay      time.Duration
}

// NewService builds a generator that publishes into store.
func NewService(sched scheduler.Scheduler, store startupModel.Store, assessment feedbackModel.Assessment, cfg Config) *Service {
	if sched == nil {
		sched = scheduler.NewReal()
	}
	delay := cfg.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Service{
		records:    make(map[string]model.Record),
		timers:     make(map[string]scheduler.Timer),
		sched:      sched,
		store:      store,
		assessment: assessment,
		delay:      delay,
	}
}

// OnReady registers the hook fired after each profile is published.
func (s *Service) OnReady(fn ReadyFunc) {
	s.mu.Lock()
	s.onReady = fn
	s.mu.Unlock()
}

// Generate records the session as processing and publishes its profile after
// the configured delay. Repeated calls for the same session are ignored.
func (s *Service) Generate(sessionID string, transcript []feedbackModel.Turn) {
	turns := append([]feedbackModel.Turn(nil), transcript...)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if _, exists := s.records[sessionID]; exists {
		return
	}
	s.records[sessionID] = model.Record{Status: model.StatusProcessing}
	s.timers[sessionID] = s.sched.AfterFunc(s.delay, func() {
		s.publish(sessionID, turns)
	})

	logger.L().Info("profile generation scheduled",
		zap.String("session_id", sessionID),
		zap.Duration("delay", s.delay))
}

// Get returns the generation status of a session and its profile when ready.
func (s *Service) Get(sessionID string) (model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[sessionID]
	if !ok {
		return model.Record{}, fmt.Errorf("get profile %q: %w", sessionID, ErrProfileNotFound)
	}
	return record, nil
}

// Close cancels pending generations.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}

func (s *Service) publish(sessionID string, turns []feedbackModel.Turn) {
	p := s.build(sessionID, turns)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	delete(s.timers, sessionID)
	s.mu.Unlock()

	s.store.Upsert(startupModel.Startup{
		ID:               p.StartupID,
		Name:             startupName(sessionID),
		Industry:         p.Industry,
		Stage:            startupModel.StageIdea,
		AIScore:          p.Score,
		TeamSize:         1,
		ShortDescription: truncate(p.Pitch, maxDescriptionLen),
	})

	s.mu.Lock()
	s.records[sessionID] = model.Record{Status: model.StatusCompleted, Profile: &p}
	hook := s.onReady
	s.mu.Unlock()

	logger.L().Info("founder profile published",
		zap.String("session_id", sessionID),
		zap.String("startup_id", p.StartupID),
		zap.String("industry", p.Industry))

	if hook != nil {
		hook(p)
	}
}

func (s *Service) build(sessionID string, turns []feedbackModel.Turn) model.FounderProfile {
	answers := feedback.FounderAnswers(turns)
	decision := industry.Analyze(answers)

	pitch := ""
	for _, turn := range turns {
		if turn.Role == feedbackModel.RoleUser {
			pitch = turn.Content
			break
		}
	}

	return model.FounderProfile{
		SessionID:    sessionID,
		StartupID:    uuid.NewString(),
		Industry:     string(decision.Industry),
		Score:        s.assessment.Score,
		Strengths:    append([]string(nil), s.assessment.Strengths...),
		Improvements: append([]string(nil), s.assessment.Improvements...),
		Pitch:        pitch,
		GeneratedAt:  s.sched.Now(),
	}
}

func startupName(sessionID string) string {
	short := sessionID
	if len(short) > 8 {
		short = short[:8]
	}
	return "Founder " + short
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max])) + "…"
}
