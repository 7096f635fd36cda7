package profile_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	feedbackModel "github.com/earlysignal/backend/internal/model/feedback"
	model "github.com/earlysignal/backend/internal/model/profile"
	startupModel "github.com/earlysignal/backend/internal/model/startup"
	"github.com/earlysignal/backend/internal/service/profile"
	"github.com/earlysignal/backend/pkg/scheduler"
)

func transcript() []feedbackModel.Turn {
	return []feedbackModel.Turn{
		{Role: feedbackModel.RoleAssistant, Content: "hi"},
		{Role: feedbackModel.RoleUser, Content: "We run EV charging stations powered by solar energy."},
		{Role: feedbackModel.RoleAssistant, Content: "problem?"},
		{Role: feedbackModel.RoleUser, Content: "Charging is slow and dirty; carbon emissions stay high."},
	}
}

func setup(t *testing.T) (*profile.Service, *scheduler.Manual, *startupModel.MemoryStore) {
	t.Helper()
	sched := scheduler.NewManual(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	store := startupModel.NewMemoryStore(startupModel.Seed())
	assessment := feedbackModel.MustDefaultScript().Assessment
	svc := profile.NewService(sched, store, assessment, profile.Config{})
	t.Cleanup(svc.Close)
	return svc, sched, store
}

func TestGenerateIsProcessingUntilDelay(t *testing.T) {
	svc, sched, store := setup(t)

	svc.Generate("session-1", transcript())

	record, err := svc.Get("session-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, record.Status)
	assert.Nil(t, record.Profile)

	sched.Advance(profile.DefaultDelay - time.Millisecond)
	record, _ = svc.Get("session-1")
	assert.Equal(t, model.StatusProcessing, record.Status)
	assert.Len(t, store.List(), 6)

	sched.Advance(time.Millisecond)
	record, err = svc.Get("session-1")
	require.NoError(t, err)
	require.Equal(t, model.StatusCompleted, record.Status)
	require.NotNil(t, record.Profile)

	p := record.Profile
	assert.Equal(t, "ClimateTech", p.Industry)
	assert.Equal(t, 78, p.Score)
	assert.Len(t, p.Strengths, 3)
	assert.Len(t, p.Improvements, 3)
	assert.Equal(t, "We run EV charging stations powered by solar energy.", p.Pitch)

	published, ok := store.FindByID(p.StartupID)
	require.True(t, ok)
	assert.Equal(t, startupModel.StageIdea, published.Stage)
	assert.Equal(t, 78, published.AIScore)
	assert.Len(t, store.List(), 7)
}

func TestGenerateNotifiesReadyOnce(t *testing.T) {
	svc, sched, _ := setup(t)

	var ready []model.FounderProfile
	svc.OnReady(func(p model.FounderProfile) { ready = append(ready, p) })

	svc.Generate("session-1", transcript())
	svc.Generate("session-1", transcript())
	sched.Advance(10 * time.Second)

	require.Len(t, ready, 1)
	assert.Equal(t, "session-1", ready[0].SessionID)
}

func TestGetUnknownSession(t *testing.T) {
	svc, _, _ := setup(t)
	_, err := svc.Get("missing")
	assert.ErrorIs(t, err, profile.ErrProfileNotFound)
}

func TestCloseCancelsPendingGeneration(t *testing.T) {
	svc, sched, store := setup(t)

	svc.Generate("session-1", transcript())
	svc.Close()
	sched.Advance(10 * time.Second)

	record, err := svc.Get("session-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, record.Status)
	assert.Len(t, store.List(), 6)
	assert.Zero(t, sched.Pending())
}
