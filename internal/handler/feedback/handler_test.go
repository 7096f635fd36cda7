package feedback

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/earlysignal/backend/internal/model/feedback"
	startupModel "github.com/earlysignal/backend/internal/model/startup"
	feedbackService "github.com/earlysignal/backend/internal/service/feedback"
	profileService "github.com/earlysignal/backend/internal/service/profile"
	"github.com/earlysignal/backend/pkg/scheduler"
)

var founderAnswers = []string{
	"We build EV charging stations powered by solar energy",
	"Drivers wait hours to charge and grids are carbon heavy",
	"Modular chargers with on-site batteries",
	"A $40B market, monetized per kWh",
	"Two energy engineers and a former Tesla PM",
	"Pilot in 3 cities, raising $2M",
	"Yes please",
}

type testEnv struct {
	router      *chi.Mux
	feedbackSvc *feedbackService.Service
	profileSvc  *profileService.Service
	sched       *scheduler.Manual
	store       *startupModel.MemoryStore
}

func setupRouter(t *testing.T) *testEnv {
	t.Helper()

	script := model.MustDefaultScript()
	sched := scheduler.NewManual(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	store := startupModel.NewMemoryStore(startupModel.Seed())

	feedbackSvc := feedbackService.NewService(feedbackService.NewDialogue(script), sched, feedbackService.Config{})
	profileSvc := profileService.NewService(sched, store, script.Assessment, profileService.Config{})
	feedbackSvc.OnComplete(profileSvc.Generate)
	t.Cleanup(func() {
		feedbackSvc.Close()
		profileSvc.Close()
	})

	r := chi.NewRouter()
	New(feedbackSvc, profileSvc).RegisterRoutes(r)
	return &testEnv{router: r, feedbackSvc: feedbackSvc, profileSvc: profileSvc, sched: sched, store: store}
}

type sessionBody struct {
	Session struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"session"`
	Transcript []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"transcript"`
	State       string `json:"state"`
	Pending     bool   `json:"pending"`
	Completed   bool   `json:"completed"`
	Suggestions []struct {
		Label string `json:"label"`
		Text  string `json:"text"`
	} `json:"suggestions"`
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	e.router.ServeHTTP(resp, req)
	return resp
}

func (e *testEnv) createSession(t *testing.T) sessionBody {
	t.Helper()

	resp := e.do(t, http.MethodPost, "/feedback/sessions", nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	var body sessionBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func (e *testEnv) getSession(t *testing.T, id string) sessionBody {
	t.Helper()

	resp := e.do(t, http.MethodGet, "/feedback/sessions/"+id, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body sessionBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestCreateSessionStartsWithGreeting(t *testing.T) {
	env := setupRouter(t)
	body := env.createSession(t)

	assert.NotEmpty(t, body.Session.ID)
	assert.Equal(t, "in_progress", body.Session.Status)
	require.Len(t, body.Transcript, 1)
	assert.Equal(t, "assistant", body.Transcript[0].Role)
	assert.Equal(t, model.MustDefaultScript().Greeting, body.Transcript[0].Content)
	assert.Equal(t, "intro", body.State)
	assert.Len(t, body.Suggestions, 2)
}

func TestSubmitMessageLifecycle(t *testing.T) {
	env := setupRouter(t)
	id := env.createSession(t).Session.ID
	path := "/feedback/sessions/" + id + "/messages"

	resp := env.do(t, http.MethodPost, path, map[string]string{"content": "   "})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for blank message, got %d", resp.Code)
	}
	assert.Contains(t, resp.Body.String(), `"result":"empty"`)

	resp = env.do(t, http.MethodPost, path, map[string]string{"content": "We build X"})
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.Code)
	}

	resp = env.do(t, http.MethodPost, path, map[string]string{"content": "again"})
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 while pending, got %d", resp.Code)
	}

	env.sched.Advance(feedbackService.DefaultReplyDelay)

	body := env.getSession(t, id)
	require.Len(t, body.Transcript, 3)
	assert.Equal(t, model.MustDefaultScript().Questions.Problem, body.Transcript[2].Content)
	assert.False(t, body.Pending)
	assert.Equal(t, "problem", body.State)
}

func TestSubmitMessageInvalidBody(t *testing.T) {
	env := setupRouter(t)
	id := env.createSession(t).Session.ID

	req := httptest.NewRequest(http.MethodPost, "/feedback/sessions/"+id+"/messages", strings.NewReader("{"))
	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestSelectSuggestion(t *testing.T) {
	env := setupRouter(t)
	created := env.createSession(t)
	id := created.Session.ID

	resp := env.do(t, http.MethodPost, "/feedback/sessions/"+id+"/suggestions/abc", nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric index, got %d", resp.Code)
	}

	resp = env.do(t, http.MethodPost, "/feedback/sessions/"+id+"/suggestions/7", nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing suggestion, got %d", resp.Code)
	}

	resp = env.do(t, http.MethodPost, "/feedback/sessions/"+id+"/suggestions/1", nil)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.Code)
	}

	body := env.getSession(t, id)
	require.Len(t, body.Transcript, 2)
	assert.Equal(t, created.Suggestions[1].Text, body.Transcript[1].Content)
}

func TestUnknownSessionReturns404(t *testing.T) {
	env := setupRouter(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/feedback/sessions/missing"},
		{http.MethodDelete, "/feedback/sessions/missing"},
		{http.MethodPost, "/feedback/sessions/missing/suggestions/0"},
		{http.MethodGet, "/feedback/sessions/missing/profile"},
		{http.MethodGet, "/feedback/sessions/missing/transcript"},
		{http.MethodGet, "/feedback/sessions/missing/events"},
	} {
		resp := env.do(t, tc.method, tc.path, nil)
		if resp.Code != http.StatusNotFound {
			t.Fatalf("%s %s: expected 404, got %d", tc.method, tc.path, resp.Code)
		}
	}
}

func TestDeleteSession(t *testing.T) {
	env := setupRouter(t)
	id := env.createSession(t).Session.ID

	resp := env.do(t, http.MethodDelete, "/feedback/sessions/"+id, nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}

	resp = env.do(t, http.MethodGet, "/feedback/sessions/"+id, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.Code)
	}
}

func TestFullInterviewPublishesProfile(t *testing.T) {
	env := setupRouter(t)
	id := env.createSession(t).Session.ID

	resp := env.do(t, http.MethodGet, "/feedback/sessions/"+id+"/profile", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before the interview ends, got %d", resp.Code)
	}

	for _, text := range founderAnswers {
		resp := env.do(t, http.MethodPost, "/feedback/sessions/"+id+"/messages", map[string]string{"content": text})
		if resp.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d", resp.Code)
		}
		env.sched.Advance(feedbackService.DefaultReplyDelay)
	}

	body := env.getSession(t, id)
	require.Len(t, body.Transcript, 15)
	assert.Contains(t, body.Transcript[14].Content, "Investor Ready Score: 78/100")
	assert.False(t, body.Completed)

	env.sched.Advance(feedbackService.DefaultCompletionDelay)
	body = env.getSession(t, id)
	assert.True(t, body.Completed)
	assert.Equal(t, "processing", body.Session.Status)

	resp = env.do(t, http.MethodGet, "/feedback/sessions/"+id+"/profile", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"status":"processing"`)

	env.sched.Advance(profileService.DefaultDelay)

	resp = env.do(t, http.MethodGet, "/feedback/sessions/"+id+"/profile", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var record struct {
		Status  string `json:"status"`
		Profile struct {
			StartupID string `json:"startupId"`
			Industry  string `json:"industry"`
			Score     int    `json:"score"`
		} `json:"profile"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&record))
	assert.Equal(t, "completed", record.Status)
	assert.Equal(t, 78, record.Profile.Score)
	assert.Equal(t, "ClimateTech", record.Profile.Industry)

	_, ok := env.store.FindByID(record.Profile.StartupID)
	assert.True(t, ok)
}

func TestExportTranscript(t *testing.T) {
	env := setupRouter(t)
	id := env.createSession(t).Session.ID

	resp := env.do(t, http.MethodGet, "/feedback/sessions/"+id+"/transcript", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Messages, 1)
	assert.Equal(t, "assistant", body.Messages[0].Role)
}
