package waitlist

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	waitlistService "github.com/earlysignal/backend/internal/service/waitlist"
)

func setupRouter() *chi.Mux {
	svc := waitlistService.NewService(waitlistService.NewMemoryRepository())
	r := chi.NewRouter()
	New(svc).RegisterRoutes(r)
	return r
}

func join(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/waitlist", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestJoinWaitlist(t *testing.T) {
	r := setupRouter()

	resp := join(r, `{"email":"founder@example.com"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	var body map[string]int
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["count"] != 1 {
		t.Fatalf("expected count 1, got %d", body["count"])
	}
}

func TestJoinWaitlistErrors(t *testing.T) {
	r := setupRouter()
	join(r, `{"email":"founder@example.com"}`)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `{`, http.StatusBadRequest},
		{"missing at", `{"email":"founder"}`, http.StatusBadRequest},
		{"empty", `{"email":"  "}`, http.StatusBadRequest},
		{"duplicate", `{"email":"founder@example.com"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if resp := join(r, tt.body); resp.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, resp.Code)
			}
		})
	}
}

func TestWaitlistCount(t *testing.T) {
	r := setupRouter()
	join(r, `{"email":"a@example.com"}`)
	join(r, `{"email":"b@example.com"}`)

	req := httptest.NewRequest(http.MethodGet, "/waitlist/count", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := resp.Body.String(); got != "{\"count\":2}\n" {
		t.Fatalf("unexpected body %q", got)
	}
}
