package feedback

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	model "github.com/earlysignal/backend/internal/model/feedback"
	profileModel "github.com/earlysignal/backend/internal/model/profile"
	feedbackService "github.com/earlysignal/backend/internal/service/feedback"
	profileService "github.com/earlysignal/backend/internal/service/profile"
	"github.com/earlysignal/backend/pkg/logger"
	"github.com/earlysignal/backend/pkg/utils"
)

// ProfileReader exposes generated founder profiles.
type ProfileReader interface {
	Get(sessionID string) (profileModel.Record, error)
}

// Handler serves the founder interview over REST, SSE and WebSocket.
type Handler struct {
	feedbackSvc *feedbackService.Service
	profiles    ProfileReader
	ws          *WebSocketHandler
}

// New creates the feedback handler.
func New(feedbackSvc *feedbackService.Service, profiles ProfileReader) *Handler {
	return &Handler{
		feedbackSvc: feedbackSvc,
		profiles:    profiles,
		ws:          NewWebSocketHandler(feedbackSvc),
	}
}

// RegisterRoutes mounts the interview routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/feedback/sessions", func(r chi.Router) {
		r.Post("/", h.handleCreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.handleGetSession)
			r.Delete("/", h.handleDeleteSession)
			r.Post("/messages", h.handleSubmitMessage)
			r.Post("/suggestions/{index}", h.handleSelectSuggestion)
			r.Get("/events", h.handleEvents)
			r.Get("/ws", h.ws.handleWebSocket)
			r.Get("/profile", h.handleGetProfile)
			r.Get("/transcript", h.handleExportTranscript)
		})
	})
}

type sessionResponse struct {
	Session model.Session `json:"session"`
	feedbackService.Snapshot
}

type submitResponse struct {
	Result  string `json:"result"`
	Pending bool   `json:"pending"`
	Turns   int    `json:"turns"`
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, conv, err := h.feedbackSvc.CreateSession(r.Context())
	if err != nil {
		logger.WithCtx(r.Context()).Error("create feedback session failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, sessionResponse{Session: session, Snapshot: conv.Snapshot()})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.feedbackSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	conv, err := h.feedbackSvc.Conversation(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, sessionResponse{Session: session, Snapshot: conv.Snapshot()})
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.feedbackSvc.CloseSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	conv, err := h.feedbackSvc.Conversation(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondSubmit(w, conv, conv.Submit(payload.Content))
}

func (h *Handler) handleSelectSuggestion(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "index must be an integer")
		return
	}

	conv, err := h.feedbackSvc.Conversation(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondSubmit(w, conv, conv.SelectSuggestion(index))
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := h.feedbackSvc.GetSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	record, err := h.profiles.Get(sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, record)
}

func (h *Handler) handleExportTranscript(w http.ResponseWriter, r *http.Request) {
	turns, err := h.feedbackSvc.LoadTranscript(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"messages": feedbackService.ChatMessages(turns),
	})
}

func respondSubmit(w http.ResponseWriter, conv *feedbackService.Conversation, result feedbackService.SubmitResult) {
	switch result {
	case feedbackService.SubmitAccepted:
		utils.RespondJSON(w, http.StatusAccepted, submitResponse{Result: result.String(), Pending: true, Turns: conv.Len()})
	case feedbackService.SubmitIgnoredPending:
		utils.RespondError(w, http.StatusConflict, "a reply is still pending")
	case feedbackService.SubmitIgnoredClosed:
		utils.RespondError(w, http.StatusConflict, "session is closed")
	case feedbackService.SubmitIgnoredNoSuggestion:
		utils.RespondError(w, http.StatusBadRequest, "no suggestion at that index")
	default:
		utils.RespondJSON(w, http.StatusOK, submitResponse{Result: result.String(), Pending: conv.Pending(), Turns: conv.Len()})
	}
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, feedbackService.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, profileService.ErrProfileNotFound):
		utils.RespondError(w, http.StatusNotFound, "profile not ready")
	default:
		logger.L().Error("feedback request failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}
