package waitlist

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	waitlistService "github.com/earlysignal/backend/internal/service/waitlist"
	"github.com/earlysignal/backend/pkg/logger"
	"github.com/earlysignal/backend/pkg/utils"
)

// Handler serves the landing page waitlist.
type Handler struct {
	waitlist *waitlistService.Service
}

// New creates the waitlist handler.
func New(waitlist *waitlistService.Service) *Handler {
	return &Handler{waitlist: waitlist}
}

// RegisterRoutes mounts the waitlist routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/waitlist", h.handleJoin)
	r.Get("/waitlist/count", h.handleCount)
}

func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	count, err := h.waitlist.Join(r.Context(), payload.Email)
	switch {
	case errors.Is(err, waitlistService.ErrInvalidEmail):
		utils.RespondError(w, http.StatusBadRequest, "please enter a valid email address")
	case errors.Is(err, waitlistService.ErrAlreadyJoined):
		utils.RespondError(w, http.StatusConflict, "this email is already on the waitlist")
	case err != nil:
		logger.WithCtx(r.Context()).Error("join waitlist failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to join waitlist")
	default:
		utils.RespondJSON(w, http.StatusCreated, map[string]int{"count": count})
	}
}

func (h *Handler) handleCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.waitlist.Count(r.Context())
	if err != nil {
		logger.WithCtx(r.Context()).Error("count waitlist failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "failed to fetch waitlist count")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]int{"count": count})
}
