package startup

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	model "github.com/earlysignal/backend/internal/model/startup"
	startupService "github.com/earlysignal/backend/internal/service/startup"
	"github.com/earlysignal/backend/pkg/utils"
)

// Handler serves the investor dashboard.
type Handler struct {
	startups *startupService.Service
}

// New creates the startup handler.
func New(startups *startupService.Service) *Handler {
	return &Handler{startups: startups}
}

// RegisterRoutes mounts the directory and favorites routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/startups", h.handleListStartups)
	r.Get("/startups/{startupID}", h.handleGetStartup)
	r.Get("/investors/{investorID}/favorites", h.handleListFavorites)
	r.Put("/investors/{investorID}/favorites/{startupID}", h.handleToggleFavorite)
}

func (h *Handler) handleListStartups(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := startupService.Filter{
		Industry: strings.TrimSpace(query.Get("industry")),
		Stage:    model.Stage(strings.TrimSpace(query.Get("stage"))),
		Location: strings.TrimSpace(query.Get("location")),
		Search:   query.Get("search"),
	}
	if raw := strings.TrimSpace(query.Get("minAiScore")); raw != "" {
		score, err := strconv.Atoi(raw)
		if err != nil || score < 0 || score > 100 {
			utils.RespondError(w, http.StatusBadRequest, "minAiScore must be an integer between 0 and 100")
			return
		}
		filter.MinAIScore = score
	}

	utils.RespondJSON(w, http.StatusOK, h.startups.Filter(r.Context(), filter))
}

func (h *Handler) handleGetStartup(w http.ResponseWriter, r *http.Request) {
	item, err := h.startups.FindByID(r.Context(), chi.URLParam(r, "startupID"))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, item)
}

func (h *Handler) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	investorID := chi.URLParam(r, "investorID")
	utils.RespondJSON(w, http.StatusOK, h.startups.Favorites(r.Context(), investorID, r.URL.Query().Get("search")))
}

func (h *Handler) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	investorID := chi.URLParam(r, "investorID")
	startupID := chi.URLParam(r, "startupID")

	favorite, err := h.startups.ToggleFavorite(r.Context(), investorID, startupID)
	if err != nil {
		respondError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"startupId": startupID,
		"favorite":  favorite,
	})
}

func respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, startupService.ErrStartupNotFound) {
		utils.RespondError(w, http.StatusNotFound, "startup not found")
		return
	}
	utils.RespondError(w, http.StatusInternalServerError, "internal error")
}
