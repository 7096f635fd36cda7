package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/earlysignal/backend/internal/handler/feedback"
	"github.com/earlysignal/backend/internal/handler/startup"
	"github.com/earlysignal/backend/internal/handler/waitlist"
	middlewarePkg "github.com/earlysignal/backend/internal/middleware"
	feedbackService "github.com/earlysignal/backend/internal/service/feedback"
	startupService "github.com/earlysignal/backend/internal/service/startup"
	waitlistService "github.com/earlysignal/backend/internal/service/waitlist"
	"github.com/earlysignal/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(allowedOrigins []string, feedbackSvc *feedbackService.Service, profiles feedback.ProfileReader, startupSvc *startupService.Service, waitlistSvc *waitlistService.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(allowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		feedback.New(feedbackSvc, profiles).RegisterRoutes(api)
		startup.New(startupSvc).RegisterRoutes(api)
		waitlist.New(waitlistSvc).RegisterRoutes(api)
	})

	return r
}
