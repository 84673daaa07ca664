package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/mood-story/backend/internal/handler/live"
	"github.com/zhouzirui/mood-story/backend/internal/handler/session"
	"github.com/zhouzirui/mood-story/backend/internal/handler/stream"
	"github.com/zhouzirui/mood-story/backend/internal/logging"
	middlewarePkg "github.com/zhouzirui/mood-story/backend/internal/middleware"
	sessionService "github.com/zhouzirui/mood-story/backend/internal/service/session"
	"github.com/zhouzirui/mood-story/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(sessions *sessionService.Service, generator session.Generator) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logging.For("http")))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": sessions.Count(),
		})
	})

	r.Route("/api", func(api chi.Router) {
		session.New(sessions, generator).RegisterRoutes(api)
		stream.New(sessions, generator).RegisterRoutes(api)
		live.NewWebSocketHandler(sessions, generator).RegisterRoutes(api)
	})

	return r
}
