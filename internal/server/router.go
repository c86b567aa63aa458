package server

import (
	"net/http"

	"github.com/finsight-ai/finsight/internal/api/handlers"
	"github.com/finsight-ai/finsight/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	APIKey        string
	AskHandler    *handlers.AskHandler
	KBHandler     *handlers.KBHandler
	HealthHandler *handlers.HealthHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", cfg.HealthHandler.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.APIKey))

		r.Post("/ask", cfg.AskHandler.Ask)

		r.Route("/kb", func(r chi.Router) {
			r.Post("/", cfg.KBHandler.Add)
			r.Put("/", cfg.KBHandler.Update)
			r.Delete("/", cfg.KBHandler.Delete)
			r.Get("/search", cfg.KBHandler.Search)
			r.Get("/validate", cfg.KBHandler.Validate)
			r.Get("/report", cfg.KBHandler.Report)
			r.Get("/export/{category}", cfg.KBHandler.Export)
			r.Post("/import", cfg.KBHandler.Import)
		})
	})

	return r
}
