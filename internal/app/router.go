// Package app wires configuration, adapters, and services into a runnable
// HTTP application.
package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hackmate/hackmate-ai/internal/adapter/httpserver"
	"github.com/hackmate/hackmate-ai/internal/adapter/observability"
	"github.com/hackmate/hackmate-ai/internal/config"
)

// BuildRouter assembles the chi router with middleware and all routes.
func BuildRouter(cfg config.Config, srv *httpserver.Server) http.Handler {
	r := chi.NewRouter()

	r.Use(httpserver.Recoverer())
	r.Use(httpserver.RequestID())
	r.Use(httpserver.TimeoutMiddleware(cfg.ChatTimeout + 10*time.Second))
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ParseOrigins(cfg.CORSAllowOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", srv.ReadyzHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		// AI calls are the expensive resource; rate limit the whole surface.
		r.Use(httprate.LimitByIP(cfg.RateLimitPerMin, time.Minute))

		r.Post("/assist", srv.AssistHandler())

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", srv.CreateProjectHandler())
			r.Post("/join", srv.JoinProjectHandler())
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", srv.GetProjectHandler())
				r.Post("/demo", srv.DemoModeHandler())
				r.Post("/idea", srv.AnalyzeIdeaHandler())
				r.Post("/tasks/generate", srv.GenerateTasksHandler())
				r.Get("/tasks", srv.ListTasksHandler())
				r.Post("/mentor", srv.MentorHandler())
				r.Get("/messages", srv.ListMessagesHandler())
			})
		})

		r.Patch("/tasks/{id}", srv.UpdateTaskStatusHandler())
	})

	return httpserver.SecurityHeaders(r)
}

// ParseOrigins splits a comma separated origins list, trimming whitespace.
func ParseOrigins(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
