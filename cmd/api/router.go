package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/jotter/jotter/internal/cache"
	"github.com/jotter/jotter/internal/config"
	"github.com/jotter/jotter/internal/handler"
	"github.com/jotter/jotter/internal/metrics"
	"github.com/jotter/jotter/internal/middleware"
	"github.com/jotter/jotter/internal/readiness"
)

// routerDeps collects everything the router needs.
type routerDeps struct {
	cfg    *config.Config
	logger *slog.Logger

	health *handler.HealthHandler
	auth   *handler.AuthHandler
	notes  *handler.NoteHandler
	ai     *handler.AIHandler
	stats  *handler.MetricsHandler
	static http.Handler // nil when no frontend is configured

	gate     *readiness.Gate
	verifier middleware.TokenVerifier
	limiter  cache.Limiter
	metrics  metrics.Recorder
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(d routerDeps) *chi.Mux {
	h := handler.New()
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Recoverer(d.logger))

	securityCfg := middleware.DefaultSecurityConfig()
	securityCfg.IsDevelopment = d.cfg.IsDevelopment()
	r.Use(middleware.Security(securityCfg))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = d.cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	r.Use(middleware.MaxBodySize(d.cfg.MaxRequestBodySize))

	// Probes and metrics never wait on the schema.
	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)
	r.Get("/metrics", d.stats.Metrics)

	authCfg := middleware.AuthConfig{
		Logger:   d.logger,
		Verifier: d.verifier,
	}

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:  d.logger,
		Limiter: d.limiter,
		Metrics: d.metrics,
		Enabled: d.cfg.RateLimitAuthEnabled,
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireReady(d.gate, d.cfg.ReadyWaitTimeout, d.logger))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.RateLimitIP(rateLimitCfg)).Post("/register", d.auth.Register)
			r.With(middleware.RateLimitIP(rateLimitCfg)).Post("/login", d.auth.Login)
			r.With(middleware.Auth(authCfg)).Get("/me", d.auth.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authCfg))

			r.Route("/notes", func(r chi.Router) {
				r.Get("/", d.notes.List)
				r.Post("/", d.notes.Create)
				// Registered before /{id} so "search" is never taken as an id.
				r.Get("/search", d.notes.Search)
				r.Get("/{id}", d.notes.Get)
				r.Put("/{id}", d.notes.Update)
				r.Delete("/{id}", d.notes.Delete)
			})

			r.Post("/ai/notes/{id}/summarize", d.ai.Summarize)
		})

		r.NotFound(h.NotFound)
		r.MethodNotAllowed(h.MethodNotAllowed)
	})

	if d.static != nil {
		r.NotFound(d.static.ServeHTTP)
	} else {
		r.NotFound(h.NotFound)
	}
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
