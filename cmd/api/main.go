// Package main is the entrypoint for the Jotter API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/jotter/jotter/internal/auth"
	"github.com/jotter/jotter/internal/cache"
	"github.com/jotter/jotter/internal/config"
	"github.com/jotter/jotter/internal/handler"
	"github.com/jotter/jotter/internal/metrics"
	"github.com/jotter/jotter/internal/readiness"
	"github.com/jotter/jotter/internal/repository"
	"github.com/jotter/jotter/internal/server"
	"github.com/jotter/jotter/internal/service"
	"github.com/jotter/jotter/internal/summarizer"
)

func main() {
	// Initialize context
	ctx := context.Background()

	// Load configuration, .env first so real environment wins
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Schema creation runs in the background; /api waits on the gate.
	gate := readiness.NewGate()
	go migrate(ctx, repo, gate, logger)

	recorder := metrics.NewInMemory()

	// Initialize rate limiter: Redis when configured, in-process otherwise
	limitCfg := cache.LimitConfig{
		Rate:  float64(cfg.RateLimitAuthRPS),
		Burst: cfg.RateLimitAuthBurst,
	}
	var (
		limiter     cache.Limiter
		cacheClient *cache.Cache
	)
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			os.Exit(1)
		}
		logger.Info("connected to Redis")
		limiter = cache.NewRedisLimiter(cacheClient, "auth", limitCfg)
	} else {
		logger.Info("REDIS_URL not set, using in-process rate limiter")
		limiter = cache.NewMemoryLimiter(limitCfg)
	}

	// Initialize summarizer
	var sum summarizer.Summarizer
	if cfg.SummariesEnabled() {
		openAI := summarizer.NewOpenAI(summarizer.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
			Timeout: cfg.OpenAITimeout,
		})
		sum = openAI
		logger.Info("AI summaries enabled", slog.String("model", openAI.Model()))
	} else {
		logger.Warn("OPENAI_API_KEY not set, AI summaries disabled")
	}

	// Initialize services
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiresIn)
	authService := service.NewAuthService(repo, tokens, recorder)
	noteService := service.NewNoteService(repo, recorder)
	summaryService := service.NewSummaryService(repo, sum, recorder)

	// Initialize handlers
	deps := routerDeps{
		cfg:      cfg,
		logger:   logger,
		auth:     handler.NewAuthHandler(authService, logger),
		notes:    handler.NewNoteHandler(noteService, logger),
		ai:       handler.NewAIHandler(summaryService, logger),
		stats:    handler.NewMetricsHandler(recorder),
		gate:     gate,
		verifier: tokens,
		limiter:  limiter,
		metrics:  recorder,
	}
	if cacheClient != nil {
		deps.health = handler.NewHealthHandler(repo, cacheClient, gate)
	} else {
		deps.health = handler.NewHealthHandler(repo, nil, gate)
	}
	if cfg.StaticDir != "" {
		deps.static = handler.NewStaticHandler(cfg.StaticDir)
		logger.Info("serving static frontend", slog.String("dir", cfg.StaticDir))
	}

	// Setup router
	r := setupRouter(deps)

	// Create and run server
	srv := server.New(
		r,
		cfg.ListenPort(),
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	if cacheClient != nil {
		srv.OnShutdown("redis", func(context.Context) error {
			return cacheClient.Close()
		})
	}

	logger.Info("starting server",
		"port", cfg.ListenPort(),
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// migrate applies pending migrations and closes the gate with the result.
func migrate(ctx context.Context, repo *repository.Repository, gate *readiness.Gate, logger *slog.Logger) {
	start := time.Now()
	applied, err := repo.Migrate(ctx)
	if err != nil {
		logger.Error("database initialization failed",
			slog.String("error", err.Error()),
			slog.Any("applied", applied),
		)
		gate.Done(err)
		return
	}
	logger.Info("database schema ready",
		slog.Any("applied", applied),
		slog.Duration("took", time.Since(start)),
	)
	gate.Done(nil)
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
