package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jotter/jotter/internal/readiness"
)

const (
	msgDatabaseUnavailable = "Database is not available. Please try again later."
	msgDatabaseInitFailed  = "Database initialization failed. Please try again later."
)

// RequireReady holds requests until the gate closes, for at most wait.
// A failed or still-open gate answers 503.
func RequireReady(gate *readiness.Gate, wait time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Fast path once startup is finished.
			if closed, err := gate.Ready(); closed && err == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), wait)
			err := gate.Wait(ctx)
			cancel()

			if err != nil {
				level, message := slog.LevelError, msgDatabaseInitFailed
				if errors.Is(err, readiness.ErrNotReady) {
					level, message = slog.LevelWarn, msgDatabaseUnavailable
				}
				logger.Log(r.Context(), level, "request rejected: database not ready",
					slog.String("error", err.Error()),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeError(w, http.StatusServiceUnavailable, message)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
