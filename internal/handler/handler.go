// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/jotter/jotter/internal/handler/dto"
	"github.com/jotter/jotter/internal/middleware"
)

// Handler serves the router-level fallbacks.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Route not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes the failure envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, dto.MessageResponse{Success: false, Message: message})
}

// errBodyTooLarge marks a request body cut off by MaxBodySize.
var errBodyTooLarge = errors.New("request body too large")

// decodeJSON reads one JSON object from the body. An empty body decodes
// as {} so that required-field checks produce their own messages.
func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errBodyTooLarge
	}
	return err
}

// writeDecodeError answers a body that could not be decoded.
func writeDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBodyTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	writeError(w, http.StatusBadRequest, "Invalid request body")
}

// logInternal records the cause of a 500 without exposing it.
func logInternal(logger *slog.Logger, r *http.Request, msg string, err error) {
	logger.Error(msg,
		slog.String("error", err.Error()),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)
}

// noteIDParam returns the {id} path parameter if it is a ULID. Anything
// else cannot name a stored note.
func noteIDParam(r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := ulid.ParseStrict(id); err != nil {
		return "", false
	}
	return id, true
}

// invalidTextMessage names the field holding a NUL byte or invalid UTF-8.
func invalidTextMessage(issue dto.FieldIssue) string {
	return issue.Field + " contains invalid characters"
}
