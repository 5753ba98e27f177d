package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jotter/jotter/internal/auth"
	"github.com/jotter/jotter/internal/handler/dto"
	"github.com/jotter/jotter/internal/service"
)

// AIHandler serves AI-assisted note features.
type AIHandler struct {
	svc    *service.SummaryService
	logger *slog.Logger
}

// NewAIHandler creates a new AIHandler.
func NewAIHandler(svc *service.SummaryService, logger *slog.Logger) *AIHandler {
	return &AIHandler{
		svc:    svc,
		logger: logger,
	}
}

// Summarize handles POST /api/ai/notes/{id}/summarize.
func (h *AIHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	id, ok := noteIDParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}

	result, err := h.svc.Summarize(r.Context(), auth.UserIDFromContext(r.Context()), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSummaryUnavailable):
			writeError(w, http.StatusServiceUnavailable, "AI summarization is not available. Please configure OPENAI_API_KEY.")
		case errors.Is(err, service.ErrNoteNotFound):
			writeError(w, http.StatusNotFound, "Note not found")
		default:
			logInternal(h.logger, r, "summary request failed", err)
			writeError(w, http.StatusInternalServerError, "Error generating summary")
		}
		return
	}

	h.logger.Info("note_summarized",
		slog.String("note_id", id),
		slog.Bool("cached", result.Cached),
	)

	writeJSON(w, http.StatusOK, dto.SummaryResponse{
		Success: true,
		Summary: result.Summary,
		Cached:  result.Cached,
	})
}
