package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/jotter/jotter/internal/auth"
	"github.com/jotter/jotter/internal/handler/dto"
	"github.com/jotter/jotter/internal/model"
	"github.com/jotter/jotter/internal/service"
)

// NoteHandler handles HTTP requests for note operations.
type NoteHandler struct {
	svc    *service.NoteService
	logger *slog.Logger
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(svc *service.NoteService, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /api/notes.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.List(r.Context(), auth.UserIDFromContext(r.Context()), parseNoteFilter(r.URL.Query()))
	if err != nil {
		h.handleServiceError(w, r, err, "Error fetching notes")
		return
	}

	writeJSON(w, http.StatusOK, dto.NotesResponse{Success: true, Notes: notes})
}

// Search handles GET /api/notes/search.
func (h *NoteHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if !dto.ValidText(q) {
		writeError(w, http.StatusBadRequest, "q contains invalid characters")
		return
	}

	notes, err := h.svc.Search(r.Context(), auth.UserIDFromContext(r.Context()), q)
	if err != nil {
		h.handleServiceError(w, r, err, "Error searching notes")
		return
	}

	writeJSON(w, http.StatusOK, dto.NotesResponse{Success: true, Notes: notes})
}

// Get handles GET /api/notes/{id}.
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := noteIDParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}

	note, err := h.svc.Get(r.Context(), auth.UserIDFromContext(r.Context()), id)
	if err != nil {
		h.handleServiceError(w, r, err, "Error fetching note")
		return
	}

	writeJSON(w, http.StatusOK, dto.NoteResponse{Success: true, Note: note})
}

// Create handles POST /api/notes.
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	if issues := dto.Validate(req); issues != nil {
		writeError(w, http.StatusBadRequest, noteIssueMessage(issues))
		return
	}

	note, err := h.svc.Create(r.Context(), auth.UserIDFromContext(r.Context()), service.CreateNoteInput{
		Title:    req.Title,
		Content:  req.Content,
		ColorTag: req.ColorTag,
	})
	if err != nil {
		h.handleServiceError(w, r, err, "Error creating note")
		return
	}

	h.logger.Info("note_created", slog.String("note_id", note.ID), slog.String("user_id", note.UserID))

	writeJSON(w, http.StatusCreated, dto.NoteResponse{
		Success: true,
		Message: "Note created successfully",
		Note:    note,
	})
}

// Update handles PUT /api/notes/{id}.
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := noteIDParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}

	var req dto.UpdateNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	if issues := dto.Validate(req); issues != nil {
		writeError(w, http.StatusBadRequest, noteIssueMessage(issues))
		return
	}

	note, err := h.svc.Update(r.Context(), auth.UserIDFromContext(r.Context()), id, req.Patch())
	if err != nil {
		h.handleServiceError(w, r, err, "Error updating note")
		return
	}

	h.logger.Info("note_updated", slog.String("note_id", note.ID), slog.String("user_id", note.UserID))

	writeJSON(w, http.StatusOK, dto.NoteResponse{
		Success: true,
		Message: "Note updated successfully",
		Note:    note,
	})
}

// Delete handles DELETE /api/notes/{id}.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := noteIDParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}

	if err := h.svc.Delete(r.Context(), auth.UserIDFromContext(r.Context()), id); err != nil {
		h.handleServiceError(w, r, err, "Error deleting note")
		return
	}

	h.logger.Info("note_deleted", slog.String("note_id", id))

	writeJSON(w, http.StatusOK, dto.MessageResponse{Success: true, Message: "Note deleted successfully"})
}

// handleServiceError maps service errors to HTTP responses.
func (h *NoteHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrNoteNotFound):
		writeError(w, http.StatusNotFound, "Note not found")
	case errors.Is(err, service.ErrTitleContentRequired):
		writeError(w, http.StatusBadRequest, "Title and content are required")
	case errors.Is(err, service.ErrNoFieldsToUpdate):
		writeError(w, http.StatusBadRequest, "No fields to update")
	default:
		logInternal(h.logger, r, "note request failed", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// parseNoteFilter reads color, archived and pinned. A present boolean
// parameter is true only when it equals "true".
func parseNoteFilter(q url.Values) model.NoteFilter {
	var filter model.NoteFilter
	if color := q.Get("color"); color != "" {
		filter.Color = &color
	}
	if q.Has("archived") {
		archived := q.Get("archived") == "true"
		filter.Archived = &archived
	}
	if q.Has("pinned") {
		pinned := q.Get("pinned") == "true"
		filter.Pinned = &pinned
	}
	return filter
}

func noteIssueMessage(issues []dto.FieldIssue) string {
	if dto.HasTag(issues, "required") {
		return "Title and content are required"
	}
	if issue, ok := dto.TextIssue(issues); ok {
		return invalidTextMessage(issue)
	}
	issue := issues[0]
	if issue.Tag == "max" {
		return issue.Field + " must be at most " + issue.Param + " characters long"
	}
	return "Invalid note"
}
