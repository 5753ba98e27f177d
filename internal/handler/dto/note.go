package dto

import "github.com/jotter/jotter/internal/model"

// CreateNoteRequest is the body of POST /api/notes.
type CreateNoteRequest struct {
	Title    string  `json:"title" validate:"required,max=255,utf8,nonul"`
	Content  string  `json:"content" validate:"required,utf8,nonul"`
	ColorTag *string `json:"color_tag" validate:"omitempty,max=32,utf8,nonul"`
}

// UpdateNoteRequest is the body of PUT /api/notes/{id}. Absent fields
// are left unchanged; color_tag may be null to clear it.
type UpdateNoteRequest struct {
	Title      *string          `json:"title" validate:"omitempty,max=255,utf8,nonul"`
	Content    *string          `json:"content" validate:"omitempty,utf8,nonul"`
	ColorTag   Optional[string] `json:"color_tag" validate:"omitempty,max=32,utf8,nonul"`
	IsPinned   *bool            `json:"is_pinned"`
	IsArchived *bool            `json:"is_archived"`
}

// Patch converts the request into a model patch.
func (r UpdateNoteRequest) Patch() model.NotePatch {
	patch := model.NotePatch{
		Title:      r.Title,
		Content:    r.Content,
		IsPinned:   r.IsPinned,
		IsArchived: r.IsArchived,
	}
	if r.ColorTag.Set {
		tag := ""
		if !r.ColorTag.Null {
			tag = r.ColorTag.Value
		}
		patch.ColorTag = &tag
	}
	return patch
}

// NoteResponse carries one note.
type NoteResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Note    *model.Note `json:"note"`
}

// NotesResponse carries a list of notes.
type NotesResponse struct {
	Success bool          `json:"success"`
	Notes   []*model.Note `json:"notes"`
}

// SummaryResponse carries a note summary.
type SummaryResponse struct {
	Success bool   `json:"success"`
	Summary string `json:"summary"`
	Cached  bool   `json:"cached"`
}

// MessageResponse is a bare status message, used for errors too.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
