package model

import (
	"strings"
	"time"
)

// Note is a short text note owned by exactly one user.
type Note struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	ColorTag   *string   `json:"color_tag"`
	IsPinned   bool      `json:"is_pinned"`
	IsArchived bool      `json:"is_archived"`
	Summary    *string   `json:"summary"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HasSummary reports whether a summary has already been stored.
func (n *Note) HasSummary() bool {
	return n.Summary != nil && strings.TrimSpace(*n.Summary) != ""
}

// NoteFilter narrows a note listing. Nil fields are not filtered on,
// except Archived which defaults to excluding archived notes.
type NoteFilter struct {
	Color    *string
	Archived *bool
	Pinned   *bool
}

// ArchivedOrDefault returns the archived filter to apply.
func (f NoteFilter) ArchivedOrDefault() bool {
	if f.Archived == nil {
		return false
	}
	return *f.Archived
}

// NotePatch is a partial update. Nil fields are left unchanged.
// A ColorTag pointing at "" clears the tag.
type NotePatch struct {
	Title      *string
	Content    *string
	ColorTag   *string
	IsPinned   *bool
	IsArchived *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p NotePatch) IsEmpty() bool {
	return p.Title == nil &&
		p.Content == nil &&
		p.ColorTag == nil &&
		p.IsPinned == nil &&
		p.IsArchived == nil
}
