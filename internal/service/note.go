package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jotter/jotter/internal/metrics"
	"github.com/jotter/jotter/internal/model"
	"github.com/jotter/jotter/internal/repository"
)

// NoteStore persists notes. Every method is scoped to one owner.
type NoteStore interface {
	CreateNote(ctx context.Context, note *model.Note) error
	GetNote(ctx context.Context, ownerID, id string) (*model.Note, error)
	ListNotes(ctx context.Context, ownerID string, filter model.NoteFilter) ([]*model.Note, error)
	SearchNotes(ctx context.Context, ownerID, term string) ([]*model.Note, error)
	UpdateNote(ctx context.Context, ownerID, id string, patch model.NotePatch) (*model.Note, error)
	DeleteNote(ctx context.Context, ownerID, id string) error
	SetNoteSummary(ctx context.Context, ownerID, id, summary string) (bool, error)
}

// NoteService handles note business logic.
type NoteService struct {
	store   NoteStore
	metrics metrics.Recorder
	now     func() time.Time
}

// NewNoteService creates a new NoteService.
func NewNoteService(store NoteStore, recorder metrics.Recorder) *NoteService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &NoteService{
		store:   store,
		metrics: recorder,
		now:     time.Now,
	}
}

// CreateNoteInput defines input for creating a note.
type CreateNoteInput struct {
	Title    string
	Content  string
	ColorTag *string
}

// List returns the owner's notes, pinned first.
func (s *NoteService) List(ctx context.Context, ownerID string, filter model.NoteFilter) ([]*model.Note, error) {
	notes, err := s.store.ListNotes(ctx, ownerID, filter)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// Get returns one of the owner's notes.
func (s *NoteService) Get(ctx context.Context, ownerID, id string) (*model.Note, error) {
	note, err := s.store.GetNote(ctx, ownerID, id)
	if err != nil {
		return nil, mapNoteError(err, "get note")
	}
	return note, nil
}

// Search matches q, as given, against title and content. A blank query
// matches nothing and skips the store entirely.
func (s *NoteService) Search(ctx context.Context, ownerID, q string) ([]*model.Note, error) {
	if strings.TrimSpace(q) == "" {
		return []*model.Note{}, nil
	}

	notes, err := s.store.SearchNotes(ctx, ownerID, q)
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}
	return notes, nil
}

// Create adds a note for the owner.
func (s *NoteService) Create(ctx context.Context, ownerID string, input CreateNoteInput) (*model.Note, error) {
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Content) == "" {
		return nil, ErrTitleContentRequired
	}

	now := s.now().UTC()
	note := &model.Note{
		ID:        ulid.Make().String(),
		UserID:    ownerID,
		Title:     input.Title,
		Content:   input.Content,
		ColorTag:  normalizeColor(input.ColorTag),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateNote(ctx, note); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}

	s.metrics.IncNoteCreated()

	return note, nil
}

// Update applies a partial change to the owner's note.
func (s *NoteService) Update(ctx context.Context, ownerID, id string, patch model.NotePatch) (*model.Note, error) {
	if patch.IsEmpty() {
		return nil, ErrNoFieldsToUpdate
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, ErrTitleContentRequired
	}
	if patch.Content != nil && strings.TrimSpace(*patch.Content) == "" {
		return nil, ErrTitleContentRequired
	}

	note, err := s.store.UpdateNote(ctx, ownerID, id, patch)
	if err != nil {
		if errors.Is(err, repository.ErrEmptyPatch) {
			return nil, ErrNoFieldsToUpdate
		}
		return nil, mapNoteError(err, "update note")
	}

	s.metrics.IncNoteUpdated()

	return note, nil
}

// Delete removes the owner's note.
func (s *NoteService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteNote(ctx, ownerID, id); err != nil {
		return mapNoteError(err, "delete note")
	}

	s.metrics.IncNoteDeleted()

	return nil
}

func mapNoteError(err error, op string) error {
	if errors.Is(err, repository.ErrNoteNotFound) {
		return ErrNoteNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func normalizeColor(tag *string) *string {
	if tag == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*tag)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
