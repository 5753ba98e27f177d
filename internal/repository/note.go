package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/jotter/jotter/internal/model"
)

// Common errors for note repository operations.
var (
	ErrNoteNotFound = errors.New("note not found")
	ErrEmptyPatch   = errors.New("no fields to update")
)

var noteColumns = []string{
	"id", "user_id", "title", "content", "color_tag",
	"is_pinned", "is_archived", "summary", "created_at", "updated_at",
}

// noteOrder puts pinned notes first, newest-updated first within a tier.
var noteOrder = []string{"is_pinned DESC", "updated_at DESC", "id DESC"}

// likeEscaper neutralizes LIKE metacharacters in user search input.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// CreateNote inserts a note and fills in the database-assigned timestamps.
func (r *Repository) CreateNote(ctx context.Context, note *model.Note) error {
	query, args, err := psql.Insert("notes").
		Columns("id", "user_id", "title", "content", "color_tag").
		Values(note.ID, note.UserID, note.Title, note.Content, nullIfEmpty(note.ColorTag)).
		Suffix("RETURNING " + strings.Join(noteColumns, ", ")).
		ToSql()
	if err != nil {
		return fmt.Errorf("build create note query: %w", err)
	}

	created, err := scanNote(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}

	*note = *created
	return nil
}

// GetNote retrieves a note owned by ownerID.
func (r *Repository) GetNote(ctx context.Context, ownerID, id string) (*model.Note, error) {
	query, args, err := psql.Select(noteColumns...).
		From("notes").
		Where(sq.Eq{"id": id, "user_id": ownerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get note query: %w", err)
	}

	note, err := scanNote(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	return note, nil
}

// ListNotes returns the owner's notes matching filter, pinned first.
func (r *Repository) ListNotes(ctx context.Context, ownerID string, filter model.NoteFilter) ([]*model.Note, error) {
	builder := psql.Select(noteColumns...).
		From("notes").
		Where(sq.Eq{"user_id": ownerID, "is_archived": filter.ArchivedOrDefault()})

	if filter.Pinned != nil {
		builder = builder.Where(sq.Eq{"is_pinned": *filter.Pinned})
	}
	if filter.Color != nil && *filter.Color != "" {
		builder = builder.Where(sq.Eq{"color_tag": *filter.Color})
	}

	query, args, err := builder.OrderBy(noteOrder...).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list notes query: %w", err)
	}

	return r.queryNotes(ctx, query, args...)
}

// SearchNotes returns unarchived notes whose title or content contains
// term, case-insensitively.
func (r *Repository) SearchNotes(ctx context.Context, ownerID, term string) ([]*model.Note, error) {
	pattern := "%" + likeEscaper.Replace(term) + "%"

	query, args, err := psql.Select(noteColumns...).
		From("notes").
		Where(sq.Eq{"user_id": ownerID, "is_archived": false}).
		Where(sq.Or{
			sq.ILike{"title": pattern},
			sq.ILike{"content": pattern},
		}).
		OrderBy(noteOrder...).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build search notes query: %w", err)
	}

	return r.queryNotes(ctx, query, args...)
}

// UpdateNote applies patch to the owner's note and bumps updated_at.
// The set of writable columns is fixed; nil patch fields are skipped.
func (r *Repository) UpdateNote(ctx context.Context, ownerID, id string, patch model.NotePatch) (*model.Note, error) {
	set := patchColumns(patch)
	if len(set) == 0 {
		return nil, ErrEmptyPatch
	}
	set["updated_at"] = sq.Expr("now()")

	query, args, err := psql.Update("notes").
		SetMap(set).
		Where(sq.Eq{"id": id, "user_id": ownerID}).
		Suffix("RETURNING " + strings.Join(noteColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update note query: %w", err)
	}

	note, err := scanNote(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to update note: %w", err)
	}

	return note, nil
}

// DeleteNote removes the owner's note.
func (r *Repository) DeleteNote(ctx context.Context, ownerID, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNoteNotFound
	}

	return nil
}

// SetNoteSummary stores summary only if the note has none yet (NULL or blank).
// Returns false when another writer got there first.
func (r *Repository) SetNoteSummary(ctx context.Context, ownerID, id, summary string) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE notes
		SET summary = $1
		WHERE id = $2 AND user_id = $3 AND (summary IS NULL OR btrim(summary) = '')
	`, summary, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to set note summary: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *Repository) queryNotes(ctx context.Context, query string, args ...any) ([]*model.Note, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	notes := make([]*model.Note, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notes: %w", err)
	}

	return notes, nil
}

// patchColumns maps a patch onto column assignments.
func patchColumns(patch model.NotePatch) map[string]interface{} {
	set := make(map[string]interface{}, 5)
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Content != nil {
		set["content"] = *patch.Content
	}
	if patch.ColorTag != nil {
		set["color_tag"] = nullIfEmpty(patch.ColorTag)
	}
	if patch.IsPinned != nil {
		set["is_pinned"] = *patch.IsPinned
	}
	if patch.IsArchived != nil {
		set["is_archived"] = *patch.IsArchived
	}
	return set
}

func nullIfEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// scanNote scans one row; works for both pgx.Row and pgx.Rows.
func scanNote(row pgx.Row) (*model.Note, error) {
	var note model.Note
	err := row.Scan(
		&note.ID,
		&note.UserID,
		&note.Title,
		&note.Content,
		&note.ColorTag,
		&note.IsPinned,
		&note.IsArchived,
		&note.Summary,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &note, nil
}
