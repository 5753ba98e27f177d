package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jotter/jotter/internal/model"
	"github.com/jotter/jotter/internal/repository"
)

// memoryUsers is an in-memory UserStore.
type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*model.User

	// createErr, when set, is returned by CreateUser.
	createErr error
	// hideExisting makes UserExists always report false, simulating a
	// registration race lost after the pre-check.
	hideExisting bool
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[string]*model.User)}
}

func (m *memoryUsers) CreateUser(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return repository.ErrUserExists
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memoryUsers) GetUserByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memoryUsers) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memoryUsers) UserExists(_ context.Context, username, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hideExisting {
		return false, nil
	}
	for _, u := range m.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// memoryNotes is an in-memory NoteStore mirroring the SQL semantics.
type memoryNotes struct {
	mu    sync.Mutex
	notes map[string]*model.Note
	clock time.Time
	calls map[string]int
}

func newMemoryNotes() *memoryNotes {
	return &memoryNotes{
		notes: make(map[string]*model.Note),
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		calls: make(map[string]int),
	}
}

func (m *memoryNotes) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memoryNotes) CreateNote(_ context.Context, note *model.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["CreateNote"]++
	now := m.tick()
	note.CreatedAt, note.UpdatedAt = now, now
	cp := *note
	m.notes[note.ID] = &cp
	return nil
}

func (m *memoryNotes) owned(ownerID, id string) (*model.Note, bool) {
	n, ok := m.notes[id]
	if !ok || n.UserID != ownerID {
		return nil, false
	}
	return n, true
}

func (m *memoryNotes) GetNote(_ context.Context, ownerID, id string) (*model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["GetNote"]++
	n, ok := m.owned(ownerID, id)
	if !ok {
		return nil, repository.ErrNoteNotFound
	}
	cp := *n
	return &cp, nil
}

func (m *memoryNotes) ListNotes(_ context.Context, ownerID string, filter model.NoteFilter) ([]*model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["ListNotes"]++
	return m.collect(func(n *model.Note) bool {
		if n.UserID != ownerID || n.IsArchived != filter.ArchivedOrDefault() {
			return false
		}
		if filter.Pinned != nil && n.IsPinned != *filter.Pinned {
			return false
		}
		if filter.Color != nil && *filter.Color != "" {
			return n.ColorTag != nil && *n.ColorTag == *filter.Color
		}
		return true
	}), nil
}

func (m *memoryNotes) SearchNotes(_ context.Context, ownerID, term string) ([]*model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["SearchNotes"]++
	term = strings.ToLower(term)
	return m.collect(func(n *model.Note) bool {
		return n.UserID == ownerID && !n.IsArchived &&
			(strings.Contains(strings.ToLower(n.Title), term) || strings.Contains(strings.ToLower(n.Content), term))
	}), nil
}

func (m *memoryNotes) UpdateNote(_ context.Context, ownerID, id string, patch model.NotePatch) (*model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["UpdateNote"]++
	if patch.IsEmpty() {
		return nil, repository.ErrEmptyPatch
	}
	n, ok := m.owned(ownerID, id)
	if !ok {
		return nil, repository.ErrNoteNotFound
	}
	updated := applyPatch(*n, patch)
	updated.UpdatedAt = m.tick()
	m.notes[id] = &updated
	cp := updated
	return &cp, nil
}

// applyPatch mirrors the column updates UpdateNote performs.
func applyPatch(n model.Note, p model.NotePatch) model.Note {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.ColorTag != nil {
		if *p.ColorTag == "" {
			n.ColorTag = nil
		} else {
			tag := *p.ColorTag
			n.ColorTag = &tag
		}
	}
	if p.IsPinned != nil {
		n.IsPinned = *p.IsPinned
	}
	if p.IsArchived != nil {
		n.IsArchived = *p.IsArchived
	}
	return n
}

func (m *memoryNotes) DeleteNote(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["DeleteNote"]++
	if _, ok := m.owned(ownerID, id); !ok {
		return repository.ErrNoteNotFound
	}
	delete(m.notes, id)
	return nil
}

func (m *memoryNotes) SetNoteSummary(_ context.Context, ownerID, id, summary string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["SetNoteSummary"]++
	n, ok := m.owned(ownerID, id)
	if !ok || n.HasSummary() {
		return false, nil
	}
	s := summary
	n.Summary = &s
	return true, nil
}

func (m *memoryNotes) collect(keep func(*model.Note) bool) []*model.Note {
	out := make([]*model.Note, 0)
	for _, n := range m.notes {
		if keep(n) {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsPinned != out[j].IsPinned {
			return out[i].IsPinned
		}
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// stubSummarizer counts calls and returns a fixed reply.
type stubSummarizer struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
	// before runs inside Summarize, after the call is counted.
	before func()
}

func (s *stubSummarizer) Summarize(_ context.Context, title, content string) (string, error) {
	s.mu.Lock()
	s.calls++
	hook := s.before
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func (s *stubSummarizer) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
