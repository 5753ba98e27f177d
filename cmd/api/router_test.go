package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/jotter/jotter/internal/auth"
	"github.com/jotter/jotter/internal/cache"
	"github.com/jotter/jotter/internal/config"
	"github.com/jotter/jotter/internal/handler"
	"github.com/jotter/jotter/internal/metrics"
	"github.com/jotter/jotter/internal/model"
	"github.com/jotter/jotter/internal/readiness"
	"github.com/jotter/jotter/internal/repository"
	"github.com/jotter/jotter/internal/service"
	"github.com/jotter/jotter/internal/summarizer"
)

// memStore is an in-memory UserStore and NoteStore.
type memStore struct {
	mu    sync.Mutex
	users map[string]*model.User
	notes map[string]*model.Note
	clock time.Time
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[string]*model.User),
		notes: make(map[string]*model.Note),
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memStore) CreateUser(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return repository.ErrUserExists
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
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

func (m *memStore) UserExists(_ context.Context, username, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// errEncoding stands in for SQLSTATE 22021, which PostgreSQL raises for
// NUL bytes and invalid UTF-8 in text parameters.
var errEncoding = errors.New("invalid byte sequence for encoding UTF8")

func pgText(values ...string) error {
	for _, v := range values {
		if !utf8.ValidString(v) || strings.ContainsRune(v, 0) {
			return errEncoding
		}
	}
	return nil
}

func (m *memStore) CreateNote(_ context.Context, note *model.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	color := ""
	if note.ColorTag != nil {
		color = *note.ColorTag
	}
	if err := pgText(note.Title, note.Content, color); err != nil {
		return err
	}
	now := m.tick()
	note.CreatedAt, note.UpdatedAt = now, now
	cp := *note
	m.notes[note.ID] = &cp
	return nil
}

func (m *memStore) owned(ownerID, id string) (*model.Note, bool) {
	n, ok := m.notes[id]
	if !ok || n.UserID != ownerID {
		return nil, false
	}
	return n, true
}

func (m *memStore) GetNote(_ context.Context, ownerID, id string) (*model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := pgText(id); err != nil {
		return nil, err
	}
	n, ok := m.owned(ownerID, id)
	if !ok {
		return nil, repository.ErrNoteNotFound
	}
	cp := *n
	return &cp, nil
}

func (m *memStore) ListNotes(_ context.Context, ownerID string, filter model.NoteFilter) ([]*model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collect(func(n *model.Note) bool {
		if n.UserID != ownerID || n.IsArchived != filter.ArchivedOrDefault() {
			return false
		}
		if filter.Pinned != nil && n.IsPinned != *filter.Pinned {
			return false
		}
		if filter.Color != nil {
			return n.ColorTag != nil && *n.ColorTag == *filter.Color
		}
		return true
	}), nil
}

func (m *memStore) SearchNotes(_ context.Context, ownerID, term string) ([]*model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := pgText(term); err != nil {
		return nil, err
	}
	term = strings.ToLower(term)
	return m.collect(func(n *model.Note) bool {
		return n.UserID == ownerID && !n.IsArchived &&
			(strings.Contains(strings.ToLower(n.Title), term) || strings.Contains(strings.ToLower(n.Content), term))
	}), nil
}

func (m *memStore) UpdateNote(_ context.Context, ownerID, id string, patch model.NotePatch) (*model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := pgText(id, deref(patch.Title), deref(patch.Content), deref(patch.ColorTag)); err != nil {
		return nil, err
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

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (m *memStore) DeleteNote(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := pgText(id); err != nil {
		return err
	}
	if _, ok := m.owned(ownerID, id); !ok {
		return repository.ErrNoteNotFound
	}
	delete(m.notes, id)
	return nil
}

func (m *memStore) SetNoteSummary(_ context.Context, ownerID, id, summary string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := pgText(id); err != nil {
		return false, err
	}
	n, ok := m.owned(ownerID, id)
	if !ok || n.HasSummary() {
		return false, nil
	}
	s := summary
	n.Summary = &s
	return true, nil
}

func (m *memStore) collect(keep func(*model.Note) bool) []*model.Note {
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

type countingSummarizer struct {
	mu    sync.Mutex
	calls int
}

func (c *countingSummarizer) Summarize(_ context.Context, title, _ string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return "Summary of " + title, nil
}

type testServer struct {
	handler http.Handler
	gate    *readiness.Gate
	sum     *countingSummarizer
}

type serverOption func(*routerDeps, *testServer)

func withSummaries() serverOption {
	return func(d *routerDeps, ts *testServer) {
		ts.sum = &countingSummarizer{}
	}
}

func withOpenGate() serverOption {
	return func(d *routerDeps, ts *testServer) {
		ts.gate = readiness.NewGate()
	}
}

func withAuthBurst(burst int) serverOption {
	return func(d *routerDeps, ts *testServer) {
		d.limiter = cache.NewMemoryLimiter(cache.LimitConfig{Rate: 0.001, Burst: burst})
	}
}

func withStaticDir(dir string) serverOption {
	return func(d *routerDeps, ts *testServer) {
		d.static = handler.NewStaticHandler(dir)
	}
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		AppEnv:               "test",
		ReadyWaitTimeout:     20 * time.Millisecond,
		MaxRequestBodySize:   1 << 20,
		RateLimitAuthEnabled: true,
	}

	store := newMemStore()
	recorder := metrics.NewInMemory()
	tokens := auth.NewTokenIssuer("router-test-secret", time.Hour)

	ts := &testServer{}
	d := routerDeps{
		cfg:      cfg,
		logger:   logger,
		stats:    handler.NewMetricsHandler(recorder),
		verifier: tokens,
		limiter:  cache.NewMemoryLimiter(cache.LimitConfig{Rate: 100, Burst: 100}),
		metrics:  recorder,
	}
	for _, opt := range opts {
		opt(&d, ts)
	}

	if ts.gate == nil {
		ts.gate = readiness.NewGate()
		ts.gate.Done(nil)
	}
	var sum summarizer.Summarizer
	if ts.sum != nil {
		sum = ts.sum
	}

	d.gate = ts.gate
	d.health = handler.NewHealthHandler(nil, nil, ts.gate)
	d.auth = handler.NewAuthHandler(service.NewAuthService(store, tokens, recorder), logger)
	d.notes = handler.NewNoteHandler(service.NewNoteService(store, recorder), logger)
	d.ai = handler.NewAIHandler(service.NewSummaryService(store, sum, recorder), logger)

	ts.handler = setupRouter(d)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, token, body string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()

	ts.handler.ServeHTTP(rec, req)

	var payload map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return rec.Code, payload
}

// register creates an account and returns its token.
func (ts *testServer) register(t *testing.T, name string) string {
	t.Helper()
	code, body := ts.do(t, http.MethodPost, "/api/auth/register", "",
		`{"username":"`+name+`","email":"`+name+`@example.com","password":"secret123"}`)
	if code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d (%v)", name, code, body)
	}
	return body["token"].(string)
}

func (ts *testServer) createNote(t *testing.T, token, body string) map[string]any {
	t.Helper()
	code, resp := ts.do(t, http.MethodPost, "/api/notes", token, body)
	if code != http.StatusCreated {
		t.Fatalf("create note: expected 201, got %d (%v)", code, resp)
	}
	return resp["note"].(map[string]any)
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	code, body := ts.do(t, http.MethodPost, "/api/auth/register", "",
		`{"username":"alice","email":"alice@example.com","password":"secret123"}`)
	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	if body["success"] != true || body["message"] != "User registered successfully" {
		t.Errorf("unexpected envelope: %v", body)
	}
	user := body["user"].(map[string]any)
	if user["username"] != "alice" || user["email"] != "alice@example.com" {
		t.Errorf("unexpected user: %v", user)
	}
	if _, ok := user["password_hash"]; ok {
		t.Error("password hash must not be returned")
	}
	if body["token"] == "" {
		t.Error("expected a token")
	}

	code, body = ts.do(t, http.MethodPost, "/api/auth/login", "",
		`{"email":"alice@example.com","password":"secret123"}`)
	if code != http.StatusOK || body["message"] != "Login successful" {
		t.Fatalf("login: got %d %v", code, body)
	}

	code, body = ts.do(t, http.MethodGet, "/api/auth/me", body["token"].(string), "")
	if code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", code)
	}
	if body["user"].(map[string]any)["username"] != "alice" {
		t.Errorf("unexpected me payload: %v", body)
	}
}

func TestRegisterRejections(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "bob")

	tests := []struct {
		name    string
		body    string
		code    int
		message string
	}{
		{"missing fields", `{"username":"x"}`, http.StatusBadRequest, "Username, email, and password are required"},
		{"empty body", ``, http.StatusBadRequest, "Username, email, and password are required"},
		{"short password", `{"username":"x","email":"x@example.com","password":"12345"}`, http.StatusBadRequest, "Password must be at least 6 characters long"},
		{"bad email", `{"username":"x","email":"nope","password":"secret123"}`, http.StatusBadRequest, "Please provide a valid email address"},
		{"duplicate username", `{"username":"bob","email":"other@example.com","password":"secret123"}`, http.StatusConflict, "Username or email already exists"},
		{"duplicate email", `{"username":"other","email":"bob@example.com","password":"secret123"}`, http.StatusConflict, "Username or email already exists"},
		{"malformed json", `{"username":`, http.StatusBadRequest, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := ts.do(t, http.MethodPost, "/api/auth/register", "", tt.body)
			if code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, code)
			}
			if body["success"] != false || body["message"] != tt.message {
				t.Errorf("unexpected envelope: %v", body)
			}
		})
	}
}

func TestLoginRejections(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "carol")

	code, body := ts.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"carol@example.com","password":"wrong-password"}`)
	if code != http.StatusUnauthorized || body["message"] != "Invalid email or password" {
		t.Errorf("wrong password: got %d %v", code, body)
	}

	code, body = ts.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"nobody@example.com","password":"secret123"}`)
	if code != http.StatusUnauthorized || body["message"] != "Invalid email or password" {
		t.Errorf("unknown email: got %d %v", code, body)
	}

	code, body = ts.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"carol@example.com"}`)
	if code != http.StatusBadRequest || body["message"] != "Email and password are required" {
		t.Errorf("missing password: got %d %v", code, body)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	code, body := ts.do(t, http.MethodGet, "/api/notes", "", "")
	if code != http.StatusUnauthorized || body["message"] != "Authentication required" {
		t.Errorf("no token: got %d %v", code, body)
	}

	code, body = ts.do(t, http.MethodGet, "/api/auth/me", "not-a-jwt", "")
	if code != http.StatusUnauthorized || body["message"] != "Invalid or expired token" {
		t.Errorf("bad token: got %d %v", code, body)
	}
}

func TestNotesLifecycle(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "dave")

	note := ts.createNote(t, token, `{"title":"Groceries","content":"milk, eggs","color_tag":"green"}`)
	id := note["id"].(string)
	if note["color_tag"] != "green" || note["is_pinned"] != false || note["is_archived"] != false {
		t.Errorf("unexpected created note: %v", note)
	}
	if note["summary"] != nil {
		t.Errorf("new note should have no summary: %v", note["summary"])
	}

	code, body := ts.do(t, http.MethodGet, "/api/notes/"+id, token, "")
	if code != http.StatusOK || body["note"].(map[string]any)["title"] != "Groceries" {
		t.Fatalf("get: got %d %v", code, body)
	}

	code, body = ts.do(t, http.MethodPut, "/api/notes/"+id, token, `{"is_pinned":true,"title":"Shopping"}`)
	if code != http.StatusOK || body["message"] != "Note updated successfully" {
		t.Fatalf("update: got %d %v", code, body)
	}
	updated := body["note"].(map[string]any)
	if updated["title"] != "Shopping" || updated["is_pinned"] != true || updated["content"] != "milk, eggs" {
		t.Errorf("unexpected updated note: %v", updated)
	}

	code, body = ts.do(t, http.MethodPut, "/api/notes/"+id, token, `{"color_tag":null}`)
	if code != http.StatusOK {
		t.Fatalf("clear color: got %d %v", code, body)
	}
	if body["note"].(map[string]any)["color_tag"] != nil {
		t.Errorf("expected color_tag cleared, got %v", body["note"])
	}

	code, body = ts.do(t, http.MethodPut, "/api/notes/"+id, token, `{}`)
	if code != http.StatusBadRequest || body["message"] != "No fields to update" {
		t.Errorf("empty update: got %d %v", code, body)
	}

	code, body = ts.do(t, http.MethodDelete, "/api/notes/"+id, token, "")
	if code != http.StatusOK || body["message"] != "Note deleted successfully" {
		t.Fatalf("delete: got %d %v", code, body)
	}

	code, body = ts.do(t, http.MethodGet, "/api/notes/"+id, token, "")
	if code != http.StatusNotFound || body["message"] != "Note not found" {
		t.Errorf("get after delete: got %d %v", code, body)
	}
}

func TestCreateNoteRequiresTitleAndContent(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "erin")

	for _, body := range []string{`{"title":"only title"}`, `{"content":"only content"}`, `{"title":"  ","content":"x"}`} {
		code, resp := ts.do(t, http.MethodPost, "/api/notes", token, body)
		if code != http.StatusBadRequest || resp["message"] != "Title and content are required" {
			t.Errorf("%s: got %d %v", body, code, resp)
		}
	}
}

func TestNotesAreScopedToOwner(t *testing.T) {
	ts := newTestServer(t)
	owner := ts.register(t, "frank")
	other := ts.register(t, "grace")

	id := ts.createNote(t, owner, `{"title":"Private","content":"mine"}`)["id"].(string)

	for _, req := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/notes/" + id, ""},
		{http.MethodPut, "/api/notes/" + id, `{"title":"stolen"}`},
		{http.MethodDelete, "/api/notes/" + id, ""},
	} {
		code, body := ts.do(t, req.method, req.path, other, req.body)
		if code != http.StatusNotFound || body["message"] != "Note not found" {
			t.Errorf("%s %s as other user: got %d %v", req.method, req.path, code, body)
		}
	}

	code, body := ts.do(t, http.MethodGet, "/api/notes", other, "")
	if code != http.StatusOK || len(body["notes"].([]any)) != 0 {
		t.Errorf("other user's list: got %d %v", code, body)
	}
}

func TestListFiltersAndOrder(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "heidi")

	first := ts.createNote(t, token, `{"title":"first","content":"a","color_tag":"red"}`)["id"].(string)
	second := ts.createNote(t, token, `{"title":"second","content":"b"}`)["id"].(string)
	archived := ts.createNote(t, token, `{"title":"old","content":"c"}`)["id"].(string)

	ts.do(t, http.MethodPut, "/api/notes/"+first, token, `{"is_pinned":true}`)
	ts.do(t, http.MethodPut, "/api/notes/"+archived, token, `{"is_archived":true}`)

	ids := func(path string) []string {
		t.Helper()
		code, body := ts.do(t, http.MethodGet, path, token, "")
		if code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, code)
		}
		var out []string
		for _, n := range body["notes"].([]any) {
			out = append(out, n.(map[string]any)["id"].(string))
		}
		return out
	}

	tests := []struct {
		path string
		want []string
	}{
		{"/api/notes", []string{first, second}},
		{"/api/notes?archived=true", []string{archived}},
		{"/api/notes?pinned=true", []string{first}},
		{"/api/notes?pinned=false", []string{second}},
		{"/api/notes?color=red", []string{first}},
		{"/api/notes?archived=yes", []string{first, second}},
	}
	for _, tt := range tests {
		got := ids(tt.path)
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("%s: expected %v, got %v", tt.path, tt.want, got)
		}
	}
}

func TestSearchRoute(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "ivan")

	hit := ts.createNote(t, token, `{"title":"Meeting notes","content":"discuss budget"}`)["id"].(string)
	ts.createNote(t, token, `{"title":"Recipe","content":"pancakes"}`)

	code, body := ts.do(t, http.MethodGet, "/api/notes/search?q=BUDGET", token, "")
	if code != http.StatusOK {
		t.Fatalf("search: expected 200, got %d (%v)", code, body)
	}
	notes := body["notes"].([]any)
	if len(notes) != 1 || notes[0].(map[string]any)["id"] != hit {
		t.Errorf("unexpected search result: %v", notes)
	}

	code, body = ts.do(t, http.MethodGet, "/api/notes/search?q=%20%20", token, "")
	if code != http.StatusOK || len(body["notes"].([]any)) != 0 {
		t.Errorf("blank search: got %d %v", code, body)
	}
}

func TestMalformedNoteIDIsNotFound(t *testing.T) {
	ts := newTestServer(t, withSummaries())
	token := ts.register(t, "oscar")
	ts.createNote(t, token, `{"title":"t","content":"c"}`)

	routes := []struct {
		method string
		prefix string
		suffix string
		body   string
	}{
		{http.MethodGet, "/api/notes/", "", ""},
		{http.MethodPut, "/api/notes/", "", `{"title":"x"}`},
		{http.MethodDelete, "/api/notes/", "", ""},
		{http.MethodPost, "/api/ai/notes/", "/summarize", ""},
	}

	for _, id := range []string{"%FF", "%00", "not-a-ulid", "8ZZZZZZZZZZZZZZZZZZZZZZZZZ"} {
		for _, rt := range routes {
			path := rt.prefix + id + rt.suffix
			code, body := ts.do(t, rt.method, path, token, rt.body)
			if code != http.StatusNotFound || body["message"] != "Note not found" {
				t.Errorf("%s %s: got %d %v", rt.method, path, code, body)
			}
		}
	}

	if ts.sum.calls != 0 {
		t.Errorf("expected no provider calls, got %d", ts.sum.calls)
	}
}

func TestSearchRejectsInvalidQuery(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "peggy")

	for _, q := range []string{"%00", "a%00b", "%FF", "%C3"} {
		code, body := ts.do(t, http.MethodGet, "/api/notes/search?q="+q, token, "")
		if code != http.StatusBadRequest || body["message"] != "q contains invalid characters" {
			t.Errorf("q=%s: got %d %v", q, code, body)
		}
	}
}

func TestNoteBodyRejectsNUL(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "rupert")

	tests := []struct {
		name string
		body string
		want string
	}{
		{"title", `{"title":"a\u0000b","content":"c"}`, "title contains invalid characters"},
		{"content", `{"title":"t","content":"\u0000"}`, "content contains invalid characters"},
		{"color_tag", `{"title":"t","content":"c","color_tag":"red\u0000"}`, "color_tag contains invalid characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := ts.do(t, http.MethodPost, "/api/notes", token, tt.body)
			if code != http.StatusBadRequest || body["message"] != tt.want {
				t.Errorf("create: got %d %v", code, body)
			}
		})
	}

	id := ts.createNote(t, token, `{"title":"t","content":"c"}`)["id"].(string)
	for _, tt := range tests {
		t.Run("update "+tt.name, func(t *testing.T) {
			code, body := ts.do(t, http.MethodPut, "/api/notes/"+id, token, tt.body)
			if code != http.StatusBadRequest || body["message"] != tt.want {
				t.Errorf("update: got %d %v", code, body)
			}
		})
	}
}

func TestColorTagLimitCountsCharacters(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "sybil")

	tag := strings.Repeat("é", 20)
	id := ts.createNote(t, token, `{"title":"t","content":"c","color_tag":"`+tag+`"}`)["id"].(string)

	code, body := ts.do(t, http.MethodPut, "/api/notes/"+id, token, `{"color_tag":"`+tag+`"}`)
	if code != http.StatusOK {
		t.Fatalf("update with same tag: got %d %v", code, body)
	}

	long := strings.Repeat("é", 33)
	for _, method := range []string{http.MethodPost, http.MethodPut} {
		path := "/api/notes"
		if method == http.MethodPut {
			path += "/" + id
		}
		code, body = ts.do(t, method, path, token, `{"title":"t","content":"c","color_tag":"`+long+`"}`)
		if code != http.StatusBadRequest || body["message"] != "color_tag must be at most 32 characters long" {
			t.Errorf("%s with 33 characters: got %d %v", method, code, body)
		}
	}
}

func TestSummarizeDisabled(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "judy")
	id := ts.createNote(t, token, `{"title":"t","content":"c"}`)["id"].(string)

	code, body := ts.do(t, http.MethodPost, "/api/ai/notes/"+id+"/summarize", token, "")
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
	if body["message"] != "AI summarization is not available. Please configure OPENAI_API_KEY." {
		t.Errorf("unexpected message: %v", body["message"])
	}
}

func TestSummarizeCachesResult(t *testing.T) {
	ts := newTestServer(t, withSummaries())
	token := ts.register(t, "mallory")
	id := ts.createNote(t, token, `{"title":"Trip","content":"pack bags"}`)["id"].(string)

	path := "/api/ai/notes/" + id + "/summarize"

	code, body := ts.do(t, http.MethodPost, path, token, "")
	if code != http.StatusOK || body["summary"] != "Summary of Trip" || body["cached"] != false {
		t.Fatalf("first summary: got %d %v", code, body)
	}

	code, body = ts.do(t, http.MethodPost, path, token, "")
	if code != http.StatusOK || body["summary"] != "Summary of Trip" || body["cached"] != true {
		t.Fatalf("second summary: got %d %v", code, body)
	}

	if ts.sum.calls != 1 {
		t.Errorf("expected one provider call, got %d", ts.sum.calls)
	}

	code, body = ts.do(t, http.MethodGet, "/api/notes/"+id, token, "")
	if code != http.StatusOK || body["note"].(map[string]any)["summary"] != "Summary of Trip" {
		t.Errorf("stored summary: got %d %v", code, body)
	}

	code, _ = ts.do(t, http.MethodPost, "/api/ai/notes/missing/summarize", token, "")
	if code != http.StatusNotFound {
		t.Errorf("unknown note: expected 404, got %d", code)
	}
}

func TestAPIWaitsForSchema(t *testing.T) {
	ts := newTestServer(t, withOpenGate())

	code, body := ts.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"a@example.com","password":"secret123"}`)
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before schema is ready, got %d", code)
	}
	if body["message"] != "Database is not available. Please try again later." {
		t.Errorf("unexpected message: %v", body["message"])
	}

	code, _ = ts.do(t, http.MethodGet, "/healthz", "", "")
	if code != http.StatusOK {
		t.Errorf("healthz should not wait on schema, got %d", code)
	}

	ts.gate.Done(nil)

	code, _ = ts.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"a@example.com","password":"secret123"}`)
	if code != http.StatusUnauthorized {
		t.Errorf("expected 401 once ready, got %d", code)
	}
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	ts := newTestServer(t, withAuthBurst(2))

	body := `{"email":"a@example.com","password":"secret123"}`
	for i := 0; i < 2; i++ {
		if code, _ := ts.do(t, http.MethodPost, "/api/auth/login", "", body); code != http.StatusUnauthorized {
			t.Fatalf("request %d: expected 401, got %d", i, code)
		}
	}

	code, resp := ts.do(t, http.MethodPost, "/api/auth/login", "", body)
	if code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
	if resp["success"] != false || !strings.HasPrefix(resp["message"].(string), "Too many requests") {
		t.Errorf("unexpected envelope: %v", resp)
	}
}

func TestUnknownRoutes(t *testing.T) {
	ts := newTestServer(t)

	code, body := ts.do(t, http.MethodGet, "/api/nope", "", "")
	if code != http.StatusNotFound || body["message"] != "Route not found" {
		t.Errorf("unknown api route: got %d %v", code, body)
	}

	code, body = ts.do(t, http.MethodGet, "/elsewhere", "", "")
	if code != http.StatusNotFound || body["message"] != "Route not found" {
		t.Errorf("unknown route without frontend: got %d %v", code, body)
	}
}

func TestStaticFrontendFallback(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}
	ts := newTestServer(t, withStaticDir(dir))

	req := httptest.NewRequest(http.MethodGet, "/notes/123", nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "app") {
		t.Errorf("expected index.html fallback, got %d %q", rec.Code, rec.Body.String())
	}

	code, body := ts.do(t, http.MethodGet, "/api/nope", "", "")
	if code != http.StatusNotFound || body["message"] != "Route not found" {
		t.Errorf("api paths must not fall back to the frontend: got %d %v", code, body)
	}
}
