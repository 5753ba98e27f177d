package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jotter/jotter/internal/readiness"
)

// mockHealthChecker is a mock implementation of HealthChecker for testing.
type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) Ping(ctx context.Context) error {
	return m.err
}

func readyGate(err error) *readiness.Gate {
	g := readiness.NewGate()
	g.Done(err)
	return g
}

func serveReadyz(t *testing.T, h *HealthHandler) (int, HealthResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	h.Readyz(rec, req)

	var response HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return rec.Code, response
}

func TestHealthHandler_Healthz(t *testing.T) {
	// An open gate must not affect liveness.
	h := NewHealthHandler(nil, nil, readiness.NewGate())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	h.Healthz(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	var response HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Status != "ok" {
		t.Errorf("expected status 'ok', got %s", response.Status)
	}
}

func TestHealthHandler_Readyz_AllHealthy(t *testing.T) {
	h := NewHealthHandler(&mockHealthChecker{}, &mockHealthChecker{}, readyGate(nil))

	code, response := serveReadyz(t, h)

	if code != http.StatusOK {
		t.Errorf("expected status 200, got %d", code)
	}
	if response.Status != "ok" {
		t.Errorf("expected status 'ok', got %s", response.Status)
	}
	for _, name := range []string{"schema", "postgres", "redis"} {
		if response.Checks[name] != "ok" {
			t.Errorf("expected %s check 'ok', got %s", name, response.Checks[name])
		}
	}
}

func TestHealthHandler_Readyz_SchemaPending(t *testing.T) {
	h := NewHealthHandler(&mockHealthChecker{}, nil, readiness.NewGate())

	code, response := serveReadyz(t, h)

	if code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", code)
	}
	if response.Checks["schema"] != "pending" {
		t.Errorf("expected schema 'pending', got %s", response.Checks["schema"])
	}
}

func TestHealthHandler_Readyz_SchemaFailed(t *testing.T) {
	h := NewHealthHandler(&mockHealthChecker{}, nil, readyGate(errors.New("syntax error")))

	code, response := serveReadyz(t, h)

	if code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", code)
	}
	if response.Checks["schema"] != "failed" {
		t.Errorf("expected schema 'failed', got %s", response.Checks["schema"])
	}
}

func TestHealthHandler_Readyz_DatabaseUnhealthy(t *testing.T) {
	db := &mockHealthChecker{err: errors.New("connection refused")}
	h := NewHealthHandler(db, &mockHealthChecker{}, readyGate(nil))

	code, response := serveReadyz(t, h)

	if code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", code)
	}
	if response.Status != "unhealthy" {
		t.Errorf("expected status 'unhealthy', got %s", response.Status)
	}
	if response.Checks["postgres"] != "error: connection refused" {
		t.Errorf("unexpected postgres check: %s", response.Checks["postgres"])
	}
}

func TestHealthHandler_Readyz_RedisOptional(t *testing.T) {
	h := NewHealthHandler(&mockHealthChecker{}, nil, readyGate(nil))

	code, response := serveReadyz(t, h)

	if code != http.StatusOK {
		t.Errorf("expected status 200, got %d", code)
	}
	if response.Checks["redis"] != "not configured" {
		t.Errorf("expected 'not configured', got %s", response.Checks["redis"])
	}
}
