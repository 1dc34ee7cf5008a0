package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	var response map[string]any
	decodeJSON(t, rr, &response)
	if ok, exists := response["ok"]; !exists || ok != true {
		t.Errorf("expected ok=true, got %v", ok)
	}
}

func TestReadyEndpoint_Success(t *testing.T) {
	env := newTestEnv(t)
	env.store.pingFn = func(context.Context) error {
		return nil
	}

	rr := env.do(httptest.NewRequest(http.MethodGet, "/api/ready", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}

	var response map[string]any
	decodeJSON(t, rr, &response)
	if response["ok"] != true {
		t.Errorf("expected ok=true, got %v", response["ok"])
	}
	if response["status"] != "ready" {
		t.Errorf("expected status=ready, got %v", response["status"])
	}
	checks, ok := response["checks"].(map[string]any)
	if !ok {
		t.Fatalf("expected checks to be a map, got %T", response["checks"])
	}
	db, ok := checks["database"].(map[string]any)
	if !ok {
		t.Fatalf("expected database check to be a map, got %T", checks["database"])
	}
	if db["status"] != "ok" {
		t.Errorf("expected database status=ok, got %v", db["status"])
	}
}

func TestReadyEndpoint_DatabaseFailure(t *testing.T) {
	env := newTestEnv(t)
	env.store.pingFn = func(context.Context) error {
		return errors.New("connection refused")
	}

	rr := env.do(httptest.NewRequest(http.MethodGet, "/api/ready", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rr.Code)
	}

	var response map[string]any
	decodeJSON(t, rr, &response)
	if response["ok"] != false {
		t.Errorf("expected ok=false, got %v", response["ok"])
	}
	if response["status"] != "not_ready" {
		t.Errorf("expected status=not_ready, got %v", response["status"])
	}
	checks := response["checks"].(map[string]any)
	db := checks["database"].(map[string]any)
	if db["error"] != "connection refused" {
		t.Errorf("expected database error, got %v", db["error"])
	}
}

func TestPreflightReturnsCORSHeaders(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(httptest.NewRequest(http.MethodOptions, "/api/cases/import", nil))

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Methods"); got != "GET,POST,PUT,DELETE,OPTIONS" {
		t.Errorf("Access-Control-Allow-Methods = %q", got)
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "req-123")

	rr := env.do(req)

	if got := rr.Header().Get("X-Request-ID"); got != "req-123" {
		t.Errorf("X-Request-ID = %q, want req-123", got)
	}
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(httptest.NewRequest(http.MethodGet, "/api/nothing-here", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
	if code := errorCode(t, rr); code != "NOT_FOUND" {
		t.Errorf("code = %q, want NOT_FOUND", code)
	}
}
