package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustle-dev/rustle/internal/errors"
	"github.com/rustle-dev/rustle/internal/wasm"
)

func TestHandleHealth(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.handleHealth(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Contains(t, health, "checks")
}

func TestHandleHealthRejectsPost(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	rec := httptest.NewRecorder()
	srv.handleHealth(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleBuildStatus(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/build/status", nil)
	rec := httptest.NewRecorder()
	srv.handleBuildStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status["status"])
	assert.Equal(t, float64(0), status["total_builds"])
}

func TestHandleBuildStatusReportsErrors(t *testing.T) {
	srv := testServer(t)
	srv.handleBuildResult(wasm.Result{
		Diagnostics: []errors.Diagnostic{{Severity: errors.SeverityError, Message: "boom"}},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/build/status", nil)
	rec := httptest.NewRecorder()
	srv.handleBuildStatus(rec, req)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "error", status["status"])
	assert.Equal(t, float64(1), status["diagnostics"])
}

func TestHandleBuildStatusReportsWarnings(t *testing.T) {
	srv := testServer(t)
	srv.handleBuildResult(wasm.Result{
		Success:     true,
		Diagnostics: []errors.Diagnostic{{Severity: errors.SeverityWarning, Message: "unused variable"}},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/build/status", nil)
	rec := httptest.NewRecorder()
	srv.handleBuildStatus(rec, req)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "warning", status["status"])
}

func TestHandleBuildStatusErrorWithoutDiagnostics(t *testing.T) {
	srv := testServer(t)
	srv.handleBuildResult(wasm.Result{
		Err: fmt.Errorf("wasm-bindgen failed"),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/build/status", nil)
	rec := httptest.NewRecorder()
	srv.handleBuildStatus(rec, req)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "error", status["status"])
}

func TestHandleBuildMetrics(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/build/metrics", nil)
	rec := httptest.NewRecorder()
	srv.handleBuildMetrics(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	metrics, ok := response["build_metrics"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, metrics, "total_builds")
	assert.Contains(t, metrics, "cache_hits")
}

func TestHandleBuildErrors(t *testing.T) {
	srv := testServer(t)
	srv.handleBuildResult(wasm.Result{
		Diagnostics: []errors.Diagnostic{
			{File: "src/main.rs", Line: 8, Severity: errors.SeverityError, Message: "mismatched types"},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/build/errors", nil)
	rec := httptest.NewRecorder()
	srv.handleBuildErrors(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Diagnostics []errors.Diagnostic `json:"diagnostics"`
		Count       int                 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 1, response.Count)
	require.Len(t, response.Diagnostics, 1)
	assert.Equal(t, "src/main.rs", response.Diagnostics[0].File)
}

func TestHandleBuildErrorsFilterByFile(t *testing.T) {
	srv := testServer(t)
	srv.handleBuildResult(wasm.Result{
		Diagnostics: []errors.Diagnostic{
			{File: "src/main.rs", Line: 8, Severity: errors.SeverityError, Message: "mismatched types"},
			{File: "src/lib.rs", Line: 3, Severity: errors.SeverityWarning, Message: "unused import"},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/build/errors?file=src/lib.rs", nil)
	rec := httptest.NewRecorder()
	srv.handleBuildErrors(rec, req)

	var response struct {
		Diagnostics []errors.Diagnostic `json:"diagnostics"`
		Count       int                 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 1, response.Count)
	require.Len(t, response.Diagnostics, 1)
	assert.Equal(t, "src/lib.rs", response.Diagnostics[0].File)
}

func TestHandleBuildResultReplacesDiagnostics(t *testing.T) {
	srv := testServer(t)
	srv.handleBuildResult(wasm.Result{
		Diagnostics: []errors.Diagnostic{{Severity: errors.SeverityError, Message: "boom"}},
	})
	srv.handleBuildResult(wasm.Result{Success: true})

	assert.Empty(t, srv.LastDiagnostics())
	assert.False(t, srv.diagnostics.HasErrors())
}

func TestMiddlewareCORS(t *testing.T) {
	srv := testServer(t)
	srv.config.Server.AllowedOrigins = []string{"http://dev.example.com:3000"}

	handler := srv.addMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Allowed origin is echoed back
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://dev.example.com:3000")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "http://dev.example.com:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	// Unknown origins fall back to the development wildcard
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://other.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	// Outside development there is no wildcard
	srv.config.Server.Environment = "production"
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://other.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMiddlewarePreflight(t *testing.T) {
	srv := testServer(t)

	called := false
	handler := srv.addMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, called, "preflight must short-circuit before the handler")
	assert.Equal(t, "GET, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestLastDiagnosticsReturnsCopy(t *testing.T) {
	srv := testServer(t)
	srv.handleBuildResult(wasm.Result{
		Diagnostics: []errors.Diagnostic{{Message: "original"}},
	})

	diags := srv.LastDiagnostics()
	require.Len(t, diags, 1)
	diags[0].Message = "mutated"

	assert.Equal(t, "original", srv.LastDiagnostics()[0].Message)
}
