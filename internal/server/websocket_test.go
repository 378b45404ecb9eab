package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustle-dev/rustle/internal/errors"
	"github.com/rustle-dev/rustle/internal/wasm"
)

func TestCheckOrigin(t *testing.T) {
	srv := testServer(t)
	srv.config.Server.AllowedOrigins = []string{"http://dev.example.com:3000"}

	tests := []struct {
		name    string
		origin  string
		allowed bool
	}{
		{"own host", "http://localhost:8420", true},
		{"loopback", "http://127.0.0.1:8420", true},
		{"configured origin", "http://dev.example.com:3000", true},
		{"missing origin", "", false},
		{"wrong port", "http://localhost:9999", false},
		{"other host", "http://evil.example.com", false},
		{"non-http scheme", "chrome-extension://abcdef", false},
		{"unparseable", "http://[::1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.allowed, srv.checkOrigin(req))
		})
	}
}

func TestHandleWebSocketRejectsBadOrigin(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec := httptest.NewRecorder()
	srv.handleWebSocket(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBroadcastMessageDropsWithoutHub(t *testing.T) {
	srv := testServer(t)

	// No hub goroutine is reading; the send must not block
	srv.broadcastMessage(UpdateMessage{Type: "reload"})
}

func TestHandleBuildResultBroadcastsSuccess(t *testing.T) {
	srv := testServer(t)
	srv.broadcast = make(chan []byte, 1)

	srv.handleBuildResult(wasm.Result{Success: true})

	var msg UpdateMessage
	require.NoError(t, json.Unmarshal(<-srv.broadcast, &msg))
	assert.Equal(t, "build_success", msg.Type)
	assert.Empty(t, msg.Content)
}

func TestHandleBuildResultBroadcastsErrorOverlay(t *testing.T) {
	srv := testServer(t)
	srv.broadcast = make(chan []byte, 1)

	srv.handleBuildResult(wasm.Result{
		Success: false,
		Diagnostics: []errors.Diagnostic{
			{File: "src/main.rs", Line: 3, Severity: errors.SeverityError, Message: "mismatched types"},
		},
	})

	var msg UpdateMessage
	require.NoError(t, json.Unmarshal(<-srv.broadcast, &msg))
	assert.Equal(t, "build_error", msg.Type)
	assert.Contains(t, msg.Content, "rustle-error-overlay")
	assert.Contains(t, msg.Content, "mismatched types")

	// Diagnostics are retained for the errors endpoint
	require.Len(t, srv.LastDiagnostics(), 1)
}

func TestHandleBuildResultIgnoresSkipped(t *testing.T) {
	srv := testServer(t)

	srv.handleBuildResult(wasm.Result{Success: true, Skipped: true})
	assert.Empty(t, srv.LastDiagnostics())
}
