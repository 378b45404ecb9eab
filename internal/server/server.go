// Package server implements the development server for the web build: it
// serves the dist directory, watches sources, rebuilds through the wasm
// pipeline, and pushes live-reload messages to connected browsers.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/rustle-dev/rustle/internal/cargo"
	"github.com/rustle-dev/rustle/internal/config"
	"github.com/rustle-dev/rustle/internal/errors"
	"github.com/rustle-dev/rustle/internal/logging"
	"github.com/rustle-dev/rustle/internal/validation"
	"github.com/rustle-dev/rustle/internal/version"
	"github.com/rustle-dev/rustle/internal/wasm"
	"github.com/rustle-dev/rustle/internal/watcher"
)

// Client represents a connected browser
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	server *DevServer
}

// DevServer serves the web build with live reload
type DevServer struct {
	config      *config.Config
	logger      logging.Logger
	httpServer  *http.Server
	serverMutex sync.RWMutex

	clients      map[*websocket.Conn]*Client
	clientsMutex sync.RWMutex
	broadcast    chan []byte
	register     chan *Client
	unregister   chan *websocket.Conn

	watcher  *watcher.FileWatcher
	pipeline *wasm.Pipeline

	diagnostics *errors.Collector

	shutdownOnce sync.Once
}

// UpdateMessage is pushed to connected browsers over the websocket
type UpdateMessage struct {
	Type      string    `json:"type"`
	Content   string    `json:"content,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// New creates a development server
func New(cfg *config.Config, logger logging.Logger) (*DevServer, error) {
	fileWatcher, err := watcher.NewFileWatcher(time.Duration(cfg.Watch.DebounceMs) * time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	runner := cargo.NewRunner(".")
	pipeline := wasm.NewPipeline(cfg, runner, logger)

	return &DevServer{
		config:     cfg,
		logger:     logger.WithComponent("server"),
		clients:    make(map[*websocket.Conn]*Client),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *websocket.Conn),
		watcher:    fileWatcher,
		pipeline:   pipeline,

		diagnostics: errors.NewCollector(),
	}, nil
}

// Start runs the initial build and serves until the context is cancelled or
// the listener fails.
func (s *DevServer) Start(ctx context.Context) error {
	s.pipeline.AddCallback(s.handleBuildResult)

	s.setupFileWatcher(ctx)

	// Initial build; a failure still starts the server so the browser shows
	// the error overlay
	if result := s.pipeline.Build(ctx); result.Err != nil {
		s.logger.Error(ctx, result.Err, "Initial build failed")
	}

	go s.runWebSocketHub(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/build/status", s.handleBuildStatus)
	mux.HandleFunc("/api/build/metrics", s.handleBuildMetrics)
	mux.HandleFunc("/api/build/errors", s.handleBuildErrors)
	mux.HandleFunc("/", s.handleStatic)

	handler := s.addMiddleware(mux)

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: handler,
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	if s.config.Server.Open {
		go s.openBrowser(fmt.Sprintf("http://%s", addr))
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

func (s *DevServer) setupFileWatcher(ctx context.Context) {
	s.watcher.SetIgnoreDirs(s.config.Watch.Ignore)
	s.watcher.AddFilter(watcher.SourceFilter)
	s.watcher.AddFilter(watcher.ExcludeDirsFilter(s.config.Watch.Ignore...))
	s.watcher.AddFilter(watcher.NoDistFilter(s.config.Wasm.Dist))

	s.watcher.AddHandler(func(events []watcher.ChangeEvent) error {
		return s.handleFileChange(ctx, events)
	})

	for _, path := range s.config.Watch.Paths {
		if err := s.watcher.AddRecursive(path); err != nil {
			s.logger.Warn(ctx, err, "Failed to watch path", "path", path)
		}
	}

	if err := s.watcher.Start(ctx); err != nil {
		s.logger.Warn(ctx, err, "Failed to start file watcher")
	}
}

func (s *DevServer) handleFileChange(ctx context.Context, events []watcher.ChangeEvent) error {
	for _, event := range events {
		s.logger.Debug(ctx, "File changed", "path", event.Path, "type", event.Type.String())
	}

	result := s.pipeline.Build(ctx)
	if result.Err != nil {
		s.logger.Error(ctx, result.Err, "Rebuild failed")
	}
	return nil
}

// handleBuildResult pushes build outcomes to connected browsers
func (s *DevServer) handleBuildResult(result wasm.Result) {
	if result.Skipped {
		return
	}

	s.diagnostics.Clear()
	for _, d := range result.Diagnostics {
		s.diagnostics.Add(d)
	}
	s.diagnostics.AddError(result.Err)

	if result.Success {
		s.broadcastMessage(UpdateMessage{
			Type:      "build_success",
			Timestamp: time.Now(),
		})
		return
	}

	s.broadcastMessage(UpdateMessage{
		Type:      "build_error",
		Content:   errors.Overlay(result.Diagnostics),
		Timestamp: time.Now(),
	})
}

func (s *DevServer) broadcastMessage(msg UpdateMessage) {
	jsonData, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error(context.Background(), err, "Failed to marshal update message")
		jsonData = []byte(`{"type":"reload"}`)
	}

	select {
	case s.broadcast <- jsonData:
	default:
		// No hub running or hub busy, drop the message
	}
}

func (s *DevServer) addMiddleware(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if s.isAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if s.config.Server.Environment == "development" {
			// Wildcard only in development
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		start := time.Now()
		handler.ServeHTTP(w, r)
		s.logger.Debug(r.Context(), "Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start).String(),
		)
	})
}

func (s *DevServer) isAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range s.config.Server.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

func (s *DevServer) openBrowser(url string) {
	time.Sleep(100 * time.Millisecond) // Give the listener time to start

	if err := validation.ValidateURL(url); err != nil {
		s.logger.Warn(context.Background(), err, "Not opening browser, URL failed validation")
		return
	}

	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = fmt.Errorf("unsupported platform")
	}

	if err != nil {
		s.logger.Warn(context.Background(), err, "Failed to open browser")
	}
}

// LastDiagnostics returns the diagnostics from the most recent build
func (s *DevServer) LastDiagnostics() []errors.Diagnostic {
	return s.diagnostics.Diagnostics()
}

// Shutdown gracefully shuts down the server and cleans up resources
func (s *DevServer) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "Shutting down server")

		if s.watcher != nil {
			s.watcher.Stop()
		}

		s.clientsMutex.Lock()
		for conn, client := range s.clients {
			close(client.send)
			conn.Close(websocket.StatusNormalClosure, "")
		}
		s.clients = make(map[*websocket.Conn]*Client)
		s.clientsMutex.Unlock()

		s.serverMutex.RLock()
		server := s.httpServer
		s.serverMutex.RUnlock()

		if server != nil {
			shutdownErr = server.Shutdown(ctx)
		}
	})

	return shutdownErr
}

// handleHealth returns the server health status
func (s *DevServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.clientsMutex.RLock()
	clientCount := len(s.clients)
	s.clientsMutex.RUnlock()

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   version.GetShortVersion(),
		"checks": map[string]interface{}{
			"server":  map[string]interface{}{"status": "healthy", "message": "HTTP server operational"},
			"watcher": map[string]interface{}{"status": "healthy", "message": "File watcher operational"},
			"clients": map[string]interface{}{"status": "healthy", "connected": clientCount},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(health); err != nil {
		s.logger.Error(r.Context(), err, "Failed to encode health response")
	}
}

// handleBuildStatus returns the current build status
func (s *DevServer) handleBuildStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	metrics := s.pipeline.GetMetrics()
	diagnostics := s.diagnostics.Diagnostics()

	status := "healthy"
	switch {
	case s.diagnostics.HasErrors():
		status = "error"
	case s.diagnostics.HasWarnings():
		status = "warning"
	}

	response := map[string]interface{}{
		"status":        status,
		"total_builds":  metrics.TotalBuilds,
		"failed_builds": metrics.FailedBuilds,
		"cache_hits":    metrics.CacheHits,
		"diagnostics":   len(diagnostics),
		"timestamp":     time.Now().Unix(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleBuildMetrics returns detailed build metrics
func (s *DevServer) handleBuildMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	metrics := s.pipeline.GetMetrics()

	response := map[string]interface{}{
		"build_metrics": map[string]interface{}{
			"total_builds":      metrics.TotalBuilds,
			"successful_builds": metrics.SuccessfulBuilds,
			"failed_builds":     metrics.FailedBuilds,
			"cache_hits":        metrics.CacheHits,
			"average_duration":  metrics.AverageDuration.String(),
			"total_duration":    metrics.TotalDuration.String(),
		},
		"timestamp": time.Now().Unix(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleBuildErrors returns the diagnostics from the last build, optionally
// narrowed to one file via ?file=
func (s *DevServer) handleBuildErrors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	diagnostics := s.diagnostics.Diagnostics()
	if file := r.URL.Query().Get("file"); file != "" {
		diagnostics = s.diagnostics.ByFile(file)
	}

	response := map[string]interface{}{
		"diagnostics": diagnostics,
		"count":       len(diagnostics),
		"timestamp":   time.Now().Unix(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
