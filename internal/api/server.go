// Package api provides the HTTP API for observing a run.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nTorre/HolyCrabUI/internal/engine"
	"github.com/nTorre/HolyCrabUI/internal/persistence"
	"github.com/nTorre/HolyCrabUI/internal/world"
)

const maxStreamConns = 4

// Server serves the run state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB // Optional; /runs and journal events need it
	RunID    string
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	streamConns atomic.Int32
	upgrader    websocket.Upgrader
	httpServer  *http.Server
}

// Handler builds the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	mapLimiter := NewRateLimiter(60, time.Minute)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4 * 1024,
		WriteBufferSize: 16 * 1024,
		CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
	}

	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/map", RateLimitMiddleware(mapLimiter, s.handleMap))
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/runs", s.handleRuns)
	mux.HandleFunc("GET /api/v1/runs/{id}/snapshot", s.handleSnapshot)
	mux.HandleFunc("/api/v1/stream", s.handleStream)

	// Admin endpoints.
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/halt", s.adminOnly(s.handleHalt))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops the server started by Start.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of extra allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly requires bearer token auth on POST requests.
// GET requests pass through.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no MINER_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"run_id": s.RunID,
		"tick":   s.Sim.CurrentTick(),
		"speed":  s.Eng.Speed(),
		"miner":  s.Sim.Beacon.Latest(),
	})
}

// handleMap serves the rendered known map. ?format=text returns plain rows.
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	rows := s.Sim.Beacon.LatestMap()
	if rows == nil {
		// Nothing published yet; render the current view directly.
		rendered := world.Render(s.Sim.KnownGrid(), s.Sim.World.Position())
		rows = strings.Split(strings.TrimSuffix(rendered, "\n"), "\n")
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		for _, row := range rows {
			fmt.Fprintln(w, row)
		}
		return
	}
	writeJSON(w, map[string]any{
		"size": len(rows),
		"rows": rows,
	})
}

// handleEvents serves recent events, oldest first. ?source=journal reads the
// run journal instead of memory (newest first).
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 50, 500)

	if r.URL.Query().Get("source") == "journal" {
		if s.DB == nil {
			http.Error(w, "journal disabled", http.StatusServiceUnavailable)
			return
		}
		events, err := s.DB.RecentEvents(s.RunID, limit)
		if err != nil {
			slog.Error("journal events", "error", err)
			http.Error(w, "journal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, events)
		return
	}
	writeJSON(w, s.Sim.RecentEvents(limit))
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "journal disabled", http.StatusServiceUnavailable)
		return
	}
	runs, err := s.DB.Runs(queryLimit(r, 20, 200))
	if err != nil {
		slog.Error("list runs", "error", err)
		http.Error(w, "journal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

// handleSnapshot serves the latest checkpoint of a run. ?format=text returns
// plain rows.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "journal disabled", http.StatusServiceUnavailable)
		return
	}
	runID := r.PathValue("id")
	tick, g, err := s.DB.LoadSnapshot(runID)
	if errors.Is(err, persistence.ErrNoSnapshot) {
		http.Error(w, "no snapshot for run", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("load snapshot", "run", runID, "error", err)
		http.Error(w, "journal error", http.StatusInternalServerError)
		return
	}

	// Checkpoints do not record the miner, so no cell is marked.
	rendered := world.Render(g, world.Coord{Row: -1, Col: -1})
	rows := strings.Split(strings.TrimSuffix(rendered, "\n"), "\n")
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		for _, row := range rows {
			fmt.Fprintln(w, row)
		}
		return
	}
	writeJSON(w, map[string]any{
		"run_id": runID,
		"tick":   tick,
		"size":   g.Size,
		"rows":   rows,
	})
}

// handleStream pushes every published status over a websocket until the
// client disconnects.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.streamConns.Add(1) > maxStreamConns {
		s.streamConns.Add(-1)
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}
	defer s.streamConns.Add(-1)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	updates, unsubscribe := s.Sim.Beacon.Subscribe(16)
	defer unsubscribe()

	// Reader: only watches for the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Latest state first so new clients do not wait for a tick.
	if err := writeStatus(conn, s.Sim.Beacon.Latest()); err != nil {
		return
	}
	for {
		select {
		case <-gone:
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			if err := writeStatus(conn, st); err != nil {
				slog.Debug("stream write failed", "error", err)
				return
			}
		}
	}
}

func writeStatus(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteJSON(v)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 100 {
			http.Error(w, "speed must be 0-100", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}
	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

// handleHalt ends the episode before the next tick.
func (s *Server) handleHalt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Reason == "" {
		req.Reason = "halted by operator"
	}
	s.Sim.Beacon.Halt(req.Reason)
	slog.Warn("halt requested", "reason", req.Reason)

	writeJSON(w, map[string]any{
		"halted": true,
		"reason": s.Sim.Beacon.HaltReason(),
	})
}

func queryLimit(r *http.Request, def, ceiling int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= ceiling {
			return n
		}
	}
	return def
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
