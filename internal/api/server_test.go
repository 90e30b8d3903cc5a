package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nTorre/HolyCrabUI/internal/agents"
	"github.com/nTorre/HolyCrabUI/internal/beacon"
	"github.com/nTorre/HolyCrabUI/internal/engine"
	"github.com/nTorre/HolyCrabUI/internal/oracle"
	"github.com/nTorre/HolyCrabUI/internal/persistence"
	"github.com/nTorre/HolyCrabUI/internal/sim"
	"github.com/nTorre/HolyCrabUI/internal/world"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	g, start, err := world.Parse([]string{
		"@GrGG",
		"GGGGG",
		"LLLLL",
		"GGGGG",
		"GGGGG",
	})
	require.NoError(t, err)
	w, err := sim.New(g, start, sim.Options{FullKnowledge: true})
	require.NoError(t, err)
	b := beacon.New()
	m := agents.NewMiner("api", w, oracle.New(), b, agents.DefaultParams())
	return &Server{
		Sim:      engine.NewSimulation(w, m, b),
		Eng:      engine.NewEngine(),
		RunID:    "run-1",
		AdminKey: "secret",
	}
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStatusReportsLatestTick(t *testing.T) {
	s := newTestServer(t)
	s.Sim.Step(1)
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/api/v1/status", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		RunID string        `json:"run_id"`
		Tick  uint64        `json:"tick"`
		Miner beacon.Status `json:"miner"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, uint64(1), got.Tick)
	assert.Equal(t, uint64(1), got.Miner.Tick)
	assert.Equal(t, 1, got.Miner.Rocks)
}

func TestMapBeforeAndAfterPublish(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/api/v1/map?format=text", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, byte('!'), lines[0][0])
	assert.Equal(t, "LLLLL", lines[2])

	s.Sim.Step(1)
	rec = do(t, h, http.MethodGet, "/api/v1/map", "", "")
	var got struct {
		Size int      `json:"size"`
		Rows []string `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 5, got.Size)
	assert.Equal(t, byte('!'), got.Rows[0][2], "miner moved onto the rock cell")
}

func TestEventsLimit(t *testing.T) {
	s := newTestServer(t)
	s.Sim.Step(1)
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/api/v1/events?limit=1", "", "")
	var events []engine.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	assert.Len(t, events, 1)

	rec = do(t, h, http.MethodGet, "/api/v1/events?source=journal", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRunsFromJournal(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/api/v1/runs", "", "").Code)

	db, err := persistence.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer db.Close()
	id, err := db.StartRun(7, 5)
	require.NoError(t, err)
	s.DB = db
	s.RunID = id

	s.Sim.Step(1)
	require.NoError(t, db.SaveEvents(id, s.Sim.DrainPending()))

	rec := do(t, h, http.MethodGet, "/api/v1/runs", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []persistence.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)

	rec = do(t, h, http.MethodGet, "/api/v1/events?source=journal", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var events []engine.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	assert.NotEmpty(t, events)
}

func TestHaltRequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/api/v1/halt", "wrong", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/api/v1/halt", "", "").Code)
	assert.False(t, s.Sim.Beacon.Halted())

	rec := do(t, h, http.MethodPost, "/api/v1/halt", "secret", `{"reason":"maintenance"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, s.Sim.Beacon.Halted())
	assert.Equal(t, "maintenance", s.Sim.Beacon.HaltReason())

	s.AdminKey = ""
	assert.Equal(t, http.StatusForbidden, do(t, h, http.MethodPost, "/api/v1/halt", "secret", "").Code)
}

func TestHaltRejectsMalformedBody(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/halt", "secret", `{bad`).Code)
	assert.False(t, s.Sim.Beacon.Halted())

	rec := do(t, h, http.MethodPost, "/api/v1/halt", "secret", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, s.Sim.Beacon.Halted())
	assert.Equal(t, "halted by operator", s.Sim.Beacon.HaltReason())
}

func TestSpeedValidation(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/speed", "secret", `{"speed":-1}`).Code)
	rec := do(t, h, http.MethodPost, "/api/v1/speed", "secret", `{"speed":4}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4.0, s.Eng.Speed())
}

func TestSpeedChangesWhileEngineRuns(t *testing.T) {
	s := newTestServer(t)
	s.Eng.Interval = time.Millisecond
	h := s.Handler()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Eng.Run(ctx)
		close(done)
	}()
	for i := 1; i <= 20; i++ {
		rec := do(t, h, http.MethodPost, "/api/v1/speed", "secret", fmt.Sprintf(`{"speed":%d}`, i))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
	}
	assert.Equal(t, 20.0, s.Eng.Speed())

	rec := do(t, h, http.MethodGet, "/api/v1/status", "", "")
	var got struct {
		Speed float64 `json:"speed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 20.0, got.Speed)
}

func TestSnapshotFromJournal(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/api/v1/runs/run-1/snapshot", "", "").Code)

	db, err := persistence.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer db.Close()
	id, err := db.StartRun(7, 5)
	require.NoError(t, err)
	s.DB = db
	s.RunID = id

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/runs/"+id+"/snapshot", "", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodPost, "/api/v1/runs/"+id+"/snapshot", "secret", "").Code)

	require.NoError(t, db.SaveSnapshot(id, 5, s.Sim.KnownGrid()))

	rec := do(t, h, http.MethodGet, "/api/v1/runs/"+id+"/snapshot", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		RunID string   `json:"run_id"`
		Tick  uint64   `json:"tick"`
		Size  int      `json:"size"`
		Rows  []string `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, id, got.RunID)
	assert.Equal(t, uint64(5), got.Tick)
	assert.Equal(t, 5, got.Size)
	require.Len(t, got.Rows, 5)
	assert.Equal(t, "LLLLL", got.Rows[2])
	assert.NotContains(t, strings.Join(got.Rows, ""), "!", "checkpoints carry no miner")

	rec = do(t, h, http.MethodGet, "/api/v1/runs/"+id+"/snapshot?format=text", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Equal(t, got.Rows, lines)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/status", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStreamPushesStatus(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var first beacon.Status
	require.NoError(t, conn.ReadJSON(&first))
	assert.Zero(t, first.Tick)

	s.Sim.Beacon.Publish(beacon.Status{Tick: 9, State: "CollectingRocks"}, nil)
	var next beacon.Status
	require.NoError(t, conn.ReadJSON(&next))
	assert.Equal(t, uint64(9), next.Tick)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"))
	assert.Positive(t, rl.RetryAfter("1.2.3.4"))
}
