// Package persistence provides the SQLite run journal: one row per run, the
// event log, and compressed known-map checkpoints.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nTorre/HolyCrabUI/internal/engine"
	"github.com/nTorre/HolyCrabUI/internal/world"
)

// ErrNoSnapshot is returned by LoadSnapshot when a run has no checkpoint.
var ErrNoSnapshot = errors.New("no snapshot for run")

// DB wraps a SQLite connection for the run journal.
type DB struct {
	conn *sqlx.DB
}

// Run is one row of the runs table.
type Run struct {
	ID         string `db:"id" json:"id"`
	Seed       int64  `db:"seed" json:"seed"`
	Size       int    `db:"size" json:"size"`
	StartedAt  int64  `db:"started_at" json:"started_at"`
	FinishedAt int64  `db:"finished_at" json:"finished_at"` // 0 while running
	Outcome    string `db:"outcome" json:"outcome"`
	Ticks      uint64 `db:"ticks" json:"ticks"`
	Rocks      int    `db:"rocks" json:"rocks"`
	Bridges    int    `db:"bridges" json:"bridges"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		size INTEGER NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL DEFAULT 0,
		outcome TEXT NOT NULL DEFAULT '',
		ticks INTEGER NOT NULL DEFAULT 0,
		rocks INTEGER NOT NULL DEFAULT 0,
		bridges INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		data BLOB NOT NULL,
		PRIMARY KEY (run_id, tick)
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id, tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// StartRun records a new run and returns its identifier.
func (db *DB) StartRun(seed int64, size int) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(
		"INSERT INTO runs (id, seed, size, started_at) VALUES (?, ?, ?, ?)",
		id, seed, size, time.Now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}
	if err := db.SaveMeta("last_run", id); err != nil {
		return "", fmt.Errorf("save meta: %w", err)
	}
	slog.Info("run started", "run", id, "seed", seed, "size", size)
	return id, nil
}

// FinishRun stamps the final counters and outcome on a run.
func (db *DB) FinishRun(runID, outcome string, ticks uint64, rocks, bridges int) error {
	res, err := db.conn.Exec(
		`UPDATE runs SET finished_at = ?, outcome = ?, ticks = ?, rocks = ?, bridges = ?
		WHERE id = ?`,
		time.Now().Unix(), outcome, ticks, rocks, bridges, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, sql.ErrNoRows)
	}
	return nil
}

// Runs returns up to limit runs, newest first.
func (db *DB) Runs(limit int) ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs,
		"SELECT * FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	return runs, err
}

// SaveEvents appends events for a run.
func (db *DB) SaveEvents(runID string, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex("INSERT INTO events (run_id, tick, description, category) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.Exec(runID, e.Tick, e.Description, e.Category); err != nil {
			return fmt.Errorf("insert event at tick %d: %w", e.Tick, err)
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N events of a run, newest first.
func (db *DB) RecentEvents(runID string, limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT tick, description, category FROM events WHERE run_id = ? ORDER BY id DESC LIMIT ?",
		runID, limit,
	)
	return events, err
}

// SaveSnapshot stores a compressed checkpoint of the known map. A second
// checkpoint at the same tick replaces the first.
func (db *DB) SaveSnapshot(runID string, tick uint64, g *world.Grid) error {
	data, err := encodeGrid(g)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = db.conn.Exec(
		"INSERT OR REPLACE INTO snapshots (run_id, tick, data) VALUES (?, ?, ?)",
		runID, tick, data,
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	slog.Debug("snapshot saved", "run", runID, "tick", tick, "bytes", len(data))
	return nil
}

// LoadSnapshot returns the latest checkpoint of a run.
func (db *DB) LoadSnapshot(runID string) (uint64, *world.Grid, error) {
	var row struct {
		Tick uint64 `db:"tick"`
		Data []byte `db:"data"`
	}
	err := db.conn.Get(&row,
		"SELECT tick, data FROM snapshots WHERE run_id = ? ORDER BY tick DESC LIMIT 1",
		runID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil, fmt.Errorf("%s: %w", runID, ErrNoSnapshot)
	}
	if err != nil {
		return 0, nil, fmt.Errorf("load snapshot: %w", err)
	}
	g, err := decodeGrid(row.Data)
	if err != nil {
		return 0, nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return row.Tick, g, nil
}

// SaveMeta stores a key-value pair.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	return value, err
}
