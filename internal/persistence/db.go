// Package persistence provides SQLite-based game state storage. Saves are
// zstd-compressed JSON snapshots; notable events are appended to their own
// table so they survive snapshot pruning.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// KeepSnapshots is how many saves are retained.
const KeepSnapshots = 10

// ErrNoSnapshot is returned when the database holds no save yet.
var ErrNoSnapshot = errors.New("no saved snapshot")

// DB wraps a SQLite connection for game state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(1)

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
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		version INTEGER NOT NULL,
		saved_at TEXT NOT NULL,
		game_minutes REAL NOT NULL,
		data BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		game_minutes REAL NOT NULL,
		category TEXT NOT NULL,
		kind TEXT NOT NULL,
		description TEXT NOT NULL,
		amount REAL NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_minutes ON events(game_minutes);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// snapshotRow is one stored save.
type snapshotRow struct {
	ID          int64   `db:"id"`
	Version     int     `db:"version"`
	SavedAt     string  `db:"saved_at"`
	GameMinutes float64 `db:"game_minutes"`
	Data        []byte  `db:"data"`
}

// SaveSnapshot compresses and stores snap, pruning old saves.
func (db *DB) SaveSnapshot(snap Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		"INSERT INTO snapshots (version, saved_at, game_minutes, data) VALUES (?, ?, ?, ?)",
		snap.Version, snap.SavedAt.UTC().Format(time.RFC3339Nano), snap.GameMinutes, data,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	_, err = tx.Exec(
		"DELETE FROM snapshots WHERE id NOT IN (SELECT id FROM snapshots ORDER BY id DESC LIMIT ?)",
		KeepSnapshots,
	)
	if err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Debug("snapshot stored", "bytes", len(data), "game_minutes", snap.GameMinutes)
	return nil
}

// LatestSnapshot returns the decompressed JSON of the newest save.
func (db *DB) LatestSnapshot() ([]byte, error) {
	var row snapshotRow
	err := db.conn.Get(&row, "SELECT id, version, saved_at, game_minutes, data FROM snapshots ORDER BY id DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("select snapshot: %w", err)
	}
	raw, err := decompress(row.Data)
	if err != nil {
		return nil, fmt.Errorf("snapshot %d: %w", row.ID, err)
	}
	return raw, nil
}

// SnapshotCount returns the number of retained saves.
func (db *DB) SnapshotCount() (int, error) {
	var n int
	err := db.conn.Get(&n, "SELECT COUNT(*) FROM snapshots")
	return n, err
}

// EventRecord is a persisted notable event.
type EventRecord struct {
	ID          int64   `db:"id" json:"id"`
	GameMinutes float64 `db:"game_minutes" json:"game_minutes"`
	Category    string  `db:"category" json:"category"`
	Kind        string  `db:"kind" json:"kind"`
	Description string  `db:"description" json:"description"`
	Amount      float64 `db:"amount" json:"amount"`
}

// SaveEvents appends events to the database.
func (db *DB) SaveEvents(events []EventRecord) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.NamedExec(
			`INSERT INTO events (game_minutes, category, kind, description, amount)
			VALUES (:game_minutes, :category, :kind, :description, :amount)`,
			e,
		)
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]EventRecord, error) {
	var events []EventRecord
	err := db.conn.Select(&events,
		"SELECT id, game_minutes, category, kind, description, amount FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	return events, err
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
