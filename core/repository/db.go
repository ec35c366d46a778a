package repository

import (
	"database/sql"

	_ "github.com/lib/pq"
)

// DB wraps the shared database handle
type DB struct {
	*sql.DB
}

// NewDB opens a Postgres connection and verifies it
func NewDB(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{db}, nil
}

// EnsureSchema creates the event history table if it does not exist
func (db *DB) EnsureSchema() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS recording_events (
			id UUID PRIMARY KEY,
			meeting_id TEXT NOT NULL,
			at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			from_status TEXT,
			to_status TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS recording_events_meeting_idx
			ON recording_events (meeting_id, at DESC);
	`)
	return err
}
