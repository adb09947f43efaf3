package eventstore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	build_id TEXT NOT NULL,
	event_type TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	payload BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_build_id ON events(build_id);
CREATE INDEX IF NOT EXISTS idx_timestamp ON events(timestamp);
`

const selectEvents = "SELECT id, build_id, event_type, timestamp, payload FROM events"

// SQLiteStore implements Store on a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens or creates the history database at dbPath. ":memory:"
// gives a private in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStore, ErrDatabaseOpenFailed.Message()).
			WithContext("path", dbPath).
			Build()
	}
	// A second connection to ":memory:" would see a different database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.StoreError("failed to initialize event store schema").
			WithCause(err).
			WithContext("path", dbPath).
			Build()
	}
	return &SQLiteStore{db: db}, nil
}

// Append stores an event stamped with the current time.
func (s *SQLiteStore) Append(ctx context.Context, buildID, eventType string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (build_id, event_type, timestamp, payload) VALUES (?, ?, ?, ?)",
		buildID, eventType, time.Now().UnixMilli(), payload,
	)
	if err != nil {
		return errors.WrapError(err, errors.CategoryStore, ErrEventAppendFailed.Message()).
			WithContext("build_id", buildID).
			WithContext("event_type", eventType).
			Build()
	}
	return nil
}

// GetByBuildID returns the events of one build in append order.
func (s *SQLiteStore) GetByBuildID(ctx context.Context, buildID string) ([]Event, error) {
	return s.query(ctx, selectEvents+" WHERE build_id = ? ORDER BY id", buildID)
}

// GetRange returns the events stamped within [start, end] in append order.
func (s *SQLiteStore) GetRange(ctx context.Context, start, end time.Time) ([]Event, error) {
	return s.query(ctx, selectEvents+" WHERE timestamp >= ? AND timestamp <= ? ORDER BY id",
		start.UnixMilli(), end.UnixMilli())
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStore, ErrEventQueryFailed.Message()).Build()
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			r  Record
			ms int64
		)
		if err := rows.Scan(&r.Seq, &r.Build, &r.Kind, &ms, &r.Body); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		r.At = time.UnixMilli(ms)
		events = append(events, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return events, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
