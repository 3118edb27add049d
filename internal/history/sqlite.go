package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/docpublish/internal/foundation/errors"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// NewSQLiteStore opens (and creates) the database at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, historyError(err, "create history directory")
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, historyError(err, "open sqlite database")
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, now: time.Now}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, historyError(err, "initialize schema")
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		payload BLOB NOT NULL,
		metadata TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_run_id ON events(run_id);
	CREATE INDEX IF NOT EXISTS idx_timestamp ON events(timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Append(ctx context.Context, runID string, eventType EventType, payload any, metadata map[string]string) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return historyError(err, "marshal payload")
	}
	var metadataJSON []byte
	if metadata != nil {
		if metadataJSON, err = json.Marshal(metadata); err != nil {
			return historyError(err, "marshal metadata")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO events (run_id, event_type, timestamp, payload, metadata) VALUES (?, ?, ?, ?, ?)",
		runID, string(eventType), s.now().UnixMilli(), data, metadataJSON,
	)
	if err != nil {
		return historyError(err, "insert event")
	}
	return nil
}

func (s *SQLiteStore) ByRun(ctx context.Context, runID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, run_id, event_type, timestamp, payload, metadata FROM events WHERE run_id = ? ORDER BY id",
		runID,
	)
	if err != nil {
		return nil, historyError(err, "query events")
	}
	defer func() { _ = rows.Close() }()
	return scanEvents(rows)
}

func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	s.mu.RLock()
	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id FROM events GROUP BY run_id ORDER BY MAX(id) DESC LIMIT ?", limit)
	if err != nil {
		s.mu.RUnlock()
		return nil, historyError(err, "query runs")
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			s.mu.RUnlock()
			return nil, historyError(err, "scan run id")
		}
		ids = append(ids, id)
	}
	err = rows.Err()
	_ = rows.Close()
	s.mu.RUnlock()
	if err != nil {
		return nil, historyError(err, "iterate runs")
	}

	summaries := make([]RunSummary, 0, len(ids))
	for _, id := range ids {
		events, err := s.ByRun(ctx, id)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, Summarize(id, events))
	}
	return summaries, nil
}

func (s *SQLiteStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM events WHERE run_id IN (
			SELECT run_id FROM events GROUP BY run_id HAVING MAX(timestamp) < ?
		)`, cutoff.UnixMilli())
	if err != nil {
		return 0, historyError(err, "prune events")
	}
	return res.RowsAffected()
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var e Event
		var ts int64
		var eventType string
		var payload, metadataJSON []byte
		if err := rows.Scan(&e.ID, &e.RunID, &eventType, &ts, &payload, &metadataJSON); err != nil {
			return nil, historyError(err, "scan event")
		}
		e.Type = EventType(eventType)
		e.Timestamp = time.UnixMilli(ts)
		e.Payload = json.RawMessage(payload)
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &e.Metadata); err != nil {
				return nil, historyError(err, "unmarshal metadata")
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, historyError(err, "iterate rows")
	}
	return events, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func historyError(err error, msg string) error {
	return errors.WrapError(err, errors.CategoryHistory, msg).Build()
}
