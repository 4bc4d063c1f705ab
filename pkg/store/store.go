// Package store persists the three application-state records (view settings,
// tracked cities, candidates) in a small key-value table backed by SQLite.
// Each record degrades independently: a corrupt or absent value yields that
// record's default without touching the others.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/timegrid-dev/timegrid/pkg/civiltime"
	"github.com/timegrid-dev/timegrid/pkg/schedule"
)

// Record keys. Each is read at startup and rewritten after every mutation
// of its record.
const (
	KeySettings   = "settings"
	KeyCities     = "cities"
	KeyCandidates = "candidates"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Store is the key-value persistence layer.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the store at path. ":memory:" works for
// tests.
func Open(path string, logger *slog.Logger) (*Store, error) {
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening state database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to state database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	const stmt = `CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at TEXT NOT NULL
	)`
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("initializing state schema: %w", err)
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Get reads a raw record. Absent keys report ok=false with no error.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, ErrClosed
	}
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %q: %w", key, err)
	}
	return value, true, nil
}

// Set writes a raw record.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("writing %q: %w", key, err)
	}
	return nil
}

// Delete removes a record. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting %q: %w", key, err)
	}
	return nil
}

// LoadState assembles application state from the three records, defaulting
// each one independently when missing or corrupt.
func (s *Store) LoadState(ctx context.Context, today civiltime.CivilDate) *schedule.State {
	state := schedule.NewState(today)

	var settings schedule.ViewSettings
	if s.loadJSON(ctx, KeySettings, &settings) {
		state.Settings = settings
	}
	var cities []schedule.TrackedCity
	if s.loadJSON(ctx, KeyCities, &cities) {
		state.Cities = cities
	}
	var candidates []schedule.Candidate
	if s.loadJSON(ctx, KeyCandidates, &candidates) && len(candidates) > 0 {
		state.Candidates = candidates
	}

	state.Normalize(today)
	return state
}

// SaveState rewrites all three records. Individual saves are available for
// callers that know which record changed.
func (s *Store) SaveState(ctx context.Context, state *schedule.State) error {
	if err := s.SaveSettings(ctx, state); err != nil {
		return err
	}
	if err := s.SaveCities(ctx, state); err != nil {
		return err
	}
	return s.SaveCandidates(ctx, state)
}

// SaveSettings persists the view settings record.
func (s *Store) SaveSettings(ctx context.Context, state *schedule.State) error {
	return s.saveJSON(ctx, KeySettings, state.Settings)
}

// SaveCities persists the tracked-city record.
func (s *Store) SaveCities(ctx context.Context, state *schedule.State) error {
	return s.saveJSON(ctx, KeyCities, state.Cities)
}

// SaveCandidates persists the candidate record.
func (s *Store) SaveCandidates(ctx context.Context, state *schedule.State) error {
	return s.saveJSON(ctx, KeyCandidates, state.Candidates)
}

func (s *Store) loadJSON(ctx context.Context, key string, v any) bool {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		if err != nil {
			s.logger.Warn("state record unreadable, using default", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		s.logger.Warn("state record corrupt, using default", "key", key, "error", err)
		return false
	}
	return true
}

func (s *Store) saveJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}
