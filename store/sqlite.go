package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pthm-cable/shoal/neural"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps weights and runs in a sqlite database file.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveWeights(ctx context.Context, name string, w neural.Weights) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeWeights(w)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO weights (name, codec_version, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			codec_version = excluded.codec_version,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, name, CodecVersion, payload, time.Now().UTC().Unix())
	return err
}

func (s *SQLiteStore) LoadWeights(ctx context.Context, name string) (neural.Weights, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return neural.Weights{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM weights WHERE name = ?`, name).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return neural.Weights{}, false, nil
		}
		return neural.Weights{}, false, err
	}

	w, err := DecodeWeights(payload)
	if err != nil {
		return neural.Weights{}, false, fmt.Errorf("decode weights %s: %w", name, err)
	}
	return w, true, nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run Run) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, policy, seed, started_at, ticks, eaten, deaths, survivors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ticks = excluded.ticks,
			eaten = excluded.eaten,
			deaths = excluded.deaths,
			survivors = excluded.survivors
	`, run.ID, run.Policy, run.Seed, run.StartedAt.UTC().Unix(), run.Ticks, run.Eaten, run.Deaths, run.Survivors)
	return err
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (Run, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Run{}, false, err
	}

	var (
		run     Run
		started int64
	)
	err = db.QueryRowContext(ctx, `
		SELECT id, policy, seed, started_at, ticks, eaten, deaths, survivors
		FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &run.Policy, &run.Seed, &started, &run.Ticks, &run.Eaten, &run.Deaths, &run.Survivors)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, false, nil
		}
		return Run{}, false, err
	}
	run.StartedAt = time.Unix(started, 0).UTC()
	return run, true, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS weights (
			name TEXT PRIMARY KEY,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			policy TEXT NOT NULL,
			seed INTEGER NOT NULL,
			started_at INTEGER NOT NULL,
			ticks INTEGER NOT NULL,
			eaten INTEGER NOT NULL,
			deaths INTEGER NOT NULL,
			survivors INTEGER NOT NULL
		);
	`)
	return err
}
