// Package sqlite persists the in-memory repository state to a single SQLite
// table as JSON blobs, one bucket per entity kind. State is written on
// Checkpoint and Close rather than per mutation: the import engine
// checkpoints every 1000 rows, which bounds both replay loss and write
// amplification during bulk loads.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"limscore/internal/infra/persistence/memory"
	"limscore/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Compile-time contract assertion ensuring the store satisfies the domain
// repository interface.
var _ domain.Repository = (*Store)(nil)

// Store is a snapshotting SQLite-backed repository.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (or creates) the database at path and hydrates the
// in-memory state from any existing snapshot.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "limscore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(), db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snapshot := memory.Snapshot{Entities: map[domain.Kind][]domain.Entity{}}
	loaded := false
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan state: %w", err)
		}
		if len(payload) == 0 {
			continue
		}
		var entities []domain.Entity
		if err := json.Unmarshal(payload, &entities); err != nil {
			return fmt.Errorf("decode %s: %w", bucket, err)
		}
		snapshot.Entities[domain.Kind(bucket)] = entities
		loaded = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if loaded {
		s.ImportState(snapshot)
	}
	return nil
}

func (s *Store) persist() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	kinds := make([]string, 0, len(snapshot.Entities))
	for kind := range snapshot.Entities {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		data, err := json.Marshal(snapshot.Entities[domain.Kind(kind)])
		if err != nil {
			retErr = fmt.Errorf("encode %s: %w", kind, err)
			return retErr
		}
		if _, err := tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, kind, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", kind, err)
			return retErr
		}
	}
	return tx.Commit()
}

// Checkpoint snapshots the full state to SQLite.
func (s *Store) Checkpoint(context.Context) error {
	return s.persist()
}

// Close persists a final snapshot and closes the database.
func (s *Store) Close() error {
	if err := s.persist(); err != nil {
		_ = s.db.Close()
		return err
	}
	return s.db.Close()
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
