// Package sqlite implements a DataService over SQLite. Records are free-form
// JSON objects kept in records.jsonl, which is the source of truth; SQLite
// is rebuilt from it on Attach and serves filtered, sorted, paged queries.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/gridline/pkg/types"
)

// dbFile is the query cache in DataDir.
const dbFile = "gridline.db"

var _ types.DataService = (*Store)(nil)

// Store is a DataService backed by SQLite and a JSONL data file.
type Store struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	log      *slog.Logger
}

// NewStore creates a detached store. Call Attach before use.
func NewStore() *Store {
	return &Store{log: slog.Default()}
}

// SetLogger replaces the store's logger.
func (s *Store) SetLogger(l *slog.Logger) {
	if l != nil {
		s.log = l
	}
}

// Attach opens the store in config.DataDir, creating the directory and an
// empty data file when missing, and loads the data file into a fresh
// database.
func (s *Store) Attach(config types.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	config.DataDir = dataDir

	dbPath := filepath.Join(dataDir, dbFile)
	// The database only caches the data file, so it is always rebuilt.
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1)
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	dataPath := filepath.Join(dataDir, recordsJSONL)
	if err := initJSONL(dataPath); err != nil {
		db.Close()
		return err
	}
	n, err := loadJSONL(db, dataPath, config.GetKeyField())
	if err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	s.db = db
	s.config = config
	s.attached = true
	s.log.Debug("store attached", "data_dir", dataDir, "records", n)
	return nil
}

// Detach closes the database. Detach is idempotent.
func (s *Store) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return err
	}
	s.db = nil
	s.attached = false
	return nil
}

// Attached reports whether the store is open.
func (s *Store) Attached() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attached
}

// KeyField returns the record field holding each record's ID.
func (s *Store) KeyField() string {
	return s.config.GetKeyField()
}

func initJSONL(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking %s: %w", path, err)
	}
	if err := writeJSONL(path, nil); err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	return nil
}

// persistLocked rewrites the data file from the database. The caller must
// hold s.mu.
func (s *Store) persistLocked(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, "SELECT body FROM records ORDER BY position")
	if err != nil {
		return fmt.Errorf("reading records for persist: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return fmt.Errorf("scanning record: %w", err)
		}
		records = append(records, json.RawMessage(body))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating records: %w", err)
	}
	return writeJSONL(filepath.Join(s.config.DataDir, recordsJSONL), records)
}

// generateID returns a new UUID v7 record ID.
func generateID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating UUID v7: %w", err)
	}
	return id.String(), nil
}
