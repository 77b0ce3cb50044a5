// Package sqlite exposes the SQLite-backed DataService while keeping its
// implementation internal.
package sqlite

import (
	"github.com/mesh-intelligence/gridline/internal/sqlite"
	"github.com/mesh-intelligence/gridline/pkg/types"
)

// Store is a DataService over a records.jsonl file with a SQLite query
// cache.
type Store = sqlite.Store

// NewStore creates a detached store. Call Attach with a Config to open it.
//
//	store := sqlite.NewStore()
//	err := store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".gridline-db",
//	})
//	defer store.Detach()
func NewStore() *Store {
	return sqlite.NewStore()
}

// Open creates a store and attaches it with config.
func Open(config types.Config) (*Store, error) {
	s := sqlite.NewStore()
	if err := s.Attach(config); err != nil {
		return nil, err
	}
	return s, nil
}

// ReadRecords decodes every JSON object line of a JSONL file. Lines that are
// not objects are skipped.
func ReadRecords(path string) ([]map[string]any, error) {
	return sqlite.ReadRecords(path)
}

// WriteRecords atomically replaces path with records as JSONL.
func WriteRecords(path string, records []map[string]any) error {
	return sqlite.WriteRecords(path, records)
}
