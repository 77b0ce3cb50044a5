package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	"github.com/mesh-intelligence/gridline/internal/values"
	"github.com/mesh-intelligence/gridline/pkg/types"
)

// recordID returns the record's ID as stored: the key field rendered as a
// string. ok is false when the field is missing or blank.
func recordID(rec map[string]any, keyField string) (string, bool) {
	v, ok := rec[keyField]
	if !ok || values.IsEmpty(v) {
		return "", false
	}
	return values.String(v), true
}

// Create stores item as a new record, assigning a UUID v7 key when it has
// none. A key that is already taken fails with ErrInvalidID.
func (s *Store) Create(ctx context.Context, item map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return nil, types.ErrStoreDetached
	}

	rec := maps.Clone(item)
	if rec == nil {
		rec = make(map[string]any)
	}
	keyField := s.config.GetKeyField()
	id, body, err := keyed(rec, keyField)
	if err != nil {
		return nil, err
	}

	err = withRetry(ctx, func(ctx context.Context) error {
		var exists bool
		err := s.db.QueryRowContext(ctx, "SELECT 1 FROM records WHERE record_id = ?", id).Scan(&exists)
		if err == nil {
			return fmt.Errorf("record %s exists: %w", id, types.ErrInvalidID)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking record existence: %w", err)
		}
		_, err = s.db.ExecContext(ctx,
			"INSERT INTO records (record_id, position, body) VALUES (?, (SELECT COALESCE(MAX(position), -1) + 1 FROM records), ?)",
			id, body,
		)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating record: %w", err)
	}
	if err := s.persistLocked(ctx); err != nil {
		return nil, fmt.Errorf("persisting %s: %w", recordsJSONL, err)
	}
	s.log.Info("record created", "id", id)
	return rec, nil
}

// Update replaces the stored record with item. The key field must name an
// existing record.
func (s *Store) Update(ctx context.Context, item map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return nil, types.ErrStoreDetached
	}

	id, ok := recordID(item, s.config.GetKeyField())
	if !ok {
		return nil, types.ErrInvalidID
	}
	body, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}

	err = withRetry(ctx, func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, "UPDATE records SET body = ? WHERE record_id = ?", string(body), id)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return types.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("updating record %s: %w", id, err)
	}
	if err := s.persistLocked(ctx); err != nil {
		return nil, fmt.Errorf("persisting %s: %w", recordsJSONL, err)
	}
	s.log.Info("record updated", "id", id)
	return decodeRecord(body)
}

// Delete removes the record named by item's key field.
func (s *Store) Delete(ctx context.Context, item map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return types.ErrStoreDetached
	}

	id, ok := recordID(item, s.config.GetKeyField())
	if !ok {
		return types.ErrInvalidID
	}
	err := withRetry(ctx, func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE record_id = ?", id)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return types.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting record %s: %w", id, err)
	}
	if err := s.persistLocked(ctx); err != nil {
		return fmt.Errorf("persisting %s: %w", recordsJSONL, err)
	}
	s.log.Info("record deleted", "id", id)
	return nil
}

// Refresh returns the stored version of the record named by item's key
// field.
func (s *Store) Refresh(ctx context.Context, item map[string]any) (map[string]any, error) {
	id, ok := recordID(item, s.KeyField())
	if !ok {
		return nil, types.ErrInvalidID
	}
	return s.Get(ctx, id)
}

// Get returns the record with the given ID.
func (s *Store) Get(ctx context.Context, id string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return nil, types.ErrStoreDetached
	}
	if id == "" {
		return nil, types.ErrInvalidID
	}

	var body string
	err := s.db.QueryRowContext(ctx, "SELECT body FROM records WHERE record_id = ?", id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting record %s: %w", id, err)
	}
	return decodeRecord([]byte(body))
}

// Import replaces every record with records, in order. Records without a
// key get one.
func (s *Store) Import(ctx context.Context, records []map[string]any) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return 0, types.ErrStoreDetached
	}

	raw := make([]json.RawMessage, 0, len(records))
	for i, rec := range records {
		b, err := json.Marshal(rec)
		if err != nil {
			return 0, fmt.Errorf("encoding record %d: %w", i, err)
		}
		raw = append(raw, b)
	}

	var n int
	err := withRetry(ctx, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()
		if _, err := tx.ExecContext(ctx, "DELETE FROM records"); err != nil {
			return err
		}
		if n, err = insertRecords(tx, raw, s.config.GetKeyField(), 0); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, fmt.Errorf("importing records: %w", err)
	}
	if err := s.persistLocked(ctx); err != nil {
		return 0, fmt.Errorf("persisting %s: %w", recordsJSONL, err)
	}
	s.log.Info("records imported", "count", n)
	return n, nil
}

// Records returns every record in stored order.
func (s *Store) Records(ctx context.Context) ([]map[string]any, error) {
	res, err := s.LoadItems(ctx, types.Query{})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}
