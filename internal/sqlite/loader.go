package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// loadJSONL inserts every record of the data file into the records table
// in one transaction: all load or the table stays empty. Records without a
// key get one, and a repeated key keeps the last record.
func loadJSONL(db *sql.DB, path, keyField string) (int, error) {
	records, err := readJSONL(path)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	n, err := insertRecords(tx, records, keyField, 0)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing load transaction: %w", err)
	}
	return n, nil
}

// insertRecords upserts records starting at position first and returns how
// many were written.
func insertRecords(tx *sql.Tx, records []json.RawMessage, keyField string, first int) (int, error) {
	stmt, err := tx.Prepare(`INSERT INTO records (record_id, position, body) VALUES (?, ?, ?)
ON CONFLICT(record_id) DO UPDATE SET body = excluded.body`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, raw := range records {
		rec, err := decodeRecord(raw)
		if err != nil {
			continue
		}
		id, body, err := keyed(rec, keyField)
		if err != nil {
			return n, err
		}
		if _, err := stmt.Exec(id, first+n, body); err != nil {
			return n, fmt.Errorf("inserting record %s: %w", id, err)
		}
		n++
	}
	return n, nil
}

// keyed returns the record's ID, assigning a new one when the key field is
// missing or blank, and the record encoded for storage.
func keyed(rec map[string]any, keyField string) (string, string, error) {
	id, ok := recordID(rec, keyField)
	if !ok {
		var err error
		if id, err = generateID(); err != nil {
			return "", "", err
		}
		rec[keyField] = id
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return "", "", fmt.Errorf("encoding record %s: %w", id, err)
	}
	return id, string(body), nil
}
