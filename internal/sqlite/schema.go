package sqlite

// The database is a query cache over records.jsonl. Each record is stored
// whole as JSON in body; filters and sorts reach into it with json_extract.
// position keeps the order records were imported or created in and breaks
// sort ties, so paging is deterministic.
const (
	createRecords = `CREATE TABLE records (
    record_id TEXT PRIMARY KEY,
    position INTEGER NOT NULL,
    body TEXT NOT NULL
);`

	idxRecordsPosition = `CREATE INDEX idx_records_position ON records(position);`
)

var schemaStatements = []string{
	createRecords,
	idxRecordsPosition,
}
