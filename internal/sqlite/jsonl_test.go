package sqlite

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSONLSkipsBadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.jsonl")
	content := `{"id":"a"}

not json
[1,2,3]
  {"id":"b"}
null
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := readJSONL(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.JSONEq(t, `{"id":"a"}`, string(got[0]))
	assert.JSONEq(t, `{"id":"b"}`, string(got[1]))
}

func TestReadJSONLMissingFile(t *testing.T) {
	_, err := readJSONL(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteJSONLIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"old\":true}\n"), 0o644))

	require.NoError(t, writeJSONL(path, []json.RawMessage{
		json.RawMessage(`{"id":"a"}`),
		json.RawMessage(`{"id":"b"}`),
	}))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"id\":\"a\"}\n{\"id\":\"b\"}\n", string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestRecordsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.jsonl")
	in := []map[string]any{
		{"id": "a", "exp": 1200.0, "tags": []any{"nord"}},
		{"id": "b", "active": true, "note": nil},
	}

	require.NoError(t, WriteRecords(path, in))
	out, err := ReadRecords(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
