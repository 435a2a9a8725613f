// Tests for JSONL read/write helpers.
package sqlite

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSONLSkipsEmptyAndMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.jsonl")
	content := `{"key": "one"}

garbage line
{"key": "two"}
{broken json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	records, err := readJSONL(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.JSONEq(t, `{"key": "one"}`, string(records[0]))
	assert.JSONEq(t, `{"key": "two"}`, string(records[1]))
}

func TestReadJSONLMissingFile(t *testing.T) {
	_, err := readJSONL(filepath.Join(t.TempDir(), "absent.jsonl"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestWriteJSONLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.jsonl")
	in := []json.RawMessage{
		json.RawMessage(`{"key":"one"}`),
		json.RawMessage(`{"key":"two"}`),
	}
	require.NoError(t, writeJSONL(path, in))

	out, err := readJSONL(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestWriteJSONLEmptyProducesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.jsonl")
	require.NoError(t, writeJSONL(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestWriteJSONLReplacesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.jsonl")
	require.NoError(t, writeJSONL(path, []json.RawMessage{json.RawMessage(`{"key":"old"}`)}))
	require.NoError(t, writeJSONL(path, []json.RawMessage{json.RawMessage(`{"key":"new"}`)}))

	records, err := readJSONL(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.JSONEq(t, `{"key":"new"}`, string(records[0]))

	// The temp file from the atomic write never survives.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "records.jsonl", entries[0].Name())
}
