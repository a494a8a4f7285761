package parser

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/penwyp/go-project-history/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = `{
  "entries": [
    {"timestamp": 1000, "editorVersion": "v1", "diff": [{"op":"set","path":"main.ts","content":"a"}]},
    {"timestamp": 2000, "editorVersion": "v2", "diff": [{"op":"set","path":"main.ts","content":"b"}]}
  ],
  "snapshots": [
    {"timestamp": 1500, "editorVersion": "v1", "text": {"main.ts": "snap", "pxt.json": "{}"}}
  ],
  "shares": [
    {"timestamp": 2500, "id": "_abc123"}
  ]
}`

func assertSampleLog(t *testing.T, log model.HistoryLog) {
	t.Helper()
	require.Len(t, log.Entries, 2)
	assert.Equal(t, int64(1000), log.Entries[0].Timestamp)
	assert.Equal(t, "v2", log.Entries[1].EditorVersion)
	assert.Contains(t, string(log.Entries[1].Diff), `"content":"b"`)
	require.Len(t, log.Snapshots, 1)
	assert.Equal(t, "snap", log.Snapshots[0].Text["main.ts"])
	require.Len(t, log.Shares, 1)
	assert.Equal(t, "_abc123", log.Shares[0].ID)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"history.json", FormatJSON},
		{"history.JSON", FormatJSON},
		{"history.json.zst", FormatZstdJSON},
		{"history.db", FormatSQLite},
		{"history.sqlite3", FormatSQLite},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}

	_, err := DetectFormat("history.txt")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestParserParseJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleLog), 0644))

	log, err := NewParser().ParseFile(path)
	require.NoError(t, err)
	assertSampleLog(t, log)
}

func TestParserParseZstd(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressed := enc.EncodeAll([]byte(sampleLog), nil)
	require.NoError(t, enc.Close())

	path := filepath.Join(t.TempDir(), "history.json.zst")
	require.NoError(t, os.WriteFile(path, compressed, 0644))

	log, err := NewParser().ParseFile(path)
	require.NoError(t, err)
	assertSampleLog(t, log)
}

func TestParserParseSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(Schema)
	require.NoError(t, err)

	// Inserted out of order; the reader sorts by timestamp.
	_, err = db.Exec(`INSERT INTO entries (timestamp, editor_version, diff) VALUES
		(2000, 'v2', '[{"op":"set","path":"main.ts","content":"b"}]'),
		(1000, 'v1', '[{"op":"set","path":"main.ts","content":"a"}]')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO snapshots (timestamp, editor_version, text) VALUES
		(1500, 'v1', '{"main.ts":"snap","pxt.json":"{}"}')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO shares (timestamp, id) VALUES (2500, '_abc123')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	log, err := NewParser().ParseFile(path)
	require.NoError(t, err)
	assertSampleLog(t, log)
}

func TestParserSQLiteMissingTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.sqlite")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE shares (timestamp INTEGER NOT NULL, id TEXT NOT NULL)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	log, err := NewParser().ParseFile(path)
	require.NoError(t, err)
	assert.True(t, log.IsEmpty())
}

func TestParserRejectsUnorderedEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	content := `{"entries":[{"timestamp":2000,"diff":[]},{"timestamp":1000,"diff":[]}]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := NewParser().ParseFile(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrUnorderedEntries))
}

func TestParserInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewParser().ParseFile(path)
	assert.Error(t, err)
}

func TestParserNonExistentFile(t *testing.T) {
	_, err := NewParser().ParseFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestParserCacheInvalidatedOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"shares":[{"timestamp":1,"id":"a"}]}`), 0644))

	p := NewParser()
	first, err := p.ParseFile(path)
	require.NoError(t, err)
	require.Len(t, first.Shares, 1)

	require.NoError(t, os.WriteFile(path, []byte(`{"shares":[{"timestamp":1,"id":"a"},{"timestamp":2,"id":"b"}]}`), 0644))
	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, later, later))

	second, err := p.ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, second.Shares, 2)

	p.Forget(path)
	assert.Empty(t, p.cache)
}
