package fixtures

import (
	"testing"
	"time"

	"github.com/penwyp/go-project-history/internal/core/history"
	"github.com/penwyp/go-project-history/internal/core/model"
	"github.com/penwyp/go-project-history/internal/data/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryGenerator_WalksBackToEverySave(t *testing.T) {
	base := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	live := model.ProjectFileSet{"main.ts": "let x = 3", "extra.ts": "new"}
	states := []model.ProjectFileSet{
		{"main.ts": "let x = 1", "old.ts": "gone later"},
		{"main.ts": "let x = 2"},
	}

	g := NewHistoryGenerator(t.TempDir(), live).
		Save(base.Add(time.Minute), "v2", states[1]).
		Save(base, "v1", states[0])
	log, err := g.Build()
	require.NoError(t, err)
	require.NoError(t, log.Validate())
	require.Len(t, log.Entries, 2)

	walker := history.NewWalker(history.NewPatchApplier())
	for i, entry := range log.Entries {
		project, err := walker.Reconstruct(live, log.Entries, entry.Timestamp)
		require.NoError(t, err)
		assert.Equal(t, states[i], project.Files)
	}
}

func TestHistoryGenerator_WritesReadableLogs(t *testing.T) {
	at := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	g := NewHistoryGenerator(t.TempDir(), model.ProjectFileSet{"src/main.ts": "b"}).
		Save(at, "v1", model.ProjectFileSet{"src/main.ts": "a"}).
		Snapshot(at.Add(time.Minute), "v1", model.ProjectFileSet{"src/main.ts": "snap"}).
		Share(at.Add(2*time.Minute), "S1")

	jsonPath, err := g.WriteJSON("history.json")
	require.NoError(t, err)
	zstdPath, err := g.WriteZstd("history.json.zst")
	require.NoError(t, err)

	p := parser.NewParser()
	for _, path := range []string{jsonPath, zstdPath} {
		log, err := p.ParseFile(path)
		require.NoError(t, err, path)
		assert.Len(t, log.Entries, 1)
		assert.Len(t, log.Snapshots, 1)
		assert.Equal(t, []model.ShareEntry{{Timestamp: at.Add(2 * time.Minute).UnixMilli(), ID: "S1"}}, log.Shares)
	}

	dir, err := g.WriteProject("project")
	require.NoError(t, err)
	assert.FileExists(t, dir+"/src/main.ts")
}
