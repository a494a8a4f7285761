package rewind

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-project-history/internal/core/model"
	"github.com/penwyp/go-project-history/internal/presentation/preview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	historyFile string
	projectDir  string
	config      *RewindConfig
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	root := t.TempDir()
	log, live := fixtureLog(t)

	f := &sessionFixture{
		historyFile: filepath.Join(root, "history.json"),
		projectDir:  filepath.Join(root, "project"),
	}
	f.writeLog(t, log)
	for path, content := range live {
		full := filepath.Join(f.projectDir, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}

	f.config = &RewindConfig{
		HistoryFile:   f.historyFile,
		ProjectDir:    f.projectDir,
		Timezone:      "UTC",
		WatchDebounce: 20 * time.Millisecond,
	}
	return f
}

func (f *sessionFixture) writeLog(t *testing.T, log model.HistoryLog) {
	t.Helper()
	data, err := sonic.Marshal(log)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(f.historyFile, data, 0644))
}

func (f *sessionFixture) open(t *testing.T, surface preview.Surface) *Session {
	t.Helper()
	s, err := NewSession(context.Background(), f.config, SessionOptions{
		Fetcher: &fakeFetcher{fail: map[string]bool{}},
		Surface: surface,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewSessionLoadsHistory(t *testing.T) {
	f := newSessionFixture(t)
	s := f.open(t, nil)

	buckets := s.Coordinator().Timeline()
	require.Len(t, buckets, 2, "today's Now bucket plus the fixture day")
	assert.Equal(t, "Monday, January 1, 2024", buckets[1].Label)

	copied, err := s.Coordinator().SaveCopy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "resultC", copied.Files["main.ts"])
}

func TestNewSessionErrors(t *testing.T) {
	f := newSessionFixture(t)

	cfg := *f.config
	cfg.HistoryFile = filepath.Join(t.TempDir(), "missing.json")
	_, err := NewSession(context.Background(), &cfg, SessionOptions{})
	assert.Error(t, err)

	cfg = *f.config
	cfg.Include = []string{"[bad"}
	_, err = NewSession(context.Background(), &cfg, SessionOptions{})
	assert.Error(t, err)

	_, err = NewSession(context.Background(), &RewindConfig{}, SessionOptions{})
	assert.Error(t, err)
}

func TestSessionRestoreWritesProject(t *testing.T) {
	f := newSessionFixture(t)
	surface := &recordingSurface{}
	s := f.open(t, surface)
	ctx := context.Background()

	require.NoError(t, s.Coordinator().SelectEntry(ctx, diffEntry(t2)))
	s.Coordinator().Wait()

	project, err := s.Coordinator().Restore(ctx)
	require.NoError(t, err)
	require.NoError(t, s.WriteRestore(ctx, project))

	data, err := os.ReadFile(filepath.Join(f.projectDir, "main.ts"))
	require.NoError(t, err)
	assert.Equal(t, "resultB", string(data))

	live, err := s.Coordinator().SaveCopy(ctx)
	require.NoError(t, err)
	assert.Equal(t, "resultB", live.Files["main.ts"], "restored state is the new live state")
	assert.True(t, s.Coordinator().Selection().IsNow())
	s.Coordinator().Wait()
}

func TestSessionWriteCopy(t *testing.T) {
	f := newSessionFixture(t)
	s := f.open(t, nil)

	project, err := s.Coordinator().Reconstruct(context.Background(), diffEntry(t1))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "copy")
	require.NoError(t, s.WriteCopy(project, out))

	data, err := os.ReadFile(filepath.Join(out, "main.ts"))
	require.NoError(t, err)
	assert.Equal(t, "resultA", string(data))

	original, err := os.ReadFile(filepath.Join(f.projectDir, "main.ts"))
	require.NoError(t, err)
	assert.Equal(t, "resultC", string(original))
}

func TestSessionWriteCopyKeepsExistingFiles(t *testing.T) {
	f := newSessionFixture(t)
	s := f.open(t, nil)

	project, err := s.Coordinator().SaveCopy(context.Background())
	require.NoError(t, err)

	out := t.TempDir()
	notes := filepath.Join(out, "my-notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("keep me"), 0644))

	err = s.WriteCopy(project, out)
	assert.ErrorIs(t, err, ErrCopyTargetNotEmpty)

	data, err := os.ReadFile(notes)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(data))
	assert.NoFileExists(t, filepath.Join(out, "main.ts"))

	empty := t.TempDir()
	require.NoError(t, s.WriteCopy(project, empty), "an existing empty directory is accepted")
	assert.FileExists(t, filepath.Join(empty, "main.ts"))
}

func TestSessionWatchReloads(t *testing.T) {
	f := newSessionFixture(t)
	s := f.open(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Watch(ctx))

	today := time.Now().UnixMilli()
	f.writeLog(t, model.HistoryLog{Shares: []model.ShareEntry{{Timestamp: today, ID: "_fresh"}}})

	assert.Eventually(t, func() bool {
		buckets := s.Coordinator().Timeline()
		return len(buckets) == 1 && len(buckets[0].Entries) == 2
	}, 5*time.Second, 20*time.Millisecond)
}
