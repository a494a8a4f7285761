package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/penwyp/go-project-history/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func TestNewFileScannerRejectsBadPattern(t *testing.T) {
	_, err := NewFileScanner(t.TempDir(), []string{"[unclosed"}, nil)
	assert.Error(t, err)
}

func TestFileScannerScan(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"main.ts":             "let x = 1",
		"pxt.json":            "{}",
		"lib/util.ts":         "export {}",
		"built/binary.hex":    "ignored",
		"node_modules/a/b.js": "ignored",
		"assets/readme.md":    "docs",
	})

	s, err := NewFileScanner(dir, nil, DefaultExcludes)
	require.NoError(t, err)

	files, err := s.Scan()
	require.NoError(t, err)
	assert.Equal(t, []string{"assets/readme.md", "lib/util.ts", "main.ts", "pxt.json"}, files.Paths())
	assert.Equal(t, "let x = 1", files["main.ts"])
}

func TestFileScannerIncludes(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"main.ts":          "a",
		"pxt.json":         "{}",
		"lib/deep/util.ts": "b",
		"notes.txt":        "c",
	})

	s, err := NewFileScanner(dir, []string{"**/*.ts", "pxt.json"}, nil)
	require.NoError(t, err)

	files, err := s.Scan()
	require.NoError(t, err)
	assert.Equal(t, []string{"lib/deep/util.ts", "main.ts", "pxt.json"}, files.Paths())
}

func TestFileScannerMissingDirectory(t *testing.T) {
	s, err := NewFileScanner(filepath.Join(t.TempDir(), "missing"), nil, nil)
	require.NoError(t, err)

	_, err = s.Scan()
	assert.Error(t, err)
}

func TestWriteProject(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileScanner(dir, nil, DefaultExcludes)
	require.NoError(t, err)

	files := model.ProjectFileSet{"main.ts": "v1", "lib/util.ts": "u"}
	require.NoError(t, s.WriteProject(dir, files, WriteOptions{}))

	got, err := s.Scan()
	require.NoError(t, err)
	assert.Equal(t, files, got)
}

func TestWriteProjectPrune(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"main.ts":          "new",
		"stale.ts":         "remove me",
		"built/binary.hex": "excluded, untouched",
	})

	s, err := NewFileScanner(dir, nil, DefaultExcludes)
	require.NoError(t, err)
	require.NoError(t, s.WriteProject(dir, model.ProjectFileSet{"main.ts": "old"}, WriteOptions{Prune: true}))

	got, err := s.Scan()
	require.NoError(t, err)
	assert.Equal(t, model.ProjectFileSet{"main.ts": "old"}, got)

	_, err = os.Stat(filepath.Join(dir, "built", "binary.hex"))
	assert.NoError(t, err)
}

func TestWriteProjectToNewDirectory(t *testing.T) {
	out := filepath.Join(t.TempDir(), "copy")
	s, err := NewFileScanner(t.TempDir(), nil, nil)
	require.NoError(t, err)

	require.NoError(t, s.WriteProject(out, model.ProjectFileSet{"main.ts": "x"}, WriteOptions{Prune: true}))

	data, err := os.ReadFile(filepath.Join(out, "main.ts"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func TestWriteProjectRejectsEscapingPaths(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileScanner(dir, nil, nil)
	require.NoError(t, err)

	err = s.WriteProject(dir, model.ProjectFileSet{"../evil.ts": "x"}, WriteOptions{})
	assert.Error(t, err)
}
