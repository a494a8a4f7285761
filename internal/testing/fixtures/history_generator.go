package fixtures

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"
	"github.com/penwyp/go-project-history/internal/core/history"
	"github.com/penwyp/go-project-history/internal/core/model"
)

// save is one recorded state of the project
type save struct {
	at      time.Time
	version string
	files   model.ProjectFileSet
}

// HistoryGenerator builds history logs from a sequence of project states. Diffs are
// derived so that walking back from the live files reproduces each recorded state.
type HistoryGenerator struct {
	baseDir   string
	live      model.ProjectFileSet
	saves     []save
	snapshots []model.SnapshotEntry
	shares    []model.ShareEntry
}

// NewHistoryGenerator creates a generator writing below baseDir. live is the current
// content of the project.
func NewHistoryGenerator(baseDir string, live model.ProjectFileSet) *HistoryGenerator {
	return &HistoryGenerator{
		baseDir: baseDir,
		live:    live.Clone(),
	}
}

// Save records that the project looked like files at the given time
func (g *HistoryGenerator) Save(at time.Time, version string, files model.ProjectFileSet) *HistoryGenerator {
	g.saves = append(g.saves, save{at: at, version: version, files: files.Clone()})
	return g
}

func (g *HistoryGenerator) Snapshot(at time.Time, version string, files model.ProjectFileSet) *HistoryGenerator {
	g.snapshots = append(g.snapshots, model.SnapshotEntry{
		Timestamp:     at.UnixMilli(),
		EditorVersion: version,
		Text:          files.Clone(),
	})
	return g
}

func (g *HistoryGenerator) Share(at time.Time, id string) *HistoryGenerator {
	g.shares = append(g.shares, model.ShareEntry{Timestamp: at.UnixMilli(), ID: id})
	return g
}

// Build returns the history log for everything recorded so far
func (g *HistoryGenerator) Build() (model.HistoryLog, error) {
	saves := append([]save(nil), g.saves...)
	sort.SliceStable(saves, func(i, j int) bool { return saves[i].at.Before(saves[j].at) })

	log := model.HistoryLog{
		Snapshots: append([]model.SnapshotEntry(nil), g.snapshots...),
		Shares:    append([]model.ShareEntry(nil), g.shares...),
	}
	for i, s := range saves {
		newer := g.live
		if i+1 < len(saves) {
			newer = saves[i+1].files
		}
		payload, err := history.EncodeChanges(changesBetween(newer, s.files)...)
		if err != nil {
			return model.HistoryLog{}, fmt.Errorf("encode diff at %s: %w", s.at, err)
		}
		log.Entries = append(log.Entries, model.DiffEntry{
			Timestamp:     s.at.UnixMilli(),
			EditorVersion: s.version,
			Diff:          payload,
		})
	}
	return log, nil
}

// changesBetween returns the changes turning from into to
func changesBetween(from, to model.ProjectFileSet) []history.FileChange {
	var changes []history.FileChange
	for _, path := range from.Paths() {
		target, ok := to[path]
		switch {
		case !ok:
			changes = append(changes, history.FileChange{Op: history.OpDelete, Path: path})
		case target != from[path]:
			changes = append(changes, history.EditChange(path, from[path], target))
		}
	}
	for _, path := range to.Paths() {
		if _, ok := from[path]; !ok {
			changes = append(changes, history.FileChange{Op: history.OpSet, Path: path, Content: to[path]})
		}
	}
	return changes
}

// WriteJSON writes the log as plain JSON and returns its path
func (g *HistoryGenerator) WriteJSON(name string) (string, error) {
	data, err := g.marshal()
	if err != nil {
		return "", err
	}
	return g.write(name, data)
}

// WriteZstd writes the log as zstd compressed JSON and returns its path
func (g *HistoryGenerator) WriteZstd(name string) (string, error) {
	data, err := g.marshal()
	if err != nil {
		return "", err
	}
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return "", err
	}
	defer encoder.Close()
	return g.write(name, encoder.EncodeAll(data, nil))
}

// WriteProject writes the live files into a directory and returns its path
func (g *HistoryGenerator) WriteProject(name string) (string, error) {
	dir := filepath.Join(g.baseDir, name)
	for path, content := range g.live {
		full := filepath.Join(dir, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			return "", err
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			return "", err
		}
	}
	return dir, nil
}

func (g *HistoryGenerator) marshal() ([]byte, error) {
	log, err := g.Build()
	if err != nil {
		return nil, err
	}
	return sonic.Marshal(log)
}

func (g *HistoryGenerator) write(name string, data []byte) (string, error) {
	if err := os.MkdirAll(g.baseDir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(g.baseDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}
