package history

import (
	"errors"
	"testing"

	"github.com/penwyp/go-project-history/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	t1 int64 = 1700000000000
	t2 int64 = 1700000060000
	t3 int64 = 1700000120000
)

// threeSaveFixture records three one-character saves of main.ts; the live text is "resultC"
func threeSaveFixture(t *testing.T) (model.ProjectFileSet, []model.DiffEntry) {
	t.Helper()

	diff := func(from, to string) []byte {
		payload, err := EncodeChanges(EditChange("main.ts", from, to))
		require.NoError(t, err)
		return payload
	}

	entries := []model.DiffEntry{
		{Timestamp: t1, EditorVersion: "v1", Diff: diff("resultB", "resultA")},
		{Timestamp: t2, EditorVersion: "v2", Diff: diff("resultX", "resultB")},
		{Timestamp: t3, EditorVersion: "v3", Diff: diff("resultC", "resultX")},
	}
	live := model.ProjectFileSet{"main.ts": "resultC", "pxt.json": "{}"}
	return live, entries
}

func TestWalker_Reconstruct(t *testing.T) {
	live, entries := threeSaveFixture(t)
	w := NewWalker(NewPatchApplier())

	tests := []struct {
		name        string
		target      int64
		wantMain    string
		wantVersion string
	}{
		{name: "most recent", target: t3, wantMain: "resultX", wantVersion: "v2"},
		{name: "middle", target: t2, wantMain: "resultB", wantVersion: "v1"},
		{name: "oldest uses own version", target: t1, wantMain: "resultA", wantVersion: "v1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := w.Reconstruct(live, entries, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMain, got.Files["main.ts"])
			assert.Equal(t, "{}", got.Files["pxt.json"])
			assert.Equal(t, tt.wantVersion, got.EditorVersion)
		})
	}

	// live input is never mutated
	assert.Equal(t, "resultC", live["main.ts"])
}

func TestWalker_Reconstruct_NoMatchFallsBackToLive(t *testing.T) {
	live, entries := threeSaveFixture(t)
	w := NewWalker(NewPatchApplier())

	got, err := w.Reconstruct(live, entries, 42)
	require.NoError(t, err)
	assert.Equal(t, live, got.Files)
	assert.Equal(t, "v3", got.EditorVersion)

	got, err = w.Reconstruct(live, nil, 42)
	require.NoError(t, err)
	assert.Equal(t, live, got.Files)
	assert.Empty(t, got.EditorVersion)
}

type countingApplier struct {
	calls   int
	failAt  int64
	failErr error
}

func (c *countingApplier) ApplyDiff(files model.ProjectFileSet, entry model.DiffEntry) (model.ProjectFileSet, error) {
	c.calls++
	if entry.Timestamp == c.failAt {
		return nil, c.failErr
	}
	out := files.Clone()
	out["steps"] += "<"
	return out, nil
}

func TestWalker_StepsIsLazy(t *testing.T) {
	_, entries := threeSaveFixture(t)
	applier := &countingApplier{}
	w := NewWalker(applier)

	var seen []int64
	for step, err := range w.Steps(model.ProjectFileSet{}, entries) {
		require.NoError(t, err)
		seen = append(seen, step.Timestamp)
		if step.Timestamp == t3 {
			break
		}
	}

	assert.Equal(t, []int64{t3}, seen)
	assert.Equal(t, 1, applier.calls)
}

func TestWalker_StopsAtMatch(t *testing.T) {
	_, entries := threeSaveFixture(t)
	applier := &countingApplier{}
	w := NewWalker(applier)

	got, err := w.Reconstruct(model.ProjectFileSet{}, entries, t2)
	require.NoError(t, err)
	assert.Equal(t, "<<", got.Files["steps"])
	assert.Equal(t, 2, applier.calls)
}

func TestWalker_ApplyErrorPropagatesUnmodified(t *testing.T) {
	_, entries := threeSaveFixture(t)
	corrupt := errors.New("corrupt diff")
	w := NewWalker(&countingApplier{failAt: t2, failErr: corrupt})

	_, err := w.Reconstruct(model.ProjectFileSet{}, entries, t1)
	assert.Equal(t, corrupt, err)
}

func TestWalker_RoundTrip(t *testing.T) {
	live, entries := threeSaveFixture(t)
	applier := NewPatchApplier()
	w := NewWalker(applier)

	past, err := w.Reconstruct(live, entries, t3)
	require.NoError(t, err)

	forward, err := EncodeChanges(EditChange("main.ts", past.Files["main.ts"], live["main.ts"]))
	require.NoError(t, err)

	back, err := applier.ApplyDiff(past.Files, model.DiffEntry{Timestamp: t3, Diff: forward})
	require.NoError(t, err)
	assert.Equal(t, live, back)
}
