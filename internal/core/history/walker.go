// Package history reconstructs past project file sets from the recorded diff chain
// and from stored snapshots.
package history

import (
	"iter"

	"github.com/penwyp/go-project-history/internal/core/model"
	"github.com/penwyp/go-project-history/internal/util"
)

// DiffApplier steps a file set one save into the past.
// Implementations must not mutate the input file set.
type DiffApplier interface {
	ApplyDiff(files model.ProjectFileSet, entry model.DiffEntry) (model.ProjectFileSet, error)
}

// WalkStep is the file set obtained after applying the entry at Index
type WalkStep struct {
	Index     int
	Timestamp int64
	Files     model.ProjectFileSet
}

// Walker replays diff entries backward from the live file set
type Walker struct {
	applier DiffApplier
}

// NewWalker creates a walker using the given diff-apply primitive
func NewWalker(applier DiffApplier) *Walker {
	return &Walker{applier: applier}
}

// Steps lazily walks entries from most recent to oldest. Each yielded step carries
// the file set as it stands right after applying that entry's diff. The sequence
// ends after the first error, which is yielded as-is.
func (w *Walker) Steps(live model.ProjectFileSet, entries []model.DiffEntry) iter.Seq2[WalkStep, error] {
	return func(yield func(WalkStep, error) bool) {
		files := live
		for i := len(entries) - 1; i >= 0; i-- {
			step := WalkStep{Index: i, Timestamp: entries[i].Timestamp}
			next, err := w.applier.ApplyDiff(files, entries[i])
			if err != nil {
				yield(step, err)
				return
			}
			files = next
			step.Files = files
			if !yield(step, nil) {
				return
			}
		}
	}
}

// Reconstruct returns the file set at target by walking back until the entry
// recorded at target has been applied. Diff-apply errors are returned unmodified.
func (w *Walker) Reconstruct(live model.ProjectFileSet, entries []model.DiffEntry, target int64) (model.ReconstructedProject, error) {
	if !containsTimestamp(entries, target) {
		util.LogWarnf("No diff entry recorded at %d, falling back to live files", target)
		return model.ReconstructedProject{Files: live.Clone(), EditorVersion: newestVersion(entries)}, nil
	}

	for step, err := range w.Steps(live, entries) {
		if err != nil {
			return model.ReconstructedProject{}, err
		}
		if step.Timestamp == target {
			util.LogDebugf("Reconstructed %d after %d diff steps", target, len(entries)-step.Index)
			return model.ReconstructedProject{
				Files:         step.Files,
				EditorVersion: attributedVersion(entries, step.Index),
			}, nil
		}
	}

	// unreachable for a contained timestamp, kept for a total function
	return model.ReconstructedProject{Files: live.Clone(), EditorVersion: newestVersion(entries)}, nil
}

// attributedVersion returns the version of the entry preceding index, else the entry's own.
// An entry's version describes the code produced by its save, which is the state the
// preceding diff walks out of, not the one this diff walks into.
func attributedVersion(entries []model.DiffEntry, index int) string {
	if index > 0 {
		return entries[index-1].EditorVersion
	}
	return entries[index].EditorVersion
}

func containsTimestamp(entries []model.DiffEntry, ts int64) bool {
	for _, e := range entries {
		if e.Timestamp == ts {
			return true
		}
	}
	return false
}

func newestVersion(entries []model.DiffEntry) string {
	if len(entries) == 0 {
		return ""
	}
	return entries[len(entries)-1].EditorVersion
}
