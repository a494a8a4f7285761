package history

import "github.com/penwyp/go-project-history/internal/core/model"

// SnapshotMerger combines the live file set with a stored checkpoint
type SnapshotMerger interface {
	MergeSnapshot(live, snapshot model.ProjectFileSet) model.ProjectFileSet
}

// OverlayMerger treats the snapshot as authoritative. With KeepLiveOnly set,
// files that exist only in the live set survive the merge.
type OverlayMerger struct {
	KeepLiveOnly bool
}

// MergeSnapshot returns a new file set; neither input is modified
func (m OverlayMerger) MergeSnapshot(live, snapshot model.ProjectFileSet) model.ProjectFileSet {
	out := make(model.ProjectFileSet, len(snapshot))
	if m.KeepLiveOnly {
		for path, content := range live {
			out[path] = content
		}
	}
	for path, content := range snapshot {
		out[path] = content
	}
	return out
}

// SnapshotApplier reconstructs a past file set directly from a checkpoint
type SnapshotApplier struct {
	merger SnapshotMerger
}

// NewSnapshotApplier creates an applier; a nil merger defaults to OverlayMerger{}
func NewSnapshotApplier(merger SnapshotMerger) *SnapshotApplier {
	if merger == nil {
		merger = OverlayMerger{}
	}
	return &SnapshotApplier{merger: merger}
}

// Reconstruct needs no chain walk: the snapshot carries its own editor version
func (a *SnapshotApplier) Reconstruct(live model.ProjectFileSet, snapshot model.SnapshotEntry) model.ReconstructedProject {
	return model.ReconstructedProject{
		Files:         a.merger.MergeSnapshot(live, snapshot.Text),
		EditorVersion: snapshot.EditorVersion,
	}
}
