package history

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-project-history/internal/core/model"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Change operations understood by PatchApplier
const (
	OpEdit   = "edit"   // apply a diff-match-patch patch to the file
	OpSet    = "set"    // replace (or create) the file with Content
	OpDelete = "delete" // remove the file
)

var (
	// ErrPatchRejected is returned when a patch hunk does not apply to the current content
	ErrPatchRejected = errors.New("patch rejected")
	// ErrMissingFile is returned when an edit targets a path that does not exist
	ErrMissingFile = errors.New("patched file missing")
	// ErrUnknownOp is returned for change operations other than edit, set and delete
	ErrUnknownOp = errors.New("unknown change operation")
)

// FileChange is one element of a diff payload
type FileChange struct {
	Op      string `json:"op"`
	Path    string `json:"path"`
	Patch   string `json:"patch,omitempty"`
	Content string `json:"content,omitempty"`
}

// PatchApplier is the default diff-apply primitive. A diff payload is a JSON array of
// FileChange values describing how to step the file set back one save.
type PatchApplier struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// NewPatchApplier creates a PatchApplier with exact matching
func NewPatchApplier() *PatchApplier {
	dmp := diffmatchpatch.New()
	dmp.MatchThreshold = 0
	return &PatchApplier{dmp: dmp}
}

// ApplyDiff implements DiffApplier
func (p *PatchApplier) ApplyDiff(files model.ProjectFileSet, entry model.DiffEntry) (model.ProjectFileSet, error) {
	var changes []FileChange
	if len(entry.Diff) > 0 {
		if err := sonic.Unmarshal(entry.Diff, &changes); err != nil {
			return nil, fmt.Errorf("decode diff at %d: %w", entry.Timestamp, err)
		}
	}

	out := files.Clone()
	for _, c := range changes {
		switch c.Op {
		case OpEdit:
			current, ok := out[c.Path]
			if !ok {
				return nil, fmt.Errorf("%w: %s at %d", ErrMissingFile, c.Path, entry.Timestamp)
			}
			patches, err := p.dmp.PatchFromText(c.Patch)
			if err != nil {
				return nil, fmt.Errorf("parse patch for %s at %d: %w", c.Path, entry.Timestamp, err)
			}
			result, applied := p.dmp.PatchApply(patches, current)
			for _, ok := range applied {
				if !ok {
					return nil, fmt.Errorf("%w: %s at %d", ErrPatchRejected, c.Path, entry.Timestamp)
				}
			}
			out[c.Path] = result
		case OpSet:
			out[c.Path] = c.Content
		case OpDelete:
			delete(out, c.Path)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownOp, c.Op)
		}
	}
	return out, nil
}

// EditChange builds an edit that turns from into to
func EditChange(path, from, to string) FileChange {
	dmp := diffmatchpatch.New()
	return FileChange{Op: OpEdit, Path: path, Patch: dmp.PatchToText(dmp.PatchMake(from, to))}
}

// EncodeChanges serializes changes into a diff payload
func EncodeChanges(changes ...FileChange) ([]byte, error) {
	return sonic.Marshal(changes)
}
