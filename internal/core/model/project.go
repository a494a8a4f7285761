package model

import (
	"encoding/hex"
	"sort"

	"lukechampine.com/blake3"
)

// ProjectFileSet maps a file path to its content. It is one complete state of a project.
type ProjectFileSet map[string]string

// Clone returns a shallow copy safe for independent mutation
func (fs ProjectFileSet) Clone() ProjectFileSet {
	out := make(ProjectFileSet, len(fs))
	for path, content := range fs {
		out[path] = content
	}
	return out
}

// Paths returns the file paths in sorted order
func (fs ProjectFileSet) Paths() []string {
	paths := make([]string, 0, len(fs))
	for path := range fs {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Digest returns a stable blake3 fingerprint of the file set.
// Two file sets with identical paths and contents always share a digest.
func (fs ProjectFileSet) Digest() string {
	h := blake3.New(32, nil)
	for _, path := range fs.Paths() {
		h.Write([]byte(path))
		h.Write([]byte{0})
		h.Write([]byte(fs[path]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ReconstructedProject is the file set and editor version produced for one point in time
type ReconstructedProject struct {
	Files         ProjectFileSet `json:"files"`
	EditorVersion string         `json:"editorVersion"`
}
