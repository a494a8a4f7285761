package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/penwyp/go-project-history/internal/core/model"
	"github.com/penwyp/go-project-history/internal/util"
)

// WriteOptions controls how a project is written to disk
type WriteOptions struct {
	// Prune removes files that match the scanner but are absent from the project
	Prune bool
}

// WriteProject writes every file of files under dir. With Prune set, tracked files
// missing from files are removed so the directory mirrors the project exactly.
func (s *FileScanner) WriteProject(dir string, files model.ProjectFileSet, opts WriteOptions) error {
	if opts.Prune {
		existing, err := (&FileScanner{baseDir: dir, includes: s.includes, excludes: s.excludes}).Scan()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		for path := range existing {
			if _, keep := files[path]; keep {
				continue
			}
			if err := os.Remove(filepath.Join(dir, filepath.FromSlash(path))); err != nil {
				return fmt.Errorf("failed to remove %s: %w", path, err)
			}
			util.LogDebugf("Removed %s", path)
		}
	}

	for _, path := range files.Paths() {
		target, err := safeJoin(dir, path)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(target, []byte(files[path]), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	util.LogInfof("Wrote %s to %s", util.Plural(len(files), "file", "files"), dir)
	return nil
}

// safeJoin rejects paths escaping dir
func safeJoin(dir, rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("refusing to write outside project: %s", rel)
	}
	return filepath.Join(dir, clean), nil
}
