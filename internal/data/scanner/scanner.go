package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/penwyp/go-project-history/internal/core/model"
	"github.com/penwyp/go-project-history/internal/util"
)

// DefaultExcludes skips build output and dependency folders
var DefaultExcludes = []string{"built/**", "node_modules/**", ".git/**", "pxt_modules/**"}

// FileScanner reads a project directory into a ProjectFileSet
type FileScanner struct {
	baseDir  string
	includes []string
	excludes []string
}

// NewFileScanner creates a new FileScanner instance. An empty include list matches every file.
func NewFileScanner(baseDir string, includes, excludes []string) (*FileScanner, error) {
	for _, pattern := range append(append([]string{}, includes...), excludes...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid glob pattern %q", pattern)
		}
	}
	if len(includes) == 0 {
		includes = []string{"**"}
	}
	return &FileScanner{
		baseDir:  baseDir,
		includes: includes,
		excludes: excludes,
	}, nil
}

// Scan walks the directory and returns every matching file keyed by slash-separated relative path
func (s *FileScanner) Scan() (model.ProjectFileSet, error) {
	start := time.Now()
	files := make(model.ProjectFileSet)
	skipped := 0

	util.LogDebugf("Start scanning project directory: %s", s.baseDir)

	err := filepath.WalkDir(s.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.baseDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if s.excluded(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !s.Matches(rel) {
			skipped++
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[rel] = string(content)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", s.baseDir, err)
	}

	util.LogDebugf("Project scan completed: duration %v, %d files kept, %d skipped",
		time.Since(start), len(files), skipped)

	return files, nil
}

// Matches reports whether a relative path is part of the project
func (s *FileScanner) Matches(rel string) bool {
	if s.excluded(rel) {
		return false
	}
	for _, pattern := range s.includes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (s *FileScanner) excluded(rel string) bool {
	for _, pattern := range s.excludes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
