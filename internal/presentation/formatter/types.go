package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-project-history/internal/core/model"
)

// Formatter renders timelines and reconstructed projects
type Formatter interface {
	FormatTimeline(buckets []model.TimelineBucket) error
	FormatProject(view ProjectView) error
}

// ProjectView is a reconstructed project prepared for display
type ProjectView struct {
	Entry         model.TimeEntry `json:"entry"`
	EditorVersion string          `json:"editorVersion"`
	Digest        string          `json:"digest"`
	Files         []FileRow       `json:"files"`
}

// FileRow describes one file of a project
type FileRow struct {
	Path  string `json:"path"`
	Bytes int    `json:"bytes"`
	Lines int    `json:"lines"`
}

// NewProjectView summarizes project as reconstructed for entry
func NewProjectView(entry model.TimeEntry, project model.ReconstructedProject) ProjectView {
	view := ProjectView{
		Entry:         entry,
		EditorVersion: project.EditorVersion,
		Digest:        project.Files.Digest(),
		Files:         make([]FileRow, 0, len(project.Files)),
	}
	for _, path := range project.Files.Paths() {
		content := project.Files[path]
		lines := strings.Count(content, "\n")
		if content != "" && !strings.HasSuffix(content, "\n") {
			lines++
		}
		view.Files = append(view.Files, FileRow{Path: path, Bytes: len(content), Lines: lines})
	}
	return view
}

// New returns the formatter for format, writing to w
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case "", "table":
		return NewTableFormatter(w), nil
	case "json":
		return NewJSONFormatter(w), nil
	case "csv":
		return NewCSVFormatter(w), nil
	case "summary":
		return NewSummaryFormatter(w), nil
	}
	return nil, fmt.Errorf("unsupported output format: %s (use table, json, csv or summary)", format)
}

func entryRef(e model.TimeEntry) string {
	if e.Kind == model.KindShare {
		return e.ShareID
	}
	if e.IsNow() {
		return "live"
	}
	return fmt.Sprintf("%d", e.Timestamp)
}
