package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-project-history/internal/core/model"
	"github.com/penwyp/go-project-history/internal/util"
)

// SummaryFormatter prints short human-readable reports.
type SummaryFormatter struct {
	w io.Writer
}

// NewSummaryFormatter creates a new instance of SummaryFormatter.
func NewSummaryFormatter(w io.Writer) *SummaryFormatter {
	return &SummaryFormatter{w: w}
}

// FormatTimeline prints per-kind counts and the covered date range.
func (f *SummaryFormatter) FormatTimeline(buckets []model.TimelineBucket) error {
	counts := map[model.EntryKind]int{}
	var days []string
	for _, bucket := range buckets {
		recorded := 0
		for _, e := range bucket.Entries {
			if e.IsNow() {
				continue
			}
			counts[e.Kind]++
			recorded++
		}
		if recorded > 0 {
			days = append(days, bucket.Label)
		}
	}

	fmt.Fprintln(f.w, strings.Repeat("=", 60))
	fmt.Fprintln(f.w, "Project History Summary")
	fmt.Fprintln(f.w, strings.Repeat("=", 60))
	fmt.Fprintln(f.w)

	if len(days) == 0 {
		fmt.Fprintln(f.w, "No history recorded")
		fmt.Fprintln(f.w)
		fmt.Fprintln(f.w, strings.Repeat("=", 60))
		return nil
	}

	// Buckets are newest first.
	if len(days) == 1 {
		fmt.Fprintf(f.w, "Date Range: %s\n", days[0])
	} else {
		fmt.Fprintf(f.w, "Date Range: %s to %s\n", days[len(days)-1], days[0])
	}
	fmt.Fprintln(f.w)

	fmt.Fprintln(f.w, "Restore Points:")
	fmt.Fprintf(f.w, "  Saves:     %s\n", util.FormatNumber(counts[model.KindDiff]))
	fmt.Fprintf(f.w, "  Snapshots: %s\n", util.FormatNumber(counts[model.KindSnapshot]))
	fmt.Fprintf(f.w, "  Shares:    %s\n", util.FormatNumber(counts[model.KindShare]))
	fmt.Fprintf(f.w, "  Days:      %s\n", util.FormatNumber(len(days)))
	fmt.Fprintln(f.w)
	fmt.Fprintln(f.w, strings.Repeat("=", 60))
	return nil
}

// FormatProject prints a one-line description of the project.
func (f *SummaryFormatter) FormatProject(view ProjectView) error {
	total := 0
	for _, file := range view.Files {
		total += file.Bytes
	}
	version := view.EditorVersion
	if version == "" {
		version = "unknown"
	}
	_, err := fmt.Fprintf(f.w, "%s %s: %s, %s, editor %s, digest %s\n",
		view.Entry.Kind, view.Entry.Label, util.Plural(len(view.Files), "file", "files"),
		util.FormatBytes(total), version, shortDigest(view.Digest))
	return err
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
