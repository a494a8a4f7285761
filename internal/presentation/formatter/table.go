package formatter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/penwyp/go-project-history/internal/core/model"
	"github.com/penwyp/go-project-history/internal/util"
	"golang.org/x/term"
)

const minColumnWidth = 4

type TableFormatter struct {
	w        io.Writer
	maxWidth int
}

// NewTableFormatter creates a box-drawing table renderer. When w is a terminal the
// table is fitted to its width.
func NewTableFormatter(w io.Writer) *TableFormatter {
	f := &TableFormatter{w: w}
	if file, ok := w.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		if width, _, err := term.GetSize(int(file.Fd())); err == nil {
			f.maxWidth = width
		}
	}
	return f
}

// WithMaxWidth caps the rendered table width; zero disables the cap
func (f *TableFormatter) WithMaxWidth(width int) *TableFormatter {
	f.maxWidth = width
	return f
}

func (f *TableFormatter) FormatTimeline(buckets []model.TimelineBucket) error {
	headers := []string{"Day", "Time", "Kind", "Ref"}
	var rows [][]string
	var separators []int

	for i, bucket := range buckets {
		if i > 0 {
			separators = append(separators, len(rows))
		}
		for j, e := range bucket.Entries {
			day := ""
			if j == 0 {
				day = bucket.Label
			}
			rows = append(rows, []string{day, e.Label, string(e.Kind), entryRef(e)})
		}
	}

	f.render(headers, rows, separators, nil)
	return nil
}

func (f *TableFormatter) FormatProject(view ProjectView) error {
	version := view.EditorVersion
	if version == "" {
		version = "unknown"
	}
	fmt.Fprintln(f.w, util.FormatHeaderTitle(fmt.Sprintf("%s %s", view.Entry.Kind, view.Entry.Label)))
	fmt.Fprintf(f.w, "Editor version: %s\n", version)
	fmt.Fprintf(f.w, "Digest:         %s\n", view.Digest)

	headers := []string{"Path", "Bytes", "Lines"}
	rows := make([][]string, 0, len(view.Files)+1)
	totalBytes, totalLines := 0, 0
	for _, file := range view.Files {
		rows = append(rows, []string{file.Path, util.FormatNumber(file.Bytes), util.FormatNumber(file.Lines)})
		totalBytes += file.Bytes
		totalLines += file.Lines
	}
	total := []string{"Total", util.FormatNumber(totalBytes), util.FormatNumber(totalLines)}

	f.render(headers, rows, nil, total)
	return nil
}

// render prints a box table. Tables with a total row hold numbers after the first column
// and right-align them.
func (f *TableFormatter) render(headers []string, rows [][]string, separators []int, total []string) {
	widths := f.calculateColumnWidths(headers, rows, total)
	rightAligned := total != nil

	f.printBorder(widths, "top")
	f.printRow(headers, widths, false)
	f.printBorder(widths, "middle")

	next := 0
	for i, row := range rows {
		if next < len(separators) && separators[next] == i {
			f.printBorder(widths, "middle")
			next++
		}
		f.printRow(row, widths, rightAligned)
	}

	if total != nil {
		f.printBorder(widths, "middle")
		f.printRow(total, widths, rightAligned)
	}
	f.printBorder(widths, "bottom")
}

// calculateColumnWidths sizes each column to its widest cell, shrinking the first
// column when the table would overflow maxWidth
func (f *TableFormatter) calculateColumnWidths(headers []string, rows [][]string, total []string) []int {
	widths := make([]int, len(headers))
	measure := func(values []string) {
		for i, value := range values {
			if w := util.GetDisplayWidth(value); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(headers)
	for _, row := range rows {
		measure(row)
	}
	if total != nil {
		measure(total)
	}

	for i := range widths {
		if widths[i] < minColumnWidth {
			widths[i] = minColumnWidth
		}
	}

	if f.maxWidth > 0 {
		// Each column adds 3 border/padding columns plus one for the left edge.
		tableWidth := 1
		for _, w := range widths {
			tableWidth += w + 3
		}
		if overflow := tableWidth - f.maxWidth; overflow > 0 {
			widths[0] = max(widths[0]-overflow, minColumnWidth)
		}
	}
	return widths
}

// printBorder prints table borders (top, middle, bottom)
func (f *TableFormatter) printBorder(widths []int, borderType string) {
	var left, middle, right string
	switch borderType {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	case "bottom":
		left, middle, right = "└", "┴", "┘"
	}

	var b strings.Builder
	b.WriteString(left)
	for i, width := range widths {
		b.WriteString(strings.Repeat("─", width+2))
		if i < len(widths)-1 {
			b.WriteString(middle)
		}
	}
	b.WriteString(right)
	fmt.Fprintln(f.w, b.String())
}

// printRow prints a row; with rightAligned set every column after the first is right-aligned
func (f *TableFormatter) printRow(values []string, widths []int, rightAligned bool) {
	var b strings.Builder
	b.WriteString("│")
	for i, value := range values {
		value = util.Truncate(value, widths[i])
		if rightAligned && i > 0 {
			pad := strings.Repeat(" ", widths[i]-util.GetDisplayWidth(value))
			b.WriteString(" " + pad + value + " │")
		} else {
			b.WriteString(" " + util.PadRight(value, widths[i]) + " │")
		}
	}
	fmt.Fprintln(f.w, b.String())
}
