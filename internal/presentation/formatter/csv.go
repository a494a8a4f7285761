package formatter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/penwyp/go-project-history/internal/core/model"
)

type CSVFormatter struct {
	w io.Writer
}

func NewCSVFormatter(w io.Writer) *CSVFormatter {
	return &CSVFormatter{w: w}
}

func (f *CSVFormatter) FormatTimeline(buckets []model.TimelineBucket) error {
	w := csv.NewWriter(f.w)
	defer w.Flush()

	if err := w.Write([]string{"Day", "Time", "Kind", "Timestamp", "Share"}); err != nil {
		return err
	}
	for _, bucket := range buckets {
		for _, e := range bucket.Entries {
			record := []string{
				bucket.Label,
				e.Label,
				string(e.Kind),
				fmt.Sprintf("%d", e.Timestamp),
				e.ShareID,
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
	}
	return w.Error()
}

func (f *CSVFormatter) FormatProject(view ProjectView) error {
	w := csv.NewWriter(f.w)
	defer w.Flush()

	if err := w.Write([]string{"Path", "Bytes", "Lines"}); err != nil {
		return err
	}
	for _, file := range view.Files {
		if err := w.Write([]string{file.Path, fmt.Sprintf("%d", file.Bytes), fmt.Sprintf("%d", file.Lines)}); err != nil {
			return err
		}
	}
	return w.Error()
}
