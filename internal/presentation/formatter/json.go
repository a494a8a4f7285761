package formatter

import (
	"io"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-project-history/internal/core/model"
)

type JSONFormatter struct {
	w io.Writer
}

func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{w: w}
}

func (f *JSONFormatter) FormatTimeline(buckets []model.TimelineBucket) error {
	return f.encode(buckets)
}

func (f *JSONFormatter) FormatProject(view ProjectView) error {
	return f.encode(view)
}

func (f *JSONFormatter) encode(v interface{}) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = f.w.Write(data)
	return err
}
