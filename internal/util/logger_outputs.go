package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
)

// ConsoleOutput writes logs to a writer, usually stderr
type ConsoleOutput struct {
	writer io.Writer
	format LogFormat
	mu     sync.Mutex
}

// NewConsoleOutput creates a new console output
func NewConsoleOutput(writer io.Writer, format LogFormat) Output {
	return &ConsoleOutput{
		writer: writer,
		format: format,
	}
}

// Write writes a log entry to the console
func (c *ConsoleOutput) Write(entry LogEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	line, err := renderEntry(entry, c.format)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.writer, line)
	return err
}

// Close is a no-op; the writer is owned by the caller
func (c *ConsoleOutput) Close() error {
	return nil
}

// FileOutput appends logs to a file
type FileOutput struct {
	file   *os.File
	format LogFormat
	mu     sync.Mutex
}

// NewFileOutput opens path for appending, creating its directory if needed
func NewFileOutput(path string, format LogFormat) (Output, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	return &FileOutput{
		file:   file,
		format: format,
	}, nil
}

// Write writes a log entry to the file
func (f *FileOutput) Write(entry LogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	line, err := renderEntry(entry, f.format)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f.file, line)
	return err
}

// Close closes the file
func (f *FileOutput) Close() error {
	return f.file.Close()
}

func renderEntry(entry LogEntry, format LogFormat) (string, error) {
	if format == FormatJSON {
		data, err := sonic.Marshal(entry)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	line := fmt.Sprintf("%s [%s] %s", entry.Timestamp.Format("2006/01/02 15:04:05"), entry.Level, entry.Message)
	if len(entry.Fields) > 0 {
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%v", k, entry.Fields[k]))
		}
		line += " " + strings.Join(pairs, " ")
	}
	return line, nil
}
