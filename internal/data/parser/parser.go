package parser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"
	"github.com/penwyp/go-project-history/internal/core/model"
	"github.com/penwyp/go-project-history/internal/util"
)

// ErrUnsupportedFormat is returned for history files with an unknown extension
var ErrUnsupportedFormat = errors.New("unsupported history log format")

// Format identifies how a history log file is encoded
type Format string

const (
	FormatJSON     Format = "json"
	FormatZstdJSON Format = "json.zst"
	FormatSQLite   Format = "sqlite"
)

// DetectFormat picks the decoder for path from its extension
func DetectFormat(path string) (Format, error) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".json.zst"), strings.HasSuffix(lower, ".zst"):
		return FormatZstdJSON, nil
	case strings.HasSuffix(lower, ".json"):
		return FormatJSON, nil
	case strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), strings.HasSuffix(lower, ".sqlite3"):
		return FormatSQLite, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
}

type cachedLog struct {
	modTime time.Time
	size    int64
	log     model.HistoryLog
}

// Parser loads history logs. Results are cached per path until the file changes on disk.
type Parser struct {
	mu    sync.Mutex
	cache map[string]cachedLog
}

// NewParser creates a new Parser instance.
func NewParser() *Parser {
	return &Parser{
		cache: make(map[string]cachedLog),
	}
}

// ParseFile loads and validates the history log at path.
func (p *Parser) ParseFile(path string) (model.HistoryLog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return model.HistoryLog{}, err
	}

	p.mu.Lock()
	if cached, ok := p.cache[path]; ok && cached.modTime.Equal(info.ModTime()) && cached.size == info.Size() {
		p.mu.Unlock()
		util.LogDebugf("History log cache hit: %s", path)
		return cached.log, nil
	}
	p.mu.Unlock()

	format, err := DetectFormat(path)
	if err != nil {
		return model.HistoryLog{}, err
	}

	start := time.Now()
	var log model.HistoryLog
	switch format {
	case FormatJSON:
		log, err = parseJSONFile(path, false)
	case FormatZstdJSON:
		log, err = parseJSONFile(path, true)
	case FormatSQLite:
		log, err = parseSQLiteFile(path)
	}
	if err != nil {
		return model.HistoryLog{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := log.Validate(); err != nil {
		return model.HistoryLog{}, fmt.Errorf("invalid history log %s: %w", path, err)
	}

	util.LogDebugf("Parsed history log %s (%s): %d diffs, %d snapshots, %d shares in %v",
		path, format, len(log.Entries), len(log.Snapshots), len(log.Shares), time.Since(start))

	p.mu.Lock()
	p.cache[path] = cachedLog{modTime: info.ModTime(), size: info.Size(), log: log}
	p.mu.Unlock()

	return log, nil
}

// Forget drops the cached result for path
func (p *Parser) Forget(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.cache, path)
}

func parseJSONFile(path string, compressed bool) (model.HistoryLog, error) {
	file, err := os.Open(path)
	if err != nil {
		return model.HistoryLog{}, err
	}
	defer file.Close()

	var r io.Reader = file
	if compressed {
		dec, err := zstd.NewReader(file)
		if err != nil {
			return model.HistoryLog{}, err
		}
		defer dec.Close()
		r = dec
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return model.HistoryLog{}, err
	}
	return DecodeJSON(data)
}

// DecodeJSON decodes a history log document
func DecodeJSON(data []byte) (model.HistoryLog, error) {
	var log model.HistoryLog
	if err := sonic.Unmarshal(data, &log); err != nil {
		return model.HistoryLog{}, err
	}
	return log, nil
}
