package rewind

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/penwyp/go-project-history/internal/core/history"
	"github.com/penwyp/go-project-history/internal/core/model"
	"github.com/penwyp/go-project-history/internal/core/patch"
	"github.com/penwyp/go-project-history/internal/core/share"
	"github.com/penwyp/go-project-history/internal/core/timeline"
	"github.com/penwyp/go-project-history/internal/data/parser"
	"github.com/penwyp/go-project-history/internal/data/scanner"
	"github.com/penwyp/go-project-history/internal/presentation/preview"
	"github.com/penwyp/go-project-history/internal/util"
)

// ErrCopyTargetNotEmpty is returned when a copy would be written into a directory that already has content
var ErrCopyTargetNotEmpty = errors.New("copy target directory is not empty")

// Session owns the components serving one project: loaders, the coordinator and,
// when configured, the preview connection and the log watcher.
type Session struct {
	config      *RewindConfig
	parser      *parser.Parser
	scanner     *scanner.FileScanner
	builder     *timeline.TimelineBuilder
	coordinator *Coordinator

	closers []io.Closer
}

// SessionOptions selects the optional parts of a session
type SessionOptions struct {
	// Preview connects to the configured surface URL
	Preview bool
	// Fetcher overrides the HTTP share fetcher
	Fetcher share.Fetcher
	// Surface overrides the preview connection
	Surface preview.Surface
}

// NewSession validates config, wires the components and loads the history
func NewSession(ctx context.Context, config *RewindConfig, opts SessionOptions) (*Session, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	excludes := config.Exclude
	if len(excludes) == 0 {
		excludes = scanner.DefaultExcludes
	}
	fileScanner, err := scanner.NewFileScanner(config.ProjectDir, config.Include, excludes)
	if err != nil {
		return nil, fmt.Errorf("failed to create project scanner: %w", err)
	}

	s := &Session{
		config:  config,
		parser:  parser.NewParser(),
		scanner: fileScanner,
		builder: timeline.NewTimelineBuilder(config.Timezone, config.TimeFormat),
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = share.NewHTTPFetcher(config.ShareBaseURL).WithTimeout(config.ShareTimeout)
	}

	surface := opts.Surface
	if surface == nil && opts.Preview && config.SurfaceURL != "" {
		client, err := preview.Dial(ctx, config.SurfaceURL)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, client)
		surface = client
	}

	s.coordinator = NewCoordinator(
		history.NewWalker(history.NewPatchApplier()),
		history.NewSnapshotApplier(history.OverlayMerger{KeepLiveOnly: config.KeepLiveOnly}),
		fetcher,
		patch.NewPatcher(config.ConfigFile, config.VersionField),
		s.builder,
		surface,
	)

	if err := s.Reload(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Coordinator returns the session's coordinator
func (s *Session) Coordinator() *Coordinator {
	return s.coordinator
}

// Builder returns the timeline builder used for labels
func (s *Session) Builder() *timeline.TimelineBuilder {
	return s.builder
}

// LoadHistory parses the configured history file
func (s *Session) LoadHistory() (model.HistoryLog, error) {
	return s.parser.ParseFile(s.config.HistoryFile)
}

// LoadLive scans the project directory
func (s *Session) LoadLive() (model.ProjectFileSet, error) {
	return s.scanner.Scan()
}

// Reload re-reads the log and the live files and rebuilds the timeline
func (s *Session) Reload() error {
	log, err := s.LoadHistory()
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	live, err := s.LoadLive()
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}
	return s.coordinator.SetHistory(log, live)
}

// Watch reloads the session whenever the history file changes, until ctx ends
func (s *Session) Watch(ctx context.Context) error {
	watcher, err := NewLogWatcher(s.config.HistoryFile, s.config.WatchDebounce)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.config.HistoryFile, err)
	}
	s.closers = append(s.closers, watcher)

	go watcher.Run(ctx, func() {
		if err := s.Reload(); err != nil {
			util.LogErrorf("Failed to reload history: %v", err)
			return
		}
		util.LogInfo("History reloaded")
	})
	return nil
}

// WriteRestore makes project the live state of the project directory and selects it
func (s *Session) WriteRestore(ctx context.Context, project model.ReconstructedProject) error {
	if err := s.scanner.WriteProject(s.config.ProjectDir, project.Files, scanner.WriteOptions{Prune: true}); err != nil {
		return err
	}
	live, err := s.LoadLive()
	if err != nil {
		return err
	}
	log, err := s.LoadHistory()
	if err != nil {
		return err
	}
	if err := s.coordinator.SetHistory(log, live); err != nil {
		return err
	}
	return s.coordinator.SelectEntry(ctx, model.NowEntry())
}

// WriteCopy writes project into a new directory. The directory must be missing or empty;
// nothing already on disk is removed or overwritten.
func (s *Session) WriteCopy(project model.ReconstructedProject, dir string) error {
	entries, err := os.ReadDir(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("failed to inspect %s: %w", dir, err)
	case len(entries) > 0:
		return fmt.Errorf("%w: %s", ErrCopyTargetNotEmpty, dir)
	}
	return s.scanner.WriteProject(dir, project.Files, scanner.WriteOptions{})
}

// Close releases the preview connection and the watcher
func (s *Session) Close() error {
	var firstErr error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closers = nil
	return firstErr
}
