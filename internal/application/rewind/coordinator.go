package rewind

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/penwyp/go-project-history/internal/core/history"
	"github.com/penwyp/go-project-history/internal/core/model"
	"github.com/penwyp/go-project-history/internal/core/patch"
	"github.com/penwyp/go-project-history/internal/core/share"
	"github.com/penwyp/go-project-history/internal/core/timeline"
	"github.com/penwyp/go-project-history/internal/presentation/preview"
	"github.com/penwyp/go-project-history/internal/util"
)

var (
	// ErrShareInFlight is returned when a request is refused because a share fetch is outstanding
	ErrShareInFlight = errors.New("share fetch in progress")
	// ErrNothingToRestore is returned by Restore while the live project is selected
	ErrNothingToRestore = errors.New("live project selected, nothing to restore")
	// ErrUnknownKind is returned for entries whose kind cannot be reconstructed
	ErrUnknownKind = errors.New("unknown entry kind")
)

// DeliveryState is the state of the preview delivery machine
type DeliveryState int

const (
	StateIdle DeliveryState = iota
	StateLoading
	StateLoadingWithPending
)

func (s DeliveryState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoadingWithPending:
		return "loading+pending"
	default:
		return "unknown"
	}
}

// request is one selection waiting to be reconstructed and delivered
type request struct {
	ctx   context.Context
	seq   uint64
	entry model.TimeEntry
	// resolved is set when the project is known up front (the live files)
	resolved *model.ReconstructedProject
}

// Coordinator turns timeline selections into reconstructed projects and keeps the
// preview surface at most one selection behind. One instance serves one session.
type Coordinator struct {
	walker    *history.Walker
	snapshots *history.SnapshotApplier
	fetcher   share.Fetcher
	patcher   *patch.Patcher
	builder   *timeline.TimelineBuilder
	surface   preview.Surface

	mu   sync.Mutex
	idle *sync.Cond

	log     model.HistoryLog
	live    model.ProjectFileSet
	buckets []model.TimelineBucket

	// active is the committed selection; it changes only once a request completes
	active model.TimeEntry
	// seq numbers requests; only the newest may deliver
	seq uint64

	state   DeliveryState
	pending *request

	// shareHolder is the seq of the share request holding the share lock, zero when free.
	// The lock is taken when a share is accepted and released once its fetch ends or it is dropped.
	shareHolder uint64

	warnings chan Warning
}

// NewCoordinator wires a coordinator. A nil surface holds results for Restore/SaveCopy only.
func NewCoordinator(walker *history.Walker, snapshots *history.SnapshotApplier, fetcher share.Fetcher,
	patcher *patch.Patcher, builder *timeline.TimelineBuilder, surface preview.Surface) *Coordinator {
	c := &Coordinator{
		walker:    walker,
		snapshots: snapshots,
		fetcher:   fetcher,
		patcher:   patcher,
		builder:   builder,
		surface:   surface,
		live:      model.ProjectFileSet{},
		active:    model.NowEntry(),
		warnings:  make(chan Warning, 16),
	}
	c.idle = sync.NewCond(&c.mu)
	c.buckets = builder.Build(c.log)
	return c
}

// SetHistory swaps in a new log and live file set and rebuilds the timeline from scratch
func (c *Coordinator) SetHistory(log model.HistoryLog, live model.ProjectFileSet) error {
	if err := log.Validate(); err != nil {
		return err
	}
	buckets := c.builder.Build(log)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.log = log
	c.live = live.Clone()
	c.buckets = buckets

	util.LogDebugf("History updated: %d diffs, %d snapshots, %d shares, %d days",
		len(log.Entries), len(log.Snapshots), len(log.Shares), len(buckets))
	return nil
}

// Timeline returns a copy of the current day buckets, most recent first
func (c *Coordinator) Timeline() []model.TimelineBucket {
	c.mu.Lock()
	defer c.mu.Unlock()
	buckets := make([]model.TimelineBucket, len(c.buckets))
	for i, bucket := range c.buckets {
		bucket.Entries = append([]model.TimeEntry(nil), bucket.Entries...)
		buckets[i] = bucket
	}
	return buckets
}

// Selection returns the committed selection
func (c *Coordinator) Selection() model.TimeEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// State returns the delivery machine's state
func (c *Coordinator) State() DeliveryState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Warnings reports recovered preview failures
func (c *Coordinator) Warnings() <-chan Warning {
	return c.warnings
}

// Wait blocks until no delivery is in flight or pending
func (c *Coordinator) Wait() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.state != StateIdle {
		c.idle.Wait()
	}
}

// SelectEntry previews entry. Selecting NowEntry switches to the live files immediately.
// Other entries are reconstructed asynchronously; only the latest selection is delivered.
func (c *Coordinator) SelectEntry(ctx context.Context, entry model.TimeEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.shareHolder != 0 && (entry.IsNow() || entry.Kind == model.KindShare) {
		if entry.Kind == model.KindShare {
			// The outstanding fetch no longer reflects the latest request.
			c.seq++
		}
		util.LogDebugf("Refusing %s selection at %d: share fetch in progress", entry.Kind, entry.Timestamp)
		return ErrShareInFlight
	}

	c.seq++
	req := &request{ctx: ctx, seq: c.seq, entry: entry}
	switch {
	case entry.IsNow():
		c.active = entry
		req.resolved = &model.ReconstructedProject{Files: c.live.Clone()}
	case entry.Kind == model.KindShare:
		c.shareHolder = req.seq
	}
	c.enqueueLocked(req)
	return nil
}

// Restore reconstructs the committed selection for the caller to make live.
// Failures are returned rather than recovered.
func (c *Coordinator) Restore(ctx context.Context) (model.ReconstructedProject, error) {
	entry := c.Selection()
	if entry.IsNow() {
		return model.ReconstructedProject{}, ErrNothingToRestore
	}
	return c.Reconstruct(ctx, entry)
}

// SaveCopy reconstructs the committed selection, or the live files when "now" is selected
func (c *Coordinator) SaveCopy(ctx context.Context) (model.ReconstructedProject, error) {
	return c.Reconstruct(ctx, c.Selection())
}

// Reconstruct produces the patched project for entry against the current log.
// Shares are always fetched afresh.
func (c *Coordinator) Reconstruct(ctx context.Context, entry model.TimeEntry) (model.ReconstructedProject, error) {
	c.mu.Lock()
	log, live := c.log, c.live
	c.mu.Unlock()

	if entry.IsNow() {
		return model.ReconstructedProject{Files: live.Clone()}, nil
	}
	project, err := c.resolve(ctx, log, live, entry)
	if err != nil {
		return model.ReconstructedProject{}, err
	}
	return c.patcher.PatchVersion(project), nil
}

func (c *Coordinator) enqueueLocked(req *request) {
	switch c.state {
	case StateIdle:
		c.state = StateLoading
		go c.run(req)
	case StateLoading, StateLoadingWithPending:
		if c.pending != nil {
			util.LogDebugf("Selection %d superseded by %d", c.pending.seq, req.seq)
			c.releaseShareLocked(c.pending.seq)
		}
		c.pending = req
		c.state = StateLoadingWithPending
	}
}

// run processes req and then whatever occupies the pending slot until the slot is empty
func (c *Coordinator) run(req *request) {
	for req != nil {
		c.process(req)

		c.mu.Lock()
		req = c.pending
		c.pending = nil
		if req == nil {
			c.state = StateIdle
			c.idle.Broadcast()
		} else {
			c.state = StateLoading
		}
		c.mu.Unlock()
	}
}

func (c *Coordinator) process(req *request) {
	c.mu.Lock()
	if req.seq != c.seq {
		c.releaseShareLocked(req.seq)
		c.mu.Unlock()
		util.LogDebugf("Skipping superseded selection %d", req.seq)
		return
	}
	log, live := c.log, c.live
	c.mu.Unlock()

	var project model.ReconstructedProject
	var err error
	if req.resolved != nil {
		project = *req.resolved
	} else {
		project, err = c.resolve(req.ctx, log, live, req.entry)
		if err == nil {
			project = c.patcher.PatchVersion(project)
		}
	}

	c.mu.Lock()
	c.releaseShareLocked(req.seq)
	if req.seq != c.seq {
		c.mu.Unlock()
		util.LogDebugf("Discarding stale result for selection %d", req.seq)
		return
	}

	if err != nil {
		if model.IsShareFetchError(err) {
			util.LogWarnf("Share %s unreachable, reverting to live project: %v", req.entry.ShareID, err)
			c.active = model.NowEntry()
			project = model.ReconstructedProject{Files: c.live.Clone()}
			c.mu.Unlock()
			c.warn(Warning{Kind: WarningShareUnreachable, Entry: req.entry, Err: err})
			c.deliver(req.ctx, project)
			return
		}
		c.mu.Unlock()
		util.LogErrorf("Failed to reconstruct %s at %d: %v", req.entry.Kind, req.entry.Timestamp, err)
		c.warn(Warning{Kind: WarningLocalUnavailable, Entry: req.entry, Err: err})
		return
	}

	c.active = req.entry
	c.mu.Unlock()
	c.deliver(req.ctx, project)
}

// releaseShareLocked frees the share lock if the request numbered seq holds it
func (c *Coordinator) releaseShareLocked(seq uint64) {
	if c.shareHolder == seq {
		c.shareHolder = 0
	}
}

func (c *Coordinator) resolve(ctx context.Context, log model.HistoryLog, live model.ProjectFileSet, entry model.TimeEntry) (model.ReconstructedProject, error) {
	switch entry.Kind {
	case model.KindDiff:
		return c.walker.Reconstruct(live, log.Entries, entry.Timestamp)
	case model.KindSnapshot:
		snap, ok := log.FindSnapshot(entry.Timestamp)
		if !ok {
			return model.ReconstructedProject{}, fmt.Errorf("%w: snapshot at %d", model.ErrEntryNotFound, entry.Timestamp)
		}
		return c.snapshots.Reconstruct(live, snap), nil
	case model.KindShare:
		shared, ok := log.FindShare(entry.Timestamp, entry.ShareID)
		if !ok {
			return model.ReconstructedProject{}, fmt.Errorf("%w: share %s at %d", model.ErrEntryNotFound, entry.ShareID, entry.Timestamp)
		}
		return c.fetcher.FetchShare(ctx, shared)
	}
	return model.ReconstructedProject{}, fmt.Errorf("%w: %q", ErrUnknownKind, entry.Kind)
}

func (c *Coordinator) deliver(ctx context.Context, project model.ReconstructedProject) {
	if c.surface == nil {
		return
	}
	if err := c.surface.ImportProject(ctx, project.Files); err != nil {
		util.LogErrorf("Failed to deliver project to preview surface: %v", err)
		return
	}
	util.LogDebugf("Delivered %s (%s)", util.Plural(len(project.Files), "file", "files"), project.Files.Digest()[:12])
}

func (c *Coordinator) warn(w Warning) {
	select {
	case c.warnings <- w:
	default:
		util.LogWarnf("Dropping warning, channel full: %s", w.Message())
	}
}
