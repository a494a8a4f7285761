package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// EntryKind is the provenance of a selectable instant
type EntryKind string

// DiffEntry is one backward-applicable change recorded at a save.
// Applied to the file set as it existed at Timestamp, Diff yields the file set
// immediately before it. The payload is only interpreted by the diff-apply primitive.
type DiffEntry struct {
	Timestamp     int64           `json:"timestamp"`
	EditorVersion string          `json:"editorVersion"`
	Diff          json.RawMessage `json:"diff"`
}

// SnapshotEntry is a full checkpoint, independent of the diff chain
type SnapshotEntry struct {
	Timestamp     int64          `json:"timestamp"`
	EditorVersion string         `json:"editorVersion"`
	Text          ProjectFileSet `json:"text"`
}

// ShareEntry points at a project published to the share service
type ShareEntry struct {
	Timestamp int64  `json:"timestamp"`
	ID        string `json:"id"`
}

// HistoryLog is the whole recorded history of one project.
// It is read-only to this module.
type HistoryLog struct {
	Entries   []DiffEntry     `json:"entries"`
	Snapshots []SnapshotEntry `json:"snapshots"`
	Shares    []ShareEntry    `json:"shares"`
}

// Validate checks that diff entries are in strictly ascending timestamp order
func (h HistoryLog) Validate() error {
	for i := 1; i < len(h.Entries); i++ {
		if h.Entries[i].Timestamp <= h.Entries[i-1].Timestamp {
			return fmt.Errorf("%w: entry %d (%d) after entry %d (%d)",
				ErrUnorderedEntries, i, h.Entries[i].Timestamp, i-1, h.Entries[i-1].Timestamp)
		}
	}
	return nil
}

// IsEmpty reports whether nothing has been recorded
func (h HistoryLog) IsEmpty() bool {
	return len(h.Entries) == 0 && len(h.Snapshots) == 0 && len(h.Shares) == 0
}

// FindSnapshot returns the snapshot recorded at timestamp
func (h HistoryLog) FindSnapshot(timestamp int64) (SnapshotEntry, bool) {
	for _, s := range h.Snapshots {
		if s.Timestamp == timestamp {
			return s, true
		}
	}
	return SnapshotEntry{}, false
}

// FindShare returns the share recorded at timestamp. When id is non-empty it must match too.
func (h HistoryLog) FindShare(timestamp int64, id string) (ShareEntry, bool) {
	for _, s := range h.Shares {
		if s.Timestamp != timestamp {
			continue
		}
		if id == "" || s.ID == id {
			return s, true
		}
	}
	return ShareEntry{}, false
}

// TimeEntry is a selectable instant derived from the history log
type TimeEntry struct {
	Label     string    `json:"label"`
	Timestamp int64     `json:"timestamp"`
	Kind      EntryKind `json:"kind"`
	ShareID   string    `json:"shareId,omitempty"` // set for share entries only
}

// NowEntry returns the entry standing for the live file set
func NowEntry() TimeEntry {
	return TimeEntry{Label: NowLabel, Timestamp: NowTimestamp, Kind: KindSnapshot}
}

// IsNow reports whether the entry selects the live file set
func (e TimeEntry) IsNow() bool {
	return e.Timestamp == NowTimestamp
}

// Time returns the entry's timestamp as a time.Time
func (e TimeEntry) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// TimelineBucket groups the entries of one calendar day, most recent first
type TimelineBucket struct {
	Label   string      `json:"label"`
	Day     time.Time   `json:"day"`
	Entries []TimeEntry `json:"entries"`
}
