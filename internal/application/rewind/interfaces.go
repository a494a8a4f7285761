package rewind

import (
	"github.com/penwyp/go-project-history/internal/core/model"
)

// WarningKind distinguishes recovered preview failures
type WarningKind int

const (
	// WarningShareUnreachable means a share could not be fetched; the selection reverted to live
	WarningShareUnreachable WarningKind = iota
	// WarningLocalUnavailable means a diff or snapshot reconstruction failed
	WarningLocalUnavailable
)

// Warning is emitted when a preview selection fails and is recovered
type Warning struct {
	Kind  WarningKind
	Entry model.TimeEntry
	Err   error
}

// Message returns the user-facing text
func (w Warning) Message() string {
	switch w.Kind {
	case WarningShareUnreachable:
		return "shared version unreachable (offline?)"
	default:
		return "local version could not be restored, pick a different one"
	}
}
