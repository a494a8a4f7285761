package model

import (
	"errors"
	"fmt"
)

// ErrUnorderedEntries is returned when diff entries are not in ascending timestamp order
var ErrUnorderedEntries = errors.New("history entries out of order")

// ErrEntryNotFound is returned when a TimeEntry has no counterpart in the history log
var ErrEntryNotFound = errors.New("history entry not found")

// ShareFetchError classifies any failure retrieving a shared project
type ShareFetchError struct {
	ID  string
	Op  string // "text" or "meta"
	Err error
}

func (e *ShareFetchError) Error() string {
	return fmt.Sprintf("share %s: fetch %s: %v", e.ID, e.Op, e.Err)
}

func (e *ShareFetchError) Unwrap() error {
	return e.Err
}

// Kind returns the classification used for user messaging
func (e *ShareFetchError) Kind() string {
	return "share"
}

// IsShareFetchError reports whether err is, or wraps, a ShareFetchError
func IsShareFetchError(err error) bool {
	var shareErr *ShareFetchError
	return errors.As(err, &shareErr)
}
