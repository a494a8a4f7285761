package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryLog_Validate(t *testing.T) {
	tests := []struct {
		name    string
		entries []DiffEntry
		wantErr bool
	}{
		{name: "empty", entries: nil},
		{name: "ascending", entries: []DiffEntry{{Timestamp: 1}, {Timestamp: 2}, {Timestamp: 5}}},
		{name: "duplicate", entries: []DiffEntry{{Timestamp: 1}, {Timestamp: 1}}, wantErr: true},
		{name: "descending", entries: []DiffEntry{{Timestamp: 3}, {Timestamp: 2}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := HistoryLog{Entries: tt.entries}.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnorderedEntries)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHistoryLog_FindShare(t *testing.T) {
	log := HistoryLog{Shares: []ShareEntry{
		{Timestamp: 10, ID: "a"},
		{Timestamp: 10, ID: "b"},
	}}

	s, ok := log.FindShare(10, "b")
	require.True(t, ok)
	assert.Equal(t, "b", s.ID)

	s, ok = log.FindShare(10, "")
	require.True(t, ok)
	assert.Equal(t, "a", s.ID)

	_, ok = log.FindShare(11, "")
	assert.False(t, ok)
}

func TestNowEntry(t *testing.T) {
	now := NowEntry()
	assert.True(t, now.IsNow())
	assert.Equal(t, KindSnapshot, now.Kind)
	assert.Equal(t, "Now", now.Label)
	assert.False(t, TimeEntry{Timestamp: 0, Kind: KindDiff}.IsNow())
}

func TestProjectFileSet_DigestAndClone(t *testing.T) {
	a := ProjectFileSet{"main.ts": "x", "pxt.json": "{}"}
	b := a.Clone()
	assert.Equal(t, a.Digest(), b.Digest())
	assert.Equal(t, []string{"main.ts", "pxt.json"}, b.Paths())

	b["main.ts"] = "y"
	assert.Equal(t, "x", a["main.ts"])
	assert.NotEqual(t, a.Digest(), b.Digest())

	// path/content boundaries must not collide
	c := ProjectFileSet{"ab": "c"}
	d := ProjectFileSet{"a": "bc"}
	assert.NotEqual(t, c.Digest(), d.Digest())
}

func TestShareFetchError(t *testing.T) {
	cause := errors.New("connection refused")
	var err error = &ShareFetchError{ID: "_abc", Op: "text", Err: cause}

	assert.True(t, IsShareFetchError(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "_abc")
	assert.False(t, IsShareFetchError(cause))
}
