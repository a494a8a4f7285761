package timeline

import (
	"errors"
	"testing"

	"github.com/penwyp/go-project-history/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFind(t *testing.T) {
	buckets := []model.TimelineBucket{
		{Entries: []model.TimeEntry{
			model.NowEntry(),
			{Label: "10:05", Timestamp: 2000, Kind: model.KindShare, ShareID: "_abc"},
			{Label: "10:00", Timestamp: 1500, Kind: model.KindDiff},
		}},
		{Entries: []model.TimeEntry{
			{Label: "10:00", Timestamp: 500, Kind: model.KindSnapshot},
		}},
	}

	tests := []struct {
		ref  string
		want int64
	}{
		{ref: "now", want: model.NowTimestamp},
		{ref: " Now ", want: model.NowTimestamp},
		{ref: "500", want: 500},
		{ref: "_abc", want: 2000},
		{ref: "10:00", want: 1500},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := Find(buckets, tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Timestamp)
		})
	}

	for _, ref := range []string{"999", "_missing", "11:00"} {
		_, err := Find(buckets, ref)
		assert.True(t, errors.Is(err, model.ErrEntryNotFound), ref)
	}
}
