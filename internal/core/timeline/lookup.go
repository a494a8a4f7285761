package timeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/penwyp/go-project-history/internal/core/model"
)

// Find resolves a user reference against a built timeline. A reference is "now",
// a millisecond timestamp, a share id or a time-of-day label; labels match the most
// recent entry carrying them.
func Find(buckets []model.TimelineBucket, ref string) (model.TimeEntry, error) {
	ref = strings.TrimSpace(ref)
	if strings.EqualFold(ref, model.NowLabel) {
		return model.NowEntry(), nil
	}

	if ts, err := strconv.ParseInt(ref, 10, 64); err == nil {
		if e, ok := first(buckets, func(e model.TimeEntry) bool { return e.Timestamp == ts }); ok {
			return e, nil
		}
		return model.TimeEntry{}, fmt.Errorf("%w: no entry at %d", model.ErrEntryNotFound, ts)
	}

	if e, ok := first(buckets, func(e model.TimeEntry) bool { return e.Kind == model.KindShare && e.ShareID == ref }); ok {
		return e, nil
	}
	if e, ok := first(buckets, func(e model.TimeEntry) bool { return !e.IsNow() && strings.EqualFold(e.Label, ref) }); ok {
		return e, nil
	}
	return model.TimeEntry{}, fmt.Errorf("%w: %q", model.ErrEntryNotFound, ref)
}

func first(buckets []model.TimelineBucket, match func(model.TimeEntry) bool) (model.TimeEntry, bool) {
	for _, bucket := range buckets {
		for _, e := range bucket.Entries {
			if match(e) {
				return e, true
			}
		}
	}
	return model.TimeEntry{}, false
}
