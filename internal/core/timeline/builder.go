package timeline

import (
	"sort"
	"time"

	"github.com/penwyp/go-project-history/internal/core/model"
	"github.com/penwyp/go-project-history/internal/util"
)

// TimelineBuilder derives day-bucketed, deduplicated selectable instants from a history log
type TimelineBuilder struct {
	timezone   *time.Location
	timeLayout string
	now        func() time.Time
}

// NewTimelineBuilder creates a new timeline builder
func NewTimelineBuilder(timezone, timeFormat string) *TimelineBuilder {
	loc, err := util.LoadLocation(timezone)
	if err != nil {
		util.LogWarnf("Falling back to local timezone: %v", err)
		loc = time.Local
	}

	layout := TimeLayout24h
	if timeFormat == TimeFormat12h {
		layout = TimeLayout12h
	}

	return &TimelineBuilder{
		timezone:   loc,
		timeLayout: layout,
		now:        time.Now,
	}
}

// WithClock replaces the clock used to decide which day is today
func (tb *TimelineBuilder) WithClock(now func() time.Time) *TimelineBuilder {
	tb.now = now
	return tb
}

// Location returns the timezone labels are rendered in
func (tb *TimelineBuilder) Location() *time.Location {
	return tb.timezone
}

// Build computes the whole timeline. It never patches a previous result: the output
// depends only on the log and the current day.
func (tb *TimelineBuilder) Build(log model.HistoryLog) []model.TimelineBucket {
	pools := make(map[int64]*dayPool)
	poolFor := func(ts int64) *dayPool {
		day := tb.dayOf(ts)
		key := day.Unix()
		pool, ok := pools[key]
		if !ok {
			pool = newDayPool(day)
			pools[key] = pool
		}
		return pool
	}

	for _, e := range log.Entries {
		poolFor(e.Timestamp).addSave(tb.entry(e.Timestamp, model.KindDiff))
	}
	for _, s := range log.Snapshots {
		poolFor(s.Timestamp).addSave(tb.entry(s.Timestamp, model.KindSnapshot))
	}
	for _, s := range log.Shares {
		entry := tb.entry(s.Timestamp, model.KindShare)
		entry.ShareID = s.ID
		poolFor(s.Timestamp).addShare(entry)
	}

	buckets := make([]model.TimelineBucket, 0, len(pools)+1)
	for _, pool := range pools {
		entries := make([]model.TimeEntry, 0, len(pool.saves)+len(pool.shares))
		for _, e := range pool.saves {
			entries = append(entries, e)
		}
		entries = append(entries, pool.shares...)
		sortEntries(entries)

		buckets = append(buckets, model.TimelineBucket{
			Label:   pool.day.Format(DayLabelLayout),
			Day:     pool.day,
			Entries: entries,
		})
	}

	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Day.After(buckets[j].Day)
	})

	return tb.withNow(buckets)
}

// withNow puts the live entry first in today's bucket, creating that bucket when needed
func (tb *TimelineBuilder) withNow(buckets []model.TimelineBucket) []model.TimelineBucket {
	today := tb.truncateDay(tb.now().In(tb.timezone))
	now := model.NowEntry()

	if len(buckets) > 0 && buckets[0].Day.Equal(today) {
		buckets[0].Entries = append([]model.TimeEntry{now}, buckets[0].Entries...)
		return buckets
	}

	top := model.TimelineBucket{
		Label:   today.Format(DayLabelLayout),
		Day:     today,
		Entries: []model.TimeEntry{now},
	}
	return append([]model.TimelineBucket{top}, buckets...)
}

func (tb *TimelineBuilder) entry(ts int64, kind model.EntryKind) model.TimeEntry {
	return model.TimeEntry{
		Label:     tb.FormatTime(ts),
		Timestamp: ts,
		Kind:      kind,
	}
}

// FormatTime renders a millisecond timestamp as a time-of-day label
func (tb *TimelineBuilder) FormatTime(ts int64) string {
	return time.UnixMilli(ts).In(tb.timezone).Format(tb.timeLayout)
}

func (tb *TimelineBuilder) dayOf(ts int64) time.Time {
	return tb.truncateDay(time.UnixMilli(ts).In(tb.timezone))
}

func (tb *TimelineBuilder) truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, tb.timezone)
}

// sortEntries orders most recent first. Ties are broken by kind and share id so
// that identical logs always render identically.
func sortEntries(entries []model.TimeEntry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Timestamp != b.Timestamp {
			return a.Timestamp > b.Timestamp
		}
		if a.Kind != b.Kind {
			return kindRank(a.Kind) < kindRank(b.Kind)
		}
		return a.ShareID < b.ShareID
	})
}

func kindRank(kind model.EntryKind) int {
	switch kind {
	case model.KindSnapshot:
		return 0
	case model.KindDiff:
		return 1
	default:
		return 2
	}
}
