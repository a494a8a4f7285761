package timeline

import (
	"time"

	"github.com/penwyp/go-project-history/internal/core/model"
)

// Label layouts
const (
	DayLabelLayout = "Monday, January 2, 2006"
	TimeLayout24h  = "15:04"
	TimeLayout12h  = "3:04 PM"
	TimeFormat24h  = "24h"
	TimeFormat12h  = "12h"
)

// dayPool collects the entries of one calendar day before they become a bucket
type dayPool struct {
	day    time.Time
	saves  map[string]model.TimeEntry // diff and snapshot entries keyed by label
	shares []model.TimeEntry          // never deduplicated
}

func newDayPool(day time.Time) *dayPool {
	return &dayPool{
		day:   day,
		saves: make(map[string]model.TimeEntry),
	}
}

// addSave keeps one entry per label: a snapshot beats a diff, then the later timestamp wins
func (p *dayPool) addSave(entry model.TimeEntry) {
	existing, ok := p.saves[entry.Label]
	if !ok || supersedes(entry, existing) {
		p.saves[entry.Label] = entry
	}
}

func (p *dayPool) addShare(entry model.TimeEntry) {
	p.shares = append(p.shares, entry)
}

func supersedes(candidate, existing model.TimeEntry) bool {
	if candidate.Kind != existing.Kind {
		return candidate.Kind == model.KindSnapshot
	}
	return candidate.Timestamp > existing.Timestamp
}
