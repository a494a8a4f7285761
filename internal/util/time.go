package util

import (
	"fmt"
	"time"
)

// LoadLocation resolves a timezone name. Empty and "Local" map to the system zone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w\nValid examples: Local, UTC, America/New_York, Asia/Shanghai, Europe/London, Australia/Sydney", timezone, err)
	}
	return loc, nil
}

// FromMillis converts a millisecond Unix timestamp into a time in loc
func FromMillis(ms int64, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(ms).In(loc)
}
