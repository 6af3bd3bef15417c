package apierr

import (
	"errors"
	"strings"
	"time"
)

var unlockLayouts = []string{
	"2006-01-02 15:04:05.0",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// ErrUnlockTime is returned when an unlock timestamp cannot be parsed.
var ErrUnlockTime = errors.New("invalid unlock timestamp")

// ParseUnlockTime parses the unlock instant sent with LOCKED_TEMPORARILY.
// Timestamps without a zone are interpreted in loc (UTC when nil).
func ParseUnlockTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrUnlockTime
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range unlockLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrUnlockTime
}

// LockedTime is a remaining lock duration expressed in whole hours, or in
// whole minutes when less than an hour remains.
type LockedTime struct {
	Time    int
	IsHours bool
}

// UserLockedTime returns the time left between now and unlock.
func UserLockedTime(unlock, now time.Time) LockedTime {
	left := unlock.Sub(now)
	if left < 0 {
		left = 0
	}
	if hours := int(left / time.Hour); hours >= 1 {
		return LockedTime{Time: hours, IsHours: true}
	}
	return LockedTime{Time: int(left / time.Minute), IsHours: false}
}
