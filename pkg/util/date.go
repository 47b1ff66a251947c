package util

import (
	"strconv"
	"time"
)

// unix values above this are taken as milliseconds
const msThreshold = 1e11

// ParseTime accepts RFC3339, RFC3339Nano, unix seconds or unix milliseconds.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return FromUnixAuto(ts), true
	}
	return time.Time{}, false
}

// FromUnixAuto converts seconds or milliseconds since epoch, picking the unit by magnitude.
func FromUnixAuto(ts int64) time.Time {
	if ts > msThreshold {
		return time.UnixMilli(ts).UTC()
	}
	return time.Unix(ts, 0).UTC()
}
