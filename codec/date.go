package codec

import (
	"math"
	"time"

	"github.com/reoring/skemabridge/internal/values"
)

// EpochMillis returns t as milliseconds since the Unix epoch. Sub-millisecond
// precision is dropped.
func EpochMillis(t time.Time) int64 { return t.UnixMilli() }

// FromEpochMillis reconstructs a UTC time from milliseconds since the Unix
// epoch.
func FromEpochMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func encodeDate(v any) any {
	if t, ok := values.Time(v); ok {
		return EpochMillis(t)
	}
	return v
}

// decodeDate accepts integral and fractional milliseconds as well as
// RFC3339 strings written by hand; anything else passes through.
func decodeDate(v any) any {
	switch t := v.(type) {
	case time.Time, *time.Time:
		return v
	case string:
		if parsed, err := parseRFC3339(t); err == nil {
			return parsed
		}
		return v
	}
	if ms, ok := values.Int64(v); ok {
		return FromEpochMillis(ms)
	}
	if f, ok := values.Float64(v); ok && !math.IsInf(f, 0) {
		return FromEpochMillis(int64(math.Floor(f)))
	}
	return v
}

func parseRFC3339(s string) (time.Time, error) {
	// Accept RFC3339Nano (trailing zeros optional)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2.UTC(), nil
		}
		return time.Time{}, err
	}
	return t.UTC(), nil
}
