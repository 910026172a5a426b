package etl

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// EpochUnit is the unit numeric timestamps are counted in.
type EpochUnit string

const (
	EpochSeconds      EpochUnit = "s"
	EpochMilliseconds EpochUnit = "ms"
	EpochMicroseconds EpochUnit = "us"
	EpochNanoseconds  EpochUnit = "ns"
)

// ParseEpochUnit validates a unit name. Empty means nanoseconds.
func ParseEpochUnit(s string) (EpochUnit, error) {
	switch u := EpochUnit(strings.ToLower(strings.TrimSpace(s))); u {
	case "":
		return EpochNanoseconds, nil
	case EpochSeconds, EpochMilliseconds, EpochMicroseconds, EpochNanoseconds:
		return u, nil
	default:
		return "", fmt.Errorf("%w: epoch unit %q (want s, ms, us or ns)", ErrInvalidConfig, s)
	}
}

func (u EpochUnit) nanos() float64 {
	switch u {
	case EpochSeconds:
		return 1e9
	case EpochMilliseconds:
		return 1e6
	case EpochMicroseconds:
		return 1e3
	default:
		return 1
	}
}

// Layouts tried in order. Layouts without a zone parse as UTC, and zone
// abbreviations are never resolved against the host's local zone.
// A fractional second after the seconds field is accepted by time.Parse
// even when the layout has none.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02 15:04:05 Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	time.RFC1123Z,
	time.RFC1123,
}

// Instants outside the int64 nanosecond range are rejected so every
// stored value has the same representable precision.
var (
	minInstant = time.Unix(0, math.MinInt64).UTC()
	maxInstant = time.Unix(0, math.MaxInt64).UTC()
)

// CoerceTimestamp parses v as an instant and returns it in UTC.
// ok is false for nil, empty, unparseable, boolean, NaN or out-of-range
// values. Numbers are offsets from the Unix epoch in unit.
func CoerceTimestamp(v any, unit EpochUnit) (t time.Time, ok bool) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		t = x
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		t = *x
	case string:
		t, ok = parseTimestampString(x)
		if !ok {
			return time.Time{}, false
		}
	case int64:
		return fromEpoch(float64(x), x, unit)
	case int:
		return fromEpoch(float64(x), int64(x), unit)
	case int32:
		return fromEpoch(float64(x), int64(x), unit)
	case float64:
		return fromEpochFloat(x, unit)
	case float32:
		return fromEpochFloat(float64(x), unit)
	default:
		return time.Time{}, false
	}
	return inRange(t.UTC())
}

func parseTimestampString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func fromEpoch(f float64, n int64, unit EpochUnit) (time.Time, bool) {
	if unit == EpochNanoseconds || unit == "" {
		return time.Unix(0, n).UTC(), true
	}
	return fromEpochFloat(f, unit)
}

func fromEpochFloat(f float64, unit EpochUnit) (time.Time, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, false
	}
	ns := f * unit.nanos()
	if ns < math.MinInt64 || ns >= math.MaxInt64 {
		return time.Time{}, false
	}
	return time.Unix(0, int64(ns)).UTC(), true
}

func inRange(t time.Time) (time.Time, bool) {
	if t.Before(minInstant) || t.After(maxInstant) {
		return time.Time{}, false
	}
	return t, true
}
