package domain

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-day format accepted at the API boundary.
const DateLayout = "2006-01-02"

// allTimeKey is the cache key of the unbounded range.
// Bounded keys always start with a digit, so the two never collide.
const allTimeKey = "allTime"

// DateRange selects a window of a price series.
// It is either AllTime or Bounded(from, to) with from inclusive and to exclusive.
type DateRange struct {
	bounded bool
	from    time.Time
	to      time.Time
}

// AllTime returns the range covering the whole recorded history.
func AllTime() DateRange {
	return DateRange{}
}

// Bounded returns the half-open range [from, to). Bounds are normalized to UTC.
func Bounded(from, to time.Time) DateRange {
	return DateRange{bounded: true, from: from.UTC(), to: to.UTC()}
}

// NewDateRange builds a range from optional bounds.
// Unless both bounds are present the range is AllTime.
func NewDateRange(from, to *time.Time) DateRange {
	if from == nil || to == nil {
		return AllTime()
	}
	return Bounded(*from, *to)
}

// IsAllTime reports whether r is the unbounded range.
func (r DateRange) IsAllTime() bool {
	return !r.bounded
}

// From returns the inclusive lower bound. Zero for AllTime.
func (r DateRange) From() time.Time {
	return r.from
}

// To returns the exclusive upper bound. Zero for AllTime.
func (r DateRange) To() time.Time {
	return r.to
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	if !r.bounded {
		return true
	}
	return !t.Before(r.from) && t.Before(r.to)
}

// Key returns the stable encoding of the range used in cache keys.
func (r DateRange) Key() string {
	if !r.bounded {
		return allTimeKey
	}
	return fmt.Sprintf("%s-%s", r.from.Format(time.RFC3339Nano), r.to.Format(time.RFC3339Nano))
}

// String implements fmt.Stringer.
func (r DateRange) String() string {
	if !r.bounded {
		return "all-time"
	}
	return fmt.Sprintf("[%s, %s)", r.from.Format(time.RFC3339), r.to.Format(time.RFC3339))
}

// StartOfDay truncates t to 00:00 UTC of its calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayRange returns the single calendar day [day 00:00, next day 00:00).
func DayRange(day time.Time) DateRange {
	from := StartOfDay(day)
	return Bounded(from, from.AddDate(0, 0, 1))
}

// DaysRange converts optional calendar days into a range.
// Both days map to their start of day, so toDay itself is excluded.
// A single missing day yields AllTime.
func DaysRange(fromDay, toDay *time.Time) DateRange {
	if fromDay == nil || toDay == nil {
		return AllTime()
	}
	return Bounded(StartOfDay(*fromDay), StartOfDay(*toDay))
}

// ParseDay parses a yyyy-MM-dd calendar day as UTC midnight.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
