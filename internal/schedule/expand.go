package schedule

import (
	"fmt"
	"time"
)

// Date truncates t to a UTC calendar date. Time-of-day on payment
// anchors is ignored throughout the pipeline.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Expand materialises the occurrence dates of a payment series up to
// and including horizonEnd. A NONE interval yields the anchor date
// alone (or nothing if it lies beyond the horizon). Month and year
// steps follow calendar arithmetic: an anchor on the 31st lands on the
// last valid day of shorter months. Each occurrence is computed from
// the anchor, so clamping in one month never shifts later ones.
func Expand(anchor time.Time, interval Interval, horizonEnd time.Time) ([]time.Time, error) {
	anchor = Date(anchor)
	horizonEnd = Date(horizonEnd)

	if interval == IntervalNone {
		if anchor.After(horizonEnd) {
			return nil, nil
		}
		return []time.Time{anchor}, nil
	}

	var step func(k int) time.Time
	switch interval {
	case IntervalDaily:
		step = func(k int) time.Time { return anchor.AddDate(0, 0, k) }
	case IntervalWeekly:
		step = func(k int) time.Time { return anchor.AddDate(0, 0, 7*k) }
	case IntervalMonthly:
		step = func(k int) time.Time { return addMonthsClamped(anchor, k) }
	case IntervalYearly:
		step = func(k int) time.Time { return addMonthsClamped(anchor, 12*k) }
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}

	var dates []time.Time
	for k := 0; ; k++ {
		d := step(k)
		if d.After(horizonEnd) {
			break
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// addMonthsClamped adds months keeping the anchor's day-of-month,
// clamped to the target month's length. time.AddDate would roll
// Jan 31 + 1 month over into March.
func addMonthsClamped(anchor time.Time, months int) time.Time {
	first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	day := anchor.Day()
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1).Day()
}
