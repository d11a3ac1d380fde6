// Package schedule computes concrete occurrence dates for recurring
// payments and decides which reminder rules fire on a given day. All
// functions are pure: the current date is always a parameter.
package schedule

import (
	"errors"
	"fmt"
)

// Interval is the recurrence step of a payment series.
type Interval int

const (
	IntervalNone Interval = iota // single occurrence at the anchor date
	IntervalDaily
	IntervalWeekly
	IntervalMonthly
	IntervalYearly
)

// ErrInvalidInterval indicates a recurring interval value outside the
// known set. It is a configuration error: the affected payment must be
// skipped, never defaulted.
var ErrInvalidInterval = errors.New("invalid recurring interval")

// ParseInterval maps the stored interval text to an Interval.
func ParseInterval(s string) (Interval, error) {
	switch s {
	case "NONE":
		return IntervalNone, nil
	case "DAILY":
		return IntervalDaily, nil
	case "WEEKLY":
		return IntervalWeekly, nil
	case "MONTHLY":
		return IntervalMonthly, nil
	case "YEARLY":
		return IntervalYearly, nil
	default:
		return IntervalNone, fmt.Errorf("%w: %q", ErrInvalidInterval, s)
	}
}

func (i Interval) String() string {
	switch i {
	case IntervalNone:
		return "NONE"
	case IntervalDaily:
		return "DAILY"
	case IntervalWeekly:
		return "WEEKLY"
	case IntervalMonthly:
		return "MONTHLY"
	case IntervalYearly:
		return "YEARLY"
	default:
		return fmt.Sprintf("Interval(%d)", int(i))
	}
}
