package schedule

import "time"

// Rule is a reminder rule attached to a payment: notify DaysBefore
// days ahead of an occurrence. Non-recurring rules apply only to the
// anchor occurrence of the series.
type Rule struct {
	ID         string
	DaysBefore int
	Recurring  bool
}

// Due pairs a rule with the occurrence date it fires for.
type Due struct {
	Date time.Time
	Rule Rule
}

// DueOn returns every (occurrence, rule) pair that triggers today.
// A pair triggers when occurrence - DaysBefore equals today. Rules
// with Recurring false are evaluated against the anchor date only,
// regardless of how far the series was expanded.
func DueOn(today, anchor time.Time, occurrences []time.Time, rules []Rule) []Due {
	today = Date(today)
	anchor = Date(anchor)

	var due []Due
	for _, r := range rules {
		if r.DaysBefore < 0 {
			continue
		}
		if !r.Recurring {
			if anchor.AddDate(0, 0, -r.DaysBefore).Equal(today) {
				due = append(due, Due{Date: anchor, Rule: r})
			}
			continue
		}
		for _, occ := range occurrences {
			if Date(occ).AddDate(0, 0, -r.DaysBefore).Equal(today) {
				due = append(due, Due{Date: Date(occ), Rule: r})
			}
		}
	}
	return due
}
