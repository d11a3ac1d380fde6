package schedule

import (
	"testing"
	"time"
)

func TestDueOnBoundary(t *testing.T) {
	anchor := date(2024, time.June, 18)
	occ := []time.Time{anchor}
	rules := []Rule{{ID: "r1", DaysBefore: 3, Recurring: true}}

	tests := []struct {
		name  string
		today time.Time
		want  int
	}{
		{"exactly_days_before", date(2024, time.June, 15), 1},
		{"one_day_early", date(2024, time.June, 14), 0},
		{"one_day_late", date(2024, time.June, 16), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DueOn(tt.today, anchor, occ, rules)
			if len(got) != tt.want {
				t.Errorf("DueOn returned %d entries, want %d", len(got), tt.want)
			}
		})
	}
}

func TestDueOnNonRecurringRuleAnchorOnly(t *testing.T) {
	// Weekly payment with a 3-days-before non-recurring rule: only
	// week zero's date minus 3 days triggers anything.
	anchor := date(2024, time.June, 3)
	occ, err := Expand(anchor, IntervalWeekly, date(2024, time.June, 24))
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	rules := []Rule{{ID: "r1", DaysBefore: 3, Recurring: false}}

	got := DueOn(date(2024, time.May, 31), anchor, occ, rules)
	if len(got) != 1 {
		t.Fatalf("anchor trigger: got %d entries, want 1", len(got))
	}
	if !got[0].Date.Equal(anchor) {
		t.Errorf("triggered for %v, want anchor %v", got[0].Date, anchor)
	}

	// 3 days before the second occurrence must not trigger.
	if got := DueOn(date(2024, time.June, 7), anchor, occ, rules); len(got) != 0 {
		t.Errorf("non-recurring rule fired for a later occurrence: %v", got)
	}
}

func TestDueOnRecurringRuleEveryOccurrence(t *testing.T) {
	anchor := date(2024, time.June, 3)
	occ, err := Expand(anchor, IntervalWeekly, date(2024, time.June, 24))
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	rules := []Rule{{ID: "r1", DaysBefore: 3, Recurring: true}}

	for _, o := range occ {
		today := o.AddDate(0, 0, -3)
		got := DueOn(today, anchor, occ, rules)
		if len(got) != 1 || !got[0].Date.Equal(o) {
			t.Errorf("today %v: got %v, want single entry for %v", today, got, o)
		}
	}
}

func TestDueOnZeroOffset(t *testing.T) {
	anchor := date(2024, time.June, 15)
	rules := []Rule{{ID: "r1", DaysBefore: 0, Recurring: true}}

	got := DueOn(anchor, anchor, []time.Time{anchor}, rules)
	if len(got) != 1 {
		t.Fatalf("day-of reminder did not fire: %v", got)
	}
}

func TestDueOnMultipleRules(t *testing.T) {
	anchor := date(2024, time.June, 18)
	occ := []time.Time{anchor}
	rules := []Rule{
		{ID: "r1", DaysBefore: 3, Recurring: false},
		{ID: "r2", DaysBefore: 3, Recurring: true},
		{ID: "r3", DaysBefore: 7, Recurring: true},
	}

	got := DueOn(date(2024, time.June, 15), anchor, occ, rules)
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2 (both 3-day rules)", len(got))
	}
}

func TestDueOnNegativeOffsetSkipped(t *testing.T) {
	anchor := date(2024, time.June, 15)
	rules := []Rule{{ID: "r1", DaysBefore: -1, Recurring: true}}

	if got := DueOn(date(2024, time.June, 16), anchor, []time.Time{anchor}, rules); len(got) != 0 {
		t.Errorf("negative offset rule fired: %v", got)
	}
}
