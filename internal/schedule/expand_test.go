package schedule

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		in      string
		want    Interval
		wantErr bool
	}{
		{"NONE", IntervalNone, false},
		{"DAILY", IntervalDaily, false},
		{"WEEKLY", IntervalWeekly, false},
		{"MONTHLY", IntervalMonthly, false},
		{"YEARLY", IntervalYearly, false},
		{"FORTNIGHTLY", 0, true},
		{"monthly", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseInterval(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInterval) {
					t.Fatalf("ParseInterval(%q) error = %v, want ErrInvalidInterval", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseInterval(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseInterval(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestExpandNone(t *testing.T) {
	anchor := date(2024, time.June, 18)

	got, err := Expand(anchor, IntervalNone, date(2024, time.June, 25))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || !got[0].Equal(anchor) {
		t.Errorf("expected single anchor occurrence, got %v", got)
	}

	// Anchor beyond the horizon yields nothing.
	got, err = Expand(anchor, IntervalNone, date(2024, time.June, 17))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no occurrences past the horizon, got %v", got)
	}
}

func TestExpandDailyInclusiveBounds(t *testing.T) {
	anchor := date(2024, time.June, 1)
	got, err := Expand(anchor, IntervalDaily, date(2024, time.June, 11))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Day 0 through day 10 inclusive.
	if len(got) != 11 {
		t.Fatalf("expected 11 occurrences, got %d", len(got))
	}
	for k, d := range got {
		if want := anchor.AddDate(0, 0, k); !d.Equal(want) {
			t.Errorf("occurrence %d = %v, want %v", k, d, want)
		}
	}
}

func TestExpandWeekly(t *testing.T) {
	got, err := Expand(date(2024, time.June, 3), IntervalWeekly, date(2024, time.June, 24))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []time.Time{
		date(2024, time.June, 3),
		date(2024, time.June, 10),
		date(2024, time.June, 17),
		date(2024, time.June, 24),
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d occurrences, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("occurrence %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestExpandMonthlyClampsShortMonths(t *testing.T) {
	// Anchored on the 31st: April has 30 days, so the April
	// occurrence must land on the 30th, and May back on the 31st.
	got, err := Expand(date(2024, time.March, 31), IntervalMonthly, date(2024, time.May, 31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []time.Time{
		date(2024, time.March, 31),
		date(2024, time.April, 30),
		date(2024, time.May, 31),
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d occurrences, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("occurrence %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestExpandYearlyLeapDay(t *testing.T) {
	got, err := Expand(date(2024, time.February, 29), IntervalYearly, date(2026, time.March, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []time.Time{
		date(2024, time.February, 29),
		date(2025, time.February, 28),
		date(2026, time.February, 28),
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d occurrences, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("occurrence %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestExpandRecurringAnchorBeyondHorizon(t *testing.T) {
	got, err := Expand(date(2024, time.July, 1), IntervalMonthly, date(2024, time.June, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty series, got %v", got)
	}
}

func TestExpandInvalidInterval(t *testing.T) {
	_, err := Expand(date(2024, time.June, 1), Interval(42), date(2024, time.June, 30))
	if !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
}

func TestExpandIgnoresTimeOfDay(t *testing.T) {
	anchor := time.Date(2024, time.June, 18, 23, 59, 59, 0, time.UTC)
	got, err := Expand(anchor, IntervalNone, date(2024, time.June, 18))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || !got[0].Equal(date(2024, time.June, 18)) {
		t.Errorf("expected anchor truncated to its date, got %v", got)
	}
}
