package vesting

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func sumSchedule(t *testing.T, total decimal.Decimal, intervals int) {
	t.Helper()

	schedule, err := Generate(total, DefaultImmediateFraction, intervals)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	sum := schedule.ImmediateUnlock
	for _, interval := range schedule.Intervals {
		sum = sum.Add(interval.Release)
	}

	if !sum.Equal(total) {
		t.Errorf("Expected releases to sum to %s, got %s", total.String(), sum.String())
	}

	last := schedule.Intervals[len(schedule.Intervals)-1]
	if !last.Cumulative.Equal(total) {
		t.Errorf("Expected final cumulative %s, got %s", total.String(), last.Cumulative.String())
	}
}

func TestGenerate_SumsExactly(t *testing.T) {
	totals := []string{"0", "1", "73333.34", "100", "1000000", "0.000000000000000001", "66666.666666666666666667"}
	for _, s := range totals {
		for _, n := range []int{1, 3, 6, 7, 12} {
			sumSchedule(t, decimal.RequireFromString(s), n)
		}
	}
}

func TestGenerate_Defaults(t *testing.T) {
	total := decimal.NewFromInt(1000)

	schedule, err := Generate(total, DefaultImmediateFraction, DefaultIntervals)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !schedule.ImmediateUnlock.Equal(decimal.NewFromInt(400)) {
		t.Errorf("Expected immediate unlock 400, got %s", schedule.ImmediateUnlock.String())
	}
	if !schedule.MonthlyRelease.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected monthly release 100, got %s", schedule.MonthlyRelease.String())
	}
	if len(schedule.Intervals) != 6 {
		t.Fatalf("Expected 6 intervals, got %d", len(schedule.Intervals))
	}

	for i, interval := range schedule.Intervals {
		if interval.Index != i+1 {
			t.Errorf("Expected index %d, got %d", i+1, interval.Index)
		}
		expected := decimal.NewFromInt(int64(400 + 100*(i+1)))
		if !interval.Cumulative.Equal(expected) {
			t.Errorf("Interval %d: expected cumulative %s, got %s", i+1, expected.String(), interval.Cumulative.String())
		}
	}
}

func TestGenerate_ZeroTotal(t *testing.T) {
	schedule, err := Generate(decimal.Zero, DefaultImmediateFraction, DefaultIntervals)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !schedule.ImmediateUnlock.IsZero() || !schedule.MonthlyRelease.IsZero() {
		t.Errorf("Expected zero schedule, got immediate=%s monthly=%s",
			schedule.ImmediateUnlock.String(), schedule.MonthlyRelease.String())
	}
	for _, interval := range schedule.Intervals {
		if !interval.Release.IsZero() || !interval.Cumulative.IsZero() {
			t.Errorf("Interval %d not zero: %+v", interval.Index, interval)
		}
	}
}

func TestGenerate_LastIntervalAbsorbsRemainder(t *testing.T) {
	total := decimal.NewFromInt(100)

	schedule, err := Generate(total, decimal.Zero, 3)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	last := schedule.Intervals[2]
	if last.Release.Equal(schedule.MonthlyRelease) {
		t.Errorf("Expected last release to differ from %s when 100 is split three ways", schedule.MonthlyRelease.String())
	}
	if !last.Cumulative.Equal(total) {
		t.Errorf("Expected final cumulative 100, got %s", last.Cumulative.String())
	}
}

func TestGenerate_InvalidInput(t *testing.T) {
	if _, err := Generate(decimal.NewFromInt(-1), DefaultImmediateFraction, 6); err == nil {
		t.Error("Expected error for negative total")
	}
	if _, err := Generate(decimal.NewFromInt(10), decimal.NewFromFloat(1.5), 6); err == nil {
		t.Error("Expected error for fraction above 1")
	}
	if _, err := Generate(decimal.NewFromInt(10), decimal.NewFromFloat(-0.1), 6); err == nil {
		t.Error("Expected error for negative fraction")
	}
	if _, err := Generate(decimal.NewFromInt(10), DefaultImmediateFraction, 0); err == nil {
		t.Error("Expected error for zero intervals")
	}
}

func TestUnlockedAt(t *testing.T) {
	start := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	schedule, err := Generate(decimal.NewFromInt(1000), DefaultImmediateFraction, 6)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	tests := []struct {
		name     string
		now      time.Time
		expected int64
	}{
		{"before start", start.Add(-time.Hour), 0},
		{"at start", start, 400},
		{"mid first month", start.AddDate(0, 0, 20), 400},
		{"after one month", start.AddDate(0, 1, 0), 500},
		{"after three months", start.AddDate(0, 3, 1), 700},
		{"fully vested", start.AddDate(0, 6, 0), 1000},
		{"long after", start.AddDate(2, 0, 0), 1000},
	}

	for _, tt := range tests {
		got := UnlockedAt(schedule, start, tt.now)
		if !got.Equal(decimal.NewFromInt(tt.expected)) {
			t.Errorf("%s: expected %d unlocked, got %s", tt.name, tt.expected, got.String())
		}
	}
}

func TestWithStart(t *testing.T) {
	start := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	schedule, err := Generate(decimal.NewFromInt(600), decimal.Zero, 3)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	stamped := WithStart(schedule, start)
	for _, interval := range stamped.Intervals {
		if interval.UnlockAt == nil {
			t.Fatalf("Interval %d missing unlock time", interval.Index)
		}
		expected := start.AddDate(0, interval.Index, 0)
		if !interval.UnlockAt.Equal(expected) {
			t.Errorf("Interval %d: expected unlock %s, got %s", interval.Index, expected, interval.UnlockAt)
		}
	}

	if schedule.Intervals[0].UnlockAt != nil {
		t.Error("Expected WithStart to leave the original schedule untouched")
	}
}
