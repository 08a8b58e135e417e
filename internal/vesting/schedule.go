package vesting

import (
	"fmt"
	"time"

	"token-presale-go/internal/models"

	"github.com/shopspring/decimal"
)

const (
	DefaultIntervals = 6
)

// DefaultImmediateFraction is the share of tokens unlocked at the vesting start
var DefaultImmediateFraction = decimal.NewFromFloat(0.4)

// Generate splits total into an immediate unlock and intervals equal monthly releases.
// The last release absorbs division remainder so the final cumulative equals total.
func Generate(total, immediateFraction decimal.Decimal, intervals int) (models.VestingSchedule, error) {
	if total.IsNegative() {
		return models.VestingSchedule{}, fmt.Errorf("total tokens cannot be negative, got %s", total.String())
	}
	if immediateFraction.IsNegative() || immediateFraction.GreaterThan(decimal.NewFromInt(1)) {
		return models.VestingSchedule{}, fmt.Errorf("immediate fraction must be within [0, 1], got %s", immediateFraction.String())
	}
	if intervals < 1 {
		return models.VestingSchedule{}, fmt.Errorf("interval count must be at least 1, got %d", intervals)
	}

	immediate := total.Mul(immediateFraction)
	vested := total.Sub(immediate)
	monthly := vested.Div(decimal.NewFromInt(int64(intervals)))

	schedule := models.VestingSchedule{
		TotalTokens:       total,
		ImmediateFraction: immediateFraction,
		ImmediateUnlock:   immediate,
		MonthlyRelease:    monthly,
		Intervals:         make([]models.VestingInterval, intervals),
	}

	cumulative := immediate
	for i := 1; i <= intervals; i++ {
		release := monthly
		if i == intervals {
			release = total.Sub(cumulative)
		}
		cumulative = cumulative.Add(release)
		schedule.Intervals[i-1] = models.VestingInterval{
			Index:      i,
			Release:    release,
			Cumulative: cumulative,
		}
	}

	return schedule, nil
}

// WithStart stamps each interval with its unlock time: interval i unlocks i months after start.
func WithStart(schedule models.VestingSchedule, start time.Time) models.VestingSchedule {
	intervals := make([]models.VestingInterval, len(schedule.Intervals))
	for i, interval := range schedule.Intervals {
		unlockAt := start.AddDate(0, interval.Index, 0)
		interval.UnlockAt = &unlockAt
		intervals[i] = interval
	}
	schedule.Intervals = intervals
	return schedule
}

// UnlockedAt returns how many tokens of the schedule are unlocked at now.
// Nothing is unlocked before start; the immediate portion unlocks at start.
func UnlockedAt(schedule models.VestingSchedule, start, now time.Time) decimal.Decimal {
	if now.Before(start) {
		return decimal.Zero
	}

	unlocked := schedule.ImmediateUnlock
	for _, interval := range schedule.Intervals {
		if now.Before(start.AddDate(0, interval.Index, 0)) {
			break
		}
		unlocked = interval.Cumulative
	}
	return unlocked
}
