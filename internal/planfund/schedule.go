// Package planfund computes funding schedules for sinking-fund expense plans:
// how much should have been saved by now, the shortfall against the actual
// balance, and a categorical on-track status.
package planfund

import (
	"math"
	"time"

	"github.com/mverde/fundflow/internal/model"
)

// FundingStatus categorizes how a sinking-fund plan is tracking against its
// due date. It is derived on every read and never persisted.
type FundingStatus string

const (
	// StatusFunded means the balance already covers the target.
	StatusFunded FundingStatus = "funded"
	// StatusAlmostReady means the plan is on pace and at least 90% funded.
	StatusAlmostReady FundingStatus = "almost_ready"
	// StatusOnTrack means the plan is on pace but under 90% funded.
	StatusOnTrack FundingStatus = "on_track"
	// StatusBehind means the contribution rate is insufficient or the due
	// date has passed unfunded.
	StatusBehind FundingStatus = "behind"
)

// contributionTolerance accepts the configured contribution as sufficient when
// it is within 10% of what the remaining schedule strictly requires.
const contributionTolerance = 1.1

// almostReadyProgress is the funded percentage at which an on-pace plan is
// reported as almost ready.
const almostReadyProgress = 90.0

// ExpectedFundedByNow returns the amount a sinking-fund plan should have
// accumulated by now, assuming contributions started just in time to hit the
// target by the due date. The second return value is false when the plan has
// no well-defined schedule: a non-sinking-fund purpose, a non-positive
// contribution or target, or no due date at all.
//
// The result is always within [0, TargetAmount], rounded to cents.
func ExpectedFundedByNow(plan *model.ExpensePlan, now time.Time) (float64, bool) {
	if plan == nil || !plan.IsSinkingFund() {
		return 0, false
	}
	if plan.MonthlyContribution <= 0 || plan.TargetAmount <= 0 {
		return 0, false
	}

	dueDate := plan.DueDate()
	if dueDate == nil {
		return 0, false
	}

	// Contributions must have begun this many whole months before the due
	// date to finish exactly on schedule.
	monthsNeeded := plan.TargetAmount / plan.MonthlyContribution
	savingStart := dueDate.AddDate(0, -int(math.Ceil(monthsNeeded)), 0)

	if now.Before(savingStart) {
		return 0, true
	}

	// Fractional months elapsed since saving should have started. The
	// day-of-month delta divided by 30 is a deliberate approximation, not
	// exact calendar-day counting.
	elapsed := float64(wholeMonthsBetween(savingStart, now)) +
		float64(now.Day()-savingStart.Day())/30.0

	expected := math.Min(elapsed*plan.MonthlyContribution, plan.TargetAmount)
	expected = math.Round(expected*100) / 100
	if expected < 0 {
		expected = 0
	}
	return expected, true
}

// FundingGap returns the shortfall between the amount that should have been
// saved by now and the actual balance. A surplus yields 0, never a negative
// gap. The second return value is false whenever ExpectedFundedByNow has no
// defined result.
func FundingGap(plan *model.ExpensePlan, now time.Time) (float64, bool) {
	expected, ok := ExpectedFundedByNow(plan, now)
	if !ok {
		return 0, false
	}
	return math.Max(0, expected-plan.CurrentBalance), true
}

// Status derives the categorical funding status for a plan. It is undefined
// (ok=false) without a next due date: there is no deadline to track against.
//
// Unlike ExpectedFundedByNow, month arithmetic here is day-blind: two dates
// three days apart but crossing a month boundary count as one month apart.
func Status(plan *model.ExpensePlan, now time.Time) (FundingStatus, bool) {
	if plan == nil || plan.NextDueDate == nil {
		return "", false
	}

	if plan.CurrentBalance >= plan.TargetAmount {
		return StatusFunded, true
	}

	monthsUntilDue := wholeMonthsBetween(now, *plan.NextDueDate)
	if monthsUntilDue < 0 {
		monthsUntilDue = 0
	}

	// Due this month or already past, and step above ruled out funded.
	if monthsUntilDue <= 0 {
		return StatusBehind, true
	}

	amountNeeded := plan.TargetAmount - plan.CurrentBalance
	requiredMonthly := amountNeeded / float64(monthsUntilDue)

	if requiredMonthly <= plan.MonthlyContribution*contributionTolerance {
		progress := plan.CurrentBalance / plan.TargetAmount * 100
		if progress >= almostReadyProgress {
			return StatusAlmostReady, true
		}
		return StatusOnTrack, true
	}

	return StatusBehind, true
}

// wholeMonthsBetween returns the calendar month difference from a to b,
// ignoring the day of month entirely.
func wholeMonthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}
