package planfund

import (
	"time"

	"github.com/mverde/fundflow/internal/model"
)

// Report bundles the schedule metrics for a single plan at a point in time.
// HasSchedule and HasStatus report which metrics are defined for the plan;
// the zero values of the numeric fields are meaningless when they are false.
type Report struct {
	Plan        *model.ExpensePlan
	Status      FundingStatus
	Expected    float64
	Gap         float64
	HasSchedule bool
	HasStatus   bool
}

// Evaluate computes all funding metrics for a plan in one pass.
func Evaluate(plan *model.ExpensePlan, now time.Time) Report {
	r := Report{Plan: plan}

	if expected, ok := ExpectedFundedByNow(plan, now); ok {
		r.Expected = expected
		r.HasSchedule = true
		// Gap is defined exactly when the expected amount is.
		r.Gap, _ = FundingGap(plan, now)
	}

	if status, ok := Status(plan, now); ok {
		r.Status = status
		r.HasStatus = true
	}

	return r
}
