package planfund

import (
	"testing"
	"time"

	"github.com/mverde/fundflow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// All tests pin "now" so results are deterministic.
var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func TestExpectedFundedByNow(t *testing.T) {
	tests := []struct {
		plan   *model.ExpensePlan
		name   string
		want   float64
		wantOK bool
	}{
		{
			name: "saving starts exactly now",
			plan: &model.ExpensePlan{
				Purpose:             model.PurposeSinkingFund,
				TargetAmount:        4000,
				MonthlyContribution: 400,
				NextDueDate:         datePtr(2026, time.April, 15),
			},
			want:   0,
			wantOK: true,
		},
		{
			name: "two whole months into the schedule",
			plan: &model.ExpensePlan{
				Purpose:             model.PurposeSinkingFund,
				TargetAmount:        1000,
				MonthlyContribution: 250,
				NextDueDate:         datePtr(2025, time.August, 15),
			},
			want:   500,
			wantOK: true,
		},
		{
			name: "day-of-month fraction uses thirtieths",
			plan: &model.ExpensePlan{
				Purpose:             model.PurposeSinkingFund,
				TargetAmount:        1000,
				MonthlyContribution: 250,
				NextDueDate:         datePtr(2025, time.August, 10),
			},
			// Start 2025-04-10, elapsed 2 + 5/30 months at 250/month.
			want:   541.67,
			wantOK: true,
		},
		{
			name: "saving has not needed to start yet",
			plan: &model.ExpensePlan{
				Purpose:             model.PurposeSinkingFund,
				TargetAmount:        1200,
				MonthlyContribution: 100,
				NextDueDate:         datePtr(2027, time.December, 15),
			},
			want:   0,
			wantOK: true,
		},
		{
			name: "long past due date clamps at target",
			plan: &model.ExpensePlan{
				Purpose:             model.PurposeSinkingFund,
				TargetAmount:        1200,
				MonthlyContribution: 100,
				NextDueDate:         datePtr(2024, time.January, 1),
			},
			want:   1200,
			wantOK: true,
		},
		{
			name: "target date used when next due date absent",
			plan: &model.ExpensePlan{
				Purpose:             model.PurposeSinkingFund,
				TargetAmount:        1000,
				MonthlyContribution: 250,
				TargetDate:          datePtr(2025, time.August, 15),
			},
			want:   500,
			wantOK: true,
		},
		{
			name: "next due date wins over target date",
			plan: &model.ExpensePlan{
				Purpose:             model.PurposeSinkingFund,
				TargetAmount:        1000,
				MonthlyContribution: 250,
				NextDueDate:         datePtr(2025, time.August, 15),
				TargetDate:          datePtr(2026, time.August, 15),
			},
			want:   500,
			wantOK: true,
		},
		{
			name: "spending budget has no schedule",
			plan: &model.ExpensePlan{
				Purpose:             model.PurposeSpendingBudget,
				TargetAmount:        1000,
				MonthlyContribution: 250,
				NextDueDate:         datePtr(2025, time.August, 15),
			},
			wantOK: false,
		},
		{
			name: "zero contribution has no schedule",
			plan: &model.ExpensePlan{
				Purpose:      model.PurposeSinkingFund,
				TargetAmount: 1000,
				NextDueDate:  datePtr(2025, time.August, 15),
			},
			wantOK: false,
		},
		{
			name: "zero target has no schedule",
			plan: &model.ExpensePlan{
				Purpose:             model.PurposeSinkingFund,
				MonthlyContribution: 250,
				NextDueDate:         datePtr(2025, time.August, 15),
			},
			wantOK: false,
		},
		{
			name: "no due date at all has no schedule",
			plan: &model.ExpensePlan{
				Purpose:             model.PurposeSinkingFund,
				TargetAmount:        1000,
				MonthlyContribution: 250,
			},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExpectedFundedByNow(tt.plan, testNow)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 0.001)
			}
		})
	}
}

func TestExpectedFundedByNow_Bounded(t *testing.T) {
	// The result stays within [0, target] across a spread of due dates.
	for months := -24; months <= 24; months += 3 {
		due := testNow.AddDate(0, months, 0)
		plan := &model.ExpensePlan{
			Purpose:             model.PurposeSinkingFund,
			TargetAmount:        5000,
			MonthlyContribution: 333,
			NextDueDate:         &due,
		}

		got, ok := ExpectedFundedByNow(plan, testNow)
		require.True(t, ok)
		assert.GreaterOrEqual(t, got, 0.0, "due offset %d months", months)
		assert.LessOrEqual(t, got, plan.TargetAmount, "due offset %d months", months)
	}
}

func TestFundingGap(t *testing.T) {
	tests := []struct {
		plan   *model.ExpensePlan
		name   string
		want   float64
		wantOK bool
	}{
		{
			name: "shortfall when behind schedule",
			plan: &model.ExpensePlan{
				Purpose:             model.PurposeSinkingFund,
				TargetAmount:        1000,
				MonthlyContribution: 250,
				CurrentBalance:      300,
				NextDueDate:         datePtr(2025, time.August, 15),
			},
			want:   200, // expected 500 - balance 300
			wantOK: true,
		},
		{
			name: "surplus yields zero, never negative",
			plan: &model.ExpensePlan{
				Purpose:             model.PurposeSinkingFund,
				TargetAmount:        1000,
				MonthlyContribution: 250,
				CurrentBalance:      900,
				NextDueDate:         datePtr(2025, time.August, 15),
			},
			want:   0,
			wantOK: true,
		},
		{
			name: "undefined without a schedule",
			plan: &model.ExpensePlan{
				Purpose:        model.PurposeSinkingFund,
				TargetAmount:   1000,
				CurrentBalance: 300,
			},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FundingGap(tt.plan, testNow)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 0.001)
				assert.GreaterOrEqual(t, got, 0.0)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		plan   *model.ExpensePlan
		name   string
		want   FundingStatus
		wantOK bool
	}{
		{
			name: "funded when balance covers target",
			plan: &model.ExpensePlan{
				TargetAmount:   1000,
				CurrentBalance: 1000,
				NextDueDate:    datePtr(2025, time.December, 1),
			},
			want:   StatusFunded,
			wantOK: true,
		},
		{
			name: "funded wins even when due this month",
			plan: &model.ExpensePlan{
				TargetAmount:   1000,
				CurrentBalance: 1500,
				NextDueDate:    datePtr(2025, time.June, 16),
			},
			want:   StatusFunded,
			wantOK: true,
		},
		{
			name: "behind when due date passed unfunded",
			plan: &model.ExpensePlan{
				TargetAmount:   1000,
				CurrentBalance: 500,
				NextDueDate:    datePtr(2025, time.June, 14),
			},
			want:   StatusBehind,
			wantOK: true,
		},
		{
			name: "behind when due this month unfunded",
			plan: &model.ExpensePlan{
				TargetAmount:        1000,
				CurrentBalance:      999,
				MonthlyContribution: 500,
				NextDueDate:         datePtr(2025, time.June, 30),
			},
			want:   StatusBehind,
			wantOK: true,
		},
		{
			name: "on track when contribution keeps pace",
			plan: &model.ExpensePlan{
				TargetAmount:        4000,
				MonthlyContribution: 400,
				NextDueDate:         datePtr(2026, time.April, 15),
			},
			want:   StatusOnTrack,
			wantOK: true,
		},
		{
			name: "on track within the 10% tolerance band",
			plan: &model.ExpensePlan{
				// Requires 100/month over 10 months; 91*1.1 = 100.1 just covers it.
				TargetAmount:        1000,
				MonthlyContribution: 91,
				NextDueDate:         datePtr(2026, time.April, 15),
			},
			want:   StatusOnTrack,
			wantOK: true,
		},
		{
			name: "behind just outside the tolerance band",
			plan: &model.ExpensePlan{
				// Requires 100/month over 10 months; 90*1.1 = 99 falls short.
				TargetAmount:        1000,
				MonthlyContribution: 90,
				NextDueDate:         datePtr(2026, time.April, 15),
			},
			want:   StatusBehind,
			wantOK: true,
		},
		{
			name: "almost ready at 95% progress on pace",
			plan: &model.ExpensePlan{
				TargetAmount:        1000,
				CurrentBalance:      950,
				MonthlyContribution: 50,
				NextDueDate:         datePtr(2026, time.April, 15),
			},
			want:   StatusAlmostReady,
			wantOK: true,
		},
		{
			name: "still on track at 89% progress",
			plan: &model.ExpensePlan{
				TargetAmount:        1000,
				CurrentBalance:      890,
				MonthlyContribution: 50,
				NextDueDate:         datePtr(2026, time.April, 15),
			},
			want:   StatusOnTrack,
			wantOK: true,
		},
		{
			name: "undefined without next due date",
			plan: &model.ExpensePlan{
				TargetAmount:        1000,
				MonthlyContribution: 100,
				TargetDate:          datePtr(2026, time.April, 15),
			},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Status(tt.plan, testNow)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestStatus_MonthArithmeticIsDayBlind(t *testing.T) {
	// Three calendar days apart but crossing a month boundary counts as one
	// whole month of runway. This mirrors the upstream behavior on purpose.
	plan := &model.ExpensePlan{
		TargetAmount:        100,
		MonthlyContribution: 95,
		NextDueDate:         datePtr(2025, time.July, 2),
	}
	now := time.Date(2025, 6, 29, 0, 0, 0, 0, time.UTC)

	got, ok := Status(plan, now)
	require.True(t, ok)
	// One month of runway: requires 100, 95*1.1 = 104.5 covers it.
	assert.Equal(t, StatusOnTrack, got)
}

func TestEvaluate(t *testing.T) {
	plan := &model.ExpensePlan{
		Purpose:             model.PurposeSinkingFund,
		TargetAmount:        1000,
		MonthlyContribution: 250,
		CurrentBalance:      300,
		NextDueDate:         datePtr(2025, time.August, 15),
	}

	r := Evaluate(plan, testNow)
	require.True(t, r.HasSchedule)
	require.True(t, r.HasStatus)
	assert.InDelta(t, 500, r.Expected, 0.001)
	assert.InDelta(t, 200, r.Gap, 0.001)
	assert.Equal(t, StatusBehind, r.Status)
}

func TestEvaluate_NoSchedule(t *testing.T) {
	plan := &model.ExpensePlan{
		Purpose:      model.PurposeSpendingBudget,
		TargetAmount: 1000,
	}

	r := Evaluate(plan, testNow)
	assert.False(t, r.HasSchedule)
	assert.False(t, r.HasStatus)
}
