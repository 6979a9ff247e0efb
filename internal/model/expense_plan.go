package model

import (
	"fmt"
	"time"
)

// PlanPurpose indicates what an expense plan is saving toward.
type PlanPurpose string

const (
	// PurposeSinkingFund represents plans that accumulate toward a target by a due date.
	PurposeSinkingFund PlanPurpose = "sinking_fund"
	// PurposeSpendingBudget represents recurring monthly spending envelopes.
	PurposeSpendingBudget PlanPurpose = "spending_budget"
)

// ExpensePlan represents a single expense plan (sinking fund or spending budget).
type ExpensePlan struct {
	CreatedAt           time.Time
	UpdatedAt           time.Time
	NextDueDate         *time.Time
	TargetDate          *time.Time
	ID                  string
	Name                string
	AccountID           string
	Purpose             PlanPurpose
	TargetAmount        float64
	MonthlyContribution float64
	CurrentBalance      float64
	Active              bool
}

// DueDate returns the effective due date: NextDueDate wins over TargetDate.
func (p *ExpensePlan) DueDate() *time.Time {
	if p.NextDueDate != nil {
		return p.NextDueDate
	}
	return p.TargetDate
}

// IsSinkingFund reports whether funding-schedule calculations apply to this plan.
// An empty purpose is treated as a sinking fund for backward compatibility with
// records created before the purpose column existed.
func (p *ExpensePlan) IsSinkingFund() bool {
	return p.Purpose == "" || p.Purpose == PurposeSinkingFund
}

// Validate ensures the plan has valid data.
func (p *ExpensePlan) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("plan name is required")
	}

	switch p.Purpose {
	case "", PurposeSinkingFund, PurposeSpendingBudget:
		// Valid purpose
	default:
		return fmt.Errorf("invalid plan purpose: %s", p.Purpose)
	}

	if p.TargetAmount < 0 {
		return fmt.Errorf("target amount cannot be negative")
	}
	if p.MonthlyContribution < 0 {
		return fmt.Errorf("monthly contribution cannot be negative")
	}

	if p.NextDueDate != nil && p.TargetDate != nil && p.TargetDate.Before(*p.NextDueDate) {
		return fmt.Errorf("target date must not be before next due date")
	}

	return nil
}
