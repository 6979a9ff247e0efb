// Package wizard bulk-creates expense plans from a YAML template, deriving
// missing monthly contributions from each plan's target and due date.
package wizard

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/mverde/fundflow/internal/common"
	"github.com/mverde/fundflow/internal/model"
)

// PlanSpec is one entry of the wizard template.
type PlanSpec struct {
	Name                string  `mapstructure:"name"`
	Purpose             string  `mapstructure:"purpose"`
	DueDate             string  `mapstructure:"due_date"`
	TargetDate          string  `mapstructure:"target_date"`
	Account             string  `mapstructure:"account"`
	TargetAmount        float64 `mapstructure:"target_amount"`
	MonthlyContribution float64 `mapstructure:"monthly_contribution"`
	InitialBalance      float64 `mapstructure:"initial_balance"`
}

// Template is a parsed wizard template.
type Template struct {
	Plans []PlanSpec `mapstructure:"plans"`
}

// PlanCreator is the subset of storage the wizard needs.
type PlanCreator interface {
	CreatePlan(ctx context.Context, plan *model.ExpensePlan) error
}

// Load reads and validates a wizard template file.
func Load(path string) (*Template, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, common.NewUserError(fmt.Sprintf("failed to read template %s", path), err)
	}

	var tmpl Template
	if err := v.Unmarshal(&tmpl); err != nil {
		return nil, common.NewUserError("invalid template format", err)
	}

	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// Validate checks every plan spec before anything is created, so a bad entry
// fails the whole template up front rather than halfway through.
func (t *Template) Validate() error {
	if len(t.Plans) == 0 {
		return fmt.Errorf("%w: template has no plans", common.ErrInvalidConfig)
	}

	seen := make(map[string]bool, len(t.Plans))
	for i, spec := range t.Plans {
		if strings.TrimSpace(spec.Name) == "" {
			return fmt.Errorf("%w: plan %d has no name", common.ErrInvalidConfig, i+1)
		}
		if seen[spec.Name] {
			return fmt.Errorf("%w: duplicate plan name %q", common.ErrInvalidConfig, spec.Name)
		}
		seen[spec.Name] = true

		switch spec.Purpose {
		case "", string(model.PurposeSinkingFund), string(model.PurposeSpendingBudget):
			// Valid purpose
		default:
			return fmt.Errorf("%w: plan %q has invalid purpose %q", common.ErrInvalidConfig, spec.Name, spec.Purpose)
		}

		if spec.TargetAmount < 0 || spec.MonthlyContribution < 0 {
			return fmt.Errorf("%w: plan %q has negative amounts", common.ErrInvalidConfig, spec.Name)
		}

		for _, raw := range []string{spec.DueDate, spec.TargetDate} {
			if raw == "" {
				continue
			}
			if _, err := time.Parse("2006-01-02", raw); err != nil {
				return fmt.Errorf("%w: plan %q has invalid date %q", common.ErrInvalidConfig, spec.Name, raw)
			}
		}
	}
	return nil
}

// Materialize converts the template into plans ready for creation, deriving
// any missing monthly contribution from the target, the initial balance, and
// the months remaining until the due date.
func (t *Template) Materialize(now time.Time) ([]model.ExpensePlan, error) {
	plans := make([]model.ExpensePlan, 0, len(t.Plans))

	for _, spec := range t.Plans {
		plan := model.ExpensePlan{
			ID:                  newPlanID(spec.Name),
			Name:                spec.Name,
			Purpose:             model.PlanPurpose(spec.Purpose),
			TargetAmount:        spec.TargetAmount,
			MonthlyContribution: spec.MonthlyContribution,
			CurrentBalance:      spec.InitialBalance,
			AccountID:           spec.Account,
			Active:              true,
		}
		if plan.Purpose == "" {
			plan.Purpose = model.PurposeSinkingFund
		}

		if spec.DueDate != "" {
			due, _ := time.Parse("2006-01-02", spec.DueDate)
			plan.NextDueDate = &due
		}
		if spec.TargetDate != "" {
			target, _ := time.Parse("2006-01-02", spec.TargetDate)
			plan.TargetDate = &target
		}

		if plan.MonthlyContribution == 0 && plan.Purpose == model.PurposeSinkingFund {
			contribution, err := deriveContribution(&plan, now)
			if err != nil {
				return nil, fmt.Errorf("plan %q: %w", plan.Name, err)
			}
			plan.MonthlyContribution = contribution
		}

		if err := plan.Validate(); err != nil {
			return nil, fmt.Errorf("plan %q: %w", plan.Name, err)
		}
		plans = append(plans, plan)
	}

	return plans, nil
}

// deriveContribution spreads the remaining amount over the months until the
// due date, rounding up to whole cents so the final contribution never lands
// short of the target.
func deriveContribution(plan *model.ExpensePlan, now time.Time) (float64, error) {
	due := plan.DueDate()
	if due == nil {
		return 0, fmt.Errorf("%w: no contribution and no due date to derive one from", common.ErrInvalidConfig)
	}
	if plan.TargetAmount <= 0 {
		return 0, fmt.Errorf("%w: no contribution and no target amount to derive one from", common.ErrInvalidConfig)
	}

	months := (due.Year()-now.Year())*12 + int(due.Month()) - int(now.Month())
	if months < 1 {
		months = 1
	}

	remaining := decimal.NewFromFloat(plan.TargetAmount).
		Sub(decimal.NewFromFloat(plan.CurrentBalance))
	if remaining.Sign() <= 0 {
		return 0, fmt.Errorf("%w: balance already covers the target", common.ErrInvalidConfig)
	}

	contribution, _ := remaining.
		DivRound(decimal.NewFromInt(int64(months)), 4).
		RoundCeil(2).
		Float64()
	return contribution, nil
}

// Run creates every plan in the template, reporting progress as it goes.
// It stops at the first failure so a partial run can be inspected.
func Run(ctx context.Context, store PlanCreator, tmpl *Template, now time.Time) (int, error) {
	plans, err := tmpl.Materialize(now)
	if err != nil {
		return 0, err
	}

	bar := progressbar.Default(int64(len(plans)), "creating plans")

	created := 0
	for i := range plans {
		if err := store.CreatePlan(ctx, &plans[i]); err != nil {
			return created, fmt.Errorf("failed to create plan %q: %w", plans[i].Name, err)
		}
		created++
		_ = bar.Add(1)

		slog.Debug("Created plan",
			"name", plans[i].Name,
			"purpose", string(plans[i].Purpose),
			"monthly_contribution", plans[i].MonthlyContribution)
	}

	return created, nil
}

// newPlanID builds a unique, human-scannable plan ID from the plan name plus
// a random suffix.
func newPlanID(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-' || r == '_':
			return '-'
		default:
			return -1
		}
	}, slug)

	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("plan-%s-%s", slug, hex.EncodeToString(suffix))
}
