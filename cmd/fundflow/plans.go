package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mverde/fundflow/internal/cli"
	"github.com/mverde/fundflow/internal/model"
	"github.com/mverde/fundflow/internal/planfund"
	"github.com/mverde/fundflow/internal/service"
	"github.com/mverde/fundflow/internal/wizard"
)

func plansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Manage expense plans",
		Long:  `Create, list, and inspect sinking funds and spending budgets.`,
	}

	cmd.AddCommand(plansListCmd())
	cmd.AddCommand(plansCreateCmd())
	cmd.AddCommand(plansStatusCmd())
	cmd.AddCommand(plansFundCmd())

	return cmd
}

func plansListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expense plans with their funding status",
		RunE:  runPlansList,
	}

	cmd.Flags().String("purpose", "", "Filter by purpose (sinking_fund, spending_budget)")
	cmd.Flags().String("account", "", "Filter by account ID")
	cmd.Flags().Bool("all", false, "Include inactive plans")

	return cmd
}

func runPlansList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	filter := service.PlanFilter{ActiveOnly: true}
	if all, _ := cmd.Flags().GetBool("all"); all {
		filter.ActiveOnly = false
	}
	if account, _ := cmd.Flags().GetString("account"); account != "" {
		filter.AccountID = account
	}
	if purpose, _ := cmd.Flags().GetString("purpose"); purpose != "" {
		p := model.PlanPurpose(purpose)
		if p != model.PurposeSinkingFund && p != model.PurposeSpendingBudget {
			return fmt.Errorf("invalid purpose: %s", purpose)
		}
		filter.Purpose = &p
	}

	plans, err := store.ListPlans(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list plans: %w", err)
	}

	if len(plans) == 0 {
		fmt.Println(cli.FormatInfo("No plans found. Create one with 'fundflow plans create'."))
		return nil
	}

	fmt.Println(cli.FormatTitle("Expense Plans"))
	now := time.Now()
	for i := range plans {
		printPlanLine(&plans[i], now)
	}

	return nil
}

func printPlanLine(plan *model.ExpensePlan, now time.Time) {
	report := planfund.Evaluate(plan, now)

	line := fmt.Sprintf("%-28s $%10.2f / $%10.2f", plan.Name, plan.CurrentBalance, plan.TargetAmount)
	if report.HasStatus {
		line += "  " + cli.FormatStatus(report.Status)
	}
	if report.HasSchedule && report.Gap > 0 {
		line += cli.SubtleStyle.Render(fmt.Sprintf("  (behind by $%.2f)", report.Gap))
	}
	fmt.Println(line)
}

func plansCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a new expense plan",
		Long: `Create a sinking fund or spending budget.

Examples:
  # Sinking fund with an explicit contribution
  fundflow plans create "New Roof" --target 12000 --monthly 500 --due 2026-06-01

  # Spending budget
  fundflow plans create "Groceries" --purpose spending_budget --monthly 600`,
		Args: cobra.ExactArgs(1),
		RunE: runPlansCreate,
	}

	cmd.Flags().String("purpose", string(model.PurposeSinkingFund), "Plan purpose (sinking_fund, spending_budget)")
	cmd.Flags().Float64("target", 0, "Target amount to save")
	cmd.Flags().Float64("monthly", 0, "Monthly contribution")
	cmd.Flags().Float64("balance", 0, "Starting balance")
	cmd.Flags().String("due", "", "Next due date (YYYY-MM-DD)")
	cmd.Flags().String("target-date", "", "Target completion date (YYYY-MM-DD)")
	cmd.Flags().String("account", "", "Account ID the plan draws from")

	return cmd
}

func runPlansCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	target, _ := cmd.Flags().GetFloat64("target")
	monthly, _ := cmd.Flags().GetFloat64("monthly")
	balance, _ := cmd.Flags().GetFloat64("balance")
	purpose, _ := cmd.Flags().GetString("purpose")
	account, _ := cmd.Flags().GetString("account")
	due, _ := cmd.Flags().GetString("due")
	targetDate, _ := cmd.Flags().GetString("target-date")

	// The wizard's single-plan path already handles date parsing and
	// contribution derivation, so the create command reuses it.
	tmpl := &wizard.Template{Plans: []wizard.PlanSpec{{
		Name:                args[0],
		Purpose:             purpose,
		TargetAmount:        target,
		MonthlyContribution: monthly,
		InitialBalance:      balance,
		DueDate:             due,
		TargetDate:          targetDate,
		Account:             account,
	}}}
	if err := tmpl.Validate(); err != nil {
		return err
	}

	plans, err := tmpl.Materialize(time.Now())
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.CreatePlan(ctx, &plans[0]); err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created plan %q (contributing $%.2f/month)",
		plans[0].Name, plans[0].MonthlyContribution)))
	return nil
}

func plansStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [name]",
		Short: "Show the funding schedule for one plan",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlansStatus,
	}
}

func runPlansStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	plan, err := store.GetPlan(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load plan: %w", err)
	}

	report := planfund.Evaluate(plan, time.Now())

	content := fmt.Sprintf("Balance:   $%.2f\nTarget:    $%.2f\nMonthly:   $%.2f",
		plan.CurrentBalance, plan.TargetAmount, plan.MonthlyContribution)

	if due := plan.DueDate(); due != nil {
		content += fmt.Sprintf("\nDue:       %s", due.Format("2006-01-02"))
	}
	if report.HasSchedule {
		content += fmt.Sprintf("\nExpected:  $%.2f by now", report.Expected)
		if report.Gap > 0 {
			content += "\nGap:       " + cli.ErrorStyle.Render(fmt.Sprintf("$%.2f", report.Gap))
		} else {
			content += "\nGap:       " + cli.SuccessStyle.Render("none")
		}
	}
	if report.HasStatus {
		content += "\nStatus:    " + cli.FormatStatus(report.Status)
	}

	fmt.Println(cli.RenderBox(plan.Name, content))
	return nil
}

func plansFundCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fund [name] [amount]",
		Short: "Record a contribution to a plan",
		Args:  cobra.ExactArgs(2),
		RunE:  runPlansFund,
	}
}

func runPlansFund(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	amount, err := strconv.ParseFloat(args[1], 64)
	if err != nil || amount <= 0 {
		return fmt.Errorf("invalid amount: %s", args[1])
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	plan, err := store.GetPlan(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load plan: %w", err)
	}

	newBalance := plan.CurrentBalance + amount
	if err := store.UpdatePlanBalance(ctx, plan.ID, newBalance); err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}

	plan.CurrentBalance = newBalance
	report := planfund.Evaluate(plan, time.Now())

	msg := fmt.Sprintf("Added $%.2f to %q (balance $%.2f)", amount, plan.Name, newBalance)
	if report.HasStatus {
		msg += " " + cli.FormatStatus(report.Status)
	}
	fmt.Println(cli.FormatSuccess(msg))
	return nil
}
