package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mverde/fundflow/internal/cli"
	"github.com/mverde/fundflow/internal/wizard"
)

func wizardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wizard [template.yaml]",
		Short: "Bulk-create plans from a YAML template",
		Long: `Create many expense plans at once from a YAML template.

Plans without an explicit monthly_contribution get one derived from their
target amount and due date.

Template format:
  plans:
    - name: New Roof
      purpose: sinking_fund
      target_amount: 12000
      due_date: 2026-06-01
    - name: Groceries
      purpose: spending_budget
      monthly_contribution: 600`,
		Args: cobra.ExactArgs(1),
		RunE: runWizard,
	}
}

func runWizard(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	tmpl, err := wizard.Load(args[0])
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	created, err := wizard.Run(ctx, store, tmpl, time.Now())
	if err != nil {
		if created > 0 {
			fmt.Println(cli.FormatWarning(fmt.Sprintf("Created %d of %d plans before failing.", created, len(tmpl.Plans))))
		}
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created %d plans.", created)))
	return nil
}
