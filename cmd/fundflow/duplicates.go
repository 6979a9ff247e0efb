package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mverde/fundflow/internal/cli"
	"github.com/mverde/fundflow/internal/duplicate"
	"github.com/mverde/fundflow/internal/model"
	"github.com/mverde/fundflow/internal/service"
)

func duplicatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "duplicates",
		Short: "Find and resolve duplicate transactions",
		Long: `Scan imported transactions for likely duplicates and work through
the resulting review queue.`,
	}

	cmd.AddCommand(duplicatesScanCmd())
	cmd.AddCommand(duplicatesListCmd())
	cmd.AddCommand(duplicatesResolveCmd())

	return cmd
}

func duplicatesScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan transactions for likely duplicates",
		RunE:  runDuplicatesScan,
	}

	cmd.Flags().Int("threshold", duplicate.DefaultThreshold, "Minimum similarity score (1-100)")
	cmd.Flags().Int("days", 90, "How many days back to scan")

	return cmd
}

func runDuplicatesScan(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	threshold, _ := cmd.Flags().GetInt("threshold")
	days, _ := cmd.Flags().GetInt("days")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	start := time.Now().AddDate(0, 0, -days)
	transactions, err := store.GetTransactions(ctx, service.TransactionFilter{StartDate: &start})
	if err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}
	if len(transactions) == 0 {
		fmt.Println(cli.FormatInfo("No transactions to scan."))
		return nil
	}

	detector := duplicate.NewDetector(store, threshold)

	// Each unordered pair is recorded once, keyed by ID order.
	seen := make(map[string]bool)
	found := 0

	for i := range transactions {
		ref := &transactions[i]

		candidates, err := detector.FindCandidates(ctx, ref)
		if err != nil {
			return fmt.Errorf("failed to scan transaction %s: %w", ref.ID, err)
		}

		for _, candidate := range candidates {
			a, b := ref.ID, candidate.Txn.ID
			if a > b {
				a, b = b, a
			}
			key := a + "|" + b
			if seen[key] {
				continue
			}
			seen[key] = true

			review := &model.DuplicateReview{
				ExistingTxnID: ref.ID,
				CandidateID:   candidate.Txn.ID,
				Score:         candidate.Score,
			}
			if err := store.SaveDuplicateReview(ctx, review); err != nil {
				return fmt.Errorf("failed to record review for %s/%s: %w", ref.ID, candidate.Txn.ID, err)
			}
			found++
		}
	}

	if found == 0 {
		fmt.Println(cli.FormatSuccess(fmt.Sprintf("Scanned %d transactions, no duplicates found.", len(transactions))))
		return nil
	}

	fmt.Println(cli.FormatWarning(fmt.Sprintf("Scanned %d transactions, flagged %d pairs for review.", len(transactions), found)))
	fmt.Println(cli.SubtleStyle.Render("Run 'fundflow duplicates list' to see the queue."))
	return nil
}

func duplicatesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the pending duplicate review queue",
		RunE:  runDuplicatesList,
	}
}

func runDuplicatesList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	reviews, err := store.GetPendingDuplicateReviews(ctx)
	if err != nil {
		return fmt.Errorf("failed to load reviews: %w", err)
	}
	if len(reviews) == 0 {
		fmt.Println(cli.FormatSuccess("No pending duplicate reviews."))
		return nil
	}

	fmt.Println(cli.FormatTitle("Pending Duplicate Reviews"))
	for _, review := range reviews {
		fmt.Printf("#%-4d score %3d  %s\n", review.ID, review.Score,
			cli.SubtleStyle.Render(describePair(ctx, store, &review)))
	}
	fmt.Println(cli.SubtleStyle.Render("Resolve with 'fundflow duplicates resolve <id> <keep_both|merge|dismiss>'."))
	return nil
}

// describePair renders both sides of a review, falling back to raw IDs when a
// transaction has been deleted since the scan.
func describePair(ctx context.Context, store service.Storage, review *model.DuplicateReview) string {
	describe := func(id string) string {
		txn, err := store.GetTransactionByID(ctx, id)
		if err != nil || txn == nil {
			return id
		}
		return fmt.Sprintf("%s $%.2f on %s", txn.Description, txn.Amount, txn.Date.Format("2006-01-02"))
	}
	return describe(review.ExistingTxnID) + "  vs  " + describe(review.CandidateID)
}

func duplicatesResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [review-id] [keep_both|merge|dismiss]",
		Short: "Resolve a pending duplicate review",
		Args:  cobra.ExactArgs(2),
		RunE:  runDuplicatesResolve,
	}
}

func runDuplicatesResolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid review ID: %s", args[0])
	}
	resolution := model.DuplicateResolution(args[1])

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.ResolveDuplicateReview(ctx, id, resolution); err != nil {
		return fmt.Errorf("failed to resolve review %d: %w", id, err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Review %d resolved as %s.", id, resolution)))
	return nil
}
