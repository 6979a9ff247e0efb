package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mverde/fundflow/internal/cli"
	"github.com/mverde/fundflow/internal/model"
	"github.com/mverde/fundflow/internal/ofx"
	"github.com/mverde/fundflow/internal/service"
)

func importOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-ofx [files...]",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import financial transactions from OFX or QFX (Quicken) files exported from your bank.

Accounts referenced by the files are registered automatically, and
transactions already imported are skipped by content hash.

Examples:
  # Import single file
  fundflow import-ofx ~/Downloads/chase_jan_2025.qfx

  # Import all QFX files in a directory
  fundflow import-ofx ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportOFX,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without saving")

	return cmd
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	// Expand globs and collect all files
	var allFiles []string
	for _, pattern := range args {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			// If no glob matches, check if it's a direct file
			if _, err := os.Stat(pattern); err == nil {
				allFiles = append(allFiles, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
		} else {
			allFiles = append(allFiles, matches...)
		}
	}

	if len(allFiles) == 0 {
		return fmt.Errorf("no files found to import")
	}

	slog.Info("Importing OFX files",
		"file_count", len(allFiles),
		"dry_run", dryRun)

	ctx := cmd.Context()
	parser := ofx.NewParser()

	var transactions []model.Transaction
	accounts := make(map[string]model.Account)
	seen := make(map[string]bool) // Deduplicate across files by hash
	stats := service.ImportStats{}

	for _, filePath := range allFiles {
		f, err := os.Open(filePath)
		if err != nil {
			slog.Error("Failed to open file", "file", filePath, "error", err)
			continue
		}

		stmt, err := parser.ParseStatement(ctx, f)
		_ = f.Close()
		if err != nil {
			slog.Error("Failed to parse OFX file", "file", filePath, "error", err)
			continue
		}
		stats.FilesProcessed++
		stats.Parsed += len(stmt.Transactions)

		for _, account := range stmt.Accounts {
			accounts[account.ID] = account
		}
		for _, tx := range stmt.Transactions {
			if seen[tx.Hash] {
				stats.Duplicates++
				continue
			}
			seen[tx.Hash] = true
			transactions = append(transactions, tx)
		}

		slog.Info("Processed file",
			"file", filepath.Base(filePath),
			"transactions", len(stmt.Transactions))
	}

	if len(transactions) == 0 {
		slog.Warn("No transactions found in any file")
		return nil
	}

	if dryRun {
		fmt.Println(cli.FormatInfo(fmt.Sprintf(
			"Dry run: would import %d transactions across %d accounts (%d in-batch duplicates skipped)",
			len(transactions), len(accounts), stats.Duplicates)))
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	for id := range accounts {
		account := accounts[id]
		if err := store.SaveAccount(ctx, &account); err != nil {
			return fmt.Errorf("failed to register account %s: %w", id, err)
		}
	}

	if err := store.SaveTransactions(ctx, transactions); err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}
	stats.Saved = len(transactions)

	fmt.Println(cli.FormatSuccess(fmt.Sprintf(
		"Imported %d transactions from %d files (%d accounts, %d duplicates skipped)",
		stats.Saved, stats.FilesProcessed, len(accounts), stats.Duplicates)))
	fmt.Println(cli.SubtleStyle.Render("Run 'fundflow duplicates scan' to check for near-duplicate entries."))

	return nil
}
