package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mverde/fundflow/internal/common"
	"github.com/mverde/fundflow/internal/model"
	"github.com/mverde/fundflow/internal/service"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func testPlan(name string) *model.ExpensePlan {
	due := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)
	return &model.ExpensePlan{
		ID:                  "plan-" + name,
		Name:                name,
		Purpose:             model.PurposeSinkingFund,
		TargetAmount:        4000,
		MonthlyContribution: 400,
		CurrentBalance:      1200,
		NextDueDate:         &due,
		Active:              true,
	}
}

func testTransactions(count int) []model.Transaction {
	txns := make([]model.Transaction, count)
	baseDate := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	for i := 0; i < count; i++ {
		txns[i] = model.Transaction{
			ID:           fmt.Sprintf("txn-%03d", i+1),
			Date:         baseDate.AddDate(0, 0, i),
			Description:  fmt.Sprintf("PURCHASE %03d", i+1),
			MerchantName: fmt.Sprintf("Merchant %d", (i%3)+1),
			Amount:       float64(i+1) * 10.50,
			AccountID:    "acc1",
		}
		txns[i].Hash = txns[i].GenerateHash()
	}
	return txns
}

func TestSQLiteStorage_Migrate(t *testing.T) {
	store := createTestStorage(t)

	// Migrating twice is a no-op.
	assert.NoError(t, store.Migrate(context.Background()))
}

func TestSQLiteStorage_PlanCRUD(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	plan := testPlan("New Roof")
	require.NoError(t, store.CreatePlan(ctx, plan))

	t.Run("get by name", func(t *testing.T) {
		got, err := store.GetPlan(ctx, "New Roof")
		require.NoError(t, err)
		assert.Equal(t, plan.ID, got.ID)
		assert.Equal(t, model.PurposeSinkingFund, got.Purpose)
		assert.InDelta(t, 4000, got.TargetAmount, 0.001)
		require.NotNil(t, got.NextDueDate)
		assert.Equal(t, 2026, got.NextDueDate.Year())
		assert.Nil(t, got.TargetDate)
	})

	t.Run("get by id", func(t *testing.T) {
		got, err := store.GetPlanByID(ctx, plan.ID)
		require.NoError(t, err)
		assert.Equal(t, "New Roof", got.Name)
	})

	t.Run("duplicate name rejected", func(t *testing.T) {
		dup := testPlan("New Roof")
		dup.ID = "plan-other"
		err := store.CreatePlan(ctx, dup)
		assert.ErrorIs(t, err, common.ErrPlanExists)
	})

	t.Run("update", func(t *testing.T) {
		plan.MonthlyContribution = 450
		plan.Purpose = model.PurposeSpendingBudget
		require.NoError(t, store.UpdatePlan(ctx, plan))

		got, err := store.GetPlanByID(ctx, plan.ID)
		require.NoError(t, err)
		assert.InDelta(t, 450, got.MonthlyContribution, 0.001)
		assert.Equal(t, model.PurposeSpendingBudget, got.Purpose)
	})

	t.Run("update balance", func(t *testing.T) {
		require.NoError(t, store.UpdatePlanBalance(ctx, plan.ID, 2000))

		got, err := store.GetPlanByID(ctx, plan.ID)
		require.NoError(t, err)
		assert.InDelta(t, 2000, got.CurrentBalance, 0.001)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.DeletePlan(ctx, plan.ID))

		_, err := store.GetPlanByID(ctx, plan.ID)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := store.GetPlan(ctx, "does not exist")
		assert.ErrorIs(t, err, common.ErrNotFound)

		assert.ErrorIs(t, store.UpdatePlanBalance(ctx, "missing", 1), common.ErrNotFound)
		assert.ErrorIs(t, store.DeletePlan(ctx, "missing"), common.ErrNotFound)
	})
}

func TestSQLiteStorage_ListPlans(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	sinking := testPlan("Vacation")
	budget := testPlan("Groceries")
	budget.ID = "plan-groceries"
	budget.Purpose = model.PurposeSpendingBudget
	inactive := testPlan("Old Car")
	inactive.ID = "plan-old-car"
	inactive.Active = false

	require.NoError(t, store.CreatePlan(ctx, sinking))
	require.NoError(t, store.CreatePlan(ctx, budget))
	require.NoError(t, store.CreatePlan(ctx, inactive))

	t.Run("all plans", func(t *testing.T) {
		plans, err := store.ListPlans(ctx, service.PlanFilter{})
		require.NoError(t, err)
		assert.Len(t, plans, 3)
	})

	t.Run("active only", func(t *testing.T) {
		plans, err := store.ListPlans(ctx, service.PlanFilter{ActiveOnly: true})
		require.NoError(t, err)
		assert.Len(t, plans, 2)
	})

	t.Run("by purpose", func(t *testing.T) {
		purpose := model.PurposeSpendingBudget
		plans, err := store.ListPlans(ctx, service.PlanFilter{Purpose: &purpose})
		require.NoError(t, err)
		require.Len(t, plans, 1)
		assert.Equal(t, "Groceries", plans[0].Name)
	})

	t.Run("limit", func(t *testing.T) {
		plans, err := store.ListPlans(ctx, service.PlanFilter{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, plans, 2)
	})
}

func TestSQLiteStorage_SaveTransactions(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	txns := testTransactions(3)
	require.NoError(t, store.SaveTransactions(ctx, txns))

	t.Run("round trip", func(t *testing.T) {
		got, err := store.GetTransactionByID(ctx, "txn-001")
		require.NoError(t, err)
		assert.Equal(t, "PURCHASE 001", got.Description)
		assert.Equal(t, "Merchant 1", got.MerchantName)
		assert.InDelta(t, 10.50, got.Amount, 0.001)
		assert.Equal(t, "acc1", got.AccountID)
	})

	t.Run("same hash saved once", func(t *testing.T) {
		// Re-importing the same statement must not create duplicates.
		require.NoError(t, store.SaveTransactions(ctx, txns))

		got, err := store.GetTransactions(ctx, service.TransactionFilter{})
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("empty slice rejected", func(t *testing.T) {
		assert.Error(t, store.SaveTransactions(ctx, []model.Transaction{}))
	})
}

func TestSQLiteStorage_GetTransactionsNear(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	// Ten transactions, one per day starting 2025-01-15.
	require.NoError(t, store.SaveTransactions(ctx, testTransactions(10)))

	center := time.Date(2025, 1, 18, 0, 0, 0, 0, time.UTC)
	got, err := store.GetTransactionsNear(ctx, center, 48*time.Hour)
	require.NoError(t, err)

	// 2025-01-16 through 2025-01-20 inclusive.
	require.Len(t, got, 5)
	assert.Equal(t, "txn-002", got[0].ID)
	assert.Equal(t, "txn-006", got[4].ID)
}

func TestSQLiteStorage_Accounts(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	account := &model.Account{
		ID:          "acc1",
		Name:        "Everyday Checking",
		Institution: "First National",
		Type:        model.AccountTypeChecking,
	}
	require.NoError(t, store.SaveAccount(ctx, account))

	t.Run("round trip", func(t *testing.T) {
		got, err := store.GetAccount(ctx, "acc1")
		require.NoError(t, err)
		assert.Equal(t, "Everyday Checking", got.Name)
		assert.Equal(t, model.AccountTypeChecking, got.Type)
	})

	t.Run("save is upsert", func(t *testing.T) {
		account.Name = "Joint Checking"
		require.NoError(t, store.SaveAccount(ctx, account))

		accounts, err := store.ListAccounts(ctx)
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, "Joint Checking", accounts[0].Name)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := store.GetAccount(ctx, "missing")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestSQLiteStorage_DuplicateReviews(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTransactions(ctx, testTransactions(2)))

	review := &model.DuplicateReview{
		ExistingTxnID: "txn-001",
		CandidateID:   "txn-002",
		Score:         85,
		Resolution:    model.ResolutionPending,
	}
	require.NoError(t, store.SaveDuplicateReview(ctx, review))
	require.NotZero(t, review.ID)

	t.Run("pending listed by score", func(t *testing.T) {
		low := &model.DuplicateReview{
			CandidateID: "txn-001",
			Score:       60,
			Resolution:  model.ResolutionPending,
		}
		require.NoError(t, store.SaveDuplicateReview(ctx, low))

		pending, err := store.GetPendingDuplicateReviews(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 2)
		assert.Equal(t, 85, pending[0].Score)
		assert.Equal(t, 60, pending[1].Score)
	})

	t.Run("rescanning a pair updates the score", func(t *testing.T) {
		again := &model.DuplicateReview{
			ExistingTxnID: "txn-001",
			CandidateID:   "txn-002",
			Score:         90,
			Resolution:    model.ResolutionPending,
		}
		require.NoError(t, store.SaveDuplicateReview(ctx, again))

		pending, err := store.GetPendingDuplicateReviews(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 2)
		assert.Equal(t, 90, pending[0].Score)
	})

	t.Run("resolve", func(t *testing.T) {
		require.NoError(t, store.ResolveDuplicateReview(ctx, review.ID, model.ResolutionMerge))

		pending, err := store.GetPendingDuplicateReviews(ctx)
		require.NoError(t, err)
		assert.Len(t, pending, 1)
	})

	t.Run("resolve requires pending", func(t *testing.T) {
		err := store.ResolveDuplicateReview(ctx, review.ID, model.ResolutionDismiss)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("invalid resolution rejected", func(t *testing.T) {
		err := store.ResolveDuplicateReview(ctx, review.ID, model.ResolutionPending)
		assert.Error(t, err)
	})
}

func TestSQLiteStorage_BeginTx(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	t.Run("commit persists", func(t *testing.T) {
		tx, err := store.BeginTx(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.CreatePlan(ctx, testPlan("Committed")))
		require.NoError(t, tx.Commit())

		_, err = store.GetPlan(ctx, "Committed")
		assert.NoError(t, err)
	})

	t.Run("rollback discards", func(t *testing.T) {
		tx, err := store.BeginTx(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.CreatePlan(ctx, testPlan("Discarded")))
		require.NoError(t, tx.Rollback())

		_, err = store.GetPlan(ctx, "Discarded")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("nested transactions rejected", func(t *testing.T) {
		tx, err := store.BeginTx(ctx)
		require.NoError(t, err)
		defer func() { _ = tx.Rollback() }()

		_, err = tx.BeginTx(ctx)
		assert.Error(t, err)
	})
}
