// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/mverde/fundflow/internal/model"
)

// PlanFilter defines filtering options for expense plan queries.
type PlanFilter struct {
	Purpose    *model.PlanPurpose
	AccountID  string
	ActiveOnly bool
	Limit      int
	Offset     int
}

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	AccountID string
	Limit     int
	Offset    int
}

// Storage defines the contract for the persistence layer.
type Storage interface {
	// Expense plan operations
	CreatePlan(ctx context.Context, plan *model.ExpensePlan) error
	GetPlan(ctx context.Context, name string) (*model.ExpensePlan, error)
	GetPlanByID(ctx context.Context, id string) (*model.ExpensePlan, error)
	ListPlans(ctx context.Context, filter PlanFilter) ([]model.ExpensePlan, error)
	UpdatePlan(ctx context.Context, plan *model.ExpensePlan) error
	UpdatePlanBalance(ctx context.Context, id string, balance float64) error
	DeletePlan(ctx context.Context, id string) error

	// Transaction operations
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	GetTransactionsNear(ctx context.Context, date time.Time, window time.Duration) ([]model.Transaction, error)

	// Account operations
	SaveAccount(ctx context.Context, account *model.Account) error
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	ListAccounts(ctx context.Context) ([]model.Account, error)

	// Duplicate review operations
	SaveDuplicateReview(ctx context.Context, review *model.DuplicateReview) error
	GetPendingDuplicateReviews(ctx context.Context) ([]model.DuplicateReview, error)
	ResolveDuplicateReview(ctx context.Context, id int64, resolution model.DuplicateResolution) error

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	// Include all Storage methods for use within transaction
	Storage
}

// ImportStats shows the results of an import run.
type ImportStats struct {
	FilesProcessed int
	Parsed         int
	Saved          int
	Duplicates     int
}
