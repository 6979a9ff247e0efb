package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mverde/fundflow/internal/common"
	"github.com/mverde/fundflow/internal/model"
	"github.com/mverde/fundflow/internal/service"
)

// queryer abstracts *sql.DB and *sql.Tx so plan operations can run either
// standalone or inside a transaction.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreatePlan inserts a new expense plan.
func (s *SQLiteStorage) CreatePlan(ctx context.Context, plan *model.ExpensePlan) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePlan(plan); err != nil {
		return err
	}
	return s.createPlanTx(ctx, s.db, plan)
}

func (s *SQLiteStorage) createPlanTx(ctx context.Context, q queryer, plan *model.ExpensePlan) error {
	now := time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now

	_, err := q.ExecContext(ctx, `
		INSERT INTO expense_plans (
			id, name, purpose, target_amount, monthly_contribution,
			current_balance, next_due_date, target_date, account_id,
			active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		plan.ID,
		plan.Name,
		string(plan.Purpose),
		plan.TargetAmount,
		plan.MonthlyContribution,
		plan.CurrentBalance,
		nullTime(plan.NextDueDate),
		nullTime(plan.TargetDate),
		nullString(plan.AccountID),
		plan.Active,
		plan.CreatedAt,
		plan.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: plan %q", common.ErrPlanExists, plan.Name)
		}
		return fmt.Errorf("failed to insert plan %s: %w", plan.Name, err)
	}
	return nil
}

// GetPlan retrieves a plan by name.
func (s *SQLiteStorage) GetPlan(ctx context.Context, name string) (*model.ExpensePlan, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	return s.getPlanByNameTx(ctx, s.db, name)
}

// GetPlanByID retrieves a plan by ID.
func (s *SQLiteStorage) GetPlanByID(ctx context.Context, id string) (*model.ExpensePlan, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getPlanByIDTx(ctx, s.db, id)
}

const planColumns = `id, name, purpose, target_amount, monthly_contribution,
	current_balance, next_due_date, target_date, account_id, active,
	created_at, updated_at`

func (s *SQLiteStorage) getPlanByNameTx(ctx context.Context, q queryer, name string) (*model.ExpensePlan, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM expense_plans WHERE name = ?`, name)
	return scanPlan(row)
}

func (s *SQLiteStorage) getPlanByIDTx(ctx context.Context, q queryer, id string) (*model.ExpensePlan, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM expense_plans WHERE id = ?`, id)
	return scanPlan(row)
}

// ListPlans retrieves plans matching the filter, newest first.
func (s *SQLiteStorage) ListPlans(ctx context.Context, filter service.PlanFilter) ([]model.ExpensePlan, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.listPlansTx(ctx, s.db, filter)
}

func (s *SQLiteStorage) listPlansTx(ctx context.Context, q queryer, filter service.PlanFilter) ([]model.ExpensePlan, error) {
	query := `SELECT ` + planColumns + ` FROM expense_plans WHERE 1=1`
	var args []any

	if filter.Purpose != nil {
		query += ` AND purpose = ?`
		args = append(args, string(*filter.Purpose))
	}
	if filter.AccountID != "" {
		query += ` AND account_id = ?`
		args = append(args, filter.AccountID)
	}
	if filter.ActiveOnly {
		query += ` AND active = 1`
	}

	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var plans []model.ExpensePlan
	for rows.Next() {
		plan, scanErr := scanPlanRows(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		plans = append(plans, *plan)
	}
	return plans, rows.Err()
}

// UpdatePlan updates all mutable fields of a plan.
func (s *SQLiteStorage) UpdatePlan(ctx context.Context, plan *model.ExpensePlan) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePlan(plan); err != nil {
		return err
	}
	return s.updatePlanTx(ctx, s.db, plan)
}

func (s *SQLiteStorage) updatePlanTx(ctx context.Context, q queryer, plan *model.ExpensePlan) error {
	plan.UpdatedAt = time.Now().UTC()

	result, err := q.ExecContext(ctx, `
		UPDATE expense_plans SET
			name = ?, purpose = ?, target_amount = ?, monthly_contribution = ?,
			current_balance = ?, next_due_date = ?, target_date = ?,
			account_id = ?, active = ?, updated_at = ?
		WHERE id = ?
	`,
		plan.Name,
		string(plan.Purpose),
		plan.TargetAmount,
		plan.MonthlyContribution,
		plan.CurrentBalance,
		nullTime(plan.NextDueDate),
		nullTime(plan.TargetDate),
		nullString(plan.AccountID),
		plan.Active,
		plan.UpdatedAt,
		plan.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update plan %s: %w", plan.ID, err)
	}
	return requireRowAffected(result, plan.ID)
}

// UpdatePlanBalance updates just the accumulated balance of a plan.
func (s *SQLiteStorage) UpdatePlanBalance(ctx context.Context, id string, balance float64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return s.updatePlanBalanceTx(ctx, s.db, id, balance)
}

func (s *SQLiteStorage) updatePlanBalanceTx(ctx context.Context, q queryer, id string, balance float64) error {
	result, err := q.ExecContext(ctx, `
		UPDATE expense_plans SET current_balance = ?, updated_at = ? WHERE id = ?
	`, balance, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update plan balance %s: %w", id, err)
	}
	return requireRowAffected(result, id)
}

// DeletePlan removes a plan.
func (s *SQLiteStorage) DeletePlan(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return s.deletePlanTx(ctx, s.db, id)
}

func (s *SQLiteStorage) deletePlanTx(ctx context.Context, q queryer, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM expense_plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete plan %s: %w", id, err)
	}
	return requireRowAffected(result, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row *sql.Row) (*model.ExpensePlan, error) {
	plan, err := scanPlanFrom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return plan, nil
}

func scanPlanRows(rows *sql.Rows) (*model.ExpensePlan, error) {
	return scanPlanFrom(rows)
}

func scanPlanFrom(scanner rowScanner) (*model.ExpensePlan, error) {
	var plan model.ExpensePlan
	var purpose string
	var nextDue, targetDate sql.NullTime
	var accountID sql.NullString

	err := scanner.Scan(
		&plan.ID,
		&plan.Name,
		&purpose,
		&plan.TargetAmount,
		&plan.MonthlyContribution,
		&plan.CurrentBalance,
		&nextDue,
		&targetDate,
		&accountID,
		&plan.Active,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan plan: %w", err)
	}

	plan.Purpose = model.PlanPurpose(purpose)
	if nextDue.Valid {
		d := nextDue.Time
		plan.NextDueDate = &d
	}
	if targetDate.Valid {
		d := targetDate.Time
		plan.TargetDate = &d
	}
	plan.AccountID = accountID.String

	return &plan, nil
}

func requireRowAffected(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: plan %s", common.ErrNotFound, id)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
