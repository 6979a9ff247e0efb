package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mverde/fundflow/internal/common"
	"github.com/mverde/fundflow/internal/model"
)

// SaveAccount inserts or updates a payment account.
func (s *SQLiteStorage) SaveAccount(ctx context.Context, account *model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAccount(account); err != nil {
		return err
	}
	return s.saveAccountTx(ctx, s.db, account)
}

func (s *SQLiteStorage) saveAccountTx(ctx context.Context, q queryer, account *model.Account) error {
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO accounts (id, name, institution, type, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			institution = excluded.institution,
			type = excluded.type
	`,
		account.ID,
		account.Name,
		account.Institution,
		string(account.Type),
		account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save account %s: %w", account.ID, err)
	}
	return nil
}

// GetAccount retrieves an account by ID.
func (s *SQLiteStorage) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getAccountTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getAccountTx(ctx context.Context, q queryer, id string) (*model.Account, error) {
	var account model.Account
	var accountType string
	var institution sql.NullString

	err := q.QueryRowContext(ctx, `
		SELECT id, name, institution, type, created_at FROM accounts WHERE id = ?
	`, id).Scan(&account.ID, &account.Name, &institution, &accountType, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account %s: %w", id, err)
	}

	account.Institution = institution.String
	account.Type = model.AccountType(accountType)
	return &account, nil
}

// ListAccounts retrieves all accounts ordered by name.
func (s *SQLiteStorage) ListAccounts(ctx context.Context) ([]model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.listAccountsTx(ctx, s.db)
}

func (s *SQLiteStorage) listAccountsTx(ctx context.Context, q queryer) ([]model.Account, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, institution, type, created_at FROM accounts ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.Account
	for rows.Next() {
		var account model.Account
		var accountType string
		var institution sql.NullString

		if err := rows.Scan(&account.ID, &account.Name, &institution, &accountType, &account.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		account.Institution = institution.String
		account.Type = model.AccountType(accountType)
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}
