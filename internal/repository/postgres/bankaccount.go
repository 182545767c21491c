package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nileshk/tiffinbox/internal/apperrors"
	"github.com/nileshk/tiffinbox/internal/models"
)

type BankAccountRepo struct {
	DB DBTX
}

const createBankAccount = `-- name: CreateBankAccount
INSERT INTO bank_accounts (id, user_id, holder_name, bank_name, account_number, ifsc_code, is_primary, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, user_id, holder_name, bank_name, account_number, ifsc_code, is_primary, created_at
`

func (r *BankAccountRepo) Create(ctx context.Context, account models.BankAccount) (models.BankAccount, error) {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}

	rows, _ := r.DB.Query(ctx, createBankAccount,
		account.ID, account.UserID, account.HolderName, account.BankName,
		account.AccountNumber, account.IFSCCode, account.Primary, account.CreatedAt,
	)
	account, err := pgx.CollectOneRow(rows, rowToBankAccount)
	if err != nil {
		return account, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

const clearPrimary = `-- name: ClearPrimaryBankAccounts
UPDATE bank_accounts
SET is_primary = false
WHERE user_id = $1 AND is_primary
`

func (r *BankAccountRepo) ClearPrimary(ctx context.Context, userID uuid.UUID) error {
	_, err := r.DB.Exec(ctx, clearPrimary, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const getOwnedBankAccount = `-- name: GetOwnedBankAccount
SELECT id, user_id, holder_name, bank_name, account_number, ifsc_code, is_primary, created_at
FROM bank_accounts
WHERE id = $1 AND user_id = $2
`

func (r *BankAccountRepo) GetOwned(ctx context.Context, accountID uuid.UUID, userID uuid.UUID) (models.BankAccount, error) {
	rows, _ := r.DB.Query(ctx, getOwnedBankAccount, accountID, userID)
	account, err := pgx.CollectOneRow(rows, rowToBankAccount)
	return account, notFoundOrDBErr(err, apperrors.ErrBankAccountNotFound)
}

const getPrimaryBankAccount = `-- name: GetPrimaryBankAccount
SELECT id, user_id, holder_name, bank_name, account_number, ifsc_code, is_primary, created_at
FROM bank_accounts
WHERE user_id = $1 AND is_primary
ORDER BY created_at DESC
LIMIT 1
`

func (r *BankAccountRepo) GetPrimary(ctx context.Context, userID uuid.UUID) (models.BankAccount, error) {
	rows, _ := r.DB.Query(ctx, getPrimaryBankAccount, userID)
	account, err := pgx.CollectOneRow(rows, rowToBankAccount)
	return account, notFoundOrDBErr(err, apperrors.ErrBankAccountNotFound)
}

const listBankAccounts = `-- name: ListBankAccounts
SELECT id, user_id, holder_name, bank_name, account_number, ifsc_code, is_primary, created_at
FROM bank_accounts
WHERE user_id = $1
ORDER BY is_primary DESC, created_at DESC
`

func (r *BankAccountRepo) List(ctx context.Context, userID uuid.UUID) ([]models.BankAccount, error) {
	rows, _ := r.DB.Query(ctx, listBankAccounts, userID)
	accounts, err := pgx.CollectRows(rows, rowToBankAccount)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return accounts, nil
}

func rowToBankAccount(row pgx.CollectableRow) (models.BankAccount, error) {
	var a models.BankAccount
	err := row.Scan(&a.ID, &a.UserID, &a.HolderName, &a.BankName, &a.AccountNumber, &a.IFSCCode, &a.Primary, &a.CreatedAt)
	return a, err
}
