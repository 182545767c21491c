package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/nileshk/tiffinbox/internal/apperrors"
	"github.com/nileshk/tiffinbox/internal/models"
)

type WalletRepo struct {
	DB DBTX
}

// Create wallet lazily on first access
// If a wallet exists for the user already return it as is
const getOrCreateWallet = `-- name: GetOrCreateWallet
WITH insert_wallet AS (
	INSERT INTO wallets (id, user_id, balance, updated_at)
	VALUES ($1, $2, 0, $3)
	ON CONFLICT (user_id) DO NOTHING
	RETURNING id, user_id, balance, updated_at
)
SELECT id, user_id, balance, updated_at FROM insert_wallet
UNION
SELECT id, user_id, balance, updated_at FROM wallets WHERE user_id = $2
`

func (r *WalletRepo) GetOrCreate(ctx context.Context, userID uuid.UUID) (models.Wallet, error) {
	rows, _ := r.DB.Query(ctx, getOrCreateWallet, uuid.New(), userID, time.Now())
	wallet, err := pgx.CollectOneRow(rows, rowToWallet)
	if err != nil {
		return wallet, fmt.Errorf("db error: %w", err)
	}

	return wallet, nil
}

// Conditional adjust: the row is only updated when the resulting balance
// stays non negative, so a concurrent check-then-debit cannot race past the
// check. The UPDATE takes the row lock, concurrent adjusts serialize on it.
const adjustWallet = `-- name: AdjustWallet
UPDATE wallets
SET balance = balance + $2, updated_at = $3
WHERE id = $1 AND balance + $2 >= 0
RETURNING id, user_id, balance, updated_at
`

func (r *WalletRepo) Adjust(ctx context.Context, walletID uuid.UUID, delta decimal.Decimal) (models.Wallet, error) {
	rows, _ := r.DB.Query(ctx, adjustWallet, walletID, delta, time.Now())
	wallet, err := pgx.CollectOneRow(rows, rowToWallet)

	switch {
	case err == nil:
		return wallet, nil
	case errors.Is(err, pgx.ErrNoRows):
		// No row updated: either the wallet is missing or the guard failed
		return wallet, r.adjustFailure(ctx, walletID)
	default:
		return wallet, fmt.Errorf("db error: %w", err)
	}
}

func (r *WalletRepo) adjustFailure(ctx context.Context, walletID uuid.UUID) error {
	const getWallet = `SELECT id, user_id, balance, updated_at FROM wallets WHERE id = $1`

	rows, _ := r.DB.Query(ctx, getWallet, walletID)
	_, err := pgx.CollectOneRow(rows, rowToWallet)

	switch {
	case err == nil:
		return apperrors.ErrWalletInsufficient
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.ErrWalletNotFound
	default:
		return fmt.Errorf("db error: %w", err)
	}
}

const recordTransaction = `-- name: RecordWalletTransaction
INSERT INTO wallet_transactions (id, wallet_id, txn_type, amount, reference, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, wallet_id, txn_type, amount, reference, created_at
`

func (r *WalletRepo) RecordTransaction(ctx context.Context, txn models.WalletTransaction) (models.WalletTransaction, error) {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now()
	}

	if !txn.Amount.IsPositive() {
		return txn, apperrors.ErrAmountInvalid
	}

	rows, _ := r.DB.Query(ctx, recordTransaction, txn.ID, txn.WalletID, txn.Type, txn.Amount, txn.Reference, txn.CreatedAt)
	txn, err := pgx.CollectOneRow(rows, rowToWalletTransaction)
	if err != nil {
		return txn, fmt.Errorf("db error: %w", err)
	}

	return txn, nil
}

const listTransactions = `-- name: ListWalletTransactions
SELECT id, wallet_id, txn_type, amount, reference, created_at
FROM wallet_transactions
WHERE wallet_id = $1
ORDER BY created_at DESC
`

func (r *WalletRepo) ListTransactions(ctx context.Context, walletID uuid.UUID) ([]models.WalletTransaction, error) {
	rows, _ := r.DB.Query(ctx, listTransactions, walletID)
	txns, err := pgx.CollectRows(rows, rowToWalletTransaction)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return txns, nil
}

func rowToWallet(row pgx.CollectableRow) (models.Wallet, error) {
	var w models.Wallet
	err := row.Scan(&w.ID, &w.UserID, &w.Balance, &w.UpdatedAt)
	return w, err
}

func rowToWalletTransaction(row pgx.CollectableRow) (models.WalletTransaction, error) {
	var t models.WalletTransaction
	err := row.Scan(&t.ID, &t.WalletID, &t.Type, &t.Amount, &t.Reference, &t.CreatedAt)
	return t, err
}
