package wallet

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nileshk/tiffinbox/internal/apperrors"
	"github.com/nileshk/tiffinbox/internal/models"
	"github.com/nileshk/tiffinbox/internal/repository"
)

// WalletService is the closed-loop ledger: the only component that moves
// money. Every balance change is paired with an append-only ledger entry
// and both always commit or fail together.
type WalletService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *WalletService {
	return &WalletService{storage: storage}
}

// Credit applies a positive balance change plus its ledger entry against
// the given storage. Run it against a tx-bound Storage when it has to be
// part of a larger atomic operation (order placement, delivery claim).
func Credit(ctx context.Context, s repository.Storage, userID uuid.UUID, amount decimal.Decimal, txnType string, reference string) (models.Wallet, error) {
	return apply(ctx, s, userID, amount, amount, txnType, reference)
}

// Debit is Credit's counterpart: the balance decreases, the recorded entry
// keeps the positive magnitude. Fails with apperrors.ErrWalletInsufficient
// without touching anything when the balance does not cover the amount.
func Debit(ctx context.Context, s repository.Storage, userID uuid.UUID, amount decimal.Decimal, txnType string, reference string) (models.Wallet, error) {
	return apply(ctx, s, userID, amount.Neg(), amount, txnType, reference)
}

func apply(ctx context.Context, s repository.Storage, userID uuid.UUID, delta decimal.Decimal, amount decimal.Decimal, txnType string, reference string) (models.Wallet, error) {
	var wallet models.Wallet

	if !amount.IsPositive() {
		return wallet, apperrors.ErrAmountInvalid
	}

	wallet, err := s.Wallet().GetOrCreate(ctx, userID)
	if err != nil {
		return wallet, err
	}

	wallet, err = s.Wallet().Adjust(ctx, wallet.ID, delta)
	if err != nil {
		return wallet, err
	}

	_, err = s.Wallet().RecordTransaction(ctx, models.WalletTransaction{
		WalletID:  wallet.ID,
		Type:      txnType,
		Amount:    amount,
		Reference: reference,
	})
	if err != nil {
		return wallet, fmt.Errorf("balance adjusted but entry not recorded, rolling back. Err: %w", err)
	}

	return wallet, nil
}

// Get wallet for the user, create an empty one on first access
func (s *WalletService) GetOrCreate(ctx context.Context, userID uuid.UUID) (models.Wallet, error) {
	return s.storage.Wallet().GetOrCreate(ctx, userID)
}

// Deposit money into the ledger
// The wallet is a closed loop: any positive amount is accepted as is
func (s *WalletService) Deposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (models.Wallet, error) {
	var wallet models.Wallet

	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		var err error
		wallet, err = Credit(ctx, tx, userID, amount, models.TxnTypeDeposit, "Added to Wallet")
		return err
	})

	return wallet, err
}

// DepositFromBank credits the ledger citing an external account
// No real bank transfer is performed, only the entry type differs
func (s *WalletService) DepositFromBank(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (models.Wallet, error) {
	var wallet models.Wallet

	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		var err error
		wallet, err = Credit(ctx, tx, userID, amount, models.TxnTypeBankTransferIn, "Added from Bank Account")
		return err
	})

	return wallet, err
}

// WithdrawToBank moves ledger money towards an external account.
// The account is resolved first: an explicit id is ownership checked
// against the caller, otherwise the caller's primary account is used.
// Insufficient balance or missing account fails without any mutation.
func (s *WalletService) WithdrawToBank(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, bankAccountID *uuid.UUID) (models.Wallet, error) {
	var wallet models.Wallet

	if !amount.IsPositive() {
		return wallet, apperrors.ErrAmountInvalid
	}

	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		var account models.BankAccount
		var err error

		switch bankAccountID {
		case nil:
			account, err = tx.BankAccount().GetPrimary(ctx, userID)
		default:
			account, err = tx.BankAccount().GetOwned(ctx, *bankAccountID, userID)
		}
		if err != nil {
			return err
		}

		wallet, err = Debit(ctx, tx, userID, amount, models.TxnTypeBankTransferOut,
			fmt.Sprintf("BANK:%s", account.ID))
		return err
	})

	return wallet, err
}

// Transactions returns the full ledger history of the user, newest first
func (s *WalletService) Transactions(ctx context.Context, userID uuid.UUID) ([]models.WalletTransaction, error) {
	wallet, err := s.storage.Wallet().GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.storage.Wallet().ListTransactions(ctx, wallet.ID)
}
