package wallet

import (
	"context"

	"github.com/google/uuid"

	"github.com/nileshk/tiffinbox/internal/models"
	"github.com/nileshk/tiffinbox/internal/repository"
)

type CreateBankAccountParams struct {
	HolderName    string
	BankName      string
	AccountNumber string
	IFSCCode      string
	Primary       bool
}

// CreateBankAccount registers an external account for the user.
// When the new account is primary every other account of the user is
// demoted first, in the same transaction, so at most one primary exists.
func (s *WalletService) CreateBankAccount(ctx context.Context, userID uuid.UUID, params CreateBankAccountParams) (models.BankAccount, error) {
	var account models.BankAccount

	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		if params.Primary {
			if err := tx.BankAccount().ClearPrimary(ctx, userID); err != nil {
				return err
			}
		}

		var err error
		account, err = tx.BankAccount().Create(ctx, models.BankAccount{
			UserID:        userID,
			HolderName:    params.HolderName,
			BankName:      params.BankName,
			AccountNumber: params.AccountNumber,
			IFSCCode:      params.IFSCCode,
			Primary:       params.Primary,
		})
		return err
	})

	return account, err
}

// ListBankAccounts returns the user's accounts, primary first then newest first
func (s *WalletService) ListBankAccounts(ctx context.Context, userID uuid.UUID) ([]models.BankAccount, error) {
	return s.storage.BankAccount().List(ctx, userID)
}
