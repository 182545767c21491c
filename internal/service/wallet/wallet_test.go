package wallet

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nileshk/tiffinbox/internal/apperrors"
	"github.com/nileshk/tiffinbox/internal/models"
	"github.com/nileshk/tiffinbox/internal/repository"
	"github.com/nileshk/tiffinbox/internal/repository/postgres"
	"github.com/nileshk/tiffinbox/internal/testutil"
)

func TestWalletService(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	inTx := func(t *testing.T, fn func(storage repository.Storage, service *WalletService)) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			fn(storage, NewService(storage))
		})
	}

	createUser := func(t *testing.T, storage repository.Storage, username string) models.User {
		t.Helper()
		user, err := storage.User().CreateUser(t.Context(), repository.CreateUserParams{
			Username:       username,
			HashedPassword: "hash",
			Role:           models.RoleCustomer,
		})
		require.NoError(t, err)
		return user
	}

	t.Run("Deposit", func(t *testing.T) {
		t.Run("credits balance and writes ledger entry", func(t *testing.T) {
			inTx(t, func(storage repository.Storage, service *WalletService) {
				user := createUser(t, storage, "ramesh")

				wallet, err := service.Deposit(t.Context(), user.ID, decimal.RequireFromString("150.00"))

				require.NoError(t, err)
				require.True(t, wallet.Balance.Equal(decimal.RequireFromString("150.00")))

				txns, err := service.Transactions(t.Context(), user.ID)
				require.NoError(t, err)
				require.Len(t, txns, 1)
				require.Equal(t, models.TxnTypeDeposit, txns[0].Type)
				require.Equal(t, "Added to Wallet", txns[0].Reference)
				require.True(t, txns[0].Amount.Equal(decimal.RequireFromString("150.00")))
			})
		})

		t.Run("rejects non positive amount", func(t *testing.T) {
			inTx(t, func(storage repository.Storage, service *WalletService) {
				user := createUser(t, storage, "ramesh")

				_, err := service.Deposit(t.Context(), user.ID, decimal.Zero)
				require.ErrorIs(t, err, apperrors.ErrAmountInvalid)

				_, err = service.Deposit(t.Context(), user.ID, decimal.NewFromInt(-10))
				require.ErrorIs(t, err, apperrors.ErrAmountInvalid)

				txns, err := service.Transactions(t.Context(), user.ID)
				require.NoError(t, err)
				require.Empty(t, txns, "failed deposit must not leave ledger entries")
			})
		})

		t.Run("from bank uses its own entry type", func(t *testing.T) {
			inTx(t, func(storage repository.Storage, service *WalletService) {
				user := createUser(t, storage, "ramesh")

				_, err := service.DepositFromBank(t.Context(), user.ID, decimal.NewFromInt(100))
				require.NoError(t, err)

				txns, err := service.Transactions(t.Context(), user.ID)
				require.NoError(t, err)
				require.Len(t, txns, 1)
				require.Equal(t, models.TxnTypeBankTransferIn, txns[0].Type)
				require.Equal(t, "Added from Bank Account", txns[0].Reference)
			})
		})
	})

	t.Run("WithdrawToBank", func(t *testing.T) {
		t.Run("uses primary account when none given", func(t *testing.T) {
			inTx(t, func(storage repository.Storage, service *WalletService) {
				user := createUser(t, storage, "ramesh")
				account, err := service.CreateBankAccount(t.Context(), user.ID, CreateBankAccountParams{
					HolderName:    "Ramesh Kumar",
					BankName:      "State Bank",
					AccountNumber: "123456789012",
					IFSCCode:      "SBIN0001234",
					Primary:       true,
				})
				require.NoError(t, err)

				_, err = service.Deposit(t.Context(), user.ID, decimal.NewFromInt(150))
				require.NoError(t, err)

				wallet, err := service.WithdrawToBank(t.Context(), user.ID, decimal.NewFromInt(100), nil)

				require.NoError(t, err)
				require.True(t, wallet.Balance.Equal(decimal.NewFromInt(50)))

				txns, err := service.Transactions(t.Context(), user.ID)
				require.NoError(t, err)
				require.Len(t, txns, 2)
				require.Equal(t, models.TxnTypeBankTransferOut, txns[0].Type)
				require.Equal(t, "BANK:"+account.ID.String(), txns[0].Reference)
				require.True(t, txns[0].SignedAmount().Equal(decimal.NewFromInt(-100)))
			})
		})

		t.Run("no primary account", func(t *testing.T) {
			inTx(t, func(storage repository.Storage, service *WalletService) {
				user := createUser(t, storage, "ramesh")
				_, err := service.Deposit(t.Context(), user.ID, decimal.NewFromInt(150))
				require.NoError(t, err)

				_, err = service.WithdrawToBank(t.Context(), user.ID, decimal.NewFromInt(100), nil)
				require.ErrorIs(t, err, apperrors.ErrBankAccountNotFound)
			})
		})

		t.Run("somebody else's account", func(t *testing.T) {
			inTx(t, func(storage repository.Storage, service *WalletService) {
				user := createUser(t, storage, "ramesh")
				stranger := createUser(t, storage, "suresh")
				account, err := service.CreateBankAccount(t.Context(), stranger.ID, CreateBankAccountParams{
					HolderName:    "Suresh Kumar",
					BankName:      "State Bank",
					AccountNumber: "210987654321",
					IFSCCode:      "SBIN0001234",
				})
				require.NoError(t, err)

				_, err = service.Deposit(t.Context(), user.ID, decimal.NewFromInt(150))
				require.NoError(t, err)

				_, err = service.WithdrawToBank(t.Context(), user.ID, decimal.NewFromInt(100), &account.ID)
				require.ErrorIs(t, err, apperrors.ErrBankAccountNotFound)
			})
		})

		t.Run("insufficient balance leaves wallet untouched", func(t *testing.T) {
			inTx(t, func(storage repository.Storage, service *WalletService) {
				user := createUser(t, storage, "ramesh")
				_, err := service.CreateBankAccount(t.Context(), user.ID, CreateBankAccountParams{
					HolderName:    "Ramesh Kumar",
					BankName:      "State Bank",
					AccountNumber: "123456789012",
					IFSCCode:      "SBIN0001234",
					Primary:       true,
				})
				require.NoError(t, err)
				_, err = service.Deposit(t.Context(), user.ID, decimal.NewFromInt(50))
				require.NoError(t, err)

				_, err = service.WithdrawToBank(t.Context(), user.ID, decimal.NewFromInt(100), nil)

				require.ErrorIs(t, err, apperrors.ErrWalletInsufficient)

				wallet, err := service.GetOrCreate(t.Context(), user.ID)
				require.NoError(t, err)
				require.True(t, wallet.Balance.Equal(decimal.NewFromInt(50)), "balance must not change")

				txns, err := service.Transactions(t.Context(), user.ID)
				require.NoError(t, err)
				require.Len(t, txns, 1, "only the deposit entry may exist")
			})
		})
	})

	t.Run("Ledger", func(t *testing.T) {
		t.Run("signed entries reconcile with the balance", func(t *testing.T) {
			inTx(t, func(storage repository.Storage, service *WalletService) {
				user := createUser(t, storage, "ramesh")
				amount := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }

				// Mixed history the way a day of ordering produces it
				_, err := service.Deposit(t.Context(), user.ID, amount("150.00"))
				require.NoError(t, err)
				_, err = Debit(t.Context(), storage, user.ID, amount("100.00"), models.TxnTypeOrderDebit, "ORDER:x")
				require.NoError(t, err)
				_, err = Credit(t.Context(), storage, user.ID, amount("120.00"), models.TxnTypeOwnerCredit, "ORDER:y")
				require.NoError(t, err)
				_, err = Debit(t.Context(), storage, user.ID, amount("10.00"), models.TxnTypeDeliveryFeeDebit, "DELIVERY:z")
				require.NoError(t, err)
				_, err = Debit(t.Context(), storage, user.ID, amount("50.00"), models.TxnTypeBankTransferOut, "BANK:b")
				require.NoError(t, err)

				txns, err := service.Transactions(t.Context(), user.ID)
				require.NoError(t, err)
				require.Len(t, txns, 5)

				sum := decimal.Zero
				for _, txn := range txns {
					require.True(t, txn.Amount.IsPositive(), "stored magnitudes are always positive")
					sum = sum.Add(txn.SignedAmount())
				}

				w, err := service.GetOrCreate(t.Context(), user.ID)
				require.NoError(t, err)
				require.True(t, sum.Equal(w.Balance), "signed ledger sum %s must equal balance %s", sum, w.Balance)
				require.True(t, w.Balance.Equal(amount("110.00")))
			})
		})
	})

	t.Run("CreateBankAccount", func(t *testing.T) {
		t.Run("at most one primary", func(t *testing.T) {
			inTx(t, func(storage repository.Storage, service *WalletService) {
				user := createUser(t, storage, "ramesh")

				first, err := service.CreateBankAccount(t.Context(), user.ID, CreateBankAccountParams{
					HolderName:    "Ramesh Kumar",
					BankName:      "State Bank",
					AccountNumber: "123456789012",
					IFSCCode:      "SBIN0001234",
					Primary:       true,
				})
				require.NoError(t, err)
				require.True(t, first.Primary)

				second, err := service.CreateBankAccount(t.Context(), user.ID, CreateBankAccountParams{
					HolderName:    "Ramesh Kumar",
					BankName:      "Union Bank",
					AccountNumber: "210987654321",
					IFSCCode:      "UBIN0005678",
					Primary:       true,
				})
				require.NoError(t, err)
				require.True(t, second.Primary)

				accounts, err := service.ListBankAccounts(t.Context(), user.ID)
				require.NoError(t, err)
				require.Len(t, accounts, 2)
				require.Equal(t, second.ID, accounts[0].ID, "new primary comes first")
				require.True(t, accounts[0].Primary)
				require.False(t, accounts[1].Primary, "old primary has to be demoted")
			})
		})
	})
}
