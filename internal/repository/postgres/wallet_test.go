package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nileshk/tiffinbox/internal/apperrors"
	"github.com/nileshk/tiffinbox/internal/models"
	"github.com/nileshk/tiffinbox/internal/repository"
	"github.com/nileshk/tiffinbox/internal/testutil"
)

func TestWalletRepo(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	inTx := func(t *testing.T, outerTx DBTX, fn func(pgx.Tx, repository.Storage)) {
		testutil.InTx(outerTx, t, func(innerTx pgx.Tx) {
			fn(innerTx, NewStorage(innerTx))
		})
	}

	t.Run("GetOrCreate", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			user := createTestUser(t, storage, "ramesh", models.RoleCustomer)

			t.Run("creates empty wallet on first access", func(t *testing.T) {
				wallet, err := storage.Wallet().GetOrCreate(t.Context(), user.ID)

				require.NoError(t, err)
				require.NotZero(t, wallet.ID)
				require.Equal(t, user.ID, wallet.UserID)
				require.True(t, wallet.Balance.IsZero(), "new wallet balance should be zero")
			})

			t.Run("returns same wallet on repeated access", func(t *testing.T) {
				first, err := storage.Wallet().GetOrCreate(t.Context(), user.ID)
				require.NoError(t, err)

				second, err := storage.Wallet().GetOrCreate(t.Context(), user.ID)
				require.NoError(t, err)

				require.Equal(t, first.ID, second.ID, "wallet must be created once per user")
			})
		})
	})

	t.Run("Adjust", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			user := createTestUser(t, storage, "ramesh", models.RoleCustomer)
			wallet, err := storage.Wallet().GetOrCreate(t.Context(), user.ID)
			require.NoError(t, err)

			t.Run("credit and debit", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					w, err := storage.Wallet().Adjust(t.Context(), wallet.ID, decimal.NewFromInt(150))
					require.NoError(t, err)
					require.True(t, w.Balance.Equal(decimal.NewFromInt(150)), "balance should be 150 after credit")

					w, err = storage.Wallet().Adjust(t.Context(), wallet.ID, decimal.NewFromInt(-100))
					require.NoError(t, err)
					require.True(t, w.Balance.Equal(decimal.NewFromInt(50)), "balance should be 50 after debit")
				})
			})

			t.Run("debit below zero fails and changes nothing", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					_, err := storage.Wallet().Adjust(t.Context(), wallet.ID, decimal.NewFromInt(100))
					require.NoError(t, err)

					_, err = storage.Wallet().Adjust(t.Context(), wallet.ID, decimal.NewFromInt(-101))
					require.ErrorIs(t, err, apperrors.ErrWalletInsufficient)

					w, err := storage.Wallet().GetOrCreate(t.Context(), user.ID)
					require.NoError(t, err)
					require.True(t, w.Balance.Equal(decimal.NewFromInt(100)), "failed debit must not touch the balance")
				})
			})

			t.Run("debit to exactly zero is allowed", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					_, err := storage.Wallet().Adjust(t.Context(), wallet.ID, decimal.NewFromInt(100))
					require.NoError(t, err)

					w, err := storage.Wallet().Adjust(t.Context(), wallet.ID, decimal.NewFromInt(-100))
					require.NoError(t, err)
					require.True(t, w.Balance.IsZero())
				})
			})

			t.Run("unknown wallet", func(t *testing.T) {
				_, err := storage.Wallet().Adjust(t.Context(), uuid.New(), decimal.NewFromInt(10))
				require.ErrorIs(t, err, apperrors.ErrWalletNotFound)
			})
		})
	})

	t.Run("Transactions", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			user := createTestUser(t, storage, "ramesh", models.RoleCustomer)
			wallet, err := storage.Wallet().GetOrCreate(t.Context(), user.ID)
			require.NoError(t, err)

			t.Run("record and list newest first", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					first, err := storage.Wallet().RecordTransaction(t.Context(), models.WalletTransaction{
						WalletID:  wallet.ID,
						Type:      models.TxnTypeDeposit,
						Amount:    decimal.NewFromInt(150),
						Reference: "Added to Wallet",
					})
					require.NoError(t, err)

					second, err := storage.Wallet().RecordTransaction(t.Context(), models.WalletTransaction{
						WalletID: wallet.ID,
						Type:     models.TxnTypeOrderDebit,
						Amount:   decimal.NewFromInt(100),
					})
					require.NoError(t, err)

					txns, err := storage.Wallet().ListTransactions(t.Context(), wallet.ID)
					require.NoError(t, err)
					require.Len(t, txns, 2)
					require.Equal(t, second.ID, txns[0].ID, "newest entry should come first")
					require.Equal(t, first.ID, txns[1].ID)
				})
			})

			t.Run("amount must be positive magnitude", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					_, err := storage.Wallet().RecordTransaction(t.Context(), models.WalletTransaction{
						WalletID: wallet.ID,
						Type:     models.TxnTypeOrderDebit,
						Amount:   decimal.NewFromInt(-100),
					})
					require.ErrorIs(t, err, apperrors.ErrAmountInvalid)

					_, err = storage.Wallet().RecordTransaction(t.Context(), models.WalletTransaction{
						WalletID: wallet.ID,
						Type:     models.TxnTypeDeposit,
						Amount:   decimal.Zero,
					})
					require.ErrorIs(t, err, apperrors.ErrAmountInvalid)
				})
			})

			t.Run("signed amount derived from type", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					txn, err := storage.Wallet().RecordTransaction(t.Context(), models.WalletTransaction{
						WalletID: wallet.ID,
						Type:     models.TxnTypeOrderDebit,
						Amount:   decimal.NewFromInt(100),
					})
					require.NoError(t, err)

					require.True(t, txn.Amount.Equal(decimal.NewFromInt(100)), "stored amount keeps the magnitude")
					require.True(t, txn.SignedAmount().Equal(decimal.NewFromInt(-100)), "debit types read negative")
				})
			})
		})
	})
}
