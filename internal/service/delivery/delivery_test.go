package delivery

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nileshk/tiffinbox/internal/apperrors"
	"github.com/nileshk/tiffinbox/internal/models"
	"github.com/nileshk/tiffinbox/internal/repository"
	"github.com/nileshk/tiffinbox/internal/repository/postgres"
	"github.com/nileshk/tiffinbox/internal/service/wallet"
	"github.com/nileshk/tiffinbox/internal/testutil"
)

type deliveryFixtures struct {
	storage repository.Storage
	t       *testing.T
}

func (f deliveryFixtures) user(username string, role string) models.User {
	f.t.Helper()
	user, err := f.storage.User().CreateUser(f.t.Context(), repository.CreateUserParams{
		Username:       username,
		HashedPassword: "hash",
		Role:           role,
	})
	require.NoError(f.t, err)
	return user
}

func (f deliveryFixtures) courier(username string) models.User {
	return f.courierIn(username, "")
}

// courierIn creates a courier living in the given pincode
func (f deliveryFixtures) courierIn(username string, pincode string) models.User {
	f.t.Helper()
	user, err := f.storage.User().CreateUser(f.t.Context(), repository.CreateUserParams{
		Username:       username,
		HashedPassword: "hash",
		Role:           models.RoleCourier,
		Pincode:        pincode,
	})
	require.NoError(f.t, err)

	_, err = f.storage.User().CreateCourierProfile(f.t.Context(), models.CourierProfile{
		UserID:        user.ID,
		VehicleNumber: "KA01AB1234",
		Available:     true,
	})
	require.NoError(f.t, err)
	return user
}

// pendingDelivery builds the whole chain behind a claimable delivery:
// owner with profile and funded wallet, tiffin, paid order, delivery.
func (f deliveryFixtures) pendingDelivery(ownerBalance string) (models.User, models.Delivery) {
	f.t.Helper()
	ctx := f.t.Context()

	ownerUser := f.user("anita", models.RoleOwner)
	profile, err := f.storage.User().CreateOwnerProfile(ctx, models.OwnerProfile{
		UserID:          ownerUser.ID,
		BusinessName:    "anita kitchen",
		BusinessAddress: "42 Food Street",
		BusinessPincode: "560001",
	})
	require.NoError(f.t, err)

	if ownerBalance != "" {
		_, err = wallet.NewService(f.storage).Deposit(ctx, ownerUser.ID, decimal.RequireFromString(ownerBalance))
		require.NoError(f.t, err)
	}

	tiffin, err := f.storage.Tiffin().Create(ctx, models.Tiffin{
		OwnerID:   profile.ID,
		Name:      "Veg Thali",
		Price:     decimal.NewFromInt(50),
		Available: true,
	})
	require.NoError(f.t, err)

	customer := f.user("ramesh", models.RoleCustomer)
	order, err := f.storage.Order().Create(ctx, models.Order{
		CustomerID:      customer.ID,
		TiffinID:        tiffin.ID,
		Quantity:        1,
		TotalPrice:      tiffin.Price,
		Status:          models.OrderStatusReadyForDelivery,
		DeliveryAddress: "7 Hungry Lane",
		DeliveryPincode: "560002",
	})
	require.NoError(f.t, err)

	delivery, err := f.storage.Delivery().Create(ctx, models.Delivery{
		OrderID:         order.ID,
		PickupAddress:   profile.BusinessAddress,
		DeliveryAddress: order.DeliveryAddress,
		Status:          models.DeliveryStatusPending,
	})
	require.NoError(f.t, err)

	return ownerUser, delivery
}

func (f deliveryFixtures) balance(userID uuid.UUID) decimal.Decimal {
	f.t.Helper()
	w, err := f.storage.Wallet().GetOrCreate(f.t.Context(), userID)
	require.NoError(f.t, err)
	return w.Balance
}

func TestDeliveryService(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	inTx := func(t *testing.T, fn func(f deliveryFixtures, service *DeliveryService)) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			fn(deliveryFixtures{storage: storage, t: t}, NewService(Config{}, storage))
		})
	}

	t.Run("Claim", func(t *testing.T) {
		t.Run("assigns courier and moves the fee", func(t *testing.T) {
			inTx(t, func(f deliveryFixtures, service *DeliveryService) {
				ownerUser, delivery := f.pendingDelivery("50.00")
				courier := f.courier("vijay")

				claimed, err := service.Claim(t.Context(), courier, delivery.ID)

				require.NoError(t, err)
				require.Equal(t, models.DeliveryStatusAccepted, claimed.Status)
				require.NotNil(t, claimed.CourierID)

				require.True(t, f.balance(ownerUser.ID).Equal(decimal.RequireFromString("40.00")))
				require.True(t, f.balance(courier.ID).Equal(decimal.RequireFromString("10.00")))

				ws := wallet.NewService(f.storage)
				ownerTxns, err := ws.Transactions(t.Context(), ownerUser.ID)
				require.NoError(t, err)
				require.Equal(t, models.TxnTypeDeliveryFeeDebit, ownerTxns[0].Type)
				require.Equal(t, "DELIVERY:"+delivery.ID.String(), ownerTxns[0].Reference)

				courierTxns, err := ws.Transactions(t.Context(), courier.ID)
				require.NoError(t, err)
				require.Len(t, courierTxns, 1)
				require.Equal(t, models.TxnTypeDeliveryFeeCredit, courierTxns[0].Type)
				require.Equal(t, "DELIVERY:"+delivery.ID.String(), courierTxns[0].Reference)
			})
		})

		t.Run("second claim loses", func(t *testing.T) {
			inTx(t, func(f deliveryFixtures, service *DeliveryService) {
				_, delivery := f.pendingDelivery("50.00")
				first := f.courier("vijay")
				second := f.courier("arjun")

				claimed, err := service.Claim(t.Context(), first, delivery.ID)
				require.NoError(t, err)

				_, err = service.Claim(t.Context(), second, delivery.ID)
				require.ErrorIs(t, err, apperrors.ErrDeliveryAlreadyAssigned)

				require.True(t, f.balance(second.ID).IsZero(), "the loser earns nothing")

				current, err := service.GetByID(t.Context(), delivery.ID)
				require.NoError(t, err)
				require.Equal(t, claimed.CourierID, current.CourierID)
			})
		})

		t.Run("owner short on the fee rolls the claim back", func(t *testing.T) {
			inTx(t, func(f deliveryFixtures, service *DeliveryService) {
				ownerUser, delivery := f.pendingDelivery("9.99")
				courier := f.courier("vijay")

				_, err := service.Claim(t.Context(), courier, delivery.ID)

				require.ErrorIs(t, err, apperrors.ErrWalletInsufficient)

				current, err := service.GetByID(t.Context(), delivery.ID)
				require.NoError(t, err)
				require.Equal(t, models.DeliveryStatusPending, current.Status, "delivery must stay claimable")
				require.Nil(t, current.CourierID)

				require.True(t, f.balance(ownerUser.ID).Equal(decimal.RequireFromString("9.99")))
				require.True(t, f.balance(courier.ID).IsZero())
			})
		})

		t.Run("only couriers may claim", func(t *testing.T) {
			inTx(t, func(f deliveryFixtures, service *DeliveryService) {
				_, delivery := f.pendingDelivery("50.00")
				customer := f.user("suresh", models.RoleCustomer)

				_, err := service.Claim(t.Context(), customer, delivery.ID)
				require.ErrorIs(t, err, apperrors.ErrRoleForbidden)
			})
		})

		t.Run("state is checked before the courier profile", func(t *testing.T) {
			inTx(t, func(f deliveryFixtures, service *DeliveryService) {
				_, delivery := f.pendingDelivery("50.00")
				winner := f.courier("vijay")
				bare := f.user("arjun", models.RoleCourier)

				_, err := service.Claim(t.Context(), winner, delivery.ID)
				require.NoError(t, err)

				// a profile-less courier claiming a taken delivery must hear
				// about the delivery, not about their missing profile
				_, err = service.Claim(t.Context(), bare, delivery.ID)
				require.ErrorIs(t, err, apperrors.ErrDeliveryAlreadyAssigned)
			})
		})

		t.Run("cancelled state wins over the missing profile", func(t *testing.T) {
			inTx(t, func(f deliveryFixtures, service *DeliveryService) {
				_, delivery := f.pendingDelivery("50.00")
				bare := f.user("arjun", models.RoleCourier)

				_, err := service.UpdateStatus(t.Context(), delivery.ID, models.DeliveryStatusCancelled)
				require.NoError(t, err)

				_, err = service.Claim(t.Context(), bare, delivery.ID)
				require.ErrorIs(t, err, apperrors.ErrDeliveryNotPending)
			})
		})

		t.Run("courier without profile", func(t *testing.T) {
			inTx(t, func(f deliveryFixtures, service *DeliveryService) {
				_, delivery := f.pendingDelivery("50.00")
				bare := f.user("vijay", models.RoleCourier)

				_, err := service.Claim(t.Context(), bare, delivery.ID)
				require.ErrorIs(t, err, apperrors.ErrCourierProfileNotFound)
			})
		})

		t.Run("cancelled delivery cannot be claimed", func(t *testing.T) {
			inTx(t, func(f deliveryFixtures, service *DeliveryService) {
				_, delivery := f.pendingDelivery("50.00")
				courier := f.courier("vijay")

				_, err := service.UpdateStatus(t.Context(), delivery.ID, models.DeliveryStatusCancelled)
				require.NoError(t, err)

				_, err = service.Claim(t.Context(), courier, delivery.ID)
				require.ErrorIs(t, err, apperrors.ErrDeliveryNotPending)
			})
		})

		t.Run("unknown delivery", func(t *testing.T) {
			inTx(t, func(f deliveryFixtures, service *DeliveryService) {
				courier := f.courier("vijay")

				_, err := service.Claim(t.Context(), courier, uuid.New())
				require.ErrorIs(t, err, apperrors.ErrDeliveryNotFound)
			})
		})
	})

	t.Run("List", func(t *testing.T) {
		t.Run("courier sees claimable work in own pincode", func(t *testing.T) {
			inTx(t, func(f deliveryFixtures, service *DeliveryService) {
				_, delivery := f.pendingDelivery("50.00")

				nearby := f.courierIn("vijay", "560002")
				faraway := f.courierIn("arjun", "110001")

				got, err := service.List(t.Context(), nearby)
				require.NoError(t, err)
				require.Len(t, got, 1)
				require.Equal(t, delivery.ID, got[0].ID)

				got, err = service.List(t.Context(), faraway)
				require.NoError(t, err)
				require.Empty(t, got, "unassigned deliveries outside the courier's pincode stay invisible")
			})
		})

		t.Run("claimed delivery follows its courier", func(t *testing.T) {
			inTx(t, func(f deliveryFixtures, service *DeliveryService) {
				_, delivery := f.pendingDelivery("50.00")

				winner := f.courierIn("vijay", "110001")
				nearby := f.courierIn("arjun", "560002")

				_, err := service.Claim(t.Context(), winner, delivery.ID)
				require.NoError(t, err)

				// assignments are visible regardless of pincode
				got, err := service.List(t.Context(), winner)
				require.NoError(t, err)
				require.Len(t, got, 1)
				require.Equal(t, delivery.ID, got[0].ID)

				got, err = service.List(t.Context(), nearby)
				require.NoError(t, err)
				require.Empty(t, got, "a claimed delivery is nobody else's work anymore")
			})
		})

		t.Run("owner and customer see their own deliveries", func(t *testing.T) {
			inTx(t, func(f deliveryFixtures, service *DeliveryService) {
				ownerUser, delivery := f.pendingDelivery("50.00")
				customer, err := f.storage.User().GetUserByUsername(t.Context(), "ramesh")
				require.NoError(t, err)
				stranger := f.user("suresh", models.RoleCustomer)

				got, err := service.List(t.Context(), ownerUser)
				require.NoError(t, err)
				require.Len(t, got, 1)
				require.Equal(t, delivery.ID, got[0].ID)

				got, err = service.List(t.Context(), customer)
				require.NoError(t, err)
				require.Len(t, got, 1)

				got, err = service.List(t.Context(), stranger)
				require.NoError(t, err)
				require.Empty(t, got)
			})
		})

		t.Run("courier without profile", func(t *testing.T) {
			inTx(t, func(f deliveryFixtures, service *DeliveryService) {
				bare := f.user("arjun", models.RoleCourier)

				_, err := service.List(t.Context(), bare)
				require.ErrorIs(t, err, apperrors.ErrCourierProfileNotFound)
			})
		})
	})

	t.Run("UpdateStatus", func(t *testing.T) {
		t.Run("unknown status", func(t *testing.T) {
			inTx(t, func(f deliveryFixtures, service *DeliveryService) {
				_, delivery := f.pendingDelivery("")

				_, err := service.UpdateStatus(t.Context(), delivery.ID, "beamed_up")
				require.ErrorIs(t, err, apperrors.ErrDeliveryStatusInvalid)
			})
		})
	})
}

// Concurrent claims go against the pool directly, a transaction cannot be
// shared between goroutines.
func TestDeliveryService_ConcurrentClaim(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	storage := postgres.NewStorage(pg.Pool)
	service := NewService(Config{}, storage)
	f := deliveryFixtures{storage: storage, t: t}

	_, delivery := f.pendingDelivery("50.00")

	couriers := []models.User{f.courier("vijay"), f.courier("arjun")}
	errs := make([]error, len(couriers))

	var wg sync.WaitGroup
	for i, courier := range couriers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = service.Claim(t.Context(), courier, delivery.ID)
		}()
	}
	wg.Wait()

	var wins, losses int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		default:
			require.ErrorIs(t, err, apperrors.ErrDeliveryAlreadyAssigned)
			losses++
		}
	}
	require.Equal(t, 1, wins, "exactly one claim may win")
	require.Equal(t, 1, losses)

	current, err := service.GetByID(t.Context(), delivery.ID)
	require.NoError(t, err)
	require.NotNil(t, current.CourierID)
	require.Equal(t, models.DeliveryStatusAccepted, current.Status)

	winner := couriers[0]
	if errs[0] != nil {
		winner = couriers[1]
	}
	require.True(t, f.balance(winner.ID).Equal(decimal.NewFromInt(10)), "only the winner earns the fee")
}
