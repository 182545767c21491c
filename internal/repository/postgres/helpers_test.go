package postgres

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nileshk/tiffinbox/internal/models"
	"github.com/nileshk/tiffinbox/internal/repository"
)

// Fixtures shared by the repository tests
// Every helper fails the test on error so tests read linearly

func createTestUser(t *testing.T, storage repository.Storage, username string, role string) models.User {
	t.Helper()

	user, err := storage.User().CreateUser(t.Context(), repository.CreateUserParams{
		Username:       username,
		HashedPassword: "hashed-password",
		Role:           role,
	})
	require.NoError(t, err, "user fixture has to be created ok")
	return user
}

func createTestOwner(t *testing.T, storage repository.Storage, username string) (models.User, models.OwnerProfile) {
	t.Helper()

	user := createTestUser(t, storage, username, models.RoleOwner)
	profile, err := storage.User().CreateOwnerProfile(t.Context(), models.OwnerProfile{
		UserID:          user.ID,
		BusinessName:    username + " kitchen",
		BusinessAddress: "42 Food Street",
		BusinessPincode: "560001",
	})
	require.NoError(t, err, "owner profile fixture has to be created ok")
	return user, profile
}

func createTestCourier(t *testing.T, storage repository.Storage, username string) (models.User, models.CourierProfile) {
	t.Helper()

	user := createTestUser(t, storage, username, models.RoleCourier)
	profile, err := storage.User().CreateCourierProfile(t.Context(), models.CourierProfile{
		UserID:        user.ID,
		VehicleNumber: "KA01AB1234",
		Available:     true,
	})
	require.NoError(t, err, "courier profile fixture has to be created ok")
	return user, profile
}

func createTestTiffin(t *testing.T, storage repository.Storage, owner models.OwnerProfile, name string, price string) models.Tiffin {
	t.Helper()

	tiffin, err := storage.Tiffin().Create(t.Context(), models.Tiffin{
		OwnerID:   owner.ID,
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Available: true,
	})
	require.NoError(t, err, "tiffin fixture has to be created ok")
	return tiffin
}

func createTestOrder(t *testing.T, storage repository.Storage, customer models.User, tiffin models.Tiffin, quantity int32) models.Order {
	t.Helper()

	order, err := storage.Order().Create(t.Context(), models.Order{
		CustomerID:      customer.ID,
		TiffinID:        tiffin.ID,
		Quantity:        quantity,
		TotalPrice:      tiffin.Price.Mul(decimal.NewFromInt32(quantity)),
		DeliveryAddress: "7 Hungry Lane",
		DeliveryPincode: "560002",
	})
	require.NoError(t, err, "order fixture has to be created ok")
	return order
}

func createTestDelivery(t *testing.T, storage repository.Storage, order models.Order) models.Delivery {
	t.Helper()

	delivery, err := storage.Delivery().Create(t.Context(), models.Delivery{
		OrderID:         order.ID,
		PickupAddress:   "42 Food Street",
		DeliveryAddress: order.DeliveryAddress,
		Status:          models.DeliveryStatusPending,
	})
	require.NoError(t, err, "delivery fixture has to be created ok")
	return delivery
}
