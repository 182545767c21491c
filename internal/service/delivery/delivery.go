package delivery

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nileshk/tiffinbox/internal/apperrors"
	"github.com/nileshk/tiffinbox/internal/models"
	"github.com/nileshk/tiffinbox/internal/repository"
	"github.com/nileshk/tiffinbox/internal/service/wallet"
)

type Config struct {
	// Flat fee moved from the owner's wallet to the courier's on claim
	// If zero the default of 10.00 is used
	Fee decimal.Decimal
}

type DeliveryService struct {
	fee     decimal.Decimal
	storage repository.Storage
}

func NewService(cfg Config, storage repository.Storage) *DeliveryService {
	fee := cfg.Fee
	if fee.IsZero() {
		fee = decimal.NewFromInt(10)
	}

	return &DeliveryService{
		fee:     fee,
		storage: storage,
	}
}

// Claim assigns the delivery to the courier and moves the fee from the
// owner's wallet to the courier's. Assignment and both fee entries commit
// as one unit: when the owner cannot cover the fee the claim is rolled
// back and the delivery stays pending for the next courier.
//
// Preconditions are checked in order: role, delivery pending, delivery
// unassigned, courier profile. The assignment itself is still the
// compare-and-swap UPDATE, so of two couriers claiming at once exactly
// one wins and the loser gets apperrors.ErrDeliveryAlreadyAssigned.
func (s *DeliveryService) Claim(ctx context.Context, courier models.User, deliveryID uuid.UUID) (models.Delivery, error) {
	var delivery models.Delivery

	if courier.Role != models.RoleCourier {
		return delivery, apperrors.ErrRoleForbidden
	}

	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		current, err := tx.Delivery().GetByID(ctx, deliveryID)
		switch {
		case err != nil:
			return err
		case current.CourierID != nil:
			return apperrors.ErrDeliveryAlreadyAssigned
		case current.Status != models.DeliveryStatusPending:
			return apperrors.ErrDeliveryNotPending
		}

		profile, err := tx.User().GetCourierProfileByUserID(ctx, courier.ID)
		if err != nil {
			return err
		}

		delivery, err = tx.Delivery().AssignCourier(ctx, deliveryID, profile.ID)
		if err != nil {
			return err
		}

		owner, err := s.ownerOfDelivery(ctx, tx, delivery)
		if err != nil {
			return err
		}

		reference := fmt.Sprintf("DELIVERY:%s", delivery.ID)
		if _, err = wallet.Debit(ctx, tx, owner.UserID, s.fee, models.TxnTypeDeliveryFeeDebit, reference); err != nil {
			return err
		}
		_, err = wallet.Credit(ctx, tx, courier.ID, s.fee, models.TxnTypeDeliveryFeeCredit, reference)
		return err
	})
	if err != nil {
		return models.Delivery{}, err
	}

	return delivery, nil
}

// UpdateStatus moves the delivery to newStatus
// Any status of the enum is reachable from any other, the courier
// workflow is trusted to send them in order
func (s *DeliveryService) UpdateStatus(ctx context.Context, deliveryID uuid.UUID, newStatus string) (models.Delivery, error) {
	if !models.ValidDeliveryStatus(newStatus) {
		return models.Delivery{}, apperrors.ErrDeliveryStatusInvalid
	}

	return s.storage.Delivery().UpdateStatus(ctx, deliveryID, newStatus)
}

func (s *DeliveryService) GetByID(ctx context.Context, deliveryID uuid.UUID) (models.Delivery, error) {
	return s.storage.Delivery().GetByID(ctx, deliveryID)
}

// List returns the deliveries visible to the user. Couriers see their own
// assignments plus the unassigned ones in their pincode, which is how a
// courier discovers work to claim. Owners see deliveries for orders
// against their tiffins, customers the deliveries of their own orders.
func (s *DeliveryService) List(ctx context.Context, u models.User) ([]models.Delivery, error) {
	switch u.Role {
	case models.RoleCourier:
		profile, err := s.storage.User().GetCourierProfileByUserID(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		return s.storage.Delivery().ListForCourier(ctx, profile.ID, u.Pincode)

	case models.RoleOwner:
		profile, err := s.storage.User().GetOwnerProfileByUserID(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		return s.storage.Delivery().ListByTiffinOwner(ctx, profile.ID)

	default:
		return s.storage.Delivery().ListByCustomer(ctx, u.ID)
	}
}

func (s *DeliveryService) ownerOfDelivery(ctx context.Context, tx repository.Storage, delivery models.Delivery) (models.OwnerProfile, error) {
	order, err := tx.Order().GetByID(ctx, delivery.OrderID, false)
	if err != nil {
		return models.OwnerProfile{}, err
	}

	tiffin, err := tx.Tiffin().GetByID(ctx, order.TiffinID)
	if err != nil {
		return models.OwnerProfile{}, err
	}

	return tx.User().GetOwnerProfileByID(ctx, tiffin.OwnerID)
}
