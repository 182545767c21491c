package order

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

// Statuses an owner moves an order into when accepting it.
// The owner credit fires on the first transition out of pending into any
// of these, and only then: a status set covers the case when the owner's
// first recorded update skips straight to a late stage.
func defaultAcceptanceStatuses() []string {
	return []string{
		models.OrderStatusConfirmed,
		models.OrderStatusPreparing,
		models.OrderStatusReadyForDelivery,
		models.OrderStatusPickedUp,
		models.OrderStatusDelivered,
	}
}

type Config struct {
	// Statuses that count as owner acceptance
	// If empty the default set is used
	AcceptanceStatuses []string
}

type PlaceOrderParams struct {
	TiffinID        uuid.UUID
	Quantity        int32
	DeliveryAddress string
	DeliveryPincode string
}

type OrderService struct {
	acceptance map[string]struct{}
	storage    repository.Storage
}

func NewService(cfg Config, storage repository.Storage) *OrderService {
	statuses := cfg.AcceptanceStatuses
	if len(statuses) == 0 {
		statuses = defaultAcceptanceStatuses()
	}

	acceptance := make(map[string]struct{}, len(statuses))
	for _, s := range statuses {
		acceptance[s] = struct{}{}
	}

	return &OrderService{
		acceptance: acceptance,
		storage:    storage,
	}
}

// Place creates an order for the customer and pays for it from the
// customer's wallet. Order row, wallet debit and ledger entry commit as
// one unit: if the wallet does not cover the total nothing is created.
func (s *OrderService) Place(ctx context.Context, customer models.User, params PlaceOrderParams) (models.Order, error) {
	var order models.Order

	if params.Quantity <= 0 {
		return order, apperrors.ErrQuantityInvalid
	}

	tiffin, err := s.storage.Tiffin().GetByID(ctx, params.TiffinID)
	if err != nil {
		return order, err
	}
	if !tiffin.Available {
		return order, apperrors.ErrTiffinUnavailable
	}

	totalPrice := tiffin.Price.Mul(decimal.NewFromInt32(params.Quantity))

	err = s.storage.InTx(ctx, func(tx repository.Storage) error {
		var err error
		order, err = tx.Order().Create(ctx, models.Order{
			CustomerID:      customer.ID,
			TiffinID:        tiffin.ID,
			Quantity:        params.Quantity,
			TotalPrice:      totalPrice,
			Status:          models.OrderStatusPending,
			DeliveryAddress: params.DeliveryAddress,
			DeliveryPincode: params.DeliveryPincode,
		})
		if err != nil {
			return err
		}

		_, err = wallet.Debit(ctx, tx, customer.ID, totalPrice,
			models.TxnTypeOrderDebit, fmt.Sprintf("ORDER:%s", order.ID))
		return err
	})
	if err != nil {
		return models.Order{}, err
	}

	return order, nil
}

// UpdateStatus moves the order to newStatus and applies the transition
// side effects in the same transaction:
//   - leaving pending into an acceptance status credits the owner's wallet
//     by the order total, at most once over the order's lifetime
//   - entering ready_for_delivery creates the order's delivery, exactly once
//
// Only the owner of the ordered tiffin may move the order. The order row
// stays locked until commit so concurrent updates of the same order
// serialize and cannot double apply either effect.
func (s *OrderService) UpdateStatus(ctx context.Context, actor models.User, orderID uuid.UUID, newStatus string) (models.Order, error) {
	var order models.Order

	if !models.ValidOrderStatus(newStatus) {
		return order, apperrors.ErrOrderStatusInvalid
	}
	if actor.Role != models.RoleOwner {
		return order, apperrors.ErrRoleForbidden
	}

	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		current, err := tx.Order().GetByID(ctx, orderID, true)
		if err != nil {
			return err
		}

		owner, err := s.ownerOfOrder(ctx, tx, current)
		if err != nil {
			return err
		}
		if owner.UserID != actor.ID {
			return apperrors.ErrRoleForbidden
		}

		order, err = tx.Order().UpdateStatus(ctx, orderID, newStatus)
		if err != nil {
			return err
		}

		_, accepted := s.acceptance[newStatus]
		if current.Status == models.OrderStatusPending && accepted {
			if err := s.creditOwner(ctx, tx, order); err != nil {
				return err
			}
		}

		if newStatus == models.OrderStatusReadyForDelivery {
			if err := s.spawnDelivery(ctx, tx, order); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return models.Order{}, err
	}

	return order, nil
}

func (s *OrderService) creditOwner(ctx context.Context, tx repository.Storage, order models.Order) error {
	owner, err := s.ownerOfOrder(ctx, tx, order)
	if err != nil {
		return err
	}

	_, err = wallet.Credit(ctx, tx, owner.UserID, order.TotalPrice,
		models.TxnTypeOwnerCredit, fmt.Sprintf("ORDER:%s", order.ID))
	return err
}

// Create the delivery the moment the order becomes ready for it.
// Creation is idempotent per order, re-entering the status cannot spawn
// a second delivery.
func (s *OrderService) spawnDelivery(ctx context.Context, tx repository.Storage, order models.Order) error {
	owner, err := s.ownerOfOrder(ctx, tx, order)
	if err != nil {
		return err
	}

	_, err = tx.Delivery().Create(ctx, models.Delivery{
		OrderID:         order.ID,
		PickupAddress:   owner.BusinessAddress,
		DeliveryAddress: order.DeliveryAddress,
		Status:          models.DeliveryStatusPending,
	})
	return err
}

func (s *OrderService) ownerOfOrder(ctx context.Context, tx repository.Storage, order models.Order) (models.OwnerProfile, error) {
	tiffin, err := tx.Tiffin().GetByID(ctx, order.TiffinID)
	if err != nil {
		return models.OwnerProfile{}, err
	}

	return tx.User().GetOwnerProfileByID(ctx, tiffin.OwnerID)
}

// Get order by id
func (s *OrderService) GetByID(ctx context.Context, orderID uuid.UUID) (models.Order, error) {
	return s.storage.Order().GetByID(ctx, orderID, false)
}

// List returns the orders visible to the user: customers see what they
// ordered, owners see the orders placed against their tiffins
func (s *OrderService) List(ctx context.Context, u models.User) ([]models.Order, error) {
	if u.Role == models.RoleOwner {
		profile, err := s.storage.User().GetOwnerProfileByUserID(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		return s.storage.Order().ListByTiffinOwner(ctx, profile.ID)
	}

	return s.storage.Order().ListByCustomer(ctx, u.ID)
}
