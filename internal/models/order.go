package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending          = "pending"
	OrderStatusConfirmed        = "confirmed"
	OrderStatusPreparing        = "preparing"
	OrderStatusReadyForDelivery = "ready_for_delivery"
	OrderStatusPickedUp         = "picked_up"
	OrderStatusDelivered        = "delivered"
	OrderStatusCancelled        = "cancelled"
)

func ValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusReadyForDelivery, OrderStatusPickedUp,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Order is the audit trail of a placement: created after the customer debit
// is confirmed, mutated only via status transitions, never deleted.
type Order struct {
	ID              uuid.UUID
	CustomerID      uuid.UUID
	TiffinID        uuid.UUID
	CourierID       *uuid.UUID
	Quantity        int32
	TotalPrice      decimal.Decimal
	Status          string
	DeliveryAddress string
	DeliveryPincode string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
