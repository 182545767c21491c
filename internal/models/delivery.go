package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DeliveryStatusPending   = "pending"
	DeliveryStatusAccepted  = "accepted"
	DeliveryStatusPickedUp  = "picked_up"
	DeliveryStatusDelivered = "delivered"
	DeliveryStatusCancelled = "cancelled"
)

func ValidDeliveryStatus(status string) bool {
	switch status {
	case DeliveryStatusPending, DeliveryStatusAccepted,
		DeliveryStatusPickedUp, DeliveryStatusDelivered, DeliveryStatusCancelled:
		return true
	}
	return false
}

// Delivery is created exactly once per order when the order becomes ready
// for delivery. CourierID is assigned at most once: a claim is irreversible.
type Delivery struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	CourierID       *uuid.UUID // courier profile id, nil until claimed
	PickupAddress   string
	DeliveryAddress string
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
