package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tiffin is a prepared-meal listing offered by an owner.
type Tiffin struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID // owner profile id
	Name        string
	Description string
	Price       decimal.Decimal
	Available   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
