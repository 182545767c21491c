package models

import (
	"time"

	"github.com/google/uuid"
)

// Closed set of roles a principal may act as.
// Core operations take the principal explicitly and dispatch on the role.
const (
	RoleCustomer  = "customer"
	RoleOwner     = "owner"
	RoleCourier   = "courier"
	RoleAnonymous = "anonymous"
)

func ValidRole(role string) bool {
	switch role {
	case RoleCustomer, RoleOwner, RoleCourier:
		return true
	}
	return false
}

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Username       string
	HashedPassword string
	Role           string
	Phone          string
	Address        string
	Pincode        string
}

// OwnerProfile is the business profile of a tiffin owner.
// The business address is copied into deliveries as the pickup address.
type OwnerProfile struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	BusinessName    string
	BusinessAddress string
	BusinessPincode string
	Verified        bool
	FSSAINumber     string
}

// CourierProfile must exist before a user may claim deliveries.
type CourierProfile struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	VehicleNumber string
	Available     bool
}
