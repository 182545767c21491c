package models

import (
	"time"

	"github.com/google/uuid"
)

// BankAccount is an external account a user may cite when moving money out
// of the ledger. At most one account per user is primary.
type BankAccount struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	HolderName    string
	BankName      string
	AccountNumber string
	IFSCCode      string
	Primary       bool
	CreatedAt     time.Time
}
