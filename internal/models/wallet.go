package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Typed reasons for a ledger entry
// Direction is implied by the type, the amount is always a positive magnitude
const (
	TxnTypeDeposit           = "deposit"
	TxnTypeWithdraw          = "withdraw"
	TxnTypeOrderDebit        = "order_debit"
	TxnTypeOwnerCredit       = "owner_credit"
	TxnTypeDeliveryFeeDebit  = "delivery_fee_debit"
	TxnTypeDeliveryFeeCredit = "delivery_fee_credit"
	TxnTypeBankTransferIn    = "bank_transfer_in"
	TxnTypeBankTransferOut   = "bank_transfer_out"
)

// Entry types that decrease the wallet balance
var debitTxnTypes = map[string]struct{}{
	TxnTypeWithdraw:         {},
	TxnTypeOrderDebit:       {},
	TxnTypeDeliveryFeeDebit: {},
	TxnTypeBankTransferOut:  {},
}

// SignedAmount returns the balance change a transaction describes:
// negative for debit types, positive otherwise.
func (t WalletTransaction) SignedAmount() decimal.Decimal {
	if _, ok := debitTxnTypes[t.Type]; ok {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Wallet is created lazily on first access and owned by exactly one user.
// The balance is mutated only through the ledger's adjust operation.
type Wallet struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Balance   decimal.Decimal
	UpdatedAt time.Time
}

// WalletTransaction is an append-only ledger entry. Never updated or deleted.
type WalletTransaction struct {
	ID        uuid.UUID
	WalletID  uuid.UUID
	Type      string
	Amount    decimal.Decimal
	Reference string
	CreatedAt time.Time
}
