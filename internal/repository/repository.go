package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nileshk/tiffinbox/internal/models"
)

type CreateUserParams struct {
	Username       string
	HashedPassword string
	Role           string
	Phone          string
	Address        string
	Pincode        string
}

// User repository interface
type UserRepo interface {
	// Create user
	// If user with username exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, params CreateUserParams) (models.User, error)

	// Get user by id or username
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)

	// Role profiles, one per user
	CreateOwnerProfile(ctx context.Context, profile models.OwnerProfile) (models.OwnerProfile, error)
	CreateCourierProfile(ctx context.Context, profile models.CourierProfile) (models.CourierProfile, error)

	// If profile not found must return apperrors.ErrOwnerProfileNotFound
	// or apperrors.ErrCourierProfileNotFound accordingly
	GetOwnerProfileByUserID(ctx context.Context, userID uuid.UUID) (models.OwnerProfile, error)
	GetOwnerProfileByID(ctx context.Context, profileID uuid.UUID) (models.OwnerProfile, error)
	GetCourierProfileByUserID(ctx context.Context, userID uuid.UUID) (models.CourierProfile, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	Save(ctx context.Context, token models.RefreshToken) error

	// Get token and mark it used in one statement
	// If the token is used already must return apperrors.ErrRefreshTokenIsUsed
	// and must not overwrite the stored used_at
	GetAndMarkUsed(ctx context.Context, tokenString string) (models.RefreshToken, error)
}

// Wallet ledger repository interface
// The only place wallet balances are mutated
type WalletRepo interface {
	// Get wallet for user, create empty one if it not exists yet
	GetOrCreate(ctx context.Context, userID uuid.UUID) (models.Wallet, error)

	// Apply signed delta to the wallet balance
	// The update is conditional: if the resulting balance would drop below
	// zero no row is touched and apperrors.ErrWalletInsufficient is returned.
	// Concurrent adjusts serialize on the row lock the UPDATE takes.
	Adjust(ctx context.Context, walletID uuid.UUID, delta decimal.Decimal) (models.Wallet, error)

	// Append immutable ledger entry, amount must be a positive magnitude
	RecordTransaction(ctx context.Context, txn models.WalletTransaction) (models.WalletTransaction, error)

	// List entries for wallet, newest first
	ListTransactions(ctx context.Context, walletID uuid.UUID) ([]models.WalletTransaction, error)
}

// BankAccount repository interface
type BankAccountRepo interface {
	Create(ctx context.Context, account models.BankAccount) (models.BankAccount, error)

	// Unset is_primary on every account of the user
	ClearPrimary(ctx context.Context, userID uuid.UUID) error

	// Get account by id checking it belongs to the user
	// If not found (or owned by somebody else) must return apperrors.ErrBankAccountNotFound
	GetOwned(ctx context.Context, accountID uuid.UUID, userID uuid.UUID) (models.BankAccount, error)

	// Get the user's primary account
	// If the user has no primary account must return apperrors.ErrBankAccountNotFound
	GetPrimary(ctx context.Context, userID uuid.UUID) (models.BankAccount, error)

	// List accounts of the user: primary first, then newest first
	List(ctx context.Context, userID uuid.UUID) ([]models.BankAccount, error)
}

type TiffinRepo interface {
	Create(ctx context.Context, tiffin models.Tiffin) (models.Tiffin, error)

	// If tiffin not found must return apperrors.ErrTiffinNotFound
	GetByID(ctx context.Context, tiffinID uuid.UUID) (models.Tiffin, error)

	ListAvailable(ctx context.Context) ([]models.Tiffin, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Tiffin, error)
}

type OrderRepo interface {
	Create(ctx context.Context, order models.Order) (models.Order, error)

	// Get order by id
	// With forUpdate the row is locked until the enclosing tx ends so the
	// transition side effects cannot interleave with a concurrent update
	GetByID(ctx context.Context, orderID uuid.UUID, forUpdate bool) (models.Order, error)

	UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (models.Order, error)

	// List orders, newest first
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error)
	ListByTiffinOwner(ctx context.Context, ownerProfileID uuid.UUID) ([]models.Order, error)
}

type DeliveryRepo interface {
	// Create delivery for order
	// Exactly one delivery may exist per order: if one exists already it is
	// returned as is and no second row is created
	Create(ctx context.Context, delivery models.Delivery) (models.Delivery, error)

	// If delivery not found must return apperrors.ErrDeliveryNotFound
	GetByID(ctx context.Context, deliveryID uuid.UUID) (models.Delivery, error)
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (models.Delivery, error)

	// Role scoped listings, newest first. ListForCourier returns both the
	// deliveries assigned to the courier and the unassigned ones matching
	// the given pincode.
	ListForCourier(ctx context.Context, courierProfileID uuid.UUID, pincode string) ([]models.Delivery, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Delivery, error)
	ListByTiffinOwner(ctx context.Context, ownerProfileID uuid.UUID) ([]models.Delivery, error)

	// Assign courier and move to accepted, but only while the delivery is
	// still pending and unassigned. Exactly one of two concurrent claims
	// can win; the loser gets apperrors.ErrDeliveryAlreadyAssigned or
	// apperrors.ErrDeliveryNotPending depending on the observed state.
	AssignCourier(ctx context.Context, deliveryID uuid.UUID, courierProfileID uuid.UUID) (models.Delivery, error)

	UpdateStatus(ctx context.Context, deliveryID uuid.UUID, status string) (models.Delivery, error)
}

// Storage aggregates every repository over one connection or transaction
type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo
	Wallet() WalletRepo
	BankAccount() BankAccountRepo
	Tiffin() TiffinRepo
	Order() OrderRepo
	Delivery() DeliveryRepo

	// Run fn inside a database transaction
	// fn receives a Storage bound to the transaction; returning an error
	// rolls back everything fn did
	InTx(ctx context.Context, fn func(Storage) error) error
}
