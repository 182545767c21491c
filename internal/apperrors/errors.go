package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrRoleInvalid       = errors.New("role is invalid")
	ErrRoleForbidden     = errors.New("role is not allowed to do that")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenIsUsed   = errors.New("refresh token is used")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")

	ErrOwnerProfileNotFound   = errors.New("owner profile not found")
	ErrCourierProfileNotFound = errors.New("courier profile not found")

	ErrAmountInvalid      = errors.New("amount must be positive")
	ErrWalletInsufficient = errors.New("insufficient wallet balance")
	ErrWalletNotFound     = errors.New("wallet not found")

	ErrBankAccountNotFound = errors.New("bank account not found")

	ErrTiffinNotFound    = errors.New("tiffin not found")
	ErrTiffinUnavailable = errors.New("tiffin is not available")

	ErrQuantityInvalid    = errors.New("quantity must be positive")
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderStatusInvalid = errors.New("order status is invalid")

	ErrDeliveryNotFound        = errors.New("delivery not found")
	ErrDeliveryStatusInvalid   = errors.New("delivery status is invalid")
	ErrDeliveryNotPending      = errors.New("delivery is not in pending status")
	ErrDeliveryAlreadyAssigned = errors.New("delivery already assigned")
)
