package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nileshk/tiffinbox/internal/apperrors"
	"github.com/nileshk/tiffinbox/internal/handlers/render"
	"github.com/nileshk/tiffinbox/internal/handlers/userctx"
	"github.com/nileshk/tiffinbox/internal/logger"
	"github.com/nileshk/tiffinbox/internal/models"
	"github.com/nileshk/tiffinbox/internal/service/wallet"
)

type walletService interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (models.Wallet, error)
	Deposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (models.Wallet, error)
	DepositFromBank(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (models.Wallet, error)
	WithdrawToBank(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, bankAccountID *uuid.UUID) (models.Wallet, error)
	Transactions(ctx context.Context, userID uuid.UUID) ([]models.WalletTransaction, error)

	CreateBankAccount(ctx context.Context, userID uuid.UUID, params wallet.CreateBankAccountParams) (models.BankAccount, error)
	ListBankAccounts(ctx context.Context, userID uuid.UUID) ([]models.BankAccount, error)
}

type WalletHandler struct {
	walletService walletService
	logger        logger.Logger
}

type WalletResponse struct {
	ID        uuid.UUID       `json:"id"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func NewWallet(ws walletService, l logger.Logger) *WalletHandler {
	return &WalletHandler{walletService: ws, logger: l}
}

func (h *WalletHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /wallet", h.getWallet)
	mux.HandleFunc("GET /wallet/transactions", h.listTransactions)
	mux.HandleFunc("POST /wallet/deposit", h.deposit)
	mux.HandleFunc("POST /wallet/deposit-from-bank", h.depositFromBank)
	mux.HandleFunc("POST /wallet/withdraw-to-bank", h.withdrawToBank)
	mux.HandleFunc("POST /wallet/payout", h.payout)

	mux.HandleFunc("POST /bank-accounts", h.createBankAccount)
	mux.HandleFunc("GET /bank-accounts", h.listBankAccounts)

	return mux
}

func walletResponse(w models.Wallet) WalletResponse {
	return WalletResponse{ID: w.ID, Balance: w.Balance, UpdatedAt: w.UpdatedAt}
}

func (h *WalletHandler) getWallet(w http.ResponseWriter, r *http.Request) {
	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	wlt, err := h.walletService.GetOrCreate(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("Failed to get wallet", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSON(w, walletResponse(wlt))
}

func (h *WalletHandler) listTransactions(w http.ResponseWriter, r *http.Request) {
	type transaction struct {
		ID        uuid.UUID       `json:"id"`
		Type      string          `json:"transaction_type"`
		Amount    decimal.Decimal `json:"amount"`
		Reference string          `json:"reference,omitempty"`
		CreatedAt time.Time       `json:"created_at"`
	}

	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	txns, err := h.walletService.Transactions(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("Failed to list wallet transactions", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := make([]transaction, 0, len(txns))
	for _, t := range txns {
		response = append(response, transaction{
			ID:        t.ID,
			Type:      t.Type,
			Amount:    t.SignedAmount(),
			Reference: t.Reference,
			CreatedAt: t.CreatedAt,
		})
	}

	render.JSON(w, response)
}

func (h *WalletHandler) deposit(w http.ResponseWriter, r *http.Request) {
	h.credit(w, r, h.walletService.Deposit)
}

func (h *WalletHandler) depositFromBank(w http.ResponseWriter, r *http.Request) {
	h.credit(w, r, h.walletService.DepositFromBank)
}

func (h *WalletHandler) credit(w http.ResponseWriter, r *http.Request, fn func(context.Context, uuid.UUID, decimal.Decimal) (models.Wallet, error)) {
	type request struct {
		Amount decimal.Decimal `json:"amount" validate:"required"`
	}

	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data, err := render.BindAndValidate[request](w, r)
	if err != nil {
		return
	}

	wlt, err := fn(r.Context(), user.ID, data.Amount)
	switch {
	case err == nil:
		render.JSON(w, walletResponse(wlt))
	case errors.Is(err, apperrors.ErrAmountInvalid):
		render.ServiceError(w, "Amount must be positive", http.StatusUnprocessableEntity)
	default:
		h.logger.Error("Failed to deposit", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *WalletHandler) withdrawToBank(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Amount        decimal.Decimal `json:"amount" validate:"required"`
		BankAccountID *uuid.UUID      `json:"bank_account_id"`
	}

	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data, err := render.BindAndValidate[request](w, r)
	if err != nil {
		return
	}

	wlt, err := h.walletService.WithdrawToBank(r.Context(), user.ID, data.Amount, data.BankAccountID)
	switch {
	case err == nil:
		render.JSON(w, walletResponse(wlt))
	case errors.Is(err, apperrors.ErrAmountInvalid):
		render.ServiceError(w, "Amount must be positive", http.StatusUnprocessableEntity)
	case errors.Is(err, apperrors.ErrWalletInsufficient):
		render.ServiceError(w, "Insufficient balance", http.StatusPaymentRequired)
	case errors.Is(err, apperrors.ErrBankAccountNotFound):
		render.ServiceError(w, "Bank account not found", http.StatusNotFound)
	default:
		h.logger.Error("Failed to withdraw", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// Payouts to real banks are switched off until a payment provider is hooked up
func (h *WalletHandler) payout(w http.ResponseWriter, _ *http.Request) {
	render.ServiceError(w, "The withdrawal facility is temporarily stopped.", http.StatusForbidden)
}

func (h *WalletHandler) createBankAccount(w http.ResponseWriter, r *http.Request) {
	type request struct {
		HolderName    string `json:"holder_name" validate:"required"`
		BankName      string `json:"bank_name" validate:"required"`
		AccountNumber string `json:"account_number" validate:"required,min=9,max=18"`
		IFSCCode      string `json:"ifsc_code" validate:"required,len=11"`
		Primary       bool   `json:"is_primary"`
	}

	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data, err := render.BindAndValidate[request](w, r)
	if err != nil {
		return
	}

	account, err := h.walletService.CreateBankAccount(r.Context(), user.ID, wallet.CreateBankAccountParams{
		HolderName:    data.HolderName,
		BankName:      data.BankName,
		AccountNumber: data.AccountNumber,
		IFSCCode:      data.IFSCCode,
		Primary:       data.Primary,
	})
	if err != nil {
		h.logger.Error("Failed to create bank account", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSONWithStatus(w, bankAccountResponse(account), http.StatusCreated)
}

func (h *WalletHandler) listBankAccounts(w http.ResponseWriter, r *http.Request) {
	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	accounts, err := h.walletService.ListBankAccounts(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("Failed to list bank accounts", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := make([]BankAccountResponse, 0, len(accounts))
	for _, a := range accounts {
		response = append(response, bankAccountResponse(a))
	}

	render.JSON(w, response)
}

type BankAccountResponse struct {
	ID            uuid.UUID `json:"id"`
	HolderName    string    `json:"holder_name"`
	BankName      string    `json:"bank_name"`
	AccountNumber string    `json:"account_number"`
	IFSCCode      string    `json:"ifsc_code"`
	Primary       bool      `json:"is_primary"`
	CreatedAt     time.Time `json:"created_at"`
}

func bankAccountResponse(a models.BankAccount) BankAccountResponse {
	return BankAccountResponse{
		ID:            a.ID,
		HolderName:    a.HolderName,
		BankName:      a.BankName,
		AccountNumber: a.AccountNumber,
		IFSCCode:      a.IFSCCode,
		Primary:       a.Primary,
		CreatedAt:     a.CreatedAt,
	}
}
