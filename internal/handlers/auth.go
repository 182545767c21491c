package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/nileshk/tiffinbox/internal/apperrors"
	"github.com/nileshk/tiffinbox/internal/handlers/render"
	"github.com/nileshk/tiffinbox/internal/models"
	"github.com/nileshk/tiffinbox/internal/service/user"
)

type authService interface {
	IssuePair(ctx context.Context, u models.User) (models.TokenPair, error)
	Login(ctx context.Context, username string, password string) (models.TokenPair, error)
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)

	SetTokens(ctx context.Context, w http.ResponseWriter, pair models.TokenPair)
	GetRefresh(r *http.Request) (string, error)
}

type registrationService interface {
	CreateUser(ctx context.Context, params user.CreateUserParams) (models.User, error)
}

type AuthHandler struct {
	authService authService
	userService registrationService
}

func NewAuth(auth authService, users registrationService) *AuthHandler {
	return &AuthHandler{authService: auth, userService: users}
}

func (h *AuthHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", h.register)
	mux.HandleFunc("POST /login", h.login)
	mux.HandleFunc("POST /refresh", h.refresh)

	return mux
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	type RegisterRequest struct {
		Username string `json:"username" validate:"required,min=2,max=50"`
		Password string `json:"password" validate:"required,min=8"`
		Role     string `json:"role" validate:"required,role"`
		Phone    string `json:"phone" validate:"omitempty,max=15"`
		Address  string `json:"address"`
		Pincode  string `json:"pincode" validate:"omitempty,len=6"`

		BusinessName    string `json:"business_name" validate:"required_if=Role owner"`
		BusinessAddress string `json:"business_address" validate:"required_if=Role owner"`
		BusinessPincode string `json:"business_pincode" validate:"omitempty,len=6"`

		VehicleNumber string `json:"vehicle_number" validate:"required_if=Role courier"`
	}
	type RegisterSuccessResponse struct {
		Message string `json:"message"`
	}

	data, err := render.BindAndValidate[RegisterRequest](w, r)
	if err != nil {
		return
	}

	u, err := h.userService.CreateUser(r.Context(), user.CreateUserParams{
		Username:        data.Username,
		Password:        data.Password,
		Role:            data.Role,
		Phone:           data.Phone,
		Address:         data.Address,
		Pincode:         data.Pincode,
		BusinessName:    data.BusinessName,
		BusinessAddress: data.BusinessAddress,
		BusinessPincode: data.BusinessPincode,
		VehicleNumber:   data.VehicleNumber,
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.ServiceError(w, "User already exists", http.StatusConflict)
		case errors.Is(err, apperrors.ErrRoleInvalid):
			render.ServiceError(w, "Unknown role", http.StatusBadRequest)
		default:
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	pair, err := h.authService.IssuePair(r.Context(), u)
	if err != nil {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.authService.SetTokens(r.Context(), w, pair)
	render.JSON(w, RegisterSuccessResponse{Message: "User registered successfully"})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	type LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	type LoginSuccessResponse struct {
		Message string `json:"message"`
	}

	data, err := render.BindAndValidate[LoginRequest](w, r)
	if err != nil {
		return
	}

	pair, err := h.authService.Login(r.Context(), data.Username, data.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusUnauthorized)
		default:
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.authService.SetTokens(r.Context(), w, pair)
	render.JSON(w, LoginSuccessResponse{Message: "User logged in successfully"})
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	type RefreshSuccessResponse struct {
		Message string `json:"message"`
	}

	refresh, err := h.authService.GetRefresh(r)
	if err != nil {
		render.ServiceError(w, "Refresh token not found", http.StatusUnauthorized)
		return
	}

	pair, err := h.authService.Refresh(r.Context(), refresh)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrRefreshTokenExpired):
			render.ServiceError(w, "Refresh token expired", http.StatusUnauthorized)
		default:
			render.ServiceError(w, "Refresh token not found", http.StatusUnauthorized)
		}
		return
	}

	h.authService.SetTokens(r.Context(), w, pair)
	render.JSON(w, RefreshSuccessResponse{Message: "Tokens refreshed successfully"})
}
