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
	"github.com/nileshk/tiffinbox/internal/service/order"
)

type orderService interface {
	Place(ctx context.Context, customer models.User, params order.PlaceOrderParams) (models.Order, error)
	UpdateStatus(ctx context.Context, actor models.User, orderID uuid.UUID, newStatus string) (models.Order, error)
	GetByID(ctx context.Context, orderID uuid.UUID) (models.Order, error)
	List(ctx context.Context, u models.User) ([]models.Order, error)
}

type OrderHandler struct {
	orderService orderService
	logger       logger.Logger
}

type OrderResponse struct {
	ID              uuid.UUID       `json:"id"`
	TiffinID        uuid.UUID       `json:"tiffin_id"`
	Quantity        int32           `json:"quantity"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	Status          string          `json:"status"`
	DeliveryAddress string          `json:"delivery_address"`
	DeliveryPincode string          `json:"delivery_pincode"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func NewOrder(os orderService, l logger.Logger) *OrderHandler {
	return &OrderHandler{orderService: os, logger: l}
}

func (h *OrderHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders", h.create)
	mux.HandleFunc("GET /orders", h.list)
	mux.HandleFunc("GET /orders/{id}", h.get)
	mux.HandleFunc("POST /orders/{id}/status", h.updateStatus)

	return mux
}

func orderResponse(o models.Order) OrderResponse {
	return OrderResponse{
		ID:              o.ID,
		TiffinID:        o.TiffinID,
		Quantity:        o.Quantity,
		TotalPrice:      o.TotalPrice,
		Status:          o.Status,
		DeliveryAddress: o.DeliveryAddress,
		DeliveryPincode: o.DeliveryPincode,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func (h *OrderHandler) create(w http.ResponseWriter, r *http.Request) {
	type request struct {
		TiffinID        uuid.UUID `json:"tiffin_id" validate:"required"`
		Quantity        int32     `json:"quantity" validate:"required,min=1"`
		DeliveryAddress string    `json:"delivery_address" validate:"required"`
		DeliveryPincode string    `json:"delivery_pincode" validate:"omitempty,len=6"`
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

	o, err := h.orderService.Place(r.Context(), user, order.PlaceOrderParams{
		TiffinID:        data.TiffinID,
		Quantity:        data.Quantity,
		DeliveryAddress: data.DeliveryAddress,
		DeliveryPincode: data.DeliveryPincode,
	})
	switch {
	case err == nil:
		render.JSONWithStatus(w, orderResponse(o), http.StatusCreated)
	case errors.Is(err, apperrors.ErrTiffinNotFound):
		render.ServiceError(w, "Tiffin not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrTiffinUnavailable):
		render.ServiceError(w, "Tiffin is not available", http.StatusConflict)
	case errors.Is(err, apperrors.ErrQuantityInvalid):
		render.ServiceError(w, "Quantity must be positive", http.StatusUnprocessableEntity)
	case errors.Is(err, apperrors.ErrWalletInsufficient):
		render.ServiceError(w, "Insufficient balance", http.StatusPaymentRequired)
	default:
		h.logger.Error("Failed to place order", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *OrderHandler) list(w http.ResponseWriter, r *http.Request) {
	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	orders, err := h.orderService.List(r.Context(), user)
	if err != nil {
		h.logger.Error("Failed to list orders", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		response = append(response, orderResponse(o))
	}

	render.JSON(w, response)
}

func (h *OrderHandler) get(w http.ResponseWriter, r *http.Request) {
	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		render.ServiceError(w, "Invalid order id", http.StatusBadRequest)
		return
	}

	o, err := h.orderService.GetByID(r.Context(), id)
	switch {
	case err == nil:
		// Customers may look only at their own orders
		if user.Role == models.RoleCustomer && o.CustomerID != user.ID {
			render.ServiceError(w, "Order not found", http.StatusNotFound)
			return
		}
		render.JSON(w, orderResponse(o))
	case errors.Is(err, apperrors.ErrOrderNotFound):
		render.ServiceError(w, "Order not found", http.StatusNotFound)
	default:
		h.logger.Error("Failed to get order", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *OrderHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Status string `json:"status" validate:"required"`
	}

	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		render.ServiceError(w, "Invalid order id", http.StatusBadRequest)
		return
	}

	data, err := render.BindAndValidate[request](w, r)
	if err != nil {
		return
	}

	o, err := h.orderService.UpdateStatus(r.Context(), user, id, data.Status)
	switch {
	case err == nil:
		render.JSON(w, orderResponse(o))
	case errors.Is(err, apperrors.ErrOrderNotFound):
		render.ServiceError(w, "Order not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrOrderStatusInvalid):
		render.ServiceError(w, "Unknown order status", http.StatusUnprocessableEntity)
	case errors.Is(err, apperrors.ErrRoleForbidden):
		render.ServiceError(w, "Only the tiffin owner may update the order", http.StatusForbidden)
	default:
		h.logger.Error("Failed to update order status", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}
