package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nileshk/tiffinbox/internal/apperrors"
	"github.com/nileshk/tiffinbox/internal/handlers/render"
	"github.com/nileshk/tiffinbox/internal/handlers/userctx"
	"github.com/nileshk/tiffinbox/internal/logger"
	"github.com/nileshk/tiffinbox/internal/models"
)

type deliveryService interface {
	Claim(ctx context.Context, courier models.User, deliveryID uuid.UUID) (models.Delivery, error)
	UpdateStatus(ctx context.Context, deliveryID uuid.UUID, newStatus string) (models.Delivery, error)
	GetByID(ctx context.Context, deliveryID uuid.UUID) (models.Delivery, error)
	List(ctx context.Context, u models.User) ([]models.Delivery, error)
}

type DeliveryHandler struct {
	deliveryService deliveryService
	logger          logger.Logger
}

type DeliveryResponse struct {
	ID              uuid.UUID  `json:"id"`
	OrderID         uuid.UUID  `json:"order_id"`
	CourierID       *uuid.UUID `json:"courier_id,omitempty"`
	PickupAddress   string     `json:"pickup_address"`
	DeliveryAddress string     `json:"delivery_address"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func NewDelivery(ds deliveryService, l logger.Logger) *DeliveryHandler {
	return &DeliveryHandler{deliveryService: ds, logger: l}
}

func (h *DeliveryHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /deliveries", h.list)
	mux.HandleFunc("GET /deliveries/{id}", h.get)
	mux.HandleFunc("POST /deliveries/{id}/accept", h.accept)
	mux.HandleFunc("POST /deliveries/{id}/status", h.updateStatus)

	return mux
}

func deliveryResponse(d models.Delivery) DeliveryResponse {
	return DeliveryResponse{
		ID:              d.ID,
		OrderID:         d.OrderID,
		CourierID:       d.CourierID,
		PickupAddress:   d.PickupAddress,
		DeliveryAddress: d.DeliveryAddress,
		Status:          d.Status,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func (h *DeliveryHandler) list(w http.ResponseWriter, r *http.Request) {
	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	deliveries, err := h.deliveryService.List(r.Context(), user)
	switch {
	case err == nil:
		resp := make([]DeliveryResponse, 0, len(deliveries))
		for _, d := range deliveries {
			resp = append(resp, deliveryResponse(d))
		}
		render.JSON(w, resp)
	case errors.Is(err, apperrors.ErrCourierProfileNotFound),
		errors.Is(err, apperrors.ErrOwnerProfileNotFound):
		render.ServiceError(w, "Role profile not found", http.StatusForbidden)
	default:
		h.logger.Error("Failed to list deliveries", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *DeliveryHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		render.ServiceError(w, "Invalid delivery id", http.StatusBadRequest)
		return
	}

	d, err := h.deliveryService.GetByID(r.Context(), id)
	switch {
	case err == nil:
		render.JSON(w, deliveryResponse(d))
	case errors.Is(err, apperrors.ErrDeliveryNotFound):
		render.ServiceError(w, "Delivery not found", http.StatusNotFound)
	default:
		h.logger.Error("Failed to get delivery", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *DeliveryHandler) accept(w http.ResponseWriter, r *http.Request) {
	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		render.ServiceError(w, "Invalid delivery id", http.StatusBadRequest)
		return
	}

	d, err := h.deliveryService.Claim(r.Context(), user, id)
	switch {
	case err == nil:
		render.JSON(w, deliveryResponse(d))
	case errors.Is(err, apperrors.ErrRoleForbidden):
		render.ServiceError(w, "Only couriers may accept deliveries", http.StatusForbidden)
	case errors.Is(err, apperrors.ErrCourierProfileNotFound):
		render.ServiceError(w, "Courier profile not found", http.StatusForbidden)
	case errors.Is(err, apperrors.ErrDeliveryNotFound):
		render.ServiceError(w, "Delivery not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrDeliveryAlreadyAssigned):
		render.ServiceError(w, "Delivery already assigned", http.StatusConflict)
	case errors.Is(err, apperrors.ErrDeliveryNotPending):
		render.ServiceError(w, "Delivery is not pending", http.StatusConflict)
	case errors.Is(err, apperrors.ErrWalletInsufficient):
		render.ServiceError(w, "Owner cannot cover the delivery fee", http.StatusPaymentRequired)
	default:
		h.logger.Error("Failed to accept delivery", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *DeliveryHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Status string `json:"status" validate:"required"`
	}

	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if user.Role != models.RoleCourier {
		render.ServiceError(w, "Only couriers may update deliveries", http.StatusForbidden)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		render.ServiceError(w, "Invalid delivery id", http.StatusBadRequest)
		return
	}

	data, err := render.BindAndValidate[request](w, r)
	if err != nil {
		return
	}

	d, err := h.deliveryService.UpdateStatus(r.Context(), id, data.Status)
	switch {
	case err == nil:
		render.JSON(w, deliveryResponse(d))
	case errors.Is(err, apperrors.ErrDeliveryNotFound):
		render.ServiceError(w, "Delivery not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrDeliveryStatusInvalid):
		render.ServiceError(w, "Unknown delivery status", http.StatusUnprocessableEntity)
	default:
		h.logger.Error("Failed to update delivery status", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}
