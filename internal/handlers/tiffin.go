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
	"github.com/nileshk/tiffinbox/internal/service/tiffin"
)

type tiffinService interface {
	Create(ctx context.Context, owner models.User, params tiffin.CreateTiffinParams) (models.Tiffin, error)
	List(ctx context.Context, user models.User) ([]models.Tiffin, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.Tiffin, error)
}

type TiffinHandler struct {
	tiffinService tiffinService
	logger        logger.Logger
}

type TiffinResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Available   bool            `json:"is_available"`
	CreatedAt   time.Time       `json:"created_at"`
}

func NewTiffin(ts tiffinService, l logger.Logger) *TiffinHandler {
	return &TiffinHandler{tiffinService: ts, logger: l}
}

func (h *TiffinHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /tiffins", h.create)
	mux.HandleFunc("GET /tiffins", h.list)
	mux.HandleFunc("GET /tiffins/{id}", h.get)

	return mux
}

func tiffinResponse(t models.Tiffin) TiffinResponse {
	return TiffinResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Price:       t.Price,
		Available:   t.Available,
		CreatedAt:   t.CreatedAt,
	}
}

func (h *TiffinHandler) create(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Name        string          `json:"name" validate:"required,max=100"`
		Description string          `json:"description"`
		Price       decimal.Decimal `json:"price" validate:"required"`
		Available   bool            `json:"is_available"`
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

	t, err := h.tiffinService.Create(r.Context(), user, tiffin.CreateTiffinParams{
		Name:        data.Name,
		Description: data.Description,
		Price:       data.Price,
		Available:   data.Available,
	})
	switch {
	case err == nil:
		render.JSONWithStatus(w, tiffinResponse(t), http.StatusCreated)
	case errors.Is(err, apperrors.ErrRoleForbidden):
		render.ServiceError(w, "Only owners may create tiffins", http.StatusForbidden)
	case errors.Is(err, apperrors.ErrAmountInvalid):
		render.ServiceError(w, "Price must not be negative", http.StatusUnprocessableEntity)
	default:
		h.logger.Error("Failed to create tiffin", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *TiffinHandler) list(w http.ResponseWriter, r *http.Request) {
	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	tiffins, err := h.tiffinService.List(r.Context(), user)
	if err != nil {
		h.logger.Error("Failed to list tiffins", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := make([]TiffinResponse, 0, len(tiffins))
	for _, t := range tiffins {
		response = append(response, tiffinResponse(t))
	}

	render.JSON(w, response)
}

func (h *TiffinHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		render.ServiceError(w, "Invalid tiffin id", http.StatusBadRequest)
		return
	}

	t, err := h.tiffinService.GetByID(r.Context(), id)
	switch {
	case err == nil:
		render.JSON(w, tiffinResponse(t))
	case errors.Is(err, apperrors.ErrTiffinNotFound):
		render.ServiceError(w, "Tiffin not found", http.StatusNotFound)
	default:
		h.logger.Error("Failed to get tiffin", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}
