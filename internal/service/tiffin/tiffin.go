package tiffin

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nileshk/tiffinbox/internal/apperrors"
	"github.com/nileshk/tiffinbox/internal/models"
	"github.com/nileshk/tiffinbox/internal/repository"
)

type CreateTiffinParams struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Available   bool
}

type TiffinService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *TiffinService {
	return &TiffinService{storage: storage}
}

// Create adds a tiffin to the owner's menu
// Only owners may create tiffins
func (s *TiffinService) Create(ctx context.Context, owner models.User, params CreateTiffinParams) (models.Tiffin, error) {
	if owner.Role != models.RoleOwner {
		return models.Tiffin{}, apperrors.ErrRoleForbidden
	}
	if params.Price.IsNegative() {
		return models.Tiffin{}, apperrors.ErrAmountInvalid
	}

	profile, err := s.storage.User().GetOwnerProfileByUserID(ctx, owner.ID)
	if err != nil {
		return models.Tiffin{}, err
	}

	return s.storage.Tiffin().Create(ctx, models.Tiffin{
		OwnerID:     profile.ID,
		Name:        params.Name,
		Description: params.Description,
		Price:       params.Price,
		Available:   params.Available,
	})
}

// List returns the tiffins visible to the user: owners see their full
// menu including unavailable items, everybody else only what can be
// ordered right now
func (s *TiffinService) List(ctx context.Context, user models.User) ([]models.Tiffin, error) {
	if user.Role == models.RoleOwner {
		profile, err := s.storage.User().GetOwnerProfileByUserID(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		return s.storage.Tiffin().ListByOwner(ctx, profile.ID)
	}

	return s.storage.Tiffin().ListAvailable(ctx)
}

func (s *TiffinService) GetByID(ctx context.Context, id uuid.UUID) (models.Tiffin, error) {
	return s.storage.Tiffin().GetByID(ctx, id)
}
