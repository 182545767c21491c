package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nileshk/tiffinbox/internal/apperrors"
	"github.com/nileshk/tiffinbox/internal/models"
	"github.com/nileshk/tiffinbox/internal/repository"
	"github.com/nileshk/tiffinbox/internal/service/auth"
)

// Everything needed to register a principal
// Owner and courier roles carry their role profile fields
type CreateUserParams struct {
	Username string
	Password string
	Role     string
	Phone    string
	Address  string
	Pincode  string

	// Owner role only
	BusinessName    string
	BusinessAddress string
	BusinessPincode string

	// Courier role only
	VehicleNumber string
}

type UserService struct {
	hasher  auth.PasswordHasher
	storage repository.Storage
}

func NewService(hasher auth.PasswordHasher, storage repository.Storage) *UserService {
	if hasher == nil {
		hasher = auth.DefaultHasher
	}

	return &UserService{
		hasher:  hasher,
		storage: storage,
	}
}

// Create user together with its role profile, all in one transaction
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (models.User, error) {
	var user models.User

	if !models.ValidRole(params.Role) {
		return user, apperrors.ErrRoleInvalid
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return user, fmt.Errorf("can't use this as password, Err: %w", err)
	}

	err = s.storage.InTx(ctx, func(s repository.Storage) error {
		user, err = s.User().CreateUser(ctx, repository.CreateUserParams{
			Username:       params.Username,
			HashedPassword: hash,
			Role:           params.Role,
			Phone:          params.Phone,
			Address:        params.Address,
			Pincode:        params.Pincode,
		})
		if err != nil {
			return err
		}

		switch user.Role {
		case models.RoleOwner:
			_, err = s.User().CreateOwnerProfile(ctx, models.OwnerProfile{
				UserID:          user.ID,
				BusinessName:    params.BusinessName,
				BusinessAddress: params.BusinessAddress,
				BusinessPincode: params.BusinessPincode,
			})
		case models.RoleCourier:
			_, err = s.User().CreateCourierProfile(ctx, models.CourierProfile{
				UserID:        user.ID,
				VehicleNumber: params.VehicleNumber,
				Available:     true,
			})
		}

		return err
	})
	if err != nil {
		return user, fmt.Errorf("can't create user. Err: %w", err)
	}

	return user, nil
}

func (s *UserService) Login(ctx context.Context, username string, password string) (models.User, error) {
	user, err := s.storage.User().GetUserByUsername(ctx, username)
	if err != nil {
		return user, apperrors.ErrUserNotFound
	}

	err = s.hasher.Compare(user.HashedPassword, password)
	if err != nil {
		return models.User{}, apperrors.ErrUserNotFound
	}

	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.storage.User().GetUserByID(ctx, userID)
}
