package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nileshk/tiffinbox/internal/apperrors"
	"github.com/nileshk/tiffinbox/internal/models"
	"github.com/nileshk/tiffinbox/internal/repository"
)

type UserRepo struct {
	DB DBTX
}

const createUser = `-- name: CreateUser
INSERT INTO users (id, username, password_hash, role, phone, address, pincode)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at, username, password_hash, role, phone, address, pincode
`

func (r *UserRepo) CreateUser(ctx context.Context, params repository.CreateUserParams) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser,
		uuid.New(), params.Username, params.HashedPassword,
		params.Role, params.Phone, params.Address, params.Pincode,
	)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
			return user, apperrors.ErrUserAlreadyExists
		}
		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT id, created_at, username, password_hash, role, phone, address, pincode
FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, userID)
	user, err := pgx.CollectOneRow(rows, rowToUser)
	return user, notFoundOrDBErr(err, apperrors.ErrUserNotFound)
}

const getUserByUsername = `-- name: GetUserByUsername
SELECT id, created_at, username, password_hash, role, phone, address, pincode
FROM users
WHERE username = $1
`

func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByUsername, username)
	user, err := pgx.CollectOneRow(rows, rowToUser)
	return user, notFoundOrDBErr(err, apperrors.ErrUserNotFound)
}

const createOwnerProfile = `-- name: CreateOwnerProfile
INSERT INTO owner_profiles (id, user_id, business_name, business_address, business_pincode, verified, fssai_number)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, user_id, business_name, business_address, business_pincode, verified, fssai_number
`

func (r *UserRepo) CreateOwnerProfile(ctx context.Context, p models.OwnerProfile) (models.OwnerProfile, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createOwnerProfile,
		p.ID, p.UserID, p.BusinessName, p.BusinessAddress, p.BusinessPincode, p.Verified, p.FSSAINumber,
	)
	profile, err := pgx.CollectOneRow(rows, rowToOwnerProfile)
	if err != nil {
		return profile, fmt.Errorf("db error: %w", err)
	}

	return profile, nil
}

const getOwnerProfileByUserID = `-- name: GetOwnerProfileByUserID
SELECT id, user_id, business_name, business_address, business_pincode, verified, fssai_number
FROM owner_profiles
WHERE user_id = $1
`

func (r *UserRepo) GetOwnerProfileByUserID(ctx context.Context, userID uuid.UUID) (models.OwnerProfile, error) {
	rows, _ := r.DB.Query(ctx, getOwnerProfileByUserID, userID)
	profile, err := pgx.CollectOneRow(rows, rowToOwnerProfile)
	return profile, notFoundOrDBErr(err, apperrors.ErrOwnerProfileNotFound)
}

const getOwnerProfileByID = `-- name: GetOwnerProfileByID
SELECT id, user_id, business_name, business_address, business_pincode, verified, fssai_number
FROM owner_profiles
WHERE id = $1
`

func (r *UserRepo) GetOwnerProfileByID(ctx context.Context, profileID uuid.UUID) (models.OwnerProfile, error) {
	rows, _ := r.DB.Query(ctx, getOwnerProfileByID, profileID)
	profile, err := pgx.CollectOneRow(rows, rowToOwnerProfile)
	return profile, notFoundOrDBErr(err, apperrors.ErrOwnerProfileNotFound)
}

const createCourierProfile = `-- name: CreateCourierProfile
INSERT INTO courier_profiles (id, user_id, vehicle_number, available)
VALUES ($1, $2, $3, $4)
RETURNING id, user_id, vehicle_number, available
`

func (r *UserRepo) CreateCourierProfile(ctx context.Context, p models.CourierProfile) (models.CourierProfile, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createCourierProfile, p.ID, p.UserID, p.VehicleNumber, p.Available)
	profile, err := pgx.CollectOneRow(rows, rowToCourierProfile)
	if err != nil {
		return profile, fmt.Errorf("db error: %w", err)
	}

	return profile, nil
}

const getCourierProfileByUserID = `-- name: GetCourierProfileByUserID
SELECT id, user_id, vehicle_number, available
FROM courier_profiles
WHERE user_id = $1
`

func (r *UserRepo) GetCourierProfileByUserID(ctx context.Context, userID uuid.UUID) (models.CourierProfile, error) {
	rows, _ := r.DB.Query(ctx, getCourierProfileByUserID, userID)
	profile, err := pgx.CollectOneRow(rows, rowToCourierProfile)
	return profile, notFoundOrDBErr(err, apperrors.ErrCourierProfileNotFound)
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.CreatedAt, &u.Username, &u.HashedPassword, &u.Role, &u.Phone, &u.Address, &u.Pincode)
	return u, err
}

func rowToOwnerProfile(row pgx.CollectableRow) (models.OwnerProfile, error) {
	var p models.OwnerProfile
	err := row.Scan(&p.ID, &p.UserID, &p.BusinessName, &p.BusinessAddress, &p.BusinessPincode, &p.Verified, &p.FSSAINumber)
	return p, err
}

func rowToCourierProfile(row pgx.CollectableRow) (models.CourierProfile, error) {
	var p models.CourierProfile
	err := row.Scan(&p.ID, &p.UserID, &p.VehicleNumber, &p.Available)
	return p, err
}

// Translate pgx.ErrNoRows into the well known sentinel, wrap the rest
func notFoundOrDBErr(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return notFound
	default:
		return fmt.Errorf("db error: %w", err)
	}
}
