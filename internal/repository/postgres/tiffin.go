package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nileshk/tiffinbox/internal/apperrors"
	"github.com/nileshk/tiffinbox/internal/models"
)

type TiffinRepo struct {
	DB DBTX
}

const createTiffin = `-- name: CreateTiffin
INSERT INTO tiffins (id, owner_id, name, description, price, available, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
RETURNING id, owner_id, name, description, price, available, created_at, updated_at
`

func (r *TiffinRepo) Create(ctx context.Context, tiffin models.Tiffin) (models.Tiffin, error) {
	if tiffin.ID == uuid.Nil {
		tiffin.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createTiffin,
		tiffin.ID, tiffin.OwnerID, tiffin.Name, tiffin.Description,
		tiffin.Price, tiffin.Available, time.Now(),
	)
	tiffin, err := pgx.CollectOneRow(rows, rowToTiffin)
	if err != nil {
		return tiffin, fmt.Errorf("db error: %w", err)
	}

	return tiffin, nil
}

const getTiffinByID = `-- name: GetTiffinByID
SELECT id, owner_id, name, description, price, available, created_at, updated_at
FROM tiffins
WHERE id = $1
`

func (r *TiffinRepo) GetByID(ctx context.Context, tiffinID uuid.UUID) (models.Tiffin, error) {
	rows, _ := r.DB.Query(ctx, getTiffinByID, tiffinID)
	tiffin, err := pgx.CollectOneRow(rows, rowToTiffin)
	return tiffin, notFoundOrDBErr(err, apperrors.ErrTiffinNotFound)
}

const listAvailableTiffins = `-- name: ListAvailableTiffins
SELECT id, owner_id, name, description, price, available, created_at, updated_at
FROM tiffins
WHERE available
ORDER BY created_at DESC
`

func (r *TiffinRepo) ListAvailable(ctx context.Context) ([]models.Tiffin, error) {
	rows, _ := r.DB.Query(ctx, listAvailableTiffins)
	tiffins, err := pgx.CollectRows(rows, rowToTiffin)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return tiffins, nil
}

const listTiffinsByOwner = `-- name: ListTiffinsByOwner
SELECT id, owner_id, name, description, price, available, created_at, updated_at
FROM tiffins
WHERE owner_id = $1
ORDER BY created_at DESC
`

func (r *TiffinRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Tiffin, error) {
	rows, _ := r.DB.Query(ctx, listTiffinsByOwner, ownerID)
	tiffins, err := pgx.CollectRows(rows, rowToTiffin)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return tiffins, nil
}

func rowToTiffin(row pgx.CollectableRow) (models.Tiffin, error) {
	var t models.Tiffin
	err := row.Scan(&t.ID, &t.OwnerID, &t.Name, &t.Description, &t.Price, &t.Available, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}
