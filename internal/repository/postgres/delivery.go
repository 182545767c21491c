package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nileshk/tiffinbox/internal/apperrors"
	"github.com/nileshk/tiffinbox/internal/models"
)

type DeliveryRepo struct {
	DB DBTX
}

// Create delivery for the order
// Exactly one delivery may exist per order, a second create returns the
// existing row untouched
const createDelivery = `-- name: CreateDelivery
WITH insert_delivery AS (
	INSERT INTO deliveries (id, order_id, courier_id, pickup_address, delivery_address, status, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	ON CONFLICT (order_id) DO NOTHING
	RETURNING id, order_id, courier_id, pickup_address, delivery_address, status, created_at, updated_at
)
SELECT id, order_id, courier_id, pickup_address, delivery_address, status, created_at, updated_at FROM insert_delivery
UNION
SELECT id, order_id, courier_id, pickup_address, delivery_address, status, created_at, updated_at FROM deliveries WHERE order_id = $2
`

func (r *DeliveryRepo) Create(ctx context.Context, delivery models.Delivery) (models.Delivery, error) {
	if delivery.ID == uuid.Nil {
		delivery.ID = uuid.New()
	}
	if delivery.Status == "" {
		delivery.Status = models.DeliveryStatusPending
	}

	rows, _ := r.DB.Query(ctx, createDelivery,
		delivery.ID, delivery.OrderID, delivery.CourierID,
		delivery.PickupAddress, delivery.DeliveryAddress, delivery.Status, time.Now(),
	)
	delivery, err := pgx.CollectOneRow(rows, rowToDelivery)
	if err != nil {
		return delivery, fmt.Errorf("db error: %w", err)
	}

	return delivery, nil
}

const getDeliveryByID = `-- name: GetDeliveryByID
SELECT id, order_id, courier_id, pickup_address, delivery_address, status, created_at, updated_at
FROM deliveries
WHERE id = $1
`

func (r *DeliveryRepo) GetByID(ctx context.Context, deliveryID uuid.UUID) (models.Delivery, error) {
	rows, _ := r.DB.Query(ctx, getDeliveryByID, deliveryID)
	delivery, err := pgx.CollectOneRow(rows, rowToDelivery)
	return delivery, notFoundOrDBErr(err, apperrors.ErrDeliveryNotFound)
}

const getDeliveryByOrderID = `-- name: GetDeliveryByOrderID
SELECT id, order_id, courier_id, pickup_address, delivery_address, status, created_at, updated_at
FROM deliveries
WHERE order_id = $1
`

func (r *DeliveryRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (models.Delivery, error) {
	rows, _ := r.DB.Query(ctx, getDeliveryByOrderID, orderID)
	delivery, err := pgx.CollectOneRow(rows, rowToDelivery)
	return delivery, notFoundOrDBErr(err, apperrors.ErrDeliveryNotFound)
}

// Compare-and-swap on the courier assignment: only a pending, unassigned
// delivery can be claimed, so of two concurrent claims exactly one wins
const assignCourier = `-- name: AssignCourier
UPDATE deliveries
SET courier_id = $2, status = $3, updated_at = $4
WHERE id = $1 AND status = $5 AND courier_id IS NULL
RETURNING id, order_id, courier_id, pickup_address, delivery_address, status, created_at, updated_at
`

func (r *DeliveryRepo) AssignCourier(ctx context.Context, deliveryID uuid.UUID, courierProfileID uuid.UUID) (models.Delivery, error) {
	rows, _ := r.DB.Query(ctx, assignCourier,
		deliveryID, courierProfileID,
		models.DeliveryStatusAccepted, time.Now(), models.DeliveryStatusPending,
	)
	delivery, err := pgx.CollectOneRow(rows, rowToDelivery)

	switch {
	case err == nil:
		return delivery, nil
	case errors.Is(err, pgx.ErrNoRows):
		return delivery, r.assignFailure(ctx, deliveryID)
	default:
		return delivery, fmt.Errorf("db error: %w", err)
	}
}

// Report why the compare-and-swap matched nothing
func (r *DeliveryRepo) assignFailure(ctx context.Context, deliveryID uuid.UUID) error {
	delivery, err := r.GetByID(ctx, deliveryID)

	switch {
	case err != nil:
		return err
	case delivery.CourierID != nil:
		return apperrors.ErrDeliveryAlreadyAssigned
	default:
		return apperrors.ErrDeliveryNotPending
	}
}

// A courier sees the deliveries assigned to them plus the unassigned
// pending ones they could pick up in their pincode
const listDeliveriesForCourier = `-- name: ListDeliveriesForCourier
SELECT d.id, d.order_id, d.courier_id, d.pickup_address, d.delivery_address, d.status, d.created_at, d.updated_at
FROM deliveries d
JOIN orders o ON o.id = d.order_id
WHERE d.courier_id = $1 OR (d.courier_id IS NULL AND o.delivery_pincode = $2)
ORDER BY d.created_at DESC
`

func (r *DeliveryRepo) ListForCourier(ctx context.Context, courierProfileID uuid.UUID, pincode string) ([]models.Delivery, error) {
	rows, _ := r.DB.Query(ctx, listDeliveriesForCourier, courierProfileID, pincode)
	deliveries, err := pgx.CollectRows(rows, rowToDelivery)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return deliveries, nil
}

const listDeliveriesByCustomer = `-- name: ListDeliveriesByCustomer
SELECT d.id, d.order_id, d.courier_id, d.pickup_address, d.delivery_address, d.status, d.created_at, d.updated_at
FROM deliveries d
JOIN orders o ON o.id = d.order_id
WHERE o.customer_id = $1
ORDER BY d.created_at DESC
`

func (r *DeliveryRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Delivery, error) {
	rows, _ := r.DB.Query(ctx, listDeliveriesByCustomer, customerID)
	deliveries, err := pgx.CollectRows(rows, rowToDelivery)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return deliveries, nil
}

const listDeliveriesByTiffinOwner = `-- name: ListDeliveriesByTiffinOwner
SELECT d.id, d.order_id, d.courier_id, d.pickup_address, d.delivery_address, d.status, d.created_at, d.updated_at
FROM deliveries d
JOIN orders o ON o.id = d.order_id
JOIN tiffins t ON t.id = o.tiffin_id
WHERE t.owner_id = $1
ORDER BY d.created_at DESC
`

func (r *DeliveryRepo) ListByTiffinOwner(ctx context.Context, ownerProfileID uuid.UUID) ([]models.Delivery, error) {
	rows, _ := r.DB.Query(ctx, listDeliveriesByTiffinOwner, ownerProfileID)
	deliveries, err := pgx.CollectRows(rows, rowToDelivery)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return deliveries, nil
}

const updateDeliveryStatus = `-- name: UpdateDeliveryStatus
UPDATE deliveries
SET status = $2, updated_at = $3
WHERE id = $1
RETURNING id, order_id, courier_id, pickup_address, delivery_address, status, created_at, updated_at
`

func (r *DeliveryRepo) UpdateStatus(ctx context.Context, deliveryID uuid.UUID, status string) (models.Delivery, error) {
	rows, _ := r.DB.Query(ctx, updateDeliveryStatus, deliveryID, status, time.Now())
	delivery, err := pgx.CollectOneRow(rows, rowToDelivery)
	return delivery, notFoundOrDBErr(err, apperrors.ErrDeliveryNotFound)
}

func rowToDelivery(row pgx.CollectableRow) (models.Delivery, error) {
	var d models.Delivery
	err := row.Scan(&d.ID, &d.OrderID, &d.CourierID, &d.PickupAddress, &d.DeliveryAddress, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}
