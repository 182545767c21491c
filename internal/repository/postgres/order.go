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

type OrderRepo struct {
	DB DBTX
}

const createOrder = `-- name: CreateOrder
INSERT INTO orders (id, customer_id, tiffin_id, courier_id, quantity, total_price, status, delivery_address, delivery_pincode, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
RETURNING id, customer_id, tiffin_id, courier_id, quantity, total_price, status, delivery_address, delivery_pincode, created_at, updated_at
`

func (r *OrderRepo) Create(ctx context.Context, order models.Order) (models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}

	rows, _ := r.DB.Query(ctx, createOrder,
		order.ID, order.CustomerID, order.TiffinID, order.CourierID,
		order.Quantity, order.TotalPrice, order.Status,
		order.DeliveryAddress, order.DeliveryPincode, time.Now(),
	)
	order, err := pgx.CollectOneRow(rows, rowToOrder)
	if err != nil {
		return order, fmt.Errorf("db error: %w", err)
	}

	return order, nil
}

const getOrderByID = `-- name: GetOrderByID
SELECT id, customer_id, tiffin_id, courier_id, quantity, total_price, status, delivery_address, delivery_pincode, created_at, updated_at
FROM orders
WHERE id = $1
`

// Lock the order row until the enclosing tx ends so transition side effects
// (owner credit, delivery creation) cannot interleave with a concurrent update
const getOrderByIDForUpdate = getOrderByID + `FOR UPDATE
`

func (r *OrderRepo) GetByID(ctx context.Context, orderID uuid.UUID, forUpdate bool) (models.Order, error) {
	query := getOrderByID
	if forUpdate {
		query = getOrderByIDForUpdate
	}

	rows, _ := r.DB.Query(ctx, query, orderID)
	order, err := pgx.CollectOneRow(rows, rowToOrder)
	return order, notFoundOrDBErr(err, apperrors.ErrOrderNotFound)
}

const updateOrderStatus = `-- name: UpdateOrderStatus
UPDATE orders
SET status = $2, updated_at = $3
WHERE id = $1
RETURNING id, customer_id, tiffin_id, courier_id, quantity, total_price, status, delivery_address, delivery_pincode, created_at, updated_at
`

func (r *OrderRepo) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (models.Order, error) {
	rows, _ := r.DB.Query(ctx, updateOrderStatus, orderID, status, time.Now())
	order, err := pgx.CollectOneRow(rows, rowToOrder)
	return order, notFoundOrDBErr(err, apperrors.ErrOrderNotFound)
}

const listOrdersByCustomer = `-- name: ListOrdersByCustomer
SELECT id, customer_id, tiffin_id, courier_id, quantity, total_price, status, delivery_address, delivery_pincode, created_at, updated_at
FROM orders
WHERE customer_id = $1
ORDER BY created_at DESC
`

func (r *OrderRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error) {
	rows, _ := r.DB.Query(ctx, listOrdersByCustomer, customerID)
	orders, err := pgx.CollectRows(rows, rowToOrder)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return orders, nil
}

const listOrdersByTiffinOwner = `-- name: ListOrdersByTiffinOwner
SELECT o.id, o.customer_id, o.tiffin_id, o.courier_id, o.quantity, o.total_price, o.status, o.delivery_address, o.delivery_pincode, o.created_at, o.updated_at
FROM orders o
JOIN tiffins t ON t.id = o.tiffin_id
WHERE t.owner_id = $1
ORDER BY o.created_at DESC
`

func (r *OrderRepo) ListByTiffinOwner(ctx context.Context, ownerProfileID uuid.UUID) ([]models.Order, error) {
	rows, _ := r.DB.Query(ctx, listOrdersByTiffinOwner, ownerProfileID)
	orders, err := pgx.CollectRows(rows, rowToOrder)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return orders, nil
}

func rowToOrder(row pgx.CollectableRow) (models.Order, error) {
	var o models.Order
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.TiffinID, &o.CourierID, &o.Quantity,
		&o.TotalPrice, &o.Status, &o.DeliveryAddress, &o.DeliveryPincode,
		&o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}
