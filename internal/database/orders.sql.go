package database

import (
	"context"

	"github.com/google/uuid"
)

const orderColumns = `id, table_id, staff_id, is_served, created_at`

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.TableID,
		&i.StaffID,
		&i.IsServed,
		&i.CreatedAt,
	)
	return i, err
}

const hasUnservedOrder = `SELECT EXISTS (SELECT 1 FROM orders WHERE table_id = $1 AND NOT is_served)`

func (q *Queries) HasUnservedOrder(ctx context.Context, tableID int32) (bool, error) {
	row := q.db.QueryRow(ctx, hasUnservedOrder, tableID)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const createOrder = `
INSERT INTO orders (table_id, staff_id)
VALUES ($1, $2)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	TableID int32     `json:"table_id"`
	StaffID uuid.UUID `json:"staff_id"`
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, createOrder, arg.TableID, arg.StaffID))
}

const getOrder = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const getLatestOrderByTable = `
SELECT ` + orderColumns + `
FROM orders
WHERE table_id = $1
ORDER BY created_at DESC, id DESC
LIMIT 1`

func (q *Queries) GetLatestOrderByTable(ctx context.Context, tableID int32) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getLatestOrderByTable, tableID))
}

const lockUnservedOrdersByTable = `
SELECT ` + orderColumns + `
FROM orders
WHERE table_id = $1 AND NOT is_served
ORDER BY created_at, id
FOR UPDATE`

func (q *Queries) LockUnservedOrdersByTable(ctx context.Context, tableID int32) ([]Order, error) {
	rows, err := q.db.Query(ctx, lockUnservedOrdersByTable, tableID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Order
	for rows.Next() {
		i, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markOrderServed = `
UPDATE orders
SET is_served = TRUE
WHERE id = $1 AND NOT is_served
RETURNING ` + orderColumns

// MarkOrderServed returns pgx.ErrNoRows when the order is missing or already served.
func (q *Queries) MarkOrderServed(ctx context.Context, id uuid.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, markOrderServed, id))
}
