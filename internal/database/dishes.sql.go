package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const dishColumns = `id, order_id, staff_id, menu_item_id, item_name, unit_price, quantity, total, status`

func scanDish(row interface{ Scan(...any) error }) (Dish, error) {
	var i Dish
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.StaffID,
		&i.MenuItemID,
		&i.ItemName,
		&i.UnitPrice,
		&i.Quantity,
		&i.Total,
		&i.Status,
	)
	return i, err
}

const createDish = `
INSERT INTO dishes (order_id, staff_id, menu_item_id, item_name, unit_price, quantity, total)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + dishColumns

type CreateDishParams struct {
	OrderID    uuid.UUID      `json:"order_id"`
	StaffID    uuid.UUID      `json:"staff_id"`
	MenuItemID pgtype.UUID    `json:"menu_item_id"`
	ItemName   string         `json:"item_name"`
	UnitPrice  pgtype.Numeric `json:"unit_price"`
	Quantity   int32          `json:"quantity"`
	Total      pgtype.Numeric `json:"total"`
}

func (q *Queries) CreateDish(ctx context.Context, arg CreateDishParams) (Dish, error) {
	return scanDish(q.db.QueryRow(ctx, createDish,
		arg.OrderID,
		arg.StaffID,
		arg.MenuItemID,
		arg.ItemName,
		arg.UnitPrice,
		arg.Quantity,
		arg.Total,
	))
}

const getDish = `SELECT ` + dishColumns + ` FROM dishes WHERE id = $1`

func (q *Queries) GetDish(ctx context.Context, id uuid.UUID) (Dish, error) {
	return scanDish(q.db.QueryRow(ctx, getDish, id))
}

const transitionDishStatus = `
UPDATE dishes
SET status = $2
WHERE id = $1 AND status = $3
RETURNING ` + dishColumns

type TransitionDishStatusParams struct {
	ID   uuid.UUID `json:"id"`
	To   string    `json:"to"`
	From string    `json:"from"`
}

// TransitionDishStatus is a compare-and-swap on the dish status.
// Returns pgx.ErrNoRows when the dish is missing or no longer in From.
func (q *Queries) TransitionDishStatus(ctx context.Context, arg TransitionDishStatusParams) (Dish, error) {
	return scanDish(q.db.QueryRow(ctx, transitionDishStatus, arg.ID, arg.To, arg.From))
}

const setOrderDishesStatus = `UPDATE dishes SET status = $2 WHERE order_id = $1 AND status <> $2`

type SetOrderDishesStatusParams struct {
	OrderID uuid.UUID `json:"order_id"`
	Status  string    `json:"status"`
}

func (q *Queries) SetOrderDishesStatus(ctx context.Context, arg SetOrderDishesStatusParams) (int64, error) {
	result, err := q.db.Exec(ctx, setOrderDishesStatus, arg.OrderID, arg.Status)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// --- Read projections ---

const listKitchenDishes = `
SELECT d.id, d.order_id, o.table_id, COALESCE(mi.name, d.item_name), d.quantity, d.status
FROM dishes d
JOIN orders o ON o.id = d.order_id
JOIN tables t ON t.id = o.table_id
LEFT JOIN menu_items mi ON mi.id = d.menu_item_id
ORDER BY o.created_at, d.id`

type ListKitchenDishesRow struct {
	DishID   uuid.UUID `json:"dish_id"`
	OrderID  uuid.UUID `json:"order_id"`
	TableID  int32     `json:"table_id"`
	ItemName string    `json:"item_name"`
	Quantity int32     `json:"quantity"`
	Status   string    `json:"status"`
}

func (q *Queries) ListKitchenDishes(ctx context.Context) ([]ListKitchenDishesRow, error) {
	rows, err := q.db.Query(ctx, listKitchenDishes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListKitchenDishesRow
	for rows.Next() {
		var i ListKitchenDishesRow
		if err := rows.Scan(
			&i.DishID,
			&i.OrderID,
			&i.TableID,
			&i.ItemName,
			&i.Quantity,
			&i.Status,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listOrderDishLines = `
SELECT d.id, COALESCE(mi.name, d.item_name), d.quantity, COALESCE(mi.price, d.unit_price), d.total, d.status
FROM dishes d
LEFT JOIN menu_items mi ON mi.id = d.menu_item_id
WHERE d.order_id = $1
ORDER BY d.id`

// ListOrderDishLinesRow carries the menu price at read time in UnitPrice,
// next to the total frozen at order time.
type ListOrderDishLinesRow struct {
	DishID    uuid.UUID      `json:"dish_id"`
	ItemName  string         `json:"item_name"`
	Quantity  int32          `json:"quantity"`
	UnitPrice pgtype.Numeric `json:"unit_price"`
	Total     pgtype.Numeric `json:"total"`
	Status    string         `json:"status"`
}

func (q *Queries) ListOrderDishLines(ctx context.Context, orderID uuid.UUID) ([]ListOrderDishLinesRow, error) {
	rows, err := q.db.Query(ctx, listOrderDishLines, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListOrderDishLinesRow
	for rows.Next() {
		var i ListOrderDishLinesRow
		if err := rows.Scan(
			&i.DishID,
			&i.ItemName,
			&i.Quantity,
			&i.UnitPrice,
			&i.Total,
			&i.Status,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
