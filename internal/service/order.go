package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hiimjupter/ris-api/internal/access"
	"github.com/hiimjupter/ris-api/internal/database"
	"github.com/hiimjupter/ris-api/internal/enum"
	"github.com/hiimjupter/ris-api/internal/events"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// OrderStore defines the database methods needed by OrderService.
type OrderStore interface {
	LockTable(ctx context.Context, id int32) (database.Table, error)
	GetTable(ctx context.Context, id int32) (database.Table, error)
	TransitionTableStatus(ctx context.Context, arg database.TransitionTableStatusParams) (database.Table, error)

	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)

	HasUnservedOrder(ctx context.Context, tableID int32) (bool, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetLatestOrderByTable(ctx context.Context, tableID int32) (database.Order, error)
	LockUnservedOrdersByTable(ctx context.Context, tableID int32) ([]database.Order, error)
	MarkOrderServed(ctx context.Context, id uuid.UUID) (database.Order, error)

	CreateDish(ctx context.Context, arg database.CreateDishParams) (database.Dish, error)
	SetOrderDishesStatus(ctx context.Context, arg database.SetOrderDishesStatusParams) (int64, error)
	ListOrderDishLines(ctx context.Context, orderID uuid.UUID) ([]database.ListOrderDishLinesRow, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or transaction).
type NewOrderStore func(db database.DBTX) OrderStore

// OrderService handles taking and serving orders.
type OrderService struct {
	pool     Pool
	newStore NewOrderStore
	opts     Options
}

func NewOrderService(pool Pool, newStore NewOrderStore, opts Options) *OrderService {
	return &OrderService{pool: pool, newStore: newStore, opts: opts}
}

// --- Request / Result types ---

type DishRequest struct {
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Quantity   int32     `json:"quantity"`
}

type CreateOrderRequest struct {
	TableID int32         `json:"table_id"`
	Dishes  []DishRequest `json:"dishes"`
}

type CreateOrderResult struct {
	Order  database.Order  `json:"order"`
	Dishes []database.Dish `json:"dishes"`
	Table  database.Table  `json:"table"`
}

type ServeResult struct {
	Orders []database.Order `json:"orders"`
	Table  database.Table   `json:"table"`
}

// CreateOrder records a new order with its dishes and seats the table, all in
// one transaction. A table may hold at most one unserved order.
func (s *OrderService) CreateOrder(ctx context.Context, p access.Principal, req CreateOrderRequest) (*CreateOrderResult, error) {
	if _, err := access.Authorize(p, access.OpCreateOrder); err != nil {
		return nil, err
	}
	if req.TableID < 0 {
		return nil, invalidInput("table id must not be negative")
	}
	if len(req.Dishes) == 0 {
		return nil, invalidInput("at least one dish is required")
	}
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	result, prevStatus, err := s.createOrderTx(ctx, p.AccountID, req)
	if err != nil {
		// Lost the race on the partial unique index.
		if isUniqueViolation(err, constraintOneUnservedOrder) {
			return nil, ErrActiveOrderExists
		}
		return nil, err
	}

	created := events.OrderCreated{
		OrderID: result.Order.ID,
		TableID: result.Order.TableID,
		StaffID: result.Order.StaffID,
		Dishes:  make([]events.DishCreated, len(result.Dishes)),
	}
	for i, d := range result.Dishes {
		created.Dishes[i] = events.DishCreated{DishID: d.ID, ItemName: d.ItemName, Quantity: d.Quantity}
	}
	s.opts.publish(ctx, events.TypeOrderCreated, created)
	if prevStatus != result.Table.Status {
		s.opts.publish(ctx, events.TypeTableStatusChanged, events.TableStatusChanged{
			TableID: result.Table.ID,
			From:    prevStatus,
			To:      result.Table.Status,
		})
	}
	return result, nil
}

func (s *OrderService) createOrderTx(ctx context.Context, staffID uuid.UUID, req CreateOrderRequest) (*CreateOrderResult, string, error) {
	// --- Begin transaction ---
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, "", storageError("begin tx", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// --- Lock the table ---
	table, err := store.LockTable(ctx, req.TableID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrTableNotFound
		}
		return nil, "", storageError("lock table", err)
	}

	active, err := store.HasUnservedOrder(ctx, req.TableID)
	if err != nil {
		return nil, "", storageError("check unserved orders", err)
	}
	if active {
		return nil, "", ErrActiveOrderExists
	}

	// --- Insert order ---
	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		TableID: req.TableID,
		StaffID: staffID,
	})
	if err != nil {
		return nil, "", storageError("create order", err)
	}

	// --- Insert dishes ---
	dishes := make([]database.Dish, 0, len(req.Dishes))
	for i, d := range req.Dishes {
		item, err := store.GetMenuItem(ctx, d.MenuItemID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, "", fmt.Errorf("dishes[%d]: %w", i, ErrMenuItemNotFound)
			}
			return nil, "", storageError(fmt.Sprintf("dishes[%d]: get menu item", i), err)
		}
		if d.Quantity <= 0 {
			return nil, "", fmt.Errorf("dishes[%d]: %w", i, invalidInput("quantity must be greater than zero"))
		}

		unitPrice := numericToDecimal(item.Price)
		total := unitPrice.Mul(decimal.NewFromInt32(d.Quantity))
		if total.GreaterThan(maxTotal) {
			return nil, "", fmt.Errorf("dishes[%d]: %w", i, invalidInput("total must not exceed "+maxTotal.StringFixed(2)))
		}

		dish, err := store.CreateDish(ctx, database.CreateDishParams{
			OrderID:    order.ID,
			StaffID:    staffID,
			MenuItemID: pgtype.UUID{Bytes: item.ID, Valid: true},
			ItemName:   item.Name,
			UnitPrice:  decimalToNumeric(unitPrice),
			Quantity:   d.Quantity,
			Total:      decimalToNumeric(total),
		})
		if err != nil {
			return nil, "", storageError(fmt.Sprintf("dishes[%d]: create dish", i), err)
		}
		dishes = append(dishes, dish)
	}

	// --- Seat the table ---
	from := []string{enum.TableStatusReserved}
	if s.opts.WalkInSeating {
		from = append(from, enum.TableStatusVacant)
	}
	seated, err := transitionTable(ctx, store, req.TableID, enum.TableStatusEating, from...)
	if err != nil {
		return nil, "", err
	}

	// --- Commit ---
	if err := tx.Commit(ctx); err != nil {
		return nil, "", storageError("commit tx", err)
	}

	return &CreateOrderResult{Order: order, Dishes: dishes, Table: seated}, table.Status, nil
}

// GetLatestOrder returns the table's most recent order, which must still be unserved.
func (s *OrderService) GetLatestOrder(ctx context.Context, p access.Principal, tableID int32) (database.Order, error) {
	if _, err := access.Authorize(p, access.OpGetLatestOrder); err != nil {
		return database.Order{}, err
	}
	if tableID < 0 {
		return database.Order{}, invalidInput("table id must not be negative")
	}
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	order, err := s.newStore(s.pool).GetLatestOrderByTable(ctx, tableID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, fmt.Errorf("table %d: %w", tableID, ErrOrderNotFound)
		}
		return database.Order{}, storageError("get latest order", err)
	}
	if order.IsServed {
		return database.Order{}, fmt.Errorf("table %d: %w", tableID, ErrNoActiveOrder)
	}
	return order, nil
}

// GetOrderDetail returns an order with its dish lines.
func (s *OrderService) GetOrderDetail(ctx context.Context, p access.Principal, orderID uuid.UUID) (*OrderDetail, error) {
	if _, err := access.Authorize(p, access.OpGetOrderDetail); err != nil {
		return nil, err
	}
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	store := s.newStore(s.pool)
	order, err := store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, storageError("get order", err)
	}
	rows, err := store.ListOrderDishLines(ctx, orderID)
	if err != nil {
		return nil, storageError("list order dishes", err)
	}
	return orderDetail(order, rows), nil
}

// ServeOrders marks every unserved order of the table as served and frees the
// table. With ServeForceReady set, their dishes are moved to ready as well.
func (s *OrderService) ServeOrders(ctx context.Context, p access.Principal, tableID int32) (*ServeResult, error) {
	if _, err := access.Authorize(p, access.OpServeOrders); err != nil {
		return nil, err
	}
	if tableID < 0 {
		return nil, invalidInput("table id must not be negative")
	}
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	result, err := s.serveOrdersTx(ctx, tableID)
	if err != nil {
		return nil, err
	}

	for _, o := range result.Orders {
		s.opts.publish(ctx, events.TypeOrderServed, events.OrderServed{OrderID: o.ID, TableID: o.TableID})
	}
	s.opts.publish(ctx, events.TypeTableStatusChanged, events.TableStatusChanged{
		TableID: result.Table.ID,
		From:    enum.TableStatusEating,
		To:      result.Table.Status,
	})
	return result, nil
}

func (s *OrderService) serveOrdersTx(ctx context.Context, tableID int32) (*ServeResult, error) {
	// --- Begin transaction ---
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, storageError("begin tx", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := store.LockTable(ctx, tableID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, storageError("lock table", err)
	}

	pending, err := store.LockUnservedOrdersByTable(ctx, tableID)
	if err != nil {
		return nil, storageError("lock unserved orders", err)
	}
	if len(pending) == 0 {
		return nil, fmt.Errorf("table %d has no unserved orders: %w", tableID, ErrOrderNotFound)
	}

	served := make([]database.Order, 0, len(pending))
	for _, o := range pending {
		order, err := store.MarkOrderServed(ctx, o.ID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("%w: order %s already served", ErrInvalidTransition, o.ID)
			}
			return nil, storageError("mark order served", err)
		}
		if s.opts.ServeForceReady {
			if _, err := store.SetOrderDishesStatus(ctx, database.SetOrderDishesStatusParams{
				OrderID: o.ID,
				Status:  enum.DishStatusReady,
			}); err != nil {
				return nil, storageError("set dishes ready", err)
			}
		}
		served = append(served, order)
	}

	table, err := transitionTable(ctx, store, tableID, enum.TableStatusVacant, enum.TableStatusEating)
	if err != nil {
		return nil, err
	}

	// --- Commit ---
	if err := tx.Commit(ctx); err != nil {
		return nil, storageError("commit tx", err)
	}
	return &ServeResult{Orders: served, Table: table}, nil
}
