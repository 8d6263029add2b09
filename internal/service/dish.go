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
)

// DishStore defines the database methods needed by DishService.
type DishStore interface {
	ListKitchenDishes(ctx context.Context) ([]database.ListKitchenDishesRow, error)
	GetDish(ctx context.Context, id uuid.UUID) (database.Dish, error)
	TransitionDishStatus(ctx context.Context, arg database.TransitionDishStatusParams) (database.Dish, error)
}

// NewDishStore creates a DishStore from a DBTX.
type NewDishStore func(db database.DBTX) DishStore

// DishService drives the kitchen side: received -> prepared -> ready.
type DishService struct {
	db       database.DBTX
	newStore NewDishStore
	opts     Options
}

func NewDishService(db database.DBTX, newStore NewDishStore, opts Options) *DishService {
	return &DishService{db: db, newStore: newStore, opts: opts}
}

// ListDishesForKitchen returns the dishes of every unserved order.
func (s *DishService) ListDishesForKitchen(ctx context.Context, p access.Principal) ([]DishView, error) {
	if _, err := access.Authorize(p, access.OpListKitchenDishes); err != nil {
		return nil, err
	}
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	rows, err := s.newStore(s.db).ListKitchenDishes(ctx)
	if err != nil {
		return nil, storageError("list kitchen dishes", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoDishes
	}
	return kitchenViews(rows), nil
}

// AdvanceDishStatus moves a dish one step forward. Ready is terminal.
func (s *DishService) AdvanceDishStatus(ctx context.Context, p access.Principal, dishID uuid.UUID) (database.Dish, error) {
	if _, err := access.Authorize(p, access.OpAdvanceDishStatus); err != nil {
		return database.Dish{}, err
	}
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	store := s.newStore(s.db)
	dish, err := store.GetDish(ctx, dishID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Dish{}, ErrDishNotFound
		}
		return database.Dish{}, storageError("get dish", err)
	}

	next, ok := enum.NextDishStatus(dish.Status)
	if !ok {
		return database.Dish{}, fmt.Errorf("%w: dish is already %s", ErrInvalidTransition, dish.Status)
	}

	updated, err := store.TransitionDishStatus(ctx, database.TransitionDishStatusParams{
		ID:   dishID,
		To:   next,
		From: dish.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Another cook advanced it first.
			return database.Dish{}, fmt.Errorf("%w: dish %s changed concurrently, please retry", ErrInvalidTransition, dishID)
		}
		return database.Dish{}, storageError("update dish status", err)
	}

	s.opts.publish(ctx, events.TypeDishStatusChanged, events.DishStatusChanged{
		DishID:  updated.ID,
		OrderID: updated.OrderID,
		From:    dish.Status,
		To:      updated.Status,
	})
	return updated, nil
}
