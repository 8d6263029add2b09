package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/hiimjupter/ris-api/internal/access"
	"github.com/hiimjupter/ris-api/internal/enum"
	"github.com/hiimjupter/ris-api/internal/events"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

func numeric(s string) pgtype.Numeric {
	return decimalToNumeric(decimal.RequireFromString(s))
}

func decimalFromInt(n int32) decimal.Decimal {
	return decimal.NewFromInt32(n)
}

func staff(role enum.Role) access.Principal {
	return access.Principal{AccountID: uuid.New(), Role: role, Active: true}
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	db     *memDB
	pub    *recordingPublisher
	tables *TableService
	menu   *MenuService
	orders *OrderService
	dishes *DishService

	waiter  access.Principal
	chef    access.Principal
	manager access.Principal
}

func newFixture(t *testing.T, configure ...func(*Options)) *fixture {
	t.Helper()
	db := newMemDB()
	pub := &recordingPublisher{}
	opts := Options{Events: pub, ServeForceReady: true, WalkInSeating: true}
	for _, fn := range configure {
		fn(&opts)
	}
	return &fixture{
		db:      db,
		pub:     pub,
		tables:  NewTableService(db, db.tableStore, opts),
		menu:    NewMenuService(db, db.menuStore, opts),
		orders:  NewOrderService(db, db.orderStore, opts),
		dishes:  NewDishService(db, db.dishStore, opts),
		waiter:  staff(enum.RoleWaiter),
		chef:    staff(enum.RoleChef),
		manager: staff(enum.RoleManager),
	}
}
