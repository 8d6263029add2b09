package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/hiimjupter/ris-api/internal/access"
	"github.com/hiimjupter/ris-api/internal/database"
	"github.com/hiimjupter/ris-api/internal/enum"
	"github.com/hiimjupter/ris-api/internal/events"
	"github.com/jackc/pgx/v5"
)

// TableStore defines the database methods needed by TableService.
type TableStore interface {
	ListTables(ctx context.Context) ([]database.Table, error)
	GetTable(ctx context.Context, id int32) (database.Table, error)
	TransitionTableStatus(ctx context.Context, arg database.TransitionTableStatusParams) (database.Table, error)
}

// NewTableStore creates a TableStore from a DBTX.
type NewTableStore func(db database.DBTX) TableStore

// TableService handles floor operations on dining tables.
type TableService struct {
	db       database.DBTX
	newStore NewTableStore
	opts     Options
}

func NewTableService(db database.DBTX, newStore NewTableStore, opts Options) *TableService {
	return &TableService{db: db, newStore: newStore, opts: opts}
}

// ListTables returns every table ordered by id.
func (s *TableService) ListTables(ctx context.Context, p access.Principal) ([]database.Table, error) {
	if _, err := access.Authorize(p, access.OpListTables); err != nil {
		return nil, err
	}
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	tables, err := s.newStore(s.db).ListTables(ctx)
	if err != nil {
		return nil, storageError("list tables", err)
	}
	return tables, nil
}

// Reserve moves a vacant table to reserved.
func (s *TableService) Reserve(ctx context.Context, p access.Principal, tableID int32) (database.Table, error) {
	if _, err := access.Authorize(p, access.OpReserveTable); err != nil {
		return database.Table{}, err
	}
	if tableID < 0 {
		return database.Table{}, invalidInput("table id must not be negative")
	}
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()

	table, err := transitionTable(ctx, s.newStore(s.db), tableID, enum.TableStatusReserved, enum.TableStatusVacant)
	if err != nil {
		return database.Table{}, err
	}
	s.opts.publish(ctx, events.TypeTableStatusChanged, events.TableStatusChanged{
		TableID: table.ID,
		From:    enum.TableStatusVacant,
		To:      table.Status,
	})
	return table, nil
}

type tableTransitioner interface {
	GetTable(ctx context.Context, id int32) (database.Table, error)
	TransitionTableStatus(ctx context.Context, arg database.TransitionTableStatusParams) (database.Table, error)
}

// transitionTable moves a table to status `to` when its current status is one
// of `from`. A missed update is re-read to tell a missing table apart from one
// in the wrong status.
func transitionTable(ctx context.Context, store tableTransitioner, id int32, to string, from ...string) (database.Table, error) {
	table, err := store.TransitionTableStatus(ctx, database.TransitionTableStatusParams{
		ID:   id,
		To:   to,
		From: from,
	})
	if err == nil {
		return table, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return database.Table{}, storageError("update table status", err)
	}

	current, err := store.GetTable(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Table{}, ErrTableNotFound
		}
		return database.Table{}, storageError("get table", err)
	}
	if slices.Contains(from, current.Status) {
		// Raced with another writer between the two statements.
		return database.Table{}, fmt.Errorf("%w: table %d changed concurrently", ErrInvalidTransition, id)
	}
	return database.Table{}, fmt.Errorf("%w: table %d is %s, cannot become %s", ErrInvalidTransition, id, current.Status, to)
}
