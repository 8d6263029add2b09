package database

import (
	"context"
)

const listTables = `SELECT id, capacity, status FROM tables ORDER BY id`

func (q *Queries) ListTables(ctx context.Context) ([]Table, error) {
	rows, err := q.db.Query(ctx, listTables)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Table
	for rows.Next() {
		var i Table
		if err := rows.Scan(&i.ID, &i.Capacity, &i.Status); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getTable = `SELECT id, capacity, status FROM tables WHERE id = $1`

func (q *Queries) GetTable(ctx context.Context, id int32) (Table, error) {
	row := q.db.QueryRow(ctx, getTable, id)
	var i Table
	err := row.Scan(&i.ID, &i.Capacity, &i.Status)
	return i, err
}

const lockTable = `SELECT id, capacity, status FROM tables WHERE id = $1 FOR UPDATE`

// LockTable reads a table and holds its row lock until the transaction ends.
func (q *Queries) LockTable(ctx context.Context, id int32) (Table, error) {
	row := q.db.QueryRow(ctx, lockTable, id)
	var i Table
	err := row.Scan(&i.ID, &i.Capacity, &i.Status)
	return i, err
}

const transitionTableStatus = `
UPDATE tables
SET status = $2
WHERE id = $1 AND status = ANY($3::text[])
RETURNING id, capacity, status`

type TransitionTableStatusParams struct {
	ID   int32    `json:"id"`
	To   string   `json:"to"`
	From []string `json:"from"`
}

// TransitionTableStatus only updates when the current status is one of From.
// Returns pgx.ErrNoRows when the table is missing or in another status.
func (q *Queries) TransitionTableStatus(ctx context.Context, arg TransitionTableStatusParams) (Table, error) {
	row := q.db.QueryRow(ctx, transitionTableStatus, arg.ID, arg.To, arg.From)
	var i Table
	err := row.Scan(&i.ID, &i.Capacity, &i.Status)
	return i, err
}

const createTable = `INSERT INTO tables (capacity) VALUES ($1) RETURNING id, capacity, status`

func (q *Queries) CreateTable(ctx context.Context, capacity int32) (Table, error) {
	row := q.db.QueryRow(ctx, createTable, capacity)
	var i Table
	err := row.Scan(&i.ID, &i.Capacity, &i.Status)
	return i, err
}
