package database

import (
	"context"

	"github.com/google/uuid"
)

const staffColumns = `id, role_id, username, password_hash, full_name, is_active, created_at`

func scanStaffAccount(row interface{ Scan(...any) error }) (StaffAccount, error) {
	var i StaffAccount
	err := row.Scan(
		&i.ID,
		&i.RoleID,
		&i.Username,
		&i.PasswordHash,
		&i.FullName,
		&i.IsActive,
		&i.CreatedAt,
	)
	return i, err
}

const getStaffAccountByID = `SELECT ` + staffColumns + ` FROM staff_accounts WHERE id = $1`

func (q *Queries) GetStaffAccountByID(ctx context.Context, id uuid.UUID) (StaffAccount, error) {
	return scanStaffAccount(q.db.QueryRow(ctx, getStaffAccountByID, id))
}

const getStaffAccountByUsername = `SELECT ` + staffColumns + ` FROM staff_accounts WHERE username = $1`

func (q *Queries) GetStaffAccountByUsername(ctx context.Context, username string) (StaffAccount, error) {
	return scanStaffAccount(q.db.QueryRow(ctx, getStaffAccountByUsername, username))
}

const upsertStaffAccount = `
INSERT INTO staff_accounts (role_id, username, password_hash, full_name)
VALUES ($1, $2, $3, $4)
ON CONFLICT (username) DO UPDATE
    SET password_hash = EXCLUDED.password_hash,
        full_name     = EXCLUDED.full_name
RETURNING ` + staffColumns

type UpsertStaffAccountParams struct {
	RoleID       int16  `json:"role_id"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	FullName     string `json:"full_name"`
}

// UpsertStaffAccount never changes the role of an existing account.
func (q *Queries) UpsertStaffAccount(ctx context.Context, arg UpsertStaffAccountParams) (StaffAccount, error) {
	return scanStaffAccount(q.db.QueryRow(ctx, upsertStaffAccount,
		arg.RoleID,
		arg.Username,
		arg.PasswordHash,
		arg.FullName,
	))
}
