package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Error kinds returned by the services. Specific errors below wrap a kind, so
// callers can match either with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrActiveOrderExists  = errors.New("table already has an unserved order, please finish it first")
	ErrNoActiveOrder      = errors.New("no active order for this table")
	ErrDuplicateName      = errors.New("name must be unique")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNoDishes           = errors.New("no dishes found")
	ErrStorageUnavailable = errors.New("storage unavailable, please retry")
)

var (
	ErrTableNotFound       = fmt.Errorf("table %w", ErrNotFound)
	ErrMenuSectionNotFound = fmt.Errorf("menu section %w", ErrNotFound)
	ErrMenuItemNotFound    = fmt.Errorf("menu item %w", ErrNotFound)
	ErrOrderNotFound       = fmt.Errorf("order %w", ErrNotFound)
	ErrDishNotFound        = fmt.Errorf("dish %w", ErrNotFound)
)

// Unique constraints the services translate into domain errors.
const (
	constraintOneUnservedOrder = "orders_one_unserved_per_table"
	constraintSectionName      = "menu_sections_name_key"
	constraintItemName         = "menu_items_name_key"
)

func invalidInput(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

// storageError wraps a persistence failure with the step that failed. Timeouts,
// lost connections and serialization failures additionally wrap
// ErrStorageUnavailable, the only error a caller may retry.
// A numeric overflow (22003) means the input was too large and wraps
// ErrInvalidInput instead.
func storageError(step string, err error) error {
	if isNumericOverflow(err) {
		return fmt.Errorf("%s: %w: value out of range", step, ErrInvalidInput)
	}
	if isTransient(err) {
		return fmt.Errorf("%s: %w: %w", step, ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%s: %w", step, err)
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", // serialization_failure
			"40P01", // deadlock_detected
			"53300", // too_many_connections
			"57P01", // admin_shutdown
			"57P03": // cannot_connect_now
			return true
		}
		// Class 08: connection exceptions.
		return strings.HasPrefix(pgErr.Code, "08")
	}
	return false
}

// isUniqueViolation checks for a unique constraint violation (pgconn error
// code 23505) on the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == constraint
	}
	return false
}

// isForeignKeyViolation checks for pgconn error code 23503.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func isNumericOverflow(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22003"
}
