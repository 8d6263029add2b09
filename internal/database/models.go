package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type StaffAccount struct {
	ID           uuid.UUID `json:"id"`
	RoleID       int16     `json:"role_id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	FullName     string    `json:"full_name"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

type Table struct {
	ID       int32  `json:"id"`
	Capacity int32  `json:"capacity"`
	Status   string `json:"status"`
}

type MenuSection struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
}

type MenuItem struct {
	ID        uuid.UUID      `json:"id"`
	SectionID int32          `json:"section_id"`
	Name      string         `json:"name"`
	Note      pgtype.Text    `json:"note"`
	Price     pgtype.Numeric `json:"price"`
}

type Order struct {
	ID        uuid.UUID `json:"id"`
	TableID   int32     `json:"table_id"`
	StaffID   uuid.UUID `json:"staff_id"`
	IsServed  bool      `json:"is_served"`
	CreatedAt time.Time `json:"created_at"`
}

// Dish snapshots the item name and unit price at creation; MenuItemID becomes
// NULL if the menu item is later deleted.
type Dish struct {
	ID         uuid.UUID      `json:"id"`
	OrderID    uuid.UUID      `json:"order_id"`
	StaffID    uuid.UUID      `json:"staff_id"`
	MenuItemID pgtype.UUID    `json:"menu_item_id"`
	ItemName   string         `json:"item_name"`
	UnitPrice  pgtype.Numeric `json:"unit_price"`
	Quantity   int32          `json:"quantity"`
	Total      pgtype.Numeric `json:"total"`
	Status     string         `json:"status"`
}
