// Package access decides which staff roles may invoke which operations.
//
// All role knowledge lives in one static table; services call Authorize before
// reading or writing any state.
package access

import (
	"errors"
	"slices"

	"github.com/google/uuid"
	"github.com/hiimjupter/ris-api/internal/enum"
)

var (
	ErrUnauthorized    = errors.New("you don't have permission for this operation")
	ErrInactiveAccount = errors.New("account is inactive")
)

// Principal is the authenticated caller as reported by the identity provider.
type Principal struct {
	AccountID uuid.UUID
	Role      enum.Role
	Active    bool
}

type Operation string

const (
	OpViewProfile Operation = "profile.view"

	OpListTables   Operation = "tables.list"
	OpReserveTable Operation = "tables.reserve"

	OpCreateOrder    Operation = "orders.create"
	OpGetLatestOrder Operation = "orders.latest"
	OpGetOrderDetail Operation = "orders.detail"
	OpServeOrders    Operation = "orders.serve"

	OpListKitchenDishes Operation = "dishes.kitchen_list"
	OpAdvanceDishStatus Operation = "dishes.advance"

	OpListMenu          Operation = "menu.list"
	OpCreateMenuSection Operation = "menu.section_create"
	OpUpdateMenuSection Operation = "menu.section_update"
	OpDeleteMenuSection Operation = "menu.section_delete"
	OpCreateMenuItem    Operation = "menu.item_create"
	OpUpdateMenuItem    Operation = "menu.item_update"
	OpDeleteMenuItem    Operation = "menu.item_delete"
)

var (
	allStaff    = []enum.Role{enum.RoleWaiter, enum.RoleChef, enum.RoleManager}
	waiterOnly  = []enum.Role{enum.RoleWaiter}
	chefOnly    = []enum.Role{enum.RoleChef}
	managerOnly = []enum.Role{enum.RoleManager}
)

var permissions = map[Operation][]enum.Role{
	OpViewProfile: allStaff,

	OpListTables:   waiterOnly,
	OpReserveTable: waiterOnly,

	OpCreateOrder:    waiterOnly,
	OpGetLatestOrder: waiterOnly,
	OpGetOrderDetail: waiterOnly,
	OpServeOrders:    waiterOnly,

	OpListKitchenDishes: chefOnly,
	OpAdvanceDishStatus: chefOnly,

	OpListMenu:          allStaff,
	OpCreateMenuSection: managerOnly,
	OpUpdateMenuSection: managerOnly,
	OpDeleteMenuSection: managerOnly,
	OpCreateMenuItem:    managerOnly,
	OpUpdateMenuItem:    managerOnly,
	OpDeleteMenuItem:    managerOnly,
}

// Authorize returns p unchanged when it may invoke op. Inactive accounts are
// rejected regardless of role; unknown operations are rejected for everyone.
func Authorize(p Principal, op Operation) (Principal, error) {
	if !p.Active {
		return Principal{}, ErrInactiveAccount
	}
	roles, ok := permissions[op]
	if !ok || !slices.Contains(roles, p.Role) {
		return Principal{}, ErrUnauthorized
	}
	return p, nil
}

// RolesFor returns a copy of the roles permitted to invoke op.
func RolesFor(op Operation) []enum.Role {
	return slices.Clone(permissions[op])
}
