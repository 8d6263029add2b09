package enum

// ── State machines (CHECK constrained in DB) ──

const (
	TableStatusVacant   = "vacant"
	TableStatusReserved = "reserved"
	TableStatusEating   = "eating"
)

const (
	DishStatusReceived = "received"
	DishStatusPrepared = "prepared"
	DishStatusReady    = "ready"
)

// NextDishStatus returns the status a dish advances to from current.
// ok is false for ready (terminal) and unknown statuses.
func NextDishStatus(current string) (next string, ok bool) {
	switch current {
	case DishStatusReceived:
		return DishStatusPrepared, true
	case DishStatusPrepared:
		return DishStatusReady, true
	}
	return "", false
}

// ── Staff roles (numeric, carried in tokens) ──

// Role identifies what a staff account may do. Values match staff_accounts.role_id.
type Role int16

const (
	RoleWaiter  Role = 1
	RoleChef    Role = 2
	RoleManager Role = 3
)

func (r Role) String() string {
	switch r {
	case RoleWaiter:
		return "WAITER"
	case RoleChef:
		return "CHEF"
	case RoleManager:
		return "MANAGER"
	}
	return "UNKNOWN"
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleWaiter || r == RoleChef || r == RoleManager
}
