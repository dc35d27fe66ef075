package staff

import (
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/comanda/internal/apperr"
)

// Role is an opaque permission tag. It is interpreted by the policy package,
// never by the domain services.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleWaiter  Role = "waiter"
	RoleCook    Role = "cook"
	RoleCashier Role = "cashier"
)

var (
	ErrNotFound = apperr.New(apperr.NotFound, "staff member not found")
	ErrInactive = apperr.New(apperr.Invalid, "staff member is inactive")
)

// Staff is a member of the restaurant team as resolved from the identity store.
type Staff struct {
	ID     uuid.UUID
	Name   string
	Role   Role
	Active bool
}
