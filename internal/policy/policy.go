package policy

import (
	"github.com/MrJamesThe3rd/comanda/internal/staff"
)

type Resource string

const (
	ResourceTables   Resource = "tables"
	ResourceOrders   Resource = "orders"
	ResourceCheckout Resource = "checkout"
	ResourceCash     Resource = "cash"
	ResourceLedger   Resource = "ledger"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Policy decides whether a role may perform an action on a resource.
type Policy interface {
	Allowed(role staff.Role, resource Resource, action Action) bool
}

type rule struct {
	resource Resource
	action   Action
}

// Static is a Policy backed by a fixed rule table. Admins are always allowed.
type Static struct {
	rules map[rule]map[staff.Role]bool
}

func (p *Static) Allowed(role staff.Role, resource Resource, action Action) bool {
	if role == staff.RoleAdmin {
		return true
	}

	return p.rules[rule{resource, action}][role]
}

func roles(rs ...staff.Role) map[staff.Role]bool {
	m := make(map[staff.Role]bool, len(rs))
	for _, r := range rs {
		m[r] = true
	}

	return m
}

// Default returns the restaurant's standing permission table.
func Default() *Static {
	var (
		everyone = roles(staff.RoleManager, staff.RoleWaiter, staff.RoleCook, staff.RoleCashier)
		floor    = roles(staff.RoleManager, staff.RoleWaiter, staff.RoleCashier)
		managers = roles(staff.RoleManager)
	)

	return &Static{rules: map[rule]map[staff.Role]bool{
		{ResourceTables, ActionRead}:   everyone,
		{ResourceTables, ActionCreate}: managers,
		{ResourceTables, ActionUpdate}: floor,
		{ResourceTables, ActionDelete}: roles(),

		{ResourceOrders, ActionRead}:   everyone,
		{ResourceOrders, ActionCreate}: floor,
		{ResourceOrders, ActionUpdate}: everyone,

		{ResourceCheckout, ActionRead}:   floor,
		{ResourceCheckout, ActionCreate}: floor,

		{ResourceCash, ActionRead}:   floor,
		{ResourceCash, ActionCreate}: floor,

		{ResourceLedger, ActionRead}:   managers,
		{ResourceLedger, ActionCreate}: managers,
		{ResourceLedger, ActionUpdate}: managers,
		{ResourceLedger, ActionDelete}: managers,
	}}
}
