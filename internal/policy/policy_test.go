package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/comanda/internal/policy"
	"github.com/MrJamesThe3rd/comanda/internal/staff"
)

func TestDefault_Allowed(t *testing.T) {
	p := policy.Default()

	tests := []struct {
		name     string
		role     staff.Role
		resource policy.Resource
		action   policy.Action
		want     bool
	}{
		{name: "AdminDeletesTable", role: staff.RoleAdmin, resource: policy.ResourceTables, action: policy.ActionDelete, want: true},
		{name: "ManagerCannotDeleteTable", role: staff.RoleManager, resource: policy.ResourceTables, action: policy.ActionDelete, want: false},
		{name: "WaiterChangesTableStatus", role: staff.RoleWaiter, resource: policy.ResourceTables, action: policy.ActionUpdate, want: true},
		{name: "CookCannotChangeTableStatus", role: staff.RoleCook, resource: policy.ResourceTables, action: policy.ActionUpdate, want: false},
		{name: "CookAdvancesOrder", role: staff.RoleCook, resource: policy.ResourceOrders, action: policy.ActionUpdate, want: true},
		{name: "CookCannotCreateOrder", role: staff.RoleCook, resource: policy.ResourceOrders, action: policy.ActionCreate, want: false},
		{name: "WaiterClosesBill", role: staff.RoleWaiter, resource: policy.ResourceCheckout, action: policy.ActionCreate, want: true},
		{name: "CashierOpensSession", role: staff.RoleCashier, resource: policy.ResourceCash, action: policy.ActionCreate, want: true},
		{name: "WaiterCannotReadLedger", role: staff.RoleWaiter, resource: policy.ResourceLedger, action: policy.ActionRead, want: false},
		{name: "ManagerSettlesLedger", role: staff.RoleManager, resource: policy.ResourceLedger, action: policy.ActionUpdate, want: true},
		{name: "UnknownRole", role: staff.Role("intern"), resource: policy.ResourceOrders, action: policy.ActionRead, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Allowed(tt.role, tt.resource, tt.action))
		})
	}
}
