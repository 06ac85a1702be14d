package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowed(t *testing.T) {
	assert.True(t, Allowed(OpListAllOrders, RoleAdmin))
	assert.True(t, Allowed(OpListAllOrders, RoleManager))
	assert.False(t, Allowed(OpListAllOrders, RoleCashier))
	assert.False(t, Allowed(OpListAllOrders, RoleStaff))

	assert.True(t, Allowed(OpCreateOnlineOrder, RoleStaff))
	assert.False(t, Allowed(OpCreateOnlineOrder, RoleManager))

	assert.True(t, Allowed(OpUpdateOrderStatus, RoleStaff))
	assert.False(t, Allowed(OpSessionClose, RoleStaff))

	assert.False(t, Allowed(OpSalesMetrics, ""))
	assert.False(t, Allowed("nope", RoleAdmin))
}

func TestEveryOperationHasRoles(t *testing.T) {
	for op, roles := range policy {
		assert.NotEmpty(t, roles, op)
	}
}

func TestSupervises(t *testing.T) {
	assert.True(t, RoleAdmin.Supervises())
	assert.True(t, RoleManager.Supervises())
	assert.False(t, RoleStaff.Supervises())
	assert.False(t, RoleCashier.Supervises())
}
