package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleValid(t *testing.T) {
	for _, r := range Roles {
		assert.True(t, r.Valid(), r)
	}
	assert.False(t, Role("user").Valid())
	assert.False(t, Role("").Valid())
}

func TestRolePermissions(t *testing.T) {
	assert.Equal(t, []string{"*"}, RoleAdmin.Permissions())
	assert.Contains(t, RoleVendor.Permissions(), "verification:write")
	assert.Contains(t, RoleSupplier.Permissions(), "products:write")
	assert.Empty(t, Role("ghost").Permissions())
}

func TestDefaultPreferences(t *testing.T) {
	p := DefaultPreferences()
	assert.Equal(t, "light", p.Theme)
	assert.True(t, p.Notifications)
}

func TestUserActive(t *testing.T) {
	u := &User{Status: StatusActive}
	assert.True(t, u.Active())
	u.Status = StatusSuspended
	assert.False(t, u.Active())
}
