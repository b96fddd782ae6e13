package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hydrosnap-client/internal/domain/profile"
)

func TestCan(t *testing.T) {
	assert.True(t, Can(profile.RoleCentralAnalyst, PermissionManageUsers))
	assert.True(t, Can(profile.RoleFieldPersonnel, PermissionSubmitReading))
	assert.False(t, Can(profile.RoleFieldPersonnel, PermissionManageUsers))
	assert.False(t, Can(profile.RolePublic, PermissionSubmitReading))
	assert.True(t, Can(profile.RolePublic, PermissionViewPublicData))
}

func TestCan_UnknownRole(t *testing.T) {
	assert.False(t, Can(profile.Role("intruder"), PermissionViewPublicData))
}

func TestPermissionsFor_ReturnsCopy(t *testing.T) {
	perms := PermissionsFor(profile.RolePublic)
	assert.Equal(t, []Permission{PermissionViewPublicData}, perms)

	perms[0] = Permission("mutated")
	assert.Equal(t, []Permission{PermissionViewPublicData}, PermissionsFor(profile.RolePublic))
}
