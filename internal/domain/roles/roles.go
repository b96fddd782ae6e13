// Package roles maps profile roles to their permission sets.
// This is a static lookup table; there is no state here.
package roles

import "hydrosnap-client/internal/domain/profile"

// Permission names an action a role may perform in the app.
type Permission string

const (
	PermissionSubmitReading    Permission = "submit_reading"
	PermissionValidateReadings Permission = "validate_readings"
	PermissionViewAllStations  Permission = "view_all_stations"
	PermissionViewOwnStation   Permission = "view_own_station"
	PermissionViewPublicData   Permission = "view_public_data"
	PermissionManageUsers      Permission = "manage_users"
	PermissionExportData       Permission = "export_data"
)

var rolePermissions = map[profile.Role][]Permission{
	profile.RoleCentralAnalyst: {
		PermissionValidateReadings,
		PermissionViewAllStations,
		PermissionViewPublicData,
		PermissionManageUsers,
		PermissionExportData,
	},
	profile.RoleSupervisor: {
		PermissionSubmitReading,
		PermissionValidateReadings,
		PermissionViewAllStations,
		PermissionViewPublicData,
		PermissionExportData,
	},
	profile.RoleFieldPersonnel: {
		PermissionSubmitReading,
		PermissionViewOwnStation,
		PermissionViewPublicData,
	},
	profile.RolePublic: {
		PermissionViewPublicData,
	},
}

// Can reports whether the role holds the given permission.
// Unknown roles hold no permissions.
func Can(role profile.Role, permission Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// PermissionsFor returns a copy of the role's permission set.
func PermissionsFor(role profile.Role) []Permission {
	perms := rolePermissions[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}
