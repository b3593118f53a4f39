package schema

// AccessRolePermissionTable represents the 'access.role_permission' join table
type AccessRolePermissionTable struct {
	Table          string
	RoleUUID       string
	PermissionUUID string
}

// AccessRolePermission is the schema definition for access.role_permission
var AccessRolePermission = AccessRolePermissionTable{
	Table:          "access.role_permission",
	RoleUUID:       "role_uuid",
	PermissionUUID: "permission_uuid",
}

// Columns returns all standard column names
func (t AccessRolePermissionTable) Columns() []string {
	return []string{t.RoleUUID, t.PermissionUUID}
}
