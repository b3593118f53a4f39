package schema

// AccessUserRoleTable represents the 'access.user_role' join table
type AccessUserRoleTable struct {
	Table    string
	UserUUID string
	RoleUUID string
}

// AccessUserRole is the schema definition for access.user_role
var AccessUserRole = AccessUserRoleTable{
	Table:    "access.user_role",
	UserUUID: "user_uuid",
	RoleUUID: "role_uuid",
}

// Columns returns all standard column names
func (t AccessUserRoleTable) Columns() []string {
	return []string{t.UserUUID, t.RoleUUID}
}
