package schema

// AccessPermissionTable represents the 'access.permission' table
type AccessPermissionTable struct {
	Table     string
	UUID      string
	Name      string
	CreatedAt string
}

// AccessPermission is the schema definition for access.permission
var AccessPermission = AccessPermissionTable{
	Table:     "access.permission",
	UUID:      "uuid",
	Name:      "name",
	CreatedAt: "created_at",
}

// Columns returns all standard column names
func (t AccessPermissionTable) Columns() []string {
	return []string{t.UUID, t.Name, t.CreatedAt}
}
