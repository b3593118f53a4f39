package schema

// AccessRoleTable represents the 'access.role' table
type AccessRoleTable struct {
	Table     string
	UUID      string
	Name      string
	CreatedAt string
	UpdatedAt string
}

// AccessRole is the schema definition for access.role
var AccessRole = AccessRoleTable{
	Table:     "access.role",
	UUID:      "uuid",
	Name:      "name",
	CreatedAt: "created_at",
	UpdatedAt: "updated_at",
}

// Columns returns all standard column names
func (t AccessRoleTable) Columns() []string {
	return []string{t.UUID, t.Name, t.CreatedAt, t.UpdatedAt}
}
