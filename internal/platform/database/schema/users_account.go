package schema

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table     string
	UUID      string
	Email     string
	Name      string
	Password  string
	IsActive  string
	CreatedAt string
	UpdatedAt string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:     "users.account",
	UUID:      "uuid",
	Email:     "email",
	Name:      "name",
	Password:  "password",
	IsActive:  "is_active",
	CreatedAt: "created_at",
	UpdatedAt: "updated_at",
}

// Columns returns all standard column names
func (t UserAccountTable) Columns() []string {
	return []string{
		t.UUID, t.Email, t.Name, t.Password, t.IsActive,
		t.CreatedAt, t.UpdatedAt,
	}
}
