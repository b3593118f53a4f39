package schema

// UserSessionTable represents the 'users.session' table
type UserSessionTable struct {
	Table     string
	UUID      string
	UserUUID  string
	UserAgent string
	IP        string
	IsActive  string
	CreatedAt string
	UpdatedAt string
}

// UserSession is the schema definition for users.session
var UserSession = UserSessionTable{
	Table:     "users.session",
	UUID:      "uuid",
	UserUUID:  "user_uuid",
	UserAgent: "useragent",
	IP:        "ip",
	IsActive:  "is_active",
	CreatedAt: "created_at",
	UpdatedAt: "updated_at",
}

// Columns returns all standard column names
func (t UserSessionTable) Columns() []string {
	return []string{
		t.UUID, t.UserUUID, t.UserAgent, t.IP, t.IsActive,
		t.CreatedAt, t.UpdatedAt,
	}
}
