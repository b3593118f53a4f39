package schema

// UserSocialAccountTable represents the 'users.social_account' table
type UserSocialAccountTable struct {
	Table      string
	UUID       string
	UserUUID   string
	SocialName string
	SocialUUID string
	CreatedAt  string
}

// UserSocialAccount is the schema definition for users.social_account
var UserSocialAccount = UserSocialAccountTable{
	Table:      "users.social_account",
	UUID:       "uuid",
	UserUUID:   "user_uuid",
	SocialName: "social_name",
	SocialUUID: "social_uuid",
	CreatedAt:  "created_at",
}

// Columns returns all standard column names
func (t UserSocialAccountTable) Columns() []string {
	return []string{
		t.UUID, t.UserUUID, t.SocialName, t.SocialUUID, t.CreatedAt,
	}
}
