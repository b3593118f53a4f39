// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # Role Names

// Roles are named groups of permissions. The set below is seeded by migration;
// administrators may create more through the roles API.
const (
	RoleSuperuser  = "superuser"
	RoleStaff      = "staff"
	RoleGuest      = "guest"
	RoleRegistered = "registered"
	RolePremium    = "premium"
)

// # Permission Names

// Permissions follow the {all_of,create,read,update,delete}_<resource> naming
// scheme shared with the sibling content services. PermissionAllOfAll is the
// superuser wildcard: holding it satisfies any permission check.
const (
	PermissionAllOfAll = "all_of_all"

	PermissionAllOfUsers  = "all_of_users"
	PermissionCreateUsers = "create_users"
	PermissionReadUsers   = "read_users"
	PermissionUpdateUsers = "update_users"
	PermissionDeleteUsers = "delete_users"

	PermissionAllOfContent       = "all_of_content"
	PermissionCreateContent      = "create_content"
	PermissionReadContentAll     = "read_content_all"
	PermissionReadContentFree    = "read_content_free"
	PermissionReadContentPremium = "read_content_premium"
	PermissionUpdateContent      = "update_content"
	PermissionDeleteContent      = "delete_content"

	PermissionAllOfRatings  = "all_of_ratings"
	PermissionCreateRatings = "create_ratings"
	PermissionReadRatings   = "read_ratings"
	PermissionUpdateRatings = "update_ratings"
	PermissionDeleteRatings = "delete_ratings"

	PermissionAllOfComments   = "all_of_comments"
	PermissionCreateComments  = "create_comments"
	PermissionReadCommentsAll = "read_comments_all"
	PermissionReadCommentsMy  = "read_comments_my"
	PermissionUpdateComments  = "update_comments_all"
	PermissionUpdateMyComment = "update_comments_my"
	PermissionDeleteComments  = "delete_comments"
)

// AllPermissionNames lists every known permission, in seed order.
func AllPermissionNames() []string {
	return []string{
		PermissionAllOfAll,

		PermissionAllOfUsers,
		PermissionCreateUsers,
		PermissionReadUsers,
		PermissionUpdateUsers,
		PermissionDeleteUsers,

		PermissionAllOfContent,
		PermissionCreateContent,
		PermissionReadContentAll,
		PermissionReadContentFree,
		PermissionReadContentPremium,
		PermissionUpdateContent,
		PermissionDeleteContent,

		PermissionAllOfRatings,
		PermissionCreateRatings,
		PermissionReadRatings,
		PermissionUpdateRatings,
		PermissionDeleteRatings,

		PermissionAllOfComments,
		PermissionCreateComments,
		PermissionReadCommentsAll,
		PermissionReadCommentsMy,
		PermissionUpdateComments,
		PermissionUpdateMyComment,
		PermissionDeleteComments,
	}
}

// RegisteredRolePermissions lists what a freshly confirmed account may do.
func RegisteredRolePermissions() []string {
	return []string{
		PermissionReadUsers,
		PermissionReadContentFree,
		PermissionReadRatings,
		PermissionCreateRatings,
		PermissionCreateComments,
		PermissionReadCommentsAll,
		PermissionUpdateMyComment,
	}
}

// HasPermission reports whether the granted set satisfies the required
// permission, honoring the all_of_all wildcard.
func HasPermission(granted []string, required string) bool {
	for _, name := range granted {
		if name == required || name == PermissionAllOfAll {
			return true
		}
	}
	return false
}
