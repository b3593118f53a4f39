// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package role implements the administrative CRUD surface for roles.

Roles are the only grant mechanism in the system: users hold roles, roles
bundle permissions, and a user's effective permission set is always derived
through that chain. Editing a role therefore changes what every holder of the
role may do, on their next minted token.

# Security

Every endpoint requires the all_of_all permission; this surface is for
operators, not end users.
*/
package role

// CreateInput is the payload for creating a role.
type CreateInput struct {
	Name             string   `json:"name"`
	PermissionsUUIDs []string `json:"permissions_uuids"`
}

// UpdateInput replaces a role's permission set wholesale. An empty list
// strips the role of every permission.
type UpdateInput struct {
	PermissionsUUIDs []string `json:"permissions_uuids"`
}
