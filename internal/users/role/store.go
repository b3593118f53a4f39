// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package role

import (
	"context"

	"github.com/taibuivan/yomira-auth/internal/users/auth"
)

// Repository defines the persistence contract for role administration.
type Repository interface {
	// List returns every role with its permission projections hydrated,
	// ordered by name.
	List(context context.Context) ([]auth.Role, error)

	// FindByUUID returns one hydrated role, or apperr.NotFound.
	FindByUUID(context context.Context, uuid string) (*auth.Role, error)

	// Create persists a new role together with its initial permission set.
	// Both writes happen in one transaction.
	Create(context context.Context, role *auth.Role, permissionUUIDs []string) error

	// ReplacePermissions swaps a role's permission set atomically.
	ReplacePermissions(context context.Context, roleUUID string, permissionUUIDs []string) error

	// Delete removes a role; join rows cascade. Missing roles surface as
	// apperr.NotFound.
	Delete(context context.Context, roleUUID string) error
}
