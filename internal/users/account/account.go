// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account implements the authenticated self-service surface (/me).

It lets a signed-in user inspect their own identity descriptor, audit their
session history, review their effective permissions, and rotate their
credentials or password.

# Architecture

  - Entities: This package reuses the auth package's User, Session, Role and
    Permission entities; it owns only the list/update input shapes.
  - Derivation: The identity descriptor is always hydrated through the
    user -> roles -> permissions chain; nothing is granted to a user directly.
  - Security: Every endpoint requires an authenticated session. The subject is
    always taken from the verified token, never from the request payload.
*/
package account

import (
	"context"

	"github.com/taibuivan/yomira-auth/internal/users/auth"
	"github.com/taibuivan/yomira-auth/pkg/pagination"
)

// # Session Listing

// Sort keys accepted by the session history listing. Anything else is
// rejected at the HTTP boundary before it reaches the repository.
const (
	SessionOrderByCreatedAt = "created_at"
	SessionOrderByUpdatedAt = "updated_at"
	SessionOrderByUserAgent = "useragent"
	SessionOrderByIP        = "ip"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// SessionListParams carries the page window and ordering of a session
// history request. The zero OrderBy/Order fall back to created_at desc.
type SessionListParams struct {
	Page    pagination.Params
	OrderBy string
	Order   string
}

// SessionPage is the paginated session history envelope.
type SessionPage struct {
	Sessions   []auth.Session `json:"sessions"`
	TotalCount int            `json:"total_count"`
}

// # Inputs

// UpdateCredentialsInput is the partial credential update payload. Nil fields
// keep their current value.
type UpdateCredentialsInput struct {
	Email *string
	Name  *string
}

// # Repository Contracts

// ProfileRepository defines the persistence contract for the user's own row.
type ProfileRepository interface {
	/*
		FindByUUID retrieves a user record by primary key.

		Parameters:
		  - context: context.Context
		  - uuid: string

		Returns:
		  - *auth.User: Loaded account entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByUUID(context context.Context, uuid string) (*auth.User, error)

	/*
		UpdateCredentials syncs email and name changes to the account row.

		Parameters:
		  - context: context.Context
		  - user: *auth.User (Hydrated entity with changes applied)

		Returns:
		  - error: apperr.UserAlreadyExists on an email collision, storage failures
	*/
	UpdateCredentials(context context.Context, user *auth.User) error

	/*
		UpdatePassword replaces the stored password hash.

		Parameters:
		  - context: context.Context
		  - uuid: string
		  - passwordHash: string (bcrypt encoded)

		Returns:
		  - error: Execution failures
	*/
	UpdatePassword(context context.Context, uuid, passwordHash string) error
}

// AccessRepository defines the read contract for their derived role and
// permission projections.
type AccessRepository interface {
	/*
		RolesForUser lists the roles attached to a user.

		Parameters:
		  - context: context.Context
		  - userUUID: string

		Returns:
		  - []auth.Role: Roles ordered by name
		  - error: Retrieval failures
	*/
	RolesForUser(context context.Context, userUUID string) ([]auth.Role, error)

	/*
		PermissionsForUser derives the user's effective permissions through
		their roles.

		Parameters:
		  - context: context.Context
		  - userUUID: string

		Returns:
		  - []auth.Permission: Distinct permissions ordered by name
		  - error: Retrieval failures
	*/
	PermissionsForUser(context context.Context, userUUID string) ([]auth.Permission, error)
}

// SessionRepository defines the visibility contract for a user's own sessions.
type SessionRepository interface {
	/*
		ListByUser returns one page of the user's full session history,
		active and displaced rows alike.

		Parameters:
		  - context: context.Context
		  - userUUID: string
		  - params: SessionListParams (Page window, sort key, direction)

		Returns:
		  - []auth.Session: One page of sessions
		  - int: Total row count before the page window
		  - error: Retrieval failures
	*/
	ListByUser(context context.Context, userUUID string, params SessionListParams) ([]auth.Session, int, error)

	/*
		ListActiveByUser returns every currently active session for the user.

		Parameters:
		  - context: context.Context
		  - userUUID: string

		Returns:
		  - []auth.Session: Active sessions, newest first
		  - error: Retrieval failures
	*/
	ListActiveByUser(context context.Context, userUUID string) ([]auth.Session, error)
}
