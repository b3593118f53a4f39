// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/yomira-auth/internal/platform/sec"
	"github.com/taibuivan/yomira-auth/internal/users/auth"
	"github.com/taibuivan/yomira-auth/pkg/slice"
	"github.com/taibuivan/yomira-auth/pkg/textnorm"
)

// # Service Layer

// Service orchestrates business logic for the authenticated self-service
// surface.
//
// Every operation is scoped to the subject of the verified token; the service
// never accepts a target user from the caller.
type Service struct {
	profileRepository ProfileRepository
	accessRepository  AccessRepository
	sessionRepository SessionRepository
	logger            *slog.Logger
}

// NewService constructs a new [Service] with its repository dependencies.
func NewService(
	profileRepo ProfileRepository,
	accessRepo AccessRepository,
	sessionRepo SessionRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		profileRepository: profileRepo,
		accessRepository:  accessRepo,
		sessionRepository: sessionRepo,
		logger:            logger,
	}
}

// # Profile

/*
GetProfile retrieves the full identity descriptor of a user.

Description: Loads the account row and hydrates the derived projections:
role uuids/names, effective permission uuids/names, and the uuids of the
currently active sessions.

Parameters:
  - context: context.Context
  - userUUID: string

Returns:
  - *auth.User: The hydrated descriptor
  - error: Not found or execution failures
*/
func (service *Service) GetProfile(context context.Context, userUUID string) (*auth.User, error) {
	user, err := service.profileRepository.FindByUUID(context, userUUID)
	if err != nil {
		return nil, fmt.Errorf("me_service_get_profile_failed: %w", err)
	}

	if err := service.hydrate(context, user); err != nil {
		return nil, err
	}

	return user, nil
}

/*
UpdateCredentials applies a partial email/name change to the user's own row.

Description: Fetches the current state, folds the provided fields into
canonical form, and persists the change. An email collision surfaces as
UserAlreadyExists (HTTP 422), mirroring registration.

Parameters:
  - context: context.Context
  - userUUID: string
  - input: UpdateCredentialsInput

Returns:
  - *auth.User: The updated, re-hydrated descriptor
  - error: UserAlreadyExists, not found, or storage failures
*/
func (service *Service) UpdateCredentials(context context.Context, userUUID string, input UpdateCredentialsInput) (*auth.User, error) {

	// ── 1. Load Current State ─────────────────────────────────────────────
	user, err := service.profileRepository.FindByUUID(context, userUUID)
	if err != nil {
		return nil, fmt.Errorf("me_service_update_lookup_failed: %w", err)
	}

	// ── 2. Apply Delta ────────────────────────────────────────────────────
	if input.Email != nil {
		user.Email = textnorm.Email(*input.Email)
	}
	if input.Name != nil {
		user.Name = textnorm.Name(*input.Name)
	}

	// ── 3. Persist ────────────────────────────────────────────────────────
	if err := service.profileRepository.UpdateCredentials(context, user); err != nil {
		return nil, err
	}

	service.logger.Info("me_service_credentials_updated", slog.String("user_uuid", userUUID))

	if err := service.hydrate(context, user); err != nil {
		return nil, err
	}

	return user, nil
}

/*
UpdatePassword replaces the user's password with a freshly hashed one.

Description: Existing sessions stay live; a password change proves the user
holds the account, it does not signal that devices were compromised. Clients
that want a global sign-out call logout-all explicitly.

Parameters:
  - context: context.Context
  - userUUID: string
  - password: string (Plain text, validated at the HTTP boundary)

Returns:
  - *auth.User: The updated, re-hydrated descriptor
  - error: Hashing or storage failures
*/
func (service *Service) UpdatePassword(context context.Context, userUUID, password string) (*auth.User, error) {

	// ── 1. Hash ───────────────────────────────────────────────────────────
	hashedPassword, err := sec.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("me_service_password_hash_failed: %w", err)
	}

	// ── 2. Persist ────────────────────────────────────────────────────────
	if err := service.profileRepository.UpdatePassword(context, userUUID, hashedPassword); err != nil {
		return nil, err
	}

	service.logger.Info("me_service_password_updated", slog.String("user_uuid", userUUID))

	// ── 3. Return Fresh Descriptor ────────────────────────────────────────
	user, err := service.profileRepository.FindByUUID(context, userUUID)
	if err != nil {
		return nil, fmt.Errorf("me_service_password_reload_failed: %w", err)
	}

	if err := service.hydrate(context, user); err != nil {
		return nil, err
	}

	return user, nil
}

// # Sessions

/*
ListSessions returns one page of the user's full session history.

Description: The history includes displaced and logged-out rows; it is the
audit trail of every login the account has seen.

Parameters:
  - context: context.Context
  - userUUID: string
  - params: SessionListParams (Page window, sort key, direction)

Returns:
  - *SessionPage: Page rows plus the total count
  - error: Retrieval failures
*/
func (service *Service) ListSessions(context context.Context, userUUID string, params SessionListParams) (*SessionPage, error) {
	sessions, totalCount, err := service.sessionRepository.ListByUser(context, userUUID, params)
	if err != nil {
		return nil, fmt.Errorf("me_service_list_sessions_failed: %w", err)
	}

	return &SessionPage{Sessions: sessions, TotalCount: totalCount}, nil
}

/*
ListActiveSessions returns every session of the user that is still live.

Parameters:
  - context: context.Context
  - userUUID: string

Returns:
  - []auth.Session: Active sessions, newest first
  - error: Retrieval failures
*/
func (service *Service) ListActiveSessions(context context.Context, userUUID string) ([]auth.Session, error) {
	sessions, err := service.sessionRepository.ListActiveByUser(context, userUUID)
	if err != nil {
		return nil, fmt.Errorf("me_service_list_active_failed: %w", err)
	}

	return sessions, nil
}

// # Permissions

/*
ListPermissions derives the user's effective permission set.

Parameters:
  - context: context.Context
  - userUUID: string

Returns:
  - []auth.Permission: Distinct permissions ordered by name
  - error: Retrieval failures
*/
func (service *Service) ListPermissions(context context.Context, userUUID string) ([]auth.Permission, error) {
	permissions, err := service.accessRepository.PermissionsForUser(context, userUUID)
	if err != nil {
		return nil, fmt.Errorf("me_service_list_permissions_failed: %w", err)
	}

	return permissions, nil
}

// hydrate fills the derived projections of a loaded user row.
func (service *Service) hydrate(context context.Context, user *auth.User) error {

	// Roles attached to the user
	roles, err := service.accessRepository.RolesForUser(context, user.UUID)
	if err != nil {
		return fmt.Errorf("me_service_hydrate_roles_failed: %w", err)
	}
	user.RolesUUIDs = slice.Map(roles, func(role auth.Role) string { return role.UUID })
	user.RolesNames = slice.Map(roles, func(role auth.Role) string { return role.Name })

	// Permissions derived through those roles
	permissions, err := service.accessRepository.PermissionsForUser(context, user.UUID)
	if err != nil {
		return fmt.Errorf("me_service_hydrate_permissions_failed: %w", err)
	}
	user.PermissionsUUIDs = slice.Map(permissions, func(permission auth.Permission) string { return permission.UUID })
	user.PermissionsNames = slice.Map(permissions, func(permission auth.Permission) string { return permission.Name })

	// Live sessions
	sessions, err := service.sessionRepository.ListActiveByUser(context, user.UUID)
	if err != nil {
		return fmt.Errorf("me_service_hydrate_sessions_failed: %w", err)
	}
	user.ActiveSessionsUUIDs = slice.Map(sessions, func(session auth.Session) string { return session.UUID })

	return nil
}
