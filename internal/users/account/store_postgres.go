// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account (Postgres) implements the storage layer for the /me surface.

It provides PostgreSQL implementations for reading the user's own row,
deriving role/permission projections, and auditing session history.

# Schema Table Mapping
  - users.account: Master identity row.
  - users.session: Login history and active device sessions.
  - access.role / access.permission: Derived authorization projections.
*/
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/yomira-auth/internal/platform/apperr"
	"github.com/taibuivan/yomira-auth/internal/platform/database/schema"
	"github.com/taibuivan/yomira-auth/internal/platform/dberr"
	"github.com/taibuivan/yomira-auth/internal/users/auth"
)

// # Repository Implementations

// PostgresProfileRepository implements [ProfileRepository] using pgx.
type PostgresProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a new Postgres implementation for the user's own row.
func NewProfileRepository(pool *pgxpool.Pool) *PostgresProfileRepository {
	return &PostgresProfileRepository{pool: pool}
}

// PostgresAccessRepository implements [AccessRepository] using pgx.
type PostgresAccessRepository struct {
	pool *pgxpool.Pool
}

// NewAccessRepository creates a new Postgres implementation for derived
// role/permission projections.
func NewAccessRepository(pool *pgxpool.Pool) *PostgresAccessRepository {
	return &PostgresAccessRepository{pool: pool}
}

// PostgresSessionRepository implements [SessionRepository] using pgx.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new Postgres implementation for session auditing.
func NewSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

// # ProfileRepository Methods

/*
FindByUUID retrieves a user record from the users.account table.

Parameters:
  - context: context.Context
  - uuid: string

Returns:
  - *auth.User: Hydrated identity entity
  - error: apperr.NotFound or database execution failure
*/
func (repository *PostgresProfileRepository) FindByUUID(context context.Context, uuid string) (*auth.User, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1`,
		schema.UserAccount.UUID, schema.UserAccount.Email, schema.UserAccount.Name,
		schema.UserAccount.Password, schema.UserAccount.IsActive,
		schema.UserAccount.CreatedAt, schema.UserAccount.UpdatedAt,
		schema.UserAccount.Table,
		schema.UserAccount.UUID,
	)

	user := &auth.User{}
	err := repository.pool.QueryRow(context, query, uuid).Scan(
		&user.UUID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_profile_repo_find_failed: %w", err)
	}

	return user, nil
}

/*
UpdateCredentials syncs the email and name columns of the account row.

Description: Refreshes the updated_at timestamp and maps a unique-violation
on the email column to the domain-level UserAlreadyExists error.

Parameters:
  - context: context.Context
  - user: *auth.User

Returns:
  - error: apperr.UserAlreadyExists or update failures
*/
func (repository *PostgresProfileRepository) UpdateCredentials(context context.Context, user *auth.User) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4
		WHERE %s = $1`,
		schema.UserAccount.Table,
		schema.UserAccount.Email, schema.UserAccount.Name, schema.UserAccount.UpdatedAt,
		schema.UserAccount.UUID,
	)

	user.UpdatedAt = time.Now()

	_, err := repository.pool.Exec(context, query,
		user.UUID,
		user.Email,
		user.Name,
		user.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.UserAlreadyExists()
		}
		return fmt.Errorf("postgres_profile_repo_update_credentials_failed: %w", err)
	}

	return nil
}

/*
UpdatePassword replaces the stored password hash for a user.

Parameters:
  - context: context.Context
  - uuid: string
  - passwordHash: string

Returns:
  - error: Execution failures
*/
func (repository *PostgresProfileRepository) UpdatePassword(context context.Context, uuid, passwordHash string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = NOW() WHERE %s = $1`,
		schema.UserAccount.Table, schema.UserAccount.Password,
		schema.UserAccount.UpdatedAt, schema.UserAccount.UUID)

	_, err := repository.pool.Exec(context, query, uuid, passwordHash)
	if err != nil {
		return fmt.Errorf("postgres_profile_repo_update_password_failed: %w", err)
	}

	return nil
}

// # AccessRepository Methods

/*
RolesForUser lists the roles attached to a user via access.user_role.

Parameters:
  - context: context.Context
  - userUUID: string

Returns:
  - []auth.Role: Roles ordered by name
  - error: Database retrieval failures
*/
func (repository *PostgresAccessRepository) RolesForUser(context context.Context, userUUID string) ([]auth.Role, error) {
	query := fmt.Sprintf(`
		SELECT r.%s, r.%s, r.%s, r.%s
		FROM %s r
		JOIN %s ur ON ur.%s = r.%s
		WHERE ur.%s = $1
		ORDER BY r.%s`,
		schema.AccessRole.UUID, schema.AccessRole.Name,
		schema.AccessRole.CreatedAt, schema.AccessRole.UpdatedAt,
		schema.AccessRole.Table,
		schema.AccessUserRole.Table, schema.AccessUserRole.RoleUUID, schema.AccessRole.UUID,
		schema.AccessUserRole.UserUUID,
		schema.AccessRole.Name,
	)

	rows, err := repository.pool.Query(context, query, userUUID)
	if err != nil {
		return nil, fmt.Errorf("postgres_access_repo_roles_failed: %w", err)
	}
	defer rows.Close()

	roles := []auth.Role{}
	for rows.Next() {
		var role auth.Role
		if err := rows.Scan(&role.UUID, &role.Name, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres_access_repo_scan_failed: %w", err)
		}
		roles = append(roles, role)
	}

	return roles, rows.Err()
}

/*
PermissionsForUser derives the user's effective permissions through their roles.

Parameters:
  - context: context.Context
  - userUUID: string

Returns:
  - []auth.Permission: Distinct permissions ordered by name
  - error: Database retrieval failures
*/
func (repository *PostgresAccessRepository) PermissionsForUser(context context.Context, userUUID string) ([]auth.Permission, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT p.%s, p.%s, p.%s
		FROM %s p
		JOIN %s rp ON rp.%s = p.%s
		JOIN %s ur ON ur.%s = rp.%s
		WHERE ur.%s = $1
		ORDER BY p.%s`,
		schema.AccessPermission.UUID, schema.AccessPermission.Name, schema.AccessPermission.CreatedAt,
		schema.AccessPermission.Table,
		schema.AccessRolePermission.Table,
		schema.AccessRolePermission.PermissionUUID, schema.AccessPermission.UUID,
		schema.AccessUserRole.Table,
		schema.AccessUserRole.RoleUUID, schema.AccessRolePermission.RoleUUID,
		schema.AccessUserRole.UserUUID,
		schema.AccessPermission.Name,
	)

	rows, err := repository.pool.Query(context, query, userUUID)
	if err != nil {
		return nil, fmt.Errorf("postgres_access_repo_permissions_failed: %w", err)
	}
	defer rows.Close()

	permissions := []auth.Permission{}
	for rows.Next() {
		var permission auth.Permission
		if err := rows.Scan(&permission.UUID, &permission.Name, &permission.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres_access_repo_scan_failed: %w", err)
		}
		permissions = append(permissions, permission)
	}

	return permissions, rows.Err()
}

// # SessionRepository Methods

/*
ListByUser returns one page of a user's session history with its total count.

Description: Uses a COUNT(*) OVER() window so the page rows and the total
arrive in a single round-trip. The sort column is resolved through a fixed
allowlist; user input never reaches the SQL text directly.

Parameters:
  - context: context.Context
  - userUUID: string
  - params: SessionListParams

Returns:
  - []auth.Session: One page of sessions
  - int: Total row count for the user
  - error: Database retrieval failures
*/
func (repository *PostgresSessionRepository) ListByUser(context context.Context, userUUID string, params SessionListParams) ([]auth.Session, int, error) {

	// Apply Sorting Direction
	direction := "DESC"
	if strings.ToLower(params.Order) == OrderAsc {
		direction = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, COUNT(*) OVER() AS total_count
		FROM %s
		WHERE %s = $1
		ORDER BY %s %s, %s DESC
		LIMIT $2 OFFSET $3`,
		schema.UserSession.UUID, schema.UserSession.UserUUID, schema.UserSession.UserAgent,
		schema.UserSession.IP, schema.UserSession.IsActive,
		schema.UserSession.CreatedAt, schema.UserSession.UpdatedAt,
		schema.UserSession.Table,
		schema.UserSession.UserUUID,
		orderColumn(params.OrderBy), direction, schema.UserSession.UUID,
	)

	rows, err := repository.pool.Query(context, query, userUUID, params.Page.Limit, params.Page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_session_repo_list_failed: %w", err)
	}
	defer rows.Close()

	sessions := []auth.Session{}
	totalCount := 0
	for rows.Next() {
		var session auth.Session
		if err := rows.Scan(
			&session.UUID,
			&session.UserUUID,
			&session.UserAgent,
			&session.IP,
			&session.IsActive,
			&session.CreatedAt,
			&session.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("postgres_session_repo_scan_failed: %w", err)
		}
		sessions = append(sessions, session)
	}

	return sessions, totalCount, rows.Err()
}

/*
ListActiveByUser retrieves all currently active sessions for a user.

Parameters:
  - context: context.Context
  - userUUID: string

Returns:
  - []auth.Session: Active sessions, newest first
  - error: Database retrieval failures
*/
func (repository *PostgresSessionRepository) ListActiveByUser(context context.Context, userUUID string) ([]auth.Session, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1 AND %s = true
		ORDER BY %s DESC`,
		schema.UserSession.UUID, schema.UserSession.UserUUID, schema.UserSession.UserAgent,
		schema.UserSession.IP, schema.UserSession.IsActive,
		schema.UserSession.CreatedAt, schema.UserSession.UpdatedAt,
		schema.UserSession.Table,
		schema.UserSession.UserUUID, schema.UserSession.IsActive,
		schema.UserSession.CreatedAt,
	)

	rows, err := repository.pool.Query(context, query, userUUID)
	if err != nil {
		return nil, fmt.Errorf("postgres_session_repo_list_active_failed: %w", err)
	}
	defer rows.Close()

	sessions := []auth.Session{}
	for rows.Next() {
		var session auth.Session
		if err := rows.Scan(
			&session.UUID,
			&session.UserUUID,
			&session.UserAgent,
			&session.IP,
			&session.IsActive,
			&session.CreatedAt,
			&session.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres_session_repo_scan_failed: %w", err)
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

// orderColumn resolves a requested sort key against the column allowlist.
// Unknown keys fall back to created_at.
func orderColumn(orderBy string) string {
	switch orderBy {
	case SessionOrderByUpdatedAt:
		return schema.UserSession.UpdatedAt
	case SessionOrderByUserAgent:
		return schema.UserSession.UserAgent
	case SessionOrderByIP:
		return schema.UserSession.IP
	default:
		return schema.UserSession.CreatedAt
	}
}
