// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package role

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/yomira-auth/internal/platform/apperr"
	"github.com/taibuivan/yomira-auth/internal/platform/database/schema"
	"github.com/taibuivan/yomira-auth/internal/platform/dberr"
	"github.com/taibuivan/yomira-auth/internal/platform/postgres"
	"github.com/taibuivan/yomira-auth/internal/users/auth"
	"github.com/taibuivan/yomira-auth/pkg/slice"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL implementation of the role [Repository].
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// hydratedRoleQuery selects role rows with their permissions aggregated into
// a JSON array, avoiding an N+1 round-trip per role.
var hydratedRoleQuery = fmt.Sprintf(`
	SELECT r.%s, r.%s, r.%s, r.%s,
		COALESCE((
			SELECT json_agg(json_build_object('uuid', p.%s, 'name', p.%s) ORDER BY p.%s)
			FROM %s p
			JOIN %s rp ON rp.%s = p.%s
			WHERE rp.%s = r.%s
		), '[]') AS permissions
	FROM %s r`,
	schema.AccessRole.UUID, schema.AccessRole.Name,
	schema.AccessRole.CreatedAt, schema.AccessRole.UpdatedAt,
	schema.AccessPermission.UUID, schema.AccessPermission.Name, schema.AccessPermission.Name,
	schema.AccessPermission.Table,
	schema.AccessRolePermission.Table,
	schema.AccessRolePermission.PermissionUUID, schema.AccessPermission.UUID,
	schema.AccessRolePermission.RoleUUID, schema.AccessRole.UUID,
	schema.AccessRole.Table,
)

/*
List returns every role with its permission projections, ordered by name.

Parameters:
  - context: context.Context

Returns:
  - []auth.Role: Hydrated roles
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) List(context context.Context) ([]auth.Role, error) {
	rows, err := postgres.QuerierFrom(context, repository.pool).Query(context, hydratedRoleQuery+` ORDER BY r.name`)
	if err != nil {
		return nil, dberr.Wrap(err, "list_roles")
	}
	defer rows.Close()

	roles := []auth.Role{}
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, *role)
	}

	return roles, rows.Err()
}

/*
FindByUUID retrieves one hydrated role by primary key.

Parameters:
  - context: context.Context
  - uuid: string

Returns:
  - *auth.Role: Hydrated entity
  - error: apperr.NotFound or database retrieval failures
*/
func (repository *PostgresRepository) FindByUUID(context context.Context, uuid string) (*auth.Role, error) {
	rows, err := postgres.QuerierFrom(context, repository.pool).Query(context, hydratedRoleQuery+` WHERE r.uuid = $1`, uuid)
	if err != nil {
		return nil, dberr.Wrap(err, "find_role")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, dberr.Wrap(err, "find_role")
		}
		return nil, apperr.NotFound("Role")
	}

	return scanRole(rows)
}

/*
Create persists a new role and attaches its initial permission set.

Description: Both writes run in one transaction; an unknown permission uuid
rolls the whole creation back as an Unprocessable error.

Parameters:
  - context: context.Context
  - role: *auth.Role
  - permissionUUIDs: []string

Returns:
  - error: Conflict on a duplicate name, Unprocessable on an unknown
    permission, storage failures
*/
func (repository *PostgresRepository) Create(ctx context.Context, role *auth.Role, permissionUUIDs []string) error {
	return postgres.RunInTx(ctx, repository.pool, func(context context.Context) error {
		query := fmt.Sprintf(`
			INSERT INTO %s (%s, %s, %s, %s)
			VALUES ($1, $2, $3, $4)`,
			schema.AccessRole.Table,
			schema.AccessRole.UUID, schema.AccessRole.Name,
			schema.AccessRole.CreatedAt, schema.AccessRole.UpdatedAt,
		)

		now := time.Now()
		if role.CreatedAt.IsZero() {
			role.CreatedAt = now
		}
		role.UpdatedAt = now

		if _, err := postgres.QuerierFrom(context, repository.pool).Exec(context, query,
			role.UUID, role.Name, role.CreatedAt, role.UpdatedAt,
		); err != nil {
			return dberr.Wrap(err, "create_role")
		}

		return repository.insertPermissions(context, role.UUID, permissionUUIDs)
	})
}

/*
ReplacePermissions swaps a role's permission set wholesale.

Description: Touches the role row (confirming existence and refreshing
updated_at), clears the join table, then inserts the new set. All inside one
transaction.

Parameters:
  - context: context.Context
  - roleUUID: string
  - permissionUUIDs: []string

Returns:
  - error: apperr.NotFound, Unprocessable on an unknown permission, storage
    failures
*/
func (repository *PostgresRepository) ReplacePermissions(ctx context.Context, roleUUID string, permissionUUIDs []string) error {
	return postgres.RunInTx(ctx, repository.pool, func(context context.Context) error {
		touch := fmt.Sprintf(`UPDATE %s SET %s = NOW() WHERE %s = $1`,
			schema.AccessRole.Table, schema.AccessRole.UpdatedAt, schema.AccessRole.UUID)

		tag, err := postgres.QuerierFrom(context, repository.pool).Exec(context, touch, roleUUID)
		if err != nil {
			return dberr.Wrap(err, "touch_role")
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound("Role")
		}

		clear := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
			schema.AccessRolePermission.Table, schema.AccessRolePermission.RoleUUID)

		if _, err := postgres.QuerierFrom(context, repository.pool).Exec(context, clear, roleUUID); err != nil {
			return dberr.Wrap(err, "clear_role_permissions")
		}

		return repository.insertPermissions(context, roleUUID, permissionUUIDs)
	})
}

/*
Delete removes a role row; role_permission and user_role rows cascade.

Parameters:
  - context: context.Context
  - roleUUID: string

Returns:
  - error: apperr.NotFound or execution failures
*/
func (repository *PostgresRepository) Delete(context context.Context, roleUUID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
		schema.AccessRole.Table, schema.AccessRole.UUID)

	tag, err := postgres.QuerierFrom(context, repository.pool).Exec(context, query, roleUUID)
	if err != nil {
		return dberr.Wrap(err, "delete_role")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Role")
	}

	return nil
}

// insertPermissions attaches a set of permissions to a role. Duplicate uuids
// in the input collapse through ON CONFLICT DO NOTHING.
func (repository *PostgresRepository) insertPermissions(context context.Context, roleUUID string, permissionUUIDs []string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		schema.AccessRolePermission.Table,
		schema.AccessRolePermission.RoleUUID, schema.AccessRolePermission.PermissionUUID,
	)

	for _, permissionUUID := range permissionUUIDs {
		if _, err := postgres.QuerierFrom(context, repository.pool).Exec(context, query, roleUUID, permissionUUID); err != nil {
			return dberr.Wrap(err, "attach_role_permission")
		}
	}

	return nil
}

// scanRole reads one hydrated role row, decoding the aggregated permission
// JSON into the entity's projections.
func scanRole(rows pgx.Rows) (*auth.Role, error) {
	role := &auth.Role{}
	var permissionsJSON []byte

	if err := rows.Scan(&role.UUID, &role.Name, &role.CreatedAt, &role.UpdatedAt, &permissionsJSON); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Role")
		}
		return nil, fmt.Errorf("postgres_role_repo_scan_failed: %w", err)
	}

	permissions := []auth.Permission{}
	if err := json.Unmarshal(permissionsJSON, &permissions); err != nil {
		return nil, fmt.Errorf("postgres_role_repo_permissions_decode_failed: %w", err)
	}

	role.PermissionsUUIDs = slice.Map(permissions, func(permission auth.Permission) string { return permission.UUID })
	role.PermissionsNames = slice.Map(permissions, func(permission auth.Permission) string { return permission.Name })

	return role, nil
}
