// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/yomira-auth/internal/platform/apperr"
	"github.com/taibuivan/yomira-auth/internal/platform/database/schema"
	"github.com/taibuivan/yomira-auth/internal/platform/dberr"
	"github.com/taibuivan/yomira-auth/internal/platform/postgres"
)

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
//
// Every method resolves its querier through [postgres.QuerierFrom], so calls
// made under a [PostgresTxRunner] transaction join it automatically.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

/*
Create persists a new user record into the users.account table.

Description: Initializes timestamps and maps a unique-violation on the email
column to the domain-level UserAlreadyExists error.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: UserAlreadyExists, other constraint or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		schema.UserAccount.Table,
		schema.UserAccount.UUID, schema.UserAccount.Email, schema.UserAccount.Name,
		schema.UserAccount.Password, schema.UserAccount.IsActive,
		schema.UserAccount.CreatedAt, schema.UserAccount.UpdatedAt,
	)

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := postgres.QuerierFrom(context, repository.pool).Exec(context, query,
		user.UUID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.UserAlreadyExists()
		}
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByUUID retrieves a user record by primary key.

Parameters:
  - context: context.Context
  - uuid: string

Returns:
  - *User: Hydrated account entity, nil when absent
  - error: Database errors
*/
func (repository *PostgresUserRepository) FindByUUID(context context.Context, uuid string) (*User, error) {
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
	return repository.scanOne(context, query, uuid)
}

/*
FindByEmail retrieves a user record by their unique email address.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity, nil when absent
  - error: Database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1`,
		schema.UserAccount.UUID, schema.UserAccount.Email, schema.UserAccount.Name,
		schema.UserAccount.Password, schema.UserAccount.IsActive,
		schema.UserAccount.CreatedAt, schema.UserAccount.UpdatedAt,
		schema.UserAccount.Table,
		schema.UserAccount.Email,
	)
	return repository.scanOne(context, query, email)
}

// scanOne runs a single-row account query, mapping no-rows to (nil, nil).
// Absence is a domain condition here, not an error: the service decides
// whether a missing user means Unauthorized or something else.
func (repository *PostgresUserRepository) scanOne(context context.Context, query string, arg any) (*User, error) {
	user := &User{}
	err := postgres.QuerierFrom(context, repository.pool).QueryRow(context, query, arg).Scan(
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
			return nil, nil
		}
		return nil, fmt.Errorf("postgres_user_repo_find_failed: %w", err)
	}

	return user, nil
}

/*
Activate flips the account to is_active = true.

Parameters:
  - context: context.Context
  - uuid: string

Returns:
  - error: Execution failures
*/
func (repository *PostgresUserRepository) Activate(context context.Context, uuid string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = true, %s = NOW() WHERE %s = $1`,
		schema.UserAccount.Table, schema.UserAccount.IsActive,
		schema.UserAccount.UpdatedAt, schema.UserAccount.UUID)

	_, err := postgres.QuerierFrom(context, repository.pool).Exec(context, query, uuid)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_activate_failed: %w", err)
	}

	return nil
}

// # Session Repository

// PostgresSessionRepository implements the SessionRepository interface using pgx.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new PostgreSQL implementation of the SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

/*
Create persists a new session row.

Parameters:
  - context: context.Context
  - session: *Session

Returns:
  - error: Execution failures
*/
func (repository *PostgresSessionRepository) Create(context context.Context, session *Session) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		schema.UserSession.Table,
		schema.UserSession.UUID, schema.UserSession.UserUUID, schema.UserSession.UserAgent,
		schema.UserSession.IP, schema.UserSession.IsActive,
		schema.UserSession.CreatedAt, schema.UserSession.UpdatedAt,
	)

	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	_, err := postgres.QuerierFrom(context, repository.pool).Exec(context, query,
		session.UUID,
		session.UserUUID,
		session.UserAgent,
		session.IP,
		session.IsActive,
		session.CreatedAt,
		session.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_session_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindActiveByContext returns the user's active session for a useragent/ip pair.

Description: At most one such row exists at a time; login displaces the old
one before inserting its successor.

Parameters:
  - context: context.Context
  - userUUID: string
  - userAgent: string
  - ip: string

Returns:
  - *Session: Hydrated entity, nil when absent
  - error: Database errors
*/
func (repository *PostgresSessionRepository) FindActiveByContext(context context.Context, userUUID, userAgent, ip string) (*Session, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1 AND %s = $2 AND %s = $3 AND %s = true`,
		schema.UserSession.UUID, schema.UserSession.UserUUID, schema.UserSession.UserAgent,
		schema.UserSession.IP, schema.UserSession.IsActive,
		schema.UserSession.CreatedAt, schema.UserSession.UpdatedAt,
		schema.UserSession.Table,
		schema.UserSession.UserUUID, schema.UserSession.UserAgent,
		schema.UserSession.IP, schema.UserSession.IsActive,
	)

	session := &Session{}
	err := postgres.QuerierFrom(context, repository.pool).QueryRow(context, query, userUUID, userAgent, ip).Scan(
		&session.UUID,
		&session.UserUUID,
		&session.UserAgent,
		&session.IP,
		&session.IsActive,
		&session.CreatedAt,
		&session.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres_session_repo_find_active_failed: %w", err)
	}

	return session, nil
}

/*
Deactivate marks a session as permanently inactive.

Parameters:
  - context: context.Context
  - sessionUUID: string

Returns:
  - error: Execution failures
*/
func (repository *PostgresSessionRepository) Deactivate(context context.Context, sessionUUID string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = false, %s = NOW() WHERE %s = $1`,
		schema.UserSession.Table, schema.UserSession.IsActive,
		schema.UserSession.UpdatedAt, schema.UserSession.UUID)

	_, err := postgres.QuerierFrom(context, repository.pool).Exec(context, query, sessionUUID)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_deactivate_failed: %w", err)
	}

	return nil
}

/*
ListActiveByUser returns every active session owned by the user.

Parameters:
  - context: context.Context
  - userUUID: string

Returns:
  - []Session: Active sessions ordered by creation time
  - error: Database errors
*/
func (repository *PostgresSessionRepository) ListActiveByUser(context context.Context, userUUID string) ([]Session, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1 AND %s = true
		ORDER BY %s`,
		schema.UserSession.UUID, schema.UserSession.UserUUID, schema.UserSession.UserAgent,
		schema.UserSession.IP, schema.UserSession.IsActive,
		schema.UserSession.CreatedAt, schema.UserSession.UpdatedAt,
		schema.UserSession.Table,
		schema.UserSession.UserUUID, schema.UserSession.IsActive,
		schema.UserSession.CreatedAt,
	)

	rows, err := postgres.QuerierFrom(context, repository.pool).Query(context, query, userUUID)
	if err != nil {
		return nil, fmt.Errorf("postgres_session_repo_list_active_failed: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var session Session
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

// # Social Account Repository

// PostgresSocialAccountRepository implements the SocialAccountRepository
// interface using pgx.
type PostgresSocialAccountRepository struct {
	pool *pgxpool.Pool
}

// NewSocialAccountRepository creates a new PostgreSQL implementation of the
// SocialAccountRepository.
func NewSocialAccountRepository(pool *pgxpool.Pool) *PostgresSocialAccountRepository {
	return &PostgresSocialAccountRepository{pool: pool}
}

/*
FindBySocialID returns the link row for a provider identity, if any.

Parameters:
  - context: context.Context
  - socialName: string
  - socialUUID: string

Returns:
  - *SocialAccount: Hydrated entity, nil when absent
  - error: Database errors
*/
func (repository *PostgresSocialAccountRepository) FindBySocialID(context context.Context, socialName, socialUUID string) (*SocialAccount, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1 AND %s = $2`,
		schema.UserSocialAccount.UUID, schema.UserSocialAccount.UserUUID,
		schema.UserSocialAccount.SocialName, schema.UserSocialAccount.SocialUUID,
		schema.UserSocialAccount.CreatedAt,
		schema.UserSocialAccount.Table,
		schema.UserSocialAccount.SocialName, schema.UserSocialAccount.SocialUUID,
	)

	account := &SocialAccount{}
	err := postgres.QuerierFrom(context, repository.pool).QueryRow(context, query, socialName, socialUUID).Scan(
		&account.UUID,
		&account.UserUUID,
		&account.SocialName,
		&account.SocialUUID,
		&account.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres_social_repo_find_failed: %w", err)
	}

	return account, nil
}

/*
Create persists a new provider identity link.

Parameters:
  - context: context.Context
  - account: *SocialAccount

Returns:
  - error: Execution failures
*/
func (repository *PostgresSocialAccountRepository) Create(context context.Context, account *SocialAccount) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5)`,
		schema.UserSocialAccount.Table,
		schema.UserSocialAccount.UUID, schema.UserSocialAccount.UserUUID,
		schema.UserSocialAccount.SocialName, schema.UserSocialAccount.SocialUUID,
		schema.UserSocialAccount.CreatedAt,
	)

	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}

	_, err := postgres.QuerierFrom(context, repository.pool).Exec(context, query,
		account.UUID,
		account.UserUUID,
		account.SocialName,
		account.SocialUUID,
		account.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_social_repo_create_failed: %w", err)
	}

	return nil
}

// # Role Repository

// PostgresRoleRepository implements the RoleRepository interface using pgx.
type PostgresRoleRepository struct {
	pool *pgxpool.Pool
}

// NewRoleRepository creates a new PostgreSQL implementation of the RoleRepository.
func NewRoleRepository(pool *pgxpool.Pool) *PostgresRoleRepository {
	return &PostgresRoleRepository{pool: pool}
}

/*
FindByName returns the role with the given name.

Parameters:
  - context: context.Context
  - name: string

Returns:
  - *Role: Hydrated entity, nil when absent
  - error: Database errors
*/
func (repository *PostgresRoleRepository) FindByName(context context.Context, name string) (*Role, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s
		FROM %s
		WHERE %s = $1`,
		schema.AccessRole.UUID, schema.AccessRole.Name,
		schema.AccessRole.CreatedAt, schema.AccessRole.UpdatedAt,
		schema.AccessRole.Table,
		schema.AccessRole.Name,
	)

	role := &Role{}
	err := postgres.QuerierFrom(context, repository.pool).QueryRow(context, query, name).Scan(
		&role.UUID,
		&role.Name,
		&role.CreatedAt,
		&role.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres_role_repo_find_by_name_failed: %w", err)
	}

	return role, nil
}

/*
AssignToUser attaches a role to a user. Re-assigning an already-held role is
a no-op.

Parameters:
  - context: context.Context
  - userUUID: string
  - roleUUID: string

Returns:
  - error: Execution failures
*/
func (repository *PostgresRoleRepository) AssignToUser(context context.Context, userUUID, roleUUID string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		schema.AccessUserRole.Table,
		schema.AccessUserRole.UserUUID, schema.AccessUserRole.RoleUUID,
	)

	_, err := postgres.QuerierFrom(context, repository.pool).Exec(context, query, userUUID, roleUUID)
	if err != nil {
		return fmt.Errorf("postgres_role_repo_assign_failed: %w", err)
	}

	return nil
}

/*
PermissionNamesForUser derives the user's effective permission names through
their roles.

Parameters:
  - context: context.Context
  - userUUID: string

Returns:
  - []string: Distinct permission names, sorted
  - error: Database errors
*/
func (repository *PostgresRoleRepository) PermissionNamesForUser(context context.Context, userUUID string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT p.%s
		FROM %s p
		JOIN %s rp ON rp.%s = p.%s
		JOIN %s ur ON ur.%s = rp.%s
		WHERE ur.%s = $1
		ORDER BY p.%s`,
		schema.AccessPermission.Name,
		schema.AccessPermission.Table,
		schema.AccessRolePermission.Table,
		schema.AccessRolePermission.PermissionUUID, schema.AccessPermission.UUID,
		schema.AccessUserRole.Table,
		schema.AccessUserRole.RoleUUID, schema.AccessRolePermission.RoleUUID,
		schema.AccessUserRole.UserUUID,
		schema.AccessPermission.Name,
	)

	rows, err := postgres.QuerierFrom(context, repository.pool).Query(context, query, userUUID)
	if err != nil {
		return nil, fmt.Errorf("postgres_role_repo_permissions_failed: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("postgres_role_repo_scan_failed: %w", err)
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

// # Transaction Runner

// PostgresTxRunner implements TxRunner on the shared connection pool.
type PostgresTxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner creates a new transaction runner over the pool.
func NewTxRunner(pool *pgxpool.Pool) *PostgresTxRunner {
	return &PostgresTxRunner{pool: pool}
}

// RunInTx executes fn inside one database transaction. Repository calls made
// with the context handed to fn join that transaction.
func (runner *PostgresTxRunner) RunInTx(context context.Context, fn func(context.Context) error) error {
	return postgres.RunInTx(context, runner.pool, fn)
}
