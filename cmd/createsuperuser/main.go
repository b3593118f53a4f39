// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command createsuperuser interactively provisions an administrator account.
//
// It prompts for name, email and password on stdin, creates the account
// already active (no email confirmation round-trip) and attaches the
// superuser role, whose all_of_all permission satisfies every route guard.
//
// Run it once against a migrated database:
//
//	go run ./cmd/createsuperuser
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/taibuivan/yomira-auth/internal/platform/config"
	"github.com/taibuivan/yomira-auth/internal/platform/migration"
	pgstore "github.com/taibuivan/yomira-auth/internal/platform/postgres"
	"github.com/taibuivan/yomira-auth/internal/platform/sec"
	"github.com/taibuivan/yomira-auth/internal/platform/validate"
	"github.com/taibuivan/yomira-auth/internal/users/auth"
	"github.com/taibuivan/yomira-auth/pkg/textnorm"
	"github.com/taibuivan/yomira-auth/pkg/uuidv7"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})).With(slog.String("app", "yomira-auth-createsuperuser"))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.PostgresDSN(), log)
	must(log, err, "connect to postgres")
	defer pool.Close()

	// ── 4. Migrations ─────────────────────────────────────────────────────
	// The superuser role is seeded by migration, so make sure the schema is
	// current before prompting.
	must(log, migration.RunUp(cfg.PostgresDSN(), cfg.MigrationPath, log), "run migrations")

	// ── 5. Interactive Loop ───────────────────────────────────────────────
	users := auth.NewUserRepository(pool)
	roles := auth.NewRoleRepository(pool)
	tx := auth.NewTxRunner(pool)

	reader := bufio.NewReader(os.Stdin)

	for {
		name, err := prompt(reader, "enter superuser name >>> ")
		must(log, err, "read name")
		email, err := prompt(reader, "enter superuser email >>> ")
		must(log, err, "read email")
		password, err := prompt(reader, "enter superuser password >>> ")
		must(log, err, "read password")

		user, err := createSuperuser(context.Background(), users, roles, tx, name, email, password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		fmt.Printf("successfully created superuser %s <%s> (uuid %s)\n", user.Name, user.Email, user.UUID)
		log.Info("superuser_created",
			slog.String("user_uuid", user.UUID),
			slog.String("email", user.Email),
		)
		return
	}
}

/*
createSuperuser validates the entered credentials, then creates the active
account and attaches the superuser role in one transaction.

Parameters:
  - ctx: context.Context
  - users: auth.UserRepository
  - roles: auth.RoleRepository
  - tx: auth.TxRunner
  - name, email, password: Raw operator input

Returns:
  - *auth.User: The created account
  - error: Validation failures, UserAlreadyExists, or database errors
*/
func createSuperuser(
	ctx context.Context,
	users auth.UserRepository,
	roles auth.RoleRepository,
	tx auth.TxRunner,
	name, email, password string,
) (*auth.User, error) {
	validator := &validate.Validator{}
	validator.Required(auth.FieldName, name).
		MaxLen(auth.FieldName, name, auth.MaxNameLength).
		Required(auth.FieldEmail, email).
		Email(auth.FieldEmail, email).
		Required(auth.FieldPassword, password).
		MinLen(auth.FieldPassword, password, auth.MinPasswordLength)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	passwordHash, err := sec.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &auth.User{
		UUID:         uuidv7.New(),
		Email:        textnorm.Email(email),
		Name:         textnorm.Name(name),
		PasswordHash: passwordHash,
		IsActive:     true,
	}

	err = tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := users.Create(txCtx, user); err != nil {
			return err
		}

		role, err := roles.FindByName(txCtx, sec.RoleSuperuser)
		if err != nil {
			return err
		}
		if role == nil {
			return fmt.Errorf("role %q is not seeded; run migrations first", sec.RoleSuperuser)
		}

		return roles.AssignToUser(txCtx, user.UUID, role.UUID)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// prompt writes the question to stdout and reads one trimmed line from the reader.
func prompt(reader *bufio.Reader, question string) (string, error) {
	fmt.Print(question)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// must logs a structured fatal error and terminates the process if err is non-nil.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
