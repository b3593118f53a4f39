// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-auth/internal/platform/apperr"
	"github.com/taibuivan/yomira-auth/internal/platform/sec"
	"github.com/taibuivan/yomira-auth/internal/users/account"
	"github.com/taibuivan/yomira-auth/internal/users/auth"
	"github.com/taibuivan/yomira-auth/pkg/pagination"
	"github.com/taibuivan/yomira-auth/pkg/pointer"
	"github.com/taibuivan/yomira-auth/pkg/uuidv7"
)

// # Fakes

type fakeProfileRepository struct {
	users map[string]*auth.User
}

func newFakeProfileRepository() *fakeProfileRepository {
	return &fakeProfileRepository{users: map[string]*auth.User{}}
}

func (repository *fakeProfileRepository) FindByUUID(_ context.Context, uuid string) (*auth.User, error) {
	user, ok := repository.users[uuid]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	clone := *user
	return &clone, nil
}

func (repository *fakeProfileRepository) UpdateCredentials(_ context.Context, user *auth.User) error {
	for uuid, existing := range repository.users {
		if uuid != user.UUID && existing.Email == user.Email {
			return apperr.UserAlreadyExists()
		}
	}

	stored, ok := repository.users[user.UUID]
	if !ok {
		return apperr.NotFound("User")
	}
	stored.Email = user.Email
	stored.Name = user.Name
	return nil
}

func (repository *fakeProfileRepository) UpdatePassword(_ context.Context, uuid, passwordHash string) error {
	stored, ok := repository.users[uuid]
	if !ok {
		return apperr.NotFound("User")
	}
	stored.PasswordHash = passwordHash
	return nil
}

type fakeAccessRepository struct {
	rolesByUser       map[string][]auth.Role
	permissionsByUser map[string][]auth.Permission
}

func newFakeAccessRepository() *fakeAccessRepository {
	return &fakeAccessRepository{
		rolesByUser:       map[string][]auth.Role{},
		permissionsByUser: map[string][]auth.Permission{},
	}
}

func (repository *fakeAccessRepository) RolesForUser(_ context.Context, userUUID string) ([]auth.Role, error) {
	return repository.rolesByUser[userUUID], nil
}

func (repository *fakeAccessRepository) PermissionsForUser(_ context.Context, userUUID string) ([]auth.Permission, error) {
	return repository.permissionsByUser[userUUID], nil
}

type fakeSessionRepository struct {
	sessions []auth.Session

	gotParams account.SessionListParams
}

func (repository *fakeSessionRepository) ListByUser(_ context.Context, userUUID string, params account.SessionListParams) ([]auth.Session, int, error) {
	repository.gotParams = params

	owned := []auth.Session{}
	for _, session := range repository.sessions {
		if session.UserUUID == userUUID {
			owned = append(owned, session)
		}
	}
	return owned, len(owned), nil
}

func (repository *fakeSessionRepository) ListActiveByUser(_ context.Context, userUUID string) ([]auth.Session, error) {
	active := []auth.Session{}
	for _, session := range repository.sessions {
		if session.UserUUID == userUUID && session.IsActive {
			active = append(active, session)
		}
	}
	return active, nil
}

// # Fixture

type serviceFixture struct {
	profiles *fakeProfileRepository
	access   *fakeAccessRepository
	sessions *fakeSessionRepository

	service *account.Service
}

func newServiceFixture() *serviceFixture {
	fixture := &serviceFixture{
		profiles: newFakeProfileRepository(),
		access:   newFakeAccessRepository(),
		sessions: &fakeSessionRepository{},
	}

	fixture.service = account.NewService(
		fixture.profiles, fixture.access, fixture.sessions,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return fixture
}

// seedUser stores an account row with one role, its permissions, and an
// active plus a displaced session.
func (fixture *serviceFixture) seedUser(t *testing.T, email string) *auth.User {
	t.Helper()

	user := &auth.User{
		UUID:     uuidv7.New(),
		Email:    email,
		Name:     "Reader",
		IsActive: true,
	}
	fixture.profiles.users[user.UUID] = user

	role := auth.Role{UUID: uuidv7.New(), Name: sec.RoleRegistered}
	fixture.access.rolesByUser[user.UUID] = []auth.Role{role}
	fixture.access.permissionsByUser[user.UUID] = []auth.Permission{
		{UUID: uuidv7.New(), Name: sec.PermissionReadUsers},
		{UUID: uuidv7.New(), Name: sec.PermissionReadRatings},
	}

	fixture.sessions.sessions = []auth.Session{
		{UUID: uuidv7.New(), UserUUID: user.UUID, UserAgent: "Chrome/126.0", IP: "203.0.113.7", IsActive: true},
		{UUID: uuidv7.New(), UserUUID: user.UUID, UserAgent: "Firefox/128.0", IP: "198.51.100.23", IsActive: false},
	}
	return user
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()

	require.Error(t, err)
	appError := apperr.As(err)
	require.NotNil(t, appError, "expected an AppError, got %v", err)
	assert.Equal(t, code, appError.Code)
}

// # Profile

/*
TestService_GetProfile verifies the hydrated identity descriptor: roles,
derived permissions, and only the live sessions.
*/
func TestService_GetProfile(t *testing.T) {
	fixture := newServiceFixture()
	seeded := fixture.seedUser(t, "reader@yomira.app")

	profile, err := fixture.service.GetProfile(context.Background(), seeded.UUID)
	require.NoError(t, err)

	assert.Equal(t, "reader@yomira.app", profile.Email)
	assert.Equal(t, []string{sec.RoleRegistered}, profile.RolesNames)
	assert.Equal(t, []string{sec.PermissionReadUsers, sec.PermissionReadRatings}, profile.PermissionsNames)
	assert.Len(t, profile.RolesUUIDs, 1)
	assert.Len(t, profile.PermissionsUUIDs, 2)

	// The displaced session stays out of the descriptor.
	require.Len(t, profile.ActiveSessionsUUIDs, 1)
	assert.Equal(t, fixture.sessions.sessions[0].UUID, profile.ActiveSessionsUUIDs[0])
}

func TestService_GetProfile_UnknownUser(t *testing.T) {
	fixture := newServiceFixture()

	_, err := fixture.service.GetProfile(context.Background(), uuidv7.New())
	assertCode(t, err, "NOT_FOUND")
}

/*
TestService_UpdateCredentials verifies partial updates: provided fields are
folded into canonical form, nil fields keep their current value.
*/
func TestService_UpdateCredentials(t *testing.T) {
	fixture := newServiceFixture()
	seeded := fixture.seedUser(t, "reader@yomira.app")

	t.Run("email_only", func(t *testing.T) {
		updated, err := fixture.service.UpdateCredentials(context.Background(), seeded.UUID,
			account.UpdateCredentialsInput{Email: pointer.To("  Renamed@Yomira.APP ")})
		require.NoError(t, err)

		assert.Equal(t, "renamed@yomira.app", updated.Email)
		assert.Equal(t, "Reader", updated.Name, "nil name keeps the current value")
		assert.Equal(t, "renamed@yomira.app", fixture.profiles.users[seeded.UUID].Email)
	})

	t.Run("name_only", func(t *testing.T) {
		updated, err := fixture.service.UpdateCredentials(context.Background(), seeded.UUID,
			account.UpdateCredentialsInput{Name: pointer.To("  Night   Reader ")})
		require.NoError(t, err)

		assert.Equal(t, "Night Reader", updated.Name)
		assert.Equal(t, "renamed@yomira.app", updated.Email, "nil email keeps the current value")
	})

	t.Run("descriptor_stays_hydrated", func(t *testing.T) {
		updated, err := fixture.service.UpdateCredentials(context.Background(), seeded.UUID,
			account.UpdateCredentialsInput{})
		require.NoError(t, err)
		assert.Equal(t, []string{sec.RoleRegistered}, updated.RolesNames)
	})
}

/*
TestService_UpdateCredentials_EmailCollision verifies that stealing another
account's address fails the same way registration does.
*/
func TestService_UpdateCredentials_EmailCollision(t *testing.T) {
	fixture := newServiceFixture()
	seeded := fixture.seedUser(t, "reader@yomira.app")
	fixture.profiles.users["other"] = &auth.User{UUID: "other", Email: "taken@yomira.app"}

	_, err := fixture.service.UpdateCredentials(context.Background(), seeded.UUID,
		account.UpdateCredentialsInput{Email: pointer.To("Taken@Yomira.APP")})
	assertCode(t, err, "USER_ALREADY_EXISTS")

	assert.Equal(t, "reader@yomira.app", fixture.profiles.users[seeded.UUID].Email,
		"failed update must not change the stored row")
}

/*
TestService_UpdatePassword verifies the hash swap and that existing sessions
survive a password change.
*/
func TestService_UpdatePassword(t *testing.T) {
	fixture := newServiceFixture()
	seeded := fixture.seedUser(t, "reader@yomira.app")

	updated, err := fixture.service.UpdatePassword(context.Background(), seeded.UUID, "n3w-s3cret-pass")
	require.NoError(t, err)

	stored := fixture.profiles.users[seeded.UUID]
	assert.True(t, sec.CheckPasswordHash("n3w-s3cret-pass", stored.PasswordHash))
	assert.Equal(t, []string{sec.RoleRegistered}, updated.RolesNames, "descriptor comes back hydrated")

	// A password change is not a device revocation.
	active, err := fixture.service.ListActiveSessions(context.Background(), seeded.UUID)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

// # Sessions

/*
TestService_ListSessions verifies the history page envelope and that the
caller's window and ordering reach the repository untouched.
*/
func TestService_ListSessions(t *testing.T) {
	fixture := newServiceFixture()
	seeded := fixture.seedUser(t, "reader@yomira.app")

	params := account.SessionListParams{
		Page:    pagination.Params{Page: 2, Limit: 10},
		OrderBy: account.SessionOrderByUserAgent,
		Order:   account.OrderAsc,
	}

	page, err := fixture.service.ListSessions(context.Background(), seeded.UUID, params)
	require.NoError(t, err)

	assert.Equal(t, 2, page.TotalCount, "history counts displaced sessions too")
	assert.Len(t, page.Sessions, 2)
	assert.Equal(t, params, fixture.sessions.gotParams)
}

// # Permissions

/*
TestService_ListPermissions verifies the effective permission projection.
*/
func TestService_ListPermissions(t *testing.T) {
	fixture := newServiceFixture()
	seeded := fixture.seedUser(t, "reader@yomira.app")

	permissions, err := fixture.service.ListPermissions(context.Background(), seeded.UUID)
	require.NoError(t, err)

	names := []string{}
	for _, permission := range permissions {
		names = append(names, permission.Name)
	}
	assert.Equal(t, []string{sec.PermissionReadUsers, sec.PermissionReadRatings}, names)
}
