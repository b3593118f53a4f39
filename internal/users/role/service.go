// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package role

import (
	"context"
	"log/slog"

	"github.com/taibuivan/yomira-auth/internal/users/auth"
	"github.com/taibuivan/yomira-auth/pkg/uuidv7"
)

// Service orchestrates role administration.
//
// Changes take effect on the next minted token: permissions ride inside the
// JWT, so holders of an edited role keep their old set until refresh or
// re-login.
type Service struct {
	roleRepository Repository
	logger         *slog.Logger
}

// NewService constructs a new role [Service].
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		roleRepository: repo,
		logger:         logger,
	}
}

// List returns every role with its permission projections.
func (service *Service) List(context context.Context) ([]auth.Role, error) {
	return service.roleRepository.List(context)
}

/*
Create persists a new role with its initial permission set.

Parameters:
  - context: context.Context
  - input: CreateInput

Returns:
  - *auth.Role: The created, hydrated role
  - error: Conflict on a duplicate name, Unprocessable on unknown permissions
*/
func (service *Service) Create(context context.Context, input CreateInput) (*auth.Role, error) {
	role := &auth.Role{
		UUID: uuidv7.New(),
		Name: input.Name,
	}

	if err := service.roleRepository.Create(context, role, input.PermissionsUUIDs); err != nil {
		return nil, err
	}

	service.logger.Info("role_service_created",
		slog.String("role_uuid", role.UUID),
		slog.String("name", role.Name),
	)

	return service.roleRepository.FindByUUID(context, role.UUID)
}

/*
Update replaces a role's permission set wholesale.

Parameters:
  - context: context.Context
  - roleUUID: string
  - input: UpdateInput

Returns:
  - *auth.Role: The updated, hydrated role
  - error: apperr.NotFound, Unprocessable on unknown permissions
*/
func (service *Service) Update(context context.Context, roleUUID string, input UpdateInput) (*auth.Role, error) {
	if err := service.roleRepository.ReplacePermissions(context, roleUUID, input.PermissionsUUIDs); err != nil {
		return nil, err
	}

	service.logger.Info("role_service_permissions_replaced",
		slog.String("role_uuid", roleUUID),
		slog.Int("permission_count", len(input.PermissionsUUIDs)),
	)

	return service.roleRepository.FindByUUID(context, roleUUID)
}

/*
Delete removes a role. Holders lose it immediately for future logins; tokens
already in flight keep their embedded permissions until expiry.

Parameters:
  - context: context.Context
  - roleUUID: string

Returns:
  - error: apperr.NotFound or execution failures
*/
func (service *Service) Delete(context context.Context, roleUUID string) error {
	if err := service.roleRepository.Delete(context, roleUUID); err != nil {
		return err
	}

	service.logger.Warn("role_service_deleted", slog.String("role_uuid", roleUUID))

	return nil
}
