// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package role

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/yomira-auth/internal/platform/constants"
	"github.com/taibuivan/yomira-auth/internal/platform/middleware"
	requestutil "github.com/taibuivan/yomira-auth/internal/platform/request"
	"github.com/taibuivan/yomira-auth/internal/platform/respond"
	"github.com/taibuivan/yomira-auth/internal/platform/sec"
	"github.com/taibuivan/yomira-auth/internal/platform/validate"
	"github.com/taibuivan/yomira-auth/internal/users/auth"
)

// Handler implements the HTTP layer for role administration.
type Handler struct {
	roleService *Service
}

// NewHandler constructs a new role [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{roleService: service}
}

// Routes returns a [chi.Router] configured with the role admin endpoints.
//
// # Endpoints
//   - GET    /        : List roles with permission projections.
//   - POST   /        : Create a role with an initial permission set.
//   - PUT    /{uuid}  : Replace a role's permission set.
//   - DELETE /{uuid}  : Delete a role.
//
// Every route requires the all_of_all permission.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequirePermission(sec.PermissionAllOfAll))

	router.Get("/", handler.list)
	router.Post("/", handler.create)
	router.Put("/{uuid}", handler.update)
	router.Delete("/{uuid}", handler.delete)

	return router
}

/*
List returns every role.

GET /api/v1/roles/

Response:
  - 200: []auth.Role: Roles with permissions_uuids and permissions_names
  - 401: Unauthorized: Missing authentication or all_of_all
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	roles, err := handler.roleService.List(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, roles)
}

/*
Create persists a new role.

POST /api/v1/roles/

Request:
  - Body: CreateInput (name, permissions_uuids)

Response:
  - 201: auth.Role: The created role
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 401: Unauthorized: Missing authentication or all_of_all
  - 409: Conflict: A role with the same name exists
  - 422: Unprocessable: Unknown permission uuid
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input CreateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(auth.FieldName, input.Name).
		MaxLen(auth.FieldName, input.Name, auth.MaxNameLength)
	for _, permissionUUID := range input.PermissionsUUIDs {
		validator.UUID("permissions_uuids", permissionUUID)
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	role, err := handler.roleService.Create(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, role)
}

/*
Update replaces a role's permission set.

PUT /api/v1/roles/{uuid}

Request:
  - uuid: string (Role UUID)
  - Body: UpdateInput (permissions_uuids; empty list strips the role)

Response:
  - 200: auth.Role: The updated role
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 401: Unauthorized: Missing authentication or all_of_all
  - 404: NotFound: Unknown role
  - 422: Unprocessable: Unknown permission uuid
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	roleUUID := requestutil.ID(request, "uuid")

	var input UpdateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.UUID("uuid", roleUUID)
	for _, permissionUUID := range input.PermissionsUUIDs {
		validator.UUID("permissions_uuids", permissionUUID)
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	role, err := handler.roleService.Update(request.Context(), roleUUID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, role)
}

/*
Delete removes a role.

DELETE /api/v1/roles/{uuid}

Response:
  - 200: {"detail": "ok"}
  - 400: Validation: Malformed uuid
  - 401: Unauthorized: Missing authentication or all_of_all
  - 404: NotFound: Unknown role
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	roleUUID := requestutil.ID(request, "uuid")

	validator := &validate.Validator{}
	if err := validator.UUID("uuid", roleUUID).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.roleService.Delete(request.Context(), roleUUID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Detail(writer, constants.DetailOK)
}
