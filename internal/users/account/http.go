// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/yomira-auth/internal/platform/middleware"
	requestutil "github.com/taibuivan/yomira-auth/internal/platform/request"
	"github.com/taibuivan/yomira-auth/internal/platform/respond"
	"github.com/taibuivan/yomira-auth/internal/platform/validate"
	"github.com/taibuivan/yomira-auth/internal/users/auth"
	"github.com/taibuivan/yomira-auth/pkg/pagination"
)

// Handler implements the HTTP layer of the authenticated /me surface.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] configured with the /me endpoints.
//
// # Endpoints
//   - GET /                    : Identity descriptor with derived projections.
//   - GET /sessions            : Paginated session history.
//   - GET /sessions-active     : Currently live sessions.
//   - GET /permissions         : Effective permission set.
//   - PUT /update-credentials  : Email/name change.
//   - PUT /update-password     : Password rotation.
//
// Every route requires an authenticated session.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.getMe)
	router.Get("/sessions", handler.listSessions)
	router.Get("/sessions-active", handler.listActiveSessions)
	router.Get("/permissions", handler.listPermissions)
	router.Put("/update-credentials", handler.updateCredentials)
	router.Put("/update-password", handler.updatePassword)

	return router
}

// # Request Payloads

type updateCredentialsRequest struct {
	Email *string `json:"email"`
	Name  *string `json:"name"`
}

type updatePasswordRequest struct {
	Password string `json:"password"`
}

// # Profile Endpoints

/*
GetMe returns the authenticated user's identity descriptor.

GET /api/v1/me/

Response:
  - 200: auth.User: Descriptor with roles_names, permissions_names and
    active_sessions_uuids hydrated
  - 401: Unauthorized: Authentication required
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	userUUID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.GetProfile(request.Context(), userUUID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
UpdateCredentials applies a partial email/name change.

PUT /api/v1/me/update-credentials

Request:
  - Body: updateCredentialsRequest (Nil fields keep their current value)

Response:
  - 200: auth.User: The updated descriptor
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 401: Unauthorized: Authentication required
  - 422: UserAlreadyExists: Another account already owns the email
*/
func (handler *Handler) updateCredentials(writer http.ResponseWriter, request *http.Request) {
	userUUID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateCredentialsRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	if input.Email != nil {
		validator.Required(auth.FieldEmail, *input.Email).
			Email(auth.FieldEmail, *input.Email)
	}
	if input.Name != nil {
		validator.Required(auth.FieldName, *input.Name).
			MaxLen(auth.FieldName, *input.Name, auth.MaxNameLength)
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UpdateCredentials(request.Context(), userUUID, UpdateCredentialsInput{
		Email: input.Email,
		Name:  input.Name,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
UpdatePassword replaces the user's password.

PUT /api/v1/me/update-password

Description: Live sessions are kept; the endpoint rotates the credential
only. Clients wanting a global sign-out call /auth/logout-all afterwards.

Request:
  - Body: updatePasswordRequest

Response:
  - 200: auth.User: The updated descriptor
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 401: Unauthorized: Authentication required
*/
func (handler *Handler) updatePassword(writer http.ResponseWriter, request *http.Request) {
	userUUID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updatePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(auth.FieldPassword, input.Password).
		MinLen(auth.FieldPassword, input.Password, auth.MinPasswordLength)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UpdatePassword(request.Context(), userUUID, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// # Session Endpoints

/*
ListSessions returns one page of the user's session history.

GET /api/v1/me/sessions?page=&limit=&order_by=&order=

Request:
  - order_by: created_at | updated_at | useragent | ip (default created_at)
  - order: asc | desc (default desc)

Response:
  - 200: SessionPage: {sessions, total_count}
  - 400: Validation: Unknown sort key or direction
  - 401: Unauthorized: Authentication required
*/
func (handler *Handler) listSessions(writer http.ResponseWriter, request *http.Request) {
	userUUID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := SessionListParams{
		Page:    pagination.FromRequest(request),
		OrderBy: request.URL.Query().Get("order_by"),
		Order:   request.URL.Query().Get("order"),
	}
	if params.OrderBy == "" {
		params.OrderBy = SessionOrderByCreatedAt
	}
	if params.Order == "" {
		params.Order = OrderDesc
	}

	validator := &validate.Validator{}
	validator.OneOf("order_by", params.OrderBy,
		SessionOrderByCreatedAt, SessionOrderByUpdatedAt, SessionOrderByUserAgent, SessionOrderByIP).
		OneOf("order", params.Order, OrderAsc, OrderDesc)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	page, err := handler.accountService.ListSessions(request.Context(), userUUID, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, page)
}

/*
ListActiveSessions returns every live session of the user.

GET /api/v1/me/sessions-active

Response:
  - 200: []auth.Session: Active sessions, newest first
  - 401: Unauthorized: Authentication required
*/
func (handler *Handler) listActiveSessions(writer http.ResponseWriter, request *http.Request) {
	userUUID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessions, err := handler.accountService.ListActiveSessions(request.Context(), userUUID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, sessions)
}

// # Permission Endpoints

/*
ListPermissions returns the user's effective permission set.

GET /api/v1/me/permissions

Response:
  - 200: []auth.Permission: Distinct permissions derived through roles
  - 401: Unauthorized: Authentication required
*/
func (handler *Handler) listPermissions(writer http.ResponseWriter, request *http.Request) {
	userUUID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	permissions, err := handler.accountService.ListPermissions(request.Context(), userUUID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, permissions)
}
