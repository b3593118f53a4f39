// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/yomira-auth/internal/platform/constants"
	"github.com/taibuivan/yomira-auth/internal/platform/middleware"
	requestutil "github.com/taibuivan/yomira-auth/internal/platform/request"
	"github.com/taibuivan/yomira-auth/internal/platform/respond"
	"github.com/taibuivan/yomira-auth/internal/platform/sec"
	"github.com/taibuivan/yomira-auth/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages everything related to the session lifecycle entry
// points (registration, email confirmation, local and OAuth login, token
// verification, refresh, logout).
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /register             : Creates a new inactive account.
//   - POST /login                : Authenticates and returns a token pair.
//   - POST /refresh-access-token : Rotates a refresh token into a new pair.
//   - POST /verify-access-token  : Token introspection for sibling services.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/refresh-access-token", handler.refreshAccessToken)
	router.Post("/verify-access-token", handler.verifyAccessToken)
	router.Get("/login-oauth/{provider}", handler.loginOAuth)
	router.Get("/oauth-redirect/{provider}", handler.oauthRedirect)
	router.Get("/confirm-email/{register_token}", handler.confirmEmail)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/logout", handler.logout)
		r.Post("/logout-all", handler.logoutAll)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type verifyTokenRequest struct {
	IP          string `json:"ip"`
	UserAgent   string `json:"useragent"`
	AccessToken string `json:"access_token"`
}

/*
Register handles the creation of a new user account.

POST /api/v1/auth/register

Description: Validates input, persists an inactive user with the registered
role, and triggers the email-confirmation handshake through the
notifications service.

Request:
  - Body: registerRequest (Email, Password, Name)

Response:
  - 200: User: Created profile, is_active = false
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 422: UserAlreadyExists: Email already registered
  - 500: UserWasNotRegistered: Notifications handshake refused
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, MinPasswordLength).
		Required(FieldName, input.Name).
		MaxLen(FieldName, input.Name, MaxNameLength)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Register(request.Context(), RegisterInput{
		Email:    input.Email,
		Password: input.Password,
		Name:     input.Name,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
Login authenticates local credentials and establishes a session.

POST /api/v1/auth/login

Description: Accepts the OAuth2 password-grant form (the username field
carries the email), displaces the previous session from the same
device/address, and returns a fresh token pair bound to the request
fingerprint.

Request:
  - Form: username (email), password

Response:
  - 200: sec.TokenPair: access_token, refresh_token, token_type
  - 401: Unauthorized: Unknown email or inactive account
  - 422: InvalidCredentials: Wrong password
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	if err := request.ParseForm(); err != nil {
		respond.Error(writer, request, validate.ErrInvalidForm)
		return
	}

	email := request.PostFormValue(formFieldUsername)
	password := request.PostFormValue(FieldPassword)

	validator := &validate.Validator{}
	validator.Required(formFieldUsername, email).
		Required(FieldPassword, password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	pair, err := handler.authService.Login(
		request.Context(),
		LoginInput{Email: email, Password: password},
		requestutil.Context(request),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, pair)
}

/*
RefreshAccessToken rotates a refresh token into a new pair.

POST /api/v1/auth/refresh-access-token

Description: The incoming refresh token is verified against the live request
fingerprint and the session cache before a new pair is minted; minting
overwrites the cache entry, so the submitted token dies with this call.

Request:
  - Body: refreshRequest (RefreshToken)

Response:
  - 200: sec.TokenPair: Fresh access_token and refresh_token
  - 401: Unauthorized: Stale, revoked, or fingerprint-mismatched token
*/
func (handler *Handler) refreshAccessToken(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldRefreshToken, input.RefreshToken)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if _, err := handler.authService.VerifyToken(request.Context(), input.RefreshToken, requestutil.Context(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	pair, err := handler.authService.Refresh(request.Context(), input.RefreshToken)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, pair)
}

/*
VerifyAccessToken introspects a token on behalf of a sibling service.

POST /api/v1/auth/verify-access-token

Description: Sibling services forward the token together with the
fingerprint of the request THEY received; verification binds the token to
that fingerprint, not to this call's transport.

Request:
  - Body: verifyTokenRequest (IP, UserAgent, AccessToken)

Response:
  - 200: sec.TokenClaims: Verified claim set
  - 401: Unauthorized: Any verification failure
*/
func (handler *Handler) verifyAccessToken(writer http.ResponseWriter, request *http.Request) {
	var input verifyTokenRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldIP, input.IP).
		Required(FieldUserAgent, input.UserAgent).
		Required(FieldAccessToken, input.AccessToken)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	claims, err := handler.authService.VerifyToken(
		request.Context(),
		input.AccessToken,
		sec.RequestContext{IP: input.IP, UserAgent: input.UserAgent},
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, claims)
}

/*
LoginOAuth starts an OAuth flow by redirecting to the provider.

GET /api/v1/auth/login-oauth/{provider}

Description: Parks an anti-CSRF state nonce and sends the client to the
provider's consent screen.

Response:
  - 302: Redirect to the provider consent URL
  - 400: ValidationError: Unknown provider
*/
func (handler *Handler) loginOAuth(writer http.ResponseWriter, request *http.Request) {
	provider, err := parseProviderParam(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	consentURL, err := handler.authService.OAuthLoginURL(request.Context(), provider)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	http.Redirect(writer, request, consentURL, http.StatusFound)
}

/*
OAuthRedirect completes an OAuth flow from the provider callback.

GET /api/v1/auth/oauth-redirect/{provider}?code=...&state=...

Description: Consumes the single-use state nonce, exchanges the code, and
materializes or links the local account before logging it in.

Response:
  - 200: sec.TokenPair: Pair embedding the provider token
  - 409: StateMismatch: Unknown, spent, or cross-provider state
  - 401: Unauthorized: Provider refused the code or the token
*/
func (handler *Handler) oauthRedirect(writer http.ResponseWriter, request *http.Request) {
	provider, err := parseProviderParam(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	code := request.URL.Query().Get(FieldCode)
	state := request.URL.Query().Get(FieldState)

	validator := &validate.Validator{}
	validator.Required(FieldCode, code).
		Required(FieldState, state)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	pair, err := handler.authService.OAuthLogin(request.Context(), provider, code, state, requestutil.Context(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, pair)
}

/*
ConfirmEmail activates the account a register token was minted for.

GET /api/v1/auth/confirm-email/{register_token}

Description: Landing endpoint for the link delivered by email. An expired
token triggers a replacement email and fails, so the client knows to check
their inbox again.

Response:
  - 200: User: Activated profile
  - 401: Unauthorized: Bad token, or expired token (replacement sent)
*/
func (handler *Handler) confirmEmail(writer http.ResponseWriter, request *http.Request) {
	registerToken := requestutil.Param(request, "register_token")

	user, err := handler.authService.ConfirmEmail(request.Context(), registerToken)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
Logout terminates the current session.

POST /api/v1/auth/logout

Description: Deactivates the session the presented access token was minted
for, revoking both tokens of its pair.

Response:
  - 200: {"detail": "ok"}
  - 401: Unauthorized: Authentication required
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.Logout(request.Context(), claims); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Detail(writer, constants.DetailOK)
}

/*
LogoutAll terminates every active session of the current user.

POST /api/v1/auth/logout-all

Description: Used after credential changes or suspected token theft.

Response:
  - 200: {"detail": "ok"}
  - 401: Unauthorized: Authentication required
*/
func (handler *Handler) logoutAll(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.LogoutAll(request.Context(), claims); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Detail(writer, constants.DetailOK)
}

// parseProviderParam validates and types the {provider} path segment.
func parseProviderParam(request *http.Request) (sec.Provider, error) {
	raw := requestutil.Param(request, FieldProvider)

	validator := &validate.Validator{}
	validator.OneOf(FieldProvider, raw, string(sec.ProviderGoogle), string(sec.ProviderYandex))

	if err := validator.Err(); err != nil {
		return "", err
	}

	provider, _ := sec.ParseProvider(raw)
	return provider, nil
}
