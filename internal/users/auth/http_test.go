// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-auth/internal/platform/constants"
	"github.com/taibuivan/yomira-auth/internal/platform/middleware"
	"github.com/taibuivan/yomira-auth/internal/platform/oauth"
	"github.com/taibuivan/yomira-auth/internal/platform/respond"
	"github.com/taibuivan/yomira-auth/internal/platform/sec"
	"github.com/taibuivan/yomira-auth/internal/users/auth"
)

// newAuthAPI mounts the auth routes the way the server does: behind the
// Authenticate middleware, under the /api/v1/auth prefix.
func newAuthAPI(fixture *serviceFixture) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Authenticate(fixture.service))
	router.Mount("/api/v1/auth", auth.NewHandler(fixture.service).Routes())
	return router
}

func jsonRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)
	request := httptest.NewRequest(method, target, bytes.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	return request
}

func formRequest(target string, form url.Values) *http.Request {
	request := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return request
}

// withFingerprint pins the request to a client fingerprint the way the edge
// proxy would: ip in X-Forwarded-For, useragent in User-Agent.
func withFingerprint(request *http.Request, requestContext sec.RequestContext) *http.Request {
	request.Header.Set(constants.HeaderXForwardedFor, requestContext.IP)
	request.Header.Set("User-Agent", requestContext.UserAgent)
	return request
}

func do(router http.Handler, request *http.Request) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func decodeJSON(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(target))
}

func decodeErrorEnvelope(t *testing.T, recorder *httptest.ResponseRecorder) respond.ErrorEnvelope {
	t.Helper()

	var envelope respond.ErrorEnvelope
	decodeJSON(t, recorder, &envelope)
	return envelope
}

// httpLogin performs a form login over the wire and returns the minted pair.
func httpLogin(t *testing.T, router http.Handler, email, password string, requestContext sec.RequestContext) sec.TokenPair {
	t.Helper()

	form := url.Values{"username": {email}, "password": {password}}
	recorder := do(router, withFingerprint(formRequest("/api/v1/auth/login", form), requestContext))
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var pair sec.TokenPair
	decodeJSON(t, recorder, &pair)
	return pair
}

// # Registration Endpoint

/*
TestHandler_Register covers the JSON contract of POST /register: validation
envelope on bad input, bare user representation on success.
*/
func TestHandler_Register(t *testing.T) {
	fixture := newServiceFixture(t)
	router := newAuthAPI(fixture)

	t.Run("success", func(t *testing.T) {
		recorder := do(router, jsonRequest(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
			"email":    "reader@yomira.app",
			"password": "s3cretpass",
			"name":     "Reader",
		}))
		require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

		var user auth.User
		decodeJSON(t, recorder, &user)
		assert.Equal(t, "reader@yomira.app", user.Email)
		assert.False(t, user.IsActive)
		assert.Equal(t, []string{sec.RoleRegistered}, user.RolesNames)
	})

	t.Run("duplicate_email", func(t *testing.T) {
		recorder := do(router, jsonRequest(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
			"email":    "reader@yomira.app",
			"password": "an0therpass",
			"name":     "Reader Again",
		}))
		require.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
		assert.Equal(t, "USER_ALREADY_EXISTS", decodeErrorEnvelope(t, recorder).Code)
	})

	t.Run("malformed_body", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader("{not json"))
		recorder := do(router, request)
		require.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, "VALIDATION_ERROR", decodeErrorEnvelope(t, recorder).Code)
	})

	t.Run("field_validation", func(t *testing.T) {
		tests := []struct {
			name      string
			payload   map[string]string
			wantField string
		}{
			{"missing_email", map[string]string{"password": "s3cretpass", "name": "R"}, "email"},
			{"bad_email", map[string]string{"email": "not-an-email", "password": "s3cretpass", "name": "R"}, "email"},
			{"short_password", map[string]string{"email": "a@b.dev", "password": "short", "name": "R"}, "password"},
			{"missing_name", map[string]string{"email": "a@b.dev", "password": "s3cretpass"}, "name"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				recorder := do(router, jsonRequest(t, http.MethodPost, "/api/v1/auth/register", tt.payload))
				require.Equal(t, http.StatusBadRequest, recorder.Code)

				envelope := decodeErrorEnvelope(t, recorder)
				assert.Equal(t, "VALIDATION_ERROR", envelope.Code)
				require.NotEmpty(t, envelope.Details)

				fields := []string{}
				for _, detail := range envelope.Details {
					fields = append(fields, detail.Field)
				}
				assert.Contains(t, fields, tt.wantField)
			})
		}
	})
}

// # Login Endpoint

/*
TestHandler_Login covers the OAuth2 password-grant form contract: the
username field carries the email, and the minted claims are bound to the
proxy-reported fingerprint.
*/
func TestHandler_Login(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.seedActiveUser(t, "reader@yomira.app", "s3cretpass")
	router := newAuthAPI(fixture)

	t.Run("success", func(t *testing.T) {
		pair := httpLogin(t, router, "reader@yomira.app", "s3cretpass", chromeContext)
		assert.Equal(t, "bearer", pair.TokenType)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)

		claims, err := fixture.tokens.Decode(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, chromeContext, claims.Context())
	})

	t.Run("missing_fields", func(t *testing.T) {
		recorder := do(router, withFingerprint(
			formRequest("/api/v1/auth/login", url.Values{"username": {"reader@yomira.app"}}), chromeContext))
		require.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, "VALIDATION_ERROR", decodeErrorEnvelope(t, recorder).Code)
	})

	t.Run("wrong_password", func(t *testing.T) {
		form := url.Values{"username": {"reader@yomira.app"}, "password": {"wr0ngpass"}}
		recorder := do(router, withFingerprint(formRequest("/api/v1/auth/login", form), chromeContext))
		require.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
		assert.Equal(t, "INVALID_CREDENTIALS", decodeErrorEnvelope(t, recorder).Code)
	})

	t.Run("unknown_email", func(t *testing.T) {
		form := url.Values{"username": {"ghost@yomira.app"}, "password": {"s3cretpass"}}
		recorder := do(router, withFingerprint(formRequest("/api/v1/auth/login", form), chromeContext))
		require.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Equal(t, "UNAUTHORIZED", decodeErrorEnvelope(t, recorder).Code)
	})
}

// # Token Endpoints

/*
TestHandler_RefreshAccessToken verifies the rotation contract over the wire:
the submitted token must still verify against the live fingerprint, and it
dies as soon as the rotated pair is issued.
*/
func TestHandler_RefreshAccessToken(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.seedActiveUser(t, "reader@yomira.app", "s3cretpass")
	router := newAuthAPI(fixture)

	pair := httpLogin(t, router, "reader@yomira.app", "s3cretpass", chromeContext)

	t.Run("missing_token", func(t *testing.T) {
		recorder := do(router, withFingerprint(
			jsonRequest(t, http.MethodPost, "/api/v1/auth/refresh-access-token", map[string]string{}), chromeContext))
		require.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("foreign_fingerprint", func(t *testing.T) {
		recorder := do(router, withFingerprint(
			jsonRequest(t, http.MethodPost, "/api/v1/auth/refresh-access-token",
				map[string]string{"refresh_token": pair.RefreshToken}), firefoxContext))
		require.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("rotation", func(t *testing.T) {
		recorder := do(router, withFingerprint(
			jsonRequest(t, http.MethodPost, "/api/v1/auth/refresh-access-token",
				map[string]string{"refresh_token": pair.RefreshToken}), chromeContext))
		require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

		var rotated sec.TokenPair
		decodeJSON(t, recorder, &rotated)
		assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

		// The spent token is refused on a replay.
		recorder = do(router, withFingerprint(
			jsonRequest(t, http.MethodPost, "/api/v1/auth/refresh-access-token",
				map[string]string{"refresh_token": pair.RefreshToken}), chromeContext))
		require.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}

/*
TestHandler_VerifyAccessToken covers the introspection endpoint sibling
services call: the fingerprint in the body is the one that counts, not the
transport's.
*/
func TestHandler_VerifyAccessToken(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.seedActiveUser(t, "reader@yomira.app", "s3cretpass")
	router := newAuthAPI(fixture)

	pair := httpLogin(t, router, "reader@yomira.app", "s3cretpass", chromeContext)

	t.Run("success", func(t *testing.T) {
		// No fingerprint headers on purpose: the sibling forwards its own
		// client's fingerprint in the body.
		recorder := do(router, jsonRequest(t, http.MethodPost, "/api/v1/auth/verify-access-token", map[string]string{
			"ip":           chromeContext.IP,
			"useragent":    chromeContext.UserAgent,
			"access_token": pair.AccessToken,
		}))
		require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

		var claims sec.TokenClaims
		decodeJSON(t, recorder, &claims)
		assert.Equal(t, "reader@yomira.app", claims.Email)
		assert.Equal(t, sec.TokenTypeAccess, claims.Type)
		assert.ElementsMatch(t, sec.RegisteredRolePermissions(), claims.Permissions)
	})

	t.Run("forwarded_fingerprint_mismatch", func(t *testing.T) {
		recorder := do(router, jsonRequest(t, http.MethodPost, "/api/v1/auth/verify-access-token", map[string]string{
			"ip":           "192.0.2.99",
			"useragent":    chromeContext.UserAgent,
			"access_token": pair.AccessToken,
		}))
		require.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("missing_fields", func(t *testing.T) {
		recorder := do(router, jsonRequest(t, http.MethodPost, "/api/v1/auth/verify-access-token", map[string]string{
			"access_token": pair.AccessToken,
		}))
		require.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

// # Email Confirmation Endpoint

/*
TestHandler_ConfirmEmail covers the landing link delivered by email.
*/
func TestHandler_ConfirmEmail(t *testing.T) {
	fixture := newServiceFixture(t)
	router := newAuthAPI(fixture)

	recorder := do(router, jsonRequest(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email": "reader@yomira.app", "password": "s3cretpass", "name": "Reader",
	}))
	require.Equal(t, http.StatusOK, recorder.Code)

	var user auth.User
	decodeJSON(t, recorder, &user)

	registerToken, err := fixture.tokens.MintRegisterToken(user.UUID, user.Email)
	require.NoError(t, err)

	t.Run("activates", func(t *testing.T) {
		recorder := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/auth/confirm-email/"+registerToken, nil))
		require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

		var confirmed auth.User
		decodeJSON(t, recorder, &confirmed)
		assert.True(t, confirmed.IsActive)
	})

	t.Run("bad_token", func(t *testing.T) {
		recorder := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/auth/confirm-email/garbage", nil))
		require.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Equal(t, "UNAUTHORIZED", decodeErrorEnvelope(t, recorder).Code)
	})
}

// # OAuth Endpoints

/*
TestHandler_OAuth walks the two-endpoint flow: the consent redirect parks a
state nonce, and the provider callback consumes it exactly once.
*/
func TestHandler_OAuth(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.oauth.identity = &oauth.Identity{
		SocialUUID: "google-user-1", Email: "traveler@gmail.com", Name: "Traveler",
	}
	router := newAuthAPI(fixture)

	t.Run("unknown_provider", func(t *testing.T) {
		recorder := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/auth/login-oauth/github", nil))
		require.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, "VALIDATION_ERROR", decodeErrorEnvelope(t, recorder).Code)
	})

	t.Run("redirect_missing_params", func(t *testing.T) {
		recorder := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/auth/oauth-redirect/google", nil))
		require.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("full_flow", func(t *testing.T) {
		// Step 1: start the flow; the consent URL carries a parked state.
		recorder := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/auth/login-oauth/google", nil))
		require.Equal(t, http.StatusFound, recorder.Code)

		location := recorder.Header().Get("Location")
		require.NotEmpty(t, location)
		consentURL, err := url.Parse(location)
		require.NoError(t, err)
		state := consentURL.Query().Get("state")
		require.NotEmpty(t, state)

		// Step 2: the provider calls back with code and state.
		callback := "/api/v1/auth/oauth-redirect/google?code=code-1&state=" + state
		recorder = do(router, withFingerprint(httptest.NewRequest(http.MethodGet, callback, nil), chromeContext))
		require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

		var pair sec.TokenPair
		decodeJSON(t, recorder, &pair)
		claims, err := fixture.tokens.Decode(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, sec.ProviderGoogle, claims.OAuthType)
		assert.Equal(t, "traveler@gmail.com", claims.Email)

		// Step 3: replaying the callback finds the state spent.
		recorder = do(router, withFingerprint(httptest.NewRequest(http.MethodGet, callback, nil), chromeContext))
		require.Equal(t, http.StatusConflict, recorder.Code)
		assert.Equal(t, "STATE_MISMATCH", decodeErrorEnvelope(t, recorder).Code)
	})
}

// # Logout Endpoints

/*
TestHandler_Logout covers the protected session-termination endpoints and
the Authenticate/RequireAuth interplay around them.
*/
func TestHandler_Logout(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.seedActiveUser(t, "reader@yomira.app", "s3cretpass")
	router := newAuthAPI(fixture)

	pair := httpLogin(t, router, "reader@yomira.app", "s3cretpass", chromeContext)

	bearerRequest := func(target string, accessToken string, requestContext sec.RequestContext) *http.Request {
		request := httptest.NewRequest(http.MethodPost, target, nil)
		request.Header.Set(constants.HeaderAuthorization, "Bearer "+accessToken)
		return withFingerprint(request, requestContext)
	}

	t.Run("anonymous_is_refused", func(t *testing.T) {
		recorder := do(router, httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))
		require.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("malformed_authorization_header", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
		request.Header.Set(constants.HeaderAuthorization, "Token abc")
		recorder := do(router, request)
		require.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("logout_revokes_the_pair", func(t *testing.T) {
		recorder := do(router, bearerRequest("/api/v1/auth/logout", pair.AccessToken, chromeContext))
		require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

		var acknowledgement map[string]string
		decodeJSON(t, recorder, &acknowledgement)
		assert.Equal(t, constants.DetailOK, acknowledgement["detail"])

		// The token no longer authenticates.
		recorder = do(router, bearerRequest("/api/v1/auth/logout", pair.AccessToken, chromeContext))
		require.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("logout_all_sweeps_every_device", func(t *testing.T) {
		chromePair := httpLogin(t, router, "reader@yomira.app", "s3cretpass", chromeContext)
		firefoxPair := httpLogin(t, router, "reader@yomira.app", "s3cretpass", firefoxContext)

		recorder := do(router, bearerRequest("/api/v1/auth/logout-all", chromePair.AccessToken, chromeContext))
		require.Equal(t, http.StatusOK, recorder.Code)

		recorder = do(router, bearerRequest("/api/v1/auth/logout", firefoxPair.AccessToken, firefoxContext))
		require.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}
