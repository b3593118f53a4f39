// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-auth/internal/platform/constants"
	"github.com/taibuivan/yomira-auth/internal/platform/middleware"
	"github.com/taibuivan/yomira-auth/internal/platform/sec"
)

// stubVerifier satisfies middleware.TokenVerifier and records what the
// middleware asked it to verify.
type stubVerifier struct {
	claims *sec.TokenClaims
	err    error

	gotToken   string
	gotContext sec.RequestContext
}

func (verifier *stubVerifier) VerifyToken(_ context.Context, tokenString string, requestContext sec.RequestContext) (*sec.TokenClaims, error) {
	verifier.gotToken = tokenString
	verifier.gotContext = requestContext
	if verifier.err != nil {
		return nil, verifier.err
	}
	return verifier.claims, nil
}

// okHandler responds 200 and captures the claims the middleware chain left in
// the request context.
func okHandler(seenClaims **sec.TokenClaims) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if seenClaims != nil {
			*seenClaims = middleware.GetUser(request.Context())
		}
		writer.WriteHeader(http.StatusOK)
	})
}

func serve(handler http.Handler, request *http.Request) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func accessClaims(subject string, permissions ...string) *sec.TokenClaims {
	return &sec.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
		Type:             sec.TokenTypeAccess,
		Permissions:      permissions,
	}
}

// # Request Tracing

/*
TestRequestID verifies correlation ID propagation: client-provided IDs are
kept, missing ones are generated.
*/
func TestRequestID(t *testing.T) {
	handler := middleware.RequestID()(okHandler(nil))

	t.Run("echoes_client_id", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set(constants.HeaderXRequestID, "client-supplied-id")

		recorder := serve(handler, request)
		assert.Equal(t, "client-supplied-id", recorder.Header().Get(constants.HeaderXRequestID))
	})

	t.Run("generates_when_missing", func(t *testing.T) {
		recorder := serve(handler, httptest.NewRequest(http.MethodGet, "/", nil))

		generated := recorder.Header().Get(constants.HeaderXRequestID)
		require.NotEmpty(t, generated)
		_, err := uuid.Parse(generated)
		assert.NoError(t, err, "generated request ID should be a UUID")
	})
}

/*
TestRequireRequestID verifies that API requests bypassing the gateway (no
X-Request-Id stamped) are refused.
*/
func TestRequireRequestID(t *testing.T) {
	handler := middleware.RequireRequestID(okHandler(nil))

	t.Run("blocks_without_header", func(t *testing.T) {
		recorder := serve(handler, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))
		require.Equal(t, http.StatusBadRequest, recorder.Code)

		var body map[string]string
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
		assert.Equal(t, "BAD_REQUEST", body[constants.FieldCode])
	})

	t.Run("passes_with_header", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
		request.Header.Set(constants.HeaderXRequestID, "stamped-by-gateway")

		recorder := serve(handler, request)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})
}

// # Authentication

/*
TestAuthenticate verifies header parsing, the anonymous pass-through, and
that verification is bound to the live request fingerprint.
*/
func TestAuthenticate(t *testing.T) {
	t.Run("anonymous_passes_through", func(t *testing.T) {
		verifier := &stubVerifier{}
		var seen *sec.TokenClaims
		handler := middleware.Authenticate(verifier)(okHandler(&seen))

		recorder := serve(handler, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Nil(t, seen)
		assert.Empty(t, verifier.gotToken, "verifier should not be called for anonymous requests")
	})

	t.Run("malformed_header", func(t *testing.T) {
		handler := middleware.Authenticate(&stubVerifier{})(okHandler(nil))

		for _, header := range []string{"Bearer", "Token abc", "Bearer a b"} {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			request.Header.Set(constants.HeaderAuthorization, header)
			recorder := serve(handler, request)
			assert.Equal(t, http.StatusUnauthorized, recorder.Code, "header %q", header)
		}
	})

	t.Run("valid_token_injects_claims", func(t *testing.T) {
		verifier := &stubVerifier{claims: accessClaims("user-123", sec.PermissionReadUsers)}
		var seen *sec.TokenClaims
		handler := middleware.Authenticate(verifier)(okHandler(&seen))

		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set(constants.HeaderAuthorization, "Bearer token-abc")
		request.Header.Set(constants.HeaderXForwardedFor, "203.0.113.7, 10.0.0.1")
		request.Header.Set("User-Agent", "Chrome/126.0")

		recorder := serve(handler, request)
		require.Equal(t, http.StatusOK, recorder.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "user-123", seen.Subject)

		assert.Equal(t, "token-abc", verifier.gotToken)
		// The whole forwarded chain is the fingerprint, not just the first hop.
		assert.Equal(t, sec.RequestContext{IP: "203.0.113.7, 10.0.0.1", UserAgent: "Chrome/126.0"}, verifier.gotContext)
	})

	t.Run("rejected_token", func(t *testing.T) {
		verifier := &stubVerifier{err: sec.ErrTokenInvalid}
		handler := middleware.Authenticate(verifier)(okHandler(nil))

		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set(constants.HeaderAuthorization, "Bearer stale-token")

		recorder := serve(handler, request)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}

/*
TestRequireAuth verifies the authenticated-only gate.
*/
func TestRequireAuth(t *testing.T) {
	t.Run("anonymous_is_refused", func(t *testing.T) {
		handler := middleware.Authenticate(&stubVerifier{})(middleware.RequireAuth(okHandler(nil)))
		recorder := serve(handler, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("authenticated_passes", func(t *testing.T) {
		verifier := &stubVerifier{claims: accessClaims("user-123")}
		handler := middleware.Authenticate(verifier)(middleware.RequireAuth(okHandler(nil)))

		request := httptest.NewRequest(http.MethodPost, "/", nil)
		request.Header.Set(constants.HeaderAuthorization, "Bearer token-abc")

		recorder := serve(handler, request)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})
}

/*
TestRequirePermission verifies the permission gate, including the all_of_all
wildcard held by superusers.
*/
func TestRequirePermission(t *testing.T) {
	guard := middleware.RequirePermission(sec.PermissionUpdateUsers)

	tests := []struct {
		name       string
		claims     *sec.TokenClaims
		wantStatus int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"missing_permission", accessClaims("u1", sec.PermissionReadUsers), http.StatusUnauthorized},
		{"exact_permission", accessClaims("u2", sec.PermissionUpdateUsers), http.StatusOK},
		{"wildcard", accessClaims("u3", sec.PermissionAllOfAll), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := &stubVerifier{claims: tt.claims}
			handler := middleware.Authenticate(verifier)(guard(okHandler(nil)))

			request := httptest.NewRequest(http.MethodPatch, "/", nil)
			if tt.claims != nil {
				request.Header.Set(constants.HeaderAuthorization, "Bearer token-abc")
			}

			recorder := serve(handler, request)
			assert.Equal(t, tt.wantStatus, recorder.Code)
		})
	}
}

// # Activity Logging

/*
TestStructuredLogger verifies the request log line and its level escalation
for error statuses.
*/
func TestStructuredLogger(t *testing.T) {
	respondWith := func(status int) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			writer.WriteHeader(status)
		})
	}

	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"ok_logs_info", http.StatusOK, "INFO"},
		{"client_error_logs_warn", http.StatusUnprocessableEntity, "WARN"},
		{"server_error_logs_error", http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logBuffer bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&logBuffer, nil))
			handler := middleware.StructuredLogger(logger)(respondWith(tt.status))

			serve(handler, httptest.NewRequest(http.MethodGet, "/api/v1/auth/login", nil))

			var entry map[string]any
			require.NoError(t, json.Unmarshal(logBuffer.Bytes(), &entry))
			assert.Equal(t, "http_request_finished", entry["msg"])
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, "/api/v1/auth/login", entry["path"])
			assert.Equal(t, float64(tt.status), entry["status"])
		})
	}
}

// # Reliability & Safety

/*
TestPanicRecovery verifies that a panicking handler produces a sanitized 500
and a logged stack trace instead of killing the server.
*/
func TestPanicRecovery(t *testing.T) {
	var logBuffer bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logBuffer, nil))

	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("session cache corrupted")
	})

	// StructuredLogger injects the logger PanicRecovery reports through.
	handler := middleware.StructuredLogger(logger)(middleware.PanicRecovery(logger)(panicking))

	recorder := serve(handler, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, recorder.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
	assert.Equal(t, "INTERNAL_SERVER_ERROR", body[constants.FieldCode])
	assert.NotContains(t, body[constants.FieldError], "session cache corrupted",
		"panic details must not leak to the client")

	logged := logBuffer.String()
	assert.Contains(t, logged, "panic_recovered")
	assert.Contains(t, logged, "session cache corrupted")
}

// # Rate Limiting

/*
TestRateLimit verifies per-IP throttling: one client exhausting its bucket
does not affect another.
*/
func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	handler := middleware.RateLimit(ctx)(okHandler(nil))

	hammer := func(ip string, count int) (allowed, throttled int) {
		for i := 0; i < count; i++ {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			request.Header.Set(constants.HeaderXRealIP, ip)
			switch serve(handler, request).Code {
			case http.StatusOK:
				allowed++
			case http.StatusTooManyRequests:
				throttled++
			}
		}
		return allowed, throttled
	}

	allowed, throttled := hammer("198.51.100.200", constants.DefaultRateLimitBurst+50)
	assert.GreaterOrEqual(t, allowed, constants.DefaultRateLimitBurst)
	assert.Positive(t, throttled, "burst-exceeding client should be throttled")

	// A different IP has its own untouched bucket.
	allowed, throttled = hammer("198.51.100.201", 5)
	assert.Equal(t, 5, allowed)
	assert.Zero(t, throttled)
}

// # Cross-Origin Resource Sharing

type stubConfig struct{ dev bool }

func (cfg stubConfig) IsDevelopment() bool { return cfg.dev }

/*
TestCORS verifies origin policy: open in development, first-party only in
production, and the pre-flight short circuit.
*/
func TestCORS(t *testing.T) {
	withOrigin := func(method, origin string) *http.Request {
		request := httptest.NewRequest(method, "/", nil)
		if origin != "" {
			request.Header.Set(constants.HeaderOrigin, origin)
		}
		return request
	}

	t.Run("no_origin_passes_clean", func(t *testing.T) {
		handler := middleware.CORS(stubConfig{dev: false})(okHandler(nil))
		recorder := serve(handler, withOrigin(http.MethodGet, ""))
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("development_allows_any_origin", func(t *testing.T) {
		handler := middleware.CORS(stubConfig{dev: true})(okHandler(nil))
		recorder := serve(handler, withOrigin(http.MethodGet, "http://localhost:3000"))
		assert.Equal(t, "http://localhost:3000", recorder.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("production_allows_first_party_only", func(t *testing.T) {
		handler := middleware.CORS(stubConfig{dev: false})(okHandler(nil))

		recorder := serve(handler, withOrigin(http.MethodGet, "https://reader.yomira.app"))
		assert.Equal(t, "https://reader.yomira.app", recorder.Header().Get("Access-Control-Allow-Origin"))

		recorder = serve(handler, withOrigin(http.MethodGet, "https://evil.example.com"))
		assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight_short_circuits", func(t *testing.T) {
		handler := middleware.CORS(stubConfig{dev: true})(okHandler(nil))
		recorder := serve(handler, withOrigin(http.MethodOptions, "http://localhost:3000"))
		assert.Equal(t, http.StatusNoContent, recorder.Code)
	})
}

// # Helpers

/*
TestRealIP verifies proxy header precedence for client IP extraction.
*/
func TestRealIP(t *testing.T) {
	tests := []struct {
		name       string
		realIP     string
		forwarded  string
		remoteAddr string
		want       string
	}{
		{"x_real_ip_wins", "203.0.113.9", "198.51.100.1, 10.0.0.1", "192.0.2.1:1234", "203.0.113.9"},
		{"forwarded_first_hop", "", "198.51.100.1, 10.0.0.1", "192.0.2.1:1234", "198.51.100.1"},
		{"remote_addr_fallback", "", "", "192.0.2.1:1234", "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			request.RemoteAddr = tt.remoteAddr
			if tt.realIP != "" {
				request.Header.Set(constants.HeaderXRealIP, tt.realIP)
			}
			if tt.forwarded != "" {
				request.Header.Set(constants.HeaderXForwardedFor, tt.forwarded)
			}

			assert.Equal(t, tt.want, middleware.RealIP(request))
		})
	}
}
