// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-auth/internal/platform/sec"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient("http://auth.local:8081",
		Credentials{ClientID: "google-id", ClientSecret: "google-secret"},
		Credentials{ClientID: "yandex-id", ClientSecret: "yandex-secret"},
	)

	// Point every provider endpoint at the stub server.
	client.endpoints = map[sec.Provider]endpoints{
		sec.ProviderGoogle: {
			authorize: server.URL + "/google/auth",
			token:     server.URL + "/google/token",
			userInfo:  server.URL + "/google/userinfo",
		},
		sec.ProviderYandex: {
			authorize: server.URL + "/yandex/auth",
			token:     server.URL + "/yandex/token",
			userInfo:  server.URL + "/yandex/userinfo",
		},
	}
	return client
}

/*
TestClient_AuthorizationURL checks consent URL assembly per provider.
*/
func TestClient_AuthorizationURL(t *testing.T) {
	client := NewClient("http://auth.local:8081",
		Credentials{ClientID: "google-id"},
		Credentials{ClientID: "yandex-id"},
	)

	t.Run("google_carries_scope", func(t *testing.T) {
		rawURL, err := client.AuthorizationURL(sec.ProviderGoogle, "state-123")
		require.NoError(t, err)

		parsed, err := url.Parse(rawURL)
		require.NoError(t, err)

		assert.Equal(t, "accounts.google.com", parsed.Host)
		query := parsed.Query()
		assert.Equal(t, "code", query.Get("response_type"))
		assert.Equal(t, "google-id", query.Get("client_id"))
		assert.Equal(t, "state-123", query.Get("state"))
		assert.Equal(t, "openid email profile", query.Get("scope"))
		assert.Equal(t, "http://auth.local:8081/api/v1/auth/oauth-redirect/google", query.Get("redirect_uri"))
	})

	t.Run("yandex_no_scope", func(t *testing.T) {
		rawURL, err := client.AuthorizationURL(sec.ProviderYandex, "state-456")
		require.NoError(t, err)

		parsed, err := url.Parse(rawURL)
		require.NoError(t, err)

		assert.Equal(t, "oauth.yandex.com", parsed.Host)
		query := parsed.Query()
		assert.Equal(t, "yandex-id", query.Get("client_id"))
		assert.Equal(t, "state-456", query.Get("state"))
		assert.Empty(t, query.Get("scope"))
	})

	t.Run("unknown_provider", func(t *testing.T) {
		_, err := client.AuthorizationURL(sec.Provider("github"), "state")
		assert.Error(t, err)
	})
}

/*
TestClient_ExchangeCode verifies the code-for-token POST and its error paths.
*/
func TestClient_ExchangeCode(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/google/token", r.URL.Path)
			require.NoError(t, r.ParseForm())

			assert.Equal(t, "the-code", r.PostFormValue("code"))
			assert.Equal(t, "google-id", r.PostFormValue("client_id"))
			assert.Equal(t, "google-secret", r.PostFormValue("client_secret"))
			assert.Equal(t, "authorization_code", r.PostFormValue("grant_type"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"provider-token","token_type":"bearer"}`))
		}))

		token, err := client.ExchangeCode(context.Background(), sec.ProviderGoogle, "the-code")
		require.NoError(t, err)
		assert.Equal(t, "provider-token", token)
	})

	t.Run("provider_refuses", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))

		_, err := client.ExchangeCode(context.Background(), sec.ProviderGoogle, "bad-code")
		assert.Error(t, err)
	})

	t.Run("empty_access_token", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))

		_, err := client.ExchangeCode(context.Background(), sec.ProviderGoogle, "the-code")
		assert.Error(t, err)
	})
}

/*
TestClient_FetchIdentity verifies provider payload normalization into Identity.
*/
func TestClient_FetchIdentity(t *testing.T) {
	t.Run("google", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/google/userinfo", r.URL.Path)
			assert.Equal(t, "Bearer provider-token", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"id":"g1","email":"g@ex.com","name":"G User"}`))
		}))

		identity, err := client.FetchIdentity(context.Background(), sec.ProviderGoogle, "provider-token")
		require.NoError(t, err)
		assert.Equal(t, "g1", identity.SocialUUID)
		assert.Equal(t, "g@ex.com", identity.Email)
		assert.Equal(t, "G User", identity.Name)
	})

	t.Run("yandex_composes_name", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/yandex/userinfo", r.URL.Path)
			_, _ = w.Write([]byte(`{"id":"y1","first_name":"Ya","last_name":"User","default_email":"y@ex.com"}`))
		}))

		identity, err := client.FetchIdentity(context.Background(), sec.ProviderYandex, "provider-token")
		require.NoError(t, err)
		assert.Equal(t, "y1", identity.SocialUUID)
		assert.Equal(t, "y@ex.com", identity.Email)
		assert.Equal(t, "Ya User", identity.Name)
	})

	t.Run("revoked_token", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))

		_, err := client.FetchIdentity(context.Background(), sec.ProviderGoogle, "revoked")
		assert.Error(t, err)
	})
}
