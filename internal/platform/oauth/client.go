// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package oauth talks to the external OAuth2 providers (Google, Yandex).

It covers the three provider-facing steps of the authorization-code flow:
building the consent URL, exchanging the callback code for an access token,
and fetching the user's identity with that token.

Provider-specific payload shapes are normalized here into [Identity]; the
auth domain never sees raw provider JSON.
*/
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/taibuivan/yomira-auth/internal/platform/constants"
	"github.com/taibuivan/yomira-auth/internal/platform/sec"
)

// Identity is the normalized identity payload returned by every provider.
type Identity struct {
	// SocialUUID is the provider-scoped account identifier.
	SocialUUID string
	Email      string
	Name       string
}

// Credentials is a provider's client id/secret pair.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// endpoints groups the three URLs of one provider's code flow.
type endpoints struct {
	authorize string
	token     string
	userInfo  string
}

var providerEndpoints = map[sec.Provider]endpoints{
	sec.ProviderGoogle: {
		authorize: "https://accounts.google.com/o/oauth2/v2/auth",
		token:     "https://oauth2.googleapis.com/token",
		userInfo:  "https://www.googleapis.com/oauth2/v1/userinfo",
	},
	sec.ProviderYandex: {
		authorize: "https://oauth.yandex.com/authorize",
		token:     "https://oauth.yandex.com/token",
		userInfo:  "https://login.yandex.ru/info",
	},
}

// Client drives the authorization-code flow against both providers.
type Client struct {
	httpClient   *http.Client
	endpoints    map[sec.Provider]endpoints
	credentials  map[sec.Provider]Credentials
	redirectBase string
}

// NewClient creates a provider client.
//
// # Parameters
//   - redirectBase: this service's externally reachable root URL; the
//     per-provider callback path is appended to it.
//   - google, yandex: provider credentials.
func NewClient(redirectBase string, google, yandex Credentials) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: constants.OutboundRequestTimeout},
		endpoints:  providerEndpoints,
		credentials: map[sec.Provider]Credentials{
			sec.ProviderGoogle: google,
			sec.ProviderYandex: yandex,
		},
		redirectBase: redirectBase,
	}
}

// RedirectURI returns the callback URL registered with the provider.
func (client *Client) RedirectURI(provider sec.Provider) string {
	return client.redirectBase + "/api/v1/auth/oauth-redirect/" + string(provider)
}

// AuthorizationURL builds the consent-screen URL carrying the state challenge.
func (client *Client) AuthorizationURL(provider sec.Provider, state string) (string, error) {
	providerURLs, credentials, err := client.lookup(provider)
	if err != nil {
		return "", err
	}

	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", credentials.ClientID)
	query.Set("redirect_uri", client.RedirectURI(provider))
	query.Set("state", state)
	if provider == sec.ProviderGoogle {
		query.Set("scope", "openid email profile")
	}

	return providerURLs.authorize + "?" + query.Encode(), nil
}

// ExchangeCode trades the callback code for the provider's access token.
func (client *Client) ExchangeCode(ctx context.Context, provider sec.Provider, code string) (string, error) {
	providerURLs, credentials, err := client.lookup(provider)
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("code", code)
	form.Set("client_id", credentials.ClientID)
	form.Set("client_secret", credentials.ClientSecret)
	form.Set("redirect_uri", client.RedirectURI(provider))
	form.Set("grant_type", "authorization_code")

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, providerURLs.token,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("oauth: failed to build token request: %w", err)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("oauth: token exchange request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oauth: token exchange failed with status %d", response.StatusCode)
	}

	var tokenPayload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(response.Body).Decode(&tokenPayload); err != nil {
		return "", fmt.Errorf("oauth: failed to decode token response: %w", err)
	}
	if tokenPayload.AccessToken == "" {
		return "", fmt.Errorf("oauth: token response carried no access_token")
	}

	return tokenPayload.AccessToken, nil
}

// FetchIdentity resolves the provider access token into a normalized identity.
//
// It doubles as token revalidation: a revoked or expired provider token makes
// the userinfo endpoint refuse, which callers treat as "no longer authorized".
func (client *Client) FetchIdentity(ctx context.Context, provider sec.Provider, accessToken string) (*Identity, error) {
	providerURLs, _, err := client.lookup(provider)
	if err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, providerURLs.userInfo, nil)
	if err != nil {
		return nil, fmt.Errorf("oauth: failed to build userinfo request: %w", err)
	}
	request.Header.Set(constants.HeaderAuthorization, "Bearer "+accessToken)

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("oauth: userinfo request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oauth: userinfo failed with status %d", response.StatusCode)
	}

	switch provider {
	case sec.ProviderGoogle:
		var payload struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("oauth: failed to decode google userinfo: %w", err)
		}
		return &Identity{SocialUUID: payload.ID, Email: payload.Email, Name: payload.Name}, nil

	case sec.ProviderYandex:
		var payload struct {
			ID           string `json:"id"`
			FirstName    string `json:"first_name"`
			LastName     string `json:"last_name"`
			DefaultEmail string `json:"default_email"`
		}
		if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("oauth: failed to decode yandex userinfo: %w", err)
		}
		return &Identity{
			SocialUUID: payload.ID,
			Email:      payload.DefaultEmail,
			Name:       strings.TrimSpace(payload.FirstName + " " + payload.LastName),
		}, nil
	}

	return nil, fmt.Errorf("oauth: unsupported provider %q", provider)
}

func (client *Client) lookup(provider sec.Provider) (endpoints, Credentials, error) {
	providerURLs, ok := client.endpoints[provider]
	if !ok {
		return endpoints{}, Credentials{}, fmt.Errorf("oauth: unsupported provider %q", provider)
	}
	return providerURLs, client.credentials[provider], nil
}
