// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via the auth.TokenProvider interface.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType discriminates the three token flavours minted by the service.
type TokenType string

const (
	TokenTypeAccess   TokenType = "access"
	TokenTypeRefresh  TokenType = "refresh"
	TokenTypeRegister TokenType = "register"
)

// Provider identifies how a user authenticates.
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
	ProviderYandex Provider = "yandex"
)

// ParseProvider maps a URL path segment to a known OAuth provider.
func ParseProvider(value string) (Provider, bool) {
	switch Provider(value) {
	case ProviderGoogle:
		return ProviderGoogle, true
	case ProviderYandex:
		return ProviderYandex, true
	default:
		return "", false
	}
}

// Decode failure modes. The auth service collapses both to Unauthorized at the
// boundary; the distinction exists for the email-confirmation flow, which must
// recognise an expired register token to re-issue it.
var (
	ErrTokenExpired = errors.New("sec: token expired")
	ErrTokenInvalid = errors.New("sec: token invalid")
)

// RequestContext is the client fingerprint a session is pinned to.
// Tokens minted for a session embed it; verification compares it against the
// live request.
type RequestContext struct {
	IP        string `json:"ip"`
	UserAgent string `json:"useragent"`
}

// TokenClaims is the payload embedded inside every token.
//
// # Why custom claims?
//
// By embedding the user's email, permissions, and session binding directly
// inside the JWT, sibling services can authorize requests WITHOUT querying
// this service's database on every call. Only liveness (the refresh cache)
// requires a round trip.
//
// Register tokens carry only {type, sub, email, exp, jti}; the session and
// OAuth fields stay empty and are omitted from the payload.
type TokenClaims struct {
	jwt.RegisteredClaims

	Type        TokenType `json:"type"`
	Email       string    `json:"email"`
	Permissions []string  `json:"permissions,omitempty"`

	SessionUUID string `json:"session_uuid,omitempty"`
	IP          string `json:"ip,omitempty"`
	UserAgent   string `json:"useragent,omitempty"`

	OAuthType  Provider `json:"oauth_type,omitempty"`
	OAuthToken string   `json:"oauth_token,omitempty"`
}

// Context returns the request fingerprint the claims were minted for.
func (c *TokenClaims) Context() RequestContext {
	return RequestContext{IP: c.IP, UserAgent: c.UserAgent}
}

// TokenPair is the encoded access/refresh pair returned to clients.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// PairInput carries everything a freshly minted pair embeds.
type PairInput struct {
	UserUUID    string
	Email       string
	Permissions []string
	SessionUUID string
	Context     RequestContext
	OAuthType   Provider
	OAuthToken  string
}

// TokenService mints and decodes HS256 tokens signed with a shared secret.
// The same secret is distributed to sibling services so they can verify
// signatures locally.
type TokenService struct {
	signingKey  []byte
	verifyKeys  []jwt.VerificationKey
	issuer      string
	accessTTL   time.Duration
	refreshTTL  time.Duration
	registerTTL time.Duration
}

// NewTokenService creates a new TokenService around the shared signing secret.
//
// Retired secrets are verification-only: during a secret rotation the old
// value rides along so tokens minted before the switch stay valid until they
// expire. New tokens are always signed with the current secret.
func NewTokenService(secret, issuer string, accessTTL, refreshTTL, registerTTL time.Duration, retiredSecrets ...string) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("sec: signing secret must not be empty")
	}

	verifyKeys := []jwt.VerificationKey{[]byte(secret)}
	for _, retired := range retiredSecrets {
		if retired == "" {
			return nil, fmt.Errorf("sec: retired secret must not be empty")
		}
		verifyKeys = append(verifyKeys, []byte(retired))
	}

	return &TokenService{
		signingKey:  []byte(secret),
		verifyKeys:  verifyKeys,
		issuer:      issuer,
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
		registerTTL: registerTTL,
	}, nil
}

// MintPair creates a matching access/refresh token pair. Both tokens carry the
// same session binding and differ only in type, lifetime, and jti.
func (service *TokenService) MintPair(input PairInput) (*TokenPair, error) {
	accessToken, err := service.mint(TokenTypeAccess, service.accessTTL, input)
	if err != nil {
		return nil, err
	}
	refreshToken, err := service.mint(TokenTypeRefresh, service.refreshTTL, input)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	}, nil
}

// MintRegisterToken creates a short-lived token used to confirm a new user's
// email. It identifies the user but grants nothing.
func (service *TokenService) MintRegisterToken(userUUID, email string) (string, error) {
	currentTime := time.Now()
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userUUID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(service.registerTTL)),
			ID:        uuid.NewString(),
		},
		Type:  TokenTypeRegister,
		Email: email,
	}

	signedToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(service.signingKey)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign register token: %w", err)
	}
	return signedToken, nil
}

func (service *TokenService) mint(tokenType TokenType, timeToLive time.Duration, input PairInput) (string, error) {
	currentTime := time.Now()
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   input.UserUUID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
			ID:        uuid.NewString(),
		},
		Type:        tokenType,
		Email:       input.Email,
		Permissions: input.Permissions,
		SessionUUID: input.SessionUUID,
		IP:          input.Context.IP,
		UserAgent:   input.Context.UserAgent,
		OAuthType:   input.OAuthType,
		OAuthToken:  input.OAuthToken,
	}

	signedToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(service.signingKey)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign %s token: %w", tokenType, err)
	}
	return signedToken, nil
}

// Decode checks the signature and expiry of a token string.
// Failures are reported as [ErrTokenExpired] or [ErrTokenInvalid], never as
// library errors.
func (service *TokenService) Decode(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, service.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// DecodeAllowExpired verifies the signature but tolerates an elapsed expiry.
// The email-confirmation flow uses it to recover the subject of an expired
// register token so a replacement can be sent.
func (service *TokenService) DecodeAllowExpired(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, service.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (service *TokenService) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
	}
	if len(service.verifyKeys) == 1 {
		return service.verifyKeys[0], nil
	}
	return jwt.VerificationKeySet{Keys: service.verifyKeys}, nil
}
