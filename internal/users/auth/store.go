// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"

	"github.com/taibuivan/yomira-auth/internal/platform/oauth"
	"github.com/taibuivan/yomira-auth/internal/platform/sec"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		FindByUUID returns the account with the given uuid.

		Parameters:
		  - context: context.Context
		  - uuid: string

		Returns:
		  - *User: Hydrated entity, nil when absent
		  - error: Database retrieval failures
	*/
	FindByUUID(context context.Context, uuid string) (*User, error)

	/*
		FindByEmail returns the account with the given email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity, nil when absent
		  - error: Database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		Create persists a brand-new user account.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: UserAlreadyExists on email collision, other persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		Activate flips the account to is_active = true.

		Parameters:
		  - context: context.Context
		  - uuid: string

		Returns:
		  - error: Persistence failures
	*/
	Activate(context context.Context, uuid string) error
}

// # Session Data Access

// SessionRepository defines the data access contract for login sessions.
type SessionRepository interface {

	/*
		Create persists a new active session for an authenticated login.

		Parameters:
		  - context: context.Context
		  - session: *Session

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, session *Session) error

	/*
		FindActiveByContext returns the user's active session bound to the
		given useragent/ip pair, if one exists.

		Parameters:
		  - context: context.Context
		  - userUUID: string
		  - userAgent: string
		  - ip: string

		Returns:
		  - *Session: Hydrated entity, nil when absent
		  - error: Database retrieval failures
	*/
	FindActiveByContext(context context.Context, userUUID, userAgent, ip string) (*Session, error)

	/*
		Deactivate marks a session as permanently inactive. Deactivation is
		monotone; an inactive session never becomes active again.

		Parameters:
		  - context: context.Context
		  - sessionUUID: string

		Returns:
		  - error: Persistence failures
	*/
	Deactivate(context context.Context, sessionUUID string) error

	/*
		ListActiveByUser returns every active session owned by the user.

		Parameters:
		  - context: context.Context
		  - userUUID: string

		Returns:
		  - []Session: Active sessions, possibly empty
		  - error: Database retrieval failures
	*/
	ListActiveByUser(context context.Context, userUUID string) ([]Session, error)
}

// # Social Account Data Access

// SocialAccountRepository defines the data access contract for OAuth links.
type SocialAccountRepository interface {

	/*
		FindBySocialID returns the link for a provider identity, if any.

		Parameters:
		  - context: context.Context
		  - socialName: string (provider name)
		  - socialUUID: string (provider-side user id)

		Returns:
		  - *SocialAccount: Hydrated entity, nil when absent
		  - error: Database retrieval failures
	*/
	FindBySocialID(context context.Context, socialName, socialUUID string) (*SocialAccount, error)

	/*
		Create persists a new provider identity link.

		Parameters:
		  - context: context.Context
		  - account: *SocialAccount

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, account *SocialAccount) error
}

// # Access Data

// RoleRepository gives the auth flows their view of the access schema: role
// attachment at registration and the user -> roles -> permissions derivation
// used when minting claims.
type RoleRepository interface {

	/*
		FindByName returns the role with the given name.

		Parameters:
		  - context: context.Context
		  - name: string

		Returns:
		  - *Role: Hydrated entity, nil when absent
		  - error: Database retrieval failures
	*/
	FindByName(context context.Context, name string) (*Role, error)

	/*
		AssignToUser attaches a role to a user.

		Parameters:
		  - context: context.Context
		  - userUUID: string
		  - roleUUID: string

		Returns:
		  - error: Persistence failures
	*/
	AssignToUser(context context.Context, userUUID, roleUUID string) error

	/*
		PermissionNamesForUser derives the user's effective permission names
		through their roles. Nothing is ever granted to a user directly.

		Parameters:
		  - context: context.Context
		  - userUUID: string

		Returns:
		  - []string: Sorted permission names, possibly empty
		  - error: Database retrieval failures
	*/
	PermissionNamesForUser(context context.Context, userUUID string) ([]string, error)
}

// # Volatile Data Access

// RefreshCache is the authoritative revocation witness. A session is alive
// exactly while its cache entry exists; deleting the entry revokes every
// token minted for that session.
type RefreshCache interface {

	/*
		Set stores the session's current refresh token.

		Parameters:
		  - context: context.Context
		  - sessionUUID: string
		  - refreshToken: string
		  - ttl: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	Set(context context.Context, sessionUUID, refreshToken string, ttl time.Duration) error

	/*
		Get retrieves the refresh token cached for a session.

		Parameters:
		  - context: context.Context
		  - sessionUUID: string

		Returns:
		  - string: Cached token, empty when absent
		  - error: Connectivity failures (callers must fail closed)
	*/
	Get(context context.Context, sessionUUID string) (string, error)

	/*
		Delete removes the session's cache entry, revoking it.

		Parameters:
		  - context: context.Context
		  - sessionUUID: string

		Returns:
		  - error: Persistence failures
	*/
	Delete(context context.Context, sessionUUID string) error
}

// StateStore holds per-flow OAuth state nonces. Each nonce is single-use.
type StateStore interface {

	/*
		Put stores a state nonce for a started OAuth flow.

		Parameters:
		  - context: context.Context
		  - state: string
		  - provider: string
		  - ttl: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	Put(context context.Context, state, provider string, ttl time.Duration) error

	/*
		Take consumes a state nonce, returning the provider it was issued
		for. A second Take of the same nonce finds nothing.

		Parameters:
		  - context: context.Context
		  - state: string

		Returns:
		  - string: Provider name, empty when the nonce is absent or spent
		  - error: Connectivity failures
	*/
	Take(context context.Context, state string) (string, error)
}

// # Orchestration Contracts

// TxRunner runs a function inside one database transaction. Repository calls
// made with the given context join that transaction.
type TxRunner interface {
	RunInTx(context context.Context, fn func(context.Context) error) error
}

// TokenProvider defines the contract for minting and decoding JWTs.
type TokenProvider interface {
	// MintPair mints an access/refresh pair for an established session.
	MintPair(input sec.PairInput) (*sec.TokenPair, error)

	// MintRegisterToken mints the short-lived email-confirmation token.
	MintRegisterToken(userUUID, email string) (string, error)

	// Decode parses and verifies a token, rejecting expired ones.
	Decode(tokenString string) (*sec.TokenClaims, error)

	// DecodeAllowExpired parses and verifies a token signature but lets an
	// expired claim set through for inspection.
	DecodeAllowExpired(tokenString string) (*sec.TokenClaims, error)
}

// OAuthClient defines the contract for the provider handshake.
type OAuthClient interface {
	// AuthorizationURL builds the provider consent URL carrying the state.
	AuthorizationURL(provider sec.Provider, state string) (string, error)

	// ExchangeCode swaps a redirect code for a provider access token.
	ExchangeCode(context context.Context, provider sec.Provider, code string) (string, error)

	// FetchIdentity loads the provider-side identity for an access token.
	FetchIdentity(context context.Context, provider sec.Provider, accessToken string) (*oauth.Identity, error)
}

// NotificationsClient defines the contract for the notifications service.
type NotificationsClient interface {
	// SendEmail delivers a plain-text email.
	SendEmail(context context.Context, emailTo, msgText string) error

	// NotifyDuplicateUser reports a registration attempt on a taken email.
	NotifyDuplicateUser(context context.Context, userUUID, userEmail string) error
}
