// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/yomira-auth/internal/platform/apperr"
	"github.com/taibuivan/yomira-auth/internal/platform/constants"
	"github.com/taibuivan/yomira-auth/internal/platform/sec"
	"github.com/taibuivan/yomira-auth/pkg/textnorm"
	"github.com/taibuivan/yomira-auth/pkg/uuidv7"
)

// # Service Layer

// Service orchestrates the auth use cases: registration with the
// email-confirmation handshake, local and OAuth login, token verification,
// refresh rotation, and logout.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, token, or
// session logic must be reviewed by the security team.
type Service struct {
	userRepository          UserRepository
	sessionRepository       SessionRepository
	socialAccountRepository SocialAccountRepository
	roleRepository          RoleRepository
	refreshCache            RefreshCache
	stateStore              StateStore
	txRunner                TxRunner
	tokenProvider           TokenProvider
	oauthClient             OAuthClient
	notifications           NotificationsClient
	logger                  *slog.Logger

	publicBaseURL string
	refreshTTL    time.Duration
}

// ServiceDeps groups every dependency used by the auth [Service].
//
// # Usage
//
// Constructed once in main.go; tests swap individual fields for fakes.
type ServiceDeps struct {
	Users          UserRepository
	Sessions       SessionRepository
	SocialAccounts SocialAccountRepository
	Roles          RoleRepository
	Cache          RefreshCache
	States         StateStore
	Tx             TxRunner
	Tokens         TokenProvider
	OAuth          OAuthClient
	Notifications  NotificationsClient
	Logger         *slog.Logger

	// PublicBaseURL is the externally reachable root of this service,
	// embedded into email-confirmation links.
	PublicBaseURL string

	// RefreshTTL bounds both the refresh token and its cache entry.
	RefreshTTL time.Duration
}

// NewService constructs a new [Service] with its dependencies.
func NewService(deps ServiceDeps) *Service {
	return &Service{
		userRepository:          deps.Users,
		sessionRepository:       deps.Sessions,
		socialAccountRepository: deps.SocialAccounts,
		roleRepository:          deps.Roles,
		refreshCache:            deps.Cache,
		stateStore:              deps.States,
		txRunner:                deps.Tx,
		tokenProvider:           deps.Tokens,
		oauthClient:             deps.OAuth,
		notifications:           deps.Notifications,
		logger:                  deps.Logger,
		publicBaseURL:           deps.PublicBaseURL,
		refreshTTL:              deps.RefreshTTL,
	}
}

// # Registration Flow

/*
Register validates, hashes, and persists a brand new user account, then runs
the email-confirmation handshake with the notifications service.

Description: The account is created inactive with the registered role
attached. Inside the same transaction the notifications service is told to
probe for duplicate users and to deliver the confirmation email; if either
call does not come back 200, the whole registration rolls back.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity, is_active = false
  - error: UserAlreadyExists, UserWasNotRegistered, or storage failures
*/
func (service *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		UUID:         uuidv7.New(),
		Email:        textnorm.Email(input.Email),
		Name:         textnorm.Name(input.Name),
		PasswordHash: hashedPassword,
		IsActive:     false,
	}

	err = service.txRunner.RunInTx(ctx, func(txContext context.Context) error {
		if err := service.userRepository.Create(txContext, user); err != nil {
			return err
		}
		if err := service.attachRegisteredRole(txContext, user); err != nil {
			return err
		}

		// The handshake happens inside the transactional scope: a refusal
		// from the notifications service unwinds the freshly created rows.
		if err := service.notifications.NotifyDuplicateUser(txContext, user.UUID, user.Email); err != nil {
			return apperr.UserWasNotRegistered(err)
		}
		if err := service.sendConfirmationEmail(txContext, user); err != nil {
			return apperr.UserWasNotRegistered(err)
		}
		return nil
	})
	if err != nil {
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	service.logger.Info("user_registered",
		slog.String("user_uuid", user.UUID),
		slog.String("email", user.Email))

	user.RolesNames = []string{sec.RoleRegistered}
	return user, nil
}

// attachRegisteredRole looks up the seeded registered role and assigns it.
func (service *Service) attachRegisteredRole(context context.Context, user *User) error {
	role, err := service.roleRepository.FindByName(context, sec.RoleRegistered)
	if err != nil {
		return fmt.Errorf("auth_service_role_lookup_failed: %w", err)
	}
	if role == nil {
		return fmt.Errorf("auth_service_role_missing: %s", sec.RoleRegistered)
	}
	if err := service.roleRepository.AssignToUser(context, user.UUID, role.UUID); err != nil {
		return fmt.Errorf("auth_service_role_assign_failed: %w", err)
	}
	return nil
}

// sendConfirmationEmail mints a fresh register token and asks the
// notifications service to deliver the confirmation link.
func (service *Service) sendConfirmationEmail(context context.Context, user *User) error {
	registerToken, err := service.tokenProvider.MintRegisterToken(user.UUID, user.Email)
	if err != nil {
		return fmt.Errorf("auth_service_register_token_failed: %w", err)
	}

	link := service.publicBaseURL + fmt.Sprintf(confirmEmailPathFormat, registerToken)
	message := fmt.Sprintf(confirmEmailTextFormat, user.Name, link)
	return service.notifications.SendEmail(context, user.Email, message)
}

/*
ConfirmEmail activates the account a register token was minted for.

Description: The token signature must check out either way. While the token
is fresh the account flips to active. Once it has expired, a replacement
handshake runs (duplicate-user probe plus a new confirmation email) and the
call fails so the client knows to look at their inbox again.

Parameters:
  - context: context.Context
  - registerToken: string

Returns:
  - *User: Activated entity
  - error: Unauthorized for bad or expired tokens
*/
func (service *Service) ConfirmEmail(context context.Context, registerToken string) (*User, error) {
	claims, err := service.tokenProvider.DecodeAllowExpired(registerToken)
	if err != nil || claims.Type != sec.TokenTypeRegister {
		return nil, apperr.Unauthorized("Unauthorized for this action.")
	}

	user, err := service.userRepository.FindByEmail(context, claims.Email)
	if err != nil {
		return nil, fmt.Errorf("auth_service_user_lookup_failed: %w", err)
	}
	if user == nil {
		return nil, apperr.Unauthorized("Unauthorized for this action.")
	}

	if claims.ExpiresAt != nil && time.Now().Before(claims.ExpiresAt.Time) {
		if err := service.userRepository.Activate(context, user.UUID); err != nil {
			return nil, fmt.Errorf("auth_service_activate_failed: %w", err)
		}
		user.IsActive = true

		service.logger.Info("email_confirmed", slog.String("user_uuid", user.UUID))
		return user, nil
	}

	// Expired: re-run the handshake with a fresh token, then refuse.
	_ = service.notifications.NotifyDuplicateUser(context, user.UUID, user.Email)
	_ = service.sendConfirmationEmail(context, user)

	service.logger.Info("register_token_expired_reissued", slog.String("user_uuid", user.UUID))
	return nil, apperr.Unauthorized("can't confirm this email, token expired, new token was sent to your email")
}

// # Authentication Flow

/*
Login authenticates local credentials and establishes a session.

Description: Verifies identity with a constant-time bcrypt comparison,
displaces the user's previous session from the same device/address, and
issues a rotated access/refresh pair bound to the request fingerprint.

Parameters:
  - context: context.Context
  - input: LoginInput
  - requestContext: sec.RequestContext

Returns:
  - *sec.TokenPair: Encoded pair, token_type bearer
  - error: Unauthorized, InvalidCredentials, or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput, requestContext sec.RequestContext) (*sec.TokenPair, error) {
	return service.login(context, textnorm.Email(input.Email), input.Password, requestContext, sec.ProviderLocal, "")
}

// login is the shared core of the local and OAuth entry points. Password
// verification only applies to the local provider; for everyone else the
// provider handshake that produced providerToken already vouched.
func (service *Service) login(
	context context.Context,
	email, password string,
	requestContext sec.RequestContext,
	provider sec.Provider,
	providerToken string,
) (*sec.TokenPair, error) {
	user, err := service.userRepository.FindByEmail(context, email)
	if err != nil {
		return nil, fmt.Errorf("auth_service_user_lookup_failed: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, apperr.Unauthorized("Unauthorized for this action.")
	}

	if provider == sec.ProviderLocal {
		if !sec.CheckPasswordHash(password, user.PasswordHash) {
			service.logger.Info("login_rejected", slog.String("email", email))
			return nil, apperr.InvalidCredentials()
		}
	}

	if err := service.deactivateSessionFromRequest(context, user.UUID, requestContext); err != nil {
		return nil, err
	}

	pair, err := service.createSession(context, user, requestContext, provider, providerToken)
	if err != nil {
		return nil, err
	}

	service.logger.Info("login_succeeded",
		slog.String("user_uuid", user.UUID),
		slog.String("provider", string(provider)))
	return pair, nil
}

// deactivateSessionFromRequest displaces the user's previous active session
// bound to the same (useragent, ip) fingerprint, if one exists: the row flips
// to inactive and the cache entry disappears, revoking its tokens.
func (service *Service) deactivateSessionFromRequest(context context.Context, userUUID string, requestContext sec.RequestContext) error {
	session, err := service.sessionRepository.FindActiveByContext(context, userUUID, requestContext.UserAgent, requestContext.IP)
	if err != nil {
		return fmt.Errorf("auth_service_session_lookup_failed: %w", err)
	}
	if session == nil {
		return nil
	}

	if err := service.sessionRepository.Deactivate(context, session.UUID); err != nil {
		return fmt.Errorf("auth_service_session_displace_failed: %w", err)
	}
	service.deleteCacheEntry(context, session.UUID)

	service.logger.Info("session_displaced", slog.String("session_uuid", session.UUID))
	return nil
}

// deleteCacheEntry removes a session's liveness entry. A failed delete is
// logged but not surfaced: the entry still dies at its TTL, and the session
// row is already inactive for every write path that looks.
func (service *Service) deleteCacheEntry(context context.Context, sessionUUID string) {
	if err := service.refreshCache.Delete(context, sessionUUID); err != nil {
		service.logger.Error("refresh_cache_delete_failed",
			slog.String("session_uuid", sessionUUID),
			slog.String("error", err.Error()))
	}
}

// createSession inserts the session row, mints the pair carrying the user's
// derived permissions, and caches the refresh token as the liveness witness.
func (service *Service) createSession(
	context context.Context,
	user *User,
	requestContext sec.RequestContext,
	provider sec.Provider,
	providerToken string,
) (*sec.TokenPair, error) {
	permissions, err := service.roleRepository.PermissionNamesForUser(context, user.UUID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_permission_lookup_failed: %w", err)
	}

	session := &Session{
		UUID:      uuidv7.New(),
		UserUUID:  user.UUID,
		UserAgent: requestContext.UserAgent,
		IP:        requestContext.IP,
		IsActive:  true,
	}
	if err := service.sessionRepository.Create(context, session); err != nil {
		return nil, fmt.Errorf("auth_service_session_creation_failed: %w", err)
	}

	pair, err := service.tokenProvider.MintPair(sec.PairInput{
		UserUUID:    user.UUID,
		Email:       user.Email,
		Permissions: permissions,
		SessionUUID: session.UUID,
		Context:     requestContext,
		OAuthType:   provider,
		OAuthToken:  providerToken,
	})
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_mint_failed: %w", err)
	}

	if err := service.refreshCache.Set(context, session.UUID, pair.RefreshToken, service.refreshTTL); err != nil {
		return nil, fmt.Errorf("auth_service_cache_set_failed: %w", err)
	}
	return pair, nil
}

// # Token Verification

/*
VerifyToken decodes a token and checks it against the live request.

Description: Layered verification. The signature and expiry are checked
first; OAuth-minted tokens additionally re-validate the embedded provider
token; the claims' (ip, useragent) must match the request fingerprint; the
session named by the claims must still be live in the cache. Refresh tokens
must additionally be the exact token the cache holds — older refresh tokens
die the moment a rotation stores a newer one.

The ip/useragent binding is a weak channel check; the cache-liveness test is
the hard revocation primitive. A read failure from the cache denies
verification rather than letting a possibly-revoked token through.

Parameters:
  - context: context.Context
  - tokenString: string
  - requestContext: sec.RequestContext

Returns:
  - *sec.TokenClaims: Verified claims
  - error: Unauthorized on every verification failure
*/
func (service *Service) VerifyToken(context context.Context, tokenString string, requestContext sec.RequestContext) (*sec.TokenClaims, error) {
	claims, err := service.tokenProvider.Decode(tokenString)
	if err != nil {
		return nil, apperr.Unauthorized("Unauthorized for this action.")
	}

	// Register tokens identify a user but never carry a session; they do not
	// verify as session tokens.
	if claims.Type != sec.TokenTypeAccess && claims.Type != sec.TokenTypeRefresh {
		return nil, apperr.Unauthorized("Unauthorized for this action.")
	}

	// ── 1. Provider Re-validation ─────────────────────────────────────────
	if claims.OAuthType != "" && claims.OAuthType != sec.ProviderLocal {
		if _, err := service.oauthClient.FetchIdentity(context, claims.OAuthType, claims.OAuthToken); err != nil {
			service.logger.Info("verify_rejected_provider", slog.String("session_uuid", claims.SessionUUID))
			return nil, apperr.Unauthorized("Unauthorized for this action.")
		}
	}

	// ── 2. Fingerprint Binding ────────────────────────────────────────────
	if claims.IP != requestContext.IP || claims.UserAgent != requestContext.UserAgent {
		service.logger.Info("verify_rejected_fingerprint", slog.String("session_uuid", claims.SessionUUID))
		return nil, apperr.Unauthorized("Unauthorized for this action.")
	}

	// ── 3. Session Liveness ───────────────────────────────────────────────
	cachedRefresh, err := service.refreshCache.Get(context, claims.SessionUUID)
	if err != nil || cachedRefresh == "" {
		return nil, apperr.Unauthorized("Unauthorized for this action.")
	}

	// ── 4. Refresh Rotation ───────────────────────────────────────────────
	if claims.Type == sec.TokenTypeRefresh && cachedRefresh != tokenString {
		service.logger.Info("verify_rejected_stale_refresh", slog.String("session_uuid", claims.SessionUUID))
		return nil, apperr.Unauthorized("Unauthorized for this action.")
	}

	return claims, nil
}

/*
Refresh rotates an already-verified refresh token into a new pair.

Description: Callers must run [Service.VerifyToken] first; this method only
decodes. The new pair carries the same subject, session, fingerprint, and
permission snapshot, and overwrites the cache entry so the old refresh token
is dead from this point on.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - *sec.TokenPair: Fresh encoded pair
  - error: Unauthorized for non-refresh tokens, or internal failures
*/
func (service *Service) Refresh(context context.Context, refreshToken string) (*sec.TokenPair, error) {
	claims, err := service.tokenProvider.Decode(refreshToken)
	if err != nil || claims.Type != sec.TokenTypeRefresh {
		return nil, apperr.Unauthorized("Unauthorized for this action.")
	}

	pair, err := service.tokenProvider.MintPair(sec.PairInput{
		UserUUID:    claims.Subject,
		Email:       claims.Email,
		Permissions: claims.Permissions,
		SessionUUID: claims.SessionUUID,
		Context:     claims.Context(),
		OAuthType:   claims.OAuthType,
		OAuthToken:  claims.OAuthToken,
	})
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_mint_failed: %w", err)
	}

	if err := service.refreshCache.Set(context, claims.SessionUUID, pair.RefreshToken, service.refreshTTL); err != nil {
		return nil, fmt.Errorf("auth_service_cache_set_failed: %w", err)
	}

	service.logger.Info("tokens_refreshed", slog.String("session_uuid", claims.SessionUUID))
	return pair, nil
}

// # Session Termination

/*
Logout terminates the session the access token was minted for.

Description: The session row flips to inactive and the cache entry is
deleted, which instantly revokes both tokens of the pair.

Parameters:
  - context: context.Context
  - claims: *sec.TokenClaims

Returns:
  - error: Persistence failures
*/
func (service *Service) Logout(context context.Context, claims *sec.TokenClaims) error {
	if err := service.sessionRepository.Deactivate(context, claims.SessionUUID); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}
	service.deleteCacheEntry(context, claims.SessionUUID)

	service.logger.Info("logout", slog.String("session_uuid", claims.SessionUUID))
	return nil
}

/*
LogoutAll terminates every active session of the token's owner.

Description: Used after credential changes or suspected token theft. Each
active session row flips to inactive and loses its cache entry.

Parameters:
  - context: context.Context
  - claims: *sec.TokenClaims

Returns:
  - error: Persistence failures
*/
func (service *Service) LogoutAll(context context.Context, claims *sec.TokenClaims) error {
	sessions, err := service.sessionRepository.ListActiveByUser(context, claims.Subject)
	if err != nil {
		return fmt.Errorf("auth_service_session_list_failed: %w", err)
	}

	for _, session := range sessions {
		if err := service.sessionRepository.Deactivate(context, session.UUID); err != nil {
			return fmt.Errorf("auth_service_logout_all_failed: %w", err)
		}
		service.deleteCacheEntry(context, session.UUID)
	}

	service.logger.Info("logout_all",
		slog.String("user_uuid", claims.Subject),
		slog.Int("sessions", len(sessions)))
	return nil
}

// # OAuth Flow

/*
OAuthLoginURL starts an OAuth flow against a provider.

Description: Generates a fresh anti-CSRF state nonce, parks it in the state
store for the duration of the flow, and returns the provider consent URL the
client should be redirected to.

Parameters:
  - context: context.Context
  - provider: sec.Provider

Returns:
  - string: Provider consent URL carrying the state
  - error: Unknown provider or state store failures
*/
func (service *Service) OAuthLoginURL(context context.Context, provider sec.Provider) (string, error) {
	state, err := sec.GenerateSecureToken(constants.OAuthStateLength)
	if err != nil {
		return "", fmt.Errorf("auth_service_state_generation_failed: %w", err)
	}

	if err := service.stateStore.Put(context, state, string(provider), constants.OAuthStateTTL); err != nil {
		return "", fmt.Errorf("auth_service_state_store_failed: %w", err)
	}

	return service.oauthClient.AuthorizationURL(provider, state)
}

/*
OAuthLogin completes an OAuth flow from the provider redirect.

Description: Consumes the single-use state nonce, swaps the code for a
provider token, loads the provider-side identity, and materializes or links
the local account before logging it in:

  - Known social account: plain login for its user.
  - Unknown social account, known email: link the identity to that user.
  - Unknown both: create an active user with a server-generated password,
    attach the registered role, and link the identity.

Parameters:
  - context: context.Context
  - provider: sec.Provider
  - code: string
  - state: string
  - requestContext: sec.RequestContext

Returns:
  - *sec.TokenPair: Encoded pair embedding the provider token
  - error: StateMismatch, Unauthorized, or internal failures
*/
func (service *Service) OAuthLogin(
	context context.Context,
	provider sec.Provider,
	code, state string,
	requestContext sec.RequestContext,
) (*sec.TokenPair, error) {

	// ── 1. State Check ────────────────────────────────────────────────────
	storedProvider, err := service.stateStore.Take(context, state)
	if err != nil || storedProvider != string(provider) {
		service.logger.Info("oauth_state_mismatch", slog.String("provider", string(provider)))
		return nil, apperr.StateMismatch()
	}

	// ── 2. Provider Handshake ─────────────────────────────────────────────
	providerToken, err := service.oauthClient.ExchangeCode(context, provider, code)
	if err != nil {
		return nil, apperr.Unauthorized("Unauthorized for this action.")
	}
	identity, err := service.oauthClient.FetchIdentity(context, provider, providerToken)
	if err != nil {
		return nil, apperr.Unauthorized("Unauthorized for this action.")
	}

	email := textnorm.Email(identity.Email)

	// ── 3. Account Materialization ────────────────────────────────────────
	socialAccount, err := service.socialAccountRepository.FindBySocialID(context, string(provider), identity.SocialUUID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_social_lookup_failed: %w", err)
	}
	if socialAccount == nil {
		if err := service.materializeSocialAccount(context, provider, identity.SocialUUID, email, identity.Name); err != nil {
			return nil, err
		}
	}

	// ── 4. Login ──────────────────────────────────────────────────────────
	return service.login(context, email, "", requestContext, provider, providerToken)
}

// materializeSocialAccount links a provider identity to a local user,
// creating the user first when the email is unknown. OAuth-created accounts
// start active: the provider already owns the email, so the confirmation
// handshake is skipped.
func (service *Service) materializeSocialAccount(ctx context.Context, provider sec.Provider, socialUUID, email, name string) error {
	return service.txRunner.RunInTx(ctx, func(txContext context.Context) error {
		user, err := service.userRepository.FindByEmail(txContext, email)
		if err != nil {
			return fmt.Errorf("auth_service_user_lookup_failed: %w", err)
		}

		if user == nil {
			generatedPassword, err := sec.GeneratePassword(constants.GeneratedPasswordLength)
			if err != nil {
				return fmt.Errorf("auth_service_password_generation_failed: %w", err)
			}
			hashedPassword, err := sec.HashPassword(generatedPassword)
			if err != nil {
				return fmt.Errorf("auth_service_hash_failed: %w", err)
			}

			user = &User{
				UUID:         uuidv7.New(),
				Email:        email,
				Name:         textnorm.Name(name),
				PasswordHash: hashedPassword,
				IsActive:     true,
			}
			if err := service.userRepository.Create(txContext, user); err != nil {
				return err
			}
			if err := service.attachRegisteredRole(txContext, user); err != nil {
				return err
			}

			service.logger.Info("oauth_user_materialized",
				slog.String("user_uuid", user.UUID),
				slog.String("provider", string(provider)))
		}

		return service.socialAccountRepository.Create(txContext, &SocialAccount{
			UUID:       uuidv7.New(),
			UserUUID:   user.UUID,
			SocialName: string(provider),
			SocialUUID: socialUUID,
		})
	})
}
