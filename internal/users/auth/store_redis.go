// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/yomira-auth/internal/platform/constants"
)

// # Refresh Cache

// RedisRefreshCache implements the RefreshCache interface using Redis.
//
// Keys are auth:refresh:<session_uuid>; the value is the session's current
// refresh token. Key presence is what makes a session alive — expiry or
// deletion revokes every token minted for it.
type RedisRefreshCache struct {
	client *redis.Client
}

// NewRefreshCache creates a new Redis-backed RefreshCache.
func NewRefreshCache(client *redis.Client) *RedisRefreshCache {
	return &RedisRefreshCache{client: client}
}

/*
Set stores the session's current refresh token, displacing any previous one.

Parameters:
  - context: context.Context
  - sessionUUID: string
  - refreshToken: string
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (cache *RedisRefreshCache) Set(context context.Context, sessionUUID, refreshToken string, ttl time.Duration) error {
	key := constants.RedisPrefixRefreshToken + sessionUUID

	if err := cache.client.Set(context, key, refreshToken, ttl).Err(); err != nil {
		return fmt.Errorf("redis_refresh_cache_set_failed: %w", err)
	}

	return nil
}

/*
Get retrieves the refresh token cached for a session.

Description: An absent key reads as an empty string with no error — that is
the normal revoked/expired state. A connectivity error is returned as such;
verification treats it as a denial rather than trusting a token it could not
check.

Parameters:
  - context: context.Context
  - sessionUUID: string

Returns:
  - string: Cached refresh token, empty when absent
  - error: Connectivity errors
*/
func (cache *RedisRefreshCache) Get(context context.Context, sessionUUID string) (string, error) {
	key := constants.RedisPrefixRefreshToken + sessionUUID

	refreshToken, err := cache.client.Get(context, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis_refresh_cache_get_failed: %w", err)
	}

	return refreshToken, nil
}

/*
Delete removes the session's cache entry, revoking it.

Parameters:
  - context: context.Context
  - sessionUUID: string

Returns:
  - error: Execution errors
*/
func (cache *RedisRefreshCache) Delete(context context.Context, sessionUUID string) error {
	key := constants.RedisPrefixRefreshToken + sessionUUID

	if err := cache.client.Del(context, key).Err(); err != nil {
		return fmt.Errorf("redis_refresh_cache_delete_failed: %w", err)
	}

	return nil
}

// # OAuth State Store

// RedisStateStore implements the StateStore interface using Redis.
//
// Keys are auth:oauth_state:<state>; the value is the provider the flow was
// started for. A nonce lives for one flow: Take consumes it atomically, so a
// replayed redirect finds nothing.
type RedisStateStore struct {
	client *redis.Client
}

// NewStateStore creates a new Redis-backed StateStore.
func NewStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client}
}

/*
Put stores a state nonce for a started OAuth flow.

Parameters:
  - context: context.Context
  - state: string
  - provider: string
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (store *RedisStateStore) Put(context context.Context, state, provider string, ttl time.Duration) error {
	key := constants.RedisPrefixOAuthState + state

	if err := store.client.Set(context, key, provider, ttl).Err(); err != nil {
		return fmt.Errorf("redis_state_store_put_failed: %w", err)
	}

	return nil
}

/*
Take consumes a state nonce, returning the provider it was issued for.

Description: GETDEL makes read and invalidation a single atomic step, which
is what enforces single-use.

Parameters:
  - context: context.Context
  - state: string

Returns:
  - string: Provider name, empty when the nonce is absent or already spent
  - error: Connectivity errors
*/
func (store *RedisStateStore) Take(context context.Context, state string) (string, error) {
	key := constants.RedisPrefixOAuthState + state

	provider, err := store.client.GetDel(context, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis_state_store_take_failed: %w", err)
	}

	return provider, nil
}
