// Package rediscache layers a Redis read-through cache over a relational
// session store so restoration checks avoid a database round trip. Redis
// failures degrade silently to the inner store.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/nanolancers/admin-console/internal/domain/auth"
	"github.com/nanolancers/admin-console/internal/ports"
)

var _ ports.SessionStore = (*SessionCache)(nil)

// SessionCache decorates a SessionStore with per-token caching. Only
// FindValidSession is cached; every other operation passes through, with
// DeleteSession additionally evicting the cache entry.
type SessionCache struct {
	inner  ports.SessionStore
	client redis.UniversalClient
	prefix string
	logger *slog.Logger
}

// NewSessionCache creates a session cache with the "session:" key prefix.
func NewSessionCache(inner ports.SessionStore, client redis.UniversalClient, logger *slog.Logger) *SessionCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionCache{
		inner:  inner,
		client: client,
		prefix: "session:",
		logger: logger,
	}
}

// cachedSession is the cached payload for one token.
type cachedSession struct {
	Identity  *domainauth.Identity `json:"identity"`
	ExpiresAt time.Time            `json:"expires_at"`
}

func (c *SessionCache) FindValidSession(ctx context.Context, token string) (*domainauth.Identity, time.Time, error) {
	key := c.prefix + token

	data, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		var cached cachedSession
		if jsonErr := json.Unmarshal([]byte(data), &cached); jsonErr == nil {
			// The Redis TTL tracks the session expiry, but re-check the
			// real expiry on every read regardless.
			if cached.ExpiresAt.After(time.Now()) {
				return cached.Identity, cached.ExpiresAt, nil
			}
			if delErr := c.client.Del(ctx, key).Err(); delErr != nil {
				c.logger.Warn("session cache: evict expired entry failed", "error", delErr)
			}
			return nil, time.Time{}, ports.ErrNotFound
		}
		// Corrupt entry: fall through to the inner store.
		c.logger.Warn("session cache: corrupt entry, consulting store", "key", key)
	case errors.Is(err, redis.Nil):
		// Cache miss.
	default:
		c.logger.Warn("session cache: get failed, consulting store", "error", err)
	}

	identity, expiresAt, err := c.inner.FindValidSession(ctx, token)
	if err != nil {
		return nil, time.Time{}, err
	}
	c.fill(ctx, key, identity, expiresAt)
	return identity, expiresAt, nil
}

// fill caches a freshly resolved session until the session's own expiry.
// The payload expiry and the Redis TTL carry the same instant, so a cached
// entry can never outlive the session it mirrors.
func (c *SessionCache) fill(ctx context.Context, key string, identity *domainauth.Identity, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	payload, err := json.Marshal(cachedSession{Identity: identity, ExpiresAt: expiresAt})
	if err != nil {
		c.logger.Warn("session cache: encode entry failed", "error", err)
		return
	}
	if setErr := c.client.Set(ctx, key, payload, ttl).Err(); setErr != nil {
		c.logger.Warn("session cache: set failed", "error", setErr)
	}
}

func (c *SessionCache) DeleteSession(ctx context.Context, token string) error {
	if err := c.client.Del(ctx, c.prefix+token).Err(); err != nil {
		c.logger.Warn("session cache: evict failed", "error", err)
	}
	return c.inner.DeleteSession(ctx, token)
}

func (c *SessionCache) FindActiveIdentityByEmail(ctx context.Context, email string) (*domainauth.Identity, error) {
	return c.inner.FindActiveIdentityByEmail(ctx, email)
}

func (c *SessionCache) CreateSession(ctx context.Context, sess domainauth.Session) error {
	return c.inner.CreateSession(ctx, sess)
}

func (c *SessionCache) TouchLastLogin(ctx context.Context, identityID string) error {
	return c.inner.TouchLastLogin(ctx, identityID)
}

func (c *SessionCache) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return c.inner.PurgeExpiredSessions(ctx)
}
