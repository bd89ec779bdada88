package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/dongwonkwak/mini-notion-app-sub000/internal/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type CacheConfig struct {
	SessionTTL time.Duration
	UserTTL    time.Duration
	JWTTTL     time.Duration
}

// CachedSession is the session-namespace entry, keyed by user ID. Expires
// and LastActive both slide forward on every successful read.
type CachedSession struct {
	User       PublicUser `json:"user"`
	Expires    time.Time  `json:"expires"`
	LastActive time.Time  `json:"lastActive"`
}

// SessionCache is a best-effort read-through cache over three independent
// Redis namespaces (session / user / jwt). Every operation degrades to a
// miss or a no-op when Redis misbehaves: authentication must stay correct
// with the cache gone entirely.
//
// JWT entries are keyed by a SHA-256 of the raw token so bearer secrets are
// never stored in the shared cache.
type SessionCache struct {
	redis  redis.UniversalClient
	config CacheConfig
	logger *logrus.Logger
	clock  Clock
}

func NewSessionCache(
	client redis.UniversalClient,
	config CacheConfig,
	logger *logrus.Logger,
	clock Clock,
) *SessionCache {
	if config.SessionTTL == 0 {
		config.SessionTTL = 30 * 24 * time.Hour
	}
	if config.UserTTL == 0 {
		config.UserTTL = 15 * time.Minute
	}
	if config.JWTTTL == 0 {
		config.JWTTTL = time.Hour
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &SessionCache{redis: client, config: config, logger: logger, clock: clock}
}

func sessionKey(userID uuid.UUID) string {
	return "session:" + userID.String()
}

func userIDKey(userID uuid.UUID) string {
	return "user:id:" + userID.String()
}

func userEmailKey(email string) string {
	return "user:email:" + email
}

func jwtKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "jwt:" + hex.EncodeToString(sum[:])
}

// degrade reports a cache failure and moves on. Cache trouble is never
// allowed to surface as an authentication error.
func (c *SessionCache) degrade(op string, err error) {
	if c.logger != nil {
		c.logger.WithError(err).WithField("op", op).Warn("session cache degraded")
	}
}

func (c *SessionCache) CacheSession(ctx context.Context, user PublicUser) {
	now := c.clock.Now()
	entry := CachedSession{
		User:       user,
		Expires:    now.Add(c.config.SessionTTL),
		LastActive: now,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		c.degrade("session.encode", err)
		return
	}
	if err := c.redis.SetEx(ctx, sessionKey(user.ID), data, c.config.SessionTTL).Err(); err != nil {
		c.degrade("session.set", err)
	}
}

// Session returns the cached session for the user, sliding both the stored
// expiry and the Redis TTL forward. Entries that outlived their own expiry
// (clock skew, stale TTL) are dropped on read.
func (c *SessionCache) Session(ctx context.Context, userID uuid.UUID) *CachedSession {
	data, err := c.redis.Get(ctx, sessionKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.degrade("session.get", err)
		}
		return nil
	}

	var entry CachedSession
	if err := json.Unmarshal(data, &entry); err != nil {
		c.degrade("session.decode", err)
		return nil
	}

	now := c.clock.Now()
	if !entry.Expires.After(now) {
		c.InvalidateSession(ctx, userID)
		return nil
	}

	entry.LastActive = now
	entry.Expires = now.Add(c.config.SessionTTL)
	if refreshed, err := json.Marshal(entry); err == nil {
		if err := c.redis.SetEx(ctx, sessionKey(userID), refreshed, c.config.SessionTTL).Err(); err != nil {
			c.degrade("session.refresh", err)
		}
	}

	return &entry
}

func (c *SessionCache) InvalidateSession(ctx context.Context, userID uuid.UUID) {
	if err := c.redis.Del(ctx, sessionKey(userID)).Err(); err != nil {
		c.degrade("session.del", err)
	}
}

// CacheUser stores the persisted user record under both the ID and email
// keys so the authentication path can skip a persistence round-trip.
func (c *SessionCache) CacheUser(ctx context.Context, user *entity.User) {
	data, err := json.Marshal(user)
	if err != nil {
		c.degrade("user.encode", err)
		return
	}
	_, err = c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetEx(ctx, userIDKey(user.ID), data, c.config.UserTTL)
		pipe.SetEx(ctx, userEmailKey(user.Email), data, c.config.UserTTL)
		return nil
	})
	if err != nil {
		c.degrade("user.set", err)
	}
}

func (c *SessionCache) UserByID(ctx context.Context, userID uuid.UUID) *entity.User {
	return c.fetchUser(ctx, userIDKey(userID))
}

func (c *SessionCache) UserByEmail(ctx context.Context, email string) *entity.User {
	return c.fetchUser(ctx, userEmailKey(email))
}

func (c *SessionCache) fetchUser(ctx context.Context, key string) *entity.User {
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.degrade("user.get", err)
		}
		return nil
	}
	var user entity.User
	if err := json.Unmarshal(data, &user); err != nil {
		c.degrade("user.decode", err)
		return nil
	}
	return &user
}

func (c *SessionCache) CacheJWT(ctx context.Context, token string, claims *AccessClaims) {
	data, err := json.Marshal(claims)
	if err != nil {
		c.degrade("jwt.encode", err)
		return
	}
	if err := c.redis.SetEx(ctx, jwtKey(token), data, c.config.JWTTTL).Err(); err != nil {
		c.degrade("jwt.set", err)
	}
}

func (c *SessionCache) JWT(ctx context.Context, token string) *AccessClaims {
	data, err := c.redis.Get(ctx, jwtKey(token)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.degrade("jwt.get", err)
		}
		return nil
	}
	var claims AccessClaims
	if err := json.Unmarshal(data, &claims); err != nil {
		c.degrade("jwt.decode", err)
		return nil
	}
	return &claims
}

// InvalidateUser clears the session and user namespaces for one user in a
// single transactional pipeline, so a password or role change cannot keep
// being served from stale cache.
func (c *SessionCache) InvalidateUser(ctx context.Context, userID uuid.UUID, email string) {
	keys := []string{sessionKey(userID), userIDKey(userID)}
	if email != "" {
		keys = append(keys, userEmailKey(email))
	}
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		c.degrade("user.invalidate", err)
	}
}
