package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/fall-in/internal/config"
)

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

// KeyForSession generates the revocation key of a session id.
func (c *RedisCache) KeyForSession(jti string) string {
	return fmt.Sprintf("session:revoked:%s", jti)
}

// KeyForOTPSends generates the throttle key of an email address.
func (c *RedisCache) KeyForOTPSends(email string) string {
	return fmt.Sprintf("otp:sends:%s", strings.ToLower(email))
}

// RevokeSession blacklists a session id until its token would expire anyway.
func (c *RedisCache) RevokeSession(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.Client.Set(ctx, c.KeyForSession(jti), 1, ttl).Err()
}

func (c *RedisCache) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := c.Client.Exists(ctx, c.KeyForSession(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// AllowOTPSend counts a code request for email inside a fixed window and
// reports whether it stays within max.
func (c *RedisCache) AllowOTPSend(ctx context.Context, email string, max int, window time.Duration) (bool, error) {
	key := c.KeyForOTPSends(email)
	n, err := c.Client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		// first hit opens the window
		if err := c.Client.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return max <= 0 || n <= int64(max), nil
}

// ResetOTPSends clears the throttle after a successful verification.
func (c *RedisCache) ResetOTPSends(ctx context.Context, email string) error {
	err := c.Client.Del(ctx, c.KeyForOTPSends(email)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
