package cache

import (
	"context"
	"errors"
	"time"
)

// Store is a generic key-value client with per-key expiry. Values are
// JSON-serializable payloads; keys are plain strings.
type Store interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
	TTL(ctx context.Context, key string) (time.Duration, error)
	Keys(ctx context.Context, pattern string) ([]string, error)
}

var ErrCacheMiss = errors.New("cache miss")
