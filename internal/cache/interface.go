package cache

import (
	"context"
	"time"
)

// Cache is a key-value tier holding JSON-encoded values. Get reports a miss
// with (false, nil); a value that cannot be decoded into dest is an error.
type Cache interface {
	Get(ctx context.Context, key string, value any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// SessionScoper hands out the session-scoped view of the session tier.
type SessionScoper interface {
	For(sessionID string) Cache
	Purge(sessionID string)
}
