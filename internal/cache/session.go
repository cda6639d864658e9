package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aaravmahajanofficial/storefront-cache/internal/config"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

type sessionContextKey string

const sessionKey = sessionContextKey("session_id")

// AnonymousSession is used when a request carries no session id.
const AnonymousSession = "anonymous"

func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey, sessionID)
}

func SessionIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(sessionKey).(string); ok && id != "" {
		return id
	}

	return AnonymousSession
}

// SessionCache is the ephemeral tier. All sessions share one bounded LRU;
// each session only sees its own namespace. Entries expire after the
// configured session TTL regardless of the ttl passed to Set.
type SessionCache struct {
	lru *expirable.LRU[string, []byte]
}

func NewSessionCache(cfg *config.CacheConfig) *SessionCache {
	size := cfg.SessionSize
	if size <= 0 {
		size = 10000
	}

	return &SessionCache{lru: expirable.NewLRU[string, []byte](size, nil, cfg.SessionTTL)}
}

func (s *SessionCache) For(sessionID string) Cache {
	return &sessionView{lru: s.lru, prefix: sessionID + "|"}
}

// Purge drops every entry of one session.
func (s *SessionCache) Purge(sessionID string) {
	prefix := sessionID + "|"
	for _, key := range s.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			s.lru.Remove(key)
		}
	}
}

func (s *SessionCache) Len() int {
	return s.lru.Len()
}

type sessionView struct {
	lru    *expirable.LRU[string, []byte]
	prefix string
}

func (v *sessionView) Get(_ context.Context, key string, value any) (bool, error) {
	data, ok := v.lru.Get(v.prefix + key)
	if !ok {
		return false, nil
	}

	if err := json.Unmarshal(data, value); err != nil {
		return false, fmt.Errorf("failed to unmarshal session data for key %s: %w", key, err)
	}

	return true, nil
}

func (v *sessionView) Set(_ context.Context, key string, value any, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}

	v.lru.Add(v.prefix+key, data)

	return nil
}

func (v *sessionView) Delete(_ context.Context, key string) error {
	v.lru.Remove(v.prefix + key)

	return nil
}

func (v *sessionView) Close() error {
	return nil
}
