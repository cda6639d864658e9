package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/storefront-cache/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-cache/internal/cache"
	"github.com/aaravmahajanofficial/storefront-cache/internal/metrics"
	repository "github.com/aaravmahajanofficial/storefront-cache/internal/repositories"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tierSession    = "session"
	tierPreference = "preference"
	tierDurable    = "durable"
)

// unknownVersion marks a read that never reached the durable tier.
const unknownVersion int64 = -1

var tracer = otel.Tracer("github.com/aaravmahajanofficial/storefront-cache/internal/services")

// tiers bundles the three cache tiers shared by every service.
type tiers struct {
	store      repository.DurableStore
	prefs      cache.Cache
	sessions   cache.SessionScoper
	sessionTTL time.Duration
}

func (t *tiers) session(ctx context.Context) cache.Cache {
	return t.sessions.For(cache.SessionIDFromContext(ctx))
}

// lookupCache reads key from a key-value tier. Unreadable entries and tier
// errors are logged and reported as a miss.
func lookupCache[T any](ctx context.Context, c cache.Cache, tier, entity, key string, valid func(T) bool) (T, bool) {
	var value, zero T

	found, err := c.Get(ctx, key, &value)
	if err != nil {
		middleware.LoggerFromContext(ctx).Warn("Ignoring unreadable cache entry",
			slog.String("tier", tier),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		metrics.CacheLookup(tier, entity, metrics.ResultMalformed)
		return zero, false
	}

	if !found {
		metrics.CacheLookup(tier, entity, metrics.ResultMiss)
		return zero, false
	}

	if !valid(value) {
		metrics.CacheLookup(tier, entity, metrics.ResultMalformed)
		return zero, false
	}

	metrics.CacheLookup(tier, entity, metrics.ResultHit)

	return value, true
}

// lookupDurable reads one durable entry. The returned version is 0 on a miss
// so a subsequent write can tell whether another writer got there first.
func lookupDurable[T any](ctx context.Context, store repository.DurableStore, entity, partition, key string, valid func(T) bool) (T, int64, bool) {
	var value, zero T
	logger := middleware.LoggerFromContext(ctx)

	entry, err := store.Get(ctx, partition, key)
	if err != nil {
		logger.Warn("Durable store read failed",
			slog.String("partition", partition),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		metrics.CacheLookup(tierDurable, entity, metrics.ResultMalformed)
		return zero, unknownVersion, false
	}

	if entry == nil {
		metrics.CacheLookup(tierDurable, entity, metrics.ResultMiss)
		return zero, 0, false
	}

	if err := entry.Decode(&value); err != nil || !valid(value) {
		logger.Warn("Ignoring malformed durable entry",
			slog.String("partition", partition),
			slog.String("key", key),
		)
		metrics.CacheLookup(tierDurable, entity, metrics.ResultMalformed)
		return zero, entry.Version, false
	}

	metrics.CacheLookup(tierDurable, entity, metrics.ResultHit)

	return value, entry.Version, true
}

// tieredRead describes where one entity lives. An empty key skips the
// session and preference tiers; a nil durable func skips the durable tier.
type tieredRead[T any] struct {
	entity     string
	key        string
	session    bool
	preference bool
	valid      func(T) bool
	durable    func(ctx context.Context) (T, int64, bool)
}

// waterfall walks the tiers top-down and stops at the first valid hit. Unless
// forced, a hit in a lower tier is copied into every tier above it. Forced
// reads still walk the tiers so the caller has a stale fallback.
func waterfall[T any](ctx context.Context, t *tiers, r tieredRead[T], force bool) (T, bool, int64) {
	session := t.session(ctx)

	if r.session {
		if v, ok := lookupCache(ctx, session, tierSession, r.entity, r.key, r.valid); ok {
			return v, true, unknownVersion
		}
	}

	if r.preference {
		if v, ok := lookupCache(ctx, t.prefs, tierPreference, r.entity, r.key, r.valid); ok {
			if !force && r.session {
				t.writeCache(ctx, session, tierSession, r.entity, r.key, v)
			}
			return v, true, unknownVersion
		}
	}

	var zero T
	version := unknownVersion

	if r.durable != nil {
		v, seen, ok := r.durable(ctx)
		version = seen
		if ok {
			if !force {
				if r.preference {
					t.writeCache(ctx, t.prefs, tierPreference, r.entity, r.key, v)
				}
				if r.session {
					t.writeCache(ctx, session, tierSession, r.entity, r.key, v)
				}
			}
			return v, true, version
		}
	}

	return zero, false, version
}

// writeCache is a best-effort write into a key-value tier.
func (t *tiers) writeCache(ctx context.Context, c cache.Cache, tier, entity, key string, value any) {
	ttl := time.Duration(0)
	if tier == tierSession {
		ttl = t.sessionTTL
	}

	if err := c.Set(ctx, key, value, ttl); err != nil {
		middleware.LoggerFromContext(ctx).Warn("Cache write-through failed",
			slog.String("tier", tier),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		metrics.TierWriteFailure(tier, entity)
	}
}

// writeThrough stores value in the session and preference tiers named by r.
func writeThrough[T any](ctx context.Context, t *tiers, r tieredRead[T], value T) {
	if r.preference {
		t.writeCache(ctx, t.prefs, tierPreference, r.entity, r.key, value)
	}
	if r.session {
		t.writeCache(ctx, t.session(ctx), tierSession, r.entity, r.key, value)
	}
}

// writeDurable stores records in one transaction, best-effort. observed is
// the version of records[0] seen when it was read; a larger jump means a
// concurrent writer was overwritten, which is logged and counted. Writes are
// last-write-wins.
func (t *tiers) writeDurable(ctx context.Context, entity string, observed int64, records ...repository.Record) bool {
	if len(records) == 0 {
		return true
	}

	logger := middleware.LoggerFromContext(ctx)

	versions, err := t.store.PutBatch(ctx, records)
	if err != nil {
		logger.Warn("Durable write-through failed",
			slog.String("entity", entity),
			slog.String("partition", records[0].Partition),
			slog.String("error", err.Error()),
		)
		metrics.TierWriteFailure(tierDurable, entity)
		return false
	}

	if observed != unknownVersion && versions[0] > observed+1 {
		logger.Warn("Lost update: concurrent write replaced",
			slog.String("partition", records[0].Partition),
			slog.String("key", records[0].Key),
			slog.Int64("observed_version", observed),
			slog.Int64("written_version", versions[0]),
		)
		metrics.LostUpdate(records[0].Partition)
	}

	return true
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
