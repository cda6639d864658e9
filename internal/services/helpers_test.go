package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/aaravmahajanofficial/storefront-cache/internal/cache"
	"github.com/aaravmahajanofficial/storefront-cache/internal/catalog/mocks"
	"github.com/aaravmahajanofficial/storefront-cache/internal/config"
	repository "github.com/aaravmahajanofficial/storefront-cache/internal/repositories"
	service "github.com/aaravmahajanofficial/storefront-cache/internal/services"
	"github.com/go-playground/validator/v10"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func testConfig() *config.Config {
	return &config.Config{
		Cache: config.CacheConfig{
			Expiration:  24 * time.Hour,
			DefaultTTL:  24 * time.Hour,
			SessionTTL:  30 * time.Minute,
			SessionSize: 1000,
		},
		Catalog: config.Catalog{
			Timeout:          5 * time.Second,
			SearchTimeout:    3 * time.Second,
			PerPage:          20,
			PlaceholderImage: "/placeholder.jpg",
		},
		Search: config.Search{
			SpecificThreshold: 80,
			MinLocalResults:   5,
			LocalLimit:        5,
			ShortQueryLength:  3,
			RemoteLimit:       10,
		},
	}
}

// harness wires every service over in-memory tiers. The preference tier is a
// separate LRU namespace standing in for Redis.
type harness struct {
	cfg      *config.Config
	clock    *fakeClock
	store    *repository.MemoryStore
	sessions *cache.SessionCache
	prefs    cache.Cache
	catalog  *mocks.Client
	catalogs service.CatalogService
	carts    service.CartService
	search   service.SearchService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := testConfig()
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := repository.NewMemoryStore(cfg.Cache.Expiration, repository.WithClock(clock.Now))
	sessions := cache.NewSessionCache(&cfg.Cache)
	prefs := cache.NewSessionCache(&cfg.Cache).For("preferences")
	client := new(mocks.Client)

	coordinator := service.NewCoordinator(store, prefs, sessions, client, cfg)

	return &harness{
		cfg:      cfg,
		clock:    clock,
		store:    store,
		sessions: sessions,
		prefs:    prefs,
		catalog:  client,
		catalogs: coordinator,
		carts:    service.NewCartService(store, sessions, cfg, validator.New()),
		search:   service.NewSearchService(store, client, coordinator, cfg),
	}
}

func sessionContext(t *testing.T, sessionID string) context.Context {
	t.Helper()

	return cache.WithSessionID(t.Context(), sessionID)
}
