package health

import (
	"context"
	"fmt"
	"time"

	"github.com/aaravmahajanofficial/storefront-cache/internal/config"
	"github.com/hellofresh/health-go/v5"
	"github.com/hellofresh/health-go/v5/checks/postgres"
	healthRedis "github.com/hellofresh/health-go/v5/checks/redis"
)

type CatalogPinger interface {
	Ping(ctx context.Context) error
}

type Endpoints struct {
	Catalog CatalogPinger
}

func NewHealthHandler(cfg *config.Config, endpoints *Endpoints) (*health.Health, error) {

	checks := []health.Config{
		{
			Name:      "redis",
			Timeout:   2 * time.Second,
			SkipOnErr: false,
			Check: healthRedis.New(
				healthRedis.Config{
					DSN: cfg.RedisConnect.GetDSN(),
				},
			),
		},
		{
			Name:    "catalog",
			Timeout: cfg.Catalog.Timeout,
			// The storefront still serves cached data while the catalog is down.
			SkipOnErr: true,
			Check: func(ctx context.Context) error {
				if endpoints.Catalog == nil {
					return fmt.Errorf("catalog client is not initialized")
				}
				if err := endpoints.Catalog.Ping(ctx); err != nil {
					return fmt.Errorf("failed to reach catalog: %w", err)
				}
				return nil
			},
		},
	}

	if cfg.Storage.Driver == "postgres" {
		checks = append(checks, health.Config{
			Name:      "database",
			Timeout:   3 * time.Second,
			SkipOnErr: false,
			Check: postgres.New(postgres.Config{
				DSN: cfg.Database.GetDSN(),
			}),
		})
	}

	h, err := health.New(
		health.WithComponent(health.Component{
			Name:    cfg.Otel.ServiceName,
			Version: "1.0.0",
		}),
		health.WithSystemInfo(),
		health.WithChecks(checks...),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create health instance: %w", err)
	}

	return h, nil
}
