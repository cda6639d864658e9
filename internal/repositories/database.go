package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/XSAM/otelsql"
	"github.com/aaravmahajanofficial/storefront-cache/internal/config"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	_ "github.com/lib/pq"
)

// Open connects to Postgres with a traced driver and applies the pool limits.
func Open(ctx context.Context, cfg *config.Database) (*sql.DB, error) {

	db, err := otelsql.Open("postgres", cfg.GetDSN(), otelsql.WithAttributes(semconv.DBSystemPostgreSQL))

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// NewDurableStore builds the configured durable store driver. The postgres
// driver is migrated to the latest schema before it is returned.
func NewDurableStore(ctx context.Context, cfg *config.Config, opts ...Option) (DurableStore, *sql.DB, error) {

	switch cfg.Storage.Driver {
	case "memory":
		return NewMemoryStore(cfg.Cache.Expiration, opts...), nil, nil

	case "postgres", "":
		db, err := Open(ctx, &cfg.Database)
		if err != nil {
			return nil, nil, err
		}

		store := NewPostgresStore(db, cfg.Cache.Expiration, opts...)

		if err := store.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}

		return store, db, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
}
