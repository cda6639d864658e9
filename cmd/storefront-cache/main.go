package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aaravmahajanofficial/storefront-cache/internal/api"
	"github.com/aaravmahajanofficial/storefront-cache/internal/cache"
	"github.com/aaravmahajanofficial/storefront-cache/internal/catalog"
	"github.com/aaravmahajanofficial/storefront-cache/internal/config"
	"github.com/aaravmahajanofficial/storefront-cache/internal/health"
	repository "github.com/aaravmahajanofficial/storefront-cache/internal/repositories"
	service "github.com/aaravmahajanofficial/storefront-cache/internal/services"
	"github.com/aaravmahajanofficial/storefront-cache/internal/telemetry"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		slog.Error("❌ Error initializing tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Durable store setup
	store, db, err := repository.NewDurableStore(ctx, cfg)
	if err != nil {
		slog.Error("❌ Error initializing the durable store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Redis setup
	redisClient, err := cache.NewRedisClient(ctx, &cfg.RedisConnect)
	if err != nil {
		slog.Error("❌ Error accessing the redis instance", slog.String("error", err.Error()))
		os.Exit(1)
	}

	preferences := cache.NewRedisCache(redisClient, &cfg.Cache)
	sessions := cache.NewSessionCache(&cfg.Cache)
	catalogClient := catalog.New(&cfg.Catalog)

	catalogService := service.NewCoordinator(store, preferences, sessions, catalogClient, cfg)
	cartService := service.NewCartService(store, sessions, cfg, validator.New())
	searchService := service.NewSearchService(store, catalogClient, catalogService, cfg)

	healthChecker, err := health.NewHealthHandler(cfg, &health.Endpoints{Catalog: catalogClient})
	if err != nil {
		slog.Error("❌ Error creating health checks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("storage initialized",
		slog.String("env", cfg.Env),
		slog.String("driver", cfg.Storage.Driver),
		slog.Bool("postgres", db != nil),
		slog.String("version", "1.0.0"),
	)

	router := api.NewRouter(&api.Services{
		Catalog: catalogService,
		Cart:    cartService,
		Search:  searchService,
	}, healthChecker.Handler(), repository.NewRateLimitRepo(redisClient, &cfg.RateConfig))

	// Setup http server
	server := http.Server{
		Addr:    cfg.Addr,
		Handler: otelhttp.NewHandler(router, "storefront-cache"),
	}

	go service.RunSweeper(ctx, catalogService, cfg.Cache.SweepInterval)

	slog.Info("🚀 Server is starting...", slog.String("address", cfg.Addr))

	go func() {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("❌ Failed to start server", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Server shut down gracefully. All connections closed.")
	}

	if err := catalogClient.Close(); err != nil {
		slog.Error("⚠️ Error closing catalog client", slog.String("error", err.Error()))
	}

	if err := preferences.Close(); err != nil {
		slog.Error("⚠️ Error closing redis connection", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Redis connection closed")
	}

	if err := store.Close(); err != nil {
		slog.Error("⚠️ Error closing durable store", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Durable store closed")
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("⚠️ Error flushing traces", slog.String("error", err.Error()))
	}
}
