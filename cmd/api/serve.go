package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/discount"
	"storefront/internal/handler"
	"storefront/internal/idgen"
	"storefront/internal/metrics"
	"storefront/internal/notify"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"
	"storefront/internal/voucher"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

// setup loads configuration, builds the logger and opens the database pool.
func setup(ctx context.Context) (*config.Config, zerolog.Logger, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return nil, logger, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return cfg, logger, pool, nil
}

func migrate(c *cli.Context) error {
	_, logger, pool, err := setup(c.Context)
	if err != nil {
		return err
	}
	defer pool.Close()

	return database.Migrate(c.Context, pool, logger)
}

func serve(c *cli.Context) error {
	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	cfg, logger, pool, err := setup(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	logger.Info().Msg("starting storefront API server")

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return err
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	discountRepo := repository.NewDiscountRepository(pool, logger)
	voucherRepo := repository.NewVoucherRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)

	resolver := discount.NewResolver(discountRepo, logger)
	validator := voucher.NewValidator(voucherRepo, logger)

	ids, err := idgen.NewSnowflake(cfg.Orders.NodeID)
	if err != nil {
		return fmt.Errorf("failed to initialize order numbers: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	notifier, closeNotifier, err := newNotifier(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer closeNotifier()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer)

	// Initialize services
	productService := service.NewProductService(productRepo, resolver, cfg.Pricing.ResolveConcurrency, logger)
	discountService := service.NewDiscountService(discountRepo, logger)
	voucherService := service.NewVoucherService(voucherRepo, validator, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, resolver, validator, notifier, ids, m, cfg.Orders, logger)

	// Initialize router
	mux := router.New(router.Handlers{
		Product:  handler.NewProductHandler(productService, logger),
		Order:    handler.NewOrderHandler(orderService, logger),
		Discount: handler.NewDiscountHandler(discountService, logger),
		Voucher:  handler.NewVoucherHandler(voucherService, logger),
	}, tokens, m, registry, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newNotifier returns the Redis notifier when enabled and the log notifier otherwise.
func newNotifier(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (notify.Notifier, func(), error) {
	if !cfg.Enabled {
		logger.Info().Msg("redis disabled, order events will be logged only")
		return notify.NewLogNotifier(logger), func() {}, nil
	}

	client, err := notify.NewRedisClient(ctx, cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close redis client")
		}
	}
	return notify.NewRedisNotifier(client, cfg.Channel, logger), closeFn, nil
}
