package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-engine/internal/cache"
	"catalog-engine/internal/config"
	"catalog-engine/internal/database"
	"catalog-engine/internal/handler"
	"catalog-engine/internal/metrics"
	"catalog-engine/internal/repository"
	"catalog-engine/internal/router"
	"catalog-engine/internal/search"
	"catalog-engine/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting catalog engine API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := repository.EnsureSchema(ctx, pool); err != nil {
		return fmt.Errorf("failed to prepare schema: %w", err)
	}

	m := metrics.New("catalog")

	// One process-wide cache holds both the shop menus and the search index.
	c := cache.New[any](cache.WithRecorder(m), cache.WithName("catalog"))
	go c.RunJanitor(ctx, cfg.Cache.SweepInterval)

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	shopRepo := repository.NewShopRepository(pool, logger)

	// Initialize search
	indexBuilder := search.NewIndexBuilder(productRepo, c, cfg.Cache.IndexTTL, m, logger)
	searcher := search.NewSearcher(indexBuilder, nil, logger)

	// Initialize services
	catalogService := service.NewCatalogService(
		productRepo,
		shopRepo,
		c,
		searcher,
		indexBuilder,
		service.CatalogConfig{MenuTTL: cfg.Cache.MenuTTL, Observer: m},
		logger,
	)
	productWriter := service.NewProductWriter(productRepo, catalogService, logger)

	// Initialize HTTP handlers
	catalogHandler := handler.NewCatalogHandler(catalogService, cfg.Search.DefaultLimit, logger)
	productHandler := handler.NewProductHandler(productWriter, logger)

	// Initialize router
	mux := router.New(catalogHandler, productHandler, m.Handler(), logger)

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

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Dur("menu_ttl", cfg.Cache.MenuTTL).
			Dur("index_ttl", cfg.Cache.IndexTTL).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
