package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"catalog-engine/internal/config"
	"catalog-engine/internal/database"
	"catalog-engine/internal/repository"
	"catalog-engine/internal/seed"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "seed",
		Short: "Catalog import tool",
		Long:  "Loads gzipped JSON-lines catalog files from disk or S3 into the catalog database",
	}

	rootCmd.AddCommand(importCmd(), sampleCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func importCmd() *cobra.Command {
	var batchSize int

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a catalog file",
		Long: "Import a catalog file. When S3_ENABLED is set the file is first looked up " +
			"in S3_BUCKET under S3_PREFIX, then on local disk.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runImport(ctx, args[0], batchSize)
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", seed.DefaultBatchSize, "Products written per database batch")

	return cmd
}

func sampleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sample <file>",
		Short: "Write a small sample catalog file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := seed.WriteFile(args[0], seed.SampleCatalog()); err != nil {
				return err
			}
			fmt.Printf("Created %s\n", args[0])
			return nil
		},
	}
}

func runImport(ctx context.Context, path string, batchSize int) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)

	fileLoader := seed.NewFileLoader(logger)
	var s3Loader seed.Loader
	if cfg.S3.Enabled {
		s3Loader, err = seed.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		}
	}
	loader := seed.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, logger)

	cat, err := loader.Load(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := repository.EnsureSchema(ctx, pool); err != nil {
		return fmt.Errorf("failed to prepare schema: %w", err)
	}

	importer := seed.NewImporter(
		repository.NewShopRepository(pool, logger),
		repository.NewProductRepository(pool, logger),
		batchSize,
		logger,
	)

	res, err := importer.Import(ctx, cat)
	if err != nil {
		return fmt.Errorf("import stopped after %d shops and %d products: %w", res.Shops, res.Products, err)
	}

	// Running API instances pick the new rows up once their cached menus
	// and search index expire.
	logger.Info().
		Int("shops", res.Shops).
		Int("products", res.Products).
		Msg("catalog import completed")

	return nil
}
