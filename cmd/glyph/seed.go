package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Adalene/glyph/internal/config"
	"github.com/Adalene/glyph/internal/seed"
	"github.com/Adalene/glyph/internal/storage/backend"
)

var errNoRemoteStore = errors.New("seed: no remote store configured (set GLYPH_DATABASE_URL or GLYPH_STORAGE_ENGINE=sqlite)")

func newSeedCmd() *cobra.Command {
	var batchSize int

	cmd := &cobra.Command{
		Use:   "seed [dataset]",
		Short: "Upsert an icon dataset into the remote store",
		Long: `Reads a JSON or YAML array of icons (default: the snapshot file) and
upserts it into the remote store in batches. Failed batches are logged and
skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataset := cfg.Storage.SnapshotPath
			if len(args) == 1 {
				dataset = args[0]
			}
			if cmd.Flags().Changed("batch-size") {
				cfg.Generation.SeedBatchSize = batchSize
			}
			return runSeed(cmd.Context(), cfg, dataset, logger)
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch-size", seed.DefaultBatchSize, "Records per upsert")
	return cmd
}

func runSeed(ctx context.Context, cfg *config.Config, dataset string, logger *zap.Logger) error {
	if !cfg.RemoteConfigured() {
		return errNoRemoteStore
	}
	store, err := backend.Open(cfg, logger)
	if err != nil {
		return err
	}
	if store == nil {
		return errNoRemoteStore
	}
	defer store.Close()

	icons, err := seed.LoadDataset(dataset)
	if err != nil {
		return err
	}
	logger.Info("seeding icons", zap.String("dataset", dataset), zap.Int("count", len(icons)))

	report, err := seed.New(store, cfg.Generation.SeedBatchSize, logger).Run(ctx, icons)
	if err != nil {
		return err
	}

	logger.Info("seeding completed",
		zap.Int("uploaded", report.Uploaded),
		zap.Int("failed", report.Failed()),
		zap.Int("skipped", report.Skipped))
	for _, f := range report.Failures {
		logger.Warn("batch not uploaded", zap.Error(f))
	}
	return nil
}
