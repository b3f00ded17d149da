package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Adalene/glyph/internal/catalog"
	"github.com/Adalene/glyph/internal/config"
	"github.com/Adalene/glyph/internal/generator"
	"github.com/Adalene/glyph/internal/llm"
	"github.com/Adalene/glyph/internal/server"
	"github.com/Adalene/glyph/internal/storage/backend"
	"github.com/Adalene/glyph/internal/storage/snapshot"
	"github.com/Adalene/glyph/web/handlers"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, logger)
		},
	}
}

// newPipeline builds the generation pipeline and a reporter for the upstream
// breaker state. Without an API key the pipeline has no model and every
// request reports the missing key.
func newPipeline(cfg *config.Config, saver generator.Saver, logger *zap.Logger) (*generator.Pipeline, func() string) {
	opts := []generator.Option{generator.WithLogger(logger)}
	if cfg.Generation.Persist {
		opts = append(opts, generator.WithSaver(saver))
	}

	if cfg.LLM.AnthropicAPIKey == "" {
		logger.Warn("GLYPH_ANTHROPIC_API_KEY is not set, generation is disabled")
		return generator.New(nil, opts...), func() string { return "disabled" }
	}

	breaker := llm.DefaultCircuitBreakerConfig()
	breaker.MaxFailures = cfg.LLM.BreakerMaxFailures
	breaker.Timeout = cfg.LLM.BreakerCooldown

	client := llm.NewAnthropicClient(llm.AnthropicConfig{
		APIKey:    cfg.LLM.AnthropicAPIKey,
		BaseURL:   cfg.LLM.AnthropicBaseURL,
		Model:     cfg.LLM.AnthropicModel,
		MaxTokens: cfg.LLM.MaxTokens,
		Timeout:   cfg.LLM.Timeout,
		Breaker:   breaker,
		Logger:    logger,
	})
	return generator.New(client, opts...), client.BreakerState
}

func runServe(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	store, err := backend.Open(cfg, logger)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	} else {
		logger.Info("no remote store configured, serving from the local snapshot only")
	}

	snap := snapshot.New(cfg.Storage.SnapshotPath, cfg.IsDevelopment())
	hub := handlers.NewFeedHub(cfg.Security.FeedOrigins, logger)
	cat := catalog.New(store, snap,
		catalog.WithLogger(logger),
		catalog.WithAcceptHook(hub.PublishIcon),
	)

	pipeline, upstreamState := newPipeline(cfg, cat, logger)
	addr, done, err := server.Start(ctx, cfg, server.Deps{
		Catalog:       cat,
		Generator:     pipeline,
		Feed:          hub,
		UpstreamState: upstreamState,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	logger.Info("glyph API listening",
		zap.String("addr", "http://"+addr),
		zap.String("mode", cfg.Security.Mode),
		zap.String("storage", cfg.Storage.Engine),
		zap.String("snapshot", snap.Path()))

	<-done
	logger.Info("shut down")
	return nil
}
