// Command glyph serves the icon generation API and seeds the remote store.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Adalene/glyph/internal/config"
)

var (
	// Global flags
	verbose bool
	envFile string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "glyph",
		Short: "glyph - AI-generated stroke icon service",
		Long: `glyph generates 24x24 stroke icons with an upstream language model,
stores them in Postgres (or SQLite) and serves the merged catalog over HTTP.

Configuration is read from GLYPH_* environment variables, optionally loaded
from a .env file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnvFile(envFile); err != nil {
				return err
			}

			var err error
			cfg, err = config.LoadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err = newLogger(cfg, verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			zap.ReplaceGlobals(logger)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load before reading configuration")

	root.AddCommand(newServeCmd())
	root.AddCommand(newSeedCmd())
	return root
}

// loadEnvFile loads variables from path without overriding ones already set.
// A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// newLogger builds a JSON production logger, or a console development
// logger in development mode.
func newLogger(cfg *config.Config, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.IsDevelopment() {
		zc = zap.NewDevelopmentConfig()
		zc.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zc.Build()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
