// Package main is the vacancies command line: search job boards, rank by salary
// and manage the saved vacancy store.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/project-tktt/go-vacancies/internal/common/storage"
	"github.com/project-tktt/go-vacancies/internal/config"
	"github.com/project-tktt/go-vacancies/pkg/logging"
	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	logger *logging.Logger

	logLevel string
	backend  string
)

var rootCmd = &cobra.Command{
	Use:           "vacancies",
	Short:         "Aggregate vacancies from hh.ru and SuperJob",
	Long:          "vacancies fetches postings from several job boards, normalizes them into one record format, ranks them by salary and keeps a local store with soft delete.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		cfg = config.Load()
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if backend != "" {
			cfg.Storage.Backend = backend
		}
		logger = logging.New(cfg.LogLevel)
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&backend, "storage", "", "Storage backend: file, postgres or elasticsearch (default from STORAGE_BACKEND)")
}

// withStore opens the configured backend for the duration of fn
func withStore(ctx context.Context, fn func(storage.Storage) error) error {
	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	return fn(store)
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
