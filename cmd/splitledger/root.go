package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
	"github.com/mmynk/splitledger/pkg/logging"
)

var (
	flagConfig   string
	flagDBPath   string
	flagLogLevel string
)

// cfg is loaded once per invocation by the root command.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "splitledger",
	Short: "Shared expense ledger and settlement server",
	Long: "splitledger records shared expenses, reconciles what each person paid " +
		"against the total, and computes the transfers that settle everyone up.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "splitledger.toml", "Config file (TOML)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagDBPath != "" {
		cfg.Database.Path = flagDBPath
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logging.SetupWithLevel(level)

	// Only the server signs tokens.
	if err := cfg.Validate(cmd.Name() == serveCmd.Name()); err != nil {
		return err
	}
	slog.Debug("Configuration loaded", "config", flagConfig, "database", cfg.Database.Path)
	return nil
}

// openStore opens the configured database, running migrations.
func openStore() (*sqlite.SQLiteStore, error) {
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Database.Path, err)
	}
	return store, nil
}
