package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/cli"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and print the schema version",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(_ *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	store.Close()

	version, dirty, err := sqlite.SchemaVersion(cfg.Database.Path)
	if err != nil {
		return err
	}

	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Printf("  %s schema version %d (%s)\n", cli.RenderMuted(cfg.Database.Path), version, state)
	return nil
}
