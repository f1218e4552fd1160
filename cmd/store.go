package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/tiercache/core"
	"github.com/huangsam/tiercache/internal/contract"
	"github.com/huangsam/tiercache/internal/iocache"
	"github.com/huangsam/tiercache/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// statusCmd shows the state of every tier.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display availability and usage of every storage tier",
	Long: `Show the remote reachability, structured tier statistics, fallback quota usage
and query cache size.

Examples:
  tiercache status
  tiercache status --output json`,
	PreRunE: sharedSetupWrapper,
	RunE:    runExecutor(core.ExecuteStatus),
}

// clearCmd wipes the local tiers.
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all locally stored records",
	Long: `Delete the structured tier and the fallback file. The remote is never touched.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the record table

Examples:
  tiercache clear

  # Clear a MySQL structured tier (set connection string via env variable)
  TIERCACHE_STRUCTURED_BACKEND=mysql TIERCACHE_STRUCTURED_DB_CONNECT="..." tiercache clear`,
	PreRunE: storeSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		dbFilePath := cfg.StructuredDBConnect
		if dbFilePath == "" {
			dbFilePath = contract.GetStructuredDBFilePath()
		}
		if err := iocache.ClearRecords(cfg.StructuredBackend, dbFilePath, cfg.StructuredDBConnect); err != nil {
			return fmt.Errorf("failed to clear structured tier: %w", err)
		}
		if err := iocache.ClearFallback(cfg.FallbackPath); err != nil {
			return fmt.Errorf("failed to clear fallback tier: %w", err)
		}
		fmt.Println("Local tiers cleared successfully.")
		return nil
	},
}

// migrateCmd runs schema migrations for the structured tier.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run structured tier schema migrations (upgrades/downgrades)",
	Long: `Manage schema versions of the structured tier.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  tiercache migrate

  # Rollback to initial state
  tiercache migrate --target-version 0`,
	PreRunE: storeSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		if cfg.StructuredBackend == schema.NoneBackend {
			return fmt.Errorf("structured backend is none; nothing to migrate")
		}
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateRecords(os.Stdout, cfg.StructuredBackend, cfg.StructuredDBConnect, targetVersion); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		return nil
	},
}
