// Package cmd defines the command-line interface for tiercache.
package cmd

import (
	"github.com/huangsam/tiercache/internal/contract"
	"github.com/huangsam/tiercache/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Record commands
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(finalizeCmd)

	// Backup commands
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)

	// Store management commands
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(migrateCmd)

	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("structured-backend", string(schema.SQLiteBackend), "Structured tier backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("structured-db-connect", "", "Structured tier connection string (SQLite file path, or user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("fallback-path", "", "Path of the fallback key/value file (empty = ~/.tiercache_fallback.json)")
	rootCmd.PersistentFlags().Int64("fallback-limit", contract.DefaultFallbackLimit, "Fallback tier quota in bytes")
	rootCmd.PersistentFlags().String("remote-backend", string(schema.NoneBackend), "Remote tier backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("remote-db-connect", "", "Remote tier connection string (must differ from structured-db-connect)")
	rootCmd.PersistentFlags().String("remote-timeout", contract.DefaultRemoteTimeout.String(), "Upper bound for each remote call")
	rootCmd.PersistentFlags().String("query-ttl", contract.DefaultQueryTTL.String(), "Lifetime of query cache entries")
	rootCmd.PersistentFlags().Int("query-max-entries", 0, "Query cache capacity (0 = bounded by TTL only)")
	rootCmd.PersistentFlags().String("writer", "", "Writer identity authorizing remote writes (empty = local-only writes)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().String("log-level", contract.DefaultLogLevel, "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of exportCmd to Viper
	exportCmd.Flags().String("collections", "", "Comma-separated collections to export (empty = all)")
	exportCmd.Flags().String("start", "", "Only export records updated at or after this time (ISO8601 or time ago)")
	exportCmd.Flags().String("end", "", "Only export records updated at or before this time (ISO8601 or time ago)")
	if err := viper.BindPFlags(exportCmd.Flags()); err != nil {
		contract.LogFatal("Error binding export flags", err)
	}

	// Bind all flags of migrateCmd to Viper
	migrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(migrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding migrate flags", err)
	}
}
