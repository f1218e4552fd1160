package cmd

import (
	"github.com/huangsam/tiercache/core"
	"github.com/spf13/cobra"
)

// exportCmd dumps the local tiers.
var exportCmd = &cobra.Command{
	Use:   "export [collection [scope]]",
	Short: "Export the local tiers as a backup",
	Long: `Export records held by the structured and fallback tiers. The remote is not read.

With a collection argument, only that collection is exported, optionally limited
to keys starting with scope. Otherwise --collections, --start and --end filter
the export by collection and update time.

Examples:
  # Everything, as JSON
  tiercache export --output json --output-file backup.json

  # The exams of one level
  tiercache export exams n1 --output json

  # Records touched in the last week, as Parquet
  tiercache export --start "7 days ago" --output parquet --output-file recent.parquet`,
	Args:    cobra.MaximumNArgs(2),
	PreRunE: sharedSetupWrapper,
	RunE:    runExecutor(core.ExecuteExport),
}

// importCmd loads a backup into the local tiers.
var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a JSON or Parquet backup into the local tiers",
	Long: `Write every record of a backup into the structured and fallback tiers and
clear the query cache. Files ending in .parquet are read as Parquet; anything
else (including stdin) as JSON.

Examples:
  tiercache import backup.json
  tiercache import recent.parquet`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE:    runExecutor(core.ExecuteImport),
}
