package cmd

import (
	"github.com/huangsam/tiercache/core"
	"github.com/spf13/cobra"
)

// getCmd reads one record.
var getCmd = &cobra.Command{
	Use:   "get <collection> <key>",
	Short: "Read a record through every storage tier",
	Long: `Read one record, trying the remote first, then the structured tier, then the fallback file.

Keys are colon-separated composite keys:
  books, series, chapters, exams (list)   level or bookId   e.g. n1
  lessons, exams (single), level_config   two parts         e.g. b1:c1
  quizzes                                 three parts       e.g. b1:c1:l1

Examples:
  # Books of a level
  tiercache get books n1

  # One exam as JSON
  tiercache get exams n1:2024-12 --output json`,
	Args:    cobra.ExactArgs(2),
	PreRunE: sharedSetupWrapper,
	RunE:    runExecutor(core.ExecuteGet),
}

// saveCmd writes one record.
var saveCmd = &cobra.Command{
	Use:   "save <collection> <key> [file]",
	Short: "Save a record to the local tiers (and the remote with --writer)",
	Long: `Save one record from a JSON file, or from stdin when the file is omitted or "-".

Without --writer the save is local-only. With --writer the remote is written first;
a failed remote write still keeps the local copies.

Examples:
  tiercache save books n1 books.json
  cat lessons.json | tiercache save lessons b1:c1 --writer editor@example.com`,
	Args:    cobra.RangeArgs(2, 3),
	PreRunE: sharedSetupWrapper,
	RunE:    runExecutor(core.ExecuteSave),
}

// deleteCmd removes one record.
var deleteCmd = &cobra.Command{
	Use:   "delete <collection> <key>",
	Short: "Delete a record from every tier",
	Long: `Delete one record from the local tiers, and from the remote when --writer is set.

Examples:
  tiercache delete quizzes b1:c1:l1`,
	Args:    cobra.ExactArgs(2),
	PreRunE: sharedSetupWrapper,
	RunE:    runExecutor(core.ExecuteDelete),
}

// finalizeCmd normalizes and saves an exam.
var finalizeCmd = &cobra.Command{
	Use:   "finalize <level> <examId> [file]",
	Short: "Assign global question numbers to an exam and save it",
	Long: `Renumber every question of an exam 1..N across knowledge, reading and listening
sections, then save it under (level, examId). Listening questions also get a
zero-padded display number.

Examples:
  tiercache finalize n1 2024-12 exam.json --output json`,
	Args:    cobra.RangeArgs(2, 3),
	PreRunE: sharedSetupWrapper,
	RunE:    runExecutor(core.ExecuteFinalize),
}
