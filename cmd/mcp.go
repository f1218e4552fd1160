package cmd

import (
	"github.com/huangsam/tiercache/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the tiercache MCP server",
	Long: `Launch an MCP server on stdio so AI agents can read, save and delete content
records and finalize exams through the storage manager.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, storageManager)
	},
}
