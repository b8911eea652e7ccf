package commands

import (
	"github.com/spf13/cobra"

	"github.com/erraggy/refc/internal/mcpserver"
)

func newMCPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the merge and compile tools over MCP (stdio)",
		Long: `Start a Model Context Protocol server on stdin/stdout exposing two tools:

  merge    inject fragment $ref entries and return the merged base document
  compile  merge and bundle into a single JSON document

Defaults are read from REFC_MCP_INDENT, REFC_MCP_MAX_REF_DEPTH and
REFC_MCP_MAX_REF_DIRS.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return mcpserver.Run(cmd.Context())
		},
	}
}
