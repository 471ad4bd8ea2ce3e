package cmd

import (
	"github.com/agentic-research/proctest/internal/layercache"
	"github.com/agentic-research/proctest/internal/mcpserver"
	"github.com/spf13/cobra"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP tool server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return mcpserver.New(layercache.New()).Serve()
		},
	}
}
