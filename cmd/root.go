package cmd

import (
	"fmt"
	"os"

	"github.com/agentic-research/proctest/internal/proctest"
	"github.com/spf13/cobra"
)

// NewRootCmd assembles the proctest command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "proctest",
		Short: "Procedural file format host: materialize, inspect and serve generated layers",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			proctest.Register()
		},
		SilenceUsage: true,
	}
	root.AddCommand(
		newFormatsCmd(),
		newGenerateCmd(),
		newBuildCmd(),
		newServeCmd(),
		newMCPCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
