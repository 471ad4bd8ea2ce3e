package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/agentic-research/proctest/internal/fileformat"
	"github.com/spf13/cobra"
)

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List registered file formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tVERSION\tTARGET\tEXTENSION\tPARAMETER")
			for _, id := range fileformat.Identities() {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", id.ID, id.Version, id.Target, id.Extension, id.ParameterKey)
			}
			return w.Flush()
		},
	}
}
