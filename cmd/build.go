package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/agentic-research/proctest/internal/export"
	"github.com/agentic-research/proctest/internal/layercache"
	"github.com/agentic-research/proctest/internal/manifest"
	"github.com/spf13/cobra"
)

func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build <manifest> <output.db>",
		Short: "Materialize every manifest asset into a SQLite database",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.Load(args[0])
			if err != nil {
				return err
			}
			output := args[1]

			_ = os.Remove(output) // Overwrite
			writer, err := export.NewSQLiteWriter(output)
			if err != nil {
				return err
			}

			start := time.Now()
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Building %s from %s...\n", output, args[0])

			cache := layercache.New()
			for _, a := range m.Assets {
				layer, err := manifest.Materialize(cache, a)
				if err != nil {
					_ = writer.Close()
					return fmt.Errorf("asset %s: %w", a.Name, err)
				}
				text, err := manifest.Render(cache, a)
				if err != nil {
					_ = writer.Close()
					return fmt.Errorf("asset %s: %w", a.Name, err)
				}
				if err := writer.WriteLayer(a.Name, layer, text); err != nil {
					_ = writer.Close()
					return err
				}
			}
			if err := writer.Close(); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "Wrote %d assets in %v.\n", len(m.Assets), time.Since(start))
			return nil
		},
	}
}
