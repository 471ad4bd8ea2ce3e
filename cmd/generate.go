package cmd

import (
	"log"

	"github.com/agentic-research/proctest/api"
	"github.com/agentic-research/proctest/internal/layercache"
	"github.com/agentic-research/proctest/internal/manifest"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	var (
		arguments map[string]string
		context   map[string]string
		comment   string
	)

	cmd := &cobra.Command{
		Use:   "generate <asset>",
		Short: "Materialize an asset and print the layer",
		Long: `Materialize an asset through its file format and print the layer as usda.

Explicit --arg values are embedded in the layer identifier. Otherwise the
arguments are derived from the --context opinions, as a composition host would.`,
		Example: `  proctest generate cube.proctest
  proctest generate cube.proctest --context Usd_Proctest_SideLength=2
  proctest generate cube.proctest --arg Usd_Proctest_SideLength=4.0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := api.Asset{Name: comment, Path: args[0], Arguments: arguments}
			if len(context) > 0 {
				a.Context = []map[string]any{parseOpinions(context)}
			}

			cache := layercache.New()
			layer, err := manifest.Materialize(cache, a)
			if err != nil {
				return err
			}
			for _, d := range layer.Diagnostics() {
				log.Printf("%s: %s", layer.Identifier(), d)
			}
			return manifest.RenderTo(cache, a, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringToStringVar(&arguments, "arg", nil, "Explicit file format argument (key=value)")
	cmd.Flags().StringToStringVar(&context, "context", nil, "Composition opinion (key=value); numbers are coerced to the field's type")
	cmd.Flags().StringVar(&comment, "comment", "", "Layer doc comment")
	return cmd
}

// parseOpinions turns command line strings into manifest-like values:
// numbers and booleans are recognized, everything else stays a string.
func parseOpinions(raw map[string]string) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		if f, err := cast.ToFloat64E(v); err == nil {
			out[k] = f
			continue
		}
		if b, err := cast.ToBoolE(v); err == nil {
			out[k] = b
			continue
		}
		out[k] = v
	}
	return out
}
