package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/picklr-io/tfreconcile/internal/engine"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <key>...",
	Short: "Show the machine class of resource keys",
	Long: `Prints the logical key, machine type and data provider derived from each
resource key, e.g.

  tfreconcile classify svc-a.win-standard-m.0`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func runClassify(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for _, key := range args {
		logical := engine.LogicalKey(key)
		class, err := engine.ClassifyWith(logical, cfg.Engine.ProviderPrefix)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n  logical:  %s\n  machine:  %s\n  provider: %s\n", key, logical, class.MachineType, class.DataProvider)
	}
	return nil
}
