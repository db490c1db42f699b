package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/picklr-io/tfreconcile/internal/engine"
	"github.com/picklr-io/tfreconcile/internal/logging"
	"github.com/picklr-io/tfreconcile/internal/state"
)

var planOutput string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what update would do",
	Long: `Reconciles the live state file in memory and prints the decisions.

Nothing is written and no backup is taken.`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planOutput, "output", "o", "text", "Output format: text, json or yaml")
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if err := checkFormat(planOutput, formatText, formatJSON, formatYAML); err != nil {
		return err
	}

	mgr, err := newManager(ctx)
	if err != nil {
		return err
	}

	var reporter engine.Reporter
	if planOutput == formatText {
		reporter = engine.NewTextReporter(out)
	}

	run := engine.NewRun(mgr, cfg.InventoryFile, cfg.Engine, reporter)
	plan, err := run.Preview(ctx)
	if errors.Is(err, state.ErrNotInitialized) {
		logging.Info("No state file exists. Nothing to plan", "state", mgr.Path())
		return nil
	}
	if err != nil {
		return err
	}

	if planOutput != formatText {
		return writeStructured(out, planOutput, plan)
	}

	renderPlanSummary(out, plan)
	if plan.Summary.Move > 0 {
		fmt.Fprintf(out, "\nRun 'tfreconcile update' to apply, then 'terraform plan' to review the %d resource(s) marked for removal.\n", plan.Summary.Move)
	}
	return nil
}
