package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/picklr-io/tfreconcile/internal/engine"
	"github.com/picklr-io/tfreconcile/internal/logging"
	"github.com/picklr-io/tfreconcile/internal/state"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Re-index the state file against the inventory",
	Long: `Backs up the state file, re-indexes every module against the inventory and
writes the result back.

The backup doubles as a lock: while it exists no other update can start. It is
removed once the state file has been written. If a run fails, the backup is
kept and must be removed with 'tfreconcile unlock'.`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	mgr, err := newManager(ctx)
	if err != nil {
		return err
	}

	run := engine.NewRun(mgr, cfg.InventoryFile, cfg.Engine, engine.NewTextReporter(cmd.OutOrStdout()))
	plan, err := run.Execute(ctx)
	if errors.Is(err, state.ErrNotInitialized) {
		logging.Info("No state file exists. Presuming first run", "state", mgr.Path())
		return nil
	}
	if err != nil {
		return err
	}

	renderPlanSummary(cmd.OutOrStdout(), plan)
	logging.Info("State file has been updated - please execute 'terraform plan'", "run_id", plan.RunID)
	return nil
}
