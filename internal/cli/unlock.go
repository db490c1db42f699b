package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Remove the backup left behind by a failed update",
	Long: `Removes the backup state file that blocks further updates.

Only do this once you have checked that the live state file is intact; the
backup is the last copy taken before the failed run.`,
	Args: cobra.NoArgs,
	RunE: runUnlock,
}

func runUnlock(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	mgr, err := newManager(ctx)
	if err != nil {
		return err
	}

	if err := mgr.Unlock(ctx); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed backup file %s\n", mgr.BackupPath())
	return nil
}
