package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/picklr-io/tfreconcile/internal/engine"
	"github.com/picklr-io/tfreconcile/internal/ir"
	"github.com/picklr-io/tfreconcile/internal/state"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect the state file",
}

var stateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List modules and resources in the state",
	Args:  cobra.NoArgs,
	RunE:  runStateList,
}

func init() {
	stateCmd.AddCommand(stateListCmd)
}

func runStateList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	mgr, err := newManager(ctx)
	if err != nil {
		return err
	}

	s, err := mgr.ReadLive(ctx)
	if errors.Is(err, state.ErrNotInitialized) {
		fmt.Fprintf(out, "No state file at %s.\n", mgr.Path())
		return nil
	}
	if err != nil {
		return err
	}

	if serial, ok := s.Field("serial"); ok {
		fmt.Fprintf(out, "State serial: %v\n", serial)
	}

	for _, m := range s.Modules {
		fmt.Fprintf(out, "\nmodule %s\n", strings.Join(m.Path, "/"))
		for _, key := range m.Resources.Keys() {
			res, _ := m.Resources.Get(key)
			if res.Kind == ir.KindData {
				fmt.Fprintf(out, "  %s (data)\n", key)
				continue
			}
			fmt.Fprintf(out, "  %s -> %s [%s]\n", key, res.Name(), engine.LogicalKey(key))
		}
	}
	fmt.Fprintf(out, "\nTotal: %d module(s), %d resource(s)\n", len(s.Modules), s.ResourceCount())

	if locked, err := mgr.Locked(ctx); err == nil && locked {
		fmt.Fprintf(out, "\nBackup %s exists: updates are blocked until it is removed.\n", mgr.BackupPath())
	}
	return nil
}
