package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/picklr-io/tfreconcile/internal/config"
	"github.com/picklr-io/tfreconcile/internal/logging"
	"github.com/picklr-io/tfreconcile/internal/state"
)

var (
	cfgFile       string
	stateFile     string
	backupFile    string
	inventoryFile string
	logLevel      string
	logFormat     string
	backendType   string

	// cfg is loaded before every command runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "tfreconcile",
	Short: "Reconcile a terraform state file against the host inventory",
	Long: `tfreconcile re-indexes the machines of a terraform state file against a CSV
host inventory.

Machines still listed in the inventory keep a stable slot; machines that expired
or are no longer listed are moved behind them so that the next 'terraform plan'
removes or replaces them.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command. Errors are logged before being returned.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		logging.Error(err.Error())
	}
	logging.Sync()
	return err
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default ./tfreconcile.yaml)")
	flags.StringVar(&stateFile, "state", "", "State file (default terraform.tfstate)")
	flags.StringVar(&backupFile, "backup", "", "Backup file (default <state>"+state.BackupSuffix+")")
	flags.StringVar(&inventoryFile, "inventory", "", "Inventory CSV file (default csv/inventory.csv)")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&logFormat, "log-format", "", "Log format: console or json")
	flags.StringVar(&backendType, "backend", "", "State backend: local or s3")

	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(unlockCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(inventoryCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(versionCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(".", cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := logging.Init(loaded.Log); err != nil {
		return err
	}
	cfg = loaded
	return nil
}

func newManager(ctx context.Context) (*state.Manager, error) {
	store, err := state.NewStore(ctx, &cfg.Backend, "")
	if err != nil {
		return nil, fmt.Errorf("failed to open state backend: %w", err)
	}
	return state.NewManager(store, cfg.StateFile, cfg.BackupFile), nil
}
