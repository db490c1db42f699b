package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/picklr-io/tfreconcile/internal/inventory"
)

var (
	invVApp      string
	invTemplate  string
	invOutput    string
	invTemplates bool
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Show the hosts of the inventory",
	Long: `Shows the inventory as provisioning sees it.

Hosts past their expiry date are reported powered off. Hosts expired for a week
or more are left out.`,
	Args: cobra.NoArgs,
	RunE: runInventory,
}

func init() {
	inventoryCmd.Flags().StringVar(&invVApp, "vapp", "", "Only hosts whose vapp ends with this value")
	inventoryCmd.Flags().StringVar(&invTemplate, "template", "", "Only hosts of this template, e.g. winM")
	inventoryCmd.Flags().StringVarP(&invOutput, "output", "o", "text", "Output format: text, json or yaml")
	inventoryCmd.Flags().BoolVar(&invTemplates, "templates", false, "List the templates in use instead of hosts")
}

func runInventory(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if err := checkFormat(invOutput, formatText, formatJSON, formatYAML); err != nil {
		return err
	}

	inv, err := inventory.Load(cfg.InventoryFile)
	if err != nil {
		return err
	}

	if invTemplates {
		names := inv.TemplateNames()
		if invOutput != formatText {
			return writeStructured(out, invOutput, names)
		}
		for _, name := range names {
			fmt.Fprintln(out, name)
		}
		return nil
	}

	q := inventory.Query{}
	if invVApp != "" {
		q[inventory.ColumnVApp] = invVApp
	}
	if invTemplate != "" {
		q[inventory.ColumnTemplate] = invTemplate
	}

	hosts, err := inv.Hosts(q, time.Now())
	if err != nil {
		return err
	}

	if invOutput != formatText {
		if hosts == nil {
			hosts = []inventory.Host{}
		}
		return writeStructured(out, invOutput, hosts)
	}

	if len(hosts) == 0 {
		fmt.Fprintln(out, "No hosts found.")
		return nil
	}
	fmt.Fprintf(out, "%-24s %-32s %-10s %-12s %s\n", "HOSTNAME", "VAPP", "TEMPLATE", "EXPIRES", "POWER")
	for _, h := range hosts {
		fmt.Fprintf(out, "%-24s %-32s %-10s %-12s %s\n", h.Hostname, h.VApp, h.Template, h.Expires, h.Power)
	}
	fmt.Fprintf(out, "\nTotal: %d host(s)\n", len(hosts))
	return nil
}
