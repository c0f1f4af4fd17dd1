package cmd

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/Oshadha-Nimantha/osdrp/core"
	"github.com/Oshadha-Nimantha/osdrp/state"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var routesFrom string

// routesCmd previews the routing table a router would compute from the
// central config's nominal link characteristics. Useful for sanity-checking a
// topology before deploying it; the live table can drift with measurements.
var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Preview computed routes for a node",
	RunE: func(cmd *cobra.Command, args []string) error {
		ccfg, err := core.ReadCentralConfig(centralConfigPath)
		if err != nil {
			return err
		}
		state.ExpandCentralConfig(ccfg)
		if err := state.CentralConfigValidator(ccfg); err != nil {
			return err
		}
		src := state.NodeId(routesFrom)
		if ccfg.GetNode(src) == nil {
			return fmt.Errorf("node %s is not in the central config", src)
		}

		table := core.PlanRoutes(ccfg, src)
		dests := make([]state.NodeId, 0, len(table))
		for dest := range table {
			dests = append(dests, dest)
		}
		slices.Sort(dests)

		w := tablewriter.NewWriter(os.Stdout)
		w.SetHeader([]string{"Destination", "Next Hop", "Cost", "Path", "Backup Hop", "Backup Cost"})
		for _, dest := range dests {
			e := table[dest]
			backupHop, backupCost := "-", "-"
			if e.Backup != nil {
				backupHop = string(e.Backup.NextHop)
				backupCost = fmt.Sprintf("%.3f", e.Backup.Cost)
			}
			w.Append([]string{
				string(e.Dest),
				string(e.NextHop),
				fmt.Sprintf("%.3f", e.Cost),
				pathString(e.Path),
				backupHop,
				backupCost,
			})
		}
		w.Render()
		return nil
	},
}

func pathString(path []state.NodeId) string {
	parts := make([]string, len(path))
	for i, n := range path {
		parts[i] = string(n)
	}
	return strings.Join(parts, " > ")
}

func init() {
	rootCmd.AddCommand(routesCmd)
	routesCmd.Flags().StringVarP(&routesFrom, "from", "f", "", "source node id")
	_ = routesCmd.MarkFlagRequired("from")
}
