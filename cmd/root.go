package cmd

import (
	"os"

	"github.com/Oshadha-Nimantha/osdrp/state"
	"github.com/spf13/cobra"
)

var (
	nodeConfigPath    string
	centralConfigPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "osdrp",
	Short: "OSD routing protocol daemon",
	Long: `OSDRP is a secure dynamic link-state routing protocol.
Each router maintains a signed, sequenced view of the topology, computes paths
over a composite latency/bandwidth metric, and precomputes link-disjoint
backup paths so failover is a table lookup rather than a reconvergence.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&nodeConfigPath, "node-config", "n", state.NodeConfigPath, "node-specific config")
	rootCmd.PersistentFlags().StringVarP(&centralConfigPath, "central-config", "c", state.CentralConfigPath, "network-global config")
}
