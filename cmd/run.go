package cmd

import (
	"github.com/Oshadha-Nimantha/osdrp/core"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	logPath string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the routing daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		return core.Bootstrap(centralConfigPath, nodeConfigPath, logPath, verbose)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	runCmd.Flags().StringVarP(&logPath, "log-path", "l", "", "also write logs to this file")
}
