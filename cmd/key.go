package cmd

import (
	"fmt"

	"github.com/Oshadha-Nimantha/osdrp/state"
	"github.com/spf13/cobra"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Generate a node keypair",
	RunE: func(cmd *cobra.Command, args []string) error {
		key := state.GenerateKey()
		priv, err := key.MarshalText()
		if err != nil {
			return err
		}
		pub, err := key.Pubkey().MarshalText()
		if err != nil {
			return err
		}
		fmt.Printf("private: %s\n", priv)
		fmt.Printf("public:  %s\n", pub)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keyCmd)
}
