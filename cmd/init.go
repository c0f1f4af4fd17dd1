package cmd

import (
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"time"

	"github.com/Oshadha-Nimantha/osdrp/state"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

var initOutDir string

// initCmd bootstraps a sample network: a ring of the named routers with
// freshly generated keys, one node.yaml per router plus the shared
// central.yaml. Operators then edit links and tuning to match reality.
var initCmd = &cobra.Command{
	Use:   "init <node> <node> [node...]",
	Short: "Generate configuration for a new network",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, id := range args {
			if err := state.NameValidator(id); err != nil {
				return err
			}
		}

		ccfg := state.CentralCfg{}
		locals := make([]state.LocalCfg, 0, len(args))
		for i, id := range args {
			key := state.GenerateKey()
			port := state.DefaultPort + uint16(i)
			ccfg.Nodes = append(ccfg.Nodes, state.NodeCfg{
				Id:       state.NodeId(id),
				PubKey:   key.Pubkey(),
				Endpoint: netip.AddrPortFrom(netip.MustParseAddr("127.0.0.1"), port),
			})
			locals = append(locals, state.LocalCfg{
				Id:   state.NodeId(id),
				Key:  key,
				Bind: netip.AddrPortFrom(netip.IPv4Unspecified(), port),
			})
		}
		for i := range args {
			ccfg.Links = append(ccfg.Links, state.LinkCfg{
				A:           state.NodeId(args[i]),
				B:           state.NodeId(args[(i+1)%len(args)]),
				BaseLatency: 10 * time.Millisecond,
				Bandwidth:   100,
			})
		}

		if err := os.MkdirAll(initOutDir, 0700); err != nil {
			return err
		}
		if err := writeYaml(filepath.Join(initOutDir, "central.yaml"), &ccfg); err != nil {
			return err
		}
		for _, lcfg := range locals {
			name := fmt.Sprintf("%s.node.yaml", lcfg.Id)
			if err := writeYaml(filepath.Join(initOutDir, name), &lcfg); err != nil {
				return err
			}
		}
		fmt.Printf("wrote configuration for %d routers to %s\n", len(args), initOutDir)
		return nil
	},
}

func writeYaml(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVarP(&initOutDir, "out", "o", "osdrp", "output directory")
}
