package mock

import (
	"time"

	"github.com/Oshadha-Nimantha/osdrp/state"
)

// FastTimings compresses every protocol timer so tests converge in
// milliseconds instead of seconds.
func FastTimings() state.TimingCfg {
	return state.TimingCfg{
		RefreshInterval: 200 * time.Millisecond,
		StalenessWindow: 800 * time.Millisecond,
		SweepInterval:   100 * time.Millisecond,
		SampleInterval:  50 * time.Millisecond,
		RateWindow:      time.Second,
		RateBurst:       1000, // high enough that legitimate churn never trips it
		CoalesceDelay:   20 * time.Millisecond,
	}
}

// Cfg builds a central config plus per-node local configs for the given link
// set, generating a fresh keypair per node.
func Cfg(links []state.LinkCfg, timing state.TimingCfg) (state.CentralCfg, []state.LocalCfg) {
	seen := make(map[state.NodeId]struct{})
	ids := make([]state.NodeId, 0)
	for _, l := range links {
		for _, end := range []state.NodeId{l.A, l.B} {
			if _, ok := seen[end]; !ok {
				seen[end] = struct{}{}
				ids = append(ids, end)
			}
		}
	}

	ccfg := state.CentralCfg{
		Links:  links,
		Timing: timing,
	}
	locals := make([]state.LocalCfg, 0, len(ids))
	for _, id := range ids {
		key := state.GenerateKey()
		ccfg.Nodes = append(ccfg.Nodes, state.NodeCfg{Id: id, PubKey: key.Pubkey()})
		locals = append(locals, state.LocalCfg{Id: id, Key: key})
	}
	state.ExpandCentralConfig(&ccfg)
	return ccfg, locals
}

// RingCfg is the canonical test network: routers A-B-C-D in a ring with a
// faster diagonal between A and C.
//
//	A --- B
//	| \   |
//	|  \  |
//	D --- C
func RingCfg() (state.CentralCfg, []state.LocalCfg) {
	links := []state.LinkCfg{
		{A: "A", B: "B", BaseLatency: 10 * time.Millisecond, Bandwidth: 100},
		{A: "B", B: "C", BaseLatency: 10 * time.Millisecond, Bandwidth: 100},
		{A: "C", B: "D", BaseLatency: 10 * time.Millisecond, Bandwidth: 100},
		{A: "D", B: "A", BaseLatency: 10 * time.Millisecond, Bandwidth: 100},
		{A: "A", B: "C", BaseLatency: 2 * time.Millisecond, Bandwidth: 400},
	}
	return Cfg(links, FastTimings())
}
