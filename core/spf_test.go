package core

import (
	"testing"

	"github.com/Oshadha-Nimantha/osdrp/state"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func topoOf(links []state.LinkCfg) *state.Topology {
	return state.TopologyFromLinks(links, func(l state.LinkCfg) float64 {
		// Bandwidth carries the desired cost directly in these fixtures.
		return l.Bandwidth
	})
}

func link(a, b state.NodeId, cost float64) state.LinkCfg {
	return state.LinkCfg{A: a, B: b, Bandwidth: cost}
}

// ringTopology is the four node ring with a cheap diagonal shortcut:
//
//	a --1.0-- b
//	|  \      |
//	1.0  0.6  1.0
//	|      \  |
//	d --1.0-- c
func ringTopology() *state.Topology {
	return topoOf([]state.LinkCfg{
		link("a", "b", 1.0),
		link("b", "c", 1.0),
		link("c", "d", 1.0),
		link("d", "a", 1.0),
		link("a", "c", 0.6),
	})
}

func TestShortestPathsLine(t *testing.T) {
	topo := topoOf([]state.LinkCfg{
		link("a", "b", 1.5),
		link("b", "c", 2.5),
	})
	res := ShortestPaths(topo, "a")
	require.Len(t, res, 2)
	assert.InDelta(t, 4.0, res["c"].Cost, 1e-9)
	assert.Equal(t, []state.NodeId{"a", "b", "c"}, res["c"].Path)
}

func TestShortestPathsPrefersCheaperDetour(t *testing.T) {
	topo := topoOf([]state.LinkCfg{
		link("a", "b", 10),
		link("a", "c", 1),
		link("c", "b", 2),
	})
	res := ShortestPaths(topo, "a")
	assert.InDelta(t, 3.0, res["b"].Cost, 1e-9)
	assert.Equal(t, []state.NodeId{"a", "c", "b"}, res["b"].Path)
}

func TestShortestPathsUnreachableAbsent(t *testing.T) {
	topo := topoOf([]state.LinkCfg{
		link("a", "b", 1),
		link("c", "d", 1),
	})
	res := ShortestPaths(topo, "a")
	assert.Contains(t, res, state.NodeId("b"))
	assert.NotContains(t, res, state.NodeId("c"))
	assert.NotContains(t, res, state.NodeId("d"))
}

func TestShortestPathsUnknownSource(t *testing.T) {
	topo := topoOf([]state.LinkCfg{link("a", "b", 1)})
	assert.Nil(t, ShortestPaths(topo, "zz"))
}

func TestShortestPathsDeterministicTieBreak(t *testing.T) {
	// two equal-cost paths a-b-d and a-c-d; the winner must be stable and
	// must be the one through the lexically smaller first hop
	topo := topoOf([]state.LinkCfg{
		link("a", "b", 1),
		link("a", "c", 1),
		link("b", "d", 1),
		link("c", "d", 1),
	})
	first := ShortestPaths(topo, "a")
	assert.Equal(t, []state.NodeId{"a", "b", "d"}, first["d"].Path)
	for i := 0; i < 20; i++ {
		again := ShortestPaths(topo, "a")
		require.Empty(t, cmp.Diff(first, again))
	}
}

func TestBackupSharesNoLinkWithPrimary(t *testing.T) {
	topo := ringTopology()
	for dest, primary := range ShortestPaths(topo, "a") {
		backup, ok := ComputeBackup(topo, "a", dest, primary.Path)
		require.True(t, ok, "ring survives any single link loss, dest %s", dest)
		primaryLinks := map[state.Link]struct{}{}
		for _, l := range state.Links(primary.Path) {
			primaryLinks[l] = struct{}{}
		}
		for _, l := range state.Links(backup.Path) {
			assert.NotContains(t, primaryLinks, l, "dest %s", dest)
		}
	}
}

func TestBackupAbsentOnCutEdge(t *testing.T) {
	// b is only reachable over the single a-b edge
	topo := topoOf([]state.LinkCfg{link("a", "b", 1)})
	primary := ShortestPaths(topo, "a")["b"]
	_, ok := ComputeBackup(topo, "a", "b", primary.Path)
	assert.False(t, ok)
}

func TestBuildRouteTableRingScenario(t *testing.T) {
	table := BuildRouteTable(ringTopology(), "a")
	want := state.RouteTable{
		"b": {
			Dest: "b", NextHop: "b", Cost: 1.0,
			Path:   []state.NodeId{"a", "b"},
			Backup: &state.BackupRoute{NextHop: "c", Cost: 1.6, Path: []state.NodeId{"a", "c", "b"}},
		},
		"c": {
			Dest: "c", NextHop: "c", Cost: 0.6,
			Path:   []state.NodeId{"a", "c"},
			Backup: &state.BackupRoute{NextHop: "b", Cost: 2.0, Path: []state.NodeId{"a", "b", "c"}},
		},
		"d": {
			Dest: "d", NextHop: "d", Cost: 1.0,
			Path:   []state.NodeId{"a", "d"},
			Backup: &state.BackupRoute{NextHop: "c", Cost: 1.6, Path: []state.NodeId{"a", "c", "d"}},
		},
	}
	assert.Empty(t, cmp.Diff(want, table))
}

func TestPlanRoutesStaticMetric(t *testing.T) {
	cfg := state.CentralCfg{
		Nodes: []state.NodeCfg{{Id: "a"}, {Id: "b"}, {Id: "c"}},
		Links: []state.LinkCfg{
			{A: "a", B: "b", Bandwidth: 200},
			{A: "b", B: "c", Bandwidth: 200},
			{A: "a", B: "c", Bandwidth: 50},
		},
		Metric: state.MetricCfg{Mode: state.MetricStatic},
	}
	state.ExpandCentralConfig(&cfg)
	table := PlanRoutes(&cfg, "a")
	require.Contains(t, table, state.NodeId("c"))
	// direct link costs ref/bw = 4, the two-hop path 1+1 = 2
	assert.Equal(t, state.NodeId("b"), table["c"].NextHop)
	assert.InDelta(t, 2.0, table["c"].Cost, 1e-9)
}
