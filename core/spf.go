package core

import (
	"container/heap"

	"github.com/Oshadha-Nimantha/osdrp/state"
)

// PathResult is a computed path from the source, destination inclusive.
type PathResult struct {
	Cost float64
	Path []state.NodeId
}

type frontierItem struct {
	node state.NodeId
	cost float64
	// order is the insertion sequence, used as the final tie break so the
	// frontier pops in a stable, reproducible order between runs.
	order int
}

type frontier []frontierItem

func (f frontier) Len() int { return len(f) }
func (f frontier) Less(i, j int) bool {
	if f[i].cost != f[j].cost {
		return f[i].cost < f[j].cost
	}
	return f[i].order < f[j].order
}
func (f frontier) Swap(i, j int)      { f[i], f[j] = f[j], f[i] }
func (f *frontier) Push(x any)        { *f = append(*f, x.(frontierItem)) }
func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	item := old[n-1]
	*f = old[:n-1]
	return item
}

// ShortestPaths runs single-source shortest path over the confirmed topology.
// Edge costs are strictly positive, so the greedy frontier expansion settles
// each node once. On equal cost the path discovered first wins: neighbours
// relax in sorted id order and the frontier breaks ties by insertion order,
// so equal-cost choices never flap between runs on the same graph.
func ShortestPaths(topo *state.Topology, src state.NodeId) map[state.NodeId]PathResult {
	if !topo.HasNode(src) {
		return nil
	}
	dist := map[state.NodeId]float64{src: 0}
	prev := make(map[state.NodeId]state.NodeId)
	settled := make(map[state.NodeId]struct{})

	f := &frontier{{node: src, cost: 0}}
	order := 1
	for f.Len() > 0 {
		cur := heap.Pop(f).(frontierItem)
		if _, done := settled[cur.node]; done {
			continue
		}
		settled[cur.node] = struct{}{}
		for _, e := range topo.Neighbours(cur.node) {
			alt := cur.cost + e.Cost
			if d, seen := dist[e.To]; !seen || alt < d {
				dist[e.To] = alt
				prev[e.To] = cur.node
				heap.Push(f, frontierItem{node: e.To, cost: alt, order: order})
				order++
			}
		}
	}

	results := make(map[state.NodeId]PathResult, len(dist)-1)
	for dest, cost := range dist {
		if dest == src {
			continue
		}
		path := []state.NodeId{dest}
		for at := dest; at != src; {
			at = prev[at]
			path = append(path, at)
		}
		for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
			path[i], path[j] = path[j], path[i]
		}
		results[dest] = PathResult{Cost: cost, Path: path}
	}
	return results
}

// ComputeBackup finds the best path to dest that shares no link with the
// primary path, including the primary's first hop link. The primary's links
// are removed from the graph and the same computation runs on the rest; if
// the reduced graph is disconnected there is no backup.
func ComputeBackup(topo *state.Topology, src, dest state.NodeId, primary []state.NodeId) (PathResult, bool) {
	reduced := topo.WithoutLinks(state.Links(primary))
	res, ok := ShortestPaths(reduced, src)[dest]
	return res, ok
}

// PlanRoutes computes the table a router would reach from the nominal link
// characteristics in the central config, without running the protocol.
func PlanRoutes(cfg *state.CentralCfg, src state.NodeId) state.RouteTable {
	metric := state.MetricSourceFromCfg(cfg.Metric)
	topo := state.TopologyFromLinks(cfg.Links, func(l state.LinkCfg) float64 {
		return metric.Cost(state.LinkSample{Latency: l.BaseLatency, Bandwidth: l.Bandwidth})
	})
	return BuildRouteTable(topo, src)
}

// BuildRouteTable computes the primary route and the link-disjoint backup for
// every reachable destination. Backups are precomputed here, not on failure,
// so failover is a table lookup at the moment of link loss.
func BuildRouteTable(topo *state.Topology, src state.NodeId) state.RouteTable {
	table := make(state.RouteTable)
	for dest, primary := range ShortestPaths(topo, src) {
		entry := state.RouteEntry{
			Dest:    dest,
			NextHop: primary.Path[1],
			Cost:    primary.Cost,
			Path:    primary.Path,
		}
		if backup, ok := ComputeBackup(topo, src, dest, primary.Path); ok {
			entry.Backup = &state.BackupRoute{
				NextHop: backup.Path[1],
				Cost:    backup.Cost,
				Path:    backup.Path,
			}
		}
		table[dest] = entry
	}
	return table
}
