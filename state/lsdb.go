package state

import (
	"slices"
	"time"

	"github.com/Oshadha-Nimantha/osdrp/protocol"
)

// LsdbEntry holds the most recently accepted LSU from one originator.
// Superseded entries are discarded, never retained.
type LsdbEntry struct {
	Lsu        *protocol.LSU
	AcceptedAt time.Time
}

// Lsdb is this router's view of the network. It is owned by the router agent
// and must only be touched on the dispatch goroutine.
type Lsdb struct {
	Self    NodeId
	Seqno   uint64 // local origination counter
	Entries map[NodeId]*LsdbEntry
}

func NewLsdb(self NodeId) *Lsdb {
	return &Lsdb{
		Self:    self,
		Entries: make(map[NodeId]*LsdbEntry),
	}
}

func (db *Lsdb) Get(origin NodeId) *LsdbEntry {
	return db.Entries[origin]
}

// Supersedes reports whether the LSU is strictly newer than the installed
// entry for its originator. Equal or older sequence numbers never supersede,
// which is what makes flooding idempotent.
func (db *Lsdb) Supersedes(lsu *protocol.LSU) bool {
	cur, ok := db.Entries[NodeId(lsu.Originator)]
	if !ok {
		return true
	}
	return lsu.Seqno > cur.Lsu.Seqno
}

// Install replaces the entry for the LSU's originator. The caller must have
// checked Supersedes; Install keeps the invariant of one entry per originator.
func (db *Lsdb) Install(lsu *protocol.LSU, now time.Time) {
	db.Entries[NodeId(lsu.Originator)] = &LsdbEntry{Lsu: lsu, AcceptedAt: now}
}

// Sweep drops every entry whose accept time fell out of the staleness window
// and returns the expired originators. The local entry is refreshed by the
// origination timer and is exempt here.
func (db *Lsdb) Sweep(now time.Time, window time.Duration) []NodeId {
	var expired []NodeId
	for origin, entry := range db.Entries {
		if origin == db.Self {
			continue
		}
		if now.Sub(entry.AcceptedAt) > window {
			delete(db.Entries, origin)
			expired = append(expired, origin)
		}
	}
	slices.Sort(expired)
	return expired
}

// Link is an undirected edge, normalized so A < B.
type Link struct {
	A NodeId
	B NodeId
}

func NewLink(a, b NodeId) Link {
	if b < a {
		a, b = b, a
	}
	return Link{A: a, B: b}
}

type Edge struct {
	To   NodeId
	Cost float64
}

// Topology is a read-only projection of the Lsdb. An edge exists only when the
// latest LSUs of both endpoints advertise each other; a one-sided
// advertisement is unconfirmed and carries no edge. Adjacency lists are kept
// sorted so traversal order is deterministic.
type Topology struct {
	nodes []NodeId
	edges map[NodeId][]Edge
}

// Topology builds the current confirmed graph from the database.
func (db *Lsdb) Topology() *Topology {
	t := &Topology{edges: make(map[NodeId][]Edge)}
	for origin, entry := range db.Entries {
		t.nodes = append(t.nodes, origin)
		for _, adv := range entry.Lsu.Advertisements {
			neigh := NodeId(adv.Neighbour)
			if neigh <= origin {
				continue // count each pair once, from the smaller endpoint
			}
			back, ok := db.Entries[neigh]
			if !ok {
				continue
			}
			reverse, ok := back.Lsu.CostTo(string(origin))
			if !ok {
				continue
			}
			// both directions confirmed; take the worse advertised cost
			cost := max(adv.Cost, reverse)
			t.edges[origin] = append(t.edges[origin], Edge{To: neigh, Cost: cost})
			t.edges[neigh] = append(t.edges[neigh], Edge{To: origin, Cost: cost})
		}
	}
	t.normalize()
	return t
}

// TopologyFromLinks builds a graph straight from configured links, bypassing
// the LSDB. Used for offline route previews.
func TopologyFromLinks(links []LinkCfg, cost func(LinkCfg) float64) *Topology {
	t := &Topology{edges: make(map[NodeId][]Edge)}
	seen := make(map[NodeId]struct{})
	for _, l := range links {
		c := cost(l)
		t.edges[l.A] = append(t.edges[l.A], Edge{To: l.B, Cost: c})
		t.edges[l.B] = append(t.edges[l.B], Edge{To: l.A, Cost: c})
		for _, end := range []NodeId{l.A, l.B} {
			if _, ok := seen[end]; !ok {
				seen[end] = struct{}{}
				t.nodes = append(t.nodes, end)
			}
		}
	}
	t.normalize()
	return t
}

func (t *Topology) normalize() {
	slices.Sort(t.nodes)
	for _, adj := range t.edges {
		slices.SortFunc(adj, func(a, b Edge) int {
			switch {
			case a.To < b.To:
				return -1
			case a.To > b.To:
				return 1
			}
			return 0
		})
	}
}

func (t *Topology) Nodes() []NodeId {
	return t.nodes
}

func (t *Topology) Neighbours(n NodeId) []Edge {
	return t.edges[n]
}

func (t *Topology) HasNode(n NodeId) bool {
	_, ok := slices.BinarySearch(t.nodes, n)
	return ok
}

// WithoutLinks returns a copy of the topology with the given links removed.
// Used by fast-reroute to strip the primary path before the backup run.
func (t *Topology) WithoutLinks(remove []Link) *Topology {
	rm := make(map[Link]struct{}, len(remove))
	for _, l := range remove {
		rm[l] = struct{}{}
	}
	out := &Topology{
		nodes: t.nodes,
		edges: make(map[NodeId][]Edge, len(t.edges)),
	}
	for from, adj := range t.edges {
		kept := make([]Edge, 0, len(adj))
		for _, e := range adj {
			if _, gone := rm[NewLink(from, e.To)]; gone {
				continue
			}
			kept = append(kept, e)
		}
		out.edges[from] = kept
	}
	return out
}

// BackupRoute is the precomputed link-disjoint alternative for one
// destination.
type BackupRoute struct {
	NextHop NodeId
	Cost    float64
	Path    []NodeId
}

// RouteEntry is one destination's routing decision. Path runs from the source
// to Dest inclusive.
type RouteEntry struct {
	Dest    NodeId
	NextHop NodeId
	Cost    float64
	Path    []NodeId
	Backup  *BackupRoute
}

// RouteTable maps destination to decision. Destinations with no path are
// simply absent.
type RouteTable map[NodeId]RouteEntry

// Clone returns a read-only-safe snapshot of the table.
func (rt RouteTable) Clone() RouteTable {
	out := make(RouteTable, len(rt))
	for dest, e := range rt {
		e.Path = slices.Clone(e.Path)
		if e.Backup != nil {
			b := *e.Backup
			b.Path = slices.Clone(b.Path)
			e.Backup = &b
		}
		out[dest] = e
	}
	return out
}

// Links returns the set of links used by a path.
func Links(path []NodeId) []Link {
	links := make([]Link, 0, len(path))
	for i := 1; i < len(path); i++ {
		links = append(links, NewLink(path[i-1], path[i]))
	}
	return links
}
