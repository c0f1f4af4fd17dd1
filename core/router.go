package core

import (
	"errors"
	"math"
	"time"

	"github.com/Oshadha-Nimantha/osdrp/perf"
	"github.com/Oshadha-Nimantha/osdrp/protocol"
	"github.com/Oshadha-Nimantha/osdrp/state"
)

// OsdrpRouter is the router agent. It owns this node's LSDB, security state
// and routing table; every mutation happens on the dispatch goroutine.
type OsdrpRouter struct {
	*state.State
	Lsdb      *state.Lsdb
	Security  *Security
	Metric    state.MetricSource
	Sampler   LinkSampler
	Transport Transport

	// Table is the current computed routing table, swapped wholesale on
	// recompute and patched in place on failover.
	Table state.RouteTable

	monitors   map[state.NodeId]*state.LinkMonitor
	advertised map[state.NodeId]float64 // costs in our latest LSU
	recomputeQueued bool
}

func (r *OsdrpRouter) Init(s *state.State) error {
	s.Log.Debug("init router")
	r.State = s
	r.Lsdb = state.NewLsdb(s.Id)
	r.Security = NewSecurity(s.TrustedNodes, s.Timing.RateWindow, s.Timing.RateBurst)
	r.Table = make(state.RouteTable)
	r.monitors = make(map[state.NodeId]*state.LinkMonitor)
	r.advertised = make(map[state.NodeId]float64)
	if r.Metric == nil {
		r.Metric = state.MetricSourceFromCfg(s.Metric)
	}
	if r.Sampler == nil {
		r.Sampler = &ConfigSampler{Self: s.Id, Cfg: &s.CentralCfg}
	}

	go r.pumpInbound()

	s.Log.Debug("schedule router tasks")
	s.Env.RepeatTask(r.sampleLinks, s.Timing.SampleInterval)
	s.Env.RepeatTask(r.refresh, s.Timing.RefreshInterval)
	s.Env.RepeatTask(r.sweep, s.Timing.SweepInterval)
	return nil
}

func (r *OsdrpRouter) Cleanup(s *state.State) error {
	if r.Transport != nil {
		return r.Transport.Close()
	}
	return nil
}

func (r *OsdrpRouter) pumpInbound() {
	for pkt := range r.Transport.Inbound() {
		lsu, err := protocol.Unmarshal(pkt.Data)
		if err != nil {
			lsuRejected.WithLabelValues(string(r.Env.Id), "malformed").Inc()
			continue
		}
		perf.LsuReceived.Add(1)
		from := pkt.From
		r.Env.Dispatch(func(s *state.State) error {
			return r.HandleLSU(s, lsu, from)
		})
	}
}

// currentCosts returns the cost we should advertise towards each up
// neighbour, from the filtered link samples.
func (r *OsdrpRouter) currentCosts() map[state.NodeId]float64 {
	costs := make(map[state.NodeId]float64, len(r.monitors))
	for neigh, mon := range r.monitors {
		if !mon.Up() {
			continue
		}
		cost := r.Metric.Cost(mon.Sample())
		if cost < state.MinCost {
			cost = state.MinCost
		}
		costs[neigh] = cost
	}
	return costs
}

// sampleLinks refreshes every local link measurement and re-originates when
// any advertised cost moved by more than the hysteresis threshold, or a link
// changed admin state. Smaller movements are damped to avoid oscillating the
// whole network on measurement noise.
func (r *OsdrpRouter) sampleLinks(s *state.State) error {
	for _, neigh := range s.Neighbours {
		sample, up := r.Sampler.Sample(neigh)
		mon := r.monitors[neigh]
		if !up {
			if mon != nil {
				mon.MarkDown()
			}
			continue
		}
		if mon == nil {
			mon = state.NewLinkMonitor(sample)
			r.monitors[neigh] = mon
		} else {
			mon.Observe(sample)
		}
	}

	costs := r.currentCosts()
	changed := len(costs) != len(r.advertised)
	if !changed {
		for neigh, cost := range costs {
			last, ok := r.advertised[neigh]
			if !ok || math.Abs(cost-last) > s.Metric.Hysteresis {
				changed = true
				break
			}
		}
	}
	if changed {
		r.Originate(s)
	}
	return nil
}

// Originate builds, signs, installs and floods a fresh LSU for this node.
func (r *OsdrpRouter) Originate(s *state.State) error {
	costs := r.currentCosts()
	advs := make([]protocol.Advertisement, 0, len(costs))
	for neigh, cost := range costs {
		advs = append(advs, protocol.Advertisement{Neighbour: string(neigh), Cost: cost})
	}
	protocol.SortAdvertisements(advs)

	r.Lsdb.Seqno++
	lsu := &protocol.LSU{
		Originator:     string(s.Id),
		Seqno:          r.Lsdb.Seqno,
		Timestamp:      time.Now().UnixNano(),
		Advertisements: advs,
	}
	lsu.Sign(s.Key.Ed())

	r.Lsdb.Install(lsu, time.Now())
	r.Security.CommitLocal(lsu)
	r.advertised = costs
	lsuOriginated.WithLabelValues(string(s.Id)).Inc()
	lsdbEntries.WithLabelValues(string(s.Id)).Set(float64(len(r.Lsdb.Entries)))
	r.markDirty(s)
	r.flood(s, lsu, s.Id)
	return nil
}

// refresh keeps the network converged on lossy transports: our own entry is
// re-originated, and the rest of the database is re-flooded. Receivers that
// already have an entry drop the duplicate via the sequence check.
func (r *OsdrpRouter) refresh(s *state.State) error {
	if err := r.Originate(s); err != nil {
		return err
	}
	for origin, entry := range r.Lsdb.Entries {
		if origin == s.Id {
			continue
		}
		r.flood(s, entry.Lsu, origin)
	}
	return nil
}

// sweep expires LSDB entries that outlived the staleness window. An expired
// direct neighbour means our link to it is presumed down, which triggers the
// precomputed failover before the full recompute runs.
func (r *OsdrpRouter) sweep(s *state.State) error {
	expired := r.Lsdb.Sweep(time.Now(), s.Timing.StalenessWindow)
	r.Security.Cleanup()
	if len(expired) == 0 {
		return nil
	}
	lsdbEntries.WithLabelValues(string(s.Id)).Set(float64(len(r.Lsdb.Entries)))
	for _, origin := range expired {
		s.Log.Info("lsdb entry expired, links presumed down", "originator", origin)
		if s.IsNeighbour(origin) {
			r.failoverNeighbour(s, origin)
		}
	}
	r.markDirty(s)
	return nil
}

// NotifyLinkDown is the explicit down notification path (e.g. from interface
// monitoring). The affected destinations swap to their precomputed backups
// immediately; the shortest-path recomputation follows asynchronously.
func (r *OsdrpRouter) NotifyLinkDown(s *state.State, neigh state.NodeId) error {
	if mon := r.monitors[neigh]; mon != nil {
		mon.MarkDown()
	}
	r.failoverNeighbour(s, neigh)
	// advertise the loss to the rest of the network
	return r.Originate(s)
}

// failoverNeighbour atomically swaps every destination whose primary next hop
// is the failed neighbour onto its precomputed link-disjoint backup. This is
// a table patch, not a computation: no shortest-path run happens before the
// traffic moves. Destinations without a backup are dropped until recompute.
func (r *OsdrpRouter) failoverNeighbour(s *state.State, neigh state.NodeId) {
	swapped, lost := 0, 0
	for dest, e := range r.Table {
		if e.NextHop != neigh {
			continue
		}
		if b := e.Backup; b != nil && b.NextHop != neigh {
			r.Table[dest] = state.RouteEntry{
				Dest:    dest,
				NextHop: b.NextHop,
				Cost:    b.Cost,
				Path:    b.Path,
			}
			swapped++
		} else {
			delete(r.Table, dest)
			lost++
		}
	}
	if swapped > 0 || lost > 0 {
		backupFailovers.WithLabelValues(string(s.Id)).Add(float64(swapped))
		s.Log.Info("failover", "neighbour", neigh, "swapped", swapped, "lost", lost)
	}
	r.markDirty(s)
}

// markDirty schedules one recomputation after the coalescing delay. A burst
// of topology changes inside the window results in a single run.
func (r *OsdrpRouter) markDirty(s *state.State) {
	if r.recomputeQueued {
		return
	}
	r.recomputeQueued = true
	s.ScheduleTask(r.recompute, s.Timing.CoalesceDelay)
}

func (r *OsdrpRouter) recompute(s *state.State) error {
	r.recomputeQueued = false
	start := time.Now()
	topo := r.Lsdb.Topology()
	r.Table = BuildRouteTable(topo, s.Id)
	routeRecomputes.WithLabelValues(string(s.Id)).Inc()
	perf.SpfLatency.Add(float64(time.Since(start).Microseconds()))
	s.Log.Debug("recomputed routes", "destinations", len(r.Table), "elapsed", time.Since(start))
	return nil
}

// flood sends an LSU to every neighbour except the excluded one (the sender,
// for forwarded updates; ourselves, for originated ones). Sends are
// best-effort.
func (r *OsdrpRouter) flood(s *state.State, lsu *protocol.LSU, except state.NodeId) {
	data, err := lsu.Marshal()
	if err != nil {
		s.Log.Error("refusing to flood unencodable LSU", "error", err)
		return
	}
	for _, neigh := range s.Neighbours {
		if neigh == except || neigh == state.NodeId(lsu.Originator) {
			continue
		}
		if err := r.Transport.Send(neigh, data); err != nil {
			s.Log.Debug("flood send failed", "to", neigh, "error", err)
			continue
		}
		perf.LsuSent.Add(1)
	}
}

// HandleLSU is the acceptance path for one received LSU. Verification is
// read-only; on acceptance the LSDB install and the security commit happen
// together, then the update is forwarded to all neighbours except the sender.
// Rejected updates are dropped, counted, and never forwarded.
func (r *OsdrpRouter) HandleLSU(s *state.State, lsu *protocol.LSU, from state.NodeId) error {
	if err := r.Security.Verify(lsu, from); err != nil {
		lsuRejected.WithLabelValues(string(s.Id), rejectReason(err)).Inc()
		if errors.Is(err, ErrStaleSeqno) {
			// normal flooding duplication, not an alarm
			s.Log.Debug("dropped duplicate LSU", "originator", lsu.Originator, "seqno", lsu.Seqno, "from", from)
		} else {
			s.Log.Warn("rejected LSU", "originator", lsu.Originator, "from", from, "reason", err)
		}
		return nil
	}

	if !r.Lsdb.Supersedes(lsu) {
		// verified but not newer than the installed entry; nothing to do
		return nil
	}
	r.Lsdb.Install(lsu, time.Now())
	r.Security.Commit(lsu, from)
	lsuAccepted.WithLabelValues(string(s.Id)).Inc()
	lsdbEntries.WithLabelValues(string(s.Id)).Set(float64(len(r.Lsdb.Entries)))
	r.markDirty(s)

	r.flood(s, lsu, from)
	lsuForwarded.WithLabelValues(string(s.Id)).Inc()
	return nil
}

// Routes returns a snapshot of the routing table. Safe from any goroutine;
// external forwarding logic consumes this.
func (r *OsdrpRouter) Routes() (state.RouteTable, error) {
	res, err := r.Env.DispatchWait(func(s *state.State) (any, error) {
		return r.Table.Clone(), nil
	})
	if err != nil {
		return nil, err
	}
	return res.(state.RouteTable), nil
}
