package state

import (
	"net/netip"
	"slices"
	"time"
)

// NodeCfg is the central, public description of one router.
type NodeCfg struct {
	Id       NodeId
	PubKey   OsPublicKey    `yaml:"pubkey"`
	Endpoint netip.AddrPort `yaml:",omitempty"` // control plane UDP endpoint
}

// LinkCfg describes one physical adjacency, with the nominal characteristics
// the metric sampler starts from. Links are undirected.
type LinkCfg struct {
	A           NodeId
	B           NodeId
	BaseLatency time.Duration `yaml:"base_latency"`
	Bandwidth   float64       // available bandwidth, Mbps
}

func (l LinkCfg) Has(n NodeId) bool {
	return l.A == n || l.B == n
}

func (l LinkCfg) Other(n NodeId) NodeId {
	if l.A == n {
		return l.B
	}
	return l.A
}

// MetricCfg is the composite metric configuration surface.
type MetricCfg struct {
	// Mode selects the metric source: "composite" (dynamic, default) or
	// "static" (bandwidth-only OSPF-style baseline).
	Mode         string        `yaml:",omitempty"`
	WLatency     float64       `yaml:"w_latency,omitempty"`
	WBandwidth   float64       `yaml:"w_bandwidth,omitempty"`
	MaxLatency   time.Duration `yaml:"max_latency,omitempty"`
	RefBandwidth float64       `yaml:"ref_bandwidth,omitempty"`
	Hysteresis   float64       `yaml:",omitempty"`
}

// TimingCfg holds the protocol timers.
type TimingCfg struct {
	RefreshInterval time.Duration `yaml:"refresh_interval,omitempty"`
	StalenessWindow time.Duration `yaml:"staleness_window,omitempty"`
	SweepInterval   time.Duration `yaml:"sweep_interval,omitempty"`
	SampleInterval  time.Duration `yaml:"sample_interval,omitempty"`
	RateWindow      time.Duration `yaml:"rate_window,omitempty"`
	RateBurst       int           `yaml:"rate_burst,omitempty"`
	CoalesceDelay   time.Duration `yaml:"coalesce_delay,omitempty"`
}

// CentralCfg is the network-wide shared configuration.
type CentralCfg struct {
	Nodes  []NodeCfg
	Links  []LinkCfg
	Metric MetricCfg `yaml:",omitempty"`
	Timing TimingCfg `yaml:",omitempty"`
}

// LocalCfg represents local node-level configuration
type LocalCfg struct {
	// Node Private Key
	Key         OsPrivateKey
	Id          NodeId         // unique id for this node
	Bind        netip.AddrPort `yaml:",omitempty"` // control plane bind address
	MetricsBind string         `yaml:"metrics_bind,omitempty"` // if set, serve prometheus/expvar here
	LogPath     string         `yaml:"log_path,omitempty"`     // if not empty, also write logs to this file
}

func (c *CentralCfg) GetNode(id NodeId) *NodeCfg {
	idx := slices.IndexFunc(c.Nodes, func(n NodeCfg) bool {
		return n.Id == id
	})
	if idx == -1 {
		return nil
	}
	return &c.Nodes[idx]
}

// NeighboursOf returns the configured adjacency set of a node, in a stable
// order.
func (c *CentralCfg) NeighboursOf(id NodeId) []NodeId {
	neighs := make([]NodeId, 0)
	for _, l := range c.Links {
		if l.Has(id) {
			neighs = append(neighs, l.Other(id))
		}
	}
	slices.Sort(neighs)
	return slices.Compact(neighs)
}

func (c *CentralCfg) LinkBetween(a, b NodeId) *LinkCfg {
	idx := slices.IndexFunc(c.Links, func(l LinkCfg) bool {
		return l.Has(a) && l.Has(b) && a != b
	})
	if idx == -1 {
		return nil
	}
	return &c.Links[idx]
}

// ExpandCentralConfig fills unset tunables with the protocol defaults.
func ExpandCentralConfig(cfg *CentralCfg) {
	m := &cfg.Metric
	if m.Mode == "" {
		m.Mode = MetricComposite
	}
	if m.WLatency == 0 && m.WBandwidth == 0 {
		m.WLatency = DefaultWLatency
		m.WBandwidth = DefaultWBandwidth
	}
	if m.MaxLatency == 0 {
		m.MaxLatency = DefaultMaxLatency
	}
	if m.RefBandwidth == 0 {
		m.RefBandwidth = DefaultRefBandwidth
	}
	if m.Hysteresis == 0 {
		m.Hysteresis = DefaultHysteresis
	}
	t := &cfg.Timing
	if t.RefreshInterval == 0 {
		t.RefreshInterval = DefaultRefreshInterval
	}
	if t.StalenessWindow == 0 {
		t.StalenessWindow = 4 * t.RefreshInterval
	}
	if t.SweepInterval == 0 {
		t.SweepInterval = DefaultSweepInterval
	}
	if t.SampleInterval == 0 {
		t.SampleInterval = DefaultSampleInterval
	}
	if t.RateWindow == 0 {
		t.RateWindow = DefaultRateWindow
	}
	if t.RateBurst == 0 {
		t.RateBurst = DefaultRateBurst
	}
	if t.CoalesceDelay == 0 {
		t.CoalesceDelay = DefaultCoalesceDelay
	}
}
