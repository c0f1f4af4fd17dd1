package core

import (
	"math/rand/v2"
	"time"

	"github.com/Oshadha-Nimantha/osdrp/state"
)

// LinkSampler supplies the instantaneous measurements of this router's local
// links. The second return is false when the link is administratively or
// physically down.
type LinkSampler interface {
	Sample(neigh state.NodeId) (state.LinkSample, bool)
}

// jitter applied to nominal latency, mirroring measurement noise
const latencyJitter = 2 * time.Millisecond

// ConfigSampler derives samples from the nominal link characteristics in the
// central config, with a small jitter on latency so the metric pipeline sees
// realistic noise. Real deployments replace this with actual measurement.
type ConfigSampler struct {
	Self state.NodeId
	Cfg  *state.CentralCfg
}

func (c *ConfigSampler) Sample(neigh state.NodeId) (state.LinkSample, bool) {
	link := c.Cfg.LinkBetween(c.Self, neigh)
	if link == nil {
		return state.LinkSample{}, false
	}
	noise := time.Duration((rand.Float64()*2 - 1) * float64(latencyJitter))
	latency := link.BaseLatency + noise
	if latency < 0 {
		latency = 0
	}
	return state.LinkSample{
		Latency:   latency,
		Bandwidth: link.Bandwidth,
	}, true
}
