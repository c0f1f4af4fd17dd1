package mock

import (
	"sync"
	"sync/atomic"

	"github.com/Oshadha-Nimantha/osdrp/core"
	"github.com/Oshadha-Nimantha/osdrp/state"
)

// Transport is the in-memory control plane link for one node.
type Transport struct {
	net     *Network
	self    state.NodeId
	inbound chan core.InboundPacket
	closed  atomic.Bool
	mu      sync.RWMutex
}

func (t *Transport) Send(to state.NodeId, data []byte) error {
	t.net.deliver(t.self, to, data)
	return nil
}

func (t *Transport) Inbound() <-chan core.InboundPacket {
	return t.inbound
}

func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed.Swap(true) {
		close(t.inbound)
	}
	return nil
}

// push hands a packet to the inbound channel unless the transport is closed
// or congested.
func (t *Transport) push(pkt core.InboundPacket) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed.Load() {
		return
	}
	select {
	case t.inbound <- pkt:
	default:
		// receiver congested; flooding tolerates loss
	}
}

// Sampler reads link measurements straight from the mock network, honoring
// broken links and latency overrides.
type Sampler struct {
	net  *Network
	self state.NodeId
}

func (s *Sampler) Sample(neigh state.NodeId) (state.LinkSample, bool) {
	n := s.net
	n.mu.Lock()
	defer n.mu.Unlock()
	link := n.cfg.LinkBetween(s.self, neigh)
	if link == nil || n.down[state.NewLink(s.self, neigh)] {
		return state.LinkSample{}, false
	}
	latency := link.BaseLatency
	if override, ok := n.latency[state.NewLink(s.self, neigh)]; ok {
		latency = override
	}
	return state.LinkSample{Latency: latency, Bandwidth: link.Bandwidth}, true
}
