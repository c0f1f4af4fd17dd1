// Package mock provides an in-memory multi-router network for tests and
// simulations. Delivery, link failure and latency are all controlled by the
// test; routers run their real dispatch loops.
package mock

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/Oshadha-Nimantha/osdrp/core"
	"github.com/Oshadha-Nimantha/osdrp/state"
)

type Network struct {
	mu      sync.Mutex
	cfg     state.CentralCfg
	nodes   map[state.NodeId]*runningNode
	down    map[state.Link]bool
	latency map[state.Link]time.Duration
	loss    float64
}

type runningNode struct {
	st        *state.State
	transport *Transport
	done      chan struct{}
}

func NewNetwork(cfg state.CentralCfg) *Network {
	return &Network{
		cfg:     cfg,
		nodes:   make(map[state.NodeId]*runningNode),
		down:    make(map[state.Link]bool),
		latency: make(map[state.Link]time.Duration),
	}
}

// StartNode boots one router on the mock network and waits for its main loop.
func (n *Network) StartNode(lcfg state.LocalCfg, logLevel slog.Level) error {
	tr := &Transport{
		net:     n,
		self:    lcfg.Id,
		inbound: make(chan core.InboundPacket, 1024),
	}
	node := &runningNode{
		transport: tr,
		done:      make(chan struct{}),
	}

	n.mu.Lock()
	if _, dup := n.nodes[lcfg.Id]; dup {
		n.mu.Unlock()
		return fmt.Errorf("node %s already running", lcfg.Id)
	}
	n.nodes[lcfg.Id] = node
	n.mu.Unlock()

	started := make(chan error, 1)
	stateCh := make(chan *state.State, 1)
	go func() {
		defer close(node.done)
		err := core.Start(n.cfg, lcfg, logLevel, &core.Options{
			Transport: tr,
			Sampler:   &Sampler{net: n, self: lcfg.Id},
			NoSignals: true,
			InitState: stateCh,
		})
		started <- err
	}()

	var sp *state.State
	select {
	case err := <-started:
		return fmt.Errorf("node %s exited during startup: %w", lcfg.Id, err)
	case sp = <-stateCh:
	}
	n.mu.Lock()
	node.st = sp
	n.mu.Unlock()

	for !sp.Started.Load() {
		select {
		case err := <-started:
			return fmt.Errorf("node %s exited during startup: %w", lcfg.Id, err)
		case <-time.After(time.Millisecond):
		}
	}
	return nil
}

func (n *Network) State(id state.NodeId) *state.State {
	n.mu.Lock()
	defer n.mu.Unlock()
	if node, ok := n.nodes[id]; ok {
		return node.st
	}
	return nil
}

// Routes returns a routing table snapshot from a running node.
func (n *Network) Routes(id state.NodeId) (state.RouteTable, error) {
	st := n.State(id)
	if st == nil {
		return nil, fmt.Errorf("node %s is not running", id)
	}
	return core.Router(st).Routes()
}

// BreakLink severs a link in both directions: packets stop flowing and the
// samplers on both ends report the link down.
func (n *Network) BreakLink(a, b state.NodeId) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.down[state.NewLink(a, b)] = true
}

func (n *Network) RestoreLink(a, b state.NodeId) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.down, state.NewLink(a, b))
}

// SetLatency overrides a link's latency, simulating congestion.
func (n *Network) SetLatency(a, b state.NodeId, latency time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.latency[state.NewLink(a, b)] = latency
}

// SetLoss drops the given fraction of delivered packets network-wide.
func (n *Network) SetLoss(loss float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.loss = loss
}

// Stop shuts every router down and waits for their loops to exit.
func (n *Network) Stop() {
	n.mu.Lock()
	nodes := make([]*runningNode, 0, len(n.nodes))
	for _, node := range n.nodes {
		nodes = append(nodes, node)
	}
	n.mu.Unlock()
	for _, node := range nodes {
		if node.st != nil {
			node.st.Cancel(fmt.Errorf("mock network stopped"))
		}
	}
	for _, node := range nodes {
		<-node.done
	}
}

// WaitFor polls cond until it holds or the timeout expires.
func (n *Network) WaitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func (n *Network) deliver(from, to state.NodeId, data []byte) {
	n.mu.Lock()
	if n.down[state.NewLink(from, to)] {
		n.mu.Unlock()
		return
	}
	if n.loss > 0 && rand.Float64() < n.loss {
		n.mu.Unlock()
		return
	}
	target, ok := n.nodes[to]
	n.mu.Unlock()
	if !ok {
		return
	}
	target.transport.push(core.InboundPacket{From: from, Data: append([]byte(nil), data...)})
}
