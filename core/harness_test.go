package core

import (
	"context"
	"crypto/ed25519"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Oshadha-Nimantha/osdrp/protocol"
	"github.com/Oshadha-Nimantha/osdrp/state"
	"github.com/stretchr/testify/require"
)

// recorderTransport captures every flooded packet instead of delivering it.
type recorderTransport struct {
	mu      sync.Mutex
	sent    []sentPacket
	inbound chan InboundPacket
}

type sentPacket struct {
	To   state.NodeId
	Data []byte
}

func newRecorder() *recorderTransport {
	return &recorderTransport{inbound: make(chan InboundPacket)}
}

func (t *recorderTransport) Send(to state.NodeId, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, sentPacket{To: to, Data: append([]byte(nil), data...)})
	return nil
}

func (t *recorderTransport) Inbound() <-chan InboundPacket {
	return t.inbound
}

func (t *recorderTransport) Close() error {
	close(t.inbound)
	return nil
}

func (t *recorderTransport) sentTo(to state.NodeId) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, p := range t.sent {
		if p.To == to {
			n++
		}
	}
	return n
}

func (t *recorderTransport) total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sent)
}

// nullSampler reports every link down; routers using it never originate on
// their own.
type nullSampler struct{}

func (nullSampler) Sample(state.NodeId) (state.LinkSample, bool) {
	return state.LinkSample{}, false
}

// testNet holds the keys of a fabricated network so tests can sign LSUs on
// behalf of any node.
type testNet struct {
	ccfg state.CentralCfg
	keys map[state.NodeId]state.OsPrivateKey
}

// newTestNet builds a network from explicit per-link costs. The costs become
// the advertised metrics of the LSUs minted by lsu().
func newTestNet(links []state.LinkCfg) *testNet {
	n := &testNet{keys: make(map[state.NodeId]state.OsPrivateKey)}
	n.ccfg.Links = links
	for _, l := range links {
		for _, end := range []state.NodeId{l.A, l.B} {
			if _, ok := n.keys[end]; ok {
				continue
			}
			key := state.GenerateKey()
			n.keys[end] = key
			n.ccfg.Nodes = append(n.ccfg.Nodes, state.NodeCfg{Id: end, PubKey: key.Pubkey()})
		}
	}
	state.ExpandCentralConfig(&n.ccfg)
	// timers park far in the future so tests drive the router directly
	n.ccfg.Timing.SampleInterval = time.Hour
	n.ccfg.Timing.RefreshInterval = time.Hour
	n.ccfg.Timing.SweepInterval = time.Hour
	n.ccfg.Timing.CoalesceDelay = time.Hour
	return n
}

// lsu mints a signed LSU for origin with the given advertised costs.
func (n *testNet) lsu(origin state.NodeId, seqno uint64, costs map[state.NodeId]float64) *protocol.LSU {
	advs := make([]protocol.Advertisement, 0, len(costs))
	for neigh, cost := range costs {
		advs = append(advs, protocol.Advertisement{Neighbour: string(neigh), Cost: cost})
	}
	protocol.SortAdvertisements(advs)
	lsu := &protocol.LSU{
		Originator:     string(origin),
		Seqno:          seqno,
		Timestamp:      time.Now().UnixNano(),
		Advertisements: advs,
	}
	lsu.Sign(n.keys[origin].Ed())
	return lsu
}

// start boots a router for the given node without running its dispatch loop:
// the test goroutine is the single writer and calls handlers directly.
func (n *testNet) start(t *testing.T, id state.NodeId) (*OsdrpRouter, *state.State, *recorderTransport) {
	ctx, cancel := context.WithCancelCause(context.Background())
	t.Cleanup(func() { cancel(context.Canceled) })
	dispatch := make(chan func(*state.State) error, 256)

	s := &state.State{
		TrustedNodes: make(map[state.NodeId]ed25519.PublicKey),
		Modules:      make(map[string]state.OsModule),
		Neighbours:   n.ccfg.NeighboursOf(id),
		Env: &state.Env{
			Context:         ctx,
			Cancel:          cancel,
			DispatchChannel: dispatch,
			CentralCfg:      n.ccfg,
			LocalCfg:        state.LocalCfg{Id: id, Key: n.keys[id]},
			Log:             slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelError})),
		},
	}
	for _, node := range n.ccfg.Nodes {
		s.TrustedNodes[node.Id] = node.PubKey.Ed()
	}

	tr := newRecorder()
	r := &OsdrpRouter{Transport: tr, Sampler: nullSampler{}}
	require.NoError(t, r.Init(s))
	t.Cleanup(func() { _ = r.Cleanup(s) })
	return r, s, tr
}

// installOwn installs this router's own advertisement, as Originate would,
// with explicit costs.
func installOwn(r *OsdrpRouter, s *state.State, costs map[state.NodeId]float64) {
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
}

type testWriter struct {
	t *testing.T
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}
