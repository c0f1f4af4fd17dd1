package core

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/Oshadha-Nimantha/osdrp/state"
)

// InboundPacket is one control plane datagram attributed to a neighbour.
type InboundPacket struct {
	From state.NodeId
	Data []byte
}

// Transport moves LSU packets between direct neighbours. Sends are
// fire-and-forget; reliability comes from periodic re-advertisement plus the
// idempotent sequence check on the receiving side.
type Transport interface {
	Send(to state.NodeId, data []byte) error
	Inbound() <-chan InboundPacket
	Close() error
}

const maxPacketSize = 65535

// UdpTransport exchanges LSUs over UDP with the configured neighbour
// endpoints. Packets from addresses that match no neighbour are dropped
// before they reach the router.
type UdpTransport struct {
	conn    *net.UDPConn
	peers   map[state.NodeId]netip.AddrPort
	byAddr  map[netip.AddrPort]state.NodeId
	inbound chan InboundPacket
}

func NewUdpTransport(bind netip.AddrPort, peers map[state.NodeId]netip.AddrPort) (*UdpTransport, error) {
	conn, err := net.ListenUDP("udp", net.UDPAddrFromAddrPort(bind))
	if err != nil {
		return nil, fmt.Errorf("failed to bind control plane socket: %w", err)
	}
	t := &UdpTransport{
		conn:    conn,
		peers:   peers,
		byAddr:  make(map[netip.AddrPort]state.NodeId, len(peers)),
		inbound: make(chan InboundPacket, 128),
	}
	for node, ep := range peers {
		t.byAddr[unmapAddrPort(ep)] = node
	}
	go t.readLoop()
	return t, nil
}

// unmapAddrPort strips any 4-in-6 mapping so source matching works regardless
// of whether the socket reports v4 or mapped v6 addresses.
func unmapAddrPort(ap netip.AddrPort) netip.AddrPort {
	return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
}

// LocalAddr returns the bound control plane address.
func (t *UdpTransport) LocalAddr() netip.AddrPort {
	return t.conn.LocalAddr().(*net.UDPAddr).AddrPort()
}

func (t *UdpTransport) readLoop() {
	buf := make([]byte, maxPacketSize)
	for {
		n, raddr, err := t.conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			close(t.inbound)
			return
		}
		from, ok := t.byAddr[unmapAddrPort(raddr)]
		if !ok {
			continue
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		t.inbound <- InboundPacket{From: from, Data: data}
	}
}

func (t *UdpTransport) Send(to state.NodeId, data []byte) error {
	ep, ok := t.peers[to]
	if !ok {
		return fmt.Errorf("no endpoint configured for neighbour %s", to)
	}
	_, err := t.conn.WriteToUDPAddrPort(data, ep)
	return err
}

func (t *UdpTransport) Inbound() <-chan InboundPacket {
	return t.inbound
}

func (t *UdpTransport) Close() error {
	return t.conn.Close()
}
