package core

import (
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/Oshadha-Nimantha/osdrp/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var loopback = netip.MustParseAddr("127.0.0.1")

func peerSocket(t *testing.T) (*net.UDPConn, netip.AddrPort) {
	t.Helper()
	conn, err := net.ListenUDP("udp", net.UDPAddrFromAddrPort(netip.AddrPortFrom(loopback, 0)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn, conn.LocalAddr().(*net.UDPAddr).AddrPort()
}

func TestUdpTransportAttributesInboundBySource(t *testing.T) {
	peer, peerAddr := peerSocket(t)

	tr, err := NewUdpTransport(netip.AddrPortFrom(loopback, 0), map[state.NodeId]netip.AddrPort{
		"peer": peerAddr,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })

	_, err = peer.WriteToUDPAddrPort([]byte("hello"), tr.LocalAddr())
	require.NoError(t, err)

	select {
	case pkt := <-tr.Inbound():
		assert.Equal(t, state.NodeId("peer"), pkt.From)
		assert.Equal(t, []byte("hello"), pkt.Data)
	case <-time.After(2 * time.Second):
		t.Fatal("packet from a configured peer never surfaced")
	}

	require.NoError(t, tr.Send("peer", []byte("pong")))
	require.NoError(t, peer.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 64)
	n, _, err := peer.ReadFromUDPAddrPort(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("pong"), buf[:n])
}

func TestUdpTransportDropsUnknownSource(t *testing.T) {
	peer, peerAddr := peerSocket(t)
	stranger, _ := peerSocket(t)

	tr, err := NewUdpTransport(netip.AddrPortFrom(loopback, 0), map[state.NodeId]netip.AddrPort{
		"peer": peerAddr,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })

	_, err = stranger.WriteToUDPAddrPort([]byte("spoof"), tr.LocalAddr())
	require.NoError(t, err)
	// a packet from the known peer afterwards must be the first to surface
	_, err = peer.WriteToUDPAddrPort([]byte("legit"), tr.LocalAddr())
	require.NoError(t, err)

	select {
	case pkt := <-tr.Inbound():
		assert.Equal(t, state.NodeId("peer"), pkt.From)
		assert.Equal(t, []byte("legit"), pkt.Data)
	case <-time.After(2 * time.Second):
		t.Fatal("packet from the known peer never surfaced")
	}
}

func TestUdpTransportSendToUnknownNeighbour(t *testing.T) {
	tr, err := NewUdpTransport(netip.AddrPortFrom(loopback, 0), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })
	assert.Error(t, tr.Send("ghost", []byte("x")))
}
