package transport

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"

	"github.com/dak664/nanoresolv/internal/errors"
	"github.com/dak664/nanoresolv/internal/protocol"
)

// UDPTransport is a UDP socket for one address family. Binding to the
// mDNS port joins the corresponding multicast group on every suitable
// interface so unicast replies and mDNS traffic both arrive on the same
// socket; binding to any other port (the ephemeral, responder-disabled
// case) opens a plain unicast socket.
type UDPTransport struct {
	conn   net.PacketConn
	family protocol.AddressFamily
}

// NewUDPv4Transport opens an IPv4 socket on port. Port 5353 joins the
// mDNS multicast group (224.0.0.251) on every up, multicast-capable
// interface; any other port is a plain unicast socket, typically bound
// to an ephemeral port.
func NewUDPv4Transport(port int) (*UDPTransport, error) {
	return newUDPTransport("udp4", protocol.IPv4, port)
}

// NewUDPv6Transport opens an IPv6 socket on port, joining ff02::fb on
// every up, multicast-capable interface when port is the mDNS port.
func NewUDPv6Transport(port int) (*UDPTransport, error) {
	return newUDPTransport("udp6", protocol.IPv6, port)
}

func newUDPTransport(network string, family protocol.AddressFamily, port int) (*UDPTransport, error) {
	if port != protocol.Port {
		conn, err := net.ListenUDP(network, &net.UDPAddr{Port: port})
		if err != nil {
			return nil, &errors.NetworkError{
				Operation: "create socket",
				Err:       err,
				Details:   fmt.Sprintf("failed to bind %s to port %d", network, port),
			}
		}
		return finishTransport(conn, family)
	}

	// Use net.ListenConfig (not net.ListenMulticastUDP) so platformControl
	// can set SO_REUSEADDR/SO_REUSEPORT before bind, letting this socket
	// coexist with Avahi/Bonjour/systemd-resolved on the same port.
	lc := net.ListenConfig{Control: platformControl}
	conn, err := lc.ListenPacket(context.Background(), network, fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, &errors.NetworkError{
			Operation: "create socket",
			Err:       err,
			Details:   fmt.Sprintf("failed to bind %s to port %d (is another mDNS responder running without SO_REUSEPORT?)", network, port),
		}
	}

	if err := joinMulticastGroup(conn, family); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return finishTransport(conn, family)
}

// joinMulticastGroup joins the family's mDNS group on every up,
// multicast-capable interface via golang.org/x/net/ipv4 or ipv6, which
// also gives us control of the multicast TTL/hop-limit and loopback
// settings that net.ListenMulticastUDP does not expose.
func joinMulticastGroup(conn net.PacketConn, family protocol.AddressFamily) error {
	ifaces, err := net.Interfaces()
	if err != nil {
		return &errors.NetworkError{Operation: "enumerate interfaces", Err: err, Details: "failed to list interfaces for multicast join"}
	}

	group := family.MulticastGroup()
	joined := 0

	if family == protocol.IPv6 {
		p := ipv6.NewPacketConn(conn)
		for i := range ifaces {
			iface := ifaces[i]
			if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagMulticast == 0 {
				continue
			}
			if p.JoinGroup(&iface, &net.UDPAddr{IP: group.IP}) == nil {
				joined++
			}
		}
		_ = p.SetMulticastHopLimit(255) // RFC 6762 §11
		_ = p.SetMulticastLoopback(true)
	} else {
		p := ipv4.NewPacketConn(conn)
		for i := range ifaces {
			iface := ifaces[i]
			if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagMulticast == 0 {
				continue
			}
			if p.JoinGroup(&iface, &net.UDPAddr{IP: group.IP}) == nil {
				joined++
			}
		}
		_ = p.SetMulticastTTL(255) // RFC 6762 §11
		_ = p.SetMulticastLoopback(true)
	}

	if joined == 0 {
		return &errors.NetworkError{Operation: "join multicast group", Err: fmt.Errorf("no usable interfaces"), Details: fmt.Sprintf("failed to join %s on any interface", group.IP)}
	}
	return nil
}

func finishTransport(conn net.PacketConn, family protocol.AddressFamily) (*UDPTransport, error) {
	if udpConn, ok := conn.(*net.UDPConn); ok {
		if err := udpConn.SetReadBuffer(65536); err != nil {
			_ = conn.Close()
			return nil, &errors.NetworkError{
				Operation: "configure socket",
				Err:       err,
				Details:   "failed to set read buffer size",
			}
		}
	}
	return &UDPTransport{conn: conn, family: family}, nil
}

// Send transmits packet to dest, honoring ctx cancellation.
func (t *UDPTransport) Send(ctx context.Context, packet []byte, dest net.Addr) error {
	select {
	case <-ctx.Done():
		return &errors.NetworkError{Operation: "send", Err: ctx.Err(), Details: "context canceled before send"}
	default:
	}

	n, err := t.conn.WriteTo(packet, dest)
	if err != nil {
		return &errors.NetworkError{
			Operation: "send",
			Err:       err,
			Details:   fmt.Sprintf("failed to send %d bytes to %s", len(packet), dest),
		}
	}
	if n != len(packet) {
		return &errors.NetworkError{
			Operation: "send",
			Err:       fmt.Errorf("partial write: %d/%d bytes", n, len(packet)),
			Details:   "incomplete transmission",
		}
	}
	return nil
}

// Receive waits for one datagram, respecting ctx's deadline/cancellation.
// The returned slice is a copy; the pooled buffer it was read into is
// returned to the pool before Receive returns.
func (t *UDPTransport) Receive(ctx context.Context) ([]byte, net.Addr, error) {
	select {
	case <-ctx.Done():
		return nil, nil, &errors.NetworkError{Operation: "receive", Err: ctx.Err(), Details: "context canceled before receive"}
	default:
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := t.conn.SetReadDeadline(deadline); err != nil {
			return nil, nil, &errors.NetworkError{Operation: "set read deadline", Err: err, Details: fmt.Sprintf("failed to set deadline %v", deadline)}
		}
	}

	bufPtr := GetBuffer()
	defer PutBuffer(bufPtr)
	buffer := *bufPtr

	n, srcAddr, err := t.conn.ReadFrom(buffer)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, nil, &errors.NetworkError{Operation: "receive", Err: err, Details: "timeout"}
		}
		return nil, nil, &errors.NetworkError{Operation: "receive", Err: err, Details: "failed to read from socket"}
	}

	result := make([]byte, n)
	copy(result, buffer[:n])
	return result, srcAddr, nil
}

// Close releases the underlying socket.
func (t *UDPTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	if err := t.conn.Close(); err != nil {
		return &errors.NetworkError{Operation: "close socket", Err: err, Details: "failed to close UDP connection"}
	}
	return nil
}
