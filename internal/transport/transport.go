// Package transport provides the UDP socket layer the host loop uses to
// send queries/responses and receive datagrams, plus a mock for tests.
package transport

import (
	"context"
	"net"
)

// Transport sends and receives raw DNS/mDNS packets. The host loop owns
// one per address family and drives it directly; there is no background
// receive goroutine, matching the single-threaded cooperative model the
// resolver runs under.
type Transport interface {
	Send(ctx context.Context, packet []byte, dest net.Addr) error
	Receive(ctx context.Context) ([]byte, net.Addr, error)
	Close() error
}
