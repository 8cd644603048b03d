// Package resolv is the public surface of the stub resolver: a single
// long-lived, single-threaded object driven entirely by a host loop
// calling Tick and HandlePacket. There are no background goroutines -
// every state transition happens synchronously inside one of those two
// calls, matching the cooperative task the core is modeled on.
package resolv

import (
	"context"
	"net"
	"strings"

	"github.com/dak664/nanoresolv/internal/engine"
	"github.com/dak664/nanoresolv/internal/network"
	"github.com/dak664/nanoresolv/internal/protocol"
	"github.com/dak664/nanoresolv/internal/responder"
	"github.com/dak664/nanoresolv/internal/security"
	"github.com/dak664/nanoresolv/internal/table"
	"github.com/dak664/nanoresolv/internal/transport"
)

// Re-export the family type and its values so callers never need to
// import internal/protocol directly.
type AddressFamily = protocol.AddressFamily

const (
	IPv4 = protocol.IPv4
	IPv6 = protocol.IPv6
)

// FoundFunc is called once for every query that leaves ASKING. On
// failure addr is nil; rcode is the reply's nonzero rcode when the server
// answered with an error (e.g. NXDOMAIN) and 0 when the retries ran out
// with no answer.
type FoundFunc func(name string, addr net.IP, rcode uint8)

// Resolver is a stub resolver with an integrated mDNS responder. Exactly
// one of Tick or HandlePacket must be in progress at a time; the type
// performs no internal synchronization, by design (see DESIGN.md).
type Resolver struct {
	family  protocol.AddressFamily
	eng     *engine.Engine
	resp    *responder.Responder
	tr      transport.Transport
	onFound FoundFunc

	maxNameLen int

	// probeName is the fully qualified name (hostname+".local") of an
	// in-flight self-query started by SetHostname, or "" when no
	// collision check is outstanding.
	probeName string

	// probeAttempts counts colliding self-queries in a row for the
	// current collision check, reset in SetHostname; the check gives up
	// when it reaches maxRenameAttempts.
	probeAttempts int
}

// maxRenameAttempts bounds the collision auto-rename loop (§9): once
// this many self-queries in a row (the original name's and each renamed
// one's) have collided, give up and notify the caller instead of
// renaming again, so at most maxRenameAttempts-1 renames are made.
const maxRenameAttempts = 10

// New builds a Resolver and opens its UDP transport (bound to port 5353
// if the mDNS responder is enabled, an ephemeral port otherwise).
func New(opts ...Option) (*Resolver, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	server := cfg.server
	if server == nil {
		server = cfg.family.DefaultServer()
	}

	port := 0
	if cfg.mdnsResponder {
		port = protocol.Port
	}

	var tr transport.Transport
	var err error
	if cfg.family == protocol.IPv6 {
		tr, err = transport.NewUDPv6Transport(port)
	} else {
		tr, err = transport.NewUDPv4Transport(port)
	}
	if err != nil {
		return nil, err
	}

	tbl := table.New(cfg.entries, cfg.maxNameLen)
	eng := engine.New(tbl, cfg.family, server, tr, cfg.maxRetries, cfg.maxMDNSRetries)

	r := &Resolver{
		family:     cfg.family,
		eng:        eng,
		tr:         tr,
		maxNameLen: cfg.maxNameLen,
	}
	eng.SetOnFound(r.handleFound)

	if cfg.mdnsResponder {
		ifaces := cfg.ifaces
		if ifaces == nil {
			if cfg.interfaceFilter != nil {
				all, err := net.Interfaces()
				if err != nil {
					_ = tr.Close()
					return nil, err
				}
				for _, iface := range all {
					if cfg.interfaceFilter(iface) {
						ifaces = append(ifaces, iface)
					}
				}
			} else {
				ifaces, err = network.DefaultInterfaces()
				if err != nil {
					_ = tr.Close()
					return nil, err
				}
			}
		}

		includeGlobalV6 := cfg.includeGlobalV6
		addrSource := func() ([]net.IP, error) {
			return network.LocalAddresses(ifaces, includeGlobalV6)
		}

		resp := responder.New(cfg.family, cfg.hostname, cfg.maxNameLen, tr, addrSource)
		if cfg.rateLimitEnabled {
			resp.SetRateLimiter(security.NewRateLimiter(cfg.rateLimitThreshold, cfg.rateLimitCooldown, 10000))
		}
		if len(ifaces) > 0 {
			if sf, err := security.NewSourceFilter(ifaces[0]); err == nil {
				resp.SetSourceFilter(sf)
			}
		}
		r.resp = resp
		eng.SetResponder(resp)
	}

	return r, nil
}

// SetOnFound registers the callback invoked when a user query completes.
// A hostname-collision self-query's own outcome is not reported to it;
// it is called once, with the current host name, a nil address and
// RCodeNameErr, when the collision check gives up (see SetHostname).
func (r *Resolver) SetOnFound(fn FoundFunc) {
	r.onFound = fn
}

// Query starts resolving name asynchronously: the result, if any, is
// delivered to the OnFound callback on a later Tick or HandlePacket call.
func (r *Resolver) Query(name string) {
	r.eng.Query(name)
}

// Lookup returns the resolved address for name, if a DONE slot holds
// one. "localhost" is special-cased to the IPv4 or IPv6 loopback address
// depending on the resolver's family, per an explicit equality check
// (the original source's strcmp check was inverted; see DESIGN.md).
func (r *Resolver) Lookup(name string) (net.IP, bool) {
	if strings.TrimSuffix(name, ".") == "localhost" {
		if r.family == protocol.IPv6 {
			return net.IPv6loopback, true
		}
		return net.IPv4(127, 0, 0, 1), true
	}
	return r.eng.Lookup(name)
}

// Configure replaces the upstream unicast DNS server and immediately
// retargets any in-flight unicast query against it (see DESIGN.md).
func (r *Resolver) Configure(addr net.IP) {
	r.eng.Configure(addr)
}

// Server returns the configured upstream unicast DNS server.
func (r *Resolver) Server() net.IP {
	return r.eng.Server()
}

// Hostname returns the local host name currently answered for by the
// mDNS responder, without the ".local" suffix. Returns "" if the
// responder is disabled.
func (r *Resolver) Hostname() string {
	if r.resp == nil {
		return ""
	}
	return r.resp.Hostname()
}

// SetHostname updates the local host name and, if the mDNS responder is
// enabled, triggers a collision check: a self-query for
// hostname+".local" over mDNS. If another responder answers that query
// before the probe's retries are exhausted, the host name is
// automatically renamed (suffix "-2", "-3", ...) and the probe repeats;
// once maxRenameAttempts probes in a row have collided, the OnFound
// callback is notified with a nil address and RCodeNameErr instead of
// renaming again - the behavior the original source left unimplemented
// (see DESIGN.md).
func (r *Resolver) SetHostname(name string) {
	if r.resp == nil {
		return
	}
	r.resp.SetHostname(name)
	r.probeAttempts = 0
	r.startCollisionProbe()
}

func (r *Resolver) startCollisionProbe() {
	r.probeName = r.resp.QuestionName()
	r.eng.Query(r.probeName)
}

// handleFound is wired as the engine's onFound callback. It intercepts
// the outcome of an in-flight hostname-collision probe and otherwise
// forwards to the caller's FoundFunc.
func (r *Resolver) handleFound(name string, addr net.IP, rcode uint8) {
	if r.probeName != "" && name == r.probeName {
		r.probeName = ""
		if addr != nil {
			r.probeAttempts++
			if r.probeAttempts >= maxRenameAttempts {
				if r.onFound != nil {
					r.onFound(r.resp.Hostname(), nil, protocol.RCodeNameErr)
				}
				return
			}
			renamed := table.RenameHostname(r.resp.Hostname(), r.maxNameLen)
			r.resp.SetHostname(renamed)
			r.startCollisionProbe()
		}
		return
	}

	if r.onFound != nil {
		r.onFound(name, addr, rcode)
	}
}

// Tick advances the query engine's retransmit timers by one unit,
// transmitting at most one query. Call this once per scheduler tick
// (e.g. every second) regardless of whether any query is outstanding.
func (r *Resolver) Tick(ctx context.Context) error {
	return r.eng.Tick(ctx)
}

// HandlePacket folds one inbound datagram (as delivered by the
// Resolver's own Transport, or a caller-owned one sharing the same
// socket) into engine or responder state.
func (r *Resolver) HandlePacket(ctx context.Context, data []byte, src net.Addr) error {
	return r.eng.HandlePacket(ctx, data, src)
}

// Receive blocks on the underlying transport for the next inbound
// datagram and folds it into resolver state. Host loops that own their
// own socket should call HandlePacket directly instead.
func (r *Resolver) Receive(ctx context.Context) error {
	data, src, err := r.tr.Receive(ctx)
	if err != nil {
		return err
	}
	if data == nil {
		return nil
	}
	return r.HandlePacket(ctx, data, src)
}

// Close releases the underlying UDP transport.
func (r *Resolver) Close() error {
	return r.tr.Close()
}
