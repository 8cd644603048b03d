// Package engine drives the name table's NEW/ASKING/DONE/ERROR state
// machine: Tick advances retransmit timers and emits at most one query
// per call, HandlePacket folds an inbound datagram into table state (or
// hands a question off to the mDNS responder).
package engine

import (
	"context"
	"net"

	"github.com/dak664/nanoresolv/internal/message"
	"github.com/dak664/nanoresolv/internal/protocol"
	"github.com/dak664/nanoresolv/internal/table"
	"github.com/dak664/nanoresolv/internal/transport"
)

// Responder handles an inbound mDNS question (a packet whose flags1 and
// flags2 are both zero). Engine holds one optionally; when nil, question
// packets are dropped.
type Responder interface {
	HandleQuery(ctx context.Context, data []byte, src net.Addr) error
}

// FoundFunc is called once a slot leaves ASKING. On failure addr is nil
// and rcode is the reply's nonzero rcode for an error reply, or 0 when
// the retries ran out with no answer.
type FoundFunc func(name string, addr net.IP, rcode uint8)

// Engine owns the name table and drives its query/response lifecycle for
// one address family.
type Engine struct {
	tbl            *table.Table
	family         protocol.AddressFamily
	serverAddr     net.IP
	transport      transport.Transport
	responder      Responder
	onFound        FoundFunc
	onEvict        func(name string)
	maxRetries     int
	maxMDNSRetries int
}

// New builds an Engine over tbl, resolving addresses of the given family
// against serverAddr via tr. maxRetries and maxMDNSRetries are the
// unicast and mDNS retransmit caps respectively.
func New(tbl *table.Table, family protocol.AddressFamily, serverAddr net.IP, tr transport.Transport, maxRetries, maxMDNSRetries int) *Engine {
	return &Engine{
		tbl:            tbl,
		family:         family,
		serverAddr:     serverAddr,
		transport:      tr,
		maxRetries:     maxRetries,
		maxMDNSRetries: maxMDNSRetries,
	}
}

// SetResponder wires in the mDNS responder used to answer inbound
// questions. Pass nil to disable the responder.
func (e *Engine) SetResponder(r Responder) {
	e.responder = r
}

// SetOnFound registers the callback invoked when a query completes,
// successfully or not.
func (e *Engine) SetOnFound(fn FoundFunc) {
	e.onFound = fn
}

// SetOnEvict registers a callback invoked whenever Query displaces an
// in-use slot rather than reusing an UNUSED one.
func (e *Engine) SetOnEvict(fn func(name string)) {
	e.onEvict = fn
}

// Server returns the configured upstream unicast resolver address.
func (e *Engine) Server() net.IP {
	return e.serverAddr
}

// Configure replaces the upstream unicast resolver address and
// retargets every currently-ASKING unicast (non-mDNS) slot: its
// retransmit timer and retry count reset to zero, so the next Tick
// re-emits immediately against the new server instead of waiting out
// whatever backoff it had accrued against the old one. mDNS slots are
// left alone since they were never addressed to serverAddr. See
// DESIGN.md for the rationale.
func (e *Engine) Configure(addr net.IP) {
	e.serverAddr = addr
	for i := 0; i < e.tbl.Len(); i++ {
		slot := e.tbl.Slot(i)
		if slot.State == table.StateAsking && !slot.IsMDNS {
			slot.Tmr = 0
			slot.Retries = 0
		}
	}
}

// Query starts resolving name, claiming a table slot via FindOrEvict.
// is_mdns routing (".local" suffix) is decided by the table itself.
func (e *Engine) Query(name string) int {
	idx, evictedName, evicted := e.tbl.FindOrEvict(name)
	if evicted && e.onEvict != nil {
		e.onEvict(evictedName)
	}
	return idx
}

// Lookup returns the resolved address for name, if a DONE slot holds
// one.
func (e *Engine) Lookup(name string) (net.IP, bool) {
	return e.tbl.FindDone(name)
}

// Tick advances every ASKING/NEW slot by one time unit. A NEW slot
// becomes ASKING immediately; an ASKING slot's timer counts down, and
// at zero either times out (exhausting its retry budget) or is
// retransmitted with its timer reloaded to the new retry count (a
// backoff of 1, 2, 3, ... ticks). At most one query is
// transmitted per Tick call - once one slot sends, the scan stops for
// this call, leaving later slots for the next Tick.
func (e *Engine) Tick(ctx context.Context) error {
	for i := 0; i < e.tbl.Len(); i++ {
		slot := e.tbl.Slot(i)

		switch slot.State {
		case table.StateNew:
			slot.State = table.StateAsking
			slot.Tmr = 1
			slot.Retries = 0

		case table.StateAsking:
			if slot.Tmr > 0 {
				slot.Tmr--
				continue
			}

			maxRetries := e.maxRetries
			if slot.IsMDNS {
				maxRetries = e.maxMDNSRetries
			}
			if slot.Retries >= maxRetries {
				slot.State = table.StateError
				slot.Err = 0
				e.notify(slot.Name, nil, 0)
				continue
			}

			slot.Retries++
			slot.Tmr = slot.Retries
			if err := e.emit(ctx, i, slot); err != nil {
				return err
			}
			return nil

		default:
			continue
		}
	}
	return nil
}

func (e *Engine) emit(ctx context.Context, index int, slot *table.Slot) error {
	recursionDesired := !slot.IsMDNS
	packet, err := message.BuildQuery(slot.Name, e.family.AddressRecordType(), protocol.EncodeTxnID(index), recursionDesired)
	if err != nil {
		return err
	}

	var dest net.Addr
	if slot.IsMDNS {
		dest = e.family.MulticastGroup()
	} else {
		dest = &net.UDPAddr{IP: e.serverAddr, Port: protocol.DNSPort}
	}

	return e.transport.Send(ctx, packet, dest)
}

// HandlePacket folds one inbound datagram into table state. A packet
// with both flag bytes zero is a question, dispatched to the configured
// Responder; anything else is treated as a reply to a query this table
// is tracking. Malformed or unrecognized packets are dropped silently,
// per the resolver's no-synchronous-error-channel design.
func (e *Engine) HandlePacket(ctx context.Context, data []byte, src net.Addr) error {
	header, err := message.ParseHeader(data)
	if err != nil {
		return nil
	}

	if header.Flags1 == 0 && header.Flags2 == 0 {
		if e.responder != nil {
			return e.responder.HandleQuery(ctx, data, src)
		}
		return nil
	}

	index := protocol.DecodeTxnID(header.ID)
	slot := e.tbl.Slot(index)
	if slot == nil {
		return nil
	}
	if slot.State != table.StateAsking {
		return nil
	}
	if header.ANCount == 0 {
		return nil
	}

	if rcode := header.RCode(); rcode != 0 {
		slot.State = table.StateError
		slot.Err = rcode
		e.notify(slot.Name, nil, rcode)
		return nil
	}

	msg, err := message.ParseMessage(data)
	if err != nil {
		return nil
	}

	wantType := uint16(e.family.AddressRecordType())
	wantSize := e.family.AddressSize()
	for _, answer := range msg.Answers {
		if answer.TYPE != wantType {
			continue
		}
		if protocol.DNSClass(answer.CLASS).Masked() != protocol.ClassIN {
			continue
		}
		if int(answer.RDLENGTH) != wantSize {
			continue
		}
		addr, err := message.ParseRDATA(answer.TYPE, answer.RDATA)
		if err != nil {
			continue
		}
		slot.Addr = addr
		slot.State = table.StateDone
		e.notify(slot.Name, addr, 0)
		return nil
	}

	return nil
}

func (e *Engine) notify(name string, addr net.IP, rcode uint8) {
	if e.onFound != nil {
		e.onFound(name, addr, rcode)
	}
}
