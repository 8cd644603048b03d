// Package responder implements the mDNS responder half of the resolver:
// matching inbound questions against the local host name and answering
// authoritatively with the host's own addresses.
package responder

import (
	"context"
	"net"
	"strings"

	"github.com/dak664/nanoresolv/internal/message"
	"github.com/dak664/nanoresolv/internal/protocol"
	"github.com/dak664/nanoresolv/internal/security"
	"github.com/dak664/nanoresolv/internal/transport"
)

// AddressSource supplies the addresses a question is answered with. The
// resolv package wires this to network.LocalAddresses over the
// configured interface set.
type AddressSource func() ([]net.IP, error)

// Responder answers inbound mDNS questions for one host name. It holds no
// opinion on how that name was chosen or renamed on collision - see
// DESIGN.md for how the top-level resolver drives the collision check
// described in the protocol's name-collision note.
type Responder struct {
	family     protocol.AddressFamily
	hostname   string
	maxNameLen int
	transport  transport.Transport
	addrSource AddressSource

	rateLimiter  *security.RateLimiter
	sourceFilter *security.SourceFilter
}

// New builds a Responder that answers address questions for hostname
// over the given family, sending replies via tr and sourcing the host's
// own addresses from addrSource.
func New(family protocol.AddressFamily, hostname string, maxNameLen int, tr transport.Transport, addrSource AddressSource) *Responder {
	return &Responder{
		family:     family,
		hostname:   hostname,
		maxNameLen: maxNameLen,
		transport:  tr,
		addrSource: addrSource,
	}
}

// SetRateLimiter installs per-source-IP rate limiting on inbound
// questions. Pass nil to disable.
func (r *Responder) SetRateLimiter(rl *security.RateLimiter) {
	r.rateLimiter = rl
}

// SetSourceFilter installs source-address validation on inbound
// questions. Pass nil to disable.
func (r *Responder) SetSourceFilter(sf *security.SourceFilter) {
	r.sourceFilter = sf
}

// Hostname returns the name this responder currently answers for
// (without the ".local" suffix).
func (r *Responder) Hostname() string {
	return r.hostname
}

// SetHostname updates the name this responder answers for, truncating to
// maxNameLen like the name table does. It does not by itself trigger a
// collision check; the caller (resolv.Resolver) issues the self-query and
// calls SetHostname again on a collision. See DESIGN.md.
func (r *Responder) SetHostname(name string) {
	if len(name) > r.maxNameLen {
		name = name[:r.maxNameLen]
	}
	r.hostname = name
}

// QuestionName returns the fully qualified name this responder answers
// for: hostname + ".local".
func (r *Responder) QuestionName() string {
	return r.hostname + protocol.LocalDomainSuffix
}

// HandleQuery implements engine.Responder. It is called for any inbound
// packet whose flags1 and flags2 are both zero.
func (r *Responder) HandleQuery(ctx context.Context, data []byte, src net.Addr) error {
	if !r.sourceAllowed(src) {
		return nil
	}

	msg, err := message.ParseMessage(data)
	if err != nil {
		return nil
	}

	if !r.matches(msg.Questions) {
		return nil
	}

	records, err := r.buildAnswers()
	if err != nil || len(records) == 0 {
		return nil
	}

	response, err := message.BuildResponse(msg.Header.ID, records)
	if err != nil {
		return err
	}

	return r.transport.Send(ctx, response, r.replyDest(src))
}

func (r *Responder) sourceAllowed(src net.Addr) bool {
	udpAddr, ok := src.(*net.UDPAddr)
	if !ok {
		return true
	}

	if r.sourceFilter != nil && !r.sourceFilter.IsValid(udpAddr.IP) {
		return false
	}
	if r.rateLimiter != nil && !r.rateLimiter.Allow(udpAddr.IP.String()) {
		return false
	}
	return true
}

// matches reports whether any question in questions is one this
// responder should answer: class IN (cache-flush bit masked off), type
// matching the family's address record or ANY, and name equal to
// QuestionName() case-insensitively.
func (r *Responder) matches(questions []message.Question) bool {
	want := r.QuestionName()
	for _, q := range questions {
		if protocol.DNSClass(q.QCLASS).Masked() != protocol.ClassIN {
			continue
		}
		recordType := protocol.RecordType(q.QTYPE)
		if recordType != r.family.AddressRecordType() && recordType != protocol.RecordTypeANY {
			continue
		}
		if strings.EqualFold(q.QNAME, want) {
			return true
		}
	}
	return false
}

// replyDest routes the response to the multicast group when the question
// arrived on the mDNS port, else back to the querying source address.
func (r *Responder) replyDest(src net.Addr) net.Addr {
	if udpAddr, ok := src.(*net.UDPAddr); ok && udpAddr.Port == protocol.Port {
		return r.family.MulticastGroup()
	}
	return src
}

// buildAnswers constructs the answer records for QuestionName(): a single
// A record for IPv4, or one AAAA record per usable local address for
// IPv6. The first record's name is freshly encoded; later records point
// back at it via message.HeaderPointer.
func (r *Responder) buildAnswers() ([]*message.ResourceRecord, error) {
	addrs, err := r.addrSource()
	if err != nil {
		return nil, err
	}

	var filtered []net.IP
	for _, ip := range addrs {
		isV4 := ip.To4() != nil
		if r.family == protocol.IPv4 && isV4 {
			filtered = append(filtered, ip)
		}
		if r.family == protocol.IPv6 && !isV4 {
			filtered = append(filtered, ip)
		}
	}
	if len(filtered) == 0 {
		return nil, nil
	}
	if r.family == protocol.IPv4 {
		filtered = filtered[:1]
	}

	nameBytes, err := message.EncodeName(r.QuestionName())
	if err != nil {
		return nil, err
	}

	records := make([]*message.ResourceRecord, 0, len(filtered))
	for i, ip := range filtered {
		var rdata []byte
		if r.family == protocol.IPv6 {
			rdata = []byte(ip.To16())
		} else {
			rdata = []byte(ip.To4())
		}

		nb := nameBytes
		if i > 0 {
			nb = message.HeaderPointer
		}

		records = append(records, &message.ResourceRecord{
			NameBytes:  nb,
			Type:       r.family.AddressRecordType(),
			Class:      protocol.ClassIN,
			TTL:        protocol.TTLHostname,
			Data:       rdata,
			CacheFlush: true,
		})
	}
	return records, nil
}
