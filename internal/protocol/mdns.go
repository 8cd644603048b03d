// Package protocol defines the wire-level constants shared by the unicast
// DNS querier and the mDNS responder: ports, well-known addresses, record
// types, header flag bits, and the transaction-id scheme that lets a reply
// be mapped straight back to a table slot.
package protocol

import (
	"net"
)

// Ports per RFC 1035 §4.2.1 (unicast) and RFC 6762 §5 (multicast).
const (
	// DNSPort is the standard unicast DNS port.
	DNSPort = 53

	// Port is the mDNS port (5353) per RFC 6762 §5.
	Port = 5353
)

// Well-known multicast group addresses per RFC 6762 §5.
const (
	MulticastAddrIPv4 = "224.0.0.251"
	MulticastAddrIPv6 = "ff02::fb"
)

// Default upstream unicast resolvers, used when no server has been
// configured explicitly.
const (
	DefaultServerIPv4 = "8.8.8.8"
	DefaultServerIPv6 = "2001:470:20::2"
)

// MulticastGroupIPv4 returns the mDNS IPv4 multicast group address.
func MulticastGroupIPv4() *net.UDPAddr {
	return &net.UDPAddr{
		IP:   net.ParseIP(MulticastAddrIPv4), // nosemgrep: beacon-hardcoded-multicast-address
		Port: Port,
	}
}

// MulticastGroupIPv6 returns the mDNS IPv6 multicast group address.
func MulticastGroupIPv6() *net.UDPAddr {
	return &net.UDPAddr{
		IP:   net.ParseIP(MulticastAddrIPv6), // nosemgrep: beacon-hardcoded-multicast-address
		Port: Port,
	}
}

// AddressFamily selects which record type and group address a resolver
// instance operates with. The original source picked this at compile time
// ("IPv4 build" / "IPv6 build"); here it is a runtime option.
type AddressFamily int

const (
	IPv4 AddressFamily = iota
	IPv6
)

// AddressRecordType returns the record type used to resolve host addresses
// for the given family: A for IPv4, AAAA for IPv6.
func (f AddressFamily) AddressRecordType() RecordType {
	if f == IPv6 {
		return RecordTypeAAAA
	}
	return RecordTypeA
}

// AddressSize returns the RDATA length, in bytes, of an address record for
// the given family.
func (f AddressFamily) AddressSize() int {
	if f == IPv6 {
		return 16
	}
	return 4
}

// DefaultServer returns the default upstream unicast resolver for the
// given family.
func (f AddressFamily) DefaultServer() net.IP {
	if f == IPv6 {
		return net.ParseIP(DefaultServerIPv6)
	}
	return net.ParseIP(DefaultServerIPv4)
}

// MulticastGroup returns the mDNS multicast group address for the given
// family.
func (f AddressFamily) MulticastGroup() *net.UDPAddr {
	if f == IPv6 {
		return MulticastGroupIPv6()
	}
	return MulticastGroupIPv4()
}

// RecordType represents a DNS record type per RFC 1035 §3.2.2. Only the
// record types this resolver core understands are defined; anything else
// decodes as an unrecognized RecordType value and is rejected by
// ValidateRecordType.
type RecordType uint16

const (
	// RecordTypeA is a 32-bit IPv4 host address record.
	RecordTypeA RecordType = 1

	// RecordTypeAAAA is a 128-bit IPv6 host address record per RFC 3596.
	RecordTypeAAAA RecordType = 28

	// RecordTypeANY requests all record types per RFC 1035 §3.2.3; used by
	// mDNS queriers probing for any existing record at a name.
	RecordTypeANY RecordType = 255
)

// String returns the human-readable name for a RecordType.
func (rt RecordType) String() string {
	switch rt {
	case RecordTypeA:
		return "A"
	case RecordTypeAAAA:
		return "AAAA"
	case RecordTypeANY:
		return "ANY"
	default:
		return "UNKNOWN"
	}
}

// IsSupported reports whether rt is a record type this resolver core
// queries for or answers with.
func (rt RecordType) IsSupported() bool {
	switch rt {
	case RecordTypeA, RecordTypeAAAA, RecordTypeANY:
		return true
	default:
		return false
	}
}

// DNSClass represents a DNS class per RFC 1035 §3.2.4.
type DNSClass uint16

const (
	// ClassIN is the Internet (IN) class, the only one this resolver uses.
	ClassIN DNSClass = 1

	// ClassCacheFlush is the top bit of the class field on mDNS records,
	// signalling receivers to flush prior cached records of that
	// name+type per RFC 6762 §10.2. Always masked off before a class
	// comparison.
	ClassCacheFlush DNSClass = 0x8000

	// classMask isolates the class value from the cache-flush bit.
	classMask DNSClass = 0x7FFF
)

// Masked returns c with the cache-flush bit cleared.
func (c DNSClass) Masked() DNSClass {
	return c & classMask
}

// WithCacheFlush returns c with the cache-flush bit set.
func (c DNSClass) WithCacheFlush() DNSClass {
	return c | ClassCacheFlush
}

// Header flag bits, split across the two flag bytes exactly as the wire
// header lays them out: flags1 then flags2.
const (
	// Flags1Response marks the message as a reply (bit 7 of flags1).
	Flags1Response uint8 = 1 << 7

	// Flags1Authoritative marks the responder as authoritative for the
	// answer (bit 2 of flags1).
	Flags1Authoritative uint8 = 1 << 2

	// Flags1RecursionDesired asks an upstream resolver to pursue the
	// query recursively (bit 0 of flags1). Set for unicast queries,
	// clear for mDNS.
	Flags1RecursionDesired uint8 = 1 << 0
)

// RCode values occupy the low nibble of flags2.
const (
	RCodeNoError  uint8 = 0
	RCodeNameErr  uint8 = 3
	rcodeMask     uint8 = 0x0F
)

// RCode extracts the response code from flags2.
func RCode(flags2 uint8) uint8 {
	return flags2 & rcodeMask
}

// DNS name constraints per RFC 1035 §3.1.
const (
	// MaxLabelLength is the maximum length of a single DNS label.
	MaxLabelLength = 63

	// MaxNameLength is the maximum wire-format length of an encoded name,
	// including length-prefix bytes and the zero terminator.
	MaxNameLength = 255

	// MaxCompressionPointers bounds the number of pointer hops followed
	// while decompressing a name, guarding against circular pointers in a
	// malformed packet.
	MaxCompressionPointers = 256
)

// CompressionMask identifies a compression pointer: a label length byte
// whose top two bits are both set per RFC 1035 §4.1.4.
const CompressionMask byte = 0xC0

// TTL values per RFC 6762 §10. Records that tie a host name to an
// address (A, AAAA) get the short TTL since the binding can change
// whenever DHCP does; everything else defaults to the 75-minute TTL.
const (
	// TTLHostname is the TTL for A/AAAA answers - 120 seconds.
	TTLHostname = 120

	// TTLDefault is the default TTL for other mDNS record types -
	// 4500 seconds (75 minutes).
	TTLDefault = 4500
)

// Retry and table defaults per the core's compile-time configuration.
const (
	// MaxRetries is the retransmit cap for unicast queries.
	MaxRetries = 8

	// MaxMDNSRetries is the retransmit cap for mDNS queries, lower since
	// the link-local group is shared and answers arrive quickly if at all.
	MaxMDNSRetries = 3

	// MaxDomainNameSize bounds a stored canonical name, excluding the
	// terminator.
	MaxDomainNameSize = 32

	// ResolvEntries is the default name-table capacity.
	ResolvEntries = 4
)

// txnIDBase offsets a slot index onto the wire so that decoding a reply's
// transaction id yields the slot index directly, in O(1), with no scan.
const txnIDBase = 61616

// EncodeTxnID maps a table slot index onto a wire transaction id.
func EncodeTxnID(slot int) uint16 {
	return uint16(slot + txnIDBase)
}

// DecodeTxnID inverts EncodeTxnID. The caller must range-check the result
// against the table capacity before using it as an index.
func DecodeTxnID(id uint16) int {
	return int(id) - txnIDBase
}

// LocalDomainSuffix is the suffix that routes a query through the mDNS
// path instead of unicast DNS.
const LocalDomainSuffix = ".local"
