// Package message implements DNS/mDNS wire format encoding and decoding:
// the fixed 12-byte header, question and answer records, and the
// length-prefixed name codec, per RFC 1035 §4 and the subset of RFC 6762
// this resolver core needs.
package message

import "github.com/dak664/nanoresolv/internal/protocol"

// Header is the fixed 12-byte DNS message header per RFC 1035 §4.1.1.
//
// Unlike the combined 16-bit flags field RFC 1035 diagrams as one unit,
// this core addresses the two flag bytes separately, matching the
// byte-exact layout it parses and builds:
//
//	id:u16, flags1:u8, flags2:u8, qdcount:u16, ancount:u16, nscount:u16, arcount:u16
type Header struct {
	// ID is the transaction id. For outbound queries this is the encoded
	// table slot index (protocol.EncodeTxnID); for the mDNS responder it
	// is echoed from the inbound question.
	ID uint16

	// Flags1 holds the response/authoritative/recursion-desired bits.
	Flags1 uint8

	// Flags2 holds the rcode in its low nibble.
	Flags2 uint8

	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

// IsResponse reports whether the response bit is set in Flags1.
func (h *Header) IsResponse() bool {
	return protocol.IsResponse(h.Flags1)
}

// IsQuestion reports whether both flag bytes are zero, the shape this
// core treats as an inbound question rather than a reply.
func (h *Header) IsQuestion() bool {
	return protocol.IsQuestion(h.Flags1, h.Flags2)
}

// RCode extracts the response code from Flags2.
func (h *Header) RCode() uint8 {
	return protocol.RCode(h.Flags2)
}

// Question is a DNS question-section entry per RFC 1035 §4.1.2.
type Question struct {
	QNAME  string
	QTYPE  uint16
	QCLASS uint16
}

// Answer is a DNS answer/authority/additional section entry per RFC 1035
// §4.1.3.
type Answer struct {
	NAME string

	TYPE  uint16
	CLASS uint16
	TTL   uint32

	RDLENGTH uint16
	RDATA    []byte
}

// Message is a complete decoded DNS message.
type Message struct {
	Header    Header
	Questions []Question
	Answers   []Answer
}
