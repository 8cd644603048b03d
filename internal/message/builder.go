package message

import (
	"encoding/binary"

	"github.com/dak664/nanoresolv/internal/errors"
	"github.com/dak664/nanoresolv/internal/protocol"
)

// BuildQuery constructs an outbound query message: a 12-byte header
// followed by a single question. id is the wire transaction id (the
// caller supplies protocol.EncodeTxnID(slotIndex) for unicast/mDNS
// queries driven by the query engine). recursionDesired sets flags1's RD
// bit and is true for unicast queries, false for mDNS.
func BuildQuery(name string, recordType protocol.RecordType, id uint16, recursionDesired bool) ([]byte, error) {
	if !recordType.IsSupported() {
		return nil, &errors.ValidationError{
			Field:   "recordType",
			Value:   uint16(recordType),
			Message: "unsupported record type",
		}
	}

	encodedName, err := EncodeName(name)
	if err != nil {
		return nil, err
	}

	var flags1 uint8
	if recursionDesired {
		flags1 = protocol.Flags1RecursionDesired
	}

	header := buildHeader(id, flags1, 0, 1, 0, 0, 0)
	question := buildQuestionSection(encodedName, uint16(recordType))

	return append(header, question...), nil
}

// buildHeader serializes the fixed 12-byte header fields in wire order.
func buildHeader(id uint16, flags1, flags2 uint8, qdcount, ancount, nscount, arcount uint16) []byte {
	header := make([]byte, 12)
	binary.BigEndian.PutUint16(header[0:2], id)
	header[2] = flags1
	header[3] = flags2
	binary.BigEndian.PutUint16(header[4:6], qdcount)
	binary.BigEndian.PutUint16(header[6:8], ancount)
	binary.BigEndian.PutUint16(header[8:10], nscount)
	binary.BigEndian.PutUint16(header[10:12], arcount)
	return header
}

// buildQuestionSection serializes QNAME + QTYPE + QCLASS.
func buildQuestionSection(encodedName []byte, recordType uint16) []byte {
	question := make([]byte, 0, len(encodedName)+4)
	question = append(question, encodedName...)

	qtype := make([]byte, 2)
	binary.BigEndian.PutUint16(qtype, recordType)
	question = append(question, qtype...)

	qclass := make([]byte, 2)
	binary.BigEndian.PutUint16(qclass, uint16(protocol.ClassIN))
	question = append(question, qclass...)

	return question
}

// HeaderPointer is the two-byte compression pointer back to the first
// answer's name, at offset 12 (immediately after the fixed header) - the
// only form of outbound name compression this resolver core produces, for
// the second and later answers of a multi-address mDNS response.
var HeaderPointer = []byte{protocol.CompressionMask, 0x0C}

// ResourceRecord is a resource record ready to serialize: NameBytes is
// already wire-encoded, either a full name (EncodeName) or HeaderPointer.
type ResourceRecord struct {
	NameBytes  []byte
	Type       protocol.RecordType
	Class      protocol.DNSClass
	TTL        uint32
	Data       []byte
	CacheFlush bool
}

// BuildResponse constructs an authoritative mDNS response: a 12-byte
// header (QR|AA set, all counts zero except ANCount) followed by the
// given answer records in order.
func BuildResponse(id uint16, records []*ResourceRecord) ([]byte, error) {
	flags1 := protocol.Flags1Response | protocol.Flags1Authoritative
	header := buildHeader(id, flags1, 0, 0, uint16(len(records)), 0, 0)

	response := make([]byte, 0, 512)
	response = append(response, header...)

	for _, rr := range records {
		recordBytes, err := serializeResourceRecord(rr)
		if err != nil {
			return nil, err
		}
		response = append(response, recordBytes...)
	}

	return response, nil
}

// serializeResourceRecord writes NAME, TYPE, CLASS (with cache-flush bit
// if requested), TTL, RDLENGTH, RDATA in wire order.
func serializeResourceRecord(rr *ResourceRecord) ([]byte, error) {
	if rr == nil {
		return nil, &errors.ValidationError{
			Field:   "ResourceRecord",
			Message: "cannot serialize nil resource record",
		}
	}

	record := make([]byte, 0, len(rr.NameBytes)+10+len(rr.Data))
	record = append(record, rr.NameBytes...)

	typeBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(typeBytes, uint16(rr.Type))
	record = append(record, typeBytes...)

	class := rr.Class
	if rr.CacheFlush {
		class = class.WithCacheFlush()
	}
	classBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(classBytes, uint16(class))
	record = append(record, classBytes...)

	ttlBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(ttlBytes, rr.TTL)
	record = append(record, ttlBytes...)

	rdlengthBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(rdlengthBytes, uint16(len(rr.Data)))
	record = append(record, rdlengthBytes...)

	record = append(record, rr.Data...)

	return record, nil
}
