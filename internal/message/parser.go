package message

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/dak664/nanoresolv/internal/errors"
	"github.com/dak664/nanoresolv/internal/protocol"
)

// ParseMessage parses a complete DNS message: the fixed header, the
// question section (QDCount entries), and the answer section (ANCount
// entries). The authority and additional sections are not meaningful to
// this resolver core and are left unparsed.
func ParseMessage(msg []byte) (*Message, error) {
	header, err := ParseHeader(msg)
	if err != nil {
		return nil, err
	}

	offset := 12

	questions := make([]Question, header.QDCount)
	for i := uint16(0); i < header.QDCount; i++ {
		question, newOffset, err := ParseQuestion(msg, offset)
		if err != nil {
			return nil, err
		}
		questions[i] = question
		offset = newOffset
	}

	answers := make([]Answer, header.ANCount)
	for i := uint16(0); i < header.ANCount; i++ {
		answer, newOffset, err := ParseAnswer(msg, offset)
		if err != nil {
			return nil, err
		}
		answers[i] = answer
		offset = newOffset
	}

	return &Message{
		Header:    header,
		Questions: questions,
		Answers:   answers,
	}, nil
}

// ParseHeader parses the fixed 12-byte DNS message header:
// id:u16, flags1:u8, flags2:u8, qdcount:u16, ancount:u16, nscount:u16, arcount:u16.
func ParseHeader(msg []byte) (Header, error) {
	if len(msg) < 12 {
		return Header{}, &errors.WireFormatError{
			Operation: "parse header",
			Offset:    0,
			Message:   fmt.Sprintf("message too short for header: %d bytes, expected at least 12", len(msg)),
		}
	}

	return Header{
		ID:      binary.BigEndian.Uint16(msg[0:2]),
		Flags1:  msg[2],
		Flags2:  msg[3],
		QDCount: binary.BigEndian.Uint16(msg[4:6]),
		ANCount: binary.BigEndian.Uint16(msg[6:8]),
		NSCount: binary.BigEndian.Uint16(msg[8:10]),
		ARCount: binary.BigEndian.Uint16(msg[10:12]),
	}, nil
}

// ParseQuestion parses a question-section entry: QNAME, QTYPE, QCLASS.
func ParseQuestion(msg []byte, offset int) (Question, int, error) {
	qname, newOffset, err := ParseName(msg, offset)
	if err != nil {
		return Question{}, offset, err
	}

	if newOffset+4 > len(msg) {
		return Question{}, offset, &errors.WireFormatError{
			Operation: "parse question",
			Offset:    newOffset,
			Message:   "truncated question: not enough bytes for QTYPE and QCLASS",
		}
	}

	qtype := binary.BigEndian.Uint16(msg[newOffset : newOffset+2])
	qclass := binary.BigEndian.Uint16(msg[newOffset+2 : newOffset+4])

	return Question{QNAME: qname, QTYPE: qtype, QCLASS: qclass}, newOffset + 4, nil
}

// ParseAnswer parses an answer-section entry: NAME, TYPE, CLASS, TTL,
// RDLENGTH, RDATA.
func ParseAnswer(msg []byte, offset int) (Answer, int, error) {
	name, newOffset, err := ParseName(msg, offset)
	if err != nil {
		return Answer{}, offset, err
	}

	if newOffset+10 > len(msg) {
		return Answer{}, offset, &errors.WireFormatError{
			Operation: "parse answer",
			Offset:    newOffset,
			Message:   "truncated answer: not enough bytes for fixed fields",
		}
	}

	rtype := binary.BigEndian.Uint16(msg[newOffset : newOffset+2])
	class := binary.BigEndian.Uint16(msg[newOffset+2 : newOffset+4])
	ttl := binary.BigEndian.Uint32(msg[newOffset+4 : newOffset+8])
	rdlength := binary.BigEndian.Uint16(msg[newOffset+8 : newOffset+10])
	newOffset += 10

	if newOffset+int(rdlength) > len(msg) {
		return Answer{}, offset, &errors.WireFormatError{
			Operation: "parse answer",
			Offset:    newOffset,
			Message:   fmt.Sprintf("truncated RDATA: expected %d bytes, only %d available", rdlength, len(msg)-newOffset),
		}
	}

	rdata := make([]byte, rdlength)
	copy(rdata, msg[newOffset:newOffset+int(rdlength)])

	return Answer{
		NAME:     name,
		TYPE:     rtype,
		CLASS:    class,
		TTL:      ttl,
		RDLENGTH: rdlength,
		RDATA:    rdata,
	}, newOffset + int(rdlength), nil
}

// ParseRDATA parses the RDATA of an A or AAAA record into a net.IP. Any
// other type, or a length mismatched to the family's address size, is a
// WireFormatError.
func ParseRDATA(recordType uint16, rdata []byte) (net.IP, error) {
	switch recordType {
	case uint16(protocol.RecordTypeA):
		if len(rdata) != 4 {
			return nil, &errors.WireFormatError{
				Operation: "parse A record",
				Message:   fmt.Sprintf("invalid A record length: %d bytes, expected 4", len(rdata)),
			}
		}
		return net.IPv4(rdata[0], rdata[1], rdata[2], rdata[3]), nil

	case uint16(protocol.RecordTypeAAAA):
		if len(rdata) != 16 {
			return nil, &errors.WireFormatError{
				Operation: "parse AAAA record",
				Message:   fmt.Sprintf("invalid AAAA record length: %d bytes, expected 16", len(rdata)),
			}
		}
		ip := make(net.IP, 16)
		copy(ip, rdata)
		return ip, nil

	default:
		return nil, &errors.WireFormatError{
			Operation: "parse RDATA",
			Message:   fmt.Sprintf("unsupported record type: %d", recordType),
		}
	}
}
