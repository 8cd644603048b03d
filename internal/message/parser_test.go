package message

import (
	"encoding/binary"
	"net"
	"testing"

	"github.com/dak664/nanoresolv/internal/protocol"
)

func buildRawHeader(id uint16, flags1, flags2 uint8, qd, an, ns, ar uint16) []byte {
	buf := make([]byte, 12)
	binary.BigEndian.PutUint16(buf[0:2], id)
	buf[2] = flags1
	buf[3] = flags2
	binary.BigEndian.PutUint16(buf[4:6], qd)
	binary.BigEndian.PutUint16(buf[6:8], an)
	binary.BigEndian.PutUint16(buf[8:10], ns)
	binary.BigEndian.PutUint16(buf[10:12], ar)
	return buf
}

func TestParseHeader(t *testing.T) {
	buf := buildRawHeader(61616, protocol.Flags1Response, 0, 1, 1, 0, 0)

	h, err := ParseHeader(buf)
	if err != nil {
		t.Fatalf("ParseHeader error: %v", err)
	}
	if h.ID != 61616 {
		t.Errorf("ID = %d, want 61616", h.ID)
	}
	if h.Flags1 != protocol.Flags1Response {
		t.Errorf("Flags1 = 0x%02X, want 0x%02X", h.Flags1, protocol.Flags1Response)
	}
	if h.QDCount != 1 || h.ANCount != 1 {
		t.Errorf("QDCount=%d ANCount=%d, want 1,1", h.QDCount, h.ANCount)
	}
}

func TestParseHeader_TooShort(t *testing.T) {
	if _, err := ParseHeader(make([]byte, 11)); err == nil {
		t.Errorf("ParseHeader(11 bytes) = nil error, want error")
	}
}

func TestParseQuestion(t *testing.T) {
	name, err := EncodeName("example.com")
	if err != nil {
		t.Fatalf("EncodeName error: %v", err)
	}
	buf := make([]byte, 0, len(name)+4)
	buf = append(buf, name...)
	qtype := make([]byte, 2)
	binary.BigEndian.PutUint16(qtype, uint16(protocol.RecordTypeA))
	buf = append(buf, qtype...)
	qclass := make([]byte, 2)
	binary.BigEndian.PutUint16(qclass, uint16(protocol.ClassIN))
	buf = append(buf, qclass...)

	q, newOffset, err := ParseQuestion(buf, 0)
	if err != nil {
		t.Fatalf("ParseQuestion error: %v", err)
	}
	if q.QNAME != "example.com" {
		t.Errorf("QNAME = %q, want %q", q.QNAME, "example.com")
	}
	if q.QTYPE != uint16(protocol.RecordTypeA) || q.QCLASS != uint16(protocol.ClassIN) {
		t.Errorf("QTYPE=%d QCLASS=%d, want %d,%d", q.QTYPE, q.QCLASS, protocol.RecordTypeA, protocol.ClassIN)
	}
	if newOffset != len(buf) {
		t.Errorf("newOffset = %d, want %d", newOffset, len(buf))
	}
}

func buildAnswerBytes(t *testing.T, name string, rtype uint16, class uint16, ttl uint32, rdata []byte) []byte {
	t.Helper()
	encodedName, err := EncodeName(name)
	if err != nil {
		t.Fatalf("EncodeName error: %v", err)
	}
	buf := make([]byte, 0, len(encodedName)+10+len(rdata))
	buf = append(buf, encodedName...)
	tmp := make([]byte, 2)
	binary.BigEndian.PutUint16(tmp, rtype)
	buf = append(buf, tmp...)
	binary.BigEndian.PutUint16(tmp, class)
	buf = append(buf, tmp...)
	ttlBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(ttlBuf, ttl)
	buf = append(buf, ttlBuf...)
	binary.BigEndian.PutUint16(tmp, uint16(len(rdata)))
	buf = append(buf, tmp...)
	buf = append(buf, rdata...)
	return buf
}

func TestParseAnswer_ARecord(t *testing.T) {
	rdata := []byte{93, 184, 216, 34}
	buf := buildAnswerBytes(t, "example.com", uint16(protocol.RecordTypeA), uint16(protocol.ClassIN), 300, rdata)

	answer, newOffset, err := ParseAnswer(buf, 0)
	if err != nil {
		t.Fatalf("ParseAnswer error: %v", err)
	}
	if answer.NAME != "example.com" {
		t.Errorf("NAME = %q, want %q", answer.NAME, "example.com")
	}
	if answer.TTL != 300 {
		t.Errorf("TTL = %d, want 300", answer.TTL)
	}
	if answer.RDLENGTH != 4 || string(answer.RDATA) != string(rdata) {
		t.Errorf("RDATA = %v, want %v", answer.RDATA, rdata)
	}
	if newOffset != len(buf) {
		t.Errorf("newOffset = %d, want %d", newOffset, len(buf))
	}
}

func TestParseAnswer_TruncatedRDATA(t *testing.T) {
	buf := buildAnswerBytes(t, "example.com", uint16(protocol.RecordTypeA), uint16(protocol.ClassIN), 300, []byte{1, 2, 3, 4})
	truncated := buf[:len(buf)-2]
	if _, _, err := ParseAnswer(truncated, 0); err == nil {
		t.Errorf("ParseAnswer() with truncated RDATA = nil error, want error")
	}
}

func TestParseMessage_QueryReply(t *testing.T) {
	header := buildRawHeader(protocol.EncodeTxnID(0), protocol.Flags1Response, 0, 1, 1, 0, 0)

	qname, err := EncodeName("example.com")
	if err != nil {
		t.Fatalf("EncodeName error: %v", err)
	}
	buf := append([]byte{}, header...)
	buf = append(buf, qname...)
	tmp := make([]byte, 2)
	binary.BigEndian.PutUint16(tmp, uint16(protocol.RecordTypeA))
	buf = append(buf, tmp...)
	binary.BigEndian.PutUint16(tmp, uint16(protocol.ClassIN))
	buf = append(buf, tmp...)

	rdata := []byte{93, 184, 216, 34}
	answerBytes := buildAnswerBytes(t, "example.com", uint16(protocol.RecordTypeA), uint16(protocol.ClassIN), 300, rdata)
	// Use a compression pointer for the answer name, pointing at the question name (offset 12).
	pointerAnswer := append([]byte{protocol.CompressionMask, 0x0C}, answerBytes[len(qname):]...)
	buf = append(buf, pointerAnswer...)

	msg, err := ParseMessage(buf)
	if err != nil {
		t.Fatalf("ParseMessage error: %v", err)
	}
	if len(msg.Questions) != 1 || msg.Questions[0].QNAME != "example.com" {
		t.Fatalf("Questions = %+v", msg.Questions)
	}
	if len(msg.Answers) != 1 || msg.Answers[0].NAME != "example.com" {
		t.Fatalf("Answers = %+v", msg.Answers)
	}

	ip, err := ParseRDATA(msg.Answers[0].TYPE, msg.Answers[0].RDATA)
	if err != nil {
		t.Fatalf("ParseRDATA error: %v", err)
	}
	if !ip.Equal(net.IPv4(93, 184, 216, 34)) {
		t.Errorf("ParseRDATA() = %v, want 93.184.216.34", ip)
	}
}

func TestParseRDATA_AAAA(t *testing.T) {
	rdata := net.ParseIP("fe80::1").To16()
	ip, err := ParseRDATA(uint16(protocol.RecordTypeAAAA), rdata)
	if err != nil {
		t.Fatalf("ParseRDATA error: %v", err)
	}
	if !ip.Equal(net.ParseIP("fe80::1")) {
		t.Errorf("ParseRDATA() = %v, want fe80::1", ip)
	}
}

func TestParseRDATA_WrongLength(t *testing.T) {
	if _, err := ParseRDATA(uint16(protocol.RecordTypeA), []byte{1, 2, 3}); err == nil {
		t.Errorf("ParseRDATA(A, 3 bytes) = nil error, want error")
	}
}

func TestParseRDATA_UnsupportedType(t *testing.T) {
	if _, err := ParseRDATA(12, []byte{1, 2, 3, 4}); err == nil {
		t.Errorf("ParseRDATA(PTR) = nil error, want error")
	}
}
