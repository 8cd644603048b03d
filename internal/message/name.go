// Package message implements DNS name encoding and compression per RFC 1035 §4.1.4.
package message

import (
	"fmt"
	"strings"

	"github.com/dak664/nanoresolv/internal/errors"
	"github.com/dak664/nanoresolv/internal/protocol"
)

// ParseName decodes a DNS name starting at offset in msg, following
// compression pointers (RFC 1035 §4.1.4) as needed, and returns the
// dotted-string name plus the offset immediately past the name's own
// wire bytes (not past any pointer it jumped through).
//
// The original source decodes in place: it rewrites each label's length
// byte to a dot directly in the packet buffer it was handed, so the
// caller's buffer comes back mutated into a C string. ParseName instead
// treats msg as read-only end to end - it never writes to msg, only
// reads label bytes out of it into a strings.Builder - so a caller
// holding a reference to the original packet (for logging, replay, or a
// second parse pass) never observes it changing underneath them. See
// DESIGN.md for why this is a deliberate deviation, not an oversight.
//
// A walk caps at protocol.MaxCompressionPointers jumps to reject
// pointer loops.
func ParseName(msg []byte, offset int) (name string, newOffset int, err error) {
	if offset < 0 || offset >= len(msg) {
		return "", offset, &errors.WireFormatError{
			Operation: "parse name",
			Offset:    offset,
			Message:   "offset out of bounds",
		}
	}

	var out strings.Builder
	cursor := offset
	wireEnd := -1 // set once, on the first pointer jump or the terminator
	pointerJumps := 0
	labelCount := 0

	for {
		if cursor >= len(msg) {
			return "", offset, &errors.WireFormatError{
				Operation: "parse name",
				Offset:    cursor,
				Message:   "unexpected end of message while parsing name",
			}
		}

		labelLen := msg[cursor]

		if labelLen&protocol.CompressionMask == protocol.CompressionMask {
			if cursor+1 >= len(msg) {
				return "", offset, &errors.WireFormatError{
					Operation: "parse name",
					Offset:    cursor,
					Message:   "truncated compression pointer",
				}
			}

			target := int(msg[cursor]&^protocol.CompressionMask)<<8 | int(msg[cursor+1])
			if target >= cursor {
				return "", offset, &errors.WireFormatError{
					Operation: "parse name",
					Offset:    cursor,
					Message:   fmt.Sprintf("invalid compression pointer: points to offset %d (current position %d)", target, cursor),
				}
			}

			if wireEnd < 0 {
				wireEnd = cursor + 2
			}

			pointerJumps++
			if pointerJumps > protocol.MaxCompressionPointers {
				return "", offset, &errors.WireFormatError{
					Operation: "parse name",
					Offset:    cursor,
					Message:   fmt.Sprintf("too many compression jumps (possible loop, exceeded %d jumps)", protocol.MaxCompressionPointers),
				}
			}

			cursor = target
			continue
		}

		if labelLen == 0 {
			if wireEnd < 0 {
				wireEnd = cursor + 1
			}
			break
		}

		if labelLen > protocol.MaxLabelLength {
			return "", offset, &errors.WireFormatError{
				Operation: "parse name",
				Offset:    cursor,
				Message:   fmt.Sprintf("label length %d exceeds maximum %d bytes per RFC 1035 §3.1", labelLen, protocol.MaxLabelLength),
			}
		}

		labelStart := cursor + 1
		labelEnd := labelStart + int(labelLen)
		if labelEnd > len(msg) {
			return "", offset, &errors.WireFormatError{
				Operation: "parse name",
				Offset:    cursor,
				Message:   fmt.Sprintf("truncated label: expected %d bytes, only %d available", labelLen, len(msg)-labelStart),
			}
		}

		if labelCount > 0 {
			out.WriteByte('.')
		}
		out.Write(msg[labelStart:labelEnd])
		labelCount++

		cursor = labelEnd
	}

	name = out.String()
	if len(name) > protocol.MaxNameLength {
		return "", offset, &errors.WireFormatError{
			Operation: "parse name",
			Offset:    offset,
			Message:   fmt.Sprintf("name length %d exceeds maximum %d bytes per RFC 1035 §3.1", len(name), protocol.MaxNameLength),
		}
	}

	return name, wireEnd, nil
}

// EncodeName encodes a dotted host name into wire format: each label
// prefixed by its length byte, terminated by a zero-length label. Rejects
// any label over protocol.MaxLabelLength bytes and any name whose encoded
// form exceeds protocol.MaxNameLength bytes -- a guard the original source
// omitted (see SPEC_FULL.md).
func EncodeName(name string) ([]byte, error) {
	if name == "" || name == "." {
		return []byte{0}, nil
	}

	parts := strings.Split(strings.TrimSuffix(name, "."), ".")

	encoded := make([]byte, 0, protocol.MaxNameLength)
	for _, part := range parts {
		if err := validateLabel(name, part); err != nil {
			return nil, err
		}
		encoded = append(encoded, byte(len(part)))
		encoded = append(encoded, part...)
	}
	encoded = append(encoded, 0)

	if len(encoded) > protocol.MaxNameLength {
		return nil, &errors.ValidationError{
			Field:   "name",
			Value:   name,
			Message: fmt.Sprintf("encoded name length %d exceeds maximum %d bytes per RFC 1035 §3.1", len(encoded), protocol.MaxNameLength),
		}
	}

	return encoded, nil
}

// validateLabel checks one dot-separated component of name against RFC
// 1035 §3.1's label rules (non-empty, length-bounded, letter/digit/
// hyphen/underscore alphabet, no leading or trailing hyphen). fullName
// is only used to annotate the returned error.
func validateLabel(fullName, label string) error {
	if len(label) == 0 {
		return &errors.ValidationError{
			Field:   "name",
			Value:   fullName,
			Message: "empty label (consecutive dots)",
		}
	}
	if len(label) > protocol.MaxLabelLength {
		return &errors.ValidationError{
			Field:   "name",
			Value:   fullName,
			Message: fmt.Sprintf("label %q exceeds maximum length %d bytes per RFC 1035 §3.1", label, protocol.MaxLabelLength),
		}
	}

	for i, ch := range label {
		valid := (ch >= 'a' && ch <= 'z') ||
			(ch >= 'A' && ch <= 'Z') ||
			(ch >= '0' && ch <= '9') ||
			ch == '-' ||
			ch == '_' // underscore allowed for service-style labels (e.g. "_http._tcp")

		if !valid {
			return &errors.ValidationError{
				Field:   "name",
				Value:   fullName,
				Message: fmt.Sprintf("invalid character %q in label %q (position %d)", ch, label, i),
			}
		}
		if ch == '-' && (i == 0 || i == len(label)-1) {
			return &errors.ValidationError{
				Field:   "name",
				Value:   fullName,
				Message: fmt.Sprintf("hyphen cannot be first or last character in label %q", label),
			}
		}
	}

	return nil
}
