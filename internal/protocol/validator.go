package protocol

import (
	"fmt"
	"strings"

	"github.com/dak664/nanoresolv/internal/errors"
)

// ValidateName validates a canonical DNS name per RFC 1035 §3.1: total wire
// length at most MaxNameLength, each label at most MaxLabelLength, no empty
// labels, and only the character set this resolver accepts.
func ValidateName(name string) error {
	if name == "" {
		return &errors.ValidationError{
			Field:   "name",
			Value:   name,
			Message: "name cannot be empty",
		}
	}

	name = strings.TrimSuffix(name, ".")
	labels := strings.Split(name, ".")

	wireLength := 1 // terminator
	for _, label := range labels {
		wireLength += 1 + len(label)
	}
	if wireLength > MaxNameLength {
		return &errors.ValidationError{
			Field:   "name",
			Value:   name,
			Message: fmt.Sprintf("name exceeds maximum wire length %d bytes (encoded: %d bytes)", MaxNameLength, wireLength),
		}
	}

	for i, label := range labels {
		if err := validateLabel(label, i); err != nil {
			return &errors.ValidationError{
				Field:   "name",
				Value:   name,
				Message: err.Error(),
			}
		}
	}

	return nil
}

// validateLabel validates a single DNS label per RFC 1035 §3.1.
func validateLabel(label string, position int) error {
	if label == "" {
		return fmt.Errorf("empty label at position %d (consecutive dots)", position)
	}
	if len(label) > MaxLabelLength {
		return fmt.Errorf("label %q exceeds maximum length %d bytes", label, MaxLabelLength)
	}
	if strings.HasPrefix(label, "-") {
		return fmt.Errorf("label %q starts with hyphen", label)
	}
	if strings.HasSuffix(label, "-") {
		return fmt.Errorf("label %q ends with hyphen", label)
	}
	for i, ch := range label {
		if !isValidDNSChar(ch) {
			return fmt.Errorf("invalid character %q in label %q (position %d)", ch, label, i)
		}
	}
	return nil
}

// isValidDNSChar reports whether ch is a valid DNS label character:
// [a-zA-Z0-9-_], underscore tolerated even though this core has no
// service-record support of its own.
func isValidDNSChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '-' ||
		ch == '_'
}

// ValidateRecordType returns a ValidationError if recordType is not one
// this resolver core queries for or answers with (A, AAAA, ANY).
func ValidateRecordType(recordType uint16) error {
	if !RecordType(recordType).IsSupported() {
		return &errors.ValidationError{
			Field:   "recordType",
			Value:   recordType,
			Message: fmt.Sprintf("unsupported record type %d (this resolver handles A=1, AAAA=28, ANY=255)", recordType),
		}
	}
	return nil
}

// IsResponse reports whether flags1 marks the message as a reply.
func IsResponse(flags1 uint8) bool {
	return flags1&Flags1Response != 0
}

// IsQuestion reports whether a received header is the all-zero-flags shape
// the core treats as an incoming question to hand to the mDNS responder,
// per §4.4.
func IsQuestion(flags1, flags2 uint8) bool {
	return flags1 == 0 && flags2 == 0
}

// ValidateResponse checks the flag byte of an inbound message the core is
// about to treat as a reply to one of its own queries: the response bit
// must be set. A nonzero rcode is a valid, if unsuccessful, answer and is
// handled by the caller, not rejected here.
func ValidateResponse(flags1 uint8) error {
	if !IsResponse(flags1) {
		return &errors.ValidationError{
			Field:   "flags1",
			Value:   flags1,
			Message: fmt.Sprintf("response bit not set (flags1: 0x%02X)", flags1),
		}
	}
	return nil
}
