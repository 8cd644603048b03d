package message

import (
	"strings"
	"testing"
)

func TestEncodeName_Simple(t *testing.T) {
	encoded, err := EncodeName("printer.local")
	if err != nil {
		t.Fatalf("EncodeName(%q) error: %v", "printer.local", err)
	}
	want := []byte{7, 'p', 'r', 'i', 'n', 't', 'e', 'r', 5, 'l', 'o', 'c', 'a', 'l', 0}
	if string(encoded) != string(want) {
		t.Errorf("EncodeName(%q) = %v, want %v", "printer.local", encoded, want)
	}
}

func TestEncodeName_Root(t *testing.T) {
	for _, name := range []string{"", "."} {
		encoded, err := EncodeName(name)
		if err != nil {
			t.Fatalf("EncodeName(%q) error: %v", name, err)
		}
		if len(encoded) != 1 || encoded[0] != 0 {
			t.Errorf("EncodeName(%q) = %v, want [0]", name, encoded)
		}
	}
}

func TestEncodeName_RejectsOversizedLabel(t *testing.T) {
	label := strings.Repeat("a", 64)
	if _, err := EncodeName(label + ".local"); err == nil {
		t.Errorf("EncodeName with a 64-byte label = nil error, want error")
	}
}

func TestEncodeName_RejectsOversizedName(t *testing.T) {
	// Each label is 63 bytes; five of them plus separators exceeds 255 wire bytes.
	label := strings.Repeat("a", 63)
	name := strings.Join([]string{label, label, label, label, label}, ".")
	if _, err := EncodeName(name); err == nil {
		t.Errorf("EncodeName with an oversized name = nil error, want error")
	}
}

func TestEncodeName_RejectsEmptyLabel(t *testing.T) {
	if _, err := EncodeName("foo..local"); err == nil {
		t.Errorf("EncodeName(%q) = nil error, want error for consecutive dots", "foo..local")
	}
}

func TestEncodeName_RejectsBadHyphenPlacement(t *testing.T) {
	for _, name := range []string{"-foo.local", "foo-.local"} {
		if _, err := EncodeName(name); err == nil {
			t.Errorf("EncodeName(%q) = nil error, want error", name)
		}
	}
}

func TestParseName_RoundTrip(t *testing.T) {
	encoded, err := EncodeName("printer.local")
	if err != nil {
		t.Fatalf("EncodeName error: %v", err)
	}
	name, newOffset, err := ParseName(encoded, 0)
	if err != nil {
		t.Fatalf("ParseName error: %v", err)
	}
	if name != "printer.local" {
		t.Errorf("ParseName() name = %q, want %q", name, "printer.local")
	}
	if newOffset != len(encoded) {
		t.Errorf("ParseName() newOffset = %d, want %d", newOffset, len(encoded))
	}
}

func TestParseName_DoesNotMutateBuffer(t *testing.T) {
	encoded, err := EncodeName("example.com")
	if err != nil {
		t.Fatalf("EncodeName error: %v", err)
	}
	original := append([]byte(nil), encoded...)

	if _, _, err := ParseName(encoded, 0); err != nil {
		t.Fatalf("ParseName error: %v", err)
	}

	if string(encoded) != string(original) {
		t.Errorf("ParseName mutated its input buffer: got %v, want %v", encoded, original)
	}
}

func TestParseName_CompressionPointer(t *testing.T) {
	// Build a message with "example.com" at offset 12, then a pointer back to it.
	buf := make([]byte, 12)
	encodedName, err := EncodeName("example.com")
	if err != nil {
		t.Fatalf("EncodeName error: %v", err)
	}
	buf = append(buf, encodedName...)

	pointerOffset := len(buf)
	buf = append(buf, 0xC0, 0x0C) // pointer to offset 12

	name, newOffset, err := ParseName(buf, pointerOffset)
	if err != nil {
		t.Fatalf("ParseName error: %v", err)
	}
	if name != "example.com" {
		t.Errorf("ParseName() via pointer = %q, want %q", name, "example.com")
	}
	if newOffset != pointerOffset+2 {
		t.Errorf("ParseName() newOffset = %d, want %d", newOffset, pointerOffset+2)
	}
}

func TestParseName_RejectsForwardPointer(t *testing.T) {
	buf := []byte{0xC0, 0x05, 0, 0, 0, 0}
	if _, _, err := ParseName(buf, 0); err == nil {
		t.Errorf("ParseName() with a forward-pointing pointer = nil error, want error")
	}
}

func TestParseName_RejectsTruncatedLabel(t *testing.T) {
	buf := []byte{5, 'a', 'b'} // claims a 5-byte label but only 2 bytes follow
	if _, _, err := ParseName(buf, 0); err == nil {
		t.Errorf("ParseName() with a truncated label = nil error, want error")
	}
}

func TestParseName_RejectsOutOfBoundsOffset(t *testing.T) {
	if _, _, err := ParseName([]byte{0}, 5); err == nil {
		t.Errorf("ParseName() with out-of-bounds offset = nil error, want error")
	}
}
