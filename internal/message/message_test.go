package message

import "testing"

func TestHeader_IsResponse(t *testing.T) {
	h := &Header{Flags1: 0x80}
	if !h.IsResponse() {
		t.Errorf("IsResponse() = false, want true for flags1=0x80")
	}
	h2 := &Header{Flags1: 0x00}
	if h2.IsResponse() {
		t.Errorf("IsResponse() = true, want false for flags1=0x00")
	}
}

func TestHeader_IsQuestion(t *testing.T) {
	h := &Header{Flags1: 0, Flags2: 0}
	if !h.IsQuestion() {
		t.Errorf("IsQuestion() = false, want true for all-zero flags")
	}
	h2 := &Header{Flags1: 0x80, Flags2: 0}
	if h2.IsQuestion() {
		t.Errorf("IsQuestion() = true, want false once flags1 is nonzero")
	}
}

func TestHeader_RCode(t *testing.T) {
	h := &Header{Flags2: 0x03}
	if got := h.RCode(); got != 3 {
		t.Errorf("RCode() = %d, want 3", got)
	}
}
