package domain

import "testing"

func TestAddressIsZero(t *testing.T) {
	tests := []struct {
		addr Address
		zero bool
	}{
		{"", true},
		{"0x0000000000000000000000000000000000000000", true},
		{"0x00", true},
		{"0x", false},
		{"alice", false},
		{"0xabc0", false},
		{"000", false},
	}
	for _, tt := range tests {
		if got := tt.addr.IsZero(); got != tt.zero {
			t.Fatalf("IsZero(%q) = %v, want %v", tt.addr, got, tt.zero)
		}
	}
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("  alice ")
	if err != nil {
		t.Fatalf("ParseAddress: %v", err)
	}
	if addr != "alice" {
		t.Fatalf("ParseAddress = %q, want alice", addr)
	}

	if _, err := ParseAddress(""); err == nil {
		t.Fatalf("expected error for empty address")
	}
	if _, err := ParseAddress("0x0000"); err == nil {
		t.Fatalf("expected error for zero hex address")
	}
}
