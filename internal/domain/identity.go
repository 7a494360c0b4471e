package domain

import (
	"fmt"
	"strings"
)

// Address identifies a participant: a rater, a rated subject, or a viewer.
// The zero value is the null identity and is never a valid participant.
type Address string

// ZeroAddress is the null identity. Wallet layers that encode addresses as
// zero-padded hex map their zero address onto it before calling the core.
const ZeroAddress Address = ""

// IsZero reports whether the address is the null identity.
func (a Address) IsZero() bool {
	if a == ZeroAddress {
		return true
	}
	trimmed := strings.TrimPrefix(string(a), "0x")
	if trimmed == "" {
		return false
	}
	for _, r := range trimmed {
		if r != '0' {
			return false
		}
	}
	return strings.HasPrefix(string(a), "0x")
}

func (a Address) String() string { return string(a) }

// ParseAddress normalizes a caller-supplied identity string.
func ParseAddress(raw string) (Address, error) {
	addr := Address(strings.TrimSpace(raw))
	if addr.IsZero() {
		return ZeroAddress, fmt.Errorf("null address")
	}
	return addr, nil
}
