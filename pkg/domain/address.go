// Package domain holds the identity types shared across packages. Keeping
// them here avoids import cycles between stores, services, and transport.
package domain

import (
	"fmt"
	"strings"
)

// Address identifies an account on the ledger. It is a 20-byte value in the
// usual 0x-prefixed hex form, normalized to lower case.
type Address string

// ZeroAddress is the null identity. It is never a valid mint receiver or
// authorization target.
const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

const addressHexLen = 40

// ParseAddress validates and normalizes a 0x-prefixed hex address.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "", fmt.Errorf("address %q missing 0x prefix", s)
	}
	hexPart := s[2:]
	if len(hexPart) != addressHexLen {
		return "", fmt.Errorf("address %q has %d hex chars, want %d", s, len(hexPart), addressHexLen)
	}
	for _, c := range hexPart {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return "", fmt.Errorf("address %q contains non-hex character %q", s, c)
		}
	}
	return Address("0x" + strings.ToLower(hexPart)), nil
}

// IsZero reports whether the address is unset or the null identity.
func (a Address) IsZero() bool {
	return a == "" || a == ZeroAddress
}

func (a Address) String() string {
	return string(a)
}
