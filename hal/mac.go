package hal

import (
	"fmt"
	"net"

	"github.com/ardnew/softnic/pkg"
)

// MACAddressSize is the size of an Ethernet hardware address in bytes.
const MACAddressSize = 6

// MACAddress is an Ethernet hardware address.
type MACAddress [MACAddressSize]byte

// ParseMACAddress parses s as a 6-byte hardware address in one of the
// forms accepted by [net.ParseMAC].
func ParseMACAddress(s string) (MACAddress, error) {
	var m MACAddress
	hw, err := net.ParseMAC(s)
	if err != nil {
		return m, fmt.Errorf("parse MAC %q: %w", s, pkg.ErrInvalidParameter)
	}
	if len(hw) != MACAddressSize {
		return m, fmt.Errorf("parse MAC %q: %d bytes: %w", s, len(hw), pkg.ErrInvalidParameter)
	}
	copy(m[:], hw)
	return m, nil
}

// String returns the address in colon-separated hexadecimal form.
func (m MACAddress) String() string {
	return net.HardwareAddr(m[:]).String()
}

// IsZero reports whether every byte of the address is zero.
func (m MACAddress) IsZero() bool {
	return m == MACAddress{}
}

// MarshalTo writes the address to buf.
// Returns the number of bytes written (6), or 0 if buf is too small.
func (m MACAddress) MarshalTo(buf []byte) int {
	if len(buf) < MACAddressSize {
		return 0
	}
	return copy(buf, m[:])
}
