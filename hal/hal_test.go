package hal

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/ardnew/softnic/pkg"
)

// =============================================================================
// MACAddress Tests
// =============================================================================

func TestParseMACAddress(t *testing.T) {
	tests := []struct {
		in      string
		want    MACAddress
		wantErr bool
	}{
		{"b8:27:eb:01:02:03", MACAddress{0xb8, 0x27, 0xeb, 0x01, 0x02, 0x03}, false},
		{"B8-27-EB-01-02-03", MACAddress{0xb8, 0x27, 0xeb, 0x01, 0x02, 0x03}, false},
		{"0000.5e00.5301", MACAddress{0x00, 0x00, 0x5e, 0x00, 0x53, 0x01}, false},
		{"00:00:00:00:fe:80:00:00", MACAddress{}, true},
		{"not a mac", MACAddress{}, true},
		{"", MACAddress{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMACAddress(tt.in)
			if tt.wantErr {
				if !errors.Is(err, pkg.ErrInvalidParameter) {
					t.Errorf("ParseMACAddress(%q) error = %v, want ErrInvalidParameter", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMACAddress(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseMACAddress(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMACAddress_String(t *testing.T) {
	m := MACAddress{0x02, 0x00, 0x5e, 0x10, 0xab, 0xff}
	if got, want := m.String(), "02:00:5e:10:ab:ff"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestMACAddress_IsZero(t *testing.T) {
	if !(MACAddress{}).IsZero() {
		t.Error("zero address IsZero() = false")
	}
	if (MACAddress{0, 0, 0, 0, 0, 1}).IsZero() {
		t.Error("non-zero address IsZero() = true")
	}
}

func TestMACAddress_MarshalTo(t *testing.T) {
	m := MACAddress{1, 2, 3, 4, 5, 6}
	buf := make([]byte, 8)
	if n := m.MarshalTo(buf); n != MACAddressSize {
		t.Errorf("MarshalTo() = %d, want %d", n, MACAddressSize)
	}
	if MACAddress(buf[:6]) != m {
		t.Errorf("MarshalTo() wrote %v, want %v", buf[:6], m)
	}
	if n := m.MarshalTo(make([]byte, 5)); n != 0 {
		t.Errorf("MarshalTo(short) = %d, want 0", n)
	}
}

// =============================================================================
// DMABuffer Tests
// =============================================================================

func TestAllocDMA(t *testing.T) {
	b, err := AllocDMA(DMAPageSize)
	if err != nil {
		t.Fatalf("AllocDMA() error = %v", err)
	}
	if b.Len() != DMAPageSize {
		t.Errorf("Len() = %d, want %d", b.Len(), DMAPageSize)
	}
	if addr := uintptr(unsafe.Pointer(&b.Bytes()[0])); addr%DMAPageSize != 0 {
		t.Errorf("buffer at %#x not page aligned", addr)
	}

	b.Bytes()[0] = 0xAA
	b.Bytes()[DMAPageSize-1] = 0x55

	if err := b.Free(); err != nil {
		t.Errorf("Free() error = %v", err)
	}
	if err := b.Free(); err != nil {
		t.Errorf("second Free() error = %v", err)
	}
	if b.Bytes() != nil {
		t.Error("Bytes() after Free is not nil")
	}
}

func TestAllocDMA_InvalidSize(t *testing.T) {
	if _, err := AllocDMA(0); !errors.Is(err, pkg.ErrInvalidParameter) {
		t.Errorf("AllocDMA(0) error = %v, want ErrInvalidParameter", err)
	}
}

func TestNewDMABuffer_FreeOnce(t *testing.T) {
	calls := 0
	b := NewDMABuffer(make([]byte, 16), func([]byte) error {
		calls++
		return nil
	})
	b.Free()
	b.Free()
	if calls != 1 {
		t.Errorf("free called %d times, want 1", calls)
	}
}
