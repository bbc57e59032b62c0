package memory

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

type AddressMode byte

const (
	Physical AddressMode = iota
	Virtual
)

var ErrAddressOverflow = errors.New("address range overflows address space")

func (m AddressMode) String() string {
	switch m {
	case Physical:
		return "phy"
	case Virtual:
		return "vir"
	}
	return fmt.Sprintf("mode(%d)", byte(m))
}

func ParseAddressMode(value string) (AddressMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "phy", "physical", "p":
		return Physical, nil
	case "vir", "virtual", "v":
		return Virtual, nil
	}
	return 0, fmt.Errorf("Invalid address mode: %s (expected phy or vir)", value)
}

// SparseMap maps absolute addresses to the bytes a backend could resolve.
// A missing key means the byte is unknown, not that the read failed.
type SparseMap map[uint64]byte

func NewSparseMap() SparseMap {
	return make(SparseMap)
}

func (m SparseMap) Get(addr uint64) (byte, bool) {
	b, ok := m[addr]
	return b, ok
}

func (m SparseMap) Set(addr uint64, b byte) {
	m[addr] = b
}

// SetRange stores data starting at addr.
func (m SparseMap) SetRange(addr uint64, data []byte) {
	for i, b := range data {
		m[addr+uint64(i)] = b
	}
}

func (m SparseMap) Len() int {
	return len(m)
}

func (m SparseMap) Merge(other SparseMap) {
	for addr, b := range other {
		m[addr] = b
	}
}

// CheckRange reports ErrAddressOverflow when [addr, addr+size) does not fit
// in 64 bits.
func CheckRange(addr, size uint64) error {
	if size > math.MaxUint64-addr {
		return fmt.Errorf("%w: 0x%x + 0x%x", ErrAddressOverflow, addr, size)
	}
	return nil
}
