package cpu

import "encoding/binary"

// Endianness selects the byte order a data access uses. Instruction
// fetches are always little-endian (spec.md §4.5); data accesses take
// their endianness from the current privilege mode's status bit
// (MBE/SBE/UBE), per ModeEndianness below.
//
// Grounded on spec.md's "Endianness type parameter" redesign note:
// the original models this as a const generic; here it is a small enum
// threaded through the MMU's call sites instead.
type Endianness uint8

const (
	LittleEndian Endianness = iota
	BigEndian
)

// ByteOrder returns the encoding/binary.ByteOrder matching e.
func (e Endianness) ByteOrder() binary.ByteOrder {
	if e == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// ModeEndianness resolves the Endianness data accesses use while running
// at the given privilege level, from mstatus.MBE, mstatush.SBE and
// mstatus.UBE.
func ModeEndianness(mode Privilege, mbe, sbe, ube bool) Endianness {
	var big bool
	switch mode {
	case Machine:
		big = mbe
	case Supervisor:
		big = sbe
	default:
		big = ube
	}
	if big {
		return BigEndian
	}
	return LittleEndian
}
