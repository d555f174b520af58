// Package bus implements rv32spin's system bus: a TileLink-inspired
// crossbar that routes (address, size) accesses to whicheve device's
// non-overlapping physical address range contains them, refusing accesses
// that straddle two devices or land in unmapped space.
//
// Grounded on original_source/red-planet-core/src/{bus,system_bus}.rs:
// the Device interface here is the Rust Bus<A>/Slave<A> trait pair
// collapsed into one (rv32spin has no need for a separate attach-time
// identity check, so AnyEq/PartialEq-for-dyn-Slave is dropped), and Bus
// itself is system_bus.rs's SystemBus, adapted from a RangeInclusiveMap
// (no equivalent third-party range-map crate appears anywhere in the
// retrieval pack) to a sorted, non-overlapping slice searched with
// sort.Search — the same "binary-search a flat slice of regions" idiom
// the teacher uses for its cartridge memory maps
// (hardware/memory/cartridge/arm/memory_access.go's MapAddress).
package bus

import "rv32spin/alloc"

// Device is what a component attaches to a Bus to receive the accesses
// that land in its mapped range. addr is already translated into the
// device's own base-relative address space.
type Device interface {
	// Read performs a (possibly effectful) read of len(buf) bytes at addr,
	// serialized little-endian, into buf.
	Read(buf []byte, a *alloc.Arena, addr uint32)

	// ReadPure performs a side-effect-free read, or returns an error if
	// this device cannot service addr without side effects.
	ReadPure(buf []byte, a *alloc.Arena, addr uint32) error

	// Write writes len(buf) little-endian bytes from buf to addr.
	Write(a *alloc.Arena, addr uint32, buf []byte)
}

// Range is an inclusive [Start, End] span of 32-bit addresses.
type Range struct {
	Start uint32
	End   uint32 // inclusive
}

// Len returns the number of addresses covered by r.
func (r Range) Len() uint64 {
	return uint64(r.End) - uint64(r.Start) + 1
}

func (r Range) contains(addr uint32) bool {
	return addr >= r.Start && addr <= r.End
}

// Mapping binds a source range on the bus to a target range inside the
// attached device's own address space. The two ranges must be the same
// size.
type Mapping struct {
	Source Range
	Target Range
}
