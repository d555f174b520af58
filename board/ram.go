package board

import "rv32spin/alloc"

// RAM is the board's DTIM/DRAM region: a copy-on-write byte array, so an
// UndoStep that crosses a write is as cheap as any other step. Grounded
// on original_source/red-planet-core/src/resources/ram.rs, backed by
// alloc.ArrayId[uint8] instead of a bespoke COW vector.
type RAM struct {
	bytes alloc.ArrayID[byte]
	size  uint64
}

// NewRAM inserts a zero-filled RAM region of size bytes.
func NewRAM(a *alloc.Arena, size uint64) *RAM {
	return &RAM{bytes: alloc.InsertArray[byte](a, 0, size), size: size}
}

// Size returns the RAM's capacity in bytes.
func (r *RAM) Size() uint64 { return r.size }

// Read copies len(buf) bytes starting at addr. Out-of-range accesses
// leave buf untouched, matching the bus's straddle/unmapped no-op
// contract (Accepts is checked before this is ever called in practice).
func (r *RAM) Read(buf []byte, a *alloc.Arena, addr uint32) {
	_ = alloc.ArrayRead(a, r.bytes, uint64(addr), buf)
}

// ReadPure is identical to Read: RAM reads never have side effects.
func (r *RAM) ReadPure(buf []byte, a *alloc.Arena, addr uint32) error {
	return alloc.ArrayRead(a, r.bytes, uint64(addr), buf)
}

// Write copies buf into RAM starting at addr.
func (r *RAM) Write(a *alloc.Arena, addr uint32, buf []byte) {
	_ = alloc.ArrayWrite(a, r.bytes, uint64(addr), buf)
}

// Reset zeroes every byte of RAM in O(depth) rather than O(size).
func (r *RAM) Reset(a *alloc.Arena) {
	_ = alloc.ArrayReset(a, r.bytes)
}
