package board

import "rv32spin/alloc"

// ROM is an immutable-after-construction byte array: program/firmware
// flash, or the mask-ROM reset trampoline. Reads past the supplied image
// but still inside the declared size return zero. Writes are ignored.
//
// Grounded on original_source/red-planet-core/src/resources/rom.rs; the
// teacher's cartridge images (hardware/memory/cartridge.go) are the same
// "fixed byte array, writes ignored" shape applied to a different bus.
type ROM struct {
	bytes alloc.ArrayID[byte]
	size  uint64
}

// NewROM inserts a ROM region of size bytes, pre-filled with image
// (truncated or zero-padded to size).
func NewROM(a *alloc.Arena, image []byte, size uint64) *ROM {
	rom := &ROM{bytes: alloc.InsertArray[byte](a, 0, size), size: size}
	n := uint64(len(image))
	if n > size {
		n = size
	}
	if n > 0 {
		_ = alloc.ArrayWrite(a, rom.bytes, 0, image[:n])
	}
	return rom
}

// Size returns the ROM's capacity in bytes.
func (r *ROM) Size() uint64 { return r.size }

// Read copies len(buf) bytes starting at addr.
func (r *ROM) Read(buf []byte, a *alloc.Arena, addr uint32) {
	_ = alloc.ArrayRead(a, r.bytes, uint64(addr), buf)
}

// ReadPure is identical to Read: ROM reads never have side effects.
func (r *ROM) ReadPure(buf []byte, a *alloc.Arena, addr uint32) error {
	return alloc.ArrayRead(a, r.bytes, uint64(addr), buf)
}

// Write is a no-op: ROM contents never change after construction.
func (r *ROM) Write(a *alloc.Arena, addr uint32, buf []byte) {}
