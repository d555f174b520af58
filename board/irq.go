// Package board assembles rv32spin's SiFive FE310-G002-class board: a
// bus, mask-ROM reset trampoline, RAM, ROM, UART, CLINT, and PLIC, wired
// together the way original_source/red-planet-core/src/board/mod.rs wires
// its own resources, adapted from the teacher's hardware.NewVCS
// construction idiom (hardware/vcs.go).
package board

import "rv32spin/alloc"

// IRQLine is the capability a device uses to assert or deassert one
// interrupt input on the core, without needing to know anything about the
// core itself. Concrete IRQLines close over a CellID naming the bit they
// flip (an mip bit, or a PLIC pending bit), never over a live pointer to
// the core or another device, so they survive a Simulator Checkout
// unchanged — the spec's "weak reference" is simply "holds an id, not a
// pointer" here, since there is no ownership cycle for a Go GC to worry
// about in the first place.
type IRQLine interface {
	Raise(a *alloc.Arena)
	Lower(a *alloc.Arena)
}

// mipBitLine raises/lowers one bit of mip directly (NewBoard uses it for
// the CLINT's machine timer line and the PLIC's machine external line).
type mipBitLine struct {
	mip alloc.CellID[uint32]
	bit uint32
}

func newMIPBitLine(mip alloc.CellID[uint32], bit uint32) IRQLine {
	return mipBitLine{mip: mip, bit: bit}
}

func (l mipBitLine) Raise(a *alloc.Arena) {
	p, err := alloc.GetMut(a, l.mip)
	if err != nil {
		return
	}
	*p |= 1 << l.bit
}

func (l mipBitLine) Lower(a *alloc.Arena) {
	p, err := alloc.GetMut(a, l.mip)
	if err != nil {
		return
	}
	*p &^= 1 << l.bit
}

// noopLine discards raises/lowers; used where a device is wired without a
// hart to receive its interrupt (standalone device tests).
type noopLine struct{}

func (noopLine) Raise(*alloc.Arena) {}
func (noopLine) Lower(*alloc.Arena) {}
