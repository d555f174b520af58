// Package cpu implements rv32spin's RV32I+Zicsr hart: general-purpose
// registers, the CSR file, the instruction decoder and executor, and the
// fetch-decode-execute-trap tick.
//
// Grounded on original_source/red-planet-core/src/{registers,core}.rs.
package cpu

import "rv32spin/alloc"

// numRegisters is the number of x registers, x0 through x31.
const numRegisters = 32

// Registers holds the 32 general-purpose x registers plus pc, stored as a
// single alloc.Cell so a Step/Checkout touches at most one refcounted node
// for the whole register file, matching the teacher's preference for a
// handful of coarse-grained Cells over one per register.
//
// Grounded on original_source/red-planet-core/src/registers.rs: x0 always
// reads zero and ignores writes.
type Registers struct {
	x  [numRegisters]uint32
	pc uint32
}

// RegSpecifier is a 5-bit x register index (0..=31).
type RegSpecifier uint8

// X0 names the always-zero register.
const X0 RegSpecifier = 0

// NewRegisterFile inserts a zeroed register file with pc set to initialPC.
func NewRegisterFile(a *alloc.Arena, initialPC uint32) alloc.CellID[Registers] {
	return alloc.Insert(a, Registers{pc: initialPC})
}

// X returns the value of register specifier.
func (r *Registers) X(specifier RegSpecifier) uint32 {
	return r.x[specifier]
}

// SetX sets register specifier's value, ignoring writes to X0.
func (r *Registers) SetX(specifier RegSpecifier, value uint32) {
	if specifier == X0 {
		return
	}
	r.x[specifier] = value
}

// PC returns the program counter.
func (r *Registers) PC() uint32 { return r.pc }

// SetPC sets the program counter.
func (r *Registers) SetPC(value uint32) { r.pc = value }
