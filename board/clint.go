package board

import (
	"encoding/binary"

	"rv32spin/alloc"
)

// CLINT register offsets. mtimecmp sits at offset 0, mtime at 0x7FF8,
// matching the SiFive CLINT (and ACLINT MTIMER) layout.
const (
	clintMtimecmpOffset = 0x0
	clintMtimeOffset    = 0x7FF8
)

type clintState struct {
	mtime    uint64
	mtimecmp uint64
}

// CLINT is the core-local interrupt controller: a free-running mtime
// counter and an mtimecmp compare register, raising the machine timer
// interrupt line whenever mtimecmp <= mtime.
//
// Grounded on original_source/red-planet-core/src/core/clint.rs. The
// source composes a 64-bit register from two 32-bit halves with `&`
// where the ACLINT spec (and any sane register model) calls for `|`; per
// the redesign note this implements OR-composition instead (see
// setLower/setUpper).
type CLINT struct {
	state alloc.CellID[clintState]
	mtip  IRQLine
}

// NewCLINT inserts a CLINT in its reset state (mtime=0, mtimecmp=0),
// wired to raise/lower mtip on the given line.
func NewCLINT(a *alloc.Arena, mtip IRQLine) *CLINT {
	return &CLINT{state: alloc.Insert(a, clintState{}), mtip: mtip}
}

// MTime reads the free-running timer register, e.g. for a cpu.TimeSource
// wired up after the board (and therefore this CLINT) is assembled.
func (c *CLINT) MTime(a *alloc.Arena) uint64 {
	s, err := alloc.Get(a, c.state)
	if err != nil {
		return 0
	}
	return s.mtime
}

// Tick increments mtime by one and re-evaluates the timer interrupt.
func (c *CLINT) Tick(a *alloc.Arena) {
	s, err := alloc.GetMut(a, c.state)
	if err != nil {
		return
	}
	s.mtime++
	c.updateIRQ(a, *s)
}

func (c *CLINT) updateIRQ(a *alloc.Arena, s clintState) {
	if s.mtimecmp <= s.mtime {
		c.mtip.Raise(a)
	} else {
		c.mtip.Lower(a)
	}
}

// setLower overwrites the low 32 bits of reg, composing with the existing
// upper half using OR as the ACLINT spec intends (not AND, which is what
// the reference implementation this was ported from actually did).
func setLower(reg uint64, lower uint32) uint64 {
	return (reg &^ 0xFFFFFFFF) | uint64(lower)
}

func setUpper(reg uint64, upper uint32) uint64 {
	return (reg & 0xFFFFFFFF) | (uint64(upper) << 32)
}

func (c *CLINT) readAligned(a *alloc.Arena, buf []byte, addr uint32) {
	s, err := alloc.Get(a, c.state)
	if err != nil {
		return
	}
	switch {
	case addr == clintMtimecmpOffset && len(buf) == 8:
		binary.LittleEndian.PutUint64(buf, s.mtimecmp)
	case addr == clintMtimecmpOffset && len(buf) == 4:
		binary.LittleEndian.PutUint32(buf, uint32(s.mtimecmp))
	case addr == clintMtimecmpOffset+4 && len(buf) == 4:
		binary.LittleEndian.PutUint32(buf, uint32(s.mtimecmp>>32))
	case addr == clintMtimeOffset && len(buf) == 8:
		binary.LittleEndian.PutUint64(buf, s.mtime)
	case addr == clintMtimeOffset && len(buf) == 4:
		binary.LittleEndian.PutUint32(buf, uint32(s.mtime))
	case addr == clintMtimeOffset+4 && len(buf) == 4:
		binary.LittleEndian.PutUint32(buf, uint32(s.mtime>>32))
	}
}

// Read performs a CLINT register read. Only naturally aligned 4- or
// 8-byte accesses at a known offset take effect; anything else leaves buf
// untouched.
func (c *CLINT) Read(buf []byte, a *alloc.Arena, addr uint32) {
	c.readAligned(a, buf, addr)
}

// ReadPure is identical to Read: CLINT reads never have side effects.
func (c *CLINT) ReadPure(buf []byte, a *alloc.Arena, addr uint32) error {
	c.readAligned(a, buf, addr)
	return nil
}

// Write performs a CLINT register write, re-evaluating the timer
// interrupt afterwards. Only naturally aligned 4- or 8-byte accesses at a
// known offset take effect.
func (c *CLINT) Write(a *alloc.Arena, addr uint32, buf []byte) {
	s, err := alloc.GetMut(a, c.state)
	if err != nil {
		return
	}
	switch {
	case addr == clintMtimecmpOffset && len(buf) == 8:
		s.mtimecmp = binary.LittleEndian.Uint64(buf)
	case addr == clintMtimecmpOffset && len(buf) == 4:
		s.mtimecmp = setLower(s.mtimecmp, binary.LittleEndian.Uint32(buf))
	case addr == clintMtimecmpOffset+4 && len(buf) == 4:
		s.mtimecmp = setUpper(s.mtimecmp, binary.LittleEndian.Uint32(buf))
	case addr == clintMtimeOffset && len(buf) == 8:
		s.mtime = binary.LittleEndian.Uint64(buf)
	case addr == clintMtimeOffset && len(buf) == 4:
		s.mtime = setLower(s.mtime, binary.LittleEndian.Uint32(buf))
	case addr == clintMtimeOffset+4 && len(buf) == 4:
		s.mtime = setUpper(s.mtime, binary.LittleEndian.Uint32(buf))
	default:
		return
	}
	c.updateIRQ(a, *s)
}
