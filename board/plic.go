package board

import (
	"encoding/binary"

	"rv32spin/alloc"
)

// PLIC register offsets, matching the SiFive/ACLINT-family platform-level
// interrupt controller layout used by original_source's
// resources/plic.rs.
const (
	plicPriorityBase = 0x4
	plicPriorityLast = 0xD0
	plicPendingBase  = 0x1000
	plicPendingLast  = 0x1004
	plicEnableBase   = 0x2000
	plicEnableLast   = 0x2004
	plicThreshold    = 0x20_0000
	plicClaimComplete = 0x20_0004
)

const plicSourceCount = 53 // index 0 reserved ("no interrupt")

type plicState struct {
	priority  [plicSourceCount]uint8
	pending   [2]uint32 // bit i (word i/32) => source i pending
	enabled   [2]uint32
	threshold uint8
}

func (s *plicState) isPending(i uint32) bool { return s.pending[i/32]&(1<<(i%32)) != 0 }
func (s *plicState) isEnabled(i uint32) bool { return s.enabled[i/32]&(1<<(i%32)) != 0 }
func (s *plicState) setPending(i uint32, v bool) {
	if v {
		s.pending[i/32] |= 1 << (i % 32)
	} else {
		s.pending[i/32] &^= 1 << (i % 32)
	}
}

// highestPriorityPending returns the source index of the highest-priority
// pending-and-enabled interrupt above threshold, or 0 if none qualifies.
// Scanning ascending and only replacing the best match on a strictly
// greater priority means ties resolve to the lowest index, as the spec
// requires.
func (s *plicState) highestPriorityPending() uint32 {
	var best uint32
	var bestPriority uint8
	for i := uint32(1); i < plicSourceCount; i++ {
		if !s.isPending(i) || !s.isEnabled(i) {
			continue
		}
		p := s.priority[i]
		if p <= s.threshold {
			continue
		}
		if p > bestPriority {
			best = i
			bestPriority = p
		}
	}
	return best
}

func (s *plicState) claim() uint32 {
	idx := s.highestPriorityPending()
	if idx != 0 {
		s.setPending(idx, false)
	}
	return idx
}

// PLIC is the board's external interrupt controller: 53 fixed sources
// (index 0 reserved), each with a 3-bit saturating priority, a pending
// bit, an enabled bit, and a shared 3-bit priority threshold.
//
// Grounded on original_source/red-planet-core/src/resources/plic.rs.
// That implementation packs pending/enabled as MSB0-ordered bitvec words;
// this uses plain LSB0 bit-per-source packing instead (bit i of word i/32
// is source i), which is both simpler in Go without a bitvec-equivalent
// dependency and matches the RISC-V PLIC spec's own bit convention more
// directly.
type PLIC struct {
	state alloc.CellID[plicState]
	line  IRQLine
}

// NewPLIC inserts a PLIC in its reset state, wired to raise the given
// external-interrupt line while some pending, enabled source has a
// priority above the threshold, and to lower it otherwise.
func NewPLIC(a *alloc.Arena, line IRQLine) *PLIC {
	return &PLIC{state: alloc.Insert(a, plicState{}), line: line}
}

// Raise marks source index as pending. Used by a device wired to a PLIC
// source (e.g. the UART, if interrupt generation is enabled).
func (p *PLIC) Raise(a *alloc.Arena, index uint32) {
	s, err := alloc.GetMut(a, p.state)
	if err != nil {
		return
	}
	s.setPending(index, true)
	p.checkInterrupt(a, s)
}

// Lower is a no-op: per the spec, the PLIC only clears a pending bit via
// claim, complete, or a direct register write, never a source-side lower.
func (p *PLIC) Lower(a *alloc.Arena, index uint32) {}

func (p *PLIC) checkInterrupt(a *alloc.Arena, s *plicState) {
	if s.highestPriorityPending() != 0 {
		p.line.Raise(a)
	} else {
		p.line.Lower(a)
	}
}

func decodePlicAddr(addr uint32) (kind string, index int, ok bool) {
	switch {
	case addr >= plicPriorityBase && addr <= plicPriorityLast:
		return "priority", int((addr-plicPriorityBase)/4) + 1, true
	case addr >= plicPendingBase && addr <= plicPendingLast:
		return "pending", int((addr - plicPendingBase) / 4), true
	case addr >= plicEnableBase && addr <= plicEnableLast:
		return "enabled", int((addr - plicEnableBase) / 4), true
	case addr == plicThreshold:
		return "threshold", 0, true
	case addr == plicClaimComplete:
		return "claim", 0, true
	}
	return "", 0, false
}

func (p *PLIC) readU32(a *alloc.Arena, addr uint32) uint32 {
	kind, index, ok := decodePlicAddr(addr)
	if !ok {
		return 0
	}
	s, err := alloc.GetMut(a, p.state)
	if err != nil {
		return 0
	}
	switch kind {
	case "priority":
		return uint32(s.priority[index])
	case "pending":
		return s.pending[index]
	case "enabled":
		return s.enabled[index]
	case "threshold":
		return uint32(s.threshold)
	case "claim":
		claimed := s.claim()
		p.checkInterrupt(a, s)
		return claimed
	}
	return 0
}

func (p *PLIC) readU32Pure(a *alloc.Arena, addr uint32) uint32 {
	kind, index, ok := decodePlicAddr(addr)
	if !ok {
		return 0
	}
	s, err := alloc.Get(a, p.state)
	if err != nil {
		return 0
	}
	switch kind {
	case "priority":
		return uint32(s.priority[index])
	case "pending":
		return s.pending[index]
	case "enabled":
		return s.enabled[index]
	case "threshold":
		return uint32(s.threshold)
	case "claim":
		return s.highestPriorityPending()
	}
	return 0
}

func (p *PLIC) writeU32(a *alloc.Arena, addr uint32, value uint32) {
	kind, index, ok := decodePlicAddr(addr)
	if !ok {
		return
	}
	s, err := alloc.GetMut(a, p.state)
	if err != nil {
		return
	}
	switch kind {
	case "priority":
		if value > 7 {
			value = 7
		}
		s.priority[index] = uint8(value)
	case "pending":
		s.pending[index] = value
	case "enabled":
		s.enabled[index] = value
	case "threshold":
		if value > 7 {
			value = 7
		}
		s.threshold = uint8(value)
	case "claim":
		if value >= 1 && value <= 52 {
			s.setPending(uint32(value), false)
		}
	}
	p.checkInterrupt(a, s)
}

func alignedWord(addr uint32, size int) bool {
	return size == 4 && addr&0b11 == 0
}

// Read performs a PLIC register read. Only naturally aligned 4-byte
// accesses at a known offset take effect.
func (p *PLIC) Read(buf []byte, a *alloc.Arena, addr uint32) {
	if !alignedWord(addr, len(buf)) {
		return
	}
	binary.LittleEndian.PutUint32(buf, p.readU32(a, addr))
}

// ReadPure is a side-effect-free read: unlike Read, it never claims a
// pending interrupt, so repeated debug reads don't disturb the device.
func (p *PLIC) ReadPure(buf []byte, a *alloc.Arena, addr uint32) error {
	if !alignedWord(addr, len(buf)) {
		return nil
	}
	binary.LittleEndian.PutUint32(buf, p.readU32Pure(a, addr))
	return nil
}

// Write performs a PLIC register write. Only naturally aligned 4-byte
// accesses at a known offset take effect.
func (p *PLIC) Write(a *alloc.Arena, addr uint32, buf []byte) {
	if !alignedWord(addr, len(buf)) {
		return
	}
	p.writeU32(a, addr, binary.LittleEndian.Uint32(buf))
}
