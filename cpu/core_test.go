package cpu

import (
	"encoding/binary"
	"testing"

	"rv32spin/alloc"
	"rv32spin/board"
	"rv32spin/bus"
	"rv32spin/test"
)

// writeWord little-endian-encodes word into ram at byte offset addr.
func writeWord(t *testing.T, a *alloc.Arena, b *bus.Bus, addr uint32, word uint32) {
	t.Helper()
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, word)
	b.Write(a, addr, buf)
}

// newTestCore assembles a bare RAM-only bus and a Core fetching from
// address 0, skipping the full board (CLINT/PLIC/UART) for instruction-
// level tests that don't exercise interrupts.
func newTestCore(t *testing.T) (*alloc.Arena, *Core, *bus.Bus) {
	t.Helper()
	a := alloc.New()
	ram := board.NewRAM(a, 0x1000)
	b := bus.New()
	test.ExpectSuccess(t, b.Attach(ram, bus.Mapping{
		Source: bus.Range{Start: 0, End: 0xFFF},
		Target: bus.Range{Start: 0, End: 0xFFF},
	}))
	c := NewCore(a, 0, 0, true, func(a *alloc.Arena) uint64 { return 0 })
	c.Connect(b)
	return a, c, b
}

func encodeOpImm(op uint32, dest, src RegSpecifier, imm int32) uint32 {
	return uint32(uint32(imm)<<20) | (uint32(src) << 15) | (op << 12) | (uint32(dest) << 7) | 0b0010011
}

func encodeOp(f3, f7 uint32, dest, src1, src2 RegSpecifier) uint32 {
	return (f7 << 25) | (uint32(src2) << 20) | (uint32(src1) << 15) | (f3 << 12) | (uint32(dest) << 7) | 0b0110011
}

func TestCoreAddiAdd(t *testing.T) {
	a, c, b := newTestCore(t)
	// addi x1, x0, 5 ; addi x2, x0, 7 ; add x3, x1, x2
	writeWord(t, a, b, 0, encodeOpImm(0b000, 1, X0, 5))
	writeWord(t, a, b, 4, encodeOpImm(0b000, 2, X0, 7))
	writeWord(t, a, b, 8, encodeOp(0b000, 0, 3, 1, 2))

	c.Tick(a)
	c.Tick(a)
	c.Tick(a)

	regs, err := alloc.Get(a, c.regs)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, regs.X(3), uint32(12))
	test.ExpectEquality(t, regs.PC(), uint32(12))
}

func TestCoreLuiAuipc(t *testing.T) {
	a, c, b := newTestCore(t)
	// lui x10, 0x1  (expect x10 == 0x1000)
	writeWord(t, a, b, 0, uint32(0x1000)|(10<<7)|0b0110111)
	c.Tick(a)
	regs, _ := alloc.Get(a, c.regs)
	test.ExpectEquality(t, regs.X(10), uint32(0x1000))

	// auipc x10, 0x80000 at pc=4 (expect x10 == 4 + 0x8000_0000)
	writeWord(t, a, b, 4, uint32(0x8000_0000)|(10<<7)|0b0010111)
	c.Tick(a)
	regs, _ = alloc.Get(a, c.regs)
	test.ExpectEquality(t, regs.X(10), uint32(4+0x8000_0000))
}

func TestCoreMisalignedBranchTraps(t *testing.T) {
	a, c, b := newTestCore(t)
	// beq x0, x0, 2 at pc=0: always taken, target=2, not 4-aligned.
	imm := uint32(2)
	word := (((imm >> 12) & 1) << 31) | (((imm >> 5) & 0x3F) << 25) |
		(0 << 20) | (0 << 15) | (0b000 << 12) |
		(((imm >> 1) & 0xF) << 8) | (((imm >> 11) & 1) << 7) | 0b1100011
	writeWord(t, a, b, 0, word)

	c.Tick(a)

	test.ExpectEquality(t, c.csr.MEPC(a), uint32(0))
	mcause, _ := c.csr.Read(a, csrMCAUSE, Machine)
	test.ExpectEquality(t, mcause, InstructionAddressMisaligned.Code())
}

func TestCoreLoadStoreRoundTrip(t *testing.T) {
	a, c, b := newTestCore(t)
	// addi x1, x0, 0x100  (base address)
	// addi x2, x0, 123
	// sw x2, 0(x1)
	// lw x3, 0(x1)
	writeWord(t, a, b, 0, encodeOpImm(0b000, 1, X0, 0x100))
	writeWord(t, a, b, 4, encodeOpImm(0b000, 2, X0, 123))
	sw := uint32(0<<25) | (2 << 20) | (1 << 15) | (0b010 << 12) | (0 << 7) | 0b0100011
	writeWord(t, a, b, 8, sw)
	lw := uint32(0<<20) | (1 << 15) | (0b010 << 12) | (3 << 7) | 0b0000011
	writeWord(t, a, b, 12, lw)

	for i := 0; i < 4; i++ {
		c.Tick(a)
	}

	regs, _ := alloc.Get(a, c.regs)
	test.ExpectEquality(t, regs.X(3), uint32(123))
}

func TestCoreUndoAcrossRAMMutation(t *testing.T) {
	a, c, b := newTestCore(t)
	writeWord(t, a, b, 0, encodeOpImm(0b000, 1, X0, 0x100))
	writeWord(t, a, b, 4, encodeOpImm(0b000, 2, X0, 99))
	sw := uint32(0<<25) | (2 << 20) | (1 << 15) | (0b010 << 12) | (0 << 7) | 0b0100011
	writeWord(t, a, b, 8, sw)

	before := a.TakeSnapshot()
	c.Tick(a)
	c.Tick(a)
	c.Tick(a)

	var buf [4]byte
	b.Read(buf[:], a, 0x100)
	test.ExpectEquality(t, binary.LittleEndian.Uint32(buf[:]), uint32(99))

	test.ExpectSuccess(t, a.Checkout(before))
	b.Read(buf[:], a, 0x100)
	test.ExpectEquality(t, binary.LittleEndian.Uint32(buf[:]), uint32(0))
}

func TestCoreEcallTraps(t *testing.T) {
	a, c, b := newTestCore(t)
	ecall := uint32(0b1110011)
	writeWord(t, a, b, 0, ecall)

	c.Tick(a)

	mcause, _ := c.csr.Read(a, csrMCAUSE, Machine)
	test.ExpectEquality(t, mcause, EnvironmentCallFromMMode.Code())
	test.ExpectEquality(t, c.Mode(a), Machine)
}

func TestCoreMretRestoresMode(t *testing.T) {
	a, c, b := newTestCore(t)
	test.ExpectSuccess(t, c.csr.Write(a, csrMTVEC, Machine, 0x200))

	// Force a trap (ecall), then mret from the handler at mtvec.
	ecall := uint32(0b1110011)
	writeWord(t, a, b, 0, ecall)
	c.Tick(a)

	mret := uint32(0x302<<20) | 0b1110011
	writeWord(t, a, b, c.csr.MTvec(a), mret)

	c.Tick(a)

	regs, _ := alloc.Get(a, c.regs)
	test.ExpectEquality(t, regs.PC(), uint32(0)) // mepc was the ecall's own pc
	test.ExpectEquality(t, c.Mode(a), Machine)
}
