package board

import (
	"testing"

	"rv32spin/alloc"
	"rv32spin/bus"
	"rv32spin/prefs"
	"rv32spin/test"
)

// fakeCore is the minimal Core stand-in used to exercise board assembly
// before the cpu package's real core exists.
type fakeCore struct {
	mip     alloc.CellID[uint32]
	bus     *bus.Bus
	pc      uint32
	ticks   int
}

func newFakeCore(a *alloc.Arena) *fakeCore {
	return &fakeCore{mip: alloc.Insert(a, uint32(0))}
}

func (c *fakeCore) MIPCell() alloc.CellID[uint32] { return c.mip }
func (c *fakeCore) Connect(b *bus.Bus)            { c.bus = b }
func (c *fakeCore) Tick(a *alloc.Arena)           { c.ticks++ }
func (c *fakeCore) Reset(a *alloc.Arena, pc uint32) {
	c.pc = pc
}

func testConfig() prefs.BoardConfig {
	cfg := prefs.DefaultBoardConfig()
	cfg.RAMSize.Set(4096)
	cfg.ROMSize.Set(4096)
	return cfg
}

func TestNewBoardWiresEveryDevice(t *testing.T) {
	a := alloc.New()
	core := newFakeCore(a)
	b, err := NewBoard(a, core, testConfig(), []byte{0xAA}, nil)
	test.ExpectSuccess(t, err)

	test.ExpectTrue(t, b.Bus().Accepts(resetVectorAddr, 4), "mask ROM should be mapped")
	test.ExpectTrue(t, b.Bus().Accepts(ramBase, 4), "RAM should be mapped")
	test.ExpectTrue(t, b.Bus().Accepts(flashBase, 1), "flash ROM should be mapped")
	test.ExpectTrue(t, b.Bus().Accepts(uartBase, 1), "UART should be mapped")
	test.ExpectTrue(t, b.Bus().Accepts(clintBase, 8), "CLINT should be mapped")
	test.ExpectTrue(t, b.Bus().Accepts(plicBase+plicPriorityBase, 4), "PLIC should be mapped")

	test.ExpectTrue(t, core.bus != nil, "core should be connected to the assembled bus")
}

func TestNewBoardLoadsFirmwareIntoFlash(t *testing.T) {
	a := alloc.New()
	core := newFakeCore(a)
	b, err := NewBoard(a, core, testConfig(), []byte{0xDE, 0xAD}, nil)
	test.ExpectSuccess(t, err)

	buf := make([]byte, 2)
	b.Bus().Read(buf, a, flashBase)
	test.ExpectEquality(t, buf, []byte{0xDE, 0xAD})
}

func TestBoardTickAdvancesCoreAfterDevices(t *testing.T) {
	a := alloc.New()
	core := newFakeCore(a)
	b, err := NewBoard(a, core, testConfig(), nil, nil)
	test.ExpectSuccess(t, err)

	b.Tick(a)
	test.ExpectEquality(t, core.ticks, 1)
}

func TestBoardResetRestoresRAMAndCorePC(t *testing.T) {
	a := alloc.New()
	core := newFakeCore(a)
	b, err := NewBoard(a, core, testConfig(), nil, nil)
	test.ExpectSuccess(t, err)

	b.ram.Write(a, 0, []byte{1, 2, 3})
	b.Reset(a)

	buf := make([]byte, 3)
	b.ram.Read(buf, a, 0)
	test.ExpectEquality(t, buf, []byte{0, 0, 0})
	test.ExpectEquality(t, core.pc, uint32(resetVector))
}
