package board

import (
	"rv32spin/alloc"
	"rv32spin/bus"
	"rv32spin/logger"
	"rv32spin/prefs"
)

// Core is the board's view of the hart it drives: just enough surface to
// wire interrupt lines before the bus exists and to connect the bus once
// it does. cpu.Core satisfies this interface structurally; board never
// imports cpu; cpu imports board's deviceless MMU primitives (bus.Bus)
// instead, so the dependency runs one way only.
//
// This mirrors original_source/red-planet-core/src/board/mod.rs's
// Core::new(...).connect(system_bus) two-phase construction, adapted from
// the teacher's RIOT.Plumb re-wiring-after-restore idiom
// (hardware/riot/riot.go): a device can hold a capability (here, an
// IRQLine closing over the core's mip CellID) that outlives any single
// bus without holding a pointer into the bus itself.
type Core interface {
	// MIPCell returns the CellID backing the mip CSR, so board can build
	// IRQLine callbacks that flip its bits directly.
	MIPCell() alloc.CellID[uint32]

	// Connect wires the core's MMU to the board's bus. Called once, after
	// every device has been attached.
	Connect(b *bus.Bus)

	// Tick executes one fetch-decode-execute-trap cycle.
	Tick(a *alloc.Arena)

	// Reset restores architectural state and sets pc to the given reset
	// vector.
	Reset(a *alloc.Arena, pc uint32)
}

// mip bit positions used when wiring IRQLine callbacks.
const (
	mipMTIPWire = mipMTIPBit
	mipMEIPWire = mipMEIPBit
)

// Board assembles rv32spin's single-hart, FE310-G002-class RISC-V
// platform: a bus, the mask-ROM reset trampoline, RAM, flash ROM, a
// UART, a CLINT, and a PLIC, wired together the way
// original_source/red-planet-core/src/board/mod.rs wires its own
// resources.
//
// Grounded on original_source/red-planet-core/src/board/mod.rs and the
// teacher's hardware.NewVCS construction (hardware/vcs.go), which builds
// a fixed device set once and never again.
type Board struct {
	core Core
	bus  *bus.Bus

	resetROM *ROM
	ram      *RAM
	flash    *ROM
	uart     *UART
	clint    *CLINT
	plic     *PLIC

	cfg prefs.BoardConfig
}

// Physical memory map, per the FE310-G002-class layout:
//
//	0x0000_1000..=0x0000_1FFF  Mask ROM (reset vector trampoline)
//	0x0200_0000..              CLINT (mtime/mtimecmp)
//	0x0C00_0000..               PLIC (interrupt controller)
//	0x1000_0000..               UART0 (serial)
//	0x2000_0000..               Flash ROM (program image)
//	0x8000_0000..               DRAM (main memory)
const (
	clintBase = 0x0200_0000
	clintSize = 0x0001_0000

	plicBase = 0x0C00_0000
	plicSize = 0x0040_0000

	uartBase = 0x1000_0000
	uartSize = 0x0000_1000

	flashBase = 0x2000_0000

	ramBase = 0x8000_0000
)

// NewBoard constructs a Board around core, attaching every device to a
// fresh Bus and loading firmware into the flash ROM region. firmware may
// be shorter than cfg.ROMSize; the remainder reads as zero. core's MMU is
// connected to the assembled bus as the final step, after every device
// exists and every IRQLine has somewhere to write.
func NewBoard(a *alloc.Arena, core Core, cfg prefs.BoardConfig, firmware []byte, host HostIO) (*Board, error) {
	b := bus.New()

	resetROM := NewROM(a, buildResetImage(flashBase), resetVectorSize)
	if err := b.Attach(resetROM, bus.Mapping{
		Source: bus.Range{Start: resetVectorAddr, End: resetVectorAddr + resetVectorSize - 1},
		Target: bus.Range{Start: 0, End: resetVectorSize - 1},
	}); err != nil {
		return nil, err
	}

	ramSize := uint64(cfg.RAMSize.Get())
	ram := NewRAM(a, ramSize)
	if err := b.Attach(ram, bus.Mapping{
		Source: bus.Range{Start: ramBase, End: ramBase + uint32(ramSize) - 1},
		Target: bus.Range{Start: 0, End: uint32(ramSize) - 1},
	}); err != nil {
		return nil, err
	}

	romSize := uint64(cfg.ROMSize.Get())
	flash := NewROM(a, firmware, romSize)
	if err := b.Attach(flash, bus.Mapping{
		Source: bus.Range{Start: flashBase, End: flashBase + uint32(romSize) - 1},
		Target: bus.Range{Start: 0, End: uint32(romSize) - 1},
	}); err != nil {
		return nil, err
	}

	mip := core.MIPCell()
	uart := NewUART(a, host)
	if err := b.Attach(uart, bus.Mapping{
		Source: bus.Range{Start: uartBase, End: uartBase + uartSize - 1},
		Target: bus.Range{Start: 0, End: uartSize - 1},
	}); err != nil {
		return nil, err
	}

	clint := NewCLINT(a, newMIPBitLine(mip, mipMTIPWire))
	if err := b.Attach(clint, bus.Mapping{
		Source: bus.Range{Start: clintBase, End: clintBase + clintSize - 1},
		Target: bus.Range{Start: 0, End: clintSize - 1},
	}); err != nil {
		return nil, err
	}

	plic := NewPLIC(a, newMIPBitLine(mip, mipMEIPWire))
	if err := b.Attach(plic, bus.Mapping{
		Source: bus.Range{Start: plicBase, End: plicBase + plicSize - 1},
		Target: bus.Range{Start: 0, End: plicSize - 1},
	}); err != nil {
		return nil, err
	}

	core.Connect(b)

	board := &Board{
		core:     core,
		bus:      b,
		resetROM: resetROM,
		ram:      ram,
		flash:    flash,
		uart:     uart,
		clint:    clint,
		plic:     plic,
		cfg:      cfg,
	}
	logger.Logf("board", "assembled: ram=%d rom=%d cadence=%d", ramSize, romSize, cfg.SnapshotCadence.Get())
	return board, nil
}

// Bus returns the board's system bus, for use by a loader or debugger
// that needs raw physical-address access.
func (b *Board) Bus() *bus.Bus { return b.bus }

// UART returns the board's UART, for tests and host-I/O wiring.
func (b *Board) UART() *UART { return b.uart }

// PLIC returns the board's interrupt controller, for devices that need to
// raise an external interrupt source.
func (b *Board) PLIC() *PLIC { return b.plic }

// CLINT returns the board's core-local interrupt controller, so a core's
// TimeSource closure can be wired up after assembly (the core is
// constructed before the board that owns its CLINT exists).
func (b *Board) CLINT() *CLINT { return b.clint }

// Tick advances every board-level device by one step, then the core.
// Devices tick first so a CLINT/PLIC interrupt raised this cycle is
// visible to the core's interrupt-select stage in the same tick, matching
// original_source/red-planet-core/src/board/mod.rs's tick ordering.
func (b *Board) Tick(a *alloc.Arena) {
	b.clint.Tick(a)
	b.uart.Tick(a)
	b.core.Tick(a)
}

// Reset restores RAM to its zero-filled state and the core to the reset
// vector. ROM contents, being immutable, need no reset.
func (b *Board) Reset(a *alloc.Arena) {
	b.ram.Reset(a)
	b.core.Reset(a, resetVector)
}
