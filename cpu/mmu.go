package cpu

import (
	"encoding/binary"

	"rv32spin/alloc"
	"rv32spin/bus"
)

// MMU wraps a bus.Bus with the alignment, endianness, and access-fault
// classification a hart's loads/stores/fetches need, without implementing
// paging (an explicit Non-goal — satp is stubbed to zero).
//
// Grounded on original_source/red-planet-core/src/core/mmu.rs's
// read/write wrapper generated by its access_fns! macro, adapted from a
// macro-generated per-width method set to width-parameterized Go
// functions; teacher's ARM.read8bit/illegalAccess classification idiom
// (hardware/memory/cartridge/arm/memory_access.go) is the model for
// turning "bus refused this access" into a typed Exception instead of a
// silent zero.
type MMU struct {
	bus                 *bus.Bus
	misalignedDataFault bool // per prefs.BoardConfig.MisalignedLoadStoreSupport == false
}

// NewMMU wraps bus. allowMisalignedData mirrors the FE310's choice to
// service misaligned loads/stores directly instead of faulting
// (spec.md §4.8); when false, a misaligned data access raises
// Load/StoreOrAmoAddressMisaligned instead of being serviced.
func NewMMU(b *bus.Bus, allowMisalignedData bool) *MMU {
	return &MMU{bus: b, misalignedDataFault: !allowMisalignedData}
}

func widthBytes(w Width) uint32 {
	switch w {
	case Byte, ByteUnsigned:
		return 1
	case Half, HalfUnsigned:
		return 2
	default:
		return 4
	}
}

// FetchInstruction reads a 32-bit instruction word, always little-endian.
// Instruction fetch alignment is never configurable: a misaligned pc
// always raises InstructionAddressMisaligned, independent of the data
// access misalignment policy.
func (m *MMU) FetchInstruction(a *alloc.Arena, pc uint32) (uint32, error) {
	if pc%4 != 0 {
		return 0, InstructionAddressMisaligned
	}
	if !m.bus.Accepts(pc, 4) {
		return 0, InstructionAccessFault
	}
	buf := make([]byte, 4)
	m.bus.Read(buf, a, pc)
	return binary.LittleEndian.Uint32(buf), nil
}

// ReadData performs a data load of width w at addr with the given
// endianness, sign-extending byte/half widths per Width.
func (m *MMU) ReadData(a *alloc.Arena, addr uint32, w Width, endian Endianness) (uint32, error) {
	size := widthBytes(w)
	if m.misalignedDataFault && addr%size != 0 {
		return 0, LoadAddressMisaligned
	}
	if !m.bus.Accepts(addr, size) {
		return 0, LoadAccessFault
	}
	buf := make([]byte, size)
	m.bus.Read(buf, a, addr)
	return decodeWidth(buf, w, endian), nil
}

// WriteData performs a data store of width w at addr with the given
// endianness.
func (m *MMU) WriteData(a *alloc.Arena, addr uint32, w Width, value uint32, endian Endianness) error {
	size := widthBytes(w)
	if m.misalignedDataFault && addr%size != 0 {
		return StoreOrAmoAddressMisaligned
	}
	if !m.bus.Accepts(addr, size) {
		return StoreOrAmoAccessFault
	}
	buf := make([]byte, size)
	encodeWidth(buf, value, endian)
	m.bus.Write(a, addr, buf)
	return nil
}

func decodeWidth(buf []byte, w Width, endian Endianness) uint32 {
	order := endian.ByteOrder()
	switch w {
	case Byte:
		return uint32(int32(int8(buf[0])))
	case ByteUnsigned:
		return uint32(buf[0])
	case Half:
		return uint32(int32(int16(order.Uint16(buf))))
	case HalfUnsigned:
		return uint32(order.Uint16(buf))
	default:
		return order.Uint32(buf)
	}
}

func encodeWidth(buf []byte, value uint32, endian Endianness) {
	order := endian.ByteOrder()
	switch len(buf) {
	case 1:
		buf[0] = byte(value)
	case 2:
		order.PutUint16(buf, uint16(value))
	default:
		order.PutUint32(buf, value)
	}
}
