package loader

import (
	"testing"

	"rv32spin/alloc"
	"rv32spin/board"
	"rv32spin/bus"
	"rv32spin/test"
)

func newTestBus(t *testing.T) (*alloc.Arena, *bus.Bus) {
	t.Helper()
	a := alloc.New()
	b := bus.New()
	ram := board.NewRAM(a, 0x1000)
	test.ExpectSuccess(t, b.Attach(ram, bus.Mapping{
		Source: bus.Range{Start: 0x8000_0000, End: 0x8000_0FFF},
		Target: bus.Range{Start: 0, End: 0xFFF},
	}))
	return a, b
}

func TestLoadSegmentWritesBytes(t *testing.T) {
	a, b := newTestBus(t)
	data := []byte{1, 2, 3, 4}
	test.ExpectSuccess(t, LoadSegment(b, a, 0x8000_0010, data))

	var buf [4]byte
	b.Read(buf[:], a, 0x8000_0010)
	test.ExpectEquality(t, buf[:], data)
}

func TestLoadSegmentRejectsUnmapped(t *testing.T) {
	a, b := newTestBus(t)
	err := LoadSegment(b, a, 0x9000_0000, []byte{1})
	test.ExpectFailure(t, err)
}

func TestLoadSegmentEmptyIsNoop(t *testing.T) {
	a, b := newTestBus(t)
	test.ExpectSuccess(t, LoadSegment(b, a, 0x9000_0000, nil))
}
