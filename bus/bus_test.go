package bus

import (
	"testing"

	"rv32spin/alloc"
	"rv32spin/test"
)

// memDevice is a trivial in-memory Device used only to exercise Bus
// routing, independent of the real board devices.
type memDevice struct {
	data []byte
}

func (m *memDevice) Read(buf []byte, a *alloc.Arena, addr uint32) {
	copy(buf, m.data[addr:])
}

func (m *memDevice) ReadPure(buf []byte, a *alloc.Arena, addr uint32) error {
	copy(buf, m.data[addr:])
	return nil
}

func (m *memDevice) Write(a *alloc.Arena, addr uint32, buf []byte) {
	copy(m.data[addr:], buf)
}

func TestReadWriteRoundTrip(t *testing.T) {
	b := New()
	dev := &memDevice{data: make([]byte, 16)}
	test.ExpectSuccess(t, b.Attach(dev, Mapping{
		Source: Range{Start: 0x1000, End: 0x100F},
		Target: Range{Start: 0, End: 0xF},
	}))

	b.Write(nil, 0x1004, []byte{1, 2, 3, 4})
	out := make([]byte, 4)
	b.Read(out, nil, 0x1004)
	test.ExpectEquality(t, out, []byte{1, 2, 3, 4})
}

func TestUnmappedAccessIsNoOp(t *testing.T) {
	b := New()
	out := []byte{0xAA}
	b.Read(out, nil, 0x5000)
	test.ExpectEquality(t, out, []byte{0xAA})
}

func TestStraddlingAccessIsRefused(t *testing.T) {
	b := New()
	dev := &memDevice{data: make([]byte, 16)}
	test.ExpectSuccess(t, b.Attach(dev, Mapping{
		Source: Range{Start: 0x1000, End: 0x100F},
		Target: Range{Start: 0, End: 0xF},
	}))

	test.ExpectTrue(t, b.Accepts(0x1000, 4), "aligned in-range access should be accepted")
	test.ExpectTrue(t, !b.Accepts(0x100D, 4), "access straddling past the end of the region should be refused")
}

func TestOverlappingMappingIsRejected(t *testing.T) {
	b := New()
	dev := &memDevice{data: make([]byte, 32)}
	test.ExpectSuccess(t, b.Attach(dev, Mapping{
		Source: Range{Start: 0x1000, End: 0x100F},
		Target: Range{Start: 0, End: 0xF},
	}))
	err := b.Attach(dev, Mapping{
		Source: Range{Start: 0x1008, End: 0x1017},
		Target: Range{Start: 0x10, End: 0x1F},
	})
	test.ExpectFailure(t, err)
}

func TestMappingSizeMismatchIsRejected(t *testing.T) {
	b := New()
	dev := &memDevice{data: make([]byte, 32)}
	err := b.Attach(dev, Mapping{
		Source: Range{Start: 0x1000, End: 0x100F},
		Target: Range{Start: 0, End: 0x1F},
	})
	test.ExpectFailure(t, err)
}
