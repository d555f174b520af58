package board

import (
	"encoding/binary"
	"testing"

	"rv32spin/alloc"
	"rv32spin/test"
)

type recordingLine struct {
	raised int
	lowered int
}

func (l *recordingLine) Raise(a *alloc.Arena) { l.raised++ }
func (l *recordingLine) Lower(a *alloc.Arena) { l.lowered++ }

func TestCLINTRaisesWhenMtimecmpReached(t *testing.T) {
	a := alloc.New()
	line := &recordingLine{}
	c := NewCLINT(a, line)

	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, 3)
	c.Write(a, clintMtimecmpOffset, buf)

	for i := 0; i < 3; i++ {
		c.Tick(a)
	}
	test.ExpectTrue(t, line.raised > 0, "expected mtip to be raised once mtime reaches mtimecmp")
}

func TestCLINTComposesHalvesWithOR(t *testing.T) {
	a := alloc.New()
	c := NewCLINT(a, noopLine{})

	full := make([]byte, 8)
	binary.LittleEndian.PutUint64(full, 0xFFFF_FFFF_FFFF_FFFF)
	c.Write(a, clintMtimecmpOffset, full)

	lower := make([]byte, 4)
	binary.LittleEndian.PutUint32(lower, 0x0000_0001)
	c.Write(a, clintMtimecmpOffset, lower)

	got := make([]byte, 8)
	c.Read(got, a, clintMtimecmpOffset)
	test.ExpectEquality(t, binary.LittleEndian.Uint64(got), uint64(0xFFFF_FFFF_0000_0001))
}

func TestCLINTUnalignedAccessIsNoOp(t *testing.T) {
	a := alloc.New()
	c := NewCLINT(a, noopLine{})
	buf := []byte{1, 2, 3}
	c.Write(a, clintMtimecmpOffset+1, buf)
	got := make([]byte, 8)
	c.Read(got, a, clintMtimecmpOffset)
	test.ExpectEquality(t, binary.LittleEndian.Uint64(got), uint64(0))
}
