package board

import (
	"testing"

	"rv32spin/alloc"
	"rv32spin/test"
)

func TestROMReadsImageAndZeroPads(t *testing.T) {
	a := alloc.New()
	r := NewROM(a, []byte{1, 2, 3}, 8)
	buf := make([]byte, 8)
	r.Read(buf, a, 0)
	test.ExpectEquality(t, buf, []byte{1, 2, 3, 0, 0, 0, 0, 0})
}

func TestROMTruncatesOversizedImage(t *testing.T) {
	a := alloc.New()
	r := NewROM(a, []byte{1, 2, 3, 4, 5}, 3)
	buf := make([]byte, 3)
	r.Read(buf, a, 0)
	test.ExpectEquality(t, buf, []byte{1, 2, 3})
}

func TestROMWriteIsNoOp(t *testing.T) {
	a := alloc.New()
	r := NewROM(a, []byte{1, 2, 3}, 4)
	r.Write(a, 0, []byte{0xFF})
	buf := make([]byte, 1)
	r.Read(buf, a, 0)
	test.ExpectEquality(t, buf, []byte{1})
}
