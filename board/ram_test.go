package board

import (
	"testing"

	"rv32spin/alloc"
	"rv32spin/test"
)

func TestRAMReadWriteRoundTrip(t *testing.T) {
	a := alloc.New()
	r := NewRAM(a, 64)
	r.Write(a, 4, []byte{0xDE, 0xAD, 0xBE, 0xEF})
	buf := make([]byte, 4)
	r.Read(buf, a, 4)
	test.ExpectEquality(t, buf, []byte{0xDE, 0xAD, 0xBE, 0xEF})
}

func TestRAMResetZeroesContents(t *testing.T) {
	a := alloc.New()
	r := NewRAM(a, 64)
	r.Write(a, 0, []byte{1, 2, 3, 4})
	r.Reset(a)
	buf := make([]byte, 4)
	r.Read(buf, a, 0)
	test.ExpectEquality(t, buf, []byte{0, 0, 0, 0})
}

func TestRAMResetDoesNotAffectSnapshot(t *testing.T) {
	a := alloc.New()
	r := NewRAM(a, 64)
	r.Write(a, 0, []byte{9})
	snap := a.TakeSnapshot()
	r.Reset(a)

	buf := make([]byte, 1)
	r.Read(buf, a, 0)
	test.ExpectEquality(t, buf, []byte{0})

	test.ExpectSuccess(t, a.Checkout(snap))
	r.Read(buf, a, 0)
	test.ExpectEquality(t, buf, []byte{9})
}
