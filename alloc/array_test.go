package alloc

import (
	"testing"

	"rv32spin/test"
)

func TestInsertArraySpansMultiplePages(t *testing.T) {
	a := New()
	const n = fanout*fanout + 1 // forces depth > 1
	id := InsertArray[byte](a, 0xAA, n)

	length, err := ArrayLen(a, id)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, length, uint64(n))

	v, err := ArrayGet(a, id, n-1)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, v, byte(0xAA))
}

func TestArraySetAndGet(t *testing.T) {
	a := New()
	id := InsertArray[byte](a, 0, 256)
	test.ExpectSuccess(t, ArraySet(a, id, 130, 0x42))
	v, err := ArrayGet(a, id, 130)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, v, byte(0x42))

	// Neighboring cells are untouched.
	v, _ = ArrayGet(a, id, 129)
	test.ExpectEquality(t, v, byte(0))
}

func TestArrayOutOfBounds(t *testing.T) {
	a := New()
	id := InsertArray[byte](a, 0, 16)
	_, err := ArrayGet(a, id, 16)
	test.ExpectFailure(t, err)
}

func TestArraySnapshotIsolatesWrites(t *testing.T) {
	a := New()
	id := InsertArray[byte](a, 0, fanout*fanout+1)
	test.ExpectSuccess(t, ArraySet(a, id, 0, 1))
	snap := a.TakeSnapshot()

	test.ExpectSuccess(t, ArraySet(a, id, 0, 2))
	test.ExpectSuccess(t, ArraySet(a, id, fanout+5, 3))

	v, _ := ArrayGet(a, id, 0)
	test.ExpectEquality(t, v, byte(2))

	test.ExpectSuccess(t, a.Checkout(snap))
	v, _ = ArrayGet(a, id, 0)
	test.ExpectEquality(t, v, byte(1))
	v, _ = ArrayGet(a, id, fanout+5)
	test.ExpectEquality(t, v, byte(0))
}

func TestArrayReadWrite(t *testing.T) {
	a := New()
	id := InsertArray[byte](a, 0, 64)
	buf := []byte{1, 2, 3, 4}
	test.ExpectSuccess(t, ArrayWrite(a, id, 10, buf))

	out := make([]byte, 4)
	test.ExpectSuccess(t, ArrayRead(a, id, 10, out))
	test.ExpectEquality(t, out, buf)
}

func TestArrayResetRestoresFillValue(t *testing.T) {
	a := New()
	id := InsertArray[byte](a, 0xFF, fanout+4)
	test.ExpectSuccess(t, ArraySet(a, id, 0, 1))
	test.ExpectSuccess(t, ArraySet(a, id, fanout+1, 2))

	test.ExpectSuccess(t, ArrayReset(a, id))

	v, _ := ArrayGet(a, id, 0)
	test.ExpectEquality(t, v, byte(0xFF))
	v, _ = ArrayGet(a, id, fanout+1)
	test.ExpectEquality(t, v, byte(0xFF))
}

func TestArrayResetAfterSnapshotDoesNotAffectSnapshot(t *testing.T) {
	a := New()
	id := InsertArray[byte](a, 0, 8)
	test.ExpectSuccess(t, ArraySet(a, id, 3, 9))
	snap := a.TakeSnapshot()

	test.ExpectSuccess(t, ArrayReset(a, id))
	v, _ := ArrayGet(a, id, 3)
	test.ExpectEquality(t, v, byte(0))

	test.ExpectSuccess(t, a.Checkout(snap))
	v, _ = ArrayGet(a, id, 3)
	test.ExpectEquality(t, v, byte(9))
}

func TestRemoveArrayInvalidatesID(t *testing.T) {
	a := New()
	id := InsertArray[byte](a, 0, 8)
	test.ExpectSuccess(t, RemoveArray(a, id))
	_, err := ArrayGet(a, id, 0)
	test.ExpectFailure(t, err)
}
