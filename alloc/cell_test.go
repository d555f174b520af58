package alloc

import (
	"testing"

	"rv32spin/test"
)

func TestInsertGet(t *testing.T) {
	a := New()
	id := Insert(a, uint32(42))
	v, err := Get(a, id)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, v, uint32(42))
}

func TestGetMutWritesThroughWhenExclusive(t *testing.T) {
	a := New()
	id := Insert(a, uint32(1))
	p, err := GetMut(a, id)
	test.ExpectSuccess(t, err)
	*p = 2
	v, _ := Get(a, id)
	test.ExpectEquality(t, v, uint32(2))
}

func TestSnapshotIsolatesLaterWrites(t *testing.T) {
	a := New()
	id := Insert(a, uint32(1))
	snap := a.TakeSnapshot()

	test.ExpectSuccess(t, Set(a, id, uint32(2)))
	v, _ := Get(a, id)
	test.ExpectEquality(t, v, uint32(2))

	test.ExpectSuccess(t, a.Checkout(snap))
	v, _ = Get(a, id)
	test.ExpectEquality(t, v, uint32(1))
}

func TestGetMutForksSharedNode(t *testing.T) {
	a := New()
	id := Insert(a, uint32(10))
	snap := a.TakeSnapshot()

	p, err := GetMut(a, id)
	test.ExpectSuccess(t, err)
	*p = 20

	v, _ := Get(a, id)
	test.ExpectEquality(t, v, uint32(20))

	test.ExpectSuccess(t, a.DropSnapshot(snap))
	v, _ = Get(a, id)
	test.ExpectEquality(t, v, uint32(20))
}

func TestRemoveInvalidatesID(t *testing.T) {
	a := New()
	id := Insert(a, "hello")
	test.ExpectSuccess(t, Remove(a, id))
	_, err := Get(a, id)
	test.ExpectFailure(t, err)
}

func TestInvalidSnapshotID(t *testing.T) {
	a := New()
	err := a.Checkout(SnapshotID(999))
	test.ExpectFailure(t, err)
}

func TestPopReturnsValueAndInvalidates(t *testing.T) {
	a := New()
	id := Insert(a, uint32(7))
	v, err := Pop(a, id)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, v, uint32(7))
	_, err = Get(a, id)
	test.ExpectFailure(t, err)
}
