// Package alloc implements rv32spin's snapshot allocator: a typed store of
// Cells and Arrays, reference-counted and structurally shared, so that
// taking a Snapshot is O(number of live cells and arrays) rather than O(the
// data they hold), and later checking out an old Snapshot is just as cheap.
//
// This is the Go counterpart of the teacher's approach to shared mutable
// state (gopher2600's rewind.State plumbing, generalized here into a
// standalone allocator) grounded on original_source/space-time's
// generational-arena-of-table-pointers design: a Cell is a refcounted slot
// holding one value, an Array is a fixed-fanout page tree of Cells, and a
// Snapshot is a frozen set of root references into both.
package alloc

// CellID identifies a single value of type T held by an Arena. Ids are
// never reused. A CellID resolves in every state that contains it: it stops
// resolving once passed to Remove or Pop, and after a Checkout of a
// snapshot taken before it was inserted.
type CellID[T any] struct {
	slot uint32
}

// ArrayID identifies a fixed-size array of values of type T held by an
// Arena, addressable by index in range [0, Len).
type ArrayID[T any] struct {
	slot uint32
}

// SnapshotID identifies a frozen state of an Arena, produced by
// Arena.TakeSnapshot and consumed by Arena.Checkout / Arena.DropSnapshot.
type SnapshotID uint64
