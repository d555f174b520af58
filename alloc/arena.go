package alloc

import "reflect"

// Arena is the top-level snapshot allocator: a typed store of Cells and
// Arrays (one slab per concrete Go type actually inserted), plus a set of
// frozen Snapshots taken from it over time.
//
// An Arena is not safe for concurrent use; rv32spin's core runs
// single-threaded and only ever touches the Arena between ticks (see the
// timeline and gdbstub packages), matching the teacher's cooperative,
// non-reentrant emulation loop.
type Arena struct {
	cellSlabs  map[reflect.Type]cellSlabI
	cellOrder  []reflect.Type
	arraySlabs map[reflect.Type]arraySlabI
	arrayOrder []reflect.Type

	snapshots      map[SnapshotID]*frozenArena
	nextSnapshotID uint64

	// headID/headValid track HEAD: the snapshot id (if any) the Arena's
	// live state currently exactly matches. Set by TakeSnapshot/Checkout,
	// cleared by any mutation (markDirty) or by dropping the matched
	// snapshot.
	headID    SnapshotID
	headValid bool
}

// markDirty records that live state may have diverged from whatever
// snapshot it last matched. Called by every mutating Cell/Array operation.
func (a *Arena) markDirty() { a.headValid = false }

// Head reports the snapshot id live state currently exactly matches, and
// whether one exists: spec.md §4.1's "HEAD (checkout vs dirty)" query. It
// returns (0, false) before any snapshot has been taken, and after any
// mutation since the last TakeSnapshot or Checkout call.
func (a *Arena) Head() (SnapshotID, bool) { return a.headID, a.headValid }

// frozenArena is what TakeSnapshot captures: one frozen slab per type that
// had been registered (i.e. had at least one Insert/InsertArray) by the
// time the snapshot was taken.
type frozenArena struct {
	cells  map[reflect.Type]any
	arrays map[reflect.Type]any
}

// New returns an empty Arena.
func New() *Arena {
	return &Arena{
		cellSlabs:  make(map[reflect.Type]cellSlabI),
		arraySlabs: make(map[reflect.Type]arraySlabI),
		snapshots:  make(map[SnapshotID]*frozenArena),
	}
}

// TakeSnapshot freezes the Arena's current state and returns an id that
// can later be passed to Checkout or DropSnapshot. Cost is proportional to
// the number of distinct Cells and Arrays live in the Arena (its "roots"),
// not to the data they hold.
func (a *Arena) TakeSnapshot() SnapshotID {
	f := &frozenArena{
		cells:  make(map[reflect.Type]any, len(a.cellSlabs)),
		arrays: make(map[reflect.Type]any, len(a.arraySlabs)),
	}
	for _, t := range a.cellOrder {
		f.cells[t] = a.cellSlabs[t].snapshotFreeze()
	}
	for _, t := range a.arrayOrder {
		f.arrays[t] = a.arraySlabs[t].snapshotFreeze()
	}
	id := SnapshotID(a.nextSnapshotID)
	a.nextSnapshotID++
	a.snapshots[id] = f
	a.headID, a.headValid = id, true
	return id
}

// Checkout replaces the Arena's live state with the frozen state captured
// by id. Existing CellID/ArrayID values remain valid afterwards and now
// resolve to the values they held at snapshot time; any component caching
// raw ids across a Checkout should still re-derive them from its own
// stable names, mirroring the teacher's post-rewind Plumb step, since an
// id created after id was taken will no longer resolve to anything
// meaningful.
func (a *Arena) Checkout(id SnapshotID) error {
	f, ok := a.snapshots[id]
	if !ok {
		return errInvalidSnapshotID()
	}
	for _, t := range a.cellOrder {
		if frozen, ok2 := f.cells[t]; ok2 {
			a.cellSlabs[t].checkout(frozen)
		}
	}
	for _, t := range a.arrayOrder {
		if frozen, ok2 := f.arrays[t]; ok2 {
			a.arraySlabs[t].checkout(frozen)
		}
	}
	a.headID, a.headValid = id, true
	return nil
}

// DropSnapshot releases the references a previously taken snapshot holds,
// allowing any data exclusive to it to be reclaimed. id becomes invalid.
func (a *Arena) DropSnapshot(id SnapshotID) error {
	f, ok := a.snapshots[id]
	if !ok {
		return errInvalidSnapshotID()
	}
	for _, t := range a.cellOrder {
		if frozen, ok2 := f.cells[t]; ok2 {
			a.cellSlabs[t].dropFrozen(frozen)
		}
	}
	for _, t := range a.arrayOrder {
		if frozen, ok2 := f.arrays[t]; ok2 {
			a.arraySlabs[t].dropFrozen(frozen)
		}
	}
	delete(a.snapshots, id)
	if a.headValid && a.headID == id {
		a.headValid = false
	}
	return nil
}

// SnapshotCount returns the number of snapshots currently retained.
func (a *Arena) SnapshotCount() int {
	return len(a.snapshots)
}

// LiveCellCount returns the number of live Cells of type T (for metrics
// and tests; not part of the spec's steady-state operation set).
func LiveCellCount[T any](a *Arena) int {
	s, ok := a.cellSlabs[cellTypeKey[T]()]
	if !ok {
		return 0
	}
	return s.liveCount()
}

// LiveArrayCount returns the number of live Arrays of element type T.
func LiveArrayCount[T any](a *Arena) int {
	s, ok := a.arraySlabs[arrayTypeKey[T]()]
	if !ok {
		return 0
	}
	return s.liveCount()
}
