package alloc

import "reflect"

// cellNode is the physical backing of a Cell. Multiple CellIDs across
// different Arena states (HEAD, or any still-live Snapshot) can point at
// the same node; refcount tracks how many of those states currently do.
type cellNode[T any] struct {
	value    T
	refcount int
}

// cellSlab holds every Cell of one concrete type T ever inserted into an
// Arena. directory[slot] is HEAD's current node for CellID{slot}; a nil
// entry means the id was removed (and, per contract, must never be reused).
type cellSlab[T any] struct {
	directory []*cellNode[T]
}

// frozenCellSlab is a Snapshot's captured view of a cellSlab: the
// directory as it stood at TakeSnapshot time, with every referenced node's
// refcount already bumped to account for it.
type frozenCellSlab[T any] struct {
	directory []*cellNode[T]
}

// cellSlabI lets an Arena manage slabs of many different T uniformly.
type cellSlabI interface {
	snapshotFreeze() any
	checkout(frozen any)
	dropFrozen(frozen any)
	liveCount() int
}

func (s *cellSlab[T]) snapshotFreeze() any {
	cp := make([]*cellNode[T], len(s.directory))
	for i, n := range s.directory {
		if n != nil {
			n.refcount++
		}
		cp[i] = n
	}
	return frozenCellSlab[T]{directory: cp}
}

func (s *cellSlab[T]) checkout(frozen any) {
	f := frozen.(frozenCellSlab[T])
	for _, n := range s.directory {
		releaseCellNode(n)
	}
	newDir := make([]*cellNode[T], len(f.directory))
	for i, n := range f.directory {
		if n != nil {
			n.refcount++
		}
		newDir[i] = n
	}
	s.directory = newDir
}

func (s *cellSlab[T]) dropFrozen(frozen any) {
	f := frozen.(frozenCellSlab[T])
	for _, n := range f.directory {
		releaseCellNode(n)
	}
}

func (s *cellSlab[T]) liveCount() int {
	n := 0
	for _, node := range s.directory {
		if node != nil {
			n++
		}
	}
	return n
}

// releaseCellNode drops one reference to n. A Cell has no children, so
// unlike an Array page this never cascades.
func releaseCellNode[T any](n *cellNode[T]) {
	if n == nil {
		return
	}
	n.refcount--
}

func cellTypeKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func getCellSlab[T any](a *Arena) *cellSlab[T] {
	key := cellTypeKey[T]()
	if existing, ok := a.cellSlabs[key]; ok {
		return existing.(*cellSlab[T])
	}
	s := &cellSlab[T]{}
	a.cellSlabs[key] = s
	a.cellOrder = append(a.cellOrder, key)
	return s
}

// Insert adds a new Cell holding v and returns its id.
func Insert[T any](a *Arena, v T) CellID[T] {
	s := getCellSlab[T](a)
	s.directory = append(s.directory, &cellNode[T]{value: v, refcount: 1})
	a.markDirty()
	return CellID[T]{slot: uint32(len(s.directory) - 1)}
}

// Get returns a copy of the value held by id.
func Get[T any](a *Arena, id CellID[T]) (T, error) {
	s := getCellSlab[T](a)
	var zero T
	if int(id.slot) >= len(s.directory) || s.directory[id.slot] == nil {
		return zero, errInvalidID()
	}
	return s.directory[id.slot].value, nil
}

// GetMut returns a pointer to the value held by id, copy-on-writing it
// first if the backing node is currently shared with any live Snapshot.
func GetMut[T any](a *Arena, id CellID[T]) (*T, error) {
	s := getCellSlab[T](a)
	if int(id.slot) >= len(s.directory) || s.directory[id.slot] == nil {
		return nil, errInvalidID()
	}
	node := s.directory[id.slot]
	if node.refcount > 1 {
		node.refcount--
		node = &cellNode[T]{value: node.value, refcount: 1}
		s.directory[id.slot] = node
	}
	a.markDirty()
	return &node.value, nil
}

// Set overwrites the value held by id, copy-on-writing as GetMut would.
func Set[T any](a *Arena, id CellID[T], v T) error {
	p, err := GetMut(a, id)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Remove releases HEAD's hold on id. The value may still be kept alive by
// older snapshots; id itself must never be reinserted into or looked up
// from this Arena again.
func Remove[T any](a *Arena, id CellID[T]) error {
	s := getCellSlab[T](a)
	if int(id.slot) >= len(s.directory) || s.directory[id.slot] == nil {
		return errInvalidID()
	}
	releaseCellNode(s.directory[id.slot])
	s.directory[id.slot] = nil
	a.markDirty()
	return nil
}

// Pop removes id and returns the value it held.
func Pop[T any](a *Arena, id CellID[T]) (T, error) {
	v, err := Get(a, id)
	if err != nil {
		var zero T
		return zero, err
	}
	if err := Remove(a, id); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}
