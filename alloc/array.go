package alloc

import "reflect"

// instanceRecord is the per-array bookkeeping an arraySlab keeps for one
// ArrayID: the page it currently reads/writes through, the untouched
// all-fill page kept alive purely so Reset can restore it in O(depth), the
// logical length, and the tree depth (interior hops above the leaf level)
// fixed at creation.
type instanceRecord struct {
	currentTop uint32
	resetTop   uint32
	size       uint64
	depth      int
	live       bool
}

// arraySlab holds every Array of one concrete element type T ever
// inserted into an Arena.
type arraySlab[T any] struct {
	storage   pageStorage[T]
	directory []instanceRecord
}

type frozenArraySlab struct {
	directory []instanceRecord
}

type arraySlabI interface {
	snapshotFreeze() any
	checkout(frozen any)
	dropFrozen(frozen any)
	liveCount() int
}

func (s *arraySlab[T]) snapshotFreeze() any {
	cp := make([]instanceRecord, len(s.directory))
	for i, rec := range s.directory {
		if rec.live {
			s.storage.pages[rec.currentTop].refcount++
			s.storage.pages[rec.resetTop].refcount++
		}
		cp[i] = rec
	}
	return frozenArraySlab{directory: cp}
}

func (s *arraySlab[T]) checkout(frozen any) {
	f := frozen.(frozenArraySlab)
	for _, rec := range s.directory {
		s.releaseInstance(rec)
	}
	newDir := make([]instanceRecord, len(f.directory))
	for i, rec := range f.directory {
		if rec.live {
			s.storage.pages[rec.currentTop].refcount++
			s.storage.pages[rec.resetTop].refcount++
		}
		newDir[i] = rec
	}
	s.directory = newDir
}

func (s *arraySlab[T]) dropFrozen(frozen any) {
	f := frozen.(frozenArraySlab)
	for _, rec := range f.directory {
		s.releaseInstance(rec)
	}
}

func (s *arraySlab[T]) releaseInstance(rec instanceRecord) {
	if !rec.live {
		return
	}
	releasePage(&s.storage, rec.currentTop, rec.depth)
	releasePage(&s.storage, rec.resetTop, rec.depth)
}

func (s *arraySlab[T]) liveCount() int {
	n := 0
	for _, rec := range s.directory {
		if rec.live {
			n++
		}
	}
	return n
}

func arrayTypeKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func getArraySlab[T any](a *Arena) *arraySlab[T] {
	key := arrayTypeKey[T]()
	if existing, ok := a.arraySlabs[key]; ok {
		return existing.(*arraySlab[T])
	}
	s := &arraySlab[T]{}
	a.arraySlabs[key] = s
	a.arrayOrder = append(a.arrayOrder, key)
	return s
}

func (s *arraySlab[T]) resolve(slot uint32) (*instanceRecord, error) {
	if int(slot) >= len(s.directory) || !s.directory[slot].live {
		return nil, errInvalidID()
	}
	return &s.directory[slot], nil
}

// InsertArray adds a new Array of n elements, each initialized to fill,
// and returns its id.
func InsertArray[T any](a *Arena, fill T, n uint64) ArrayID[T] {
	s := getArraySlab[T](a)
	depth := levelsFor(n)
	top := newFullPage(&s.storage, fill, depth)
	s.storage.pages[top].refcount++ // one ref for currentTop, one for resetTop
	s.directory = append(s.directory, instanceRecord{
		currentTop: top,
		resetTop:   top,
		size:       n,
		depth:      depth,
		live:       true,
	})
	a.markDirty()
	return ArrayID[T]{slot: uint32(len(s.directory) - 1)}
}

// RemoveArray releases HEAD's hold on id.
func RemoveArray[T any](a *Arena, id ArrayID[T]) error {
	s := getArraySlab[T](a)
	rec, err := s.resolve(id.slot)
	if err != nil {
		return err
	}
	s.releaseInstance(*rec)
	rec.live = false
	a.markDirty()
	return nil
}

// ArrayLen returns the number of elements in id.
func ArrayLen[T any](a *Arena, id ArrayID[T]) (uint64, error) {
	s := getArraySlab[T](a)
	rec, err := s.resolve(id.slot)
	if err != nil {
		return 0, err
	}
	return rec.size, nil
}

func locate[T any](s *arraySlab[T], rec *instanceRecord, index uint64) (*page[T], int, error) {
	if index >= rec.size {
		return nil, 0, errInvalidID()
	}
	path := pathIndices(index, rec.depth)
	cur := rec.currentTop
	for lvl := 0; lvl < rec.depth; lvl++ {
		cur = s.storage.pages[cur].children[path[lvl]]
	}
	return s.storage.pages[cur], path[rec.depth], nil
}

// ArrayGet returns a copy of the element at index.
func ArrayGet[T any](a *Arena, id ArrayID[T], index uint64) (T, error) {
	s := getArraySlab[T](a)
	var zero T
	rec, err := s.resolve(id.slot)
	if err != nil {
		return zero, err
	}
	leaf, off, err := locate(s, rec, index)
	if err != nil {
		return zero, err
	}
	return leaf.values[off], nil
}

// ArrayRead copies len(buf) consecutive elements starting at index into buf.
func ArrayRead[T any](a *Arena, id ArrayID[T], index uint64, buf []T) error {
	for i := range buf {
		v, err := ArrayGet(a, id, index+uint64(i))
		if err != nil {
			return err
		}
		buf[i] = v
	}
	return nil
}

// ArrayGetMut returns a pointer to the element at index, copy-on-writing
// every page on the root-to-leaf path that is currently shared with a live
// snapshot.
func ArrayGetMut[T any](a *Arena, id ArrayID[T], index uint64) (*T, error) {
	s := getArraySlab[T](a)
	rec, err := s.resolve(id.slot)
	if err != nil {
		return nil, err
	}
	if index >= rec.size {
		return nil, errInvalidID()
	}
	path := pathIndices(index, rec.depth)

	rec.currentTop = ensureUnique(&s.storage, rec.currentTop)
	cur := rec.currentTop
	for lvl := 0; lvl < rec.depth; lvl++ {
		p := s.storage.pages[cur]
		childIdx := path[lvl]
		child := p.children[childIdx]
		newChild := ensureUnique(&s.storage, child)
		if newChild != child {
			p.children[childIdx] = newChild
		}
		cur = newChild
	}
	leaf := s.storage.pages[cur]
	a.markDirty()
	return &leaf.values[path[rec.depth]], nil
}

// ArraySet writes a single element, copy-on-writing as ArrayGetMut would.
func ArraySet[T any](a *Arena, id ArrayID[T], index uint64, v T) error {
	p, err := ArrayGetMut(a, id, index)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ArrayWrite writes buf to len(buf) consecutive elements starting at index.
func ArrayWrite[T any](a *Arena, id ArrayID[T], index uint64, buf []T) error {
	for i, v := range buf {
		if err := ArraySet(a, id, index+uint64(i), v); err != nil {
			return err
		}
	}
	return nil
}

// ArrayReset restores every element of id to the value it was created
// with, in O(depth) rather than O(size): it simply swaps the current page
// tree out for the array's retained reset tree.
func ArrayReset[T any](a *Arena, id ArrayID[T]) error {
	s := getArraySlab[T](a)
	rec, err := s.resolve(id.slot)
	if err != nil {
		return err
	}
	releasePage(&s.storage, rec.currentTop, rec.depth)
	rec.currentTop = rec.resetTop
	s.storage.pages[rec.resetTop].refcount++
	a.markDirty()
	return nil
}
