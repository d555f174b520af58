package alloc

// fanout is the fixed branching factor of every array's page tree,
// matching original_source/space-time/src/array_storage.rs's PAGE_SIZE.
const fanout = 64

// page is one node of an array's page tree: either a leaf holding fanout
// values directly, or an interior node holding fanout child page indices.
// Like a cellNode, a page can be referenced by more than one parent (or by
// more than one array instance, across HEAD and snapshots); refcount
// tracks how many.
type page[T any] struct {
	refcount int
	leaf     bool
	values   []T      // len == fanout, only set when leaf
	children []uint32 // len == fanout, only set when !leaf
}

// pageStorage is the shared slab of pages backing every Array of one
// concrete element type T. Pages are appended sequentially and recycled
// through a free list once their refcount drops to zero.
type pageStorage[T any] struct {
	pages []*page[T]
	free  []uint32
}

func (s *pageStorage[T]) alloc(p *page[T]) uint32 {
	if n := len(s.free); n > 0 {
		idx := s.free[n-1]
		s.free = s.free[:n-1]
		s.pages[idx] = p
		return idx
	}
	s.pages = append(s.pages, p)
	return uint32(len(s.pages) - 1)
}

func (s *pageStorage[T]) free_(idx uint32) {
	s.pages[idx] = nil
	s.free = append(s.free, idx)
}

// newFullPage builds a fresh subtree of `levels` interior hops above a
// leaf, every cell initialized to fill. Because every position at a given
// depth holds an identical subtree, this needs only one distinct page per
// level (shared fanout-many times by its parent), so construction costs
// O(levels), never O(fanout^levels).
func newFullPage[T any](s *pageStorage[T], fill T, levels int) uint32 {
	if levels == 0 {
		values := make([]T, fanout)
		for i := range values {
			values[i] = fill
		}
		return s.alloc(&page[T]{leaf: true, values: values, refcount: 1})
	}
	child := newFullPage(s, fill, levels-1)
	children := make([]uint32, fanout)
	for i := range children {
		children[i] = child
	}
	s.pages[child].refcount += fanout - 1 // alloc already counted one of the fanout references
	return s.alloc(&page[T]{leaf: false, children: children, refcount: 1})
}

// ensureUnique returns a page index holding the same content as id, whose
// refcount is exactly 1 (so it is safe to mutate in place). If id is
// already exclusive it is returned unchanged; otherwise a clone is
// allocated, the clone's children's refcounts are bumped (they now gain
// one more parent), and id's own refcount drops by the one reference being
// replaced.
func ensureUnique[T any](s *pageStorage[T], id uint32) uint32 {
	p := s.pages[id]
	if p.refcount == 1 {
		return id
	}
	var clone page[T]
	if p.leaf {
		values := make([]T, len(p.values))
		copy(values, p.values)
		clone = page[T]{leaf: true, values: values, refcount: 1}
	} else {
		children := make([]uint32, len(p.children))
		copy(children, p.children)
		for _, c := range children {
			s.pages[c].refcount++
		}
		clone = page[T]{leaf: false, children: children, refcount: 1}
	}
	newID := s.alloc(&clone)
	p.refcount--
	return newID
}

// releasePage drops one reference to id. levelsRemaining is the number of
// interior hops below id (0 if id is itself a leaf). If the refcount
// reaches zero the page is recycled and, for an interior page, every
// child is released in turn — this can touch many pages in the worst
// case, but only ones that were actually forked since the last shared
// ancestor, never the whole tree.
func releasePage[T any](s *pageStorage[T], id uint32, levelsRemaining int) {
	p := s.pages[id]
	p.refcount--
	if p.refcount > 0 {
		return
	}
	if !p.leaf {
		for _, c := range p.children {
			releasePage(s, c, levelsRemaining-1)
		}
	}
	s.free_(id)
}

// pathIndices decomposes index into depth+1 base-fanout digits,
// most-significant (topmost level) first; the last digit is the offset
// within the leaf page.
func pathIndices(index uint64, depth int) []int {
	digits := make([]int, depth+1)
	for i := depth; i >= 0; i-- {
		digits[i] = int(index % fanout)
		index /= fanout
	}
	return digits
}

// levelsFor returns the smallest depth such that fanout^(depth+1) >= n,
// i.e. the number of interior hops needed above the leaf level to address
// n elements (0 if they all fit in a single leaf page).
func levelsFor(n uint64) int {
	capacity := uint64(fanout)
	depth := 0
	for capacity < n {
		capacity *= fanout
		depth++
	}
	return depth
}
