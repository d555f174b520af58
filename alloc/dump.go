package alloc

import (
	"io"

	"github.com/bradleyjkemp/memviz"
)

// DumpGraph renders the Arena's current in-memory page and cell graph as
// Graphviz dot to w, for debugging refcount/sharing issues interactively
// (analogous to gopher2600's debugger "memmap" output, but for the
// allocator's own internal structure rather than the guest's memory map).
func DumpGraph(w io.Writer, a *Arena) {
	memviz.Map(w, a)
}
