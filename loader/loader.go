// Package loader places pre-positioned byte ranges into a board's bus at
// fixed physical addresses. ELF parsing itself is out of scope (spec.md's
// explicit Non-goal); a caller that wants to load an ELF file parses it
// with an external library and hands this package the resulting
// PT_LOAD-equivalent (physical address, bytes) pairs.
//
// Grounded on spec.md §6.4 and original_source/red-planet-cli's firmware
// loading, which does the same "write each segment's bytes to its
// load address" step after its own out-of-scope ELF parse.
package loader

import (
	"sort"

	"rv32spin/alloc"
	"rv32spin/bus"
	"rv32spin/curated"
)

// LoadSegment writes data to b starting at the physical address paddr,
// refusing to write past the end of whatever single device is mapped
// there (bus.Accepts is the same check the MMU uses to classify an
// unmapped access as a fault rather than silently dropping it).
func LoadSegment(b *bus.Bus, a *alloc.Arena, paddr uint32, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if !b.Accepts(paddr, uint32(len(data))) {
		return curated.Errorf(curated.AccessFault, "segment at %#x (%d bytes) is unmapped or straddles a device boundary", paddr, len(data))
	}
	b.Write(a, paddr, data)
	return nil
}

// LoadSegments loads each segment in ascending address order, stopping at
// the first error.
func LoadSegments(b *bus.Bus, a *alloc.Arena, segments map[uint32][]byte) error {
	addrs := make([]uint32, 0, len(segments))
	for paddr := range segments {
		addrs = append(addrs, paddr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	for _, paddr := range addrs {
		if err := LoadSegment(b, a, paddr, segments[paddr]); err != nil {
			return err
		}
	}
	return nil
}
