package bus

import (
	"sort"

	"rv32spin/alloc"
)

type region struct {
	Range
	deviceIndex int
	base        uint32 // device-relative address of Range.Start
}

// Bus is a 32-bit physical address space crossbar. Devices are attached
// with one or more Mappings; an access is forwarded to a device only if
// its entire (address, size) span fits within a single mapped region,
// otherwise it silently does nothing, matching real TileLink semantics
// for an out-of-range or straddling access.
type Bus struct {
	devices []Device
	regions []region // kept sorted by Start, pairwise non-overlapping
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{}
}

// Attach registers device and binds each of its mappings into the bus's
// address space. Returns an error if any mapping overlaps a previously
// attached region, or if a mapping's source and target ranges differ in
// size.
func (b *Bus) Attach(device Device, mappings ...Mapping) error {
	index := len(b.devices)
	b.devices = append(b.devices, device)
	for _, m := range mappings {
		if m.Source.Len() != m.Target.Len() {
			return errSizeMismatch(m.Source, m.Target)
		}
		if err := b.insertRegion(region{Range: m.Source, deviceIndex: index, base: m.Target.Start}); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bus) insertRegion(r region) error {
	i := sort.Search(len(b.regions), func(i int) bool { return b.regions[i].Start > r.Start })
	if i > 0 && b.regions[i-1].End >= r.Start {
		return errOverlap(r.Range)
	}
	if i < len(b.regions) && b.regions[i].Start <= r.End {
		return errOverlap(r.Range)
	}
	b.regions = append(b.regions, region{})
	copy(b.regions[i+1:], b.regions[i:])
	b.regions[i] = r
	return nil
}

// locate returns the device and translated address for an access of size
// bytes starting at addr, or false if no single mapped region covers the
// whole access.
func (b *Bus) locate(addr uint32, size uint32) (Device, uint32, bool) {
	i := sort.Search(len(b.regions), func(i int) bool { return b.regions[i].Start > addr })
	if i == 0 {
		return nil, 0, false
	}
	r := b.regions[i-1]
	if !r.contains(addr) {
		return nil, 0, false
	}
	if size == 0 {
		return b.devices[r.deviceIndex], r.base + (addr - r.Start), true
	}
	if uint64(size)-1 > uint64(r.End)-uint64(addr) {
		return nil, 0, false // access straddles past the end of this region
	}
	return b.devices[r.deviceIndex], r.base + (addr - r.Start), true
}

// Accepts reports whether an access of size bytes starting at addr is
// entirely contained within one mapped region.
func (b *Bus) Accepts(addr uint32, size uint32) bool {
	_, _, ok := b.locate(addr, size)
	return ok
}

// Read performs an access of len(buf) bytes at addr, which may have
// side effects. An access outside any mapped region, or straddling two
// regions, silently leaves buf untouched.
func (b *Bus) Read(buf []byte, a *alloc.Arena, addr uint32) {
	dev, mapped, ok := b.locate(addr, uint32(len(buf)))
	if !ok {
		return
	}
	dev.Read(buf, a, mapped)
}

// ReadDebug performs a side-effect-free read for inspection (the GDB
// stub's memory-read command uses this, never Read). Returns an error if
// the addressed device cannot service a pure read at addr; an unmapped or
// straddling access is not an error, it just leaves buf untouched.
func (b *Bus) ReadDebug(buf []byte, a *alloc.Arena, addr uint32) error {
	dev, mapped, ok := b.locate(addr, uint32(len(buf)))
	if !ok {
		return nil
	}
	if err := dev.ReadPure(buf, a, mapped); err != nil {
		return err
	}
	return nil
}

// Write performs an access of len(buf) bytes at addr. An access outside
// any mapped region, or straddling two regions, silently does nothing.
func (b *Bus) Write(a *alloc.Arena, addr uint32, buf []byte) {
	dev, mapped, ok := b.locate(addr, uint32(len(buf)))
	if !ok {
		return
	}
	dev.Write(a, mapped, buf)
}
