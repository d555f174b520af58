package alloc

import "rv32spin/curated"

// errInvalidID reports that a CellID or ArrayID was never created by this
// Arena, or was removed from it.
func errInvalidID() error {
	return curated.Errorf(curated.InvalidID, "id not present in this arena")
}

// errInvalidSnapshotID reports that a SnapshotID was never returned by
// TakeSnapshot on this Arena, or has already been dropped.
func errInvalidSnapshotID() error {
	return curated.Errorf(curated.InvalidSnapshotID, "snapshot id not present in this arena")
}
