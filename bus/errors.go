package bus

import "rv32spin/curated"

func errOverlap(r Range) error {
	return curated.Errorf(curated.AccessFault, "region %#x-%#x overlaps an already-attached region", r.Start, r.End)
}

func errSizeMismatch(source, target Range) error {
	return curated.Errorf(curated.AccessFault, "source region %#x-%#x and target region %#x-%#x differ in size", source.Start, source.End, target.Start, target.End)
}
