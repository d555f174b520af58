package board

import "rv32spin/curated"

func errEffectfulReadOnly(addr uint32) error {
	return curated.Errorf(curated.EffectfulReadOnly, "address %#x has no side-effect-free read", addr)
}
