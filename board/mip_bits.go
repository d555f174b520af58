package board

// Standard RISC-V mip/mie bit positions used when wiring device IRQ
// lines to the core. Mirrored here (rather than imported from cpu) since
// they are a fixed part of the privileged ISA, not a decision the cpu
// package's CSR dispatch table makes.
const (
	mipSSIPBit uint32 = 1
	mipMSIPBit uint32 = 3
	mipSTIPBit uint32 = 5
	mipMTIPBit uint32 = 7
	mipSEIPBit uint32 = 9
	mipMEIPBit uint32 = 11
)
