package cpu

import (
	"testing"

	"rv32spin/alloc"
	"rv32spin/test"
)

func newTestCSRFile(a *alloc.Arena) *CSRFile {
	return NewCSRFile(a, 0, func(a *alloc.Arena) uint64 { return 0 })
}

func TestMIEWriteMasksToValidInterruptBits(t *testing.T) {
	a := alloc.New()
	f := newTestCSRFile(a)

	test.ExpectSuccess(t, f.Write(a, csrMIE, Machine, 0xFFFF_FFFF))
	test.ExpectEquality(t, f.MIE(a), validInterruptsMask)
}

func TestMIDELEGWriteMasksToDelegatableBits(t *testing.T) {
	a := alloc.New()
	f := newTestCSRFile(a)

	test.ExpectSuccess(t, f.Write(a, csrMIDELEG, Machine, 0xFFFF_FFFF))
	test.ExpectEquality(t, f.MIDeleg(a), delegatableInterruptsMask)
}

func TestMIPWriteIgnoresHardwareManagedBits(t *testing.T) {
	a := alloc.New()
	f := newTestCSRFile(a)

	// Raise MTIP the way the CLINT would: directly through the mip Cell,
	// not through a CSR write.
	mipCell := f.MIPCell()
	p, err := alloc.GetMut(a, mipCell)
	test.ExpectSuccess(t, err)
	*p |= 1 << mipMTIPWire

	// A software write attempting to clear MTIP (and set MEIP/MSIP) must
	// not affect any of the three hardware-managed bits.
	test.ExpectSuccess(t, f.Write(a, csrMIP, Machine, (1<<mipMEIPWire)|(1<<mipMSIPWire)))

	test.ExpectTrue(t, f.MIP(a)&(1<<mipMTIPWire) != 0, "MTIP must survive a software mip write")
	test.ExpectTrue(t, f.MIP(a)&(1<<mipMEIPWire) == 0, "MEIP must not be settable via mip CSR write")
	test.ExpectTrue(t, f.MIP(a)&(1<<mipMSIPWire) == 0, "MSIP must not be settable via mip CSR write")
}

func TestMIPWriteSetsSoftwareInterruptBits(t *testing.T) {
	a := alloc.New()
	f := newTestCSRFile(a)

	test.ExpectSuccess(t, f.Write(a, csrMIP, Machine, (1<<mipSSIPWire)|(1<<mipSTIPWire)|(1<<mipSEIPWire)))
	test.ExpectEquality(t, f.MIP(a), uint32((1<<mipSSIPWire)|(1<<mipSTIPWire)|(1<<mipSEIPWire)))
}

func TestSIEReadWriteMaskedByLiveMIDeleg(t *testing.T) {
	a := alloc.New()
	f := newTestCSRFile(a)

	// Nothing delegated yet: sie must read/write as zero regardless of mie.
	test.ExpectSuccess(t, f.Write(a, csrMIE, Machine, validInterruptsMask))
	sie, err := f.Read(a, csrSIE, Supervisor)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, sie, uint32(0))

	// Delegate SEI to S-mode: sie must now expose (and accept writes to)
	// exactly that bit.
	test.ExpectSuccess(t, f.Write(a, csrMIDELEG, Machine, 1<<mipSEIPWire))
	sie, err = f.Read(a, csrSIE, Supervisor)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, sie, uint32(1<<mipSEIPWire))

	test.ExpectSuccess(t, f.Write(a, csrSIE, Supervisor, 0))
	test.ExpectEquality(t, f.MIE(a)&(1<<mipSEIPWire), uint32(0))
}

func TestSIPWriteOnlyAffectsSSIP(t *testing.T) {
	a := alloc.New()
	f := newTestCSRFile(a)
	test.ExpectSuccess(t, f.Write(a, csrMIDELEG, Machine, delegatableInterruptsMask))

	test.ExpectSuccess(t, f.Write(a, csrSIP, Supervisor, (1<<mipSSIPWire)|(1<<mipSTIPWire)|(1<<mipSEIPWire)))
	test.ExpectEquality(t, f.MIP(a), uint32(1<<mipSSIPWire))
}

func TestCounterReadGatedByMCounteren(t *testing.T) {
	a := alloc.New()
	f := newTestCSRFile(a)

	// Default reset state permits every mode to read every counter.
	_, err := f.Read(a, csrCYCLE, User)
	test.ExpectSuccess(t, err)

	// Clearing CY in mcounteren must deny User (and Supervisor) reads of
	// cycle, without touching time/instret.
	test.ExpectSuccess(t, f.Write(a, csrMCOUNTEREN, Machine, 0xFFFF_FFFE))
	_, err = f.Read(a, csrCYCLE, User)
	test.ExpectFailure(t, err)
	_, err = f.Read(a, csrTIME, User)
	test.ExpectSuccess(t, err)

	// Machine mode is never subject to the cascade.
	_, err = f.Read(a, csrCYCLE, Machine)
	test.ExpectSuccess(t, err)
}

func TestCounterReadGatedBySCounteren(t *testing.T) {
	a := alloc.New()
	f := newTestCSRFile(a)

	test.ExpectSuccess(t, f.Write(a, csrSCOUNTEREN, Supervisor, 0xFFFF_FFFB))
	_, err := f.Read(a, csrINSTRET, User)
	test.ExpectFailure(t, err)

	// Supervisor mode isn't gated by scounteren, only User is.
	_, err = f.Read(a, csrINSTRET, Supervisor)
	test.ExpectSuccess(t, err)
}

func TestMCycleWriteSuppressesSameTickIncrement(t *testing.T) {
	a := alloc.New()
	f := newTestCSRFile(a)

	test.ExpectSuccess(t, f.Write(a, csrMCYCLE, Machine, 100))
	f.TickCounters(a, false)
	test.ExpectEquality(t, f.MCycle(a), uint64(100))

	// The suppression is one-shot: the next tick increments normally.
	f.TickCounters(a, false)
	test.ExpectEquality(t, f.MCycle(a), uint64(101))
}

func TestMInstretWriteSuppressesSameTickIncrement(t *testing.T) {
	a := alloc.New()
	f := newTestCSRFile(a)

	test.ExpectSuccess(t, f.Write(a, csrMINSTRET, Machine, 50))
	f.TickCounters(a, true)
	test.ExpectEquality(t, f.MInstret(a), uint64(50))

	f.TickCounters(a, true)
	test.ExpectEquality(t, f.MInstret(a), uint64(51))
}
