package cpu

import "rv32spin/alloc"

// csrState holds every CSR except mip, which lives in its own Cell (see
// CSRFile.mip) so devices can raise/lower interrupt bits directly without
// going through the rest of the CSR file.
//
// Grounded on original_source/red-planet-core/src/core/csr.rs's field
// set, restricted to spec.md §6.5's minimum supported specifiers.
type csrState struct {
	mstatus  uint32
	mstatush uint32

	medeleg uint32
	mideleg uint32
	mie     uint32
	mtvec   uint32

	mcounteren    uint32
	mcountinhibit uint32

	mscratch uint32
	mepc     uint32
	mcause   uint32
	mtval    uint32
	mtinst   uint32
	mtval2   uint32

	menvcfg  uint32
	menvcfgh uint32

	mcycle   uint64
	minstret uint64

	stvec      uint32
	scounteren uint32
	senvcfg    uint32
	sscratch   uint32
	sepc       uint32
	scause     uint32
	stval      uint32

	fflags uint8
	frm    uint8

	// seipInternal is the software-writable component of mip's SEIP bit
	// (set via a CSR write to mip); seipExternal is the component any
	// future device asserting the S-level external line would drive. This
	// board's PLIC targets MEIP directly (see board.NewBoard), so
	// seipExternal is currently always false; SEIP's visible value is
	// still composed as their OR, per original_source/red-planet-core's
	// Interrupts.seip_internal/seip_external.
	seipInternal bool
	seipExternal bool

	// skipCycleIncrement/skipInstretIncrement are sticky "this tick wrote
	// the counter" flags: set when a csrw targets mcycle(h)/minstret(h),
	// consumed and cleared by the next TickCounters call so that tick's
	// automatic increment doesn't clobber the write.
	skipCycleIncrement   bool
	skipInstretIncrement bool
}

// mstatus bit positions (RV32).
const (
	mstatusSIEBit  = 1
	mstatusMIEBit  = 3
	mstatusSPIEBit = 5
	mstatusUBEBit  = 6
	mstatusMPIEBit = 7
	mstatusSPPBit  = 8
	mstatusMPPLo   = 11 // 2-bit field, bits 11:12
	mstatusMPRVBit = 17
	mstatusSUMBit  = 18
	mstatusMXRBit  = 19
	mstatusTVMBit  = 20
	mstatusTWBit   = 21
	mstatusTSRBit  = 22

	mstatushSBEBit = 4
	mstatushMBEBit = 5
)

func bit(v uint32, n uint) bool { return v&(1<<n) != 0 }
func setBit(v *uint32, n uint, set bool) {
	if set {
		*v |= 1 << n
	} else {
		*v &^= 1 << n
	}
}

// sstatusMask selects the mstatus bits visible through sstatus: the
// restricted supervisor-and-below view of the full machine status
// register (SIE, SPIE, UBE, SPP, SUM, MXR). FS, XS and SD are not
// implemented and are not part of the mask.
const sstatusMask uint32 = (1 << mstatusSIEBit) | (1 << mstatusSPIEBit) | (1 << mstatusUBEBit) |
	(1 << mstatusSPPBit) | (1 << mstatusSUMBit) | (1 << mstatusMXRBit)

// TimeSource reads the board's free-running mtime counter, letting the
// unprivileged time/timeh CSRs shadow a device the cpu package otherwise
// knows nothing about (the CLINT lives in package board).
type TimeSource func(a *alloc.Arena) uint64

// CSRFile is a hart's control and status register file.
type CSRFile struct {
	mip    alloc.CellID[uint32]
	state  alloc.CellID[csrState]
	hartID uint32
	time   TimeSource
}

// NewCSRFile inserts a CSR file in its reset state for the given hart,
// using timeSource to service the time/timeh CSRs.
func NewCSRFile(a *alloc.Arena, hartID uint32, timeSource TimeSource) *CSRFile {
	return &CSRFile{
		mip: alloc.Insert(a, uint32(0)),
		state: alloc.Insert(a, csrState{
			// Counters are accessible from every mode out of reset; a
			// supervisor restricts access by clearing bits explicitly,
			// matching original_source/red-planet-core's Counteren::new().
			mcounteren: 0xFFFF_FFFF,
			scounteren: 0xFFFF_FFFF,
		}),
		hartID: hartID,
		time:   timeSource,
	}
}

// MIPCell exposes the mip register's CellID so board.IRQLine callbacks
// can flip its bits directly.
func (f *CSRFile) MIPCell() alloc.CellID[uint32] { return f.mip }

// CSRError distinguishes why a CSR access is illegal, so the executor can
// raise the correct trap.
type CSRError int

const (
	// CSRErrUnsupported: the specifier names no implemented CSR.
	CSRErrUnsupported CSRError = iota
	// CSRErrPrivilege: the current privilege level is below the
	// specifier's minimum required level.
	CSRErrPrivilege
	// CSRErrReadOnly: a write was attempted on a read-only specifier.
	CSRErrReadOnly
)

func (e CSRError) Error() string {
	switch e {
	case CSRErrPrivilege:
		return "insufficient privilege for CSR access"
	case CSRErrReadOnly:
		return "write to read-only CSR"
	default:
		return "unsupported CSR"
	}
}

type csrEntry struct {
	read  func(f *CSRFile, a *alloc.Arena) uint32
	write func(f *CSRFile, a *alloc.Arena, value uint32)
}

// csrDispatch is the CSR dispatch table: one entry per supported
// specifier, keyed by its 12-bit address. A map rather than a flat
// 4096-entry array, since CSRSpecifier values are sparse and a map avoids
// holding ~4000 unused slots — the same "table lookup instead of a giant
// switch" shape spec.md's redesign note asks for, sized to what's
// actually implemented.
var csrDispatch map[CSRSpecifier]csrEntry

func init() {
	csrDispatch = map[CSRSpecifier]csrEntry{
		csrFFLAGS: {
			read:  func(f *CSRFile, a *alloc.Arena) uint32 { return uint32(get(f, a).fflags) },
			write: func(f *CSRFile, a *alloc.Arena, v uint32) { getMut(f, a).fflags = uint8(v & 0x1F) },
		},
		csrFRM: {
			read:  func(f *CSRFile, a *alloc.Arena) uint32 { return uint32(get(f, a).frm) },
			write: func(f *CSRFile, a *alloc.Arena, v uint32) { getMut(f, a).frm = uint8(v & 0x7) },
		},
		csrFCSR: {
			read: func(f *CSRFile, a *alloc.Arena) uint32 {
				s := get(f, a)
				return uint32(s.fflags) | uint32(s.frm)<<5
			},
			write: func(f *CSRFile, a *alloc.Arena, v uint32) {
				s := getMut(f, a)
				s.fflags = uint8(v & 0x1F)
				s.frm = uint8((v >> 5) & 0x7)
			},
		},
		csrCYCLE:    {read: func(f *CSRFile, a *alloc.Arena) uint32 { return uint32(get(f, a).mcycle) }},
		csrCYCLEH:   {read: func(f *CSRFile, a *alloc.Arena) uint32 { return uint32(get(f, a).mcycle >> 32) }},
		csrINSTRET:  {read: func(f *CSRFile, a *alloc.Arena) uint32 { return uint32(get(f, a).minstret) }},
		csrINSTRETH: {read: func(f *CSRFile, a *alloc.Arena) uint32 { return uint32(get(f, a).minstret >> 32) }},
		csrTIME:     {read: func(f *CSRFile, a *alloc.Arena) uint32 { return uint32(f.time(a)) }},
		csrTIMEH:    {read: func(f *CSRFile, a *alloc.Arena) uint32 { return uint32(f.time(a) >> 32) }},

		csrSSTATUS: {
			read: func(f *CSRFile, a *alloc.Arena) uint32 { return get(f, a).mstatus & sstatusMask },
			write: func(f *CSRFile, a *alloc.Arena, v uint32) {
				s := getMut(f, a)
				s.mstatus = (s.mstatus &^ sstatusMask) | (v & sstatusMask)
			},
		},
		csrSIE: {
			read:  func(f *CSRFile, a *alloc.Arena) uint32 { return get(f, a).mie & sMask(f, a) },
			write: func(f *CSRFile, a *alloc.Arena, v uint32) { maskedWrite(&getMut(f, a).mie, v, sMask(f, a)) },
		},
		csrSIP: {
			read: func(f *CSRFile, a *alloc.Arena) uint32 {
				mip, _ := alloc.Get(a, f.mip)
				return mip & sMask(f, a)
			},
			write: func(f *CSRFile, a *alloc.Arena, v uint32) {
				// SEIP and STIP are read-only through sip; only SSIP is
				// software-settable here, regardless of mideleg.
				p, err := alloc.GetMut(a, f.mip)
				if err != nil {
					return
				}
				setBit(p, mipSSIPWire, bit(v, mipSSIPWire))
			},
		},
		csrSTVEC:      {read: func(f *CSRFile, a *alloc.Arena) uint32 { return get(f, a).stvec }, write: func(f *CSRFile, a *alloc.Arena, v uint32) { getMut(f, a).stvec = v }},
		csrSCOUNTEREN: {read: func(f *CSRFile, a *alloc.Arena) uint32 { return get(f, a).scounteren }, write: func(f *CSRFile, a *alloc.Arena, v uint32) { getMut(f, a).scounteren = v }},
		csrSENVCFG:    {read: func(f *CSRFile, a *alloc.Arena) uint32 { return get(f, a).senvcfg }, write: func(f *CSRFile, a *alloc.Arena, v uint32) { getMut(f, a).senvcfg = v }},
		csrSSCRATCH:   {read: func(f *CSRFile, a *alloc.Arena) uint32 { return get(f, a).sscratch }, write: func(f *CSRFile, a *alloc.Arena, v uint32) { getMut(f, a).sscratch = v }},
		csrSEPC:       {read: func(f *CSRFile, a *alloc.Arena) uint32 { return get(f, a).sepc &^ 0b11 }, write: func(f *CSRFile, a *alloc.Arena, v uint32) { getMut(f, a).sepc = v &^ 0b11 }},
		csrSCAUSE:     {read: func(f *CSRFile, a *alloc.Arena) uint32 { return get(f, a).scause }, write: func(f *CSRFile, a *alloc.Arena, v uint32) { getMut(f, a).scause = v }},
		csrSTVAL:      {read: func(f *CSRFile, a *alloc.Arena) uint32 { return get(f, a).stval }, write: func(f *CSRFile, a *alloc.Arena, v uint32) { getMut(f, a).stval = v }},
		csrSATP:       {read: func(f *CSRFile, a *alloc.Arena) uint32 { return 0 }, write: func(f *CSRFile, a *alloc.Arena, v uint32) {}},

		csrMVENDORID:  {read: func(f *CSRFile, a *alloc.Arena) uint32 { return 0 }},
		csrMARCHID:    {read: func(f *CSRFile, a *alloc.Arena) uint32 { return 0 }},
		csrMIMPID:     {read: func(f *CSRFile, a *alloc.Arena) uint32 { return 0 }},
		csrMHARTID:    {read: func(f *CSRFile, a *alloc.Arena) uint32 { return f.hartID }},
		csrMCONFIGPTR: {read: func(f *CSRFile, a *alloc.Arena) uint32 { return 0 }},

		csrMSTATUS: {
			// FS/XS/SD are not implemented (no F extension), so every bit
			// software can set is accepted verbatim; unimplemented fields
			// simply read back whatever was last written, matching a
			// hart with no floating-point unit to report status for.
			read:  func(f *CSRFile, a *alloc.Arena) uint32 { return get(f, a).mstatus },
			write: func(f *CSRFile, a *alloc.Arena, v uint32) { getMut(f, a).mstatus = v },
		},
		csrMISA:    {read: func(f *CSRFile, a *alloc.Arena) uint32 { return misaValue }, write: func(f *CSRFile, a *alloc.Arena, v uint32) {}},
		csrMEDELEG: {read: func(f *CSRFile, a *alloc.Arena) uint32 { return get(f, a).medeleg }, write: func(f *CSRFile, a *alloc.Arena, v uint32) { getMut(f, a).medeleg = v }},
		csrMIDELEG: {
			read:  func(f *CSRFile, a *alloc.Arena) uint32 { return get(f, a).mideleg },
			write: func(f *CSRFile, a *alloc.Arena, v uint32) { maskedWrite(&getMut(f, a).mideleg, v, delegatableInterruptsMask) },
		},
		csrMIE: {
			read:  func(f *CSRFile, a *alloc.Arena) uint32 { return get(f, a).mie },
			write: func(f *CSRFile, a *alloc.Arena, v uint32) { maskedWrite(&getMut(f, a).mie, v, validInterruptsMask) },
		},
		csrMTVEC:    {read: func(f *CSRFile, a *alloc.Arena) uint32 { return get(f, a).mtvec }, write: func(f *CSRFile, a *alloc.Arena, v uint32) { writeTVec(&getMut(f, a).mtvec, v) }},
		csrMCOUNTEREN: {read: func(f *CSRFile, a *alloc.Arena) uint32 { return get(f, a).mcounteren }, write: func(f *CSRFile, a *alloc.Arena, v uint32) { getMut(f, a).mcounteren = v }},
		csrMSTATUSH: {
			read: func(f *CSRFile, a *alloc.Arena) uint32 { return get(f, a).mstatush & ((1 << mstatushSBEBit) | (1 << mstatushMBEBit)) },
			write: func(f *CSRFile, a *alloc.Arena, v uint32) {
				getMut(f, a).mstatush = v & ((1 << mstatushSBEBit) | (1 << mstatushMBEBit))
			},
		},

		csrMSCRATCH: {read: func(f *CSRFile, a *alloc.Arena) uint32 { return get(f, a).mscratch }, write: func(f *CSRFile, a *alloc.Arena, v uint32) { getMut(f, a).mscratch = v }},
		csrMEPC:     {read: func(f *CSRFile, a *alloc.Arena) uint32 { return get(f, a).mepc &^ 0b11 }, write: func(f *CSRFile, a *alloc.Arena, v uint32) { getMut(f, a).mepc = v &^ 0b11 }},
		csrMCAUSE:   {read: func(f *CSRFile, a *alloc.Arena) uint32 { return get(f, a).mcause }, write: func(f *CSRFile, a *alloc.Arena, v uint32) { getMut(f, a).mcause = v }},
		csrMTVAL:    {read: func(f *CSRFile, a *alloc.Arena) uint32 { return get(f, a).mtval }, write: func(f *CSRFile, a *alloc.Arena, v uint32) { getMut(f, a).mtval = v }},
		csrMIP: {
			read: func(f *CSRFile, a *alloc.Arena) uint32 { v, _ := alloc.Get(a, f.mip); return v },
			write: func(f *CSRFile, a *alloc.Arena, v uint32) {
				// MEIP and MTIP are managed externally (by the PLIC and
				// the CLINT's mtime/mtimecmp comparison); this board's
				// CLINT has no MSIP register, so nothing drives MSIP. All
				// three ignore CSR writes entirely. SSIP and STIP are
				// plain software bits.
				// SEIP is the OR of this software-writable component and
				// an external component a device could assert later.
				p, err := alloc.GetMut(a, f.mip)
				if err != nil {
					return
				}
				s := getMut(f, a)
				s.seipInternal = bit(v, mipSEIPWire)
				setBit(p, mipSEIPWire, s.seipInternal || s.seipExternal)
				setBit(p, mipSSIPWire, bit(v, mipSSIPWire))
				setBit(p, mipSTIPWire, bit(v, mipSTIPWire))
			},
		},
		csrMTINST: {read: func(f *CSRFile, a *alloc.Arena) uint32 { return get(f, a).mtinst }, write: func(f *CSRFile, a *alloc.Arena, v uint32) { getMut(f, a).mtinst = v }},
		csrMTVAL2: {read: func(f *CSRFile, a *alloc.Arena) uint32 { return get(f, a).mtval2 }, write: func(f *CSRFile, a *alloc.Arena, v uint32) { getMut(f, a).mtval2 = v }},

		csrMENVCFG:  {read: func(f *CSRFile, a *alloc.Arena) uint32 { return get(f, a).menvcfg }, write: func(f *CSRFile, a *alloc.Arena, v uint32) { getMut(f, a).menvcfg = v }},
		csrMENVCFGH: {read: func(f *CSRFile, a *alloc.Arena) uint32 { return get(f, a).menvcfgh }, write: func(f *CSRFile, a *alloc.Arena, v uint32) { getMut(f, a).menvcfgh = v }},

		csrMCYCLE: {read: func(f *CSRFile, a *alloc.Arena) uint32 { return uint32(get(f, a).mcycle) }, write: func(f *CSRFile, a *alloc.Arena, v uint32) {
			s := getMut(f, a)
			s.mcycle = (s.mcycle &^ 0xFFFFFFFF) | uint64(v)
			s.skipCycleIncrement = true
		}},
		csrMCYCLEH: {read: func(f *CSRFile, a *alloc.Arena) uint32 { return uint32(get(f, a).mcycle >> 32) }, write: func(f *CSRFile, a *alloc.Arena, v uint32) {
			s := getMut(f, a)
			s.mcycle = (s.mcycle & 0xFFFFFFFF) | (uint64(v) << 32)
			s.skipCycleIncrement = true
		}},
		csrMINSTRET: {read: func(f *CSRFile, a *alloc.Arena) uint32 { return uint32(get(f, a).minstret) }, write: func(f *CSRFile, a *alloc.Arena, v uint32) {
			s := getMut(f, a)
			s.minstret = (s.minstret &^ 0xFFFFFFFF) | uint64(v)
			s.skipInstretIncrement = true
		}},
		csrMINSTRETH: {read: func(f *CSRFile, a *alloc.Arena) uint32 { return uint32(get(f, a).minstret >> 32) }, write: func(f *CSRFile, a *alloc.Arena, v uint32) {
			s := getMut(f, a)
			s.minstret = (s.minstret & 0xFFFFFFFF) | (uint64(v) << 32)
			s.skipInstretIncrement = true
		}},
		csrMCOUNTINHIBIT: {read: func(f *CSRFile, a *alloc.Arena) uint32 { return get(f, a).mcountinhibit }, write: func(f *CSRFile, a *alloc.Arena, v uint32) { getMut(f, a).mcountinhibit = v }},
	}
}

func get(f *CSRFile, a *alloc.Arena) csrState {
	s, _ := alloc.Get(a, f.state)
	return s
}

func getMut(f *CSRFile, a *alloc.Arena) *csrState {
	s, _ := alloc.GetMut(a, f.state)
	return s
}

const (
	mipSSIPWire = 1
	mipSTIPWire = 5
	mipSEIPWire = 9
)

// validInterruptsMask selects the mie/mip bits that are architecturally
// defined: the three S-level and three M-level interrupt causes. Grounded
// on original_source/red-planet-core/src/core/interrupts.rs's
// VALID_INTERRUPTS_MASK.
const validInterruptsMask uint32 = (1 << mipSSIPWire) | (1 << mipMSIPWire) |
	(1 << mipSTIPWire) | (1 << mipMTIPWire) | (1 << mipSEIPWire) | (1 << mipMEIPWire)

// delegatableInterruptsMask selects the mideleg bits QEMU's implementation
// (and this one) allows delegating to S-mode: the three S-level interrupt
// causes. Grounded on the same file's DELEGATABLE_INTERRUPTS_MASK.
const delegatableInterruptsMask uint32 = (1 << mipSSIPWire) | (1 << mipSTIPWire) | (1 << mipSEIPWire)

// sMask returns the live mideleg value, which is how much of mie/mip is
// visible and writable through sie/sip (masked by whatever the current
// privilege level has delegated to S-mode, not a fixed set of bits).
func sMask(f *CSRFile, a *alloc.Arena) uint32 { return get(f, a).mideleg }

func maskedWrite(dst *uint32, value, mask uint32) {
	*dst = (*dst &^ mask) | (value & mask)
}

// writeTVec applies the mtvec/stvec WARL MODE-field rule: only Direct (0)
// and Vectored (1) are valid; any other 2-bit value leaves the register
// unchanged (spec.md Open Question 3 / DESIGN.md resolution).
func writeTVec(dst *uint32, value uint32) {
	mode := value & 0b11
	if mode >= 2 {
		return
	}
	*dst = value
}

// counterEnableBit returns specifier's bit position in mcounteren/
// scounteren (CY=0, TM=1, IR=2), or -1 if specifier isn't one of the
// counter-enable-gated unprivileged counter views.
func counterEnableBit(specifier CSRSpecifier) int {
	switch specifier {
	case csrCYCLE, csrCYCLEH:
		return 0
	case csrTIME, csrTIMEH:
		return 1
	case csrINSTRET, csrINSTRETH:
		return 2
	default:
		return -1
	}
}

// Read performs a CSR read, returning CSRErrUnsupported/CSRErrPrivilege if
// the access is illegal for mode.
func (f *CSRFile) Read(a *alloc.Arena, specifier CSRSpecifier, mode Privilege) (uint32, error) {
	entry, ok := csrDispatch[specifier]
	if !ok || entry.read == nil {
		return 0, CSRErrUnsupported
	}
	if mode < requiredPrivilege(specifier) {
		return 0, CSRErrPrivilege
	}
	// cycle/time/instret are nominally accessible from every mode, but
	// mcounteren (and, below Supervisor, scounteren) can cascade them off:
	// spec.md §4.6's counter-enable cascade.
	if cb := counterEnableBit(specifier); cb >= 0 {
		s := get(f, a)
		if mode < Machine && s.mcounteren&(1<<uint(cb)) == 0 {
			return 0, CSRErrPrivilege
		}
		if mode < Supervisor && s.scounteren&(1<<uint(cb)) == 0 {
			return 0, CSRErrPrivilege
		}
	}
	return entry.read(f, a), nil
}

// Write performs a CSR write, returning CSRErrUnsupported/CSRErrPrivilege/
// CSRErrReadOnly if the access is illegal for mode.
func (f *CSRFile) Write(a *alloc.Arena, specifier CSRSpecifier, mode Privilege, value uint32) error {
	entry, ok := csrDispatch[specifier]
	if !ok {
		return CSRErrUnsupported
	}
	if mode < requiredPrivilege(specifier) {
		return CSRErrPrivilege
	}
	if isReadOnly(specifier) || entry.write == nil {
		return CSRErrReadOnly
	}
	entry.write(f, a, value)
	return nil
}

// MStatusBits is a decoded, read-only snapshot of mstatus/mstatush's
// individual fields, used by the core tick's trap-entry and
// interrupt-selection logic.
type MStatusBits struct {
	SIE, MIE   bool
	SPIE, MPIE bool
	SPP        Privilege // Supervisor or User
	MPP        Privilege
	MBE, SBE, UBE bool
}

// StatusBits decodes the current mstatus/mstatush fields.
func (f *CSRFile) StatusBits(a *alloc.Arena) MStatusBits {
	s := get(f, a)
	spp := User
	if bit(s.mstatus, mstatusSPPBit) {
		spp = Supervisor
	}
	return MStatusBits{
		SIE:  bit(s.mstatus, mstatusSIEBit),
		MIE:  bit(s.mstatus, mstatusMIEBit),
		SPIE: bit(s.mstatus, mstatusSPIEBit),
		MPIE: bit(s.mstatus, mstatusMPIEBit),
		SPP:  spp,
		MPP:  Privilege((s.mstatus >> mstatusMPPLo) & 0b11),
		MBE:  bit(s.mstatush, mstatushMBEBit),
		SBE:  bit(s.mstatush, mstatushSBEBit),
		UBE:  bit(s.mstatus, mstatusUBEBit),
	}
}

// EnterTrap updates mstatus's interrupt-enable/previous-state bits and
// privilege-previous field on entry into toMode, per the RISC-V
// privileged spec's xIE/xPIE/xPP save sequence.
func (f *CSRFile) EnterTrap(a *alloc.Arena, fromMode, toMode Privilege) {
	s := getMut(f, a)
	if toMode == Machine {
		setBit(&s.mstatus, mstatusMPIEBit, bit(s.mstatus, mstatusMIEBit))
		setBit(&s.mstatus, mstatusMIEBit, false)
		s.mstatus = (s.mstatus &^ (0b11 << mstatusMPPLo)) | (uint32(fromMode) << mstatusMPPLo)
	} else {
		setBit(&s.mstatus, mstatusSPIEBit, bit(s.mstatus, mstatusSIEBit))
		setBit(&s.mstatus, mstatusSIEBit, false)
		spp := uint32(0)
		if fromMode == Supervisor {
			spp = 1
		}
		setBit(&s.mstatus, mstatusSPPBit, spp != 0)
	}
}

// LeaveTrap restores mstatus's interrupt-enable bit from the saved
// previous-state bit on mret/sret, returning the privilege level to
// resume at.
func (f *CSRFile) LeaveTrap(a *alloc.Arena, mode Privilege) Privilege {
	s := getMut(f, a)
	if mode == Machine {
		setBit(&s.mstatus, mstatusMIEBit, bit(s.mstatus, mstatusMPIEBit))
		setBit(&s.mstatus, mstatusMPIEBit, true)
		prev := Privilege((s.mstatus >> mstatusMPPLo) & 0b11)
		s.mstatus = s.mstatus &^ (0b11 << mstatusMPPLo) // MPP reset to U per spec
		return prev
	}
	setBit(&s.mstatus, mstatusSIEBit, bit(s.mstatus, mstatusSPIEBit))
	setBit(&s.mstatus, mstatusSPIEBit, true)
	prev := User
	if bit(s.mstatus, mstatusSPPBit) {
		prev = Supervisor
	}
	setBit(&s.mstatus, mstatusSPPBit, false)
	return prev
}

// MEPC/SEPC/MCause/etc. accessors used by the core tick's trap-entry and
// mret/sret handling.

func (f *CSRFile) SetMEPC(a *alloc.Arena, pc uint32)    { getMut(f, a).mepc = pc &^ 0b11 }
func (f *CSRFile) MEPC(a *alloc.Arena) uint32            { return get(f, a).mepc }
func (f *CSRFile) SetSEPC(a *alloc.Arena, pc uint32)    { getMut(f, a).sepc = pc &^ 0b11 }
func (f *CSRFile) SEPC(a *alloc.Arena) uint32            { return get(f, a).sepc }
func (f *CSRFile) SetMCause(a *alloc.Arena, cause uint32) { getMut(f, a).mcause = cause }
func (f *CSRFile) SetSCause(a *alloc.Arena, cause uint32) { getMut(f, a).scause = cause }
func (f *CSRFile) SetMTval(a *alloc.Arena, val uint32)   { getMut(f, a).mtval = val }
func (f *CSRFile) SetSTval(a *alloc.Arena, val uint32)   { getMut(f, a).stval = val }
func (f *CSRFile) MTvec(a *alloc.Arena) uint32           { return get(f, a).mtvec }
func (f *CSRFile) STvec(a *alloc.Arena) uint32           { return get(f, a).stvec }
func (f *CSRFile) MIE(a *alloc.Arena) uint32             { return get(f, a).mie }
func (f *CSRFile) MIDeleg(a *alloc.Arena) uint32         { return get(f, a).mideleg }
func (f *CSRFile) MEDeleg(a *alloc.Arena) uint32         { return get(f, a).medeleg }
func (f *CSRFile) MIP(a *alloc.Arena) uint32             { v, _ := alloc.Get(a, f.mip); return v }

// MCycle and MInstret expose the raw 64-bit counters, e.g. for a
// metrics dashboard polling Simulator.Inspect() from outside the tick
// loop.
func (f *CSRFile) MCycle(a *alloc.Arena) uint64   { return get(f, a).mcycle }
func (f *CSRFile) MInstret(a *alloc.Arena) uint64 { return get(f, a).minstret }

// TickCounters increments mcycle, and minstret if retired is true,
// honoring mcountinhibit's CY/IR bits (spec.md §4.9's "counters" stage). A
// CSR write to mcycle(h)/minstret(h) earlier in the same tick suppresses
// that counter's increment here instead of being clobbered by it.
func (f *CSRFile) TickCounters(a *alloc.Arena, retired bool) {
	s := getMut(f, a)
	if s.mcountinhibit&0b1 == 0 && !s.skipCycleIncrement {
		s.mcycle++
	}
	if retired && s.mcountinhibit&0b100 == 0 && !s.skipInstretIncrement {
		s.minstret++
	}
	s.skipCycleIncrement = false
	s.skipInstretIncrement = false
}
