package cpu

// Exception is a synchronous trap cause, numbered per the RISC-V
// privileged spec's mcause/scause exception codes (bit 31 clear).
//
// Grounded on original_source/red-planet-core/src/core/mod.rs's
// Exception enum and its code() mapping; page-fault variants are kept for
// completeness of the numbering even though this simulator never raises
// them (no S-mode paging, an explicit Non-goal).
type Exception int

const (
	InstructionAddressMisaligned Exception = iota
	InstructionAccessFault
	IllegalInstruction
	Breakpoint
	LoadAddressMisaligned
	LoadAccessFault
	StoreOrAmoAddressMisaligned
	StoreOrAmoAccessFault
	EnvironmentCallFromUMode
	EnvironmentCallFromSMode
	EnvironmentCallFromMMode
	InstructionPageFault
	LoadPageFault
	StoreOrAmoPageFault
)

// Code returns the exception's mcause/scause exception code.
func (e Exception) Code() uint32 {
	switch e {
	case InstructionAddressMisaligned:
		return 0
	case InstructionAccessFault:
		return 1
	case IllegalInstruction:
		return 2
	case Breakpoint:
		return 3
	case LoadAddressMisaligned:
		return 4
	case LoadAccessFault:
		return 5
	case StoreOrAmoAddressMisaligned:
		return 6
	case StoreOrAmoAccessFault:
		return 7
	case EnvironmentCallFromUMode:
		return 8
	case EnvironmentCallFromSMode:
		return 9
	case EnvironmentCallFromMMode:
		return 11
	case InstructionPageFault:
		return 12
	case LoadPageFault:
		return 13
	case StoreOrAmoPageFault:
		return 15
	}
	return 0
}

var exceptionNames = map[Exception]string{
	InstructionAddressMisaligned: "instruction address misaligned",
	InstructionAccessFault:       "instruction access fault",
	IllegalInstruction:           "illegal instruction",
	Breakpoint:                   "breakpoint",
	LoadAddressMisaligned:        "load address misaligned",
	LoadAccessFault:              "load access fault",
	StoreOrAmoAddressMisaligned:  "store/amo address misaligned",
	StoreOrAmoAccessFault:        "store/amo access fault",
	EnvironmentCallFromUMode:     "environment call from U-mode",
	EnvironmentCallFromSMode:     "environment call from S-mode",
	EnvironmentCallFromMMode:     "environment call from M-mode",
	InstructionPageFault:         "instruction page fault",
	LoadPageFault:                "load page fault",
	StoreOrAmoPageFault:          "store/amo page fault",
}

// Error lets Exception be returned and compared as a plain Go error.
func (e Exception) Error() string { return exceptionNames[e] }

func environmentCallFrom(mode Privilege) Exception {
	switch mode {
	case Machine:
		return EnvironmentCallFromMMode
	case Supervisor:
		return EnvironmentCallFromSMode
	default:
		return EnvironmentCallFromUMode
	}
}

// Interrupt is an asynchronous trap cause. The constants are numbered in
// priority order; Code maps each to its mip/mie bit position (also its
// mcause exception code, with bit 31 set).
//
// Grounded on original_source/red-planet-core/src/core/mod.rs's
// Interrupt enum, ordered highest to lowest priority per spec.md §4.9:
// MEI > MSI > MTI > SEI > SSI > STI.
type Interrupt int

const (
	MachineExternalInterrupt Interrupt = iota
	MachineSoftwareInterrupt
	MachineTimerInterrupt
	SupervisorExternalInterrupt
	SupervisorSoftwareInterrupt
	SupervisorTimerInterrupt
)

// Code returns the interrupt's mip/mie bit position, which is also its
// mcause exception code (with the interrupt bit set separately).
func (i Interrupt) Code() uint32 {
	switch i {
	case SupervisorSoftwareInterrupt:
		return mipSSIPWire
	case MachineSoftwareInterrupt:
		return mipMSIPWire
	case SupervisorTimerInterrupt:
		return mipSTIPWire
	case MachineTimerInterrupt:
		return mipMTIPWire
	case SupervisorExternalInterrupt:
		return mipSEIPWire
	case MachineExternalInterrupt:
		return mipMEIPWire
	}
	return 0
}

// mipSSIPWire/mipSTIPWire/mipSEIPWire are declared in csr.go, alongside the
// mie/mip masking logic that uses them; mipMSIPWire/mipMTIPWire/mipMEIPWire
// are declared here, and csr.go's validInterruptsMask uses them too.
const (
	mipMSIPWire = 3
	mipMTIPWire = 7
	mipMEIPWire = 11
)

// interruptPriorityOrder lists every interrupt in the priority order
// spec.md §4.9 mandates for simultaneous-pending selection.
var interruptPriorityOrder = []Interrupt{
	MachineExternalInterrupt,
	MachineSoftwareInterrupt,
	MachineTimerInterrupt,
	SupervisorExternalInterrupt,
	SupervisorSoftwareInterrupt,
	SupervisorTimerInterrupt,
}

// mcauseValue composes an mcause/scause register value for the given
// exception code, setting the interrupt bit when isInterrupt is true.
func mcauseValue(code uint32, isInterrupt bool) uint32 {
	if isInterrupt {
		return code | 0x8000_0000
	}
	return code
}
