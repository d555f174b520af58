package cpu

// CSRSpecifier is a 12-bit CSR address.
//
// Grounded on original_source/red-planet-core/src/core/csr.rs's constant
// list, restricted to the subset spec.md §6.5 calls out as the minimum
// supported set (no hypervisor extension, no debug-mode CSRs, no
// performance-monitoring HPM counters beyond cycle/instret).
type CSRSpecifier uint16

const (
	csrFFLAGS CSRSpecifier = 0x001
	csrFRM    CSRSpecifier = 0x002
	csrFCSR   CSRSpecifier = 0x003

	csrCYCLE    CSRSpecifier = 0xC00
	csrTIME     CSRSpecifier = 0xC01
	csrINSTRET  CSRSpecifier = 0xC02
	csrCYCLEH   CSRSpecifier = 0xC80
	csrTIMEH    CSRSpecifier = 0xC81
	csrINSTRETH CSRSpecifier = 0xC82

	csrSSTATUS    CSRSpecifier = 0x100
	csrSIE        CSRSpecifier = 0x104
	csrSTVEC      CSRSpecifier = 0x105
	csrSCOUNTEREN CSRSpecifier = 0x106
	csrSENVCFG    CSRSpecifier = 0x10A
	csrSSCRATCH   CSRSpecifier = 0x140
	csrSEPC       CSRSpecifier = 0x141
	csrSCAUSE     CSRSpecifier = 0x142
	csrSTVAL      CSRSpecifier = 0x143
	csrSIP        CSRSpecifier = 0x144
	csrSATP       CSRSpecifier = 0x180

	csrMVENDORID  CSRSpecifier = 0xF11
	csrMARCHID    CSRSpecifier = 0xF12
	csrMIMPID     CSRSpecifier = 0xF13
	csrMHARTID    CSRSpecifier = 0xF14
	csrMCONFIGPTR CSRSpecifier = 0xF15

	csrMSTATUS    CSRSpecifier = 0x300
	csrMISA       CSRSpecifier = 0x301
	csrMEDELEG    CSRSpecifier = 0x302
	csrMIDELEG    CSRSpecifier = 0x303
	csrMIE        CSRSpecifier = 0x304
	csrMTVEC      CSRSpecifier = 0x305
	csrMCOUNTEREN CSRSpecifier = 0x306
	csrMSTATUSH   CSRSpecifier = 0x310

	csrMSCRATCH CSRSpecifier = 0x340
	csrMEPC     CSRSpecifier = 0x341
	csrMCAUSE   CSRSpecifier = 0x342
	csrMTVAL    CSRSpecifier = 0x343
	csrMIP      CSRSpecifier = 0x344
	csrMTINST   CSRSpecifier = 0x34A
	csrMTVAL2   CSRSpecifier = 0x34B

	csrMENVCFG  CSRSpecifier = 0x30A
	csrMENVCFGH CSRSpecifier = 0x31A

	csrMCYCLE        CSRSpecifier = 0xB00
	csrMINSTRET      CSRSpecifier = 0xB02
	csrMCYCLEH       CSRSpecifier = 0xB80
	csrMINSTRETH     CSRSpecifier = 0xB82
	csrMCOUNTINHIBIT CSRSpecifier = 0x320
)

// misaValue is the fixed contents of the misa CSR: MXL=32 (bits 31:30),
// extensions I, S, U (spec.md §6.5).
const misaValue uint32 = 0x4014_0100

// requiredPrivilege returns the minimum privilege level required to
// access specifier, decoded from bits [9:8] per spec.md §6.5.
func requiredPrivilege(specifier CSRSpecifier) Privilege {
	return Privilege((specifier >> 8) & 0b11)
}

// isReadOnly reports whether specifier's top two bits mark it read-only.
func isReadOnly(specifier CSRSpecifier) bool {
	return (specifier>>10)&0b11 == 0b11
}
