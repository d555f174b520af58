package cpu

// Privilege is a RISC-V privilege level. Values line up with the 2-bit
// encoding used by mstatus.MPP and a CSR specifier's bits [9:8]: 2
// ("Reserved") never names an actual current privilege level but does
// appear as an (unreachable) minimum-privilege decode, so it is kept here
// for that comparison.
//
// Grounded on original_source/red-planet-core/src/lib.rs's
// RawPrivilegeLevel/PrivilegeLevel pair, collapsed into one type since Go
// has no equivalent need to distinguish "a privilege level" from "a raw
// 2-bit field that might be reserved" — a CSR specifier's minimum level is
// just compared against the hart's actual level with >.
type Privilege uint8

const (
	User       Privilege = 0
	Supervisor Privilege = 1
	reserved   Privilege = 2
	Machine    Privilege = 3
)

func (p Privilege) String() string {
	switch p {
	case User:
		return "U"
	case Supervisor:
		return "S"
	case Machine:
		return "M"
	default:
		return "<reserved>"
	}
}
