// Package prefs provides small typed, defaultable configuration cells, in
// the style of the teacher's hardware/preferences package. Unlike the
// teacher's prefs.Disk-backed values, rv32spin's board tunables are process
// configuration only (no GUI/CLI front-end lives in this repo), so these
// cells are plain in-memory defaults an embedder can override before
// constructing a board.
package prefs

// Int is a defaultable integer preference cell.
type Int struct {
	value int
}

// NewInt creates an Int preference with the given default value.
func NewInt(def int) Int {
	return Int{value: def}
}

// Get returns the current value.
func (p Int) Get() int { return p.value }

// Set overrides the value.
func (p *Int) Set(v int) { p.value = v }

// Bool is a defaultable boolean preference cell.
type Bool struct {
	value bool
}

// NewBool creates a Bool preference with the given default value.
func NewBool(def bool) Bool {
	return Bool{value: def}
}

// Get returns the current value.
func (p Bool) Get() bool { return p.value }

// Set overrides the value.
func (p *Bool) Set(v bool) { p.value = v }

// BoardConfig collects the board-level tunables referenced across
// SPEC_FULL.md: snapshot cadence, device sizing, and the FE310 choice to
// support misaligned loads/stores directly instead of faulting.
type BoardConfig struct {
	// SnapshotCadence is the number of ticks between automatic snapshots
	// taken by the timeline (spec.md §4.2, N≈2048).
	SnapshotCadence Int

	// RAMSize is the size in bytes of the DTIM/DRAM region.
	RAMSize Int

	// ROMSize is the size in bytes of the flash ROM region holding the
	// firmware image.
	ROMSize Int

	// MisalignedLoadStoreSupport mirrors the FE310's choice (spec.md §4.8)
	// to service misaligned loads/stores directly rather than raising
	// LoadAddressMisaligned/StoreOrAmoAddressMisaligned.
	MisalignedLoadStoreSupport Bool

	// MailboxPollQuotient is the number of ticks between mailbox drains
	// during a Continue/RangeStep/ReverseContinue loop (spec.md §5,
	// grounded on the teacher's hardware.continueCheckFreq).
	MailboxPollQuotient Int
}

// DefaultBoardConfig returns the board configuration used when none is
// supplied explicitly.
func DefaultBoardConfig() BoardConfig {
	return BoardConfig{
		SnapshotCadence:            NewInt(2048),
		RAMSize:                    NewInt(16 * 1024 * 1024),
		ROMSize:                    NewInt(4 * 1024 * 1024),
		MisalignedLoadStoreSupport: NewBool(true),
		MailboxPollQuotient:        NewInt(1024),
	}
}
