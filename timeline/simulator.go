// Package timeline wraps an alloc.Arena with a linear, fully reversible
// history of ticks: Step/StepWith advance it (discarding any redo history
// beyond HEAD), UndoStep/RedoStep move HEAD within history already taken.
// Grounded on original_source/red-planet-core/src/simulator.rs's
// Simulator/Head/StateIndex/StepIndex design, adapted from Rust's
// associated-type Simulatable trait to a plain Go interface, and on the
// teacher's rewind.Rewind circular-history-with-splice-point idiom
// (rewind/rewind.go) for the "undo keeps a save point so redo can replay"
// shape — generalized here from frame-granularity to tick-granularity and
// made unbounded (no ring-buffer eviction) since rv32spin's budget is
// ticks, not frames.
package timeline

import (
	"rv32spin/alloc"
	"rv32spin/curated"
	"rv32spin/prefs"
)

// Simulatable is anything a Simulator can drive: a board, a core, or any
// component whose entire state lives behind Cells and Arrays in the Arena
// passed to it. Tick must be deterministic: given the same Arena state, it
// must always produce the same resulting Arena state.
type Simulatable interface {
	Tick(a *alloc.Arena)
}

// TickFunc is a custom per-step tick used by StepWith in place of the
// Simulatable's own Tick, for example to inject an external event at a
// precise point in history while keeping it replayable.
type TickFunc[S Simulatable] func(a *alloc.Arena, s S)

type tickRecord[S Simulatable] struct {
	step StepIndex
	name string
	fn   TickFunc[S]
}

type head struct {
	stateIndex          StateIndex
	baseSnapshotIndex   int
	nextCustomTickIndex int
}

type snapshotEntry struct {
	head head
	id   alloc.SnapshotID
}

// Simulator drives a Simulatable through an Arena-backed linear history.
type Simulator[S Simulatable] struct {
	arena       *alloc.Arena
	simulatable S

	snapshots   []snapshotEntry
	customTicks []tickRecord[S]
	head        head

	cadence prefs.Int
}

// New constructs a Simulator. build receives the fresh Arena and must
// construct and return the Simulatable entirely out of Cells/Arrays
// inserted into it, so that every bit of its state is covered by
// snapshots.
func New[S Simulatable](build func(a *alloc.Arena) S, cadence prefs.Int) *Simulator[S] {
	a := alloc.New()
	s := build(a)
	snapID := a.TakeSnapshot()
	h := head{stateIndex: 0, baseSnapshotIndex: 0, nextCustomTickIndex: 0}
	return &Simulator[S]{
		arena:       a,
		simulatable: s,
		snapshots:   []snapshotEntry{{head: h, id: snapID}},
		head:        h,
		cadence:     cadence,
	}
}

// Inspect gives read access to both the Arena and the Simulatable, for
// reading registers/memory/devices without risking a mutation.
func (sim *Simulator[S]) Inspect() (*alloc.Arena, S) {
	return sim.arena, sim.simulatable
}

// StateIndex returns the current position in the timeline.
func (sim *Simulator[S]) StateIndex() StateIndex {
	return sim.head.stateIndex
}

// Step advances the simulation by one tick using the Simulatable's own
// Tick method. Any redo history is discarded.
func (sim *Simulator[S]) Step() {
	if sim.isHeadDetached() {
		sim.clearForwardHistory()
	}
	sim.simulatable.Tick(sim.arena)
	sim.head.stateIndex = sim.head.stateIndex.next()
	if sim.shouldSnapshot() {
		sim.snapshot()
	}
}

// StepWith advances the simulation by one tick using a custom tick
// function instead of the Simulatable's own Tick, recording it so it can
// be replayed verbatim by a later Redo. Any redo history is discarded.
func (sim *Simulator[S]) StepWith(name string, fn TickFunc[S]) {
	if sim.isHeadDetached() {
		sim.clearForwardHistory()
	}
	fn(sim.arena, sim.simulatable)
	sim.customTicks = append(sim.customTicks, tickRecord[S]{
		step: sim.head.stateIndex.nextStep(),
		name: name,
		fn:   fn,
	})
	sim.head.stateIndex = sim.head.stateIndex.next()
	if sim.shouldSnapshot() {
		sim.snapshot()
	}
}

// UndoStep reverts the simulation by one step. Returns false if already at
// the start of history.
func (sim *Simulator[S]) UndoStep() bool {
	target, ok := sim.head.stateIndex.previous()
	if !ok {
		return false
	}
	// If HEAD is the newest state (not detached), snapshot it first so a
	// later RedoStep has something to come back to; this happens even when
	// HEAD already matches the latest snapshot.
	if !sim.isHeadDetached() {
		sim.snapshot()
	}
	sim.goToState(target)
	return true
}

// RedoStep replays the next step undone by UndoStep. Returns false if
// there is nothing to redo, or if the forward history was discarded by an
// intervening Step/StepWith.
func (sim *Simulator[S]) RedoStep() bool {
	if !sim.isHeadDetached() {
		return false
	}
	sim.goToState(sim.head.stateIndex.next())
	return true
}

func (sim *Simulator[S]) shouldSnapshot() bool {
	return len(sim.head.stateIndex.stepsSince(sim.headAtLastSnapshot().stateIndex)) >= sim.cadence.Get()
}

func (sim *Simulator[S]) snapshot() {
	id := sim.arena.TakeSnapshot()
	sim.head.baseSnapshotIndex = len(sim.snapshots)
	sim.snapshots = append(sim.snapshots, snapshotEntry{head: sim.head, id: id})
}

func (sim *Simulator[S]) headAtLastSnapshot() head {
	return sim.snapshots[sim.lastSnapshotIndex()].head
}

func (sim *Simulator[S]) lastSnapshotIndex() int {
	return len(sim.snapshots) - 1
}

// isHeadDetached reports whether HEAD is somewhere other than the most
// recent state reachable without replay, i.e. whether RedoStep has
// anything to do.
func (sim *Simulator[S]) isHeadDetached() bool {
	return sim.head.baseSnapshotIndex != sim.lastSnapshotIndex()
}

func (sim *Simulator[S]) goToState(target StateIndex) {
	targetBase := sim.findBaseSnapshot(target)
	if targetBase != sim.head.baseSnapshotIndex || target < sim.head.stateIndex {
		sim.goToSnapshot(targetBase)
	}
	for sim.head.stateIndex != target {
		sim.replayStep()
	}
}

func (sim *Simulator[S]) findBaseSnapshot(target StateIndex) int {
	idx := -1
	for i, e := range sim.snapshots {
		if e.head.stateIndex <= target {
			idx = i
		} else {
			break
		}
	}
	return idx
}

func (sim *Simulator[S]) goToSnapshot(snapshotIndex int) {
	entry := sim.snapshots[snapshotIndex]
	nextCustomTickIndex := 0
	for i, rec := range sim.customTicks {
		if rec.step >= StepIndex(entry.head.stateIndex) {
			break
		}
		nextCustomTickIndex = i + 1
	}
	if err := sim.arena.Checkout(entry.id); err != nil {
		// The snapshot id was created by this very Simulator and never
		// dropped until clearForwardHistory, which always happens before
		// any snapshot still reachable from sim.snapshots is pruned.
		panic(curated.Errorf(curated.InvalidSnapshotID, "timeline snapshot checkout failed: %v", err))
	}
	sim.head = head{
		stateIndex:          entry.head.stateIndex,
		baseSnapshotIndex:   snapshotIndex,
		nextCustomTickIndex: nextCustomTickIndex,
	}
}

func (sim *Simulator[S]) replayStep() {
	step := sim.head.stateIndex.nextStep()
	if sim.head.nextCustomTickIndex < len(sim.customTicks) && sim.customTicks[sim.head.nextCustomTickIndex].step == step {
		rec := sim.customTicks[sim.head.nextCustomTickIndex]
		rec.fn(sim.arena, sim.simulatable)
		sim.head.nextCustomTickIndex++
	} else {
		sim.simulatable.Tick(sim.arena)
	}
	sim.head.stateIndex = sim.head.stateIndex.next()
}

// clearForwardHistory discards every snapshot and custom tick beyond
// HEAD, called just before a fresh Step/StepWith overwrites them.
func (sim *Simulator[S]) clearForwardHistory() {
	for _, e := range sim.snapshots[sim.head.baseSnapshotIndex+1:] {
		_ = sim.arena.DropSnapshot(e.id)
	}
	sim.snapshots = sim.snapshots[:sim.head.baseSnapshotIndex+1]

	keep := sim.head.nextCustomTickIndex
	sim.customTicks = sim.customTicks[:keep]
}
