package timeline

import (
	"testing"

	"rv32spin/alloc"
	"rv32spin/prefs"
	"rv32spin/test"
)

type counter struct {
	id alloc.CellID[int]
}

func (c counter) Tick(a *alloc.Arena) {
	p, err := alloc.GetMut(a, c.id)
	if err != nil {
		panic(err)
	}
	*p++
}

func (c counter) value(a *alloc.Arena) int {
	v, _ := alloc.Get(a, c.id)
	return v
}

func newCounterSim() *Simulator[counter] {
	return New(func(a *alloc.Arena) counter {
		return counter{id: alloc.Insert(a, 0)}
	}, prefs.NewInt(4))
}

func TestStepAdvances(t *testing.T) {
	sim := newCounterSim()
	sim.Step()
	sim.Step()
	a, s := sim.Inspect()
	test.ExpectEquality(t, s.value(a), 2)
	test.ExpectEquality(t, sim.StateIndex(), StateIndex(2))
}

func TestUndoRedo(t *testing.T) {
	sim := newCounterSim()
	sim.Step()
	sim.Step()
	sim.Step()

	test.ExpectTrue(t, sim.UndoStep(), "undo should succeed")
	a, s := sim.Inspect()
	test.ExpectEquality(t, s.value(a), 2)

	test.ExpectTrue(t, sim.RedoStep(), "redo should succeed")
	a, s = sim.Inspect()
	test.ExpectEquality(t, s.value(a), 3)

	test.ExpectTrue(t, sim.UndoStep(), "undo should succeed")
	test.ExpectTrue(t, sim.UndoStep(), "undo should succeed")
	test.ExpectTrue(t, sim.UndoStep(), "undo should succeed")
	test.ExpectTrue(t, !sim.UndoStep(), "undo at start of history should fail")
}

func TestStepAfterUndoDiscardsRedoHistory(t *testing.T) {
	sim := newCounterSim()
	sim.Step()
	sim.Step()
	sim.UndoStep()
	sim.Step() // diverges from the original history

	test.ExpectTrue(t, !sim.RedoStep(), "redo history should have been discarded")
}

func TestSnapshotTakenAcrossCadence(t *testing.T) {
	sim := newCounterSim()
	for i := 0; i < 10; i++ {
		sim.Step()
	}
	test.ExpectTrue(t, len(sim.snapshots) > 1, "cadence of 4 ticks over 10 steps should have produced extra snapshots")
}

func TestStepWithIsReplayedVerbatimOnRedo(t *testing.T) {
	sim := newCounterSim()
	sim.StepWith("add-ten", func(a *alloc.Arena, c counter) {
		p, _ := alloc.GetMut(a, c.id)
		*p += 10
	})
	sim.Step()

	sim.UndoStep()
	sim.UndoStep()
	sim.RedoStep()
	a, s := sim.Inspect()
	test.ExpectEquality(t, s.value(a), 10)
}
