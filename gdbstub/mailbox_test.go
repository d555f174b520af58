package gdbstub

import (
	"testing"

	"rv32spin/test"
)

func TestBreakpointsAddRemoveHas(t *testing.T) {
	bp := NewBreakpoints()
	test.ExpectTrue(t, !bp.Has(0x100), "empty set has no breakpoints")

	bp.Add(0x100)
	test.ExpectTrue(t, bp.Has(0x100), "added breakpoint present")
	test.ExpectEquality(t, bp.Len(), 1)

	bp.Remove(0x100)
	test.ExpectTrue(t, !bp.Has(0x100), "removed breakpoint absent")
	test.ExpectEquality(t, bp.Len(), 0)
}

func TestMailboxTryDrainProcessesQueuedCommands(t *testing.T) {
	m := NewMailbox(4)
	m.Send(Command{Kind: KindPause})
	m.Send(Command{Kind: KindStep})

	var kinds []Kind
	n := m.TryDrain(func(cmd Command) {
		kinds = append(kinds, cmd.Kind)
	})

	test.ExpectEquality(t, n, 2)
	test.ExpectEquality(t, kinds, []Kind{KindPause, KindStep})
}

func TestMailboxTryDrainEmptyReturnsZero(t *testing.T) {
	m := NewMailbox(1)
	n := m.TryDrain(func(Command) {})
	test.ExpectEquality(t, n, 0)
}

func TestMailboxReplyRoundTrip(t *testing.T) {
	m := NewMailbox(1)
	reply := make(chan Reply, 1)
	m.Send(Command{Kind: KindReadRegister, RegSpecifier: 10, Reply: reply})

	m.TryDrain(func(cmd Command) {
		cmd.Reply <- Reply{Value: 42}
	})

	got := <-reply
	test.ExpectEquality(t, got.Value, uint32(42))
}
