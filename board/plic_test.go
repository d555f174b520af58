package board

import (
	"encoding/binary"
	"testing"

	"rv32spin/alloc"
	"rv32spin/test"
)

func TestPLICRaisesLineWhenAboveThreshold(t *testing.T) {
	a := alloc.New()
	line := &recordingLine{}
	p := NewPLIC(a, line)

	prio := make([]byte, 4)
	binary.LittleEndian.PutUint32(prio, 5)
	p.Write(a, plicPriorityBase, prio) // source 1 priority = 5

	enable := make([]byte, 4)
	binary.LittleEndian.PutUint32(enable, 0b10)
	p.Write(a, plicEnableBase, enable) // enable source 1

	p.Raise(a, 1)
	test.ExpectTrue(t, line.raised > 0, "expected PLIC to raise its output line")
}

func TestPLICPriorityTieBreaksToLowestIndex(t *testing.T) {
	a := alloc.New()
	p := NewPLIC(a, noopLine{})

	prio := make([]byte, 4)
	binary.LittleEndian.PutUint32(prio, 3)
	p.Write(a, plicPriorityBase, prio)   // source 1
	p.Write(a, plicPriorityBase+4, prio) // source 2

	enable := make([]byte, 4)
	binary.LittleEndian.PutUint32(enable, 0b110)
	p.Write(a, plicEnableBase, enable)

	p.Raise(a, 2)
	p.Raise(a, 1)

	s, err := alloc.Get(a, p.state)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, s.highestPriorityPending(), uint32(1))
}

func TestPLICClaimClearsPending(t *testing.T) {
	a := alloc.New()
	p := NewPLIC(a, noopLine{})

	prio := make([]byte, 4)
	binary.LittleEndian.PutUint32(prio, 1)
	p.Write(a, plicPriorityBase, prio)
	enable := make([]byte, 4)
	binary.LittleEndian.PutUint32(enable, 0b10)
	p.Write(a, plicEnableBase, enable)

	p.Raise(a, 1)

	claimed := make([]byte, 4)
	p.Read(claimed, a, plicClaimComplete)
	test.ExpectEquality(t, binary.LittleEndian.Uint32(claimed), uint32(1))

	s, err := alloc.Get(a, p.state)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, s.isPending(1), false)
}

func TestPLICPriorityIsSaturatedAt7(t *testing.T) {
	a := alloc.New()
	p := NewPLIC(a, noopLine{})

	prio := make([]byte, 4)
	binary.LittleEndian.PutUint32(prio, 100)
	p.Write(a, plicPriorityBase, prio)

	s, err := alloc.Get(a, p.state)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, s.priority[1], uint8(7))
}
