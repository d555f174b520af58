// Package gdbstub defines the in-process command mailbox a GDB Remote
// Serial Protocol front end enqueues onto, and the breakpoint set a
// Continue/RangeStep loop consults. The wire protocol itself (bytes on a
// socket, packet framing, checksum) is out of scope: this package only
// defines the commands and reply channels that cross the one
// goroutine boundary this simulator has (spec.md §5's concurrency model).
//
// Grounded on original_source/red-planet-cli/src/target/command.rs's
// Command enum and its oneshot::Sender reply channels, adapted to Go's
// unbuffered channel as the reply mechanism; the non-blocking
// select-with-default drain loop is the teacher's
// debugger.checkInterruptsAndEvents idiom (debugger/events.go).
package gdbstub

import "rv32spin/timeline"

// Kind identifies a mailbox command's shape, for logging and for drain
// loops that want to report what they just processed.
type Kind int

const (
	KindExit Kind = iota
	KindPause
	KindContinue
	KindReverseContinue
	KindStep
	KindStepBack
	KindRangeStep
	KindAddBreakpoint
	KindRemoveBreakpoint
	KindReadRegisters
	KindWriteRegisters
	KindReadRegister
	KindWriteRegister
	KindReadAddrs
	KindWriteAddrs
	KindGoTo
	KindDeleteFuture
)

// Command is one request enqueued onto a Mailbox. Only the fields that
// apply to Kind are populated; replies, if any, are sent on Reply.
type Command struct {
	Kind Kind

	// RangeStep bounds, Addrs address/length, GoTo target.
	Low, High uint32
	Addr      uint32
	Length    int
	StateIdx  timeline.StateIndex

	// Register access.
	RegSpecifier uint32
	RegValue     uint32
	Registers    []uint32

	// Data payload for WriteAddrs.
	Data []byte

	// Reply carries the command's result, if it has one. Drain sends
	// exactly once per command with a reply channel, then closes nothing
	// (the sender owns the channel and reads exactly one value).
	Reply chan Reply
}

// Reply carries a command's result back to whatever enqueued it.
type Reply struct {
	Err       error
	Data      []byte
	Registers []uint32
	Value     uint32
}

// Mailbox is the single cross-goroutine boundary a driver's GDB front end
// uses to talk to the tick loop: a front end enqueues Commands; the tick
// loop Drains them between ticks, never mid-tick, so every command sees a
// consistent Arena state.
type Mailbox struct {
	commands chan Command
}

// NewMailbox creates a Mailbox with the given buffer depth. A depth of 0
// is a valid, fully synchronous rendezvous channel.
func NewMailbox(depth int) *Mailbox {
	return &Mailbox{commands: make(chan Command, depth)}
}

// Send enqueues cmd, blocking if the mailbox is full. Used by the GDB
// front-end goroutine.
func (m *Mailbox) Send(cmd Command) {
	m.commands <- cmd
}

// TryDrain pulls every currently-queued command off the mailbox without
// blocking, invoking handle for each in arrival order, and returns the
// count drained. Call this only at a tick boundary: handle is expected to
// touch the Arena, and nothing else may be mutating it concurrently.
//
// Grounded on the teacher's checkInterruptsAndEvents's select-with-default
// shape, generalized from "at most one event per call" to "drain
// everything currently pending", since a paused-and-resumed debugger
// front end can legitimately queue several commands between ticks.
func (m *Mailbox) TryDrain(handle func(Command)) int {
	n := 0
	for {
		select {
		case cmd := <-m.commands:
			handle(cmd)
			n++
		default:
			return n
		}
	}
}
