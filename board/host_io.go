package board

import (
	"github.com/pkg/term"
	"golang.org/x/sys/unix"
)

// HostIO is how the UART drains its TX FIFO to, and refills its RX FIFO
// from, the outside world.
type HostIO interface {
	// TryReadByte attempts a non-blocking read of one byte. ok is false
	// if nothing is available right now.
	TryReadByte() (b byte, ok bool)
	WriteByte(b byte) error
	Close() error
}

// terminalHostIO talks to the process's controlling terminal in raw mode,
// so the RX FIFO can be filled byte-at-a-time without waiting on a
// newline, matching real 16550A byte-oriented I/O. Grounded on the
// teacher's choice of github.com/pkg/term for raw-mode terminal I/O;
// golang.org/x/sys/unix.Select provides the non-blocking readiness check
// a Tick needs before a read that would otherwise stall the whole loop.
type terminalHostIO struct {
	tty *term.Term
}

// NewTerminalHostIO opens the controlling terminal in raw mode.
func NewTerminalHostIO() (HostIO, error) {
	tty, err := term.Open("/dev/tty", term.RawMode)
	if err != nil {
		return nil, err
	}
	return &terminalHostIO{tty: tty}, nil
}

func setFd(set *unix.FdSet, fd int) {
	set.Bits[fd/64] |= 1 << (uint(fd) % 64)
}

func (h *terminalHostIO) TryReadByte() (byte, bool) {
	fd := int(h.tty.Fd())
	var readfds unix.FdSet
	setFd(&readfds, fd)
	timeout := unix.Timeval{} // zero timeout: poll, never block
	n, err := unix.Select(fd+1, &readfds, nil, nil, &timeout)
	if err != nil || n <= 0 {
		return 0, false
	}
	var buf [1]byte
	if _, err := h.tty.Read(buf[:]); err != nil {
		return 0, false
	}
	return buf[0], true
}

func (h *terminalHostIO) WriteByte(b byte) error {
	_, err := h.tty.Write([]byte{b})
	return err
}

func (h *terminalHostIO) Close() error {
	return h.tty.Restore()
}

// discardHostIO never has input available and swallows output; used as
// the default HostIO when no controlling terminal is available (e.g. in
// tests), so a UART is always usable without an explicit HostIO.
type discardHostIO struct{}

func (discardHostIO) TryReadByte() (byte, bool) { return 0, false }
func (discardHostIO) WriteByte(byte) error      { return nil }
func (discardHostIO) Close() error              { return nil }
