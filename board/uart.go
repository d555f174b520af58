package board

import (
	"rv32spin/alloc"
	"rv32spin/notifications"
)

// UART register indices (byte-addressed at 4-byte strides; only the low
// byte of each 4-byte window is meaningful).
const (
	uartRegRBRorTHR = 0 // RBR (read) / THR (write); DLL when LCR.DLAB
	uartRegIER      = 1 // DLH when LCR.DLAB
	uartRegIIRorFCR = 2 // IIR (read) / FCR (write)
	uartRegLCR      = 3
	uartRegMCR      = 4
	uartRegLSR      = 5
	uartRegMSR      = 6
	uartRegScratch  = 7
)

const lcrDLABBit = 0x80

// LSR bits.
const (
	lsrDataReady  = 0x01
	lsrTHREmpty   = 0x20
	lsrTXEmpty    = 0x40
)

type uartState struct {
	rx uartFIFO
	tx uartFIFO

	ier     byte
	lcr     byte
	mcr     byte
	scratch byte
	dll     byte
	dlh     byte
}

// UART is a subset of the 16550A: the eight byte registers, 16-byte RX
// and TX FIFOs, and a divisor-latch overlay, but no interrupt generation
// (spec.md notes this is specified but not required for the minimal
// compliance target).
//
// Grounded on original_source/red-planet-core/src/resources/uart.rs's
// register map; the fixed-offset dispatch switch follows the teacher's
// ARM7TDMI timer register idiom
// (hardware/memory/cartridge/harmony/arm7tdmi/timer.go).
type UART struct {
	state  alloc.CellID[uartState]
	host   HostIO
	notify notifications.Notify
}

// NewUART inserts a UART in its reset state, draining to/filling from
// host.
func NewUART(a *alloc.Arena, host HostIO) *UART {
	if host == nil {
		host = discardHostIO{}
	}
	return &UART{state: alloc.Insert(a, uartState{}), host: host}
}

// SetNotify arms an external observer for host I/O errors: a failed host
// write during Tick is dispatched as NoticeHostIOErr and otherwise
// dropped. Illegal register accesses are neither recorded nor reported. A
// nil Notify (the default) drops every notice.
func (u *UART) SetNotify(n notifications.Notify) { u.notify = n }

// Tick drains the TX FIFO to the host if the UART is operational (a
// non-zero baud divisor has been programmed), and refills the RX FIFO
// from the host without blocking.
func (u *UART) Tick(a *alloc.Arena) {
	s, err := alloc.GetMut(a, u.state)
	if err != nil {
		return
	}
	operational := s.dll != 0 || s.dlh != 0
	if operational {
		for !s.tx.empty() {
			b, _ := s.tx.pop()
			if err := u.host.WriteByte(b); err != nil {
				notifications.Dispatch(u.notify, notifications.NoticeHostIOErr, err)
			}
		}
	}
	for !s.rx.full() {
		b, ok := u.host.TryReadByte()
		if !ok {
			break
		}
		s.rx.push(b)
	}
}

func (u *UART) lsr(s *uartState) byte {
	var v byte
	if !s.rx.empty() {
		v |= lsrDataReady
	}
	if !s.tx.full() {
		v |= lsrTHREmpty
	}
	if s.tx.empty() {
		v |= lsrTXEmpty
	}
	return v
}

func regFromAddr(addr uint32) (int, bool) {
	if addr%4 != 0 {
		return 0, false
	}
	reg := int(addr / 4)
	if reg > uartRegScratch {
		return 0, false
	}
	return reg, true
}

func (u *UART) readRegister(s *uartState, reg int) byte {
	dlab := s.lcr&lcrDLABBit != 0
	switch {
	case reg == uartRegRBRorTHR && dlab:
		return s.dll
	case reg == uartRegIER && dlab:
		return s.dlh
	case reg == uartRegIIRorFCR:
		return 0x01 // no interrupt pending; interrupt generation not wired
	case reg == uartRegIER:
		return s.ier
	case reg == uartRegLCR:
		return s.lcr
	case reg == uartRegMCR:
		return s.mcr
	case reg == uartRegLSR:
		return u.lsr(s)
	case reg == uartRegMSR:
		return 0
	case reg == uartRegScratch:
		return s.scratch
	}
	return 0
}

// Read performs a register read. RBR (popping the RX FIFO) is the only
// register with a side effect; reading any other register, or an
// unaligned/multi-byte access, has none.
func (u *UART) Read(buf []byte, a *alloc.Arena, addr uint32) {
	reg, ok := regFromAddr(addr)
	if !ok || len(buf) != 1 {
		return
	}
	s, err := alloc.GetMut(a, u.state)
	if err != nil {
		return
	}
	if reg == uartRegRBRorTHR && s.lcr&lcrDLABBit == 0 {
		buf[0], _ = s.rx.pop()
		return
	}
	buf[0] = u.readRegister(s, reg)
}

// ReadPure services every register except RBR (popping the RX FIFO is a
// side effect), returning an error there instead of silently no-opping.
func (u *UART) ReadPure(buf []byte, a *alloc.Arena, addr uint32) error {
	reg, ok := regFromAddr(addr)
	if !ok || len(buf) != 1 {
		return nil
	}
	s, err := alloc.Get(a, u.state)
	if err != nil {
		return err
	}
	if reg == uartRegRBRorTHR && s.lcr&lcrDLABBit == 0 {
		return errEffectfulReadOnly(addr)
	}
	buf[0] = u.readRegister(&s, reg)
	return nil
}

// Write performs a register write. LSR and MSR are read-only: a write to
// either is ignored.
func (u *UART) Write(a *alloc.Arena, addr uint32, buf []byte) {
	reg, ok := regFromAddr(addr)
	if !ok || len(buf) != 1 {
		return
	}
	s, err := alloc.GetMut(a, u.state)
	if err != nil {
		return
	}
	v := buf[0]
	dlab := s.lcr&lcrDLABBit != 0
	switch {
	case reg == uartRegRBRorTHR && dlab:
		s.dll = v
	case reg == uartRegIER && dlab:
		s.dlh = v
	case reg == uartRegRBRorTHR:
		s.tx.push(v) // full FIFO silently drops, matching real 16550A overrun behavior
	case reg == uartRegIER:
		s.ier = v
	case reg == uartRegIIRorFCR:
		if v&0x02 != 0 {
			s.rx = uartFIFO{}
		}
		if v&0x04 != 0 {
			s.tx = uartFIFO{}
		}
	case reg == uartRegLCR:
		s.lcr = v
	case reg == uartRegMCR:
		s.mcr = v
	case reg == uartRegLSR, reg == uartRegMSR:
		// read-only; write is a no-op
	case reg == uartRegScratch:
		s.scratch = v
	}
}
