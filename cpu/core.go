package cpu

import (
	"rv32spin/alloc"
	"rv32spin/bus"
	"rv32spin/logger"
	"rv32spin/notifications"
)

// Core is a single RV32I+Zicsr hart: registers, CSR file, current
// privilege mode, and an MMU wrapping whatever bus it's Connected to.
//
// Grounded on original_source/red-planet-core/src/core/mod.rs's Core
// struct and its fetch→decode→execute→counters→interrupt-select→
// trap-entry tick ordering (spec.md §4.9); satisfies board.Core
// structurally so board can wire IRQLines against MIPCell before the bus
// (and therefore this Core) are fully assembled.
type Core struct {
	hartID  uint32
	resetPC uint32

	regs alloc.CellID[Registers]
	csr  *CSRFile
	mode alloc.CellID[Privilege]

	mmu *MMU

	allowMisalignedData bool
	notify              notifications.Notify
}

// SetNotify arms an external observer for trap delivery, e.g. a debugger
// front end wanting to report "stopped due to trap" without the core
// depending on it directly. A nil Notify (the default) drops every notice.
func (c *Core) SetNotify(n notifications.Notify) { c.notify = n }

// NewCore inserts a Core in its reset state (Machine mode, pc=resetPC,
// all registers zero). Connect must be called once, after the bus the
// core's devices live on has been fully assembled, before Tick is used.
func NewCore(a *alloc.Arena, hartID uint32, resetPC uint32, allowMisalignedData bool, timeSource TimeSource) *Core {
	return &Core{
		hartID:              hartID,
		resetPC:             resetPC,
		regs:                NewRegisterFile(a, resetPC),
		csr:                 NewCSRFile(a, hartID, timeSource),
		mode:                alloc.Insert(a, Machine),
		allowMisalignedData: allowMisalignedData,
	}
}

// MIPCell satisfies board.Core.
func (c *Core) MIPCell() alloc.CellID[uint32] { return c.csr.MIPCell() }

// Connect satisfies board.Core.
func (c *Core) Connect(b *bus.Bus) {
	c.mmu = NewMMU(b, c.allowMisalignedData)
}

// Reset satisfies board.Core: restores Machine mode and sets pc.
func (c *Core) Reset(a *alloc.Arena, pc uint32) {
	regs, err := alloc.GetMut(a, c.regs)
	if err == nil {
		*regs = Registers{pc: pc}
	}
	if m, err := alloc.GetMut(a, c.mode); err == nil {
		*m = Machine
	}
}

func (c *Core) regsMut(a *alloc.Arena) *Registers {
	r, _ := alloc.GetMut(a, c.regs)
	return r
}

// Mode returns the hart's current privilege level.
func (c *Core) Mode(a *alloc.Arena) Privilege {
	m, _ := alloc.Get(a, c.mode)
	return m
}

func (c *Core) setMode(a *alloc.Arena, mode Privilege) {
	if m, err := alloc.GetMut(a, c.mode); err == nil {
		*m = mode
	}
}

// CSR exposes the hart's CSR file, e.g. for a debugger or test harness
// that needs to poke mtimecmp-adjacent state directly.
func (c *Core) CSR() *CSRFile { return c.csr }

// ReadX returns the value of register specifier, for a debugger's "g"
// (read all registers) or "p" (read one register) packet handler.
func (c *Core) ReadX(a *alloc.Arena, specifier RegSpecifier) uint32 {
	r, err := alloc.Get(a, c.regs)
	if err != nil {
		return 0
	}
	return r.X(specifier)
}

// WriteX sets register specifier's value, for a debugger's "G"/"P" packet
// handler. Writes to X0 are silently ignored, per Registers.SetX.
func (c *Core) WriteX(a *alloc.Arena, specifier RegSpecifier, value uint32) {
	c.regsMut(a).SetX(specifier, value)
}

// PC returns the program counter.
func (c *Core) PC(a *alloc.Arena) uint32 { return c.regsMut(a).PC() }

// SetPC sets the program counter directly, for a debugger's "G" packet or
// a GoTo-adjacent jump command.
func (c *Core) SetPC(a *alloc.Arena, value uint32) { c.regsMut(a).SetPC(value) }

// MCycle and MInstret expose the hart's retired-instruction and cycle
// counters, for a metrics dashboard polling from outside the tick loop.
func (c *Core) MCycle(a *alloc.Arena) uint64   { return c.csr.MCycle(a) }
func (c *Core) MInstret(a *alloc.Arena) uint64 { return c.csr.MInstret(a) }

// Tick performs one fetch→decode→execute→counters→interrupt-select→
// trap-entry cycle, per spec.md §4.9.
func (c *Core) Tick(a *alloc.Arena) {
	mode := c.Mode(a)
	pc := c.regsMut(a).PC()

	word, err := c.mmu.FetchInstruction(a, pc)
	if err != nil {
		c.enterTrap(a, err.(Exception), mode, pc, 0)
		c.csr.TickCounters(a, false)
		return
	}

	instr, derr := Decode(word)
	if derr != nil {
		c.enterTrap(a, IllegalInstruction, mode, pc, word)
		c.csr.TickCounters(a, false)
		return
	}

	trapped, exc := c.execute(a, instr, mode, pc)
	c.csr.TickCounters(a, !trapped)
	if trapped {
		c.enterTrap(a, exc, mode, pc, word)
		return
	}

	if iv, ok := c.selectInterrupt(a); ok {
		c.enterInterrupt(a, iv)
	}
}

// selectInterrupt returns the highest-priority pending, enabled,
// not-masked-by-privilege interrupt, if any, per spec.md §4.9's
// MEI>MSI>MTI>SEI>SSI>STI priority order and mideleg-based M vs S
// delegation/masking.
func (c *Core) selectInterrupt(a *alloc.Arena) (Interrupt, bool) {
	mode := c.Mode(a)
	mip := c.csr.MIP(a)
	mie := c.csr.MIE(a)
	mideleg := c.csr.MIDeleg(a)
	status := c.csr.StatusBits(a)

	for _, iv := range interruptPriorityOrder {
		bitPos := iv.Code()
		if mip&(1<<bitPos) == 0 || mie&(1<<bitPos) == 0 {
			continue
		}
		delegatedToS := mideleg&(1<<bitPos) != 0
		targetMode := Machine
		if delegatedToS {
			targetMode = Supervisor
		}
		if !interruptGloballyEnabled(mode, targetMode, status) {
			continue
		}
		return iv, true
	}
	return 0, false
}

// interruptGloballyEnabled applies the privileged spec's rule: an
// interrupt destined for targetMode is taken if the hart is running at a
// lower privilege than targetMode, or at targetMode with its xIE bit set.
func interruptGloballyEnabled(current, target Privilege, status MStatusBits) bool {
	if current < target {
		return true
	}
	if current > target {
		return false
	}
	if target == Machine {
		return status.MIE
	}
	return status.SIE
}

func (c *Core) enterInterrupt(a *alloc.Arena, iv Interrupt) {
	mideleg := c.csr.MIDeleg(a)
	toMode := Machine
	if mideleg&(1<<iv.Code()) != 0 {
		toMode = Supervisor
	}
	c.trapCommon(a, mcauseValue(iv.Code(), true), 0, 0, toMode, c.regsMut(a).PC())
}

func (c *Core) enterTrap(a *alloc.Arena, exc Exception, fromMode Privilege, pc uint32, word uint32) {
	medeleg := c.csr.MEDeleg(a)
	toMode := Machine
	if medeleg&(1<<exc.Code()) != 0 {
		toMode = Supervisor
	}
	tval := uint32(0)
	switch exc {
	case IllegalInstruction:
		tval = word
	case InstructionAddressMisaligned, LoadAddressMisaligned, StoreOrAmoAddressMisaligned:
		tval = pc
	}
	c.trapCommon(a, mcauseValue(exc.Code(), false), tval, 0, toMode, pc)
}

func (c *Core) trapCommon(a *alloc.Arena, cause, tval, _ uint32, toMode Privilege, faultPC uint32) {
	fromMode := c.Mode(a)
	c.csr.EnterTrap(a, fromMode, toMode)
	if toMode == Machine {
		c.csr.SetMEPC(a, faultPC)
		c.csr.SetMCause(a, cause)
		c.csr.SetMTval(a, tval)
	} else {
		c.csr.SetSEPC(a, faultPC)
		c.csr.SetSCause(a, cause)
		c.csr.SetSTval(a, tval)
	}
	c.setMode(a, toMode)

	vec := c.csr.MTvec(a)
	if toMode != Machine {
		vec = c.csr.STvec(a)
	}
	c.regsMut(a).SetPC(trapTarget(vec, cause))
	logger.Logf("cpu", "trap: cause=%#x mode=%s faultpc=%#x", cause, toMode, faultPC)
	notifications.Dispatch(c.notify, notifications.NoticeTrap, cause, toMode, faultPC)
}

// trapTarget resolves mtvec/stvec's BASE+MODE WARL field into the actual
// handler address: Direct mode always jumps to BASE; Vectored mode adds
// 4*cause for interrupts only (synchronous exceptions always use BASE).
func trapTarget(tvec uint32, cause uint32) uint32 {
	base := tvec &^ 0b11
	mode := tvec & 0b11
	if mode == 1 && cause&0x8000_0000 != 0 {
		return base + 4*(cause&0x7FFF_FFFF)
	}
	return base
}
