package cpu

import "rv32spin/alloc"

// execute runs one decoded instruction. It returns trapped=true and the
// Exception to raise when the instruction itself faults (misaligned
// jump/branch target, illegal CSR access, ecall/ebreak, a load/store MMU
// fault); otherwise it leaves regs/csr updated and the program counter
// advanced, and returns trapped=false.
//
// Grounded on original_source/red-planet-core/src/core/execute.rs's
// one-method-per-instruction style; arithmetic/logic ops are plain
// wrapping Go operators exactly as execute.rs implements addi/andi/etc.
func (c *Core) execute(a *alloc.Arena, instr Instruction, mode Privilege, pc uint32) (trapped bool, exc Exception) {
	regs := c.regsMut(a)
	next := pc + 4

	switch instr.Kind {
	case KindOpImm:
		regs.SetX(instr.Dest, execRegImm(instr.RegImmOp, regs.X(instr.Src), instr.Immediate))
		regs.SetPC(next)

	case KindOpShiftImm:
		regs.SetX(instr.Dest, execShiftImm(instr.ShiftImmOp, regs.X(instr.Src), instr.ShiftAmt))
		regs.SetPC(next)

	case KindLui:
		regs.SetX(instr.Dest, uint32(instr.Immediate))
		regs.SetPC(next)

	case KindAuipc:
		regs.SetX(instr.Dest, pc+uint32(instr.Immediate))
		regs.SetPC(next)

	case KindOp:
		regs.SetX(instr.Dest, execRegReg(instr.RegRegOp, regs.X(instr.Src1), regs.X(instr.Src2)))
		regs.SetPC(next)

	case KindJal:
		target := pc + uint32(instr.Immediate)
		if target%4 != 0 {
			return true, InstructionAddressMisaligned
		}
		regs.SetX(instr.Dest, next)
		regs.SetPC(target)

	case KindJalr:
		target := (regs.X(instr.Base) + uint32(instr.Immediate)) &^ 1
		if target%4 != 0 {
			return true, InstructionAddressMisaligned
		}
		regs.SetX(instr.Dest, next)
		regs.SetPC(target)

	case KindBranch:
		if evalBranch(instr.Branch, regs.X(instr.Src1), regs.X(instr.Src2)) {
			target := pc + uint32(instr.Immediate)
			if target%4 != 0 {
				return true, InstructionAddressMisaligned
			}
			regs.SetPC(target)
		} else {
			regs.SetPC(next)
		}

	case KindLoad:
		endian := c.dataEndianness(a, mode)
		val, err := c.mmu.ReadData(a, regs.X(instr.Base)+uint32(instr.Immediate), instr.Width, endian)
		if err != nil {
			return true, err.(Exception)
		}
		regs.SetX(instr.Dest, val)
		regs.SetPC(next)

	case KindStore:
		endian := c.dataEndianness(a, mode)
		err := c.mmu.WriteData(a, regs.X(instr.Base)+uint32(instr.Immediate), instr.Width, regs.X(instr.Src), endian)
		if err != nil {
			return true, err.(Exception)
		}
		regs.SetPC(next)

	case KindFence:
		regs.SetPC(next)

	case KindEcall:
		return true, environmentCallFrom(mode)

	case KindEbreak:
		return true, Breakpoint

	case KindMret:
		if mode != Machine {
			return true, IllegalInstruction
		}
		prev := c.csr.LeaveTrap(a, Machine)
		c.setMode(a, prev)
		regs.SetPC(c.csr.MEPC(a))

	case KindSret:
		if mode == User {
			return true, IllegalInstruction
		}
		prev := c.csr.LeaveTrap(a, Supervisor)
		c.setMode(a, prev)
		regs.SetPC(c.csr.SEPC(a))

	case KindWfi:
		regs.SetPC(next)

	case KindCSR:
		if trapped, exc = c.execCSR(a, instr, mode, regs); trapped {
			return true, exc
		}
		regs.SetPC(next)

	default:
		return true, IllegalInstruction
	}

	return false, 0
}

func (c *Core) dataEndianness(a *alloc.Arena, mode Privilege) Endianness {
	bits := c.csr.StatusBits(a)
	return ModeEndianness(mode, bits.MBE, bits.SBE, bits.UBE)
}

// execCSR performs a Zicsr instruction: read the old value (skipping the
// read side effect for CSRRW with rd=x0, per the unprivileged spec),
// compute the new value, write it unless the instruction is a read-only
// CSRRS/CSRRC with a zero operand, then place the old value in rd.
func (c *Core) execCSR(a *alloc.Arena, instr Instruction, mode Privilege, regs *Registers) (bool, Exception) {
	needsRead := instr.CSROp != CSRRW || instr.Dest != X0

	var old uint32
	var err error
	if needsRead {
		old, err = c.csr.Read(a, instr.CSR, mode)
		if err != nil {
			return true, IllegalInstruction
		}
	}

	var operand uint32
	switch instr.CSROp {
	case CSRRWI, CSRRSI, CSRRCI:
		operand = instr.Zimm
	default:
		operand = regs.X(instr.Src)
	}

	writes := true
	var newVal uint32
	switch instr.CSROp {
	case CSRRW, CSRRWI:
		newVal = operand
	case CSRRS, CSRRSI:
		newVal = old | operand
		writes = operand != 0
	case CSRRC, CSRRCI:
		newVal = old &^ operand
		writes = operand != 0
	}

	if writes {
		if werr := c.csr.Write(a, instr.CSR, mode, newVal); werr != nil {
			return true, IllegalInstruction
		}
	}

	regs.SetX(instr.Dest, old)
	return false, 0
}

func execRegImm(op RegImmOp, rs1 uint32, imm int32) uint32 {
	switch op {
	case Addi:
		return rs1 + uint32(imm)
	case Slti:
		return boolToWord(int32(rs1) < imm)
	case Sltiu:
		return boolToWord(rs1 < uint32(imm))
	case Xori:
		return rs1 ^ uint32(imm)
	case Ori:
		return rs1 | uint32(imm)
	case Andi:
		return rs1 & uint32(imm)
	}
	return 0
}

func execShiftImm(op ShiftImmOp, rs1, shamt uint32) uint32 {
	shamt &= 0x1F
	switch op {
	case Slli:
		return rs1 << shamt
	case Srli:
		return rs1 >> shamt
	case Srai:
		return uint32(int32(rs1) >> shamt)
	}
	return 0
}

func execRegReg(op RegRegOp, rs1, rs2 uint32) uint32 {
	switch op {
	case Add:
		return rs1 + rs2
	case Sub:
		return rs1 - rs2
	case Sll:
		return rs1 << (rs2 & 0x1F)
	case Slt:
		return boolToWord(int32(rs1) < int32(rs2))
	case Sltu:
		return boolToWord(rs1 < rs2)
	case Xor:
		return rs1 ^ rs2
	case Srl:
		return rs1 >> (rs2 & 0x1F)
	case Sra:
		return uint32(int32(rs1) >> (rs2 & 0x1F))
	case Or:
		return rs1 | rs2
	case And:
		return rs1 & rs2
	}
	return 0
}

func evalBranch(cond BranchCond, rs1, rs2 uint32) bool {
	switch cond {
	case Beq:
		return rs1 == rs2
	case Bne:
		return rs1 != rs2
	case Blt:
		return int32(rs1) < int32(rs2)
	case Bge:
		return int32(rs1) >= int32(rs2)
	case Bltu:
		return rs1 < rs2
	case Bgeu:
		return rs1 >= rs2
	}
	return false
}

func boolToWord(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}
