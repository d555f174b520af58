package cpu

import "fmt"

// DecodeError reports why a 32-bit word couldn't be decoded.
type DecodeError struct {
	word uint32
	msg  string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %#08x: %s", e.word, e.msg)
}

func illegal(word uint32) error  { return &DecodeError{word, "illegal instruction"} }
func unsupported(word uint32) error { return &DecodeError{word, "unsupported opcode"} }

func spec(word uint32, shift, mask uint32) RegSpecifier {
	return RegSpecifier((word >> shift) & mask)
}

func rd(word uint32) RegSpecifier  { return spec(word, 7, 0x1F) }
func rs1(word uint32) RegSpecifier { return spec(word, 15, 0x1F) }
func rs2(word uint32) RegSpecifier { return spec(word, 20, 0x1F) }
func funct3(word uint32) uint32    { return (word >> 12) & 0x7 }
func funct7(word uint32) uint32    { return (word >> 25) & 0x7F }

func signExtend(value uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(value<<shift) >> shift
}

func iImm(word uint32) int32 {
	return signExtend(word>>20, 12)
}

func sImm(word uint32) int32 {
	v := ((word >> 7) & 0x1F) | (((word >> 25) & 0x7F) << 5)
	return signExtend(v, 12)
}

func bImm(word uint32) int32 {
	v := (((word >> 8) & 0xF) << 1) |
		(((word >> 25) & 0x3F) << 5) |
		(((word >> 7) & 0x1) << 11) |
		(((word >> 31) & 0x1) << 12)
	return signExtend(v, 13)
}

func uImm(word uint32) int32 {
	return int32(word & 0xFFFFF000)
}

func jImm(word uint32) int32 {
	v := (((word >> 21) & 0x3FF) << 1) |
		(((word >> 20) & 0x1) << 11) |
		(((word >> 12) & 0xFF) << 12) |
		(((word >> 31) & 0x1) << 20)
	return signExtend(v, 21)
}

// Decode parses a little-endian 32-bit instruction word into an
// Instruction, or returns a DecodeError for an unsupported opcode or an
// illegal encoding of a supported one.
//
// Grounded on original_source/red-planet-core/src/instruction.rs's
// opcode-then-funct dispatch shape; the System opcode's funct3 cases are
// extended past Ecall/Ebreak to the rest of Zicsr (see instruction.go's
// doc comment).
func Decode(word uint32) (Instruction, error) {
	switch word & 0x7F {
	case 0b0000011:
		return decodeLoad(word)
	case 0b0010011:
		return decodeOpImm(word)
	case 0b0010111:
		return Instruction{Kind: KindAuipc, Dest: rd(word), Immediate: uImm(word)}, nil
	case 0b0100011:
		return decodeStore(word)
	case 0b0110011:
		return decodeOp(word)
	case 0b0110111:
		return Instruction{Kind: KindLui, Dest: rd(word), Immediate: uImm(word)}, nil
	case 0b1100011:
		return decodeBranch(word)
	case 0b1100111:
		if funct3(word) != 0 {
			return Instruction{}, illegal(word)
		}
		return Instruction{Kind: KindJalr, Dest: rd(word), Base: rs1(word), Immediate: iImm(word)}, nil
	case 0b1101111:
		return Instruction{Kind: KindJal, Dest: rd(word), Immediate: jImm(word)}, nil
	case 0b1110011:
		return decodeSystem(word)
	case 0b0001111:
		if funct3(word) != 0 {
			return Instruction{}, illegal(word)
		}
		return Instruction{Kind: KindFence}, nil
	default:
		return Instruction{}, unsupported(word)
	}
}

func decodeOpImm(word uint32) (Instruction, error) {
	f3 := funct3(word)
	switch f3 {
	case 0b000, 0b010, 0b011, 0b100, 0b110, 0b111:
		op := map[uint32]RegImmOp{
			0b000: Addi, 0b010: Slti, 0b011: Sltiu, 0b100: Xori, 0b110: Ori, 0b111: Andi,
		}[f3]
		return Instruction{Kind: KindOpImm, RegImmOp: op, Dest: rd(word), Src: rs1(word), Immediate: iImm(word)}, nil
	case 0b001:
		if funct7(word) != 0 {
			return Instruction{}, illegal(word)
		}
		return Instruction{Kind: KindOpShiftImm, ShiftImmOp: Slli, Dest: rd(word), Src: rs1(word), ShiftAmt: rs2Shamt(word)}, nil
	case 0b101:
		switch funct7(word) {
		case 0b0000000:
			return Instruction{Kind: KindOpShiftImm, ShiftImmOp: Srli, Dest: rd(word), Src: rs1(word), ShiftAmt: rs2Shamt(word)}, nil
		case 0b0100000:
			return Instruction{Kind: KindOpShiftImm, ShiftImmOp: Srai, Dest: rd(word), Src: rs1(word), ShiftAmt: rs2Shamt(word)}, nil
		default:
			return Instruction{}, illegal(word)
		}
	default:
		return Instruction{}, illegal(word)
	}
}

func rs2Shamt(word uint32) uint32 { return uint32(rs2(word)) }

func decodeOp(word uint32) (Instruction, error) {
	f3, f7 := funct3(word), funct7(word)
	type key struct {
		f3, f7 uint32
	}
	ops := map[key]RegRegOp{
		{0b000, 0}: Add, {0b000, 0b0100000}: Sub,
		{0b001, 0}: Sll,
		{0b010, 0}: Slt,
		{0b011, 0}: Sltu,
		{0b100, 0}: Xor,
		{0b101, 0}: Srl, {0b101, 0b0100000}: Sra,
		{0b110, 0}: Or,
		{0b111, 0}: And,
	}
	op, ok := ops[key{f3, f7}]
	if !ok {
		return Instruction{}, illegal(word)
	}
	return Instruction{Kind: KindOp, RegRegOp: op, Dest: rd(word), Src1: rs1(word), Src2: rs2(word)}, nil
}

func decodeBranch(word uint32) (Instruction, error) {
	conds := map[uint32]BranchCond{
		0b000: Beq, 0b001: Bne, 0b100: Blt, 0b101: Bge, 0b110: Bltu, 0b111: Bgeu,
	}
	cond, ok := conds[funct3(word)]
	if !ok {
		return Instruction{}, illegal(word)
	}
	return Instruction{Kind: KindBranch, Branch: cond, Src1: rs1(word), Src2: rs2(word), Immediate: bImm(word)}, nil
}

func decodeLoad(word uint32) (Instruction, error) {
	widths := map[uint32]Width{
		0b000: Byte, 0b001: Half, 0b010: Word, 0b100: ByteUnsigned, 0b101: HalfUnsigned,
	}
	w, ok := widths[funct3(word)]
	if !ok {
		return Instruction{}, illegal(word)
	}
	return Instruction{Kind: KindLoad, Width: w, Dest: rd(word), Base: rs1(word), Immediate: iImm(word)}, nil
}

func decodeStore(word uint32) (Instruction, error) {
	widths := map[uint32]Width{0b000: Byte, 0b001: Half, 0b010: Word}
	w, ok := widths[funct3(word)]
	if !ok {
		return Instruction{}, illegal(word)
	}
	return Instruction{Kind: KindStore, Width: w, Src: rs2(word), Base: rs1(word), Immediate: sImm(word)}, nil
}

func decodeSystem(word uint32) (Instruction, error) {
	f3 := funct3(word)
	if f3 == 0 {
		if rd(word) != 0 || rs1(word) != 0 {
			return Instruction{}, illegal(word)
		}
		switch word >> 20 {
		case 0x000:
			return Instruction{Kind: KindEcall}, nil
		case 0x001:
			return Instruction{Kind: KindEbreak}, nil
		case 0x302:
			return Instruction{Kind: KindMret}, nil
		case 0x102:
			return Instruction{Kind: KindSret}, nil
		case 0x105:
			return Instruction{Kind: KindWfi}, nil
		default:
			return Instruction{}, illegal(word)
		}
	}

	ops := map[uint32]CSROp{
		0b001: CSRRW, 0b010: CSRRS, 0b011: CSRRC,
		0b101: CSRRWI, 0b110: CSRRSI, 0b111: CSRRCI,
	}
	op, ok := ops[f3]
	if !ok {
		return Instruction{}, illegal(word)
	}
	instr := Instruction{
		Kind:  KindCSR,
		CSROp: op,
		Dest:  rd(word),
		CSR:   CSRSpecifier(word >> 20),
	}
	if op == CSRRWI || op == CSRRSI || op == CSRRCI {
		instr.Zimm = uint32(rs1(word))
	} else {
		instr.Src = rs1(word)
	}
	return instr, nil
}
