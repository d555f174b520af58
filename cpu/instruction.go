package cpu

// Instruction is a decoded RV32I+Zicsr instruction, tagged by kind with
// only the fields that kind needs populated.
//
// Grounded on original_source/red-planet-core/src/instruction.rs's
// variant set for the base ISA; the System opcode's funct3 dispatch is
// extended here beyond the original (which only decodes Ecall/Ebreak) to
// cover the six CSR instructions and Mret/Sret/Wfi, since Zicsr and
// privileged mode transitions are in scope for this simulator.
type Kind int

const (
	KindOpImm Kind = iota
	KindOpShiftImm
	KindLui
	KindAuipc
	KindOp
	KindJal
	KindJalr
	KindBranch
	KindLoad
	KindStore
	KindFence
	KindEcall
	KindEbreak
	KindMret
	KindSret
	KindWfi
	KindCSR
)

type RegImmOp int

const (
	Addi RegImmOp = iota
	Slti
	Sltiu
	Xori
	Ori
	Andi
)

type ShiftImmOp int

const (
	Slli ShiftImmOp = iota
	Srli
	Srai
)

type RegRegOp int

const (
	Add RegRegOp = iota
	Slt
	Sltu
	And
	Or
	Xor
	Sll
	Srl
	Sub
	Sra
)

type BranchCond int

const (
	Beq BranchCond = iota
	Bne
	Blt
	Bltu
	Bge
	Bgeu
)

type Width int

const (
	Byte Width = iota
	Half
	Word
	ByteUnsigned
	HalfUnsigned
)

// CSROp is a Zicsr instruction's operation: atomic read/write, read/set,
// or read/clear, each with a register or 5-bit-immediate source operand.
type CSROp int

const (
	CSRRW CSROp = iota
	CSRRS
	CSRRC
	CSRRWI
	CSRRSI
	CSRRCI
)

// Instruction is the decoded form of one 32-bit RISC-V word.
type Instruction struct {
	Kind Kind

	Dest RegSpecifier
	Src  RegSpecifier
	Src1 RegSpecifier
	Src2 RegSpecifier
	Base RegSpecifier

	RegImmOp   RegImmOp
	ShiftImmOp ShiftImmOp
	RegRegOp   RegRegOp
	Branch     BranchCond
	Width      Width
	CSROp      CSROp

	Immediate int32
	ShiftAmt  uint32
	CSR       CSRSpecifier
	Zimm      uint32 // 5-bit unsigned immediate used by CSRRWI/RSI/CI
}
