package cpu

import (
	"testing"

	"rv32spin/test"
)

func TestDecodeAddi(t *testing.T) {
	// addi x10, x0, 5
	word := uint32(5<<20) | (0 << 15) | (0b000 << 12) | (10 << 7) | 0b0010011
	instr, err := Decode(word)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, instr.Kind, KindOpImm)
	test.ExpectEquality(t, instr.RegImmOp, Addi)
	test.ExpectEquality(t, instr.Dest, RegSpecifier(10))
	test.ExpectEquality(t, instr.Immediate, int32(5))
}

func TestDecodeLui(t *testing.T) {
	// lui x10, 0x1
	word := uint32(0x1000) | (10 << 7) | 0b0110111
	instr, err := Decode(word)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, instr.Kind, KindLui)
	test.ExpectEquality(t, instr.Immediate, int32(0x1000))
}

func TestDecodeAuipc(t *testing.T) {
	word := uint32(0x8000_0000) | (10 << 7) | 0b0010111
	instr, err := Decode(word)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, instr.Kind, KindAuipc)
}

func TestDecodeBranchMisaligned(t *testing.T) {
	// beq x0, x0, 2 (a branch target two bytes past pc, not four-aligned)
	imm := uint32(2)
	word := (((imm >> 12) & 1) << 31) | (((imm >> 5) & 0x3F) << 25) |
		(0 << 20) | (0 << 15) | (0b000 << 12) |
		(((imm >> 1) & 0xF) << 8) | (((imm >> 11) & 1) << 7) | 0b1100011
	instr, err := Decode(word)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, instr.Kind, KindBranch)
	test.ExpectEquality(t, instr.Immediate, int32(2))
}

func TestDecodeCSRRW(t *testing.T) {
	// csrrw x1, mscratch, x2
	word := uint32(0x340<<20) | (2 << 15) | (0b001 << 12) | (1 << 7) | 0b1110011
	instr, err := Decode(word)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, instr.Kind, KindCSR)
	test.ExpectEquality(t, instr.CSROp, CSRRW)
	test.ExpectEquality(t, instr.CSR, CSRSpecifier(0x340))
}

func TestDecodeMretSretWfi(t *testing.T) {
	mret, err := Decode(uint32(0x302<<20) | 0b1110011)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, mret.Kind, KindMret)

	sret, err := Decode(uint32(0x102<<20) | 0b1110011)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, sret.Kind, KindSret)

	wfi, err := Decode(uint32(0x105<<20) | 0b1110011)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, wfi.Kind, KindWfi)
}

func TestDecodeIllegalOpImm(t *testing.T) {
	// slli with a nonzero funct7 is illegal.
	word := uint32(0b0100000<<25) | (1 << 20) | (0 << 15) | (0b001 << 12) | (10 << 7) | 0b0010011
	_, err := Decode(word)
	test.ExpectFailure(t, err)
}

func TestDecodeUnsupportedOpcode(t *testing.T) {
	_, err := Decode(0b1111111)
	test.ExpectFailure(t, err)
}
