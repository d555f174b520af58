package board

import "encoding/binary"

// resetVectorImage is the six-instruction mask-ROM trampoline mapped at
// 0x1000. It computes pc <- *(0x1000 + hart_id*8 + 0xFC) and jumps there;
// for this single-hart board that resolves to the word at physical
// 0x10FC, where firmware places the real entry point.
//
// Grounded on original_source/red-planet-core/src/board/mod.rs's
// reset_vector_rom construction.
var resetVectorImage = []byte{
	0x97, 0x02, 0x00, 0x00, // auipc t0, 0
	0x03, 0xa3, 0xc2, 0xff, // lw t1, -4(t0)
	0x13, 0x13, 0x33, 0x00, // slli t1, t1, 0x3
	0xb3, 0x82, 0x62, 0x00, // add t0, t0, t1
	0x83, 0xa2, 0xc2, 0x0f, // lw t0, 252(t0)
	0x67, 0x80, 0x02, 0x00, // jr t0
}

// resetVectorAddr is the mask ROM's base physical address.
const resetVectorAddr = 0x0000_1000

// resetVectorSize covers the documented Mask ROM range 0x1000..=0x1FFF.
const resetVectorSize = 0x1000

// resetVector is the PC the core starts execution at: one instruction
// into the trampoline, mirroring the teacher's board's reset_vector: 0x1004.
const resetVector = 0x0000_1004

// ResetVector exports resetVector for a driver that constructs a cpu.Core
// directly (rather than going through Board.Reset) and needs to start it
// at the same address the mask-ROM trampoline would have landed on.
const ResetVector = resetVector

// entryPointAddr is where firmware places its real entry point, read by
// the fifth trampoline instruction.
const entryPointAddr = 0x0000_10FC

// entryPointOffset is entryPointAddr relative to resetVectorAddr: where in
// the mask-ROM image NewBoard bakes in the firmware entry address.
const entryPointOffset = entryPointAddr - resetVectorAddr

// buildResetImage returns a copy of resetVectorImage padded and patched so
// that the word at entryPointOffset holds entry, little-endian. Without
// this the trampoline's "lw t0, 252(t0)" would read back zero (ROM pages
// read as zero past their supplied image) and jump to address 0 instead of
// firmware's actual start.
func buildResetImage(entry uint32) []byte {
	image := make([]byte, entryPointOffset+4)
	copy(image, resetVectorImage)
	binary.LittleEndian.PutUint32(image[entryPointOffset:], entry)
	return image
}
