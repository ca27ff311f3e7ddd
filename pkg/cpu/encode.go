package cpu

// Encode an R-type instruction. Shift amount is always zero.
func EncodeR(rs, rt, rd, funct uint8) uint32 {
	return uint32(rs&0x1F)<<21 | uint32(rt&0x1F)<<16 | uint32(rd&0x1F)<<11 | uint32(funct&0x3F)
}

// Encode an I-type instruction with a signed 16-bit immediate.
func EncodeI(opcode, rs, rt uint8, imm int16) uint32 {
	return uint32(opcode&0x3F)<<26 | uint32(rs&0x1F)<<21 | uint32(rt&0x1F)<<16 | uint32(uint16(imm))
}

// Encode a J-type instruction; target is a word address, truncated to
// 26 bits.
func EncodeJ(opcode uint8, target uint32) uint32 {
	return uint32(opcode&0x3F)<<26 | target&0x03FFFFFF
}

func EncodeHalt() uint32 {
	return uint32(OpcodeHLT) << 26
}
