package cpu

import (
	"fmt"
	"strings"
)

// Opcodes and function codes understood by the control unit.
const (
	OpcodeRType = 0x00
	OpcodeJ     = 0x02
	OpcodeBNE   = 0x05
	OpcodeADDI  = 0x08
	OpcodeLW    = 0x23
	OpcodeHLT   = 0x3F

	FunctADD = 0x20
	FunctSUB = 0x22
)

// Variant picks which of the two instruction sets the machine decodes.
type Variant uint8

const (
	// VariantJump knows R-type ADD/SUB, ADDI, BNE, J and HLT.
	VariantJump Variant = iota
	// VariantLoadWord replaces J with LW and adds a base word to
	// load addresses.
	VariantLoadWord
)

func (v Variant) String() string {
	switch v {
	case VariantJump:
		return "jump"
	case VariantLoadWord:
		return "loadword"
	}
	return fmt.Sprintf("variant(%d)", uint8(v))
}

// ParseVariant maps "jump" or "loadword" to a Variant.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jump", "1":
		return VariantJump, nil
	case "loadword", "lw", "2":
		return VariantLoadWord, nil
	}
	return 0, fmt.Errorf("unknown ISA variant %q", s)
}

// ControlSignals mirrors the control lines of a single-cycle
// datapath. MemRead and MemWrite are never set by the decoder.
type ControlSignals struct {
	RegDst   bool
	ALUSrc   bool
	MemtoReg bool
	RegWrite bool
	MemRead  bool
	MemWrite bool
	Branch   bool
	Jump     bool
	ALUOp    ALUOperation
}

// Instruction is one decoded instruction word.
type Instruction struct {
	Word      uint32
	Opcode    uint8
	Funct     uint8
	RS        uint8
	RT        uint8
	RD        uint8
	Immediate uint32 // sign-extended from bits 15-0
	Control   ControlSignals
}

// SignExtend16 widens the low 16 bits of v, copying bit 15 upwards.
func SignExtend16(v uint32) uint32 {
	v &= 0xFFFF
	if v&0x8000 != 0 {
		v |= 0xFFFF0000
	}
	return v
}

// Decode slices word into its fields and derives the control signals
// for it. Unknown opcodes leave every signal off.
func Decode(word uint32, variant Variant) Instruction {
	i := Instruction{
		Word:      word,
		Opcode:    uint8((word >> 26) & 0x3F),
		Funct:     uint8(word & 0x3F),
		RS:        uint8((word >> 21) & 0x1F),
		RT:        uint8((word >> 16) & 0x1F),
		RD:        uint8((word >> 11) & 0x1F),
		Immediate: SignExtend16(word),
	}
	i.Control = control(i.Opcode, i.Funct, variant)
	return i
}

func control(opcode, funct uint8, variant Variant) ControlSignals {
	var c ControlSignals

	switch opcode {
	case OpcodeRType:
		c.RegDst = true
		c.RegWrite = true
		switch funct {
		case FunctADD:
			c.ALUOp = ADD
		case FunctSUB:
			c.ALUOp = SUB
		}
	case OpcodeADDI:
		c.ALUSrc = true
		c.RegWrite = true
		c.ALUOp = ADD
	case OpcodeBNE:
		c.Branch = true
		c.ALUOp = SUB
	case OpcodeJ:
		if variant == VariantJump {
			c.Jump = true
		}
	case OpcodeLW:
		if variant == VariantLoadWord {
			c.ALUSrc = true
			c.MemtoReg = true
			c.RegWrite = true
			c.ALUOp = ADD
		}
	case OpcodeHLT:
		c.RegWrite = false
		c.Jump = false
	}

	return c
}

// Mnemonic gives a short name for the instruction, "???" when the
// control unit does not know it.
func (i Instruction) Mnemonic() string {
	switch i.Opcode {
	case OpcodeRType:
		switch i.Funct {
		case FunctADD:
			return "ADD"
		case FunctSUB:
			return "SUB"
		}
	case OpcodeADDI:
		return "ADDI"
	case OpcodeBNE:
		return "BNE"
	case OpcodeJ:
		if i.Control.Jump {
			return "J"
		}
	case OpcodeLW:
		if i.Control.MemtoReg {
			return "LW"
		}
	case OpcodeHLT:
		return "HLT"
	}
	return "???"
}
