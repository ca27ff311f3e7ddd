package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFields(t *testing.T) {
	i := Decode(0x00411020, VariantJump)

	assert.Equal(t, uint8(OpcodeRType), i.Opcode)
	assert.Equal(t, uint8(2), i.RS)
	assert.Equal(t, uint8(1), i.RT)
	assert.Equal(t, uint8(2), i.RD)
	assert.Equal(t, uint8(FunctADD), i.Funct)
	assert.Equal(t, uint32(0x1020), i.Immediate)
	assert.Equal(t, uint32(0x00411020), i.Word)

	i = Decode(0x1423FFFD, VariantJump)
	assert.Equal(t, uint8(OpcodeBNE), i.Opcode)
	assert.Equal(t, uint8(1), i.RS)
	assert.Equal(t, uint8(3), i.RT)
	assert.Equal(t, uint32(0xFFFFFFFD), i.Immediate)
	assert.Equal(t, int32(-3), int32(i.Immediate))
}

func TestSignExtend16(t *testing.T) {
	for v := uint32(0); v <= 0xFFFF; v++ {
		seen := SignExtend16(v)
		if v&0x8000 != 0 {
			require.Equal(t, v|0xFFFF0000, seen)
		} else {
			require.Equal(t, v, seen)
		}
		require.Equal(t, seen, Decode(0x20000000|v, VariantJump).Immediate)
	}
	assert.Equal(t, uint32(0x7FFF), SignExtend16(0xABCD7FFF))
}

func TestControlTable(t *testing.T) {
	rAdd := ControlSignals{RegDst: true, RegWrite: true, ALUOp: ADD}
	rSub := ControlSignals{RegDst: true, RegWrite: true, ALUOp: SUB}
	addi := ControlSignals{ALUSrc: true, RegWrite: true, ALUOp: ADD}
	bne := ControlSignals{Branch: true, ALUOp: SUB}
	j := ControlSignals{Jump: true}
	lw := ControlSignals{ALUSrc: true, MemtoReg: true, RegWrite: true, ALUOp: ADD}
	none := ControlSignals{}

	cases := []struct {
		name     string
		word     uint32
		variant  Variant
		expected ControlSignals
	}{
		{"ADD", EncodeR(1, 2, 3, FunctADD), VariantJump, rAdd},
		{"SUB", EncodeR(1, 2, 3, FunctSUB), VariantJump, rSub},
		{"R-type unknown funct", EncodeR(1, 2, 3, 0x2A), VariantJump, ControlSignals{RegDst: true, RegWrite: true}},
		{"ADDI", EncodeI(OpcodeADDI, 1, 1, 1), VariantJump, addi},
		{"BNE", EncodeI(OpcodeBNE, 1, 3, -3), VariantJump, bne},
		{"J", EncodeJ(OpcodeJ, 12), VariantJump, j},
		{"LW in jump variant", EncodeI(OpcodeLW, 0, 4, 8), VariantJump, none},
		{"HLT", EncodeHalt(), VariantJump, none},
		{"unknown", 0xC4000000, VariantJump, none},

		{"ADD lw", EncodeR(1, 2, 3, FunctADD), VariantLoadWord, rAdd},
		{"SUB lw", EncodeR(1, 2, 3, FunctSUB), VariantLoadWord, rSub},
		{"ADDI lw", EncodeI(OpcodeADDI, 1, 1, 1), VariantLoadWord, addi},
		{"BNE lw", EncodeI(OpcodeBNE, 1, 3, -3), VariantLoadWord, bne},
		{"LW", EncodeI(OpcodeLW, 0, 4, 8), VariantLoadWord, lw},
		{"J in load-word variant", EncodeJ(OpcodeJ, 12), VariantLoadWord, none},
		{"HLT lw", EncodeHalt(), VariantLoadWord, none},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Decode(tc.word, tc.variant).Control)
		})
	}
}

func TestControlDoesNotLeak(t *testing.T) {
	// Nothing from the previous decode survives into the next one.
	for _, prev := range []uint32{EncodeJ(OpcodeJ, 1), EncodeI(OpcodeBNE, 1, 2, 3), EncodeR(1, 2, 3, FunctSUB)} {
		Decode(prev, VariantJump)
		assert.Equal(t, ControlSignals{}, Decode(0xC4000000, VariantJump).Control)
		assert.Equal(t, ControlSignals{}, Decode(EncodeHalt(), VariantJump).Control)
	}
}

func TestMnemonic(t *testing.T) {
	cases := []struct {
		word     uint32
		variant  Variant
		expected string
	}{
		{0x00411020, VariantJump, "ADD"},
		{EncodeR(1, 2, 3, FunctSUB), VariantJump, "SUB"},
		{0x20210001, VariantJump, "ADDI"},
		{0x1423FFFD, VariantJump, "BNE"},
		{EncodeJ(OpcodeJ, 4), VariantJump, "J"},
		{EncodeJ(OpcodeJ, 4), VariantLoadWord, "???"},
		{EncodeI(OpcodeLW, 0, 1, 0), VariantLoadWord, "LW"},
		{EncodeI(OpcodeLW, 0, 1, 0), VariantJump, "???"},
		{0xFC000000, VariantJump, "HLT"},
		{EncodeR(1, 2, 3, 0x3F), VariantJump, "???"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, Decode(tc.word, tc.variant).Mnemonic(), "word 0x%08x", tc.word)
	}
}

func TestEncoders(t *testing.T) {
	assert.Equal(t, uint32(0x00411020), EncodeR(2, 1, 2, FunctADD))
	assert.Equal(t, uint32(0x20210001), EncodeI(OpcodeADDI, 1, 1, 1))
	assert.Equal(t, uint32(0x1423FFFD), EncodeI(OpcodeBNE, 1, 3, -3))
	assert.Equal(t, uint32(0xFC000000), EncodeHalt())
	assert.Equal(t, uint32(0x08000003), EncodeJ(OpcodeJ, 3))
	assert.Equal(t, uint32(0x0BFFFFFF), EncodeJ(OpcodeJ, 0xFFFFFFFF))
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("jump")
	require.NoError(t, err)
	assert.Equal(t, VariantJump, v)

	v, err = ParseVariant(" LoadWord ")
	require.NoError(t, err)
	assert.Equal(t, VariantLoadWord, v)
	assert.Equal(t, "loadword", v.String())

	_, err = ParseVariant("mips64")
	assert.Error(t, err)
}
