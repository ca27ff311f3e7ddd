package cpu

// ALUOperation selects what the ALU computes.
type ALUOperation uint8

const (
	// ALUNone is what an R-type instruction with an unrecognised
	// funct field ends up with. The ALU output for it is 0.
	ALUNone ALUOperation = iota
	ADD
	SUB
	// SLT, BNE and HLT exist as tags but the decoder never emits
	// them, and the ALU treats them like any other unknown tag.
	SLT
	BNE
	HLT
)

func (op ALUOperation) String() string {
	switch op {
	case ADD:
		return "ADD"
	case SUB:
		return "SUB"
	case SLT:
		return "SLT"
	case BNE:
		return "BNE"
	case HLT:
		return "HLT"
	}
	return "none"
}

// ALU computes the result of op applied to a and b. Arithmetic wraps
// at 32 bits. Anything but ADD or SUB yields 0.
func ALU(a, b uint32, op ALUOperation) uint32 {
	switch op {
	case ADD:
		return a + b
	case SUB:
		return a - b
	default:
		return 0
	}
}
