package cpu

// BranchReport describes a BNE evaluation.
type BranchReport struct {
	ALUResult uint32
	RS        uint32 // value of registers[rs]
	RT        uint32 // value of registers[rt]
	Immediate uint32
	Taken     bool
}

// WriteBack describes the single register written during a cycle.
type WriteBack struct {
	Register   uint8
	Value      uint32
	FromMemory bool
	Address    uint32 // byte address loaded from, if FromMemory
}

// CycleReport is handed to observers after every executed cycle.
// Halting and out-of-bounds fetches do not produce one.
type CycleReport struct {
	Cycle       uint64
	PC          uint32 // address the instruction was fetched from
	Instruction Instruction
	Branch      *BranchReport
	WriteBack   *WriteBack
	Jumped      bool
	NextPC      uint32
}

// Termination is the final report once the machine stops.
type Termination struct {
	State     State
	PC        uint32
	Cycles    uint64
	Registers [RegisterCount]uint32
}

// Observer receives diagnostics from a running machine. It cannot
// influence execution.
type Observer interface {
	Cycle(CycleReport)
	Terminated(Termination)
}
