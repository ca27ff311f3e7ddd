// The minimips CPU package.
//
// A single-cycle model of a reduced MIPS datapath: fetch a word,
// decode it into fields and control signals, run the ALU, write back,
// advance the program counter. Two instruction sets are supported, see
// Variant.
//
// The cpu package includes the ALU, instruction decoding, memory
// interfaces and the execution loop.
package cpu

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

const (
	RegisterCount = 32
	// Memory size, in words, used when Config leaves it unset.
	DefaultMemoryWords = 102400
)

// ErrCycleLimit is returned by RunFor when the machine is still
// running after the requested number of cycles.
var ErrCycleLimit = errors.New("cpu: cycle limit reached")

// State of the execution loop.
type State uint8

const (
	Running State = iota
	Halted
	OutOfBounds
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Halted:
		return "halted"
	case OutOfBounds:
		return "out of bounds"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Config for NewMachine. The zero value gives a VariantJump machine
// with DefaultMemoryWords of local memory.
type Config struct {
	Variant     Variant
	MemoryWords uint32
	// Base is the auxiliary base word added to every LW address.
	Base uint32
	// Memory, when set, is used instead of a fresh DirectMemory and
	// MemoryWords is ignored.
	Memory   MemoryBackend
	Observer Observer
}

// Basic machine data structure. Register 0 is an ordinary register
// here; writes to it stick.
type Machine struct {
	Registers [RegisterCount]uint32
	PC        uint32
	Base      uint32
	Variant   Variant
	Memory    MemoryBackend
	Observer  Observer

	cycles uint64
	state  State
}

func NewMachine(cfg Config) *Machine {
	mem := cfg.Memory
	if mem == nil {
		size := cfg.MemoryWords
		if size == 0 {
			size = DefaultMemoryWords
		}
		mem = NewDirectMemory(size)
	}

	return &Machine{
		Base:     cfg.Base,
		Variant:  cfg.Variant,
		Memory:   mem,
		Observer: cfg.Observer,
		state:    Running,
	}
}

// Reset clears registers, PC and cycle count and puts the machine back
// into the Running state. Memory is left alone.
func (m *Machine) Reset() {
	m.Registers = [RegisterCount]uint32{}
	m.PC = 0
	m.cycles = 0
	m.state = Running
}

func (m *Machine) State() State {
	return m.state
}

// Number of instructions executed so far.
func (m *Machine) Cycles() uint64 {
	return m.cycles
}

// Fetch the word at a byte address. The bool is false when the
// address is past the end of memory, in which case the word is 0.
func (m *Machine) FetchWord(address uint32) (uint32, bool) {
	index := address / 4
	if index >= m.Memory.Size() {
		return 0, false
	}
	return m.Memory.FetchWord(index), true
}

// Store a word at a byte address, returning the previous word. Only
// program loaders use this; no instruction writes memory.
func (m *Machine) StoreWord(address, word uint32) (uint32, error) {
	index := address / 4
	if index >= m.Memory.Size() {
		return 0, fmt.Errorf("store to 0x%08x: outside %d words of memory", address, m.Memory.Size())
	}
	return m.Memory.WriteWord(index, word), nil
}

// Make the machine take another step: fetch, decode, halt or execute,
// advance PC.
func (m *Machine) Step() State {
	if m.state != Running {
		return m.state
	}

	fields := logrus.Fields{
		"PC":    m.PC,
		"cycle": m.cycles,
	}
	logrus.WithFields(fields).Debug("CPU Step")

	word, ok := m.FetchWord(m.PC)
	if !ok {
		logrus.WithFields(fields).Warn("PC out of bounds")
		m.terminate(OutOfBounds)
		return m.state
	}

	i := Decode(word, m.Variant)
	if i.Opcode == OpcodeHLT {
		logrus.WithFields(fields).Info("HLT instruction encountered, halting")
		m.terminate(Halted)
		return m.state
	}

	pc := m.PC
	report := m.execute(i)
	m.nextInstruction(i)
	m.cycles++

	report.Cycle = m.cycles
	report.PC = pc
	report.Instruction = i
	report.NextPC = m.PC
	if m.Observer != nil {
		m.Observer.Cycle(report)
	}

	return m.state
}

// Run steps until the machine halts or runs off the end of memory.
// There is no cycle limit; a program that loops forever keeps Run
// busy forever.
func (m *Machine) Run() State {
	for m.Step() == Running {
	}
	return m.state
}

// RunFor steps at most n times. It returns ErrCycleLimit if the
// machine is still running afterwards.
func (m *Machine) RunFor(n uint64) (State, error) {
	for k := uint64(0); k < n; k++ {
		if m.Step() != Running {
			return m.state, nil
		}
	}
	if m.state == Running {
		return m.state, ErrCycleLimit
	}
	return m.state, nil
}

// Termination returns the report for the machine as it stands.
func (m *Machine) Termination() Termination {
	return Termination{
		State:     m.state,
		PC:        m.PC,
		Cycles:    m.cycles,
		Registers: m.Registers,
	}
}

func (m *Machine) terminate(s State) {
	m.state = s
	if m.Observer != nil {
		m.Observer.Terminated(m.Termination())
	}
}
