// Package loader puts programs into a machine's memory before it runs.
package loader

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vatine/minimips/pkg/cpu"
)

var (
	ErrProgramTooLarge = errors.New("loader: program does not fit in memory")
	ErrUnknownProgram  = errors.New("loader: unknown built-in program")
)

// Program is a memory image plus the register values it expects to
// start with.
type Program struct {
	Name  string
	Words []uint32 // loaded from word 0 upwards
	// Data words keyed by word index, loaded after Words.
	Data      map[uint32]uint32
	Registers map[uint8]uint32
	Variant   cpu.Variant
}

// Load writes the program into m and sets its initial registers.
func (p Program) Load(m *cpu.Machine) error {
	size := m.Memory.Size()
	if uint64(len(p.Words)) > uint64(size) {
		return fmt.Errorf("%w: %d words, memory holds %d", ErrProgramTooLarge, len(p.Words), size)
	}
	for ix := range p.Data {
		if ix >= size {
			return fmt.Errorf("%w: data at word %d, memory holds %d", ErrProgramTooLarge, ix, size)
		}
	}

	for r := range p.Registers {
		if int(r) >= cpu.RegisterCount {
			return fmt.Errorf("loader: no register $%d", r)
		}
	}

	for ix, w := range p.Words {
		m.Memory.WriteWord(uint32(ix), w)
	}
	for ix, w := range p.Data {
		m.Memory.WriteWord(ix, w)
	}
	for r, v := range p.Registers {
		m.Registers[r] = v
	}

	fields := logrus.Fields{
		"program": p.Name,
		"words":   len(p.Words),
		"data":    len(p.Data),
	}
	logrus.WithFields(fields).Debug("program loaded")
	return nil
}

// CountingLoop sums 1..100 into $2.
func CountingLoop() Program {
	return Program{
		Name: "counting-loop",
		Words: []uint32{
			0x00411020, // ADD $2, $2, $1
			0x20210001, // ADDI $1, $1, 1
			0x1423FFFD, // BNE $1, $3, -3
			0xFC000000, // HLT
		},
		Registers: map[uint8]uint32{1: 1, 2: 0, 3: 101},
		Variant:   cpu.VariantJump,
	}
}

// LoadWordDemo loads the word at index 16 into $4 and adds one to it
// into $5. Needs the load-word instruction set.
func LoadWordDemo() Program {
	return Program{
		Name: "load-word",
		Words: []uint32{
			cpu.EncodeI(cpu.OpcodeLW, 0, 4, 64),
			cpu.EncodeI(cpu.OpcodeADDI, 4, 5, 1),
			cpu.EncodeHalt(),
		},
		Data:    map[uint32]uint32{16: 0x0BADF00D},
		Variant: cpu.VariantLoadWord,
	}
}

var builtins = map[string]func() Program{
	"counting-loop": CountingLoop,
	"load-word":     LoadWordDemo,
}

// Builtin looks up a built-in program by name.
func Builtin(name string) (Program, error) {
	f, ok := builtins[name]
	if !ok {
		return Program{}, fmt.Errorf("%w: %q", ErrUnknownProgram, name)
	}
	return f(), nil
}

// BuiltinNames lists the built-in programs, sorted.
func BuiltinNames() []string {
	var rv []string
	for name := range builtins {
		rv = append(rv, name)
	}
	sort.Strings(rv)
	return rv
}

// ParseRegisters reads initial register values written as
// "1=1,3=101". Values may be decimal or 0x-prefixed hex; negative
// decimals are stored in two's complement.
func ParseRegisters(s string) (map[uint8]uint32, error) {
	rv := map[uint8]uint32{}
	s = strings.TrimSpace(s)
	if s == "" {
		return rv, nil
	}

	for _, item := range strings.Split(s, ",") {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("register assignment %q: want reg=value", item)
		}
		r, err := parseRegister(parts[0])
		if err != nil {
			return nil, err
		}
		v, err := parseValue(parts[1])
		if err != nil {
			return nil, fmt.Errorf("register $%d: %w", r, err)
		}
		rv[r] = v
	}
	return rv, nil
}

func parseRegister(s string) (uint8, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil || n >= cpu.RegisterCount {
		return 0, fmt.Errorf("bad register %q", s)
	}
	return uint8(n), nil
}

func parseValue(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return 0, err
		}
		return uint32(int32(n)), nil
	}
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}
