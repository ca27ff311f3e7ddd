package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vatine/minimips/pkg/cpu"
	"github.com/vatine/minimips/pkg/loader"
	"github.com/vatine/minimips/pkg/report"
	"github.com/vatine/minimips/pkg/trace"
)

type options struct {
	program  string
	hexPath  string
	asmPath  string
	variant  string
	memWords uint
	base     uint
	regs     string
	steps    uint64
	logLevel string
	traceDB  string
	expect   string
}

func main() {
	var o options
	flag.StringVar(&o.program, "program", "counting-loop", "Built-in program ("+strings.Join(loader.BuiltinNames(), ", ")+")")
	flag.StringVar(&o.hexPath, "hex", "", "File of hex instruction words to load at 0x0")
	flag.StringVar(&o.asmPath, "asm", "", "Assembly file to load at 0x0")
	flag.StringVar(&o.variant, "variant", "", "Instruction set: jump or loadword (default: the program's own)")
	flag.UintVar(&o.memWords, "mem", cpu.DefaultMemoryWords, "Memory size in words")
	flag.UintVar(&o.base, "base", 0, "Base word added to load-word addresses")
	flag.StringVar(&o.regs, "regs", "", "Initial registers, e.g. 1=1,3=101 (added to the program's own)")
	flag.Uint64Var(&o.steps, "steps", 0, "Max cycles, 0 for no limit")
	flag.StringVar(&o.logLevel, "log-level", "info", "Log level")
	flag.StringVar(&o.traceDB, "trace-db", "", "Record every cycle into a pebble database at this path")
	flag.StringVar(&o.expect, "expect", "", "File with the expected final register dump")
	flag.Parse()

	level, err := logrus.ParseLevel(o.logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logrus.SetLevel(level)

	code, err := run(o, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "mipssim:", err)
	}
	os.Exit(code)
}

func readProgram(o options) (loader.Program, error) {
	p, err := loader.Builtin(o.program)
	if err != nil {
		return p, err
	}

	var words []uint32
	switch {
	case o.hexPath != "":
		f, err := os.Open(o.hexPath)
		if err != nil {
			return p, err
		}
		defer f.Close()
		words, err = loader.ParseHex(f)
		if err != nil {
			return p, fmt.Errorf("%s: %w", o.hexPath, err)
		}
	case o.asmPath != "":
		f, err := os.Open(o.asmPath)
		if err != nil {
			return p, err
		}
		defer f.Close()
		words, err = loader.Assemble(f)
		if err != nil {
			return p, fmt.Errorf("%s: %w", o.asmPath, err)
		}
	}
	if words != nil {
		p = loader.Program{Name: "file", Words: words, Variant: p.Variant}
	}

	regs, err := loader.ParseRegisters(o.regs)
	if err != nil {
		return p, err
	}
	if p.Registers == nil {
		p.Registers = map[uint8]uint32{}
	}
	for r, v := range regs {
		p.Registers[r] = v
	}

	if o.variant != "" {
		p.Variant, err = cpu.ParseVariant(o.variant)
		if err != nil {
			return p, err
		}
	}
	return p, nil
}

// run returns the process exit code: 0 on halt, 1 on error or a dump
// mismatch, 3 when the program ran out of memory or cycles.
func run(o options, out io.Writer) (int, error) {
	p, err := readProgram(o)
	if err != nil {
		return 1, err
	}

	var rec *trace.Recorder
	observers := []cpu.Observer{trace.NewLogObserver(logrus.StandardLogger())}
	if o.traceDB != "" {
		rec, err = trace.OpenRecorder(o.traceDB)
		if err != nil {
			return 1, err
		}
		defer rec.Close()
		observers = append(observers, rec)
	}

	m := cpu.NewMachine(cpu.Config{
		Variant:     p.Variant,
		MemoryWords: uint32(o.memWords),
		Base:        uint32(o.base),
		Observer:    trace.Multi(observers...),
	})
	if err := p.Load(m); err != nil {
		return 1, err
	}

	fields := logrus.Fields{
		"program": p.Name,
		"variant": p.Variant.String(),
		"memory":  m.Memory.Size(),
	}
	logrus.WithFields(fields).Info("starting")

	var state cpu.State
	if o.steps == 0 {
		state = m.Run()
	} else {
		state, err = m.RunFor(o.steps)
		if errors.Is(err, cpu.ErrCycleLimit) {
			logrus.WithField("steps", o.steps).Warn("cycle limit reached")
		}
	}

	t := m.Termination()
	dump := report.Dump(t.Registers)
	fmt.Fprintln(out, "Final register values:")
	fmt.Fprint(out, dump)
	fmt.Fprintf(out, "state: %s, pc: %d, cycles: %d\n", state, t.PC, t.Cycles)
	fmt.Fprintf(out, "fingerprint: %s\n", report.Fingerprint(t))

	if rec != nil {
		if err := rec.Err(); err != nil {
			return 1, fmt.Errorf("trace: %w", err)
		}
	}

	if o.expect != "" {
		expected, err := os.ReadFile(o.expect)
		if err != nil {
			return 1, err
		}
		diff, err := report.Diff(string(expected), dump)
		if err != nil {
			return 1, err
		}
		if diff != "" {
			fmt.Fprint(out, diff)
			return 1, fmt.Errorf("register dump differs from %s", o.expect)
		}
	}

	if state != cpu.Halted {
		return 3, nil
	}
	return 0, nil
}
