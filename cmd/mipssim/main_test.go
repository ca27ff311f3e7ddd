package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vatine/minimips/pkg/cpu"
	"github.com/vatine/minimips/pkg/report"
	"github.com/vatine/minimips/pkg/trace"
)

func defaults() options {
	return options{program: "counting-loop", memWords: cpu.DefaultMemoryWords}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunBuiltin(t *testing.T) {
	var out bytes.Buffer
	code, err := run(defaults(), &out)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "$1: 101\n$2: 5050\n")
	assert.Contains(t, out.String(), "state: halted, pc: 12, cycles: 300")
}

func TestRunExpect(t *testing.T) {
	var regs [cpu.RegisterCount]uint32
	regs[1], regs[2], regs[3] = 101, 5050, 101

	o := defaults()
	o.expect = writeFile(t, "expected", report.Dump(regs))
	code, err := run(o, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	regs[2] = 5051
	o.expect = writeFile(t, "expected", report.Dump(regs))
	var out bytes.Buffer
	code, err = run(o, &out)
	assert.Error(t, err)
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "-$2: 5051")
}

func TestRunAssembly(t *testing.T) {
	o := defaults()
	o.asmPath = writeFile(t, "prog.s", "ADDI $1, $0, 3\nSUB $2, $0, $1\nHLT\n")

	var out bytes.Buffer
	code, err := run(o, &out)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "$2: 4294967293\n")
}

func TestRunHexOutOfBounds(t *testing.T) {
	o := defaults()
	o.hexPath = writeFile(t, "prog.hex", "20210001\n20210001\n")
	o.memWords = 2

	var out bytes.Buffer
	code, err := run(o, &out)
	require.NoError(t, err)
	assert.Equal(t, 3, code)
	assert.Contains(t, out.String(), "state: out of bounds")
}

func TestRunLoadWordWithTrace(t *testing.T) {
	o := defaults()
	o.program = "load-word"
	o.memWords = 32
	o.traceDB = filepath.Join(t.TempDir(), "trace")

	code, err := run(o, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	rec, err := trace.OpenRecorder(o.traceDB)
	require.NoError(t, err)
	defer rec.Close()
	s, err := rec.Summary()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x0BADF00D), s.Registers[4])
}

func TestRunStepLimit(t *testing.T) {
	o := defaults()
	o.steps = 10

	var out bytes.Buffer
	code, err := run(o, &out)
	require.NoError(t, err)
	assert.Equal(t, 3, code)
	assert.Contains(t, out.String(), "state: running")
}

func TestRunBadInput(t *testing.T) {
	cases := []func(*options){
		func(o *options) { o.program = "nope" },
		func(o *options) { o.variant = "mips64" },
		func(o *options) { o.regs = "99=1" },
		func(o *options) { o.hexPath = "/does/not/exist" },
		func(o *options) { o.memWords = 2 },
	}
	for ix, mutate := range cases {
		o := defaults()
		mutate(&o)
		code, err := run(o, &bytes.Buffer{})
		assert.Error(t, err, "case #%d", ix)
		assert.Equal(t, 1, code, "case #%d", ix)
	}
}
