// Package report formats what a machine looked like when it stopped.
package report

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/crypto/blake2b"

	"github.com/vatine/minimips/pkg/cpu"
)

// Dump renders the register file, one "$n: value" line per register.
func Dump(regs [cpu.RegisterCount]uint32) string {
	var b strings.Builder
	for ix, v := range regs {
		fmt.Fprintf(&b, "$%d: %d\n", ix, v)
	}
	return b.String()
}

// Diff returns a unified diff between two dumps, or "" when they
// match.
func Diff(expected, actual string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(actual),
		FromFile: "Expected",
		ToFile:   "Actual",
		Context:  1,
	})
}

// Fingerprint hashes terminal state, PC and registers with
// blake2b-256. The cycle count is not part of it, so two programs that
// end in the same place agree.
func Fingerprint(t cpu.Termination) string {
	buf := make([]byte, 0, 1+4+4*cpu.RegisterCount)
	buf = append(buf, byte(t.State))
	buf = binary.BigEndian.AppendUint32(buf, t.PC)
	for _, r := range t.Registers {
		buf = binary.BigEndian.AppendUint32(buf, r)
	}
	sum := blake2b.Sum256(buf)
	return hex.EncodeToString(sum[:])
}
