package loader

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vatine/minimips/pkg/cpu"
)

func stripComment(line string) string {
	if ix := strings.IndexAny(line, "#;"); ix >= 0 {
		line = line[:ix]
	}
	return strings.TrimSpace(line)
}

// ParseHex reads one instruction word per line, written in hex with or
// without a 0x prefix. Blank lines and anything after # or ; are
// ignored.
func ParseHex(r io.Reader) ([]uint32, error) {
	var rv []uint32
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		if line == "" {
			continue
		}
		line = strings.TrimPrefix(strings.TrimPrefix(line, "0x"), "0X")
		w, err := strconv.ParseUint(line, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad word %q", lineNo, line)
		}
		rv = append(rv, uint32(w))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rv, nil
}

// Assemble translates a small assembly dialect into instruction words:
//
//	ADD  $rd, $rs, $rt
//	SUB  $rd, $rs, $rt
//	ADDI $rt, $rs, imm
//	BNE  $rs, $rt, offset   ; offset in words
//	J    target             ; target word address
//	LW   $rt, offset($rs)
//	HLT
//	.word value
//
// Comments start with # or ;. Mnemonics are case-insensitive.
func Assemble(r io.Reader) ([]uint32, error) {
	var rv []uint32
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		if line == "" {
			continue
		}
		w, err := assembleLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		rv = append(rv, w)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rv, nil
}

func assembleLine(line string) (uint32, error) {
	mnemonic := line
	rest := ""
	if ix := strings.IndexAny(line, " \t"); ix >= 0 {
		mnemonic, rest = line[:ix], strings.TrimSpace(line[ix:])
	}
	var args []string
	if rest != "" {
		for _, a := range strings.Split(rest, ",") {
			args = append(args, strings.TrimSpace(a))
		}
	}

	switch strings.ToUpper(mnemonic) {
	case "ADD", "SUB":
		regs, err := registers(args, 3)
		if err != nil {
			return 0, err
		}
		funct := uint8(cpu.FunctADD)
		if strings.ToUpper(mnemonic) == "SUB" {
			funct = cpu.FunctSUB
		}
		return cpu.EncodeR(regs[1], regs[2], regs[0], funct), nil
	case "ADDI", "BNE":
		if len(args) != 3 {
			return 0, fmt.Errorf("%s wants 3 operands, got %d", mnemonic, len(args))
		}
		regs, err := registers(args[:2], 2)
		if err != nil {
			return 0, err
		}
		imm, err := immediate(args[2])
		if err != nil {
			return 0, err
		}
		if strings.ToUpper(mnemonic) == "BNE" {
			return cpu.EncodeI(cpu.OpcodeBNE, regs[0], regs[1], imm), nil
		}
		return cpu.EncodeI(cpu.OpcodeADDI, regs[1], regs[0], imm), nil
	case "LW":
		if len(args) != 2 {
			return 0, fmt.Errorf("LW wants 2 operands, got %d", len(args))
		}
		rt, err := parseRegister(args[0])
		if err != nil {
			return 0, err
		}
		off, rs := args[1], "$0"
		if open := strings.Index(off, "("); open >= 0 {
			if !strings.HasSuffix(off, ")") {
				return 0, fmt.Errorf("bad address %q", args[1])
			}
			off, rs = off[:open], off[open+1:len(off)-1]
		}
		base, err := parseRegister(rs)
		if err != nil {
			return 0, err
		}
		var imm int16
		if strings.TrimSpace(off) != "" {
			imm, err = immediate(off)
			if err != nil {
				return 0, err
			}
		}
		return cpu.EncodeI(cpu.OpcodeLW, base, rt, imm), nil
	case "J":
		if len(args) != 1 {
			return 0, fmt.Errorf("J wants 1 operand, got %d", len(args))
		}
		target, err := strconv.ParseUint(args[0], 0, 26)
		if err != nil {
			return 0, fmt.Errorf("bad jump target %q", args[0])
		}
		return cpu.EncodeJ(cpu.OpcodeJ, uint32(target)), nil
	case "HLT":
		if len(args) != 0 {
			return 0, fmt.Errorf("HLT takes no operands")
		}
		return cpu.EncodeHalt(), nil
	case ".WORD":
		if len(args) != 1 {
			return 0, fmt.Errorf(".word wants 1 operand, got %d", len(args))
		}
		return parseValue(args[0])
	}
	return 0, fmt.Errorf("unknown mnemonic %q", mnemonic)
}

func registers(args []string, n int) ([]uint8, error) {
	if len(args) != n {
		return nil, fmt.Errorf("want %d registers, got %d", n, len(args))
	}
	rv := make([]uint8, n)
	for ix, a := range args {
		if !strings.HasPrefix(a, "$") {
			return nil, fmt.Errorf("bad register %q", a)
		}
		r, err := parseRegister(a)
		if err != nil {
			return nil, err
		}
		rv[ix] = r
	}
	return rv, nil
}

func immediate(s string) (int16, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseInt(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("bad immediate %q", s)
	}
	// 0x8000..0xFFFF are accepted as raw 16-bit fields
	if n < -0x8000 || n > 0xFFFF {
		return 0, fmt.Errorf("immediate %d does not fit in 16 bits", n)
	}
	return int16(uint16(n)), nil
}
