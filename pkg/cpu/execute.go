package cpu

import (
	"github.com/sirupsen/logrus"
)

// execute applies the effect of one decoded instruction. PC is only
// touched here for a jump or a taken branch; the regular advance
// happens in nextInstruction.
func (m *Machine) execute(i Instruction) CycleReport {
	var r CycleReport
	c := i.Control

	if c.Jump {
		m.PC = m.Registers[i.RS]
		r.Jumped = true
		return r
	}

	var result uint32
	switch {
	case c.Branch:
		rs, rt := m.Registers[i.RS], m.Registers[i.RT]
		result = ALU(rs, rt, c.ALUOp)
		r.Branch = &BranchReport{
			ALUResult: result,
			RS:        rs,
			RT:        rt,
			Immediate: i.Immediate,
		}
		if result != 0 {
			r.Branch.Taken = true
			m.PC += i.Immediate << 2
			return r
		}
	case c.ALUSrc:
		result = ALU(m.Registers[i.RS], i.Immediate, c.ALUOp)
	default:
		result = ALU(m.Registers[i.RS], m.Registers[i.RT], c.ALUOp)
	}

	if c.MemtoReg && m.Variant == VariantLoadWord {
		address := m.Base + result
		value := m.loadWord(address)
		m.Registers[i.RT] = value
		r.WriteBack = &WriteBack{
			Register:   i.RT,
			Value:      value,
			FromMemory: true,
			Address:    address,
		}
		return r
	}

	if c.RegWrite {
		dst := i.RT
		if c.RegDst {
			dst = i.RD
		}
		m.Registers[dst] = result
		r.WriteBack = &WriteBack{Register: dst, Value: result}
	}

	return r
}

// loadWord reads data memory for LW. An address past the end of
// memory reads as 0.
func (m *Machine) loadWord(address uint32) uint32 {
	index := address / 4
	if index >= m.Memory.Size() {
		fields := logrus.Fields{
			"address": address,
			"base":    m.Base,
		}
		logrus.WithFields(fields).Warn("load outside memory")
		return 0
	}
	return m.Memory.FetchWord(index)
}

// nextInstruction advances PC after execute. Only the Jump flag
// suppresses the +4, so a taken branch lands at PC + 4 + offset. A
// direct J keeps the top four bits of whatever PC execute left.
func (m *Machine) nextInstruction(i Instruction) {
	if i.Control.Jump {
		if i.Opcode == OpcodeJ {
			m.PC = (m.PC & 0xF0000000) | (i.Immediate << 2)
		}
		return
	}
	m.PC += 4
}
