// Package trace collects per-cycle diagnostics from a running machine.
package trace

import (
	"github.com/sirupsen/logrus"

	"github.com/vatine/minimips/pkg/cpu"
	"github.com/vatine/minimips/pkg/report"
)

// LogObserver writes every cycle and the final register file to a
// logrus logger.
type LogObserver struct {
	log *logrus.Logger
}

func NewLogObserver(log *logrus.Logger) *LogObserver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LogObserver{log: log}
}

func (l *LogObserver) Cycle(c cpu.CycleReport) {
	entry := l.log.WithFields(logrus.Fields{
		"cycle": c.Cycle,
		"pc":    c.PC,
		"op":    c.Instruction.Mnemonic(),
	})

	if b := c.Branch; b != nil {
		entry.WithFields(logrus.Fields{
			"aluResult": int32(b.ALUResult),
			"rs":        b.RS,
			"rt":        b.RT,
			"imm":       int32(b.Immediate),
			"taken":     b.Taken,
		}).Info("branch evaluated")
	}
	if w := c.WriteBack; w != nil {
		fields := logrus.Fields{
			"register": w.Register,
			"value":    w.Value,
		}
		if w.FromMemory {
			fields["address"] = w.Address
		}
		entry.WithFields(fields).Info("register written back")
	}
	if c.Jumped {
		entry.Info("jump")
	}
	entry.WithField("nextPC", c.NextPC).Info("PC now")
}

func (l *LogObserver) Terminated(t cpu.Termination) {
	fields := logrus.Fields{
		"state":       t.State.String(),
		"pc":          t.PC,
		"cycles":      t.Cycles,
		"fingerprint": report.Fingerprint(t),
	}
	l.log.WithFields(fields).Info("machine stopped")

	if l.log.IsLevelEnabled(logrus.DebugLevel) {
		for ix, v := range t.Registers {
			l.log.WithField("register", ix).Debugf("final value %d", v)
		}
	}
}

type multi []cpu.Observer

// Multi hands every report to each of the observers, in order. Nil
// observers are skipped.
func Multi(observers ...cpu.Observer) cpu.Observer {
	var rv multi
	for _, o := range observers {
		if o != nil {
			rv = append(rv, o)
		}
	}
	return rv
}

func (m multi) Cycle(c cpu.CycleReport) {
	for _, o := range m {
		o.Cycle(c)
	}
}

func (m multi) Terminated(t cpu.Termination) {
	for _, o := range m {
		o.Terminated(t)
	}
}
