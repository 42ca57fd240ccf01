// Package core provides the cycle-accurate CPU core model.
// It wraps the pipeline implementation to provide a high-level interface
// for drivers: load a program, run for a bounded number of cycles,
// inspect state and statistics.
package core

import (
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/timing/pipeline"
)

// Stats holds performance statistics for the core.
type Stats struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions retired.
	Instructions uint64
	// Stalls is the number of stall cycles.
	Stalls uint64
	// Flushes is the number of squashed wrong-path instructions.
	Flushes uint64
	// CPI is the cycles-per-instruction ratio.
	CPI float64
}

// Core represents a cycle-accurate RV32I CPU core.
type Core struct {
	// Pipeline is the underlying 5-stage pipeline.
	Pipeline *pipeline.Pipeline
}

// NewCore creates a core with the given pipeline options.
func NewCore(opts ...pipeline.Option) *Core {
	return &Core{
		Pipeline: pipeline.New(opts...),
	}
}

// RegFile returns the core's register file.
func (c *Core) RegFile() *emu.RegFile {
	return c.Pipeline.RegFile()
}

// Bus returns the core's memory bus.
func (c *Core) Bus() *emu.Bus {
	return c.Pipeline.Bus()
}

// LoadProgram loads an instruction image and resets the PC.
func (c *Core) LoadProgram(image []uint32) {
	c.Pipeline.LoadProgram(image)
}

// Cycle advances the core by one clock cycle.
func (c *Core) Cycle() error {
	return c.Pipeline.Cycle()
}

// Run cycles the core until it halts or maxCycles elapse.
func (c *Core) Run(maxCycles uint64) error {
	return c.Pipeline.Run(maxCycles)
}

// Halted reports whether the core has drained after the end of the
// program or stopped on a fatal fetch fault.
func (c *Core) Halted() bool {
	return c.Pipeline.Halted()
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	pipeStats := c.Pipeline.Stats()
	return Stats{
		Cycles:       pipeStats.Cycles,
		Instructions: pipeStats.Instructions,
		Stalls:       pipeStats.Stalls,
		Flushes:      pipeStats.Flushes,
		CPI:          pipeStats.CPI(),
	}
}
