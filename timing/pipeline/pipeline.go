package pipeline

import (
	"github.com/sarchlab/rv32sim/emu"
)

// drainCycles is how many cycles the pipeline keeps cycling after the
// end of the instruction stream reaches Decode, so the instructions
// already in flight retire (EX, MEM, WB).
const drainCycles = 3

// Statistics holds pipeline performance counters.
type Statistics struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions retired at write-back.
	Instructions uint64
	// Stalls is the number of cycles the whole pipeline was frozen by
	// the stall predicate.
	Stalls uint64
	// Flushes is the number of wrong-path instructions squashed after a
	// branch or jump resolved at Decode.
	Flushes uint64
}

// CPI returns the cycles-per-instruction ratio.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// Option is a functional option for configuring the Pipeline.
type Option func(*Pipeline)

// WithMemoryMap overrides the default memory layout.
func WithMemoryMap(m emu.MemoryMap) Option {
	return func(p *Pipeline) {
		p.memMap = m
	}
}

// WithStallPredicate installs a predicate consulted at the top of every
// cycle. While it returns true the whole pipeline is frozen: no stage
// computes, every latch re-commits its held state.
func WithStallPredicate(shouldStall func() bool) Option {
	return func(p *Pipeline) {
		p.shouldStall = shouldStall
	}
}

// Pipeline is the 5-stage in-order RV32I pipeline controller. It owns
// the bus, the register file, and the five stage instances, wiring each
// stage's input to the upstream stage's latched output.
//
// Cycle runs every stage's Compute exactly once, then commits every
// latch exactly once. Because computes read only previous-cycle latched
// state, the order stages compute in is irrelevant.
type Pipeline struct {
	memMap  emu.MemoryMap
	rom     *emu.ROM
	ram     *emu.RAM
	bus     *emu.Bus
	regFile *emu.RegFile

	fetch     *FetchStage
	decode    *DecodeStage
	execute   *ExecuteStage
	memory    *MemoryStage
	writeback *WriteBackStage

	shouldStall func() bool

	stats Statistics

	// End-of-stream bookkeeping. fatalErr latches a fetch fault, which
	// is unrecoverable; draining counts down while in-flight
	// instructions retire after the stream ends.
	halted   bool
	draining int
	fatalErr error
}

// New constructs a pipeline with zeroed registers and memory and the PC
// at the ROM base.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		memMap:  emu.DefaultMemoryMap(),
		regFile: emu.NewRegFile(),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.rom, p.ram, p.bus = p.memMap.Build()

	p.fetch = NewFetchStage(p.bus, p.rom.Base(), func() (uint32, bool) {
		return p.decode.BranchResolution()
	})
	p.decode = NewDecodeStage(p.regFile, p.fetch.Out)
	p.execute = NewExecuteStage(p.decode.Out)
	p.memory = NewMemoryStage(p.bus, p.execute.Out)
	p.writeback = NewWriteBackStage(p.regFile, p.memory.Out)

	return p
}

// RegFile returns the pipeline's register file.
func (p *Pipeline) RegFile() *emu.RegFile {
	return p.regFile
}

// Bus returns the pipeline's memory bus.
func (p *Pipeline) Bus() *emu.Bus {
	return p.bus
}

// ROM returns the instruction memory.
func (p *Pipeline) ROM() *emu.ROM {
	return p.rom
}

// PC returns the fetch stage's committed program counter.
func (p *Pipeline) PC() uint32 {
	return p.fetch.PC()
}

// SetPC overrides the program counter. Initialization/test setup only.
func (p *Pipeline) SetPC(pc uint32) {
	p.fetch.SetPC(pc)
}

// LoadProgram loads an instruction image into ROM and resets the PC to
// the ROM base.
func (p *Pipeline) LoadProgram(image []uint32) {
	p.rom.LoadWords(image)
	p.fetch.SetPC(p.rom.Base())
}

// Halted reports whether the pipeline has fully drained after the end of
// the instruction stream, or stopped on a fatal fetch fault.
func (p *Pipeline) Halted() bool {
	return p.halted
}

// Stats returns the performance counters.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

// Cycle advances the simulation by one clock: a compute phase over all
// five stages followed by a commit phase over every latch (stage
// outputs, PC, register file).
//
// The returned error is a data-side bus fault from the memory stage
// (visible but non-fatal; the faulting access was dropped) or a fetch
// fault (fatal; the pipeline halts and every later Cycle returns the
// same fault).
func (p *Pipeline) Cycle() error {
	if p.halted {
		return p.fatalErr
	}

	p.stats.Cycles++

	if p.shouldStall != nil && p.shouldStall() {
		p.stats.Stalls++
		p.commit()
		return nil
	}

	// Compute phase. Each stage reads only state committed in earlier
	// cycles, so the call order here is conventional, not load-bearing.
	if p.draining > 0 {
		p.fetch.Squash()
	} else {
		if err := p.fetch.Compute(); err != nil {
			p.halted = true
			p.fatalErr = err
			return err
		}
	}

	halt := p.decode.Compute()
	p.execute.Compute()
	fault := p.memory.Compute()
	if p.writeback.Compute() {
		p.stats.Instructions++
	}

	if _, redirected := p.decode.BranchResolution(); redirected {
		p.stats.Flushes++
	}

	// Commit phase: the clock edge.
	p.commit()

	if halt {
		p.draining = drainCycles
	} else if p.draining > 0 {
		p.draining--
		if p.draining == 0 {
			p.halted = true
		}
	}

	return fault
}

// commit publishes every latch in the machine.
func (p *Pipeline) commit() {
	p.fetch.LatchNext()
	p.decode.LatchNext()
	p.execute.LatchNext()
	p.memory.LatchNext()
	p.regFile.Commit()
}

// Run cycles the pipeline until it halts or maxCycles elapse. It returns
// the first fault encountered, fatal or not.
func (p *Pipeline) Run(maxCycles uint64) error {
	for i := uint64(0); i < maxCycles && !p.halted; i++ {
		if err := p.Cycle(); err != nil {
			return err
		}
	}
	return nil
}
