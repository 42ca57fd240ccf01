package emu

import (
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/rv32sim/insts"
)

// Emulator is the functional (non-pipelined) reference model: it fetches,
// decodes, and fully executes one instruction per Step against the same
// decoder, register file, and bus the timing model uses. It exists as the
// golden semantics the pipeline is checked against and as the fast
// simulation mode of the CLI.
type Emulator struct {
	memMap  MemoryMap
	rom     *ROM
	ram     *RAM
	bus     *Bus
	regFile *RegFile
	decoder *insts.Decoder

	pc        uint32
	halted    bool
	fatalErr  error
	instCount uint64

	stdout io.Writer
}

// EmulatorOption configures an Emulator.
type EmulatorOption func(*Emulator)

// WithMemoryMap overrides the default memory layout.
func WithMemoryMap(m MemoryMap) EmulatorOption {
	return func(e *Emulator) {
		e.memMap = m
	}
}

// WithStdout redirects the emulator's diagnostic output.
func WithStdout(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.stdout = w
	}
}

// NewEmulator creates an emulator with zeroed registers and memory and
// the PC at the ROM base.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		memMap:  DefaultMemoryMap(),
		regFile: NewRegFile(),
		decoder: insts.NewDecoder(),
		stdout:  os.Stdout,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.rom, e.ram, e.bus = e.memMap.Build()
	e.pc = e.rom.Base()

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Bus returns the emulator's memory bus.
func (e *Emulator) Bus() *Bus {
	return e.bus
}

// ROM returns the emulator's instruction memory.
func (e *Emulator) ROM() *ROM {
	return e.rom
}

// PC returns the current program counter.
func (e *Emulator) PC() uint32 {
	return e.pc
}

// SetPC overrides the program counter.
func (e *Emulator) SetPC(pc uint32) {
	e.pc = pc
}

// Halted reports whether the emulator has stopped (unknown instruction or
// fatal fetch fault).
func (e *Emulator) Halted() bool {
	return e.halted
}

// InstructionCount returns the number of instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instCount
}

// LoadProgram loads an instruction image into ROM and resets the PC to
// the ROM base.
func (e *Emulator) LoadProgram(image []uint32) {
	e.rom.LoadWords(image)
	e.pc = e.rom.Base()
}

// Step fetches, decodes, and executes a single instruction.
//
// A fetch fault is fatal: the emulator halts, the fault is latched, and
// every Step after it returns the same fault. A data-side fault
// (misaligned or unmapped load/store) is returned but not fatal: the
// access is dropped, no register is written, and the PC advances.
// Decoding an unknown word halts cleanly, which is how programs end
// (the zero word is not a valid RV32I instruction).
func (e *Emulator) Step() error {
	if e.halted {
		return e.fatalErr
	}

	word, err := e.bus.Read(e.pc, WidthWord)
	if err != nil {
		e.halted = true
		e.fatalErr = fmt.Errorf("fetch at 0x%08X: %w", e.pc, err)
		return e.fatalErr
	}

	inst := e.decoder.Decode(word)
	if inst.Op == insts.OpUnknown {
		e.halted = true
		return nil
	}

	e.instCount++
	nextPC := e.pc + 4

	switch {
	case inst.IsALU():
		var operand uint32
		if inst.Format == insts.FormatR {
			operand = e.regFile.ReadReg(inst.Rs2)
		} else if inst.Op == insts.OpSLLI || inst.Op == insts.OpSRLI || inst.Op == insts.OpSRAI {
			operand = uint32(inst.Shamt)
		} else {
			operand = uint32(inst.Imm)
		}
		e.regFile.SetReg(inst.Rd, ALU(inst.Op, e.regFile.ReadReg(inst.Rs1), operand))

	case inst.IsLoad():
		addr := e.regFile.ReadReg(inst.Rs1) + uint32(inst.Imm)
		raw, err := e.bus.Read(addr, LoadStoreWidth(inst.Op))
		if err != nil {
			e.pc = nextPC
			return err
		}
		e.regFile.SetReg(inst.Rd, ExtendLoad(inst.Op, raw))

	case inst.IsStore():
		addr := e.regFile.ReadReg(inst.Rs1) + uint32(inst.Imm)
		err := e.bus.Write(addr, e.regFile.ReadReg(inst.Rs2), LoadStoreWidth(inst.Op))
		if err != nil {
			e.pc = nextPC
			return err
		}

	case inst.Op == insts.OpLUI:
		e.regFile.SetReg(inst.Rd, uint32(inst.Imm))

	case inst.Op == insts.OpAUIPC:
		e.regFile.SetReg(inst.Rd, e.pc+uint32(inst.Imm))

	case inst.Op == insts.OpJAL:
		e.regFile.SetReg(inst.Rd, e.pc+4)
		nextPC = e.pc + uint32(inst.Imm)

	case inst.Op == insts.OpJALR:
		target := (e.regFile.ReadReg(inst.Rs1) + uint32(inst.Imm)) &^ 1
		e.regFile.SetReg(inst.Rd, e.pc+4)
		nextPC = target

	case inst.IsBranch():
		if BranchTaken(inst.Op, e.regFile.ReadReg(inst.Rs1), e.regFile.ReadReg(inst.Rs2)) {
			nextPC = e.pc + uint32(inst.Imm)
		}
	}

	e.pc = nextPC
	return nil
}

// Run executes instructions until the emulator halts, a fault occurs, or
// maxSteps instructions have executed. It returns the first fault.
func (e *Emulator) Run(maxSteps uint64) error {
	for i := uint64(0); i < maxSteps && !e.halted; i++ {
		if err := e.Step(); err != nil {
			return err
		}
	}
	return nil
}

// DumpRegisters writes the architectural register state to the emulator's
// output writer.
func (e *Emulator) DumpRegisters() {
	fmt.Fprintf(e.stdout, "pc  = 0x%08X\n", e.pc)
	for i := 0; i < NumRegs; i++ {
		fmt.Fprintf(e.stdout, "x%-2d = 0x%08X\n", i, e.regFile.ReadReg(uint8(i)))
	}
}
