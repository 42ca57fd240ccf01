package pipeline

import (
	"fmt"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
)

// FetchStage reads instruction words from the bus and sequences the
// program counter. It owns the pc latch; the branch accessor exposes the
// decode stage's previous-cycle resolution (a one-cycle-delayed feedback
// edge, not a combinational cycle).
type FetchStage struct {
	bus    *emu.Bus
	pc     *emu.Latch[uint32]
	out    *emu.Latch[FetchValues]
	branch func() (target uint32, valid bool)
}

// NewFetchStage creates a fetch stage reading from bus with the given
// reset PC. branch supplies the upstream branch target/valid pair.
func NewFetchStage(bus *emu.Bus, resetPC uint32, branch func() (uint32, bool)) *FetchStage {
	return &FetchStage{
		bus:    bus,
		pc:     emu.NewLatch(resetPC),
		out:    &emu.Latch[FetchValues]{},
		branch: branch,
	}
}

// PC returns the committed program counter.
func (s *FetchStage) PC() uint32 {
	return s.pc.Read()
}

// SetPC overrides the program counter. Initialization/test setup only.
func (s *FetchStage) SetPC(pc uint32) {
	s.pc.Set(pc)
}

// Out returns the latched fetch output from the previous cycle.
func (s *FetchStage) Out() FetchValues {
	return s.out.Read()
}

// Compute fetches one instruction word and stages the next sequential
// PC. A branch target presented by Decode (resolved last cycle and
// latched there) steers this cycle's fetch address, so a taken branch
// costs exactly one wrong-path slot, which Decode squashes. A bus fault
// here is fatal to the pipeline; the instruction stream must always be
// valid in this model.
func (s *FetchStage) Compute() error {
	pc := s.pc.Read()
	if target, valid := s.branch(); valid {
		pc = target
	}

	word, err := s.bus.Read(pc, emu.WidthWord)
	if err != nil {
		return fmt.Errorf("fetch at 0x%08X: %w", pc, err)
	}

	s.out.Write(FetchValues{
		Valid:   true,
		Word:    word,
		PC:      pc,
		PCPlus4: pc + 4,
	})
	s.pc.Write(pc + 4)

	return nil
}

// Squash stages a bubble instead of a fetched instruction, holding the
// PC. Used by the controller once the instruction stream has ended.
func (s *FetchStage) Squash() {
	s.out.Write(FetchValues{})
	s.pc.Write(s.pc.Read())
}

// LatchNext commits the stage's clocked state.
func (s *FetchStage) LatchNext() {
	s.pc.Commit()
	s.out.Commit()
}

// DecodeStage decodes instruction words, reads register operands, and
// resolves branch and jump targets. It is the only place register values
// enter the pipeline.
type DecodeStage struct {
	regFile *emu.RegFile
	decoder *insts.Decoder
	in      func() FetchValues
	out     *emu.Latch[DecodedValues]

	// done latches once an unknown word is decoded: the instruction
	// stream has ended and everything after it is squashed.
	done bool
}

// NewDecodeStage creates a decode stage reading operands from regFile.
// in supplies the fetch stage's previous-cycle latched output.
func NewDecodeStage(regFile *emu.RegFile, in func() FetchValues) *DecodeStage {
	return &DecodeStage{
		regFile: regFile,
		decoder: insts.NewDecoder(),
		in:      in,
		out:     &emu.Latch[DecodedValues]{},
	}
}

// Out returns the latched decode output from the previous cycle.
func (s *DecodeStage) Out() DecodedValues {
	return s.out.Read()
}

// BranchResolution exposes the previous cycle's branch target/valid pair
// for the fetch stage.
func (s *DecodeStage) BranchResolution() (uint32, bool) {
	out := s.out.Read()
	return out.BranchTarget, out.BranchValid
}

// Compute decodes the latched fetch output. It reports whether the end
// of the instruction stream was reached (an unknown word; the zero words
// of unused ROM decode as unknown, so running off the program halts).
//
// If this stage redirected the PC last cycle, the word currently latched
// in the fetch output is the wrong-path instruction that was already in
// flight; it is squashed into a bubble rather than decoded.
func (s *DecodeStage) Compute() (halt bool) {
	in := s.in()
	redirected := s.out.Read().BranchValid

	if s.done || !in.Valid || redirected {
		s.out.Write(DecodedValues{})
		return false
	}

	inst := s.decoder.Decode(in.Word)
	if inst.Op == insts.OpUnknown {
		s.done = true
		s.out.Write(DecodedValues{})
		return true
	}

	v := DecodedValues{
		Valid:    true,
		Inst:     inst,
		PC:       in.PC,
		PCPlus4:  in.PCPlus4,
		Rs1Value: s.regFile.ReadReg(inst.Rs1),
		Rs2Value: s.regFile.ReadReg(inst.Rs2),
	}

	v.MemRead = inst.IsLoad()
	v.MemWrite = inst.IsStore()

	switch {
	case inst.IsALU(), inst.IsLoad(),
		inst.Op == insts.OpLUI, inst.Op == insts.OpAUIPC:
		v.RegWrite = inst.Rd != 0
	case inst.IsJump():
		// Jumps write the link value; a jump to x0 is a plain goto.
		v.RegWrite = inst.Rd != 0
	}

	switch {
	case inst.Op == insts.OpJAL:
		v.BranchTarget = in.PC + uint32(inst.Imm)
		v.BranchValid = true
	case inst.Op == insts.OpJALR:
		v.BranchTarget = (v.Rs1Value + uint32(inst.Imm)) &^ 1
		v.BranchValid = true
	case inst.IsBranch():
		if emu.BranchTaken(inst.Op, v.Rs1Value, v.Rs2Value) {
			v.BranchTarget = in.PC + uint32(inst.Imm)
			v.BranchValid = true
		}
	}

	s.out.Write(v)
	return false
}

// LatchNext commits the stage's latched output.
func (s *DecodeStage) LatchNext() {
	s.out.Commit()
}

// ExecuteStage evaluates ALU operations and forms the write-back
// candidate for upper-immediate and link-writing instructions. Loads,
// stores, and branches pass through; their work happens elsewhere.
type ExecuteStage struct {
	in  func() DecodedValues
	out *emu.Latch[ExecutedValues]
}

// NewExecuteStage creates an execute stage. in supplies the decode
// stage's previous-cycle latched output.
func NewExecuteStage(in func() DecodedValues) *ExecuteStage {
	return &ExecuteStage{
		in:  in,
		out: &emu.Latch[ExecutedValues]{},
	}
}

// Out returns the latched execute output from the previous cycle.
func (s *ExecuteStage) Out() ExecutedValues {
	return s.out.Read()
}

// Compute evaluates the instruction latched by Decode.
func (s *ExecuteStage) Compute() {
	in := s.in()
	if !in.Valid {
		s.out.Write(ExecutedValues{})
		return
	}

	inst := in.Inst
	v := ExecutedValues{
		Valid:    true,
		Inst:     inst,
		Rs1Value: in.Rs1Value,
		Rs2Value: in.Rs2Value,
		MemRead:  in.MemRead,
		MemWrite: in.MemWrite,
		RegWrite: in.RegWrite,
	}

	switch {
	case inst.IsALU():
		v.Result = emu.ALU(inst.Op, in.Rs1Value, s.aluOperand(in))
	case inst.Op == insts.OpLUI:
		v.Result = uint32(inst.Imm)
	case inst.Op == insts.OpAUIPC:
		v.Result = in.PC + uint32(inst.Imm)
	case inst.IsJump():
		v.Result = in.PCPlus4 // link value
	}

	s.out.Write(v)
}

// aluOperand selects the second ALU operand: rs2 for the R format, the
// shamt field for shift immediates, the sign-extended immediate
// otherwise.
func (s *ExecuteStage) aluOperand(in DecodedValues) uint32 {
	inst := in.Inst
	if inst.Format == insts.FormatR {
		return in.Rs2Value
	}
	switch inst.Op {
	case insts.OpSLLI, insts.OpSRLI, insts.OpSRAI:
		return uint32(inst.Shamt)
	}
	return uint32(inst.Imm)
}

// LatchNext commits the stage's latched output.
func (s *ExecuteStage) LatchNext() {
	s.out.Commit()
}

// MemoryStage performs data loads and stores. The effective address is
// rs1 + imm with wrapping add. Bus faults surface to the caller: a
// faulting store is dropped, a faulting load produces no write-back.
type MemoryStage struct {
	bus *emu.Bus
	in  func() ExecutedValues
	out *emu.Latch[MemoryValues]
}

// NewMemoryStage creates a memory stage over bus. in supplies the
// execute stage's previous-cycle latched output.
func NewMemoryStage(bus *emu.Bus, in func() ExecutedValues) *MemoryStage {
	return &MemoryStage{
		bus: bus,
		in:  in,
		out: &emu.Latch[MemoryValues]{},
	}
}

// Out returns the latched memory output from the previous cycle.
func (s *MemoryStage) Out() MemoryValues {
	return s.out.Read()
}

// Compute performs the instruction's memory access, if any, and stages
// the final write-back record. The returned fault, if any, has already
// been handled (access dropped); it is propagated for visibility.
func (s *MemoryStage) Compute() error {
	in := s.in()
	if !in.Valid {
		s.out.Write(MemoryValues{})
		return nil
	}

	inst := in.Inst
	v := MemoryValues{
		Valid:    true,
		Rd:       inst.Rd,
		Value:    in.Result,
		RegWrite: in.RegWrite,
	}

	var fault error

	switch {
	case in.MemWrite:
		addr := in.Rs1Value + uint32(inst.Imm)
		fault = s.bus.Write(addr, in.Rs2Value, emu.LoadStoreWidth(inst.Op))

	case in.MemRead:
		addr := in.Rs1Value + uint32(inst.Imm)
		raw, err := s.bus.Read(addr, emu.LoadStoreWidth(inst.Op))
		if err != nil {
			v.RegWrite = false
			fault = err
		} else {
			v.Value = emu.ExtendLoad(inst.Op, raw)
		}
	}

	s.out.Write(v)
	return fault
}

// LatchNext commits the stage's latched output.
func (s *MemoryStage) LatchNext() {
	s.out.Commit()
}

// WriteBackStage retires instructions into the register file. It is the
// only mutator of the register file, and its writes are staged: they
// become architecturally visible at the end-of-cycle commit, so Decode
// sees them starting the following cycle.
type WriteBackStage struct {
	regFile *emu.RegFile
	in      func() MemoryValues
}

// NewWriteBackStage creates a write-back stage targeting regFile. in
// supplies the memory stage's previous-cycle latched output.
func NewWriteBackStage(regFile *emu.RegFile, in func() MemoryValues) *WriteBackStage {
	return &WriteBackStage{
		regFile: regFile,
		in:      in,
	}
}

// Compute stages the register write, if any. It reports whether an
// instruction retired this cycle. Terminal stage: no latched output of
// its own.
func (s *WriteBackStage) Compute() (retired bool) {
	in := s.in()
	if !in.Valid {
		return false
	}

	if in.RegWrite && in.Rd != 0 {
		s.regFile.WriteReg(in.Rd, in.Value)
	}

	return true
}
