// Package pipeline implements the cycle-accurate 5-stage in-order RV32I
// pipeline: Fetch -> Decode -> Execute -> MemoryAccess -> WriteBack.
//
// Every piece of inter-stage state lives in a two-phase latch
// (emu.Latch): stages compute against the values latched in earlier
// cycles and stage their own outputs, and the controller commits all
// latches at the end of the cycle. Compute order therefore never affects
// results, which is the central correctness property of the model.
package pipeline

import "github.com/sarchlab/rv32sim/insts"

// FetchValues is the payload latched between Fetch and Decode.
// A zero FetchValues (Valid false) is a pipeline bubble.
type FetchValues struct {
	// Valid indicates the record carries a fetched instruction.
	Valid bool

	// Word is the raw 32-bit instruction word.
	Word uint32

	// PC is the address the word was fetched from.
	PC uint32

	// PCPlus4 is the fall-through address.
	PCPlus4 uint32
}

// DecodedValues is the payload latched between Decode and Execute.
type DecodedValues struct {
	// Valid indicates the record carries a decoded instruction.
	Valid bool

	// Inst is the decoded instruction. Nil in bubbles.
	Inst *insts.Instruction

	// PC and PCPlus4 travel with the instruction.
	PC      uint32
	PCPlus4 uint32

	// Register operand values read from the register file at decode
	// time. There is no forwarding network: these are the committed
	// values as of the start of this cycle.
	Rs1Value uint32
	Rs2Value uint32

	// Control signals.
	MemRead  bool // load
	MemWrite bool // store
	RegWrite bool // writes a register at write-back

	// Branch resolution, consumed by Fetch one cycle later. BranchValid
	// is set for taken branches and for jumps; the target is absolute.
	BranchTarget uint32
	BranchValid  bool
}

// ExecutedValues is the payload latched between Execute and MemoryAccess.
type ExecutedValues struct {
	// Valid indicates the record carries an instruction.
	Valid bool

	// Inst is the decoded instruction. Nil in bubbles.
	Inst *insts.Instruction

	// Result is the write-back candidate computed at Execute: the ALU
	// result, the LUI/AUIPC value, or the jump link value. Zero when
	// the instruction produces no value here (loads, stores, branches).
	Result uint32

	// Operand values carried through for the memory stage, which forms
	// the effective address as Rs1Value + Inst.Imm and stores Rs2Value.
	Rs1Value uint32
	Rs2Value uint32

	// Control signals, propagated from Decode.
	MemRead  bool
	MemWrite bool
	RegWrite bool
}

// MemoryValues is the payload latched between MemoryAccess and WriteBack.
type MemoryValues struct {
	// Valid indicates the record carries an instruction.
	Valid bool

	// Rd is the destination register.
	Rd uint8

	// Value is the final write-back value: the execute result, or the
	// extended loaded value for loads.
	Value uint32

	// RegWrite indicates the value should be written to Rd. False for
	// stores, branches, jumps to x0, and faulted loads.
	RegWrite bool
}
