// Package insts provides RV32I instruction definitions and decoding.
package insts

// Op identifies an RV32I operation.
type Op uint16

// RV32I opcodes.
const (
	OpUnknown Op = iota

	// Integer register-register (R format).
	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND

	// Integer register-immediate (I format).
	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI

	// Loads (I format).
	OpLB
	OpLH
	OpLW
	OpLBU
	OpLHU

	// Stores (S format).
	OpSB
	OpSH
	OpSW

	// Upper-immediate (U format).
	OpLUI
	OpAUIPC

	// Jumps.
	OpJAL  // J format
	OpJALR // I format

	// Conditional branches (B format).
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU
)

var opNames = map[Op]string{
	OpUnknown: "unknown",
	OpADD:     "add",
	OpSUB:     "sub",
	OpSLL:     "sll",
	OpSLT:     "slt",
	OpSLTU:    "sltu",
	OpXOR:     "xor",
	OpSRL:     "srl",
	OpSRA:     "sra",
	OpOR:      "or",
	OpAND:     "and",
	OpADDI:    "addi",
	OpSLTI:    "slti",
	OpSLTIU:   "sltiu",
	OpXORI:    "xori",
	OpORI:     "ori",
	OpANDI:    "andi",
	OpSLLI:    "slli",
	OpSRLI:    "srli",
	OpSRAI:    "srai",
	OpLB:      "lb",
	OpLH:      "lh",
	OpLW:      "lw",
	OpLBU:     "lbu",
	OpLHU:     "lhu",
	OpSB:      "sb",
	OpSH:      "sh",
	OpSW:      "sw",
	OpLUI:     "lui",
	OpAUIPC:   "auipc",
	OpJAL:     "jal",
	OpJALR:    "jalr",
	OpBEQ:     "beq",
	OpBNE:     "bne",
	OpBLT:     "blt",
	OpBGE:     "bge",
	OpBLTU:    "bltu",
	OpBGEU:    "bgeu",
}

// String returns the assembly mnemonic for the operation.
func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "unknown"
}

// Format identifies an RV32I instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatR              // register-register: funct7 | rs2 | rs1 | funct3 | rd | opcode
	FormatI              // register-immediate, loads, JALR: imm[11:0] | rs1 | funct3 | rd | opcode
	FormatS              // stores: imm[11:5] | rs2 | rs1 | funct3 | imm[4:0] | opcode
	FormatB              // branches: imm[12|10:5] | rs2 | rs1 | funct3 | imm[4:1|11] | opcode
	FormatU              // upper immediate: imm[31:12] | rd | opcode
	FormatJ              // jumps: imm[20|10:1|11|19:12] | rd | opcode
)

// Major opcodes (instruction word bits [6:0]).
const (
	opcodeOpReg  = 0b0110011 // R-format ALU
	opcodeOpImm  = 0b0010011 // I-format ALU
	opcodeLoad   = 0b0000011 // LB/LH/LW/LBU/LHU
	opcodeStore  = 0b0100011 // SB/SH/SW
	opcodeLUI    = 0b0110111
	opcodeAUIPC  = 0b0010111
	opcodeJAL    = 0b1101111
	opcodeJALR   = 0b1100111
	opcodeBranch = 0b1100011
)

// Instruction represents a decoded RV32I instruction.
type Instruction struct {
	Op     Op     // Operation
	Format Format // Encoding format

	// Register fields. Rs1/Rs2 are raw indices; reading their values
	// through the register file is the decode stage's job.
	Rd  uint8
	Rs1 uint8
	Rs2 uint8

	// Function fields. Funct7 is only meaningful for the R format;
	// bit 5 distinguishes ADD/SUB and SRL/SRA.
	Funct3 uint8
	Funct7 uint8

	// Imm is the sign-extended immediate. For the U format it holds the
	// already-positioned imm[31:12] value (no further shift at use sites).
	Imm int32

	// Shamt is the shift amount for SLLI/SRLI/SRAI (imm bits [4:0]).
	Shamt uint8
}

// IsALU reports whether the instruction is executed by the ALU
// (R-format or I-format arithmetic/logic).
func (i *Instruction) IsALU() bool {
	switch i.Op {
	case OpADD, OpSUB, OpSLL, OpSLT, OpSLTU, OpXOR, OpSRL, OpSRA, OpOR, OpAND,
		OpADDI, OpSLTI, OpSLTIU, OpXORI, OpORI, OpANDI, OpSLLI, OpSRLI, OpSRAI:
		return true
	}
	return false
}

// IsLoad reports whether the instruction reads data memory.
func (i *Instruction) IsLoad() bool {
	switch i.Op {
	case OpLB, OpLH, OpLW, OpLBU, OpLHU:
		return true
	}
	return false
}

// IsStore reports whether the instruction writes data memory.
func (i *Instruction) IsStore() bool {
	switch i.Op {
	case OpSB, OpSH, OpSW:
		return true
	}
	return false
}

// IsJump reports whether the instruction unconditionally redirects the PC.
func (i *Instruction) IsJump() bool {
	return i.Op == OpJAL || i.Op == OpJALR
}

// IsBranch reports whether the instruction is a conditional branch.
func (i *Instruction) IsBranch() bool {
	return i.Format == FormatB
}
