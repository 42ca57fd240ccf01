// Package insts provides RV32I instruction definitions and decoding.
package insts

// Instruction-word assembly helpers. These are the inverse of the decoder
// and exist so tests and harnesses can build programs without hand-packing
// bitfields. They are not an assembler: no labels, no pseudo-instruction
// expansion beyond NOP.

// EncodeR packs an R-format instruction word.
func EncodeR(opcode, rd, funct3, rs1, rs2, funct7 uint32) uint32 {
	return (funct7 << 25) | (rs2 << 20) | (rs1 << 15) |
		(funct3 << 12) | (rd << 7) | opcode
}

// EncodeI packs an I-format instruction word. Only the low 12 bits of imm
// are encoded.
func EncodeI(opcode, rd, funct3, rs1 uint32, imm int32) uint32 {
	return (uint32(imm)&0xFFF)<<20 | (rs1 << 15) |
		(funct3 << 12) | (rd << 7) | opcode
}

// EncodeS packs an S-format instruction word.
func EncodeS(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	uimm := uint32(imm) & 0xFFF
	return ((uimm >> 5) << 25) | (rs2 << 20) | (rs1 << 15) |
		(funct3 << 12) | ((uimm & 0x1F) << 7) | opcode
}

// EncodeB packs a B-format instruction word. imm is the byte offset and
// must be even.
func EncodeB(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	uimm := uint32(imm) & 0x1FFF
	return ((uimm >> 12 & 0x1) << 31) |
		((uimm >> 5 & 0x3F) << 25) |
		(rs2 << 20) | (rs1 << 15) | (funct3 << 12) |
		((uimm >> 1 & 0xF) << 8) |
		((uimm >> 11 & 0x1) << 7) |
		opcode
}

// EncodeU packs a U-format instruction word. imm supplies bits [31:12];
// its low 12 bits are ignored.
func EncodeU(opcode, rd, imm uint32) uint32 {
	return (imm & 0xFFFFF000) | (rd << 7) | opcode
}

// EncodeJ packs a J-format instruction word. imm is the byte offset and
// must be even.
func EncodeJ(opcode, rd uint32, imm int32) uint32 {
	uimm := uint32(imm) & 0x1FFFFF
	return ((uimm >> 20 & 0x1) << 31) |
		((uimm >> 1 & 0x3FF) << 21) |
		((uimm >> 11 & 0x1) << 20) |
		((uimm >> 12 & 0xFF) << 12) |
		(rd << 7) | opcode
}

// Mnemonic conveniences. Register arguments are x-register indices.

// ADD encodes add rd, rs1, rs2.
func ADD(rd, rs1, rs2 uint32) uint32 { return EncodeR(opcodeOpReg, rd, 0b000, rs1, rs2, 0) }

// SUB encodes sub rd, rs1, rs2.
func SUB(rd, rs1, rs2 uint32) uint32 { return EncodeR(opcodeOpReg, rd, 0b000, rs1, rs2, 0b0100000) }

// SLL encodes sll rd, rs1, rs2.
func SLL(rd, rs1, rs2 uint32) uint32 { return EncodeR(opcodeOpReg, rd, 0b001, rs1, rs2, 0) }

// SLT encodes slt rd, rs1, rs2.
func SLT(rd, rs1, rs2 uint32) uint32 { return EncodeR(opcodeOpReg, rd, 0b010, rs1, rs2, 0) }

// SLTU encodes sltu rd, rs1, rs2.
func SLTU(rd, rs1, rs2 uint32) uint32 { return EncodeR(opcodeOpReg, rd, 0b011, rs1, rs2, 0) }

// XOR encodes xor rd, rs1, rs2.
func XOR(rd, rs1, rs2 uint32) uint32 { return EncodeR(opcodeOpReg, rd, 0b100, rs1, rs2, 0) }

// SRL encodes srl rd, rs1, rs2.
func SRL(rd, rs1, rs2 uint32) uint32 { return EncodeR(opcodeOpReg, rd, 0b101, rs1, rs2, 0) }

// SRA encodes sra rd, rs1, rs2.
func SRA(rd, rs1, rs2 uint32) uint32 { return EncodeR(opcodeOpReg, rd, 0b101, rs1, rs2, 0b0100000) }

// OR encodes or rd, rs1, rs2.
func OR(rd, rs1, rs2 uint32) uint32 { return EncodeR(opcodeOpReg, rd, 0b110, rs1, rs2, 0) }

// AND encodes and rd, rs1, rs2.
func AND(rd, rs1, rs2 uint32) uint32 { return EncodeR(opcodeOpReg, rd, 0b111, rs1, rs2, 0) }

// ADDI encodes addi rd, rs1, imm.
func ADDI(rd, rs1 uint32, imm int32) uint32 { return EncodeI(opcodeOpImm, rd, 0b000, rs1, imm) }

// SLTI encodes slti rd, rs1, imm.
func SLTI(rd, rs1 uint32, imm int32) uint32 { return EncodeI(opcodeOpImm, rd, 0b010, rs1, imm) }

// SLTIU encodes sltiu rd, rs1, imm.
func SLTIU(rd, rs1 uint32, imm int32) uint32 { return EncodeI(opcodeOpImm, rd, 0b011, rs1, imm) }

// XORI encodes xori rd, rs1, imm.
func XORI(rd, rs1 uint32, imm int32) uint32 { return EncodeI(opcodeOpImm, rd, 0b100, rs1, imm) }

// ORI encodes ori rd, rs1, imm.
func ORI(rd, rs1 uint32, imm int32) uint32 { return EncodeI(opcodeOpImm, rd, 0b110, rs1, imm) }

// ANDI encodes andi rd, rs1, imm.
func ANDI(rd, rs1 uint32, imm int32) uint32 { return EncodeI(opcodeOpImm, rd, 0b111, rs1, imm) }

// SLLI encodes slli rd, rs1, shamt.
func SLLI(rd, rs1, shamt uint32) uint32 {
	return EncodeI(opcodeOpImm, rd, 0b001, rs1, int32(shamt&0x1F))
}

// SRLI encodes srli rd, rs1, shamt.
func SRLI(rd, rs1, shamt uint32) uint32 {
	return EncodeI(opcodeOpImm, rd, 0b101, rs1, int32(shamt&0x1F))
}

// SRAI encodes srai rd, rs1, shamt.
func SRAI(rd, rs1, shamt uint32) uint32 {
	return EncodeI(opcodeOpImm, rd, 0b101, rs1, int32(shamt&0x1F)|(0b0100000<<5))
}

// LB encodes lb rd, offset(rs1).
func LB(rd, rs1 uint32, offset int32) uint32 { return EncodeI(opcodeLoad, rd, 0b000, rs1, offset) }

// LH encodes lh rd, offset(rs1).
func LH(rd, rs1 uint32, offset int32) uint32 { return EncodeI(opcodeLoad, rd, 0b001, rs1, offset) }

// LW encodes lw rd, offset(rs1).
func LW(rd, rs1 uint32, offset int32) uint32 { return EncodeI(opcodeLoad, rd, 0b010, rs1, offset) }

// LBU encodes lbu rd, offset(rs1).
func LBU(rd, rs1 uint32, offset int32) uint32 { return EncodeI(opcodeLoad, rd, 0b100, rs1, offset) }

// LHU encodes lhu rd, offset(rs1).
func LHU(rd, rs1 uint32, offset int32) uint32 { return EncodeI(opcodeLoad, rd, 0b101, rs1, offset) }

// SB encodes sb rs2, offset(rs1).
func SB(rs2, rs1 uint32, offset int32) uint32 { return EncodeS(opcodeStore, 0b000, rs1, rs2, offset) }

// SH encodes sh rs2, offset(rs1).
func SH(rs2, rs1 uint32, offset int32) uint32 { return EncodeS(opcodeStore, 0b001, rs1, rs2, offset) }

// SW encodes sw rs2, offset(rs1).
func SW(rs2, rs1 uint32, offset int32) uint32 { return EncodeS(opcodeStore, 0b010, rs1, rs2, offset) }

// LUI encodes lui rd, imm where imm supplies bits [31:12].
func LUI(rd, imm uint32) uint32 { return EncodeU(opcodeLUI, rd, imm) }

// AUIPC encodes auipc rd, imm where imm supplies bits [31:12].
func AUIPC(rd, imm uint32) uint32 { return EncodeU(opcodeAUIPC, rd, imm) }

// JAL encodes jal rd, offset.
func JAL(rd uint32, offset int32) uint32 { return EncodeJ(opcodeJAL, rd, offset) }

// JALR encodes jalr rd, offset(rs1).
func JALR(rd, rs1 uint32, offset int32) uint32 { return EncodeI(opcodeJALR, rd, 0b000, rs1, offset) }

// BEQ encodes beq rs1, rs2, offset.
func BEQ(rs1, rs2 uint32, offset int32) uint32 { return EncodeB(opcodeBranch, 0b000, rs1, rs2, offset) }

// BNE encodes bne rs1, rs2, offset.
func BNE(rs1, rs2 uint32, offset int32) uint32 { return EncodeB(opcodeBranch, 0b001, rs1, rs2, offset) }

// BLT encodes blt rs1, rs2, offset.
func BLT(rs1, rs2 uint32, offset int32) uint32 { return EncodeB(opcodeBranch, 0b100, rs1, rs2, offset) }

// BGE encodes bge rs1, rs2, offset.
func BGE(rs1, rs2 uint32, offset int32) uint32 { return EncodeB(opcodeBranch, 0b101, rs1, rs2, offset) }

// BLTU encodes bltu rs1, rs2, offset.
func BLTU(rs1, rs2 uint32, offset int32) uint32 {
	return EncodeB(opcodeBranch, 0b110, rs1, rs2, offset)
}

// BGEU encodes bgeu rs1, rs2, offset.
func BGEU(rs1, rs2 uint32, offset int32) uint32 {
	return EncodeB(opcodeBranch, 0b111, rs1, rs2, offset)
}

// NOP encodes addi x0, x0, 0.
func NOP() uint32 { return ADDI(0, 0, 0) }
