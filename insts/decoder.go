package insts

// Decoder decodes RV32I machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new RV32I instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit RV32I instruction word.
// Unrecognized words decode to OpUnknown/FormatUnknown rather than failing;
// what to do with an unknown instruction is pipeline policy.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{Op: OpUnknown, Format: FormatUnknown}

	opcode := word & 0x7F // bits [6:0]

	switch opcode {
	case opcodeOpReg:
		d.decodeOpReg(word, inst)
	case opcodeOpImm:
		d.decodeOpImm(word, inst)
	case opcodeLoad:
		d.decodeLoad(word, inst)
	case opcodeStore:
		d.decodeStore(word, inst)
	case opcodeLUI:
		d.decodeUpperImm(word, inst, OpLUI)
	case opcodeAUIPC:
		d.decodeUpperImm(word, inst, OpAUIPC)
	case opcodeJAL:
		d.decodeJAL(word, inst)
	case opcodeJALR:
		d.decodeJALR(word, inst)
	case opcodeBranch:
		d.decodeBranch(word, inst)
	}

	return inst
}

// decodeOpReg decodes R-format ALU instructions.
// Format: funct7 | rs2 | rs1 | funct3 | rd | 0110011
func (d *Decoder) decodeOpReg(word uint32, inst *Instruction) {
	inst.Format = FormatR
	inst.Rd = uint8((word >> 7) & 0x1F)
	inst.Funct3 = uint8((word >> 12) & 0x7)
	inst.Rs1 = uint8((word >> 15) & 0x1F)
	inst.Rs2 = uint8((word >> 20) & 0x1F)
	inst.Funct7 = uint8(word >> 25)

	// funct7 bit 5 selects the alternate operation (SUB, SRA).
	alt := inst.Funct7&0x20 != 0

	switch inst.Funct3 {
	case 0b000:
		if alt {
			inst.Op = OpSUB
		} else {
			inst.Op = OpADD
		}
	case 0b001:
		inst.Op = OpSLL
	case 0b010:
		inst.Op = OpSLT
	case 0b011:
		inst.Op = OpSLTU
	case 0b100:
		inst.Op = OpXOR
	case 0b101:
		if alt {
			inst.Op = OpSRA
		} else {
			inst.Op = OpSRL
		}
	case 0b110:
		inst.Op = OpOR
	case 0b111:
		inst.Op = OpAND
	}
}

// decodeOpImm decodes I-format ALU instructions.
// Format: imm[11:0] | rs1 | funct3 | rd | 0010011
// Shift-immediate forms reuse the funct7 slot: imm[11:5] must be 0b0000000
// (SLLI/SRLI) or 0b0100000 (SRAI), with shamt in imm[4:0].
func (d *Decoder) decodeOpImm(word uint32, inst *Instruction) {
	inst.Format = FormatI
	inst.Rd = uint8((word >> 7) & 0x1F)
	inst.Funct3 = uint8((word >> 12) & 0x7)
	inst.Rs1 = uint8((word >> 15) & 0x1F)
	inst.Imm = immI(word)
	inst.Shamt = uint8((word >> 20) & 0x1F)
	inst.Funct7 = uint8(word >> 25)

	switch inst.Funct3 {
	case 0b000:
		inst.Op = OpADDI
	case 0b001:
		inst.Op = OpSLLI
	case 0b010:
		inst.Op = OpSLTI
	case 0b011:
		inst.Op = OpSLTIU
	case 0b100:
		inst.Op = OpXORI
	case 0b101:
		if inst.Funct7&0x20 != 0 {
			inst.Op = OpSRAI
		} else {
			inst.Op = OpSRLI
		}
	case 0b110:
		inst.Op = OpORI
	case 0b111:
		inst.Op = OpANDI
	}
}

// decodeLoad decodes load instructions.
// Format: imm[11:0] | rs1 | funct3 | rd | 0000011
// funct3 bits [1:0] select the width; bit 2 selects zero extension.
func (d *Decoder) decodeLoad(word uint32, inst *Instruction) {
	inst.Format = FormatI
	inst.Rd = uint8((word >> 7) & 0x1F)
	inst.Funct3 = uint8((word >> 12) & 0x7)
	inst.Rs1 = uint8((word >> 15) & 0x1F)
	inst.Imm = immI(word)

	switch inst.Funct3 {
	case 0b000:
		inst.Op = OpLB
	case 0b001:
		inst.Op = OpLH
	case 0b010:
		inst.Op = OpLW
	case 0b100:
		inst.Op = OpLBU
	case 0b101:
		inst.Op = OpLHU
	}
}

// decodeStore decodes store instructions.
// Format: imm[11:5] | rs2 | rs1 | funct3 | imm[4:0] | 0100011
func (d *Decoder) decodeStore(word uint32, inst *Instruction) {
	inst.Format = FormatS
	inst.Funct3 = uint8((word >> 12) & 0x7)
	inst.Rs1 = uint8((word >> 15) & 0x1F)
	inst.Rs2 = uint8((word >> 20) & 0x1F)
	inst.Imm = immS(word)

	switch inst.Funct3 {
	case 0b000:
		inst.Op = OpSB
	case 0b001:
		inst.Op = OpSH
	case 0b010:
		inst.Op = OpSW
	}
}

// decodeUpperImm decodes LUI and AUIPC.
// Format: imm[31:12] | rd | opcode
func (d *Decoder) decodeUpperImm(word uint32, inst *Instruction, op Op) {
	inst.Format = FormatU
	inst.Op = op
	inst.Rd = uint8((word >> 7) & 0x1F)
	inst.Imm = int32(word & 0xFFFFF000)
}

// decodeJAL decodes the J-format jump.
// Format: imm[20|10:1|11|19:12] | rd | 1101111
func (d *Decoder) decodeJAL(word uint32, inst *Instruction) {
	inst.Format = FormatJ
	inst.Op = OpJAL
	inst.Rd = uint8((word >> 7) & 0x1F)
	inst.Imm = immJ(word)
}

// decodeJALR decodes the register-indirect jump (I format). Only
// funct3 000 is defined under this opcode; other values stay unknown.
func (d *Decoder) decodeJALR(word uint32, inst *Instruction) {
	if (word>>12)&0x7 != 0 {
		return
	}
	inst.Format = FormatI
	inst.Op = OpJALR
	inst.Rd = uint8((word >> 7) & 0x1F)
	inst.Rs1 = uint8((word >> 15) & 0x1F)
	inst.Imm = immI(word)
}

// decodeBranch decodes B-format conditional branches.
// Format: imm[12|10:5] | rs2 | rs1 | funct3 | imm[4:1|11] | 1100011
func (d *Decoder) decodeBranch(word uint32, inst *Instruction) {
	inst.Format = FormatB
	inst.Funct3 = uint8((word >> 12) & 0x7)
	inst.Rs1 = uint8((word >> 15) & 0x1F)
	inst.Rs2 = uint8((word >> 20) & 0x1F)
	inst.Imm = immB(word)

	switch inst.Funct3 {
	case 0b000:
		inst.Op = OpBEQ
	case 0b001:
		inst.Op = OpBNE
	case 0b100:
		inst.Op = OpBLT
	case 0b101:
		inst.Op = OpBGE
	case 0b110:
		inst.Op = OpBLTU
	case 0b111:
		inst.Op = OpBGEU
	}
}

// immI extracts the sign-extended I-format immediate (bits [31:20]).
func immI(word uint32) int32 {
	return int32(word) >> 20
}

// immS extracts the sign-extended S-format immediate (imm[11:5] | imm[4:0]).
func immS(word uint32) int32 {
	raw := ((word >> 25) << 5) | ((word >> 7) & 0x1F)
	return signExtend(raw, 12)
}

// immB extracts the sign-extended B-format branch offset.
// Bit layout in the word: imm[12] at 31, imm[10:5] at 30:25,
// imm[4:1] at 11:8, imm[11] at 7. Bit 0 is always zero.
func immB(word uint32) int32 {
	raw := ((word >> 31) << 12) |
		(((word >> 7) & 0x1) << 11) |
		(((word >> 25) & 0x3F) << 5) |
		(((word >> 8) & 0xF) << 1)
	return signExtend(raw, 13)
}

// immJ extracts the sign-extended J-format jump offset.
// Bit layout in the word: imm[20] at 31, imm[10:1] at 30:21,
// imm[11] at 20, imm[19:12] at 19:12. Bit 0 is always zero.
func immJ(word uint32) int32 {
	raw := ((word >> 31) << 20) |
		(((word >> 12) & 0xFF) << 12) |
		(((word >> 20) & 0x1) << 11) |
		(((word >> 21) & 0x3FF) << 1)
	return signExtend(raw, 21)
}

// signExtend sign-extends the low `bits` bits of raw to 32 bits.
func signExtend(raw uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(raw<<shift) >> shift
}
