package emu

import "github.com/sarchlab/rv32sim/insts"

// ALU evaluates an RV32I arithmetic/logic operation on two 32-bit
// operands. Register-register and register-immediate forms share
// semantics, so both map onto the same entry; for immediate forms the
// caller passes the sign-extended immediate (or shamt) as b.
//
// Shifts use only the low 5 bits of b. SLT/SLTU produce 1 or 0. All
// arithmetic wraps modulo 2^32. Unknown operations evaluate to 0.
func ALU(op insts.Op, a, b uint32) uint32 {
	switch op {
	case insts.OpADD, insts.OpADDI:
		return a + b
	case insts.OpSUB:
		return a - b
	case insts.OpSLL, insts.OpSLLI:
		return a << (b & 0x1F)
	case insts.OpSLT, insts.OpSLTI:
		if int32(a) < int32(b) {
			return 1
		}
		return 0
	case insts.OpSLTU, insts.OpSLTIU:
		if a < b {
			return 1
		}
		return 0
	case insts.OpXOR, insts.OpXORI:
		return a ^ b
	case insts.OpSRL, insts.OpSRLI:
		return a >> (b & 0x1F)
	case insts.OpSRA, insts.OpSRAI:
		return uint32(int32(a) >> (b & 0x1F))
	case insts.OpOR, insts.OpORI:
		return a | b
	case insts.OpAND, insts.OpANDI:
		return a & b
	}
	return 0
}

// BranchTaken evaluates a B-format branch condition on the rs1/rs2
// operand values. Non-branch operations are never taken.
func BranchTaken(op insts.Op, a, b uint32) bool {
	switch op {
	case insts.OpBEQ:
		return a == b
	case insts.OpBNE:
		return a != b
	case insts.OpBLT:
		return int32(a) < int32(b)
	case insts.OpBGE:
		return int32(a) >= int32(b)
	case insts.OpBLTU:
		return a < b
	case insts.OpBGEU:
		return a >= b
	}
	return false
}

// ExtendLoad sign- or zero-extends a raw loaded bit pattern to 32 bits
// according to the load operation's width and signedness. funct3 bit 2
// (the U suffix) selects zero extension.
func ExtendLoad(op insts.Op, raw uint32) uint32 {
	switch op {
	case insts.OpLB:
		return uint32(int32(int8(raw)))
	case insts.OpLH:
		return uint32(int32(int16(raw)))
	case insts.OpLBU:
		return raw & 0xFF
	case insts.OpLHU:
		return raw & 0xFFFF
	default:
		return raw
	}
}

// LoadStoreWidth returns the bus access width for a load or store
// operation.
func LoadStoreWidth(op insts.Op) AccessWidth {
	switch op {
	case insts.OpLB, insts.OpLBU, insts.OpSB:
		return WidthByte
	case insts.OpLH, insts.OpLHU, insts.OpSH:
		return WidthHalf
	default:
		return WidthWord
	}
}
