package emu

// NumRegs is the number of general-purpose registers in RV32I.
const NumRegs = 32

// RegFile represents the RV32I general-purpose register file: 32 latched
// registers x0-x31. x0 is hardwired to zero and never written.
//
// Writes are staged and become architecturally visible only after Commit.
// This makes the register file itself clocked state: a value written by
// the write-back stage in one cycle is readable by the decode stage only
// from the next cycle on, regardless of the order stages run in.
type RegFile struct {
	x [NumRegs]Latch[uint32]
}

// NewRegFile creates a zeroed register file.
func NewRegFile() *RegFile {
	return &RegFile{}
}

// ReadReg returns the committed value of a register. x0 always reads 0;
// out-of-range indices read 0 as well.
func (r *RegFile) ReadReg(reg uint8) uint32 {
	if reg == 0 || reg >= NumRegs {
		return 0
	}
	return r.x[reg].Read()
}

// WriteReg stages a value into a register. Writes to x0 and out-of-range
// indices are discarded.
func (r *RegFile) WriteReg(reg uint8, value uint32) {
	if reg == 0 || reg >= NumRegs {
		return
	}
	r.x[reg].Write(value)
}

// SetReg writes a register immediately, bypassing the commit phase.
// Intended for initialization and test setup before the first cycle.
// Writes to x0 are discarded.
func (r *RegFile) SetReg(reg uint8, value uint32) {
	if reg == 0 || reg >= NumRegs {
		return
	}
	r.x[reg].Set(value)
}

// Commit publishes all staged register writes.
func (r *RegFile) Commit() {
	for i := 1; i < NumRegs; i++ {
		r.x[i].Commit()
	}
}
