package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/timing/pipeline"
)

var _ = Describe("Pipeline", func() {
	var p *pipeline.Pipeline

	BeforeEach(func() {
		p = pipeline.New()
	})

	// cycles advances the pipeline n cycles, failing on unexpected faults.
	cycles := func(n int) {
		for i := 0; i < n; i++ {
			Expect(p.Cycle()).To(Succeed())
		}
	}

	Describe("New", func() {
		It("should start with the PC at the ROM base", func() {
			Expect(p.PC()).To(Equal(p.ROM().Base()))
		})

		It("should start with zeroed registers", func() {
			for i := uint8(0); i < emu.NumRegs; i++ {
				Expect(p.RegFile().ReadReg(i)).To(Equal(uint32(0)))
			}
		})
	})

	Describe("5-cycle latency", func() {
		It("should make a result visible exactly 5 cycles after fetch", func() {
			p.RegFile().SetReg(1, 30)
			p.RegFile().SetReg(2, 12)
			p.LoadProgram([]uint32{insts.ADD(3, 1, 2)})

			cycles(4)
			Expect(p.RegFile().ReadReg(3)).To(Equal(uint32(0)))

			cycles(1)
			Expect(p.RegFile().ReadReg(3)).To(Equal(uint32(42)))
		})

		It("should retire back-to-back instructions one cycle apart", func() {
			p.LoadProgram([]uint32{
				insts.ADDI(1, 0, 10),
				insts.ADDI(2, 0, 20),
			})

			cycles(5)
			Expect(p.RegFile().ReadReg(1)).To(Equal(uint32(10)))
			Expect(p.RegFile().ReadReg(2)).To(Equal(uint32(0)))

			cycles(1)
			Expect(p.RegFile().ReadReg(2)).To(Equal(uint32(20)))
		})
	})

	Describe("ALU execution", func() {
		It("should wrap ADD modulo 2^32", func() {
			p.RegFile().SetReg(1, 0xFFFFFFFF)
			p.RegFile().SetReg(2, 1)
			p.LoadProgram([]uint32{insts.ADD(3, 1, 2)})

			cycles(5)

			Expect(p.RegFile().ReadReg(3)).To(Equal(uint32(0)))
		})

		It("should discard writes to x0", func() {
			p.RegFile().SetReg(1, 30)
			p.RegFile().SetReg(2, 12)
			p.LoadProgram([]uint32{insts.ADD(0, 1, 2)})

			cycles(5)

			Expect(p.RegFile().ReadReg(0)).To(Equal(uint32(0)))
		})

		DescribeTable("R-type semantics",
			func(word uint32, a, b, expected uint32) {
				p.RegFile().SetReg(1, a)
				p.RegFile().SetReg(2, b)
				p.LoadProgram([]uint32{word})

				cycles(5)

				Expect(p.RegFile().ReadReg(3)).To(Equal(expected))
			},
			Entry("SUB", insts.SUB(3, 1, 2), uint32(5), uint32(7), uint32(0xFFFFFFFE)),
			Entry("SLT signed", insts.SLT(3, 1, 2), uint32(0xFFFFFFFF), uint32(0), uint32(1)),
			Entry("SLTU unsigned", insts.SLTU(3, 1, 2), uint32(0xFFFFFFFF), uint32(0), uint32(0)),
			Entry("XOR", insts.XOR(3, 1, 2), uint32(0xFF00), uint32(0x0FF0), uint32(0xF0F0)),
			Entry("SLL low-5-bit shamt", insts.SLL(3, 1, 2), uint32(1), uint32(32), uint32(1)),
			Entry("SRA", insts.SRA(3, 1, 2), uint32(0x80000000), uint32(31), uint32(0xFFFFFFFF)),
			Entry("AND", insts.AND(3, 1, 2), uint32(0b1100), uint32(0b1010), uint32(0b1000)),
			Entry("OR", insts.OR(3, 1, 2), uint32(0b1100), uint32(0b1010), uint32(0b1110)),
		)

		It("should execute immediate forms", func() {
			p.LoadProgram([]uint32{
				insts.ADDI(1, 0, -5),
				insts.SLTIU(2, 0, 1), // x0 < 1 unsigned -> 1
				insts.SLLI(3, 2, 4),  // depends on x2 before the write lands -> 0
			})

			p.Run(100)

			Expect(p.RegFile().ReadReg(1)).To(Equal(uint32(0xFFFFFFFB)))
			Expect(p.RegFile().ReadReg(2)).To(Equal(uint32(1)))
			Expect(p.RegFile().ReadReg(3)).To(Equal(uint32(0)))
		})
	})

	Describe("register read timing", func() {
		It("should not forward: an adjacent dependent read sees the old value", func() {
			p.LoadProgram([]uint32{
				insts.ADDI(1, 0, 5),
				insts.ADD(2, 1, 0), // decodes before x1 is written back
			})

			p.Run(100)

			Expect(p.RegFile().ReadReg(1)).To(Equal(uint32(5)))
			Expect(p.RegFile().ReadReg(2)).To(Equal(uint32(0)))
		})

		It("should see the value once write-back has committed", func() {
			p.LoadProgram([]uint32{
				insts.ADDI(1, 0, 5),
				insts.NOP(),
				insts.NOP(),
				insts.NOP(),
				insts.ADD(2, 1, 0), // decodes the cycle after x1 commits
			})

			p.Run(100)

			Expect(p.RegFile().ReadReg(2)).To(Equal(uint32(5)))
		})
	})

	Describe("memory access", func() {
		var ramBase uint32

		BeforeEach(func() {
			ramBase = emu.DefaultRAMBase
		})

		It("should load the literal byte 0x12 from a word 0x12345678", func() {
			// Little endian: 0x12 is the byte at offset 3.
			Expect(p.Bus().Write(ramBase, 0x12345678, emu.WidthWord)).To(Succeed())
			p.RegFile().SetReg(8, ramBase)
			p.LoadProgram([]uint32{insts.LB(5, 8, 3)})

			cycles(5)

			Expect(p.RegFile().ReadReg(5)).To(Equal(uint32(0x00000012)))
		})

		It("should sign-extend LB of a negative byte", func() {
			Expect(p.Bus().Write(ramBase, 0xF8, emu.WidthByte)).To(Succeed())
			p.RegFile().SetReg(8, ramBase)
			p.LoadProgram([]uint32{insts.LB(5, 8, 0)})

			cycles(5)

			Expect(p.RegFile().ReadReg(5)).To(Equal(uint32(0xFFFFFFF8)))
		})

		It("should zero-extend LBU of the same byte", func() {
			Expect(p.Bus().Write(ramBase, 0xF8, emu.WidthByte)).To(Succeed())
			p.RegFile().SetReg(8, ramBase)
			p.LoadProgram([]uint32{insts.LBU(5, 8, 0)})

			cycles(5)

			Expect(p.RegFile().ReadReg(5)).To(Equal(uint32(0x000000F8)))
		})

		It("should extend half loads by funct3 bit 2", func() {
			Expect(p.Bus().Write(ramBase, 0x8000, emu.WidthHalf)).To(Succeed())
			p.RegFile().SetReg(8, ramBase)
			p.LoadProgram([]uint32{
				insts.LH(5, 8, 0),
				insts.LHU(6, 8, 0),
			})

			p.Run(100)

			Expect(p.RegFile().ReadReg(5)).To(Equal(uint32(0xFFFF8000)))
			Expect(p.RegFile().ReadReg(6)).To(Equal(uint32(0x00008000)))
		})

		It("should round-trip a store then load", func() {
			p.RegFile().SetReg(1, ramBase)
			p.RegFile().SetReg(2, 0xCAFEBABE)
			p.LoadProgram([]uint32{
				insts.SW(2, 1, 0),
				insts.LW(3, 1, 0), // SW is a stage ahead; memory order holds
			})

			p.Run(100)

			Expect(p.RegFile().ReadReg(3)).To(Equal(uint32(0xCAFEBABE)))
		})

		It("should apply negative offsets with a wrapping add", func() {
			Expect(p.Bus().Write(ramBase, 0x55, emu.WidthByte)).To(Succeed())
			p.RegFile().SetReg(1, ramBase+8)
			p.LoadProgram([]uint32{insts.LBU(2, 1, -8)})

			cycles(5)

			Expect(p.RegFile().ReadReg(2)).To(Equal(uint32(0x55)))
		})
	})

	Describe("memory faults", func() {
		It("should fault SH at an odd address and leave memory unchanged", func() {
			p.RegFile().SetReg(1, emu.DefaultRAMBase+1)
			p.RegFile().SetReg(2, 0xBEEF)
			p.LoadProgram([]uint32{insts.SH(2, 1, 0)})

			// IF, ID, EX succeed; the fault surfaces from the MEM cycle.
			Expect(p.Cycle()).To(Succeed())
			Expect(p.Cycle()).To(Succeed())
			Expect(p.Cycle()).To(Succeed())
			Expect(p.Cycle()).To(MatchError(emu.ErrMisaligned))

			word, err := p.Bus().Read(emu.DefaultRAMBase, emu.WidthWord)
			Expect(err).NotTo(HaveOccurred())
			Expect(word).To(Equal(uint32(0)))
		})

		It("should fault SW at a non-multiple-of-4 address", func() {
			p.RegFile().SetReg(1, emu.DefaultRAMBase+2)
			p.RegFile().SetReg(2, 0x12345678)
			p.LoadProgram([]uint32{insts.SW(2, 1, 0)})

			Expect(p.Cycle()).To(Succeed())
			Expect(p.Cycle()).To(Succeed())
			Expect(p.Cycle()).To(Succeed())
			Expect(p.Cycle()).To(MatchError(emu.ErrMisaligned))

			word, err := p.Bus().Read(emu.DefaultRAMBase, emu.WidthWord)
			Expect(err).NotTo(HaveOccurred())
			Expect(word).To(Equal(uint32(0)))
		})

		It("should not be halted by a data fault", func() {
			p.RegFile().SetReg(1, 0x10000000)
			p.LoadProgram([]uint32{
				insts.SW(2, 1, 0),
				insts.ADDI(3, 0, 1),
			})

			Expect(p.Cycle()).To(Succeed())
			Expect(p.Cycle()).To(Succeed())
			Expect(p.Cycle()).To(Succeed())
			Expect(p.Cycle()).To(MatchError(emu.ErrUnmapped))

			p.Run(100)

			Expect(p.RegFile().ReadReg(3)).To(Equal(uint32(1)))
		})

		It("should drop the write-back of a faulting load", func() {
			p.RegFile().SetReg(1, emu.DefaultRAMBase+1)
			p.RegFile().SetReg(5, 0x77)
			p.LoadProgram([]uint32{insts.LH(5, 1, 0)})

			Expect(p.Cycle()).To(Succeed())
			Expect(p.Cycle()).To(Succeed())
			Expect(p.Cycle()).To(Succeed())
			Expect(p.Cycle()).To(MatchError(emu.ErrMisaligned))
			Expect(p.Cycle()).To(Succeed())

			Expect(p.RegFile().ReadReg(5)).To(Equal(uint32(0x77)))
		})
	})

	Describe("fetch faults", func() {
		It("should halt fatally on an unmapped fetch address", func() {
			p.SetPC(0x10000000)

			Expect(p.Cycle()).To(MatchError(emu.ErrUnmapped))
			Expect(p.Halted()).To(BeTrue())
		})

		It("should keep returning the same fault once halted", func() {
			p.SetPC(0x10000000)

			first := p.Cycle()
			Expect(first).To(HaveOccurred())
			Expect(p.Cycle()).To(MatchError(first))
		})

		It("should halt fatally on a misaligned fetch address", func() {
			p.SetPC(p.ROM().Base() + 2)

			Expect(p.Cycle()).To(MatchError(emu.ErrMisaligned))
			Expect(p.Halted()).To(BeTrue())
		})
	})

	Describe("control flow", func() {
		It("should squash the wrong-path slot after a taken branch", func() {
			p.LoadProgram([]uint32{
				insts.BEQ(0, 0, 8),   // always taken, to +8
				insts.ADDI(2, 0, 99), // wrong path, must be squashed
				insts.ADDI(3, 0, 7),
			})

			p.Run(100)

			Expect(p.RegFile().ReadReg(2)).To(Equal(uint32(0)))
			Expect(p.RegFile().ReadReg(3)).To(Equal(uint32(7)))
			Expect(p.Stats().Flushes).To(Equal(uint64(1)))
		})

		It("should fall through an untaken branch without a flush", func() {
			p.RegFile().SetReg(1, 1)
			p.LoadProgram([]uint32{
				insts.BEQ(1, 0, 8), // not taken
				insts.ADDI(2, 0, 99),
				insts.ADDI(3, 0, 7),
			})

			p.Run(100)

			Expect(p.RegFile().ReadReg(2)).To(Equal(uint32(99)))
			Expect(p.RegFile().ReadReg(3)).To(Equal(uint32(7)))
			Expect(p.Stats().Flushes).To(Equal(uint64(0)))
		})

		It("should write the link register on JAL", func() {
			base := p.ROM().Base()
			p.LoadProgram([]uint32{
				insts.JAL(1, 8),
				insts.ADDI(2, 0, 99), // skipped
				insts.ADDI(3, 0, 7),
			})

			p.Run(100)

			Expect(p.RegFile().ReadReg(1)).To(Equal(base + 4))
			Expect(p.RegFile().ReadReg(2)).To(Equal(uint32(0)))
			Expect(p.RegFile().ReadReg(3)).To(Equal(uint32(7)))
		})

		It("should not write a link for JAL to x0", func() {
			p.LoadProgram([]uint32{
				insts.JAL(0, 8),
				insts.ADDI(2, 0, 99),
				insts.ADDI(3, 0, 7),
			})

			p.Run(100)

			Expect(p.RegFile().ReadReg(2)).To(Equal(uint32(0)))
			Expect(p.RegFile().ReadReg(3)).To(Equal(uint32(7)))
		})

		It("should jump through a register with JALR", func() {
			base := p.ROM().Base()
			p.RegFile().SetReg(5, base+12)
			p.LoadProgram([]uint32{
				insts.JALR(1, 5, 0),
				insts.ADDI(2, 0, 99), // skipped
				insts.ADDI(2, 0, 98), // skipped
				insts.ADDI(3, 0, 1),
			})

			p.Run(100)

			Expect(p.RegFile().ReadReg(1)).To(Equal(base + 4))
			Expect(p.RegFile().ReadReg(2)).To(Equal(uint32(0)))
			Expect(p.RegFile().ReadReg(3)).To(Equal(uint32(1)))
		})

		It("should iterate a backward-branch loop", func() {
			p.LoadProgram([]uint32{
				insts.ADDI(1, 0, 3), // x1 = 3
				insts.NOP(),         // x1 not visible to the branch yet
				insts.NOP(),
				insts.NOP(),
				insts.ADDI(2, 2, 1),  // x2++
				insts.NOP(),          // keep x1/x2 reads behind write-back
				insts.NOP(),
				insts.NOP(),
				insts.ADDI(1, 1, -1), // x1--
				insts.NOP(),
				insts.NOP(),
				insts.NOP(),
				insts.BNE(1, 0, -32), // back to x2++
			})

			p.Run(1000)

			Expect(p.Halted()).To(BeTrue())
			Expect(p.RegFile().ReadReg(1)).To(Equal(uint32(0)))
			Expect(p.RegFile().ReadReg(2)).To(Equal(uint32(3)))
		})

		It("should compute AUIPC relative to the instruction address", func() {
			base := p.ROM().Base()
			p.LoadProgram([]uint32{
				insts.NOP(),
				insts.AUIPC(1, 0),
			})

			p.Run(100)

			Expect(p.RegFile().ReadReg(1)).To(Equal(base + 4))
		})

		It("should load an upper immediate", func() {
			p.LoadProgram([]uint32{insts.LUI(1, 0xDEADB000)})

			cycles(5)

			Expect(p.RegFile().ReadReg(1)).To(Equal(uint32(0xDEADB000)))
		})
	})

	Describe("stalling", func() {
		It("should freeze the whole pipeline while the predicate holds", func() {
			cycleNo := 0
			p = pipeline.New(pipeline.WithStallPredicate(func() bool {
				cycleNo++
				return cycleNo == 2 || cycleNo == 3
			}))
			p.RegFile().SetReg(1, 30)
			p.RegFile().SetReg(2, 12)
			p.LoadProgram([]uint32{insts.ADD(3, 1, 2)})

			cycles(6)
			Expect(p.RegFile().ReadReg(3)).To(Equal(uint32(0)))

			cycles(1)
			Expect(p.RegFile().ReadReg(3)).To(Equal(uint32(42)))
			Expect(p.Stats().Stalls).To(Equal(uint64(2)))
		})
	})

	Describe("halting", func() {
		It("should drain and halt after the instruction stream ends", func() {
			p.LoadProgram([]uint32{
				insts.ADDI(1, 0, 1),
				insts.ADDI(2, 0, 2),
			})

			p.Run(100)

			Expect(p.Halted()).To(BeTrue())
			Expect(p.RegFile().ReadReg(1)).To(Equal(uint32(1)))
			Expect(p.RegFile().ReadReg(2)).To(Equal(uint32(2)))
		})

		It("should count retired instructions, not bubbles", func() {
			p.LoadProgram([]uint32{
				insts.ADDI(1, 0, 1),
				insts.ADDI(2, 0, 2),
				insts.ADDI(3, 0, 3),
			})

			p.Run(100)

			Expect(p.Stats().Instructions).To(Equal(uint64(3)))
			Expect(p.Stats().Cycles).To(BeNumerically(">", 3))
			Expect(p.Stats().CPI()).To(BeNumerically(">", 1.0))
		})
	})
})
