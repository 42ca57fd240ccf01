package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/emu"
)

var _ = Describe("Latch", func() {
	It("should not expose a write before commit", func() {
		l := emu.NewLatch(uint32(7))

		l.Write(42)

		Expect(l.Read()).To(Equal(uint32(7)))
	})

	It("should expose the written value after commit", func() {
		l := emu.NewLatch(uint32(7))

		l.Write(42)
		l.Commit()

		Expect(l.Read()).To(Equal(uint32(42)))
	})

	It("should hold state across commits without writes", func() {
		l := emu.NewLatch(uint32(9))

		l.Commit()
		l.Commit()

		Expect(l.Read()).To(Equal(uint32(9)))
	})

	It("should keep only the last write of a cycle", func() {
		l := &emu.Latch[int]{}

		l.Write(1)
		l.Write(2)
		l.Commit()

		Expect(l.Read()).To(Equal(2))
	})

	It("should set both slots at once", func() {
		l := &emu.Latch[int]{}

		l.Set(5)

		Expect(l.Read()).To(Equal(5))
		l.Commit()
		Expect(l.Read()).To(Equal(5))
	})
})
