// Package main provides the rv32sim command line interface.
// rv32sim is a cycle-accurate 5-stage in-order RV32I pipeline simulator.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/loader"
	"github.com/sarchlab/rv32sim/timing/core"
)

var (
	timing    = flag.Bool("timing", false, "Enable cycle-accurate pipeline mode")
	hexImage  = flag.Bool("hex", false, "Treat the image as hex text (one word per line)")
	maxCycles = flag.Uint64("cycles", 1_000_000, "Maximum cycles (or instructions in functional mode)")
	verbose   = flag.Bool("v", false, "Verbose output")
	dump      = flag.Bool("dump", false, "Dump architectural state after the run")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: rv32sim [options] <image.bin>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	imagePath := flag.Arg(0)

	var prog *loader.Program
	var err error
	if *hexImage {
		prog, err = loader.LoadHex(imagePath)
	} else {
		prog, err = loader.Load(imagePath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading image: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Loaded: %s (%d words)\n", imagePath, len(prog.Words))
	}

	if *timing {
		os.Exit(runTiming(prog))
	}
	os.Exit(runEmulation(prog))
}

// stateDump is the architectural state snapshot printed by -dump.
type stateDump struct {
	PC   uint32
	Regs [emu.NumRegs]uint32
}

func snapshot(pc uint32, regFile *emu.RegFile) stateDump {
	s := stateDump{PC: pc}
	for i := range s.Regs {
		s.Regs[i] = regFile.ReadReg(uint8(i))
	}
	return s
}

// runEmulation runs the image on the functional (one instruction per
// step) reference model.
func runEmulation(prog *loader.Program) int {
	emulator := emu.NewEmulator()
	emulator.LoadProgram(prog.Words)

	if err := emulator.Run(*maxCycles); err != nil {
		fmt.Fprintf(os.Stderr, "Fault: %v\n", err)
		return 1
	}

	if *verbose {
		fmt.Printf("Instructions executed: %d\n", emulator.InstructionCount())
		fmt.Printf("Halted: %v\n", emulator.Halted())
	}
	if *dump {
		spew.Fdump(os.Stdout, snapshot(emulator.PC(), emulator.RegFile()))
	}

	return 0
}

// runTiming runs the image on the cycle-accurate pipeline.
func runTiming(prog *loader.Program) int {
	c := core.NewCore()
	c.LoadProgram(prog.Words)

	// Data-side faults are visible but non-fatal; report each and keep
	// cycling. A fatal fetch fault halts the core.
	for i := uint64(0); i < *maxCycles && !c.Halted(); i++ {
		if err := c.Cycle(); err != nil {
			fmt.Fprintf(os.Stderr, "Fault: %v\n", err)
		}
	}

	stats := c.Stats()
	if *verbose {
		fmt.Printf("Cycles:       %d\n", stats.Cycles)
		fmt.Printf("Instructions: %d\n", stats.Instructions)
		fmt.Printf("Stalls:       %d\n", stats.Stalls)
		fmt.Printf("Flushes:      %d\n", stats.Flushes)
		fmt.Printf("CPI:          %.2f\n", stats.CPI)
	}
	if *dump {
		spew.Fdump(os.Stdout, snapshot(c.Pipeline.PC(), c.RegFile()), stats)
	}

	return 0
}
