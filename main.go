// Package main provides the entry point for rv32sim.
// rv32sim is a cycle-accurate 5-stage in-order RV32I pipeline simulator.
//
// For the full CLI, use: go run ./cmd/rv32sim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("rv32sim - RV32I 5-stage pipeline simulator")
	fmt.Println("")
	fmt.Println("Usage: rv32sim [options] <image.bin>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -timing    Enable cycle-accurate pipeline mode")
	fmt.Println("  -hex       Treat the image as hex text")
	fmt.Println("  -cycles    Maximum cycles to simulate")
	fmt.Println("  -v         Verbose output")
	fmt.Println("  -dump      Dump architectural state after the run")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/rv32sim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/rv32sim' instead.")
	}
}
