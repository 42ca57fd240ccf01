// Package loader reads RV32I instruction images for the simulator.
//
// Two on-disk formats are supported: flat little-endian binaries
// (the output of objcopy -O binary) and hex text, one 32-bit word per
// line. The simulator's contract is a host-supplied word array, so both
// loaders produce []uint32.
package loader

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Program represents a loaded instruction image ready for the ROM.
type Program struct {
	// Words is the instruction image, in execution order from the ROM
	// base.
	Words []uint32
}

// Load reads a flat little-endian binary image. The file length must be
// a multiple of 4 bytes.
func Load(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	if len(data)%4 != 0 {
		return nil, fmt.Errorf("loading %s: image length %d is not word-aligned",
			path, len(data))
	}

	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}

	return &Program{Words: words}, nil
}

// LoadHex reads a hex text image: one 32-bit word per line, with an
// optional 0x prefix. Blank lines and '#' or '//' comments are ignored.
func LoadHex(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	defer f.Close()

	var words []uint32

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		cleaned := strings.TrimPrefix(strings.ToLower(line), "0x")
		word, err := strconv.ParseUint(cleaned, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("loading %s: line %d: %q is not a hex word",
				path, lineNo, line)
		}
		words = append(words, uint32(word))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	return &Program{Words: words}, nil
}
