package emu

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Bus fault values. Faults carry the offending address and width via
// fmt.Errorf wrapping; match them with errors.Is.
var (
	// ErrMisaligned reports an access whose address is not a multiple of
	// its width. The access is not performed.
	ErrMisaligned = errors.New("misaligned access")

	// ErrUnmapped reports an address outside every mapped region.
	ErrUnmapped = errors.New("unmapped address")

	// ErrReadOnly reports a write to the ROM region.
	ErrReadOnly = errors.New("write to read-only memory")
)

// AccessWidth is the size of a bus access in bytes.
type AccessWidth uint8

// Supported access widths.
const (
	WidthByte AccessWidth = 1
	WidthHalf AccessWidth = 2
	WidthWord AccessWidth = 4
)

// Default memory map. The ROM sits at the reset address; the RAM base
// leaves room for a flat 512 MiB ROM window without overlap.
const (
	DefaultROMBase  = 0x00000000
	DefaultROMWords = 4096 // 16 KiB of instruction memory
	DefaultRAMBase  = 0x20000000
	DefaultRAMSize  = 0x10000 // 64 KiB of data memory
)

// ROM is a read-only word-granular memory device holding the instruction
// image. It is preloaded once via LoadWords and immutable afterwards as
// far as the bus is concerned.
type ROM struct {
	base  uint32
	words []uint32
}

// NewROM creates a zeroed ROM of sizeWords 32-bit words mapped at base.
func NewROM(base, sizeWords uint32) *ROM {
	return &ROM{
		base:  base,
		words: make([]uint32, sizeWords),
	}
}

// Base returns the first mapped address.
func (r *ROM) Base() uint32 {
	return r.base
}

// Size returns the mapped size in bytes.
func (r *ROM) Size() uint32 {
	return uint32(len(r.words)) * 4
}

// LoadWords copies an instruction image into the ROM starting at the base
// address. Images longer than the ROM are truncated.
func (r *ROM) LoadWords(image []uint32) {
	copy(r.words, image)
}

// contains reports whether a width-sized access at addr falls entirely
// inside the mapped range.
func (r *ROM) contains(addr uint32, width AccessWidth) bool {
	return addr >= r.base && addr-r.base+uint32(width) <= r.Size()
}

// read returns width bytes starting at addr as a zero-extended raw bit
// pattern. The bus has already validated mapping and alignment, so an
// aligned access never straddles a word boundary.
func (r *ROM) read(addr uint32, width AccessWidth) uint32 {
	off := addr - r.base
	word := r.words[off/4]
	shift := (off % 4) * 8
	switch width {
	case WidthByte:
		return (word >> shift) & 0xFF
	case WidthHalf:
		return (word >> shift) & 0xFFFF
	default:
		return word
	}
}

// RAM is a byte-addressable read/write memory device.
type RAM struct {
	base uint32
	data []byte
}

// NewRAM creates a zeroed RAM of size bytes mapped at base.
func NewRAM(base, size uint32) *RAM {
	return &RAM{
		base: base,
		data: make([]byte, size),
	}
}

// Base returns the first mapped address.
func (r *RAM) Base() uint32 {
	return r.base
}

// Size returns the mapped size in bytes.
func (r *RAM) Size() uint32 {
	return uint32(len(r.data))
}

// contains reports whether a width-sized access at addr falls entirely
// inside the mapped range. The tail matters: a region size need not be a
// multiple of the access width, so an access can start in range and run
// off the end.
func (r *RAM) contains(addr uint32, width AccessWidth) bool {
	return addr >= r.base && addr-r.base+uint32(width) <= r.Size()
}

func (r *RAM) read(addr uint32, width AccessWidth) uint32 {
	off := addr - r.base
	switch width {
	case WidthByte:
		return uint32(r.data[off])
	case WidthHalf:
		return uint32(binary.LittleEndian.Uint16(r.data[off:]))
	default:
		return binary.LittleEndian.Uint32(r.data[off:])
	}
}

func (r *RAM) write(addr, value uint32, width AccessWidth) {
	off := addr - r.base
	switch width {
	case WidthByte:
		r.data[off] = byte(value)
	case WidthHalf:
		binary.LittleEndian.PutUint16(r.data[off:], uint16(value))
	default:
		binary.LittleEndian.PutUint32(r.data[off:], value)
	}
}

// Bus dispatches width-aware loads and stores to the ROM and RAM devices
// by address range. It checks alignment before touching any device and
// returns raw bit patterns; sign or zero extension is the caller's job.
type Bus struct {
	rom  *ROM
	rams []*RAM
}

// NewBus creates a bus over one ROM and any number of RAM regions.
func NewBus(rom *ROM, rams ...*RAM) *Bus {
	return &Bus{rom: rom, rams: rams}
}

// Read performs a width-sized load from addr. It returns the raw
// (zero-extended) bit pattern, or a fault if the address is misaligned
// or unmapped.
func (b *Bus) Read(addr uint32, width AccessWidth) (uint32, error) {
	if err := checkAlignment(addr, width); err != nil {
		return 0, err
	}
	if b.rom != nil && b.rom.contains(addr, width) {
		return b.rom.read(addr, width), nil
	}
	for _, ram := range b.rams {
		if ram.contains(addr, width) {
			return ram.read(addr, width), nil
		}
	}
	return 0, fmt.Errorf("read 0x%08X width %d: %w", addr, width, ErrUnmapped)
}

// Write performs a width-sized store of the low bytes of value to addr.
// Faulting stores leave memory untouched.
func (b *Bus) Write(addr, value uint32, width AccessWidth) error {
	if err := checkAlignment(addr, width); err != nil {
		return err
	}
	if b.rom != nil && b.rom.contains(addr, width) {
		return fmt.Errorf("write 0x%08X: %w", addr, ErrReadOnly)
	}
	for _, ram := range b.rams {
		if ram.contains(addr, width) {
			ram.write(addr, value, width)
			return nil
		}
	}
	return fmt.Errorf("write 0x%08X width %d: %w", addr, width, ErrUnmapped)
}

// checkAlignment enforces natural alignment: half accesses on even
// addresses, word accesses on multiples of four.
func checkAlignment(addr uint32, width AccessWidth) error {
	if addr%uint32(width) != 0 {
		return fmt.Errorf("access 0x%08X width %d: %w", addr, width, ErrMisaligned)
	}
	return nil
}

// MemoryMap describes the address layout of a simulated machine.
type MemoryMap struct {
	ROMBase  uint32
	ROMWords uint32 // instruction memory size in 32-bit words
	RAMBase  uint32
	RAMSize  uint32 // data memory size in bytes
}

// DefaultMemoryMap returns the standard layout: 16 KiB ROM at 0x00000000
// and 64 KiB RAM at 0x20000000.
func DefaultMemoryMap() MemoryMap {
	return MemoryMap{
		ROMBase:  DefaultROMBase,
		ROMWords: DefaultROMWords,
		RAMBase:  DefaultRAMBase,
		RAMSize:  DefaultRAMSize,
	}
}

// Build constructs the ROM, RAM, and bus described by the map.
func (m MemoryMap) Build() (*ROM, *RAM, *Bus) {
	rom := NewROM(m.ROMBase, m.ROMWords)
	ram := NewRAM(m.RAMBase, m.RAMSize)
	return rom, ram, NewBus(rom, ram)
}
