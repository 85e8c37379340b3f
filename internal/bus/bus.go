package bus

import (
	"errors"
	"fmt"
)

const (
	MemorySize   = 0x1000
	FontStart    = 0x000
	ProgramStart = 0x200
	GlyphSize    = 5 // bytes per font glyph
	MaxProgram   = MemorySize - ProgramStart
)

var (
	ErrEmptyProgram      = errors.New("program is empty")
	ErrProgramTooLarge   = errors.New("program does not fit in memory")
	ErrAddressOutOfRange = errors.New("address out of range")
)

// Font holds the 16 hexadecimal digit glyphs, 5 rows each, stored at FontStart.
var Font = [16 * GlyphSize]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Bus is the flat 4 KiB address space: font glyphs at the bottom, program from 0x200.
type Bus struct {
	mem [MemorySize]byte
}

// New returns memory with the font installed and nothing loaded.
func New() *Bus {
	b := &Bus{}
	b.Reset()
	return b
}

// Reset clears memory and reinstalls the font.
func (b *Bus) Reset() {
	b.mem = [MemorySize]byte{}
	copy(b.mem[FontStart:], Font[:])
}

// LoadProgram copies a raw big-endian instruction stream to ProgramStart.
func (b *Bus) LoadProgram(prog []byte) error {
	if len(prog) == 0 {
		return ErrEmptyProgram
	}
	if len(prog) > MaxProgram {
		return fmt.Errorf("%w: %d bytes, max %d", ErrProgramTooLarge, len(prog), MaxProgram)
	}
	copy(b.mem[ProgramStart:], prog)
	return nil
}

// InRange reports whether n bytes starting at addr are all addressable.
func (b *Bus) InRange(addr uint16, n int) bool {
	return int(addr)+n <= MemorySize
}

// Read returns the byte at addr. Callers check InRange first; anything past
// the end reads as 0.
func (b *Bus) Read(addr uint16) byte {
	if int(addr) >= MemorySize {
		return 0
	}
	return b.mem[addr]
}

// Read16 returns the big-endian word at addr.
func (b *Bus) Read16(addr uint16) uint16 {
	return uint16(b.Read(addr))<<8 | uint16(b.Read(addr+1))
}

func (b *Bus) Write(addr uint16, value byte) {
	if int(addr) >= MemorySize {
		return
	}
	b.mem[addr] = value
}

// Slice returns n bytes starting at addr, or an error if the range leaves memory.
// The returned slice aliases memory.
func (b *Bus) Slice(addr uint16, n int) ([]byte, error) {
	if !b.InRange(addr, n) {
		return nil, fmt.Errorf("%w: %#04x+%d", ErrAddressOutOfRange, addr, n)
	}
	return b.mem[addr : int(addr)+n], nil
}

// SaveState returns a copy of memory.
func (b *Bus) SaveState() []byte {
	out := make([]byte, MemorySize)
	copy(out, b.mem[:])
	return out
}

func (b *Bus) LoadState(data []byte) {
	copy(b.mem[:], data)
}
