package bus

import (
	"errors"
	"testing"
)

func TestBus_FontInstalled(t *testing.T) {
	b := New()
	for i, want := range Font {
		if got := b.Read(uint16(FontStart + i)); got != want {
			t.Fatalf("font byte %d got %02x, want %02x", i, got, want)
		}
	}
	// glyph for 0xA starts at 10*5
	if got := b.Read(FontStart + 0xA*GlyphSize); got != 0xF0 {
		t.Fatalf("glyph A row 0 got %02x, want F0", got)
	}
}

func TestBus_LoadProgram(t *testing.T) {
	b := New()
	if err := b.LoadProgram([]byte{0x12, 0x34, 0xAB}); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := b.Read16(ProgramStart); got != 0x1234 {
		t.Fatalf("Read16 got %04x, want 1234", got)
	}
	if got := b.Read(ProgramStart + 2); got != 0xAB {
		t.Fatalf("third byte got %02x, want AB", got)
	}
	// font untouched
	if got := b.Read(0); got != 0xF0 {
		t.Fatalf("font clobbered: %02x", got)
	}
}

func TestBus_LoadProgramLimits(t *testing.T) {
	b := New()
	if err := b.LoadProgram(nil); !errors.Is(err, ErrEmptyProgram) {
		t.Fatalf("empty program err=%v, want ErrEmptyProgram", err)
	}
	if err := b.LoadProgram(make([]byte, MaxProgram+1)); !errors.Is(err, ErrProgramTooLarge) {
		t.Fatalf("oversized program err=%v, want ErrProgramTooLarge", err)
	}
	if err := b.LoadProgram(make([]byte, MaxProgram)); err != nil {
		t.Fatalf("max-size program: %v", err)
	}
}

func TestBus_SliceBounds(t *testing.T) {
	b := New()
	b.Write(0xFFF, 0x77)
	s, err := b.Slice(0xFFF, 1)
	if err != nil || s[0] != 0x77 {
		t.Fatalf("Slice(0xFFF,1) got %v err=%v", s, err)
	}
	if _, err := b.Slice(0xFFF, 2); !errors.Is(err, ErrAddressOutOfRange) {
		t.Fatalf("Slice past end err=%v, want ErrAddressOutOfRange", err)
	}
	if b.InRange(0x1000, 1) {
		t.Fatalf("InRange(0x1000,1) should be false")
	}
}

func TestBus_StateRoundTrip(t *testing.T) {
	b := New()
	b.Write(0x300, 0x42)
	snap := b.SaveState()
	b.Reset()
	if b.Read(0x300) != 0 {
		t.Fatalf("reset did not clear memory")
	}
	b.LoadState(snap)
	if got := b.Read(0x300); got != 0x42 {
		t.Fatalf("restored byte got %02x, want 42", got)
	}
}
