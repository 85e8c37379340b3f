package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/buzzer"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/emu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/timer"
)

func TestParseFlags_Positional(t *testing.T) {
	f, err := parseFlags([]string{"12", "500", "pong.ch8"}, io.Discard)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.Scale != 12 || f.Hz != 500 || f.ROMPath != "pong.ch8" {
		t.Fatalf("got scale=%d hz=%d rom=%q", f.Scale, f.Hz, f.ROMPath)
	}
}

func TestParseFlags_Named(t *testing.T) {
	f, err := parseFlags([]string{"-rom", "a.ch8", "-hz", "1000", "-headless", "-timers", "drain"}, io.Discard)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.ROMPath != "a.ch8" || f.Hz != 1000 || !f.Headless {
		t.Fatalf("unexpected flags: %+v", f)
	}
	cfg, err := f.emuConfig()
	if err != nil {
		t.Fatalf("emuConfig: %v", err)
	}
	if cfg.TimerPolicy != timer.DrainAll || cfg.ClockHz != 1000 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	cases := [][]string{
		{},
		{"x", "500", "pong.ch8"},
		{"10", "0", "pong.ch8"},
		{"-rom", "a.ch8", "extra"},
		{"-rom", "a.ch8", "-frontend", "tv"},
	}
	for _, args := range cases {
		if _, err := parseFlags(args, io.Discard); err == nil {
			t.Fatalf("args %q: expected error", args)
		}
	}
	f, _ := parseFlags([]string{"-rom", "a.ch8", "-timers", "some"}, io.Discard)
	if _, err := f.emuConfig(); err == nil {
		t.Fatalf("expected unknown timer policy error")
	}
}

func newHeadlessMachine(t *testing.T, words ...uint16) *emu.Machine {
	t.Helper()
	m := emu.New(emu.Config{Seed: 1, Logger: emu.Discard()})
	prog := make([]byte, 0, len(words)*2)
	for _, w := range words {
		prog = append(prog, byte(w>>8), byte(w))
	}
	if err := m.LoadProgram(prog); err != nil {
		t.Fatalf("load: %v", err)
	}
	return m
}

func TestStepHeadless_TicksInEmulatedTime(t *testing.T) {
	// LD V0,0xFF; LD DT,V0; JP 0x204
	m := newHeadlessMachine(t, 0x60FF, 0xF015, 0x1204)
	ran, err := stepHeadless(m, 600, 600, nil)
	if err != nil || ran != 600 {
		t.Fatalf("ran=%d err=%v", ran, err)
	}
	// one second of emulated time, every tick lands after DT is set
	if got := m.Timers().Delay; got != 0xFF-60 {
		t.Fatalf("delay got %d want %d", got, 0xFF-60)
	}
}

func TestStepHeadless_StopsOnFault(t *testing.T) {
	m := newHeadlessMachine(t, 0x00EE)
	ran, err := stepHeadless(m, 10, 700, nil)
	if ran != 0 || err == nil {
		t.Fatalf("ran=%d err=%v", ran, err)
	}
}

func TestStepHeadless_RecordsBuzzer(t *testing.T) {
	// LD V0,30; LD ST,V0; JP 0x204
	m := newHeadlessMachine(t, 0x601E, 0xF018, 0x1204)
	rec := buzzer.NewRecorder(600)
	m.SetBuzzer(rec)
	if _, err := stepHeadless(m, 600, 600, rec); err != nil {
		t.Fatalf("step: %v", err)
	}
	s := rec.Samples()
	if len(s) < 599 || len(s) > 600 {
		t.Fatalf("samples got %d want about 600", len(s))
	}
	if s[len(s)-1] != 0 {
		t.Fatalf("buzzer should be silent after the sound timer ran out")
	}
	loud := false
	for _, v := range s[:100] {
		if v != 0 {
			loud = true
		}
	}
	if !loud {
		t.Fatalf("expected tone while the sound timer was running")
	}
}

func TestFrameImage_ScalesAndCRCStable(t *testing.T) {
	m := newHeadlessMachine(t, 0xA000, 0xD005) // draw glyph 0 at (0,0)
	if _, err := stepHeadless(m, 2, 700, nil); err != nil {
		t.Fatalf("step: %v", err)
	}
	fr := m.Frame()
	img := frameImage(&fr, 3)
	if b := img.Bounds(); b.Dx() != 192 || b.Dy() != 96 {
		t.Fatalf("bounds got %v", b)
	}
	if c := img.RGBAAt(2, 2); c.R != 0xFF {
		t.Fatalf("pixel (0,0) should be lit, got %v", c)
	}
	if c := img.RGBAAt(3*5, 0); c.R != 0 {
		t.Fatalf("pixel (5,0) should be dark, got %v", c)
	}
	if frameCRC(&fr) == frameCRC(new(display.Frame)) {
		t.Fatalf("crc should differ from the blank frame")
	}
}

func TestRunHeadless_ExpectAndOutputs(t *testing.T) {
	dir := t.TempDir()
	m := newHeadlessMachine(t, 0x601E, 0xF018, 0x1204)
	f := CLIFlags{
		Hz:     600,
		Cycles: 60,
		Scale:  2,
		PNGOut: filepath.Join(dir, "out.png"),
		WAVOut: filepath.Join(dir, "out.wav"),
		Expect: "0xdeadbeef",
	}
	err := runHeadless(m, f)
	if err == nil {
		t.Fatalf("expected checksum mismatch")
	}
	for _, p := range []string{f.PNGOut, f.WAVOut} {
		if st, err := os.Stat(p); err != nil || st.Size() == 0 {
			t.Fatalf("%s not written: %v", p, err)
		}
	}

	m2 := newHeadlessMachine(t, 0x00EE)
	if err := runHeadless(m2, CLIFlags{Hz: 700, Cycles: 5}); !errors.Is(err, cpu.ErrStackUnderflow) {
		t.Fatalf("expected fault, got %v", err)
	}
}
