package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/emu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/term"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/timer"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/ui"
)

type CLIFlags struct {
	ROMPath  string
	Scale    int
	Hz       int
	Title    string
	Trace    bool
	Seed     int64
	Frontend string // "window" or "term"
	Palette  string
	Mute     bool

	// quirks
	TimerPolicy  string // "one" or "drain"
	KeyWaitTimer bool
	EagerBuzzer  bool
	StackLimit   int

	// headless
	Headless bool
	Cycles   int
	PNGOut   string
	Expect   string // expected framebuffer CRC32 hex (e.g., "1a2b3c4d")
	WAVOut   string
}

var errUsage = errors.New("usage: chip8 [flags] -rom <program> | chip8 <scale> <hz> <program>")

// parseFlags reads flags from args. Three positional arguments without -rom
// are taken as the historical "<scale> <hz> <program>" form.
func parseFlags(args []string, out io.Writer) (CLIFlags, error) {
	var f CLIFlags
	fs := flag.NewFlagSet("chip8", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&f.ROMPath, "rom", "", "path to program (.ch8)")
	fs.IntVar(&f.Scale, "scale", 10, "window scale")
	fs.IntVar(&f.Hz, "hz", emu.DefaultClockHz, "instructions per second")
	fs.StringVar(&f.Title, "title", "chip8", "window title")
	fs.BoolVar(&f.Trace, "trace", false, "log every executed instruction")
	fs.Int64Var(&f.Seed, "seed", 0, "RNG seed for CXNN (0 = time based)")
	fs.StringVar(&f.Frontend, "frontend", "window", "window or term")
	fs.StringVar(&f.Palette, "palette", "mono", "mono, amber, green or lcd")
	fs.BoolVar(&f.Mute, "mute", false, "start with the buzzer muted")

	fs.StringVar(&f.TimerPolicy, "timers", "one", "pending 60 Hz ticks applied per cycle: one or drain")
	fs.BoolVar(&f.KeyWaitTimer, "keywait-timers", false, "count timers down while waiting for a key")
	fs.BoolVar(&f.EagerBuzzer, "eager-buzzer", false, "sound while the sound timer is above 0")
	fs.IntVar(&f.StackLimit, "stack", 0, "call stack depth limit (0 = unbounded)")

	// headless options
	fs.BoolVar(&f.Headless, "headless", false, "run without a window")
	fs.IntVar(&f.Cycles, "cycles", 10000, "instructions to run in headless mode")
	fs.StringVar(&f.PNGOut, "outpng", "", "write last frame to PNG at path")
	fs.StringVar(&f.Expect, "expect", "", "assert frame CRC32 (hex)")
	fs.StringVar(&f.WAVOut, "wav", "", "write buzzer output to WAV at path (headless)")
	if err := fs.Parse(args); err != nil {
		return f, err
	}

	switch rest := fs.Args(); {
	case f.ROMPath == "" && len(rest) == 3:
		scale, err := strconv.Atoi(rest[0])
		if err != nil || scale <= 0 {
			return f, fmt.Errorf("bad scale %q: %w", rest[0], errUsage)
		}
		hz, err := strconv.Atoi(rest[1])
		if err != nil || hz <= 0 {
			return f, fmt.Errorf("bad clock rate %q: %w", rest[1], errUsage)
		}
		f.Scale, f.Hz, f.ROMPath = scale, hz, rest[2]
	case f.ROMPath == "" && len(rest) == 1:
		f.ROMPath = rest[0]
	case len(rest) != 0 || f.ROMPath == "":
		return f, errUsage
	}
	if f.Hz <= 0 {
		return f, fmt.Errorf("clock rate must be positive: %w", errUsage)
	}
	if f.Frontend != "window" && f.Frontend != "term" {
		return f, fmt.Errorf("unknown frontend %q", f.Frontend)
	}
	return f, nil
}

func (f CLIFlags) emuConfig() (emu.Config, error) {
	cfg := emu.Config{
		ClockHz:             f.Hz,
		Seed:                f.Seed,
		MaxStackDepth:       f.StackLimit,
		Trace:               f.Trace,
		TimersDuringKeyWait: f.KeyWaitTimer,
		EagerBuzzer:         f.EagerBuzzer,
	}
	switch f.TimerPolicy {
	case timer.ConsumeOne.String():
		cfg.TimerPolicy = timer.ConsumeOne
	case timer.DrainAll.String():
		cfg.TimerPolicy = timer.DrainAll
	default:
		return cfg, fmt.Errorf("unknown timer policy %q", f.TimerPolicy)
	}
	return cfg, nil
}

func main() {
	f, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal(err)
	}
	cfg, err := f.emuConfig()
	if err != nil {
		log.Fatal(err)
	}

	m := emu.New(cfg)
	path := f.ROMPath
	// prefer absolute path for state placement consistency
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if err := m.LoadROMFromFile(path); err != nil {
		log.Fatalf("load program: %v", err)
	}
	log.Printf("program: %s (%d Hz)", filepath.Base(path), cfg.ClockHz)

	if f.Headless {
		if err := runHeadless(m, f); err != nil {
			log.Fatal(err)
		}
		return
	}

	switch f.Frontend {
	case "term":
		err = runTerminal(m, f)
	default:
		uiCfg := ui.Config{
			Title:       f.Title,
			Scale:       f.Scale,
			Palette:     f.Palette,
			Muted:       f.Mute,
			ProgramsDir: filepath.Dir(path),
			StateDir:    filepath.Dir(path),
		}
		var app *ui.App
		app, err = ui.NewApp(uiCfg, m)
		if err != nil {
			log.Fatalf("init window: %v", err)
		}
		err = app.Run()
	}
	if err != nil {
		log.Fatal(err)
	}
}

func runTerminal(m *emu.Machine, f CLIFlags) error {
	host := term.New(term.Config{Muted: f.Mute}, os.Stdin, os.Stdout)
	if !f.Mute {
		gate, err := term.NewOtoGate(48000)
		if err != nil {
			return err
		}
		defer gate.Close()
		m.SetBuzzer(gate)
	}
	if err := host.Start(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err := m.Run(ctx, host)
	host.Stop()
	return err
}
