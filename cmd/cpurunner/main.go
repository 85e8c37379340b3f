package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/bus"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/term"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/timer"
)

type traceEntry struct {
	pc, op uint16
	v      [16]byte
	i      uint16
	sp     int
}

func (te traceEntry) String() string {
	return fmt.Sprintf("PC=%04X OP=%04X I=%04X SP=%d V=% X", te.pc, te.op, te.i, te.sp, te.v[:])
}

type outcome int

const (
	outSteps   outcome = iota // step budget used up
	outHalted                 // program jumped to itself
	outFault                  // fatal interpreter error
	outTimeout                // wall-clock timeout
)

type runner struct {
	bus    *bus.Bus
	disp   *display.Display
	timers timer.Timers
	cpu    *cpu.CPU

	trace io.Writer // nil disables per-step trace
	ring  []traceEntry
	idx   int
	fill  int
}

func newRunner(prog []byte, seed int64, window int) (*runner, error) {
	r := &runner{bus: bus.New(), disp: display.New()}
	if err := r.bus.LoadProgram(prog); err != nil {
		return nil, err
	}
	r.cpu = cpu.New(r.bus, r.disp, &r.timers, cpu.Config{Seed: seed})
	if window > 0 {
		r.ring = make([]traceEntry, window)
	}
	return r, nil
}

// halted reports a "JP self" loop, the usual way test programs stop.
func (r *runner) halted() bool {
	op := r.cpu.PeekOpcode()
	return r.cpu.Mode == cpu.Running && op&0xF000 == 0x1000 && op&0x0FFF == r.cpu.PC
}

func (r *runner) record(te traceEntry) {
	if r.trace != nil {
		fmt.Fprintln(r.trace, te)
	}
	if len(r.ring) == 0 {
		return
	}
	r.ring[r.idx] = te
	r.idx = (r.idx + 1) % len(r.ring)
	if r.fill < len(r.ring) {
		r.fill++
	}
}

// recent returns the trace window in chronological order.
func (r *runner) recent() []traceEntry {
	out := make([]traceEntry, 0, r.fill)
	start := (r.idx - r.fill + len(r.ring)) % max(len(r.ring), 1)
	for j := 0; j < r.fill; j++ {
		out = append(out, r.ring[(start+j)%len(r.ring)])
	}
	return out
}

// run executes up to steps instructions with a 60 Hz tick every ticksEvery
// steps. It returns how many ran and why it stopped.
func (r *runner) run(steps, ticksEvery int, deadline time.Time) (int, outcome, error) {
	for i := 0; i < steps; i++ {
		if r.halted() {
			return i, outHalted, nil
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return i, outTimeout, nil
		}
		if r.trace != nil || len(r.ring) > 0 {
			r.record(traceEntry{pc: r.cpu.PC, op: r.cpu.PeekOpcode(), v: r.cpu.V, i: r.cpu.I, sp: len(r.cpu.Stack)})
		}
		waiting := r.cpu.Mode == cpu.WaitingForKey
		if _, err := r.cpu.Step(); err != nil {
			return i, outFault, err
		}
		// timers hold while waiting for a key, as in emu.Machine
		if ticksEvery > 0 && (i+1)%ticksEvery == 0 && !waiting {
			r.timers.Tick()
		}
	}
	return steps, outSteps, nil
}

func main() {
	romPath := flag.String("rom", "", "path to program (.ch8)")
	steps := flag.Int("steps", 1_000_000, "max instructions to run")
	hz := flag.Int("hz", 700, "emulated instructions per second (for timer ticks)")
	seed := flag.Int64("seed", 1, "RNG seed for CXNN")
	trace := flag.Bool("trace", false, "print PC/opcode/registers per step")
	timeout := flag.Duration("timeout", 0, "optional wall-clock timeout (e.g. 30s, 2m); 0 disables")
	traceWindow := flag.Int("traceWindow", 32, "number of recent instructions to print on a fault")
	screen := flag.Bool("screen", true, "print the display when the run ends")
	flag.Parse()

	if *romPath == "" {
		log.Fatal("-rom is required")
	}
	prog, err := os.ReadFile(*romPath)
	if err != nil {
		log.Fatalf("read program: %v", err)
	}
	r, err := newRunner(prog, *seed, *traceWindow)
	if err != nil {
		log.Fatalf("load program: %v", err)
	}
	if *trace {
		r.trace = os.Stdout
	}

	start := time.Now()
	var deadline time.Time
	if *timeout > 0 {
		deadline = start.Add(*timeout)
	}
	ticksEvery := 0
	if *hz > 0 {
		ticksEvery = max(*hz/timer.Rate, 1)
	}
	n, out, err := r.run(*steps, ticksEvery, deadline)

	if *screen {
		f := r.disp.Frame()
		fmt.Print(term.Render(&f))
	}
	code := 0
	switch out {
	case outHalted:
		fmt.Printf("\nHalted at PC=%04X.\n", r.cpu.PC)
	case outFault:
		fmt.Printf("\n%v\n", err)
		if w := r.recent(); len(w) > 0 {
			fmt.Printf("\n--- recent trace (last %d instructions) ---\n", len(w))
			for _, te := range w {
				fmt.Println(te)
			}
			fmt.Printf("--- end trace ---\n")
		}
		code = 1
	case outTimeout:
		fmt.Printf("\nTimeout after %s.\n", time.Since(start).Truncate(time.Millisecond))
		code = 2
	}
	fmt.Printf("\nDone: steps=%d elapsed=%s\n", n, time.Since(start).Truncate(time.Millisecond))
	os.Exit(code)
}
