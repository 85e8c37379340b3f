package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/cpu"
)

func program(words ...uint16) []byte {
	b := make([]byte, 0, len(words)*2)
	for _, w := range words {
		b = append(b, byte(w>>8), byte(w))
	}
	return b
}

func TestRunner_StopsOnSelfJump(t *testing.T) {
	r, err := newRunner(program(0x6001, 0x7002, 0x1204), 1, 0)
	if err != nil {
		t.Fatalf("newRunner: %v", err)
	}
	n, out, err := r.run(100, 0, time.Time{})
	if err != nil || out != outHalted || n != 2 {
		t.Fatalf("got n=%d out=%d err=%v", n, out, err)
	}
	if r.cpu.V[0] != 3 {
		t.Fatalf("V0 got %d want 3", r.cpu.V[0])
	}
}

func TestRunner_FaultKeepsTraceWindow(t *testing.T) {
	r, err := newRunner(program(0x6001, 0x6102, 0x6203, 0x00EE), 1, 2)
	if err != nil {
		t.Fatalf("newRunner: %v", err)
	}
	var buf bytes.Buffer
	r.trace = &buf
	_, out, err := r.run(100, 0, time.Time{})
	if out != outFault || !errors.Is(err, cpu.ErrStackUnderflow) {
		t.Fatalf("got out=%d err=%v", out, err)
	}
	w := r.recent()
	if len(w) != 2 || w[0].op != 0x6203 || w[1].op != 0x00EE {
		t.Fatalf("window got %v", w)
	}
	if got := strings.Count(buf.String(), "\n"); got != 4 {
		t.Fatalf("trace lines got %d want 4", got)
	}
}

func TestRunner_TicksTimers(t *testing.T) {
	// LD V0,10; LD DT,V0; then bounce between 0x204 and 0x206
	r, err := newRunner(program(0x600A, 0xF015, 0x1206, 0x1204), 1, 0)
	if err != nil {
		t.Fatalf("newRunner: %v", err)
	}
	_, out, _ := r.run(40, 10, time.Time{})
	if out != outSteps {
		t.Fatalf("out got %d want steps", out)
	}
	if got := r.timers.Delay; got != 6 {
		t.Fatalf("delay got %d want 6", got)
	}
}

func TestRunner_TimersHoldDuringKeyWait(t *testing.T) {
	r, err := newRunner(program(0xF00A), 1, 0)
	if err != nil {
		t.Fatalf("newRunner: %v", err)
	}
	r.timers.Delay = 5
	_, out, err := r.run(10, 1, time.Time{})
	if err != nil || out != outSteps {
		t.Fatalf("got out=%d err=%v", out, err)
	}
	if r.cpu.Mode != cpu.WaitingForKey {
		t.Fatalf("cpu should still be waiting for a key")
	}
	// only the FX0A cycle itself ticks
	if got := r.timers.Delay; got != 4 {
		t.Fatalf("delay got %d want 4", got)
	}
}
