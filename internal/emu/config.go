package emu

import (
	"io"
	"log"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/timer"
)

// Config contains settings that affect emulation behavior.
type Config struct {
	ClockHz       int   // instructions per second
	Seed          int64 // RNG seed for CXNN; 0 picks one from the clock
	MaxStackDepth int   // 0 = unbounded call stack
	Trace         bool  // log every executed instruction
	Unthrottled   bool  // skip the per-cycle sleep in Run

	TimerPolicy  timer.Policy // ticks applied per cycle
	TimerBacklog int          // max queued 60 Hz ticks

	// Quirk switches. The zero value keeps the historical behavior.
	TimersDuringKeyWait bool // count timers down while FX0A is waiting
	EagerBuzzer         bool // sound while the sound timer is above 0 rather than above 1

	Logger *log.Logger // trace output; defaults to the standard logger
}

const DefaultClockHz = 700

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.ClockHz <= 0 {
		c.ClockHz = DefaultClockHz
	}
	if c.TimerBacklog <= 0 {
		c.TimerBacklog = timer.DefaultBacklog
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
}

// Discard returns a logger that drops everything, handy for tests.
func Discard() *log.Logger { return log.New(io.Discard, "", 0) }
