package emu

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/bus"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/buzzer"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/keypad"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/timer"
)

// Frontend is the window/terminal side of the machine. Run calls it from the
// interpreter goroutine; implementations that render elsewhere must copy.
type Frontend interface {
	Open() bool              // false once the user closed the window or quit
	Keys() keypad.State      // current logical key state
	Present(f display.Frame) // redraw with a new frame
	Poll()                   // service events without redrawing
}

// Controller is an optional Frontend extension for frontends that need to
// change machine state (save states, reset, pause). Run applies queued
// actions between cycles on the interpreter goroutine.
type Controller interface {
	Actions() <-chan func(*Machine)
}

// Machine owns every piece of VM state. Only one goroutine may drive it.
type Machine struct {
	cfg     Config
	bus     *bus.Bus
	cpu     *cpu.CPU
	disp    *display.Display
	timers  timer.Timers
	clock   *timer.Clock
	keys    keypad.State
	buzz    buzzer.Edge
	program []byte
	romPath string
	cycles  uint64
	paused  bool
}

func New(cfg Config) *Machine {
	cfg.Defaults()
	m := &Machine{
		cfg:  cfg,
		bus:  bus.New(),
		disp: display.New(),
	}
	m.cpu = cpu.New(m.bus, m.disp, &m.timers, cpu.Config{Seed: cfg.Seed, MaxStackDepth: cfg.MaxStackDepth})
	m.cpu.SetKeypad(&m.keys)
	m.clock = timer.NewClock(time.Second/timer.Rate, cfg.TimerBacklog)
	m.buzz.G = buzzer.Nop{}
	return m
}

// LoadProgram installs prog at 0x200 and resets the machine.
func (m *Machine) LoadProgram(prog []byte) error {
	m.bus.Reset()
	if err := m.bus.LoadProgram(prog); err != nil {
		return err
	}
	m.program = append(m.program[:0], prog...)
	m.resetState()
	return nil
}

// LoadROMFromFile replaces the current program with one from disk.
func (m *Machine) LoadROMFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := m.LoadProgram(data); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	m.romPath = path
	return nil
}

// ROMPath returns the currently loaded program file path, if any.
func (m *Machine) ROMPath() string { return m.romPath }

// Reset reloads the current program and restarts execution at 0x200.
func (m *Machine) Reset() {
	m.bus.Reset()
	if len(m.program) > 0 {
		_ = m.bus.LoadProgram(m.program)
	}
	m.resetState()
}

func (m *Machine) resetState() {
	m.cpu.Reset()
	m.disp.Clear()
	m.timers = timer.Timers{}
	m.cycles = 0
	m.buzz.Set(false)
}

// SetKeys replaces the key snapshot the CPU sees on the next Step.
func (m *Machine) SetKeys(s keypad.State) { m.keys = s }

// SetBuzzer connects the audio gate. nil disconnects it.
func (m *Machine) SetBuzzer(g buzzer.Gate) {
	if g == nil {
		g = buzzer.Nop{}
	}
	m.buzz = buzzer.Edge{G: g}
	m.buzz.Set(false)
}

func (m *Machine) CPU() *cpu.CPU              { return m.cpu }
func (m *Machine) Bus() *bus.Bus              { return m.bus }
func (m *Machine) Display() *display.Display  { return m.disp }
func (m *Machine) Frame() display.Frame       { return m.disp.Frame() }
func (m *Machine) Timers() timer.Timers       { return m.timers }
func (m *Machine) Clock() *timer.Clock        { return m.clock }
func (m *Machine) Cycles() uint64             { return m.cycles }
func (m *Machine) BuzzerPlaying() bool        { return m.buzz.Playing() }
func (m *Machine) Fault() error               { return m.cpu.Fault() }
func (m *Machine) Waiting() bool              { return m.cpu.Mode == cpu.WaitingForKey }
func (m *Machine) SetTimers(t timer.Timers)   { m.timers = t }
func (m *Machine) Config() Config             { return m.cfg }
func (m *Machine) Paused() bool               { return m.paused }

// SetPaused stops Run from stepping. The frontend keeps being serviced and
// the buzzer is silenced. Ticks queued while paused are dropped on resume.
func (m *Machine) SetPaused(p bool) {
	if m.paused && !p {
		m.dropTicks()
	}
	m.paused = p
	if p {
		m.buzz.Set(false)
	}
}

func (m *Machine) dropTicks() {
	for m.clock.Poll() {
	}
}

// Step runs one interpreter cycle: one instruction (or one key scan while
// waiting), then at most the configured number of pending timer ticks, then
// the buzzer gate. Waiting cycles leave timers and buzzer alone unless
// TimersDuringKeyWait is set.
func (m *Machine) Step() (cpu.Effect, error) {
	if m.cfg.Trace && m.cpu.Mode == cpu.Running {
		m.cfg.Logger.Printf("%04X: %04X", m.cpu.PC, m.cpu.PeekOpcode())
	}
	eff, err := m.cpu.Step()
	if err != nil {
		m.buzz.Set(false)
		return eff, err
	}
	m.cycles++
	if eff&cpu.EffectWaiting != 0 && !m.cfg.TimersDuringKeyWait {
		return eff, nil
	}
	timer.Apply(&m.timers, m.clock, m.cfg.TimerPolicy)
	threshold := byte(buzzer.DefaultThreshold)
	if m.cfg.EagerBuzzer {
		threshold = 0
	}
	m.buzz.Set(buzzer.Audible(m.timers.Sound, threshold))
	return eff, nil
}

// Run drives the machine at the configured clock rate until ctx is done,
// the frontend closes, or the program faults. The 60 Hz timer clock runs on
// its own goroutine for the duration of the call.
func (m *Machine) Run(ctx context.Context, fe Frontend) error {
	m.clock = timer.NewClock(time.Second/timer.Rate, m.cfg.TimerBacklog)
	m.clock.Start()
	defer m.clock.Stop()
	defer m.buzz.Set(false)

	var actions <-chan func(*Machine)
	if c, ok := fe.(Controller); ok {
		actions = c.Actions()
	}

	period := time.Second / time.Duration(m.cfg.ClockHz)
	fe.Present(m.disp.Frame())
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if !fe.Open() {
			return nil
		}
		start := time.Now()
		m.keys = fe.Keys()
		if m.applyActions(actions) {
			fe.Present(m.disp.Frame())
		}
		if m.paused {
			m.dropTicks()
			fe.Poll()
			time.Sleep(period)
			continue
		}
		eff, err := m.Step()
		if err != nil {
			return err
		}
		if eff&cpu.EffectRedraw != 0 {
			fe.Present(m.disp.Frame())
		} else {
			fe.Poll()
		}
		if m.cfg.Unthrottled {
			continue
		}
		if d := period - time.Since(start); d > 0 {
			time.Sleep(d)
		}
	}
}

// applyActions runs every queued action and reports whether any ran.
func (m *Machine) applyActions(ch <-chan func(*Machine)) bool {
	ran := false
	for {
		select {
		case fn := <-ch:
			fn(m)
			ran = true
		default:
			return ran
		}
	}
}

type machineState struct {
	Memory  []byte
	CPU     cpu.State
	Display []byte
	Timers  timer.Timers
	Cycles  uint64
}

// SaveState snapshots the whole VM.
func (m *Machine) SaveState() []byte {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	_ = enc.Encode(machineState{
		Memory:  m.bus.SaveState(),
		CPU:     m.cpu.SaveState(),
		Display: m.disp.SaveState(),
		Timers:  m.timers,
		Cycles:  m.cycles,
	})
	return buf.Bytes()
}

func (m *Machine) LoadState(data []byte) error {
	var s machineState
	dec := gob.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&s); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	if len(s.Memory) != bus.MemorySize {
		return fmt.Errorf("decode state: memory image is %d bytes, want %d", len(s.Memory), bus.MemorySize)
	}
	m.bus.LoadState(s.Memory)
	m.cpu.LoadState(s.CPU)
	m.disp.LoadState(s.Display)
	m.timers = s.Timers
	m.cycles = s.Cycles
	return nil
}

func (m *Machine) SaveStateToFile(path string) error {
	return os.WriteFile(path, m.SaveState(), 0644)
}

func (m *Machine) LoadStateFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return m.LoadState(data)
}
