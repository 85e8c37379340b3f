package cpu

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/bus"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/keypad"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/timer"
)

var (
	ErrInvalidOpcode     = errors.New("invalid opcode")
	ErrStackUnderflow    = errors.New("return with empty call stack")
	ErrStackOverflow     = errors.New("call stack depth exceeded")
	ErrAddressOutOfRange = bus.ErrAddressOutOfRange
	ErrInvalidKey        = errors.New("key index out of range")
)

// Fault is a fatal execution error. Once a CPU faults it stays faulted.
type Fault struct {
	PC     uint16 // address of the faulting instruction
	Opcode uint16
	Err    error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("fault at %#04x (opcode %04X): %v", f.PC, f.Opcode, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

// Mode is the interpreter state machine.
type Mode int

const (
	Running Mode = iota
	WaitingForKey
)

func (m Mode) String() string {
	switch m {
	case Running:
		return "running"
	case WaitingForKey:
		return "waiting-for-key"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Effect tells the caller what a Step did beyond mutating registers.
type Effect uint8

const (
	// EffectRedraw is set when the display changed (00E0, DXYN).
	EffectRedraw Effect = 1 << iota
	// EffectWaiting is set for cycles spent in WaitingForKey. No instruction ran.
	EffectWaiting
)

type Config struct {
	Seed          int64 // 0 seeds from the wall clock
	MaxStackDepth int   // 0 means unbounded
}

// CPU is the register file, call stack and fetch-decode-execute engine.
type CPU struct {
	V     [16]byte
	I     uint16
	PC    uint16
	Stack []uint16

	Mode    Mode
	WaitReg byte // destination register while in WaitingForKey

	bus    *bus.Bus
	disp   *display.Display
	timers *timer.Timers
	keys   keypad.Keypad
	rng    *rand.Rand
	cfg    Config
	fault  *Fault
}

// New wires the CPU to memory, display and timers. Keys read as all-up until
// SetKeypad is called.
func New(b *bus.Bus, d *display.Display, t *timer.Timers, cfg Config) *CPU {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	c := &CPU{
		bus:    b,
		disp:   d,
		timers: t,
		keys:   keypad.State{},
		rng:    rand.New(rand.NewSource(seed)),
		cfg:    cfg,
	}
	c.Reset()
	return c
}

// Reset puts registers back to power-on state. Memory is untouched.
func (c *CPU) Reset() {
	c.V = [16]byte{}
	c.I = 0
	c.PC = bus.ProgramStart
	c.Stack = c.Stack[:0]
	c.Mode = Running
	c.WaitReg = 0
	c.fault = nil
}

func (c *CPU) SetKeypad(k keypad.Keypad) {
	if k == nil {
		k = keypad.State{}
	}
	c.keys = k
}

// Bus exposes memory for tests and tools.
func (c *CPU) Bus() *bus.Bus { return c.bus }

// Fault returns the latched fault, or nil.
func (c *CPU) Fault() error {
	if c.fault == nil {
		return nil
	}
	return c.fault
}

func (c *CPU) fail(pc, op uint16, err error) error {
	c.fault = &Fault{PC: pc, Opcode: op, Err: err}
	return c.fault
}

// Step runs one interpreter cycle. In Running mode that is one instruction;
// in WaitingForKey it is one scan of the keypad.
func (c *CPU) Step() (Effect, error) {
	if c.fault != nil {
		return 0, c.fault
	}
	if c.Mode == WaitingForKey {
		if k, ok := keypad.Scan(c.keys); ok {
			c.V[c.WaitReg] = k
			c.Mode = Running
		}
		return EffectWaiting, nil
	}

	pc := c.PC
	if !c.bus.InRange(pc, 2) {
		return 0, c.fail(pc, 0, fmt.Errorf("%w: fetch at %#04x", ErrAddressOutOfRange, pc))
	}
	op := c.bus.Read16(pc)
	c.PC += 2
	eff, err := c.execute(op)
	if err != nil {
		return eff, c.fail(pc, op, err)
	}
	return eff, nil
}

// PeekOpcode returns the instruction at PC without executing it.
func (c *CPU) PeekOpcode() uint16 { return c.bus.Read16(c.PC) }

func (c *CPU) skipIf(cond bool) {
	if cond {
		c.PC += 2
	}
}

func (c *CPU) push(v uint16) error {
	if c.cfg.MaxStackDepth > 0 && len(c.Stack) >= c.cfg.MaxStackDepth {
		return ErrStackOverflow
	}
	c.Stack = append(c.Stack, v)
	return nil
}

func (c *CPU) pop() (uint16, error) {
	n := len(c.Stack)
	if n == 0 {
		return 0, ErrStackUnderflow
	}
	v := c.Stack[n-1]
	c.Stack = c.Stack[:n-1]
	return v, nil
}
