// Package term is a text-mode frontend: the display is drawn with half-block
// characters on a raw-mode terminal and the buzzer plays through oto.
package term

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/keypad"
	"golang.org/x/term"
)

// Keymap is the same QWERTY layout the window frontend uses.
var Keymap = keypad.Map[rune]{'x', '1', '2', '3', 'q', 'w', 'e', 'a', 's', 'd', 'z', 'c', '4', 'r', 'f', 'v'}

var ErrTooSmall = errors.New("terminal too small")

// Config contains terminal frontend settings.
type Config struct {
	// Terminals only report key presses, so a key counts as held for
	// HoldTime after its last press or auto-repeat.
	HoldTime   time.Duration
	SampleRate int
	Muted      bool
}

func (c *Config) Defaults() {
	if c.HoldTime <= 0 {
		c.HoldTime = 150 * time.Millisecond
	}
	if c.SampleRate <= 0 {
		c.SampleRate = 48000
	}
}

const (
	// rows of text needed: two pixel rows per line plus a status line
	minCols = display.Width
	minRows = display.Height/2 + 1
)

// Host implements emu.Frontend on a terminal.
type Host struct {
	cfg Config
	in  *os.File
	out *bufio.Writer

	fd       int
	oldState *term.State

	mu      sync.Mutex
	pressed [keypad.NumKeys]time.Time
	closed  bool
	now     func() time.Time
}

func New(cfg Config, in *os.File, out io.Writer) *Host {
	cfg.Defaults()
	return &Host{
		cfg: cfg,
		in:  in,
		out: bufio.NewWriter(out),
		fd:  int(in.Fd()),
		now: time.Now,
	}
}

// Start switches the terminal to raw mode and begins reading keys.
func (h *Host) Start() error {
	if !term.IsTerminal(h.fd) {
		return fmt.Errorf("stdin is not a terminal")
	}
	if w, rows, err := term.GetSize(h.fd); err == nil && (w < minCols || rows < minRows) {
		return fmt.Errorf("%w: %dx%d, need %dx%d", ErrTooSmall, w, rows, minCols, minRows)
	}
	st, err := term.MakeRaw(h.fd)
	if err != nil {
		return fmt.Errorf("raw mode: %w", err)
	}
	h.oldState = st
	// clear, hide cursor
	fmt.Fprint(h.out, "\x1b[2J\x1b[?25l")
	h.out.Flush()
	go h.readKeys()
	return nil
}

// Stop restores the terminal.
func (h *Host) Stop() {
	fmt.Fprint(h.out, "\x1b[?25h\x1b[0m\r\n")
	h.out.Flush()
	if h.oldState != nil {
		_ = term.Restore(h.fd, h.oldState)
		h.oldState = nil
	}
}

func (h *Host) readKeys() {
	buf := make([]byte, 16)
	for {
		n, err := h.in.Read(buf)
		if n > 0 {
			h.feed(buf[:n])
		}
		if err != nil {
			h.mu.Lock()
			h.closed = true
			h.mu.Unlock()
			return
		}
	}
}

// feed handles one chunk of raw input. A lone ESC or Ctrl-C quits; escape
// sequences (arrow keys) are ignored.
func (h *Host) feed(b []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(b) == 1 && b[0] == 0x1b {
		h.closed = true
		return
	}
	if len(b) > 0 && b[0] == 0x1b {
		return
	}
	now := h.now()
	for _, c := range b {
		if c == 0x03 {
			h.closed = true
			return
		}
		if k, ok := Keymap.Lookup(unicode.ToLower(rune(c))); ok {
			h.pressed[k] = now
		}
	}
}

// Open implements emu.Frontend.
func (h *Host) Open() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.closed
}

// Keys implements emu.Frontend.
func (h *Host) Keys() keypad.State {
	h.mu.Lock()
	defer h.mu.Unlock()
	var s keypad.State
	now := h.now()
	for i, t := range h.pressed {
		s[i] = !t.IsZero() && now.Sub(t) < h.cfg.HoldTime
	}
	return s
}

// Present implements emu.Frontend.
func (h *Host) Present(f display.Frame) {
	h.out.WriteString("\x1b[H")
	h.out.WriteString(Render(&f))
	h.out.Flush()
}

// Poll implements emu.Frontend.
func (h *Host) Poll() {}

// Render draws the frame as 16 lines of half blocks, each character cell
// covering two vertically stacked pixels. Lines end in CR LF for raw mode.
func Render(f *display.Frame) string {
	var sb strings.Builder
	for y := 0; y < display.Height; y += 2 {
		for x := 0; x < display.Width; x++ {
			top, bot := f.Pixel(x, y), f.Pixel(x, y+1)
			switch {
			case top && bot:
				sb.WriteRune('█')
			case top:
				sb.WriteRune('▀')
			case bot:
				sb.WriteRune('▄')
			default:
				sb.WriteByte(' ')
			}
		}
		sb.WriteString("\r\n")
	}
	return sb.String()
}
