package term

import (
	"strings"
	"testing"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
)

func TestRender_HalfBlocks(t *testing.T) {
	d := display.New()
	d.DrawSprite(0, 0, []byte{0xC0, 0x80}) // (0,0) (1,0) (0,1)
	d.DrawSprite(2, 1, []byte{0x80})       // (2,1)
	f := d.Frame()
	out := Render(&f)
	lines := strings.Split(out, "\r\n")
	if len(lines) != display.Height/2+1 || lines[len(lines)-1] != "" {
		t.Fatalf("got %d lines, want %d plus trailing", len(lines), display.Height/2)
	}
	first := []rune(lines[0])
	if len(first) != display.Width {
		t.Fatalf("line width got %d want %d", len(first), display.Width)
	}
	if first[0] != '█' || first[1] != '▀' || first[2] != '▄' || first[3] != ' ' {
		t.Fatalf("first cells got %q", string(first[:4]))
	}
}

func newTestHost(now *time.Time) *Host {
	h := &Host{cfg: Config{HoldTime: 100 * time.Millisecond}}
	h.now = func() time.Time { return *now }
	return h
}

func TestHost_KeyHoldWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	h := newTestHost(&now)
	h.feed([]byte("Qv"))
	s := h.Keys()
	if !s[0x4] || !s[0xF] {
		t.Fatalf("q and v should be held: %v", s)
	}
	now = now.Add(150 * time.Millisecond)
	if s := h.Keys(); s[0x4] {
		t.Fatalf("key should be released after hold time")
	}
}

func TestHost_QuitKeys(t *testing.T) {
	now := time.Unix(0, 0)
	h := newTestHost(&now)
	h.feed([]byte{0x1b, '[', 'A'}) // arrow key
	if !h.Open() {
		t.Fatalf("escape sequence should not quit")
	}
	h.feed([]byte{0x1b})
	if h.Open() {
		t.Fatalf("lone ESC should quit")
	}
	h2 := newTestHost(&now)
	h2.feed([]byte{'a', 0x03})
	if h2.Open() {
		t.Fatalf("Ctrl-C should quit")
	}
}
