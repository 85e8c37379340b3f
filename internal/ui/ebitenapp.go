package ui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/emu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/keypad"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// App is the ebiten window frontend. ebiten owns the main goroutine; the
// machine runs on its own goroutine and the two meet only through the
// mutex-guarded key/frame snapshots and the action queue.
type App struct {
	cfg  Config
	m    *emu.Machine
	gate *audioGate

	mu      sync.Mutex
	frame   display.Frame
	dirty   bool
	keys    keypad.State
	closed  bool
	pending string // toast posted by the interpreter goroutine

	actions chan func(*emu.Machine)
	done    chan error

	tex *ebiten.Image
	pix []byte

	romPath string // UI-side copy; the machine's is owned by its goroutine

	paused bool

	// overlay/menu
	showMenu    bool
	menuMode    string
	menuIdx     int
	currentSlot int
	romList     []string
	romSel      int
	romOff      int
	keysOff     int
	curH        int
	toastMsg    string
	toastUntil  time.Time
}

// NewApp sizes the window and opens the audio device. The machine must
// already have a program loaded.
func NewApp(cfg Config, m *emu.Machine) (*App, error) {
	cfg.Defaults()
	gate, err := newAudioGate(cfg.SampleRate)
	if err != nil {
		return nil, err
	}
	gate.SetMuted(cfg.Muted)
	m.SetBuzzer(gate)

	a := &App{
		cfg:      cfg,
		m:        m,
		gate:     gate,
		actions:  make(chan func(*emu.Machine), 16),
		done:     make(chan error, 1),
		menuMode: "main",
		romPath:  m.ROMPath(),
	}
	ebiten.SetWindowTitle(a.title())
	a.applyWindowSize()
	return a, nil
}

func (a *App) title() string {
	if p := a.romPath; p != "" {
		return a.cfg.Title + " - [" + filepath.Base(p) + "]"
	}
	return a.cfg.Title
}

func (a *App) screenSize() (int, int) {
	return display.Width * a.cfg.Scale, display.Height * a.cfg.Scale
}

func (a *App) applyWindowSize() {
	w, h := a.screenSize()
	ebiten.SetWindowSize(w, h)
	a.curH = h
	a.tex = nil
}

// Run starts the interpreter goroutine and blocks in the ebiten event loop
// until the window closes or the program faults.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	go func() { a.done <- a.m.Run(ctx, a) }()

	err := ebiten.RunGame(a)
	cancel()
	a.markClosed()
	runErr := <-a.done
	_ = a.gate.Close()
	if errors.Is(err, ebiten.Termination) {
		err = nil
	}
	if runErr != nil {
		return runErr
	}
	return err
}

func (a *App) markClosed() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
}

// Open implements emu.Frontend.
func (a *App) Open() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.closed
}

// Keys implements emu.Frontend.
func (a *App) Keys() keypad.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.keys
}

// Present implements emu.Frontend.
func (a *App) Present(f display.Frame) {
	a.mu.Lock()
	a.frame = f
	a.dirty = true
	a.mu.Unlock()
}

// Poll implements emu.Frontend. Events are pumped by ebiten itself.
func (a *App) Poll() {}

// Actions implements emu.Controller.
func (a *App) Actions() <-chan func(*emu.Machine) { return a.actions }

// do queues fn for the interpreter goroutine. Drops the request if the queue
// is full rather than stalling the UI and reports whether it was queued.
func (a *App) do(fn func(*emu.Machine)) bool {
	select {
	case a.actions <- fn:
		return true
	default:
		a.toast("Busy, try again")
		return false
	}
}

func (a *App) toast(msg string) {
	a.toastMsg = msg
	a.toastUntil = time.Now().Add(2 * time.Second)
}

func (a *App) Update() error {
	// the interpreter stopped on its own: fault or quit
	select {
	case err := <-a.done:
		a.done <- err
		if err != nil {
			return err
		}
		return ebiten.Termination
	default:
	}

	a.mu.Lock()
	if a.pending != "" {
		a.toast(a.pending)
		a.pending = ""
	}
	a.mu.Unlock()

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) && !a.showMenu {
		a.markClosed()
		return ebiten.Termination
	}

	// Keyboard → hex keypad; the menu swallows input while open
	var keys keypad.State
	if !a.showMenu {
		keys = Keymap.State(ebiten.IsKeyPressed)
	}
	a.mu.Lock()
	a.keys = keys
	a.mu.Unlock()

	// Pause toggle (P)
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.setPaused(!a.paused)
	}
	// Single step when paused (N)
	if a.paused && inpututil.IsKeyJustPressed(ebiten.KeyN) {
		a.do(func(m *emu.Machine) {
			if _, err := m.Step(); err != nil {
				log.Printf("step: %v", err)
			}
		})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF2) {
		a.do(func(m *emu.Machine) { m.Reset() })
		a.toast("Reset")
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		a.saveSlot(a.currentSlot)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
		a.loadSlot(a.currentSlot)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		if err := a.saveScreenshot(); err != nil {
			a.toast("Screenshot failed: " + err.Error())
		}
	}

	// Toggle menu (M)
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		a.showMenu = !a.showMenu
		a.menuMode = "main"
		a.menuIdx = 0
	}
	if a.showMenu {
		switch a.menuMode {
		case "slot":
			a.updateSlotMenu()
		case "rom":
			a.updateRomMenu()
		case "settings":
			a.updateSettingsMenu()
		case "keys":
			a.updateKeysMenu()
		default:
			a.updateMainMenu()
		}
	}
	return nil
}

func (a *App) setPaused(p bool) {
	if !a.do(func(m *emu.Machine) { m.SetPaused(p) }) {
		return
	}
	a.paused = p
	if p {
		a.toast("Paused")
	}
}

func (a *App) statePath(slot int) string {
	name := "chip8"
	if p := a.romPath; p != "" {
		name = filepath.Base(p)
	}
	return filepath.Join(a.cfg.StateDir, fmt.Sprintf("%s.slot%d.state", name, slot+1))
}

func (a *App) saveSlot(slot int) {
	path := a.statePath(slot)
	a.do(func(m *emu.Machine) {
		if err := m.SaveStateToFile(path); err != nil {
			log.Printf("save state: %v", err)
		}
	})
	a.toast(fmt.Sprintf("Saved slot %d", slot+1))
}

func (a *App) loadSlot(slot int) {
	path := a.statePath(slot)
	if _, err := os.Stat(path); err != nil {
		a.toast("Slot is empty")
		return
	}
	a.do(func(m *emu.Machine) {
		if err := m.LoadStateFromFile(path); err != nil {
			log.Printf("load state: %v", err)
		}
	})
	a.toast(fmt.Sprintf("Loaded slot %d", slot+1))
}

func (a *App) Draw(screen *ebiten.Image) {
	w, h := a.screenSize()
	a.mu.Lock()
	if a.tex == nil {
		a.tex = ebiten.NewImage(w, h)
		a.pix = make([]byte, w*h*4)
		a.dirty = true
	}
	if a.dirty {
		pal := palettes[a.cfg.Palette]
		display.RenderRGBA(a.pix, &a.frame, a.cfg.Scale, pal.on, pal.off)
		a.dirty = false
	}
	a.mu.Unlock()
	a.tex.WritePixels(a.pix)
	screen.DrawImage(a.tex, nil)

	if a.showMenu {
		overlay := ebiten.NewImage(w, h)
		overlay.Fill(color.RGBA{0, 0, 0, 192})
		screen.DrawImage(overlay, nil)
		switch a.menuMode {
		case "slot":
			a.drawSlotMenu(screen)
		case "rom":
			a.drawRomMenu(screen)
		case "settings":
			a.drawSettingsMenu(screen)
		case "keys":
			a.drawKeysMenu(screen)
		default:
			a.drawMainMenu(screen)
		}
	}
	if a.paused && !a.showMenu {
		ebitenutil.DebugPrintAt(screen, "PAUSED (P resume, N step)", 4, 4)
	}
	if a.toastMsg != "" && time.Now().Before(a.toastUntil) {
		ebitenutil.DebugPrintAt(screen, a.truncateText(a.toastMsg, a.maxCharsForText(4)), 4, h-16)
	}
}

func (a *App) Layout(outW, outH int) (int, int) { return a.screenSize() }

func (a *App) saveScreenshot() error {
	a.mu.Lock()
	f := a.frame
	a.mu.Unlock()
	w, h := a.screenSize()
	img := &image.RGBA{
		Pix:    make([]byte, w*h*4),
		Stride: 4 * w,
		Rect:   image.Rect(0, 0, w, h),
	}
	pal := palettes[a.cfg.Palette]
	display.RenderRGBA(img.Pix, &f, a.cfg.Scale, pal.on, pal.off)
	ts := time.Now().Format("20060102_150405")
	name := fmt.Sprintf("screenshot_%s.png", ts)
	out, err := os.Create(name)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := png.Encode(out, img); err != nil {
		return err
	}
	a.toast("Wrote " + name)
	return nil
}
