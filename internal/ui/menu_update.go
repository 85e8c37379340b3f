package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/emu"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

func back() bool {
	return inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyBackspace)
}

func (a *App) updateMainMenu() {
	max := 7
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && a.menuIdx > 0 {
		a.menuIdx--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && a.menuIdx < max {
		a.menuIdx++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		switch a.menuIdx {
		case 0:
			a.saveSlot(a.currentSlot)
		case 1:
			a.loadSlot(a.currentSlot)
		case 2:
			a.menuMode = "slot"
			a.menuIdx = a.currentSlot
		case 3:
			a.romList = a.findROMs()
			a.romSel = 0
			a.romOff = 0
			a.menuMode = "rom"
		case 4:
			a.do(func(m *emu.Machine) { m.Reset() })
			a.toast("Reset")
			a.showMenu = false
		case 5:
			a.menuMode = "settings"
			a.menuIdx = 0
		case 6:
			a.menuMode = "keys"
			a.keysOff = 0
		case 7:
			a.showMenu = false
		}
	}
	if back() {
		a.showMenu = false
	}
}

func (a *App) updateSlotMenu() {
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && a.menuIdx > 0 {
		a.menuIdx--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && a.menuIdx < 3 {
		a.menuIdx++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		a.currentSlot = a.menuIdx
		a.toast(fmt.Sprintf("Slot set to %d", a.currentSlot+1))
		a.menuMode = "main"
		a.menuIdx = 2
	}
	if back() {
		a.menuMode = "main"
		a.menuIdx = 2
	}
}

// findROMs lists CHIP-8 programs under the configured directory.
func (a *App) findROMs() []string {
	var out []string
	_ = filepath.WalkDir(a.cfg.ProgramsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(d.Name())) {
		case ".ch8", ".c8", ".rom":
			out = append(out, path)
		}
		return nil
	})
	sort.Strings(out)
	return out
}

func (a *App) updateRomMenu() {
	n := len(a.romList)
	if n == 0 {
		if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || back() {
			a.menuMode = "main"
		}
		return
	}
	// keep the selection inside the visible window
	baseY := 40
	maxRows := (a.curH - baseY) / 14
	if maxRows < 1 {
		maxRows = 1
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && a.romSel > 0 {
		a.romSel--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && a.romSel < n-1 {
		a.romSel++
	}
	if a.romSel < a.romOff {
		a.romOff = a.romSel
	}
	if a.romSel >= a.romOff+maxRows {
		a.romOff = a.romSel - maxRows + 1
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		path := a.romList[a.romSel]
		a.do(func(m *emu.Machine) {
			if err := m.LoadROMFromFile(path); err != nil {
				a.post("ROM load failed: " + err.Error())
				return
			}
			a.post("Loaded ROM: " + filepath.Base(path))
		})
		a.romPath = path
		ebiten.SetWindowTitle(a.title())
		a.menuMode = "main"
		a.showMenu = false
	}
	if back() {
		a.menuMode = "main"
	}
}

// post shows a toast from the interpreter goroutine.
func (a *App) post(msg string) {
	a.mu.Lock()
	a.pending = msg
	a.mu.Unlock()
}

func (a *App) updateKeysMenu() {
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && a.keysOff > 0 {
		a.keysOff--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) {
		a.keysOff++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || back() {
		a.menuMode = "main"
		a.menuIdx = 6
	}
}

func (a *App) updateSettingsMenu() {
	// Items order:
	// 0 Scale
	// 1 Palette
	// 2 Sound
	const items = 3
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && a.menuIdx > 0 {
		a.menuIdx--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && a.menuIdx < items-1 {
		a.menuIdx++
	}
	left := inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft)
	right := inpututil.IsKeyJustPressed(ebiten.KeyArrowRight) || inpututil.IsKeyJustPressed(ebiten.KeyEnter)
	switch a.menuIdx {
	case 0: // Scale
		if left && a.cfg.Scale > 1 {
			a.cfg.Scale--
			a.applyWindowSize()
		}
		if right && a.cfg.Scale < 20 {
			a.cfg.Scale++
			a.applyWindowSize()
		}
	case 1: // Palette cycle
		if left || right {
			idx := 0
			for i, p := range paletteNames {
				if p == a.cfg.Palette {
					idx = i
					break
				}
			}
			if left {
				idx = (idx - 1 + len(paletteNames)) % len(paletteNames)
			} else {
				idx = (idx + 1) % len(paletteNames)
			}
			a.cfg.Palette = paletteNames[idx]
			a.mu.Lock()
			a.dirty = true
			a.mu.Unlock()
		}
	case 2: // Sound
		if left || right {
			a.cfg.Muted = !a.cfg.Muted
			a.gate.SetMuted(a.cfg.Muted)
		}
	}
	if back() {
		a.menuMode = "main"
		a.menuIdx = 5
	}
}
