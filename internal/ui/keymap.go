package ui

import (
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/keypad"
	"github.com/hajimehoshi/ebiten/v2"
)

// Keymap lays the hex keypad over the left side of a QWERTY keyboard:
//
//	1 2 3 C      1 2 3 4
//	4 5 6 D  ->  Q W E R
//	7 8 9 E      A S D F
//	A 0 B F      Z X C V
var Keymap = keypad.Map[ebiten.Key]{
	ebiten.KeyX,      // 0
	ebiten.KeyDigit1, // 1
	ebiten.KeyDigit2, // 2
	ebiten.KeyDigit3, // 3
	ebiten.KeyQ,      // 4
	ebiten.KeyW,      // 5
	ebiten.KeyE,      // 6
	ebiten.KeyA,      // 7
	ebiten.KeyS,      // 8
	ebiten.KeyD,      // 9
	ebiten.KeyZ,      // A
	ebiten.KeyC,      // B
	ebiten.KeyDigit4, // C
	ebiten.KeyR,      // D
	ebiten.KeyF,      // E
	ebiten.KeyV,      // F
}
