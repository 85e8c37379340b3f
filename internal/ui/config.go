package ui

import "image/color"

// Config contains window/input/audio related settings.
type Config struct {
	Title       string // window title
	Scale       int    // integer upscaling factor
	Palette     string // "mono", "amber", "green" or "lcd"
	Muted       bool   // start with the buzzer muted
	SampleRate  int    // audio sample rate in Hz
	ProgramsDir string // directory to browse for programs
	StateDir    string // where save-state slots are written
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "chip8"
	}
	if c.Scale <= 0 {
		c.Scale = 10
	}
	if _, ok := palettes[c.Palette]; !ok {
		c.Palette = "mono"
	}
	if c.SampleRate <= 0 {
		c.SampleRate = 48000
	}
	if c.ProgramsDir == "" {
		c.ProgramsDir = "roms"
	}
	if c.StateDir == "" {
		c.StateDir = "."
	}
}

type palette struct{ on, off color.RGBA }

var paletteNames = []string{"mono", "amber", "green", "lcd"}

var palettes = map[string]palette{
	"mono":  {on: color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}, off: color.RGBA{0x00, 0x00, 0x00, 0xFF}},
	"amber": {on: color.RGBA{0xFF, 0xB0, 0x00, 0xFF}, off: color.RGBA{0x1A, 0x10, 0x00, 0xFF}},
	"green": {on: color.RGBA{0x33, 0xFF, 0x66, 0xFF}, off: color.RGBA{0x00, 0x1A, 0x08, 0xFF}},
	"lcd":   {on: color.RGBA{0x0F, 0x38, 0x0F, 0xFF}, off: color.RGBA{0x9B, 0xBC, 0x0F, 0xFF}},
}
