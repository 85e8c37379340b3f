package display

import "image/color"

const (
	Width  = 64
	Height = 32
)

// Frame is an immutable copy of the pixel grid, row-major.
type Frame [Width * Height]bool

// Pixel reports whether (x, y) is lit. Coordinates outside the grid are off.
func (f *Frame) Pixel(x, y int) bool {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return false
	}
	return f[y*Width+x]
}

// Display is the logical 64x32 monochrome grid. Drawing XORs sprites onto it.
type Display struct {
	px Frame
}

func New() *Display { return &Display{} }

// Clear turns every pixel off.
func (d *Display) Clear() { d.px = Frame{} }

// Pixel reports whether (x, y) is lit.
func (d *Display) Pixel(x, y int) bool { return d.px.Pixel(x, y) }

// Frame returns a copy of the grid, safe to hand to another goroutine.
func (d *Display) Frame() Frame { return d.px }

// flip toggles the pixel and reports whether it was lit before.
// Pixels outside the grid are dropped.
func (d *Display) flip(x, y int) bool {
	if x >= Width || y >= Height {
		return false
	}
	i := y*Width + x
	was := d.px[i]
	d.px[i] = !was
	return was
}

// DrawSprite XORs sprite rows onto the grid with the origin wrapped into the
// grid. Each byte is one row, most significant bit leftmost. Pixels running
// past the right or bottom edge are clipped, not wrapped. Returns true if any
// lit pixel was turned off.
func (d *Display) DrawSprite(x0, y0 byte, sprite []byte) bool {
	ox := int(x0) % Width
	oy := int(y0) % Height
	collision := false
	for r, row := range sprite {
		for c := 0; c < 8; c++ {
			if row&(0x80>>c) == 0 {
				continue
			}
			if d.flip(ox+c, oy+r) {
				collision = true
			}
		}
	}
	return collision
}

// SaveState packs the grid one bit per pixel.
func (d *Display) SaveState() []byte {
	out := make([]byte, len(d.px)/8)
	for i, on := range d.px {
		if on {
			out[i/8] |= 0x80 >> (i % 8)
		}
	}
	return out
}

func (d *Display) LoadState(data []byte) {
	for i := range d.px {
		if i/8 >= len(data) {
			d.px[i] = false
			continue
		}
		d.px[i] = data[i/8]&(0x80>>(i%8)) != 0
	}
}

// RenderRGBA writes the frame into dst as RGBA pixels, each logical pixel
// becoming a scale x scale block. dst must hold Width*scale*Height*scale*4 bytes.
func RenderRGBA(dst []byte, f *Frame, scale int, on, off color.RGBA) {
	if scale < 1 {
		scale = 1
	}
	stride := Width * scale * 4
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			c := off
			if f[y*Width+x] {
				c = on
			}
			for sy := 0; sy < scale; sy++ {
				base := (y*scale+sy)*stride + x*scale*4
				for sx := 0; sx < scale; sx++ {
					i := base + sx*4
					dst[i+0] = c.R
					dst[i+1] = c.G
					dst[i+2] = c.B
					dst[i+3] = c.A
				}
			}
		}
	}
}
