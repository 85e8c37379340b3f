package cpu

import (
	"fmt"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/bus"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/keypad"
)

func (c *CPU) execute(op uint16) (Effect, error) {
	x := byte(op>>8) & 0x0F
	y := byte(op>>4) & 0x0F
	n := byte(op) & 0x0F
	nn := byte(op)
	nnn := op & 0x0FFF

	switch op >> 12 {
	case 0x0:
		switch op {
		case 0x00E0: // CLS
			c.disp.Clear()
			return EffectRedraw, nil
		case 0x00EE: // RET
			pc, err := c.pop()
			if err != nil {
				return 0, err
			}
			c.PC = pc
			return 0, nil
		}
		// 0NNN machine-code routines are not supported
		return 0, ErrInvalidOpcode
	case 0x1: // JP nnn
		c.PC = nnn
	case 0x2: // CALL nnn
		if err := c.push(c.PC); err != nil {
			return 0, err
		}
		c.PC = nnn
	case 0x3: // SE Vx, nn
		c.skipIf(c.V[x] == nn)
	case 0x4: // SNE Vx, nn
		c.skipIf(c.V[x] != nn)
	case 0x5: // SE Vx, Vy
		if n != 0 {
			return 0, ErrInvalidOpcode
		}
		c.skipIf(c.V[x] == c.V[y])
	case 0x6: // LD Vx, nn
		c.V[x] = nn
	case 0x7: // ADD Vx, nn (no carry)
		c.V[x] += nn
	case 0x8:
		return 0, c.alu(x, y, n)
	case 0x9: // SNE Vx, Vy
		if n != 0 {
			return 0, ErrInvalidOpcode
		}
		c.skipIf(c.V[x] != c.V[y])
	case 0xA: // LD I, nnn
		c.I = nnn
	case 0xB: // JP V0, nnn
		c.PC = nnn + uint16(c.V[0])
	case 0xC: // RND Vx, nn
		c.V[x] = byte(c.rng.Intn(256)) & nn
	case 0xD: // DRW Vx, Vy, n
		return c.draw(x, y, n)
	case 0xE:
		return 0, c.skipKey(x, nn)
	case 0xF:
		return 0, c.misc(x, nn)
	}
	return 0, nil
}

// alu executes the 8XYn register-register family. Flag writes to VF happen
// after the result is stored, so VF as destination ends up holding the flag.
func (c *CPU) alu(x, y, n byte) error {
	switch n {
	case 0x0:
		c.V[x] = c.V[y]
	case 0x1:
		c.V[x] |= c.V[y]
	case 0x2:
		c.V[x] &= c.V[y]
	case 0x3:
		c.V[x] ^= c.V[y]
	case 0x4:
		sum := uint16(c.V[x]) + uint16(c.V[y])
		c.V[x] = byte(sum)
		c.V[0xF] = boolByte(sum > 0xFF)
	case 0x5:
		a, b := c.V[x], c.V[y]
		c.V[x] = a - b
		c.V[0xF] = boolByte(a >= b)
	case 0x6: // shifts take their source from VY
		v := c.V[y]
		c.V[x] = v >> 1
		c.V[0xF] = v & 0x01
	case 0x7:
		a, b := c.V[x], c.V[y]
		c.V[x] = b - a
		c.V[0xF] = boolByte(b >= a)
	case 0xE:
		v := c.V[y]
		c.V[x] = v << 1
		c.V[0xF] = v >> 7
	default:
		return ErrInvalidOpcode
	}
	return nil
}

// draw resets VF before reading the coordinate registers, so DXYN with X or
// Y equal to F draws at 0 on that axis.
func (c *CPU) draw(x, y, n byte) (Effect, error) {
	c.V[0xF] = 0
	sprite, err := c.bus.Slice(c.I, int(n))
	if err != nil {
		return 0, err
	}
	if c.disp.DrawSprite(c.V[x], c.V[y], sprite) {
		c.V[0xF] = 1
	}
	return EffectRedraw, nil
}

func (c *CPU) skipKey(x, nn byte) error {
	k := c.V[x]
	if int(k) >= keypad.NumKeys {
		return fmt.Errorf("%w: V%X=%#02x", ErrInvalidKey, x, k)
	}
	switch nn {
	case 0x9E: // SKP Vx
		c.skipIf(c.keys.IsDown(k))
	case 0xA1: // SKNP Vx
		c.skipIf(!c.keys.IsDown(k))
	default:
		return ErrInvalidOpcode
	}
	return nil
}

func (c *CPU) misc(x, nn byte) error {
	switch nn {
	case 0x07: // LD Vx, DT
		c.V[x] = c.timers.Delay
	case 0x0A: // LD Vx, K
		c.Mode = WaitingForKey
		c.WaitReg = x
	case 0x15: // LD DT, Vx
		c.timers.Delay = c.V[x]
	case 0x18: // LD ST, Vx
		c.timers.Sound = c.V[x]
	case 0x1E: // ADD I, Vx
		c.I += uint16(c.V[x])
	case 0x29: // LD F, Vx
		c.I = bus.FontStart + uint16(c.V[x])*bus.GlyphSize
	case 0x33: // LD B, Vx
		dst, err := c.bus.Slice(c.I, 3)
		if err != nil {
			return err
		}
		v := c.V[x]
		dst[0] = v / 100
		dst[1] = v / 10 % 10
		dst[2] = v % 10
	case 0x55: // LD [I], V0..Vx
		dst, err := c.bus.Slice(c.I, int(x)+1)
		if err != nil {
			return err
		}
		for i := 0; i <= int(x); i++ {
			dst[i] = c.V[i]
			c.I++
		}
	case 0x65: // LD V0..Vx, [I]
		src, err := c.bus.Slice(c.I, int(x)+1)
		if err != nil {
			return err
		}
		for i := 0; i <= int(x); i++ {
			c.V[i] = src[i]
			c.I++
		}
	default:
		return ErrInvalidOpcode
	}
	return nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
