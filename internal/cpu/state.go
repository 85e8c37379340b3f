package cpu

// State is the serializable register file and interpreter mode.
type State struct {
	V       [16]byte
	I       uint16
	PC      uint16
	Stack   []uint16
	Mode    Mode
	WaitReg byte
}

func (c *CPU) SaveState() State {
	st := State{V: c.V, I: c.I, PC: c.PC, Mode: c.Mode, WaitReg: c.WaitReg}
	st.Stack = append([]uint16(nil), c.Stack...)
	return st
}

// LoadState restores registers and clears any latched fault.
func (c *CPU) LoadState(s State) {
	c.V = s.V
	c.I = s.I
	c.PC = s.PC
	c.Stack = append(c.Stack[:0], s.Stack...)
	c.Mode = s.Mode
	c.WaitReg = s.WaitReg & 0x0F
	c.fault = nil
}
