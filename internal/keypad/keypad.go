// Package keypad models the 16-key hexadecimal keypad.
package keypad

// NumKeys is the number of logical keys, 0x0 through 0xF.
const NumKeys = 16

// Keypad is what the interpreter queries each cycle.
type Keypad interface {
	IsDown(key byte) bool
}

// State is a snapshot of all 16 logical keys, indexed by key value.
type State [NumKeys]bool

// IsDown reports whether key is held. Values above 0xF are never down.
func (s State) IsDown(key byte) bool {
	if int(key) >= NumKeys {
		return false
	}
	return s[key]
}

// FirstDown scans keys in index order and returns the lowest held key.
func (s State) FirstDown() (byte, bool) {
	return Scan(s)
}

// Scan returns the lowest-indexed held key on k.
func Scan(k Keypad) (byte, bool) {
	for i := 0; i < NumKeys; i++ {
		if k.IsDown(byte(i)) {
			return byte(i), true
		}
	}
	return 0, false
}

// Map resolves host keys of type K onto logical keys using an ordered table.
// Index i of the table is logical key i.
type Map[K comparable] [NumKeys]K

// State builds a snapshot by asking pressed about every mapped host key.
func (m *Map[K]) State(pressed func(K) bool) State {
	var s State
	for i, k := range m {
		s[i] = pressed(k)
	}
	return s
}

// Lookup returns the logical key mapped to host key k.
func (m *Map[K]) Lookup(k K) (byte, bool) {
	for i, hk := range m {
		if hk == k {
			return byte(i), true
		}
	}
	return 0, false
}
