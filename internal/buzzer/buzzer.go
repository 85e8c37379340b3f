// Package buzzer derives the tone on/off signal from the sound timer and
// generates the tone that audio backends play while it is on.
package buzzer

import (
	"encoding/binary"
	"math"
	"sync"
)

// DefaultThreshold keeps the historical behaviour: the tone sounds while the
// sound timer is strictly above one.
const DefaultThreshold = 1

// Audible reports whether the tone should sound for the given sound timer value.
func Audible(sound, threshold byte) bool { return sound > threshold }

// Gate is the play/pause control of a continuously running tone stream.
type Gate interface {
	Play()
	Pause()
}

// Nop is a Gate that does nothing.
type Nop struct{}

func (Nop) Play()  {}
func (Nop) Pause() {}

// Edge forwards only state changes to an underlying Gate, so backends are not
// asked to play every cycle.
type Edge struct {
	G       Gate
	playing bool
	known   bool
}

// Set drives the gate to on.
func (e *Edge) Set(on bool) {
	if e.known && e.playing == on {
		return
	}
	e.known = true
	e.playing = on
	if e.G == nil {
		return
	}
	if on {
		e.G.Play()
	} else {
		e.G.Pause()
	}
}

// Playing reports the last state sent.
func (e *Edge) Playing() bool { return e.playing }

const (
	DefaultFrequency  = 440.0
	DefaultSampleRate = 48000
	DefaultVolume     = 0.25
)

// Oscillator is a sine phase accumulator.
type Oscillator struct {
	Frequency  float64
	SampleRate int
	Volume     float64
	phase      float64
}

// NewOscillator returns a 440 Hz oscillator at sampleRate.
func NewOscillator(sampleRate int) *Oscillator {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Oscillator{Frequency: DefaultFrequency, SampleRate: sampleRate, Volume: DefaultVolume}
}

// Next returns the next sample in [-Volume, Volume].
func (o *Oscillator) Next() float64 {
	v := math.Sin(2*math.Pi*o.phase) * o.Volume
	o.phase += o.Frequency / float64(o.SampleRate)
	if o.phase >= 1 {
		o.phase -= 1
	}
	return v
}

// Tone is an endless io.Reader of 16-bit little-endian stereo PCM.
type Tone struct {
	mu  sync.Mutex
	osc *Oscillator
}

func NewTone(sampleRate int) *Tone { return &Tone{osc: NewOscillator(sampleRate)} }

func (t *Tone) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(p) / 4 * 4
	for i := 0; i < n; i += 4 {
		s := int16(t.osc.Next() * math.MaxInt16)
		binary.LittleEndian.PutUint16(p[i:], uint16(s))
		binary.LittleEndian.PutUint16(p[i+2:], uint16(s))
	}
	// a short trailing buffer still counts as silence so Read never returns 0
	for i := n; i < len(p); i++ {
		p[i] = 0
	}
	return len(p), nil
}

// Float32Tone is an endless io.Reader of mono float32 little-endian samples.
type Float32Tone struct {
	mu  sync.Mutex
	osc *Oscillator
}

func NewFloat32Tone(sampleRate int) *Float32Tone {
	return &Float32Tone{osc: NewOscillator(sampleRate)}
}

func (t *Float32Tone) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(p) / 4 * 4
	for i := 0; i < n; i += 4 {
		binary.LittleEndian.PutUint32(p[i:], math.Float32bits(float32(t.osc.Next())))
	}
	for i := n; i < len(p); i++ {
		p[i] = 0
	}
	return len(p), nil
}
