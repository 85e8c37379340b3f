package buzzer

import "math"

// Recorder is a Gate that renders the tone into memory instead of a device.
// Callers advance it in emulated time; it emits tone samples while playing
// and silence otherwise.
type Recorder struct {
	osc     *Oscillator
	playing bool
	frac    float64
	samples []int
}

func NewRecorder(sampleRate int) *Recorder {
	return &Recorder{osc: NewOscillator(sampleRate)}
}

func (r *Recorder) Play()  { r.playing = true }
func (r *Recorder) Pause() { r.playing = false }

// SampleRate is the rate samples are rendered at.
func (r *Recorder) SampleRate() int { return r.osc.SampleRate }

// Advance renders seconds worth of samples. Fractional samples carry over.
func (r *Recorder) Advance(seconds float64) {
	r.frac += seconds * float64(r.osc.SampleRate)
	n := int(r.frac)
	r.frac -= float64(n)
	for i := 0; i < n; i++ {
		v := 0
		if r.playing {
			v = int(r.osc.Next() * math.MaxInt16)
		}
		r.samples = append(r.samples, v)
	}
}

// Samples returns the 16-bit mono samples rendered so far.
func (r *Recorder) Samples() []int { return r.samples }
