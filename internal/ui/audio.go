package ui

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/buzzer"
	"github.com/hajimehoshi/ebiten/v2/audio"
)

// audioGate plays the buzzer tone through an ebiten audio player. Play and
// Pause are called from the interpreter goroutine; ebiten players are safe
// for that.
type audioGate struct {
	player *audio.Player
	muted  atomic.Bool
	want   atomic.Bool
}

func newAudioGate(sampleRate int) (*audioGate, error) {
	ctx := audio.CurrentContext()
	if ctx == nil {
		ctx = audio.NewContext(sampleRate)
	}
	p, err := ctx.NewPlayer(buzzer.NewTone(ctx.SampleRate()))
	if err != nil {
		return nil, fmt.Errorf("audio player: %w", err)
	}
	// a short buffer keeps the tone edges close to the sound timer
	p.SetBufferSize(40 * time.Millisecond)
	return &audioGate{player: p}, nil
}

func (g *audioGate) Play() {
	g.want.Store(true)
	if !g.muted.Load() {
		g.player.Play()
	}
}

func (g *audioGate) Pause() {
	g.want.Store(false)
	g.player.Pause()
}

func (g *audioGate) SetMuted(m bool) {
	g.muted.Store(m)
	if m {
		g.player.Pause()
	} else if g.want.Load() {
		g.player.Play()
	}
}

func (g *audioGate) Muted() bool { return g.muted.Load() }

func (g *audioGate) Close() error { return g.player.Close() }
