package term

import (
	"fmt"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/buzzer"
	"github.com/ebitengine/oto/v3"
)

// OtoGate plays the buzzer tone through oto directly, for frontends that do
// not run ebiten.
type OtoGate struct {
	ctx    *oto.Context
	player *oto.Player
}

func NewOtoGate(sampleRate int) (*OtoGate, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("audio device: %w", err)
	}
	<-ready
	return &OtoGate{ctx: ctx, player: ctx.NewPlayer(buzzer.NewFloat32Tone(sampleRate))}, nil
}

func (g *OtoGate) Play()  { g.player.Play() }
func (g *OtoGate) Pause() { g.player.Pause() }

func (g *OtoGate) Close() error { return g.player.Close() }
