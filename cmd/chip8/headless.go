package main

import (
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"strings"
	"time"

	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/buzzer"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/display"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/emu"
	"github.com/FabianRolfMatthiasNoll/Chip8Emulator/internal/timer"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"golang.org/x/image/draw"
)

const wavSampleRate = 44100

// runHeadless steps the machine as fast as possible with no keys pressed.
// Timer ticks are injected in emulated time so runs are reproducible.
func runHeadless(m *emu.Machine, f CLIFlags) error {
	cycles := f.Cycles
	if cycles <= 0 {
		cycles = 1
	}
	var rec *buzzer.Recorder
	if f.WAVOut != "" {
		rec = buzzer.NewRecorder(wavSampleRate)
		m.SetBuzzer(rec)
	}

	start := time.Now()
	ran, err := stepHeadless(m, cycles, f.Hz, rec)
	dur := time.Since(start)

	fr := m.Frame()
	crc := frameCRC(&fr)
	log.Printf("headless: cycles=%d elapsed=%s frame_crc32=%08x",
		ran, dur.Truncate(time.Millisecond), crc)
	if err != nil {
		return err
	}

	if f.PNGOut != "" {
		if err := saveFramePNG(&fr, f.Scale, f.PNGOut); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
		log.Printf("wrote %s", f.PNGOut)
	}
	if rec != nil {
		if err := saveWAV(rec, f.WAVOut); err != nil {
			return fmt.Errorf("write WAV: %w", err)
		}
		log.Printf("wrote %s", f.WAVOut)
	}

	if f.Expect != "" {
		// allow with/without 0x, upper/lowercase
		want := strings.TrimPrefix(strings.ToLower(f.Expect), "0x")
		got := fmt.Sprintf("%08x", crc)
		if got != want {
			return fmt.Errorf("checksum mismatch: got %s, want %s", got, want)
		}
	}
	return nil
}

// stepHeadless runs up to cycles steps at hz emulated instructions per second
// and returns how many ran.
func stepHeadless(m *emu.Machine, cycles, hz int, rec *buzzer.Recorder) (int, error) {
	for i := 0; i < cycles; i++ {
		// one tick each time emulated time crosses a 1/60 s boundary
		if (i+1)*timer.Rate/hz != i*timer.Rate/hz {
			m.Clock().Tick()
		}
		if _, err := m.Step(); err != nil {
			return i, err
		}
		if rec != nil {
			rec.Advance(1 / float64(hz))
		}
	}
	return cycles, nil
}

func frameCRC(f *display.Frame) uint32 {
	b := make([]byte, len(f))
	for i, on := range f {
		if on {
			b[i] = 1
		}
	}
	return crc32.ChecksumIEEE(b)
}

func frameImage(f *display.Frame, scale int) *image.RGBA {
	src := image.NewRGBA(image.Rect(0, 0, display.Width, display.Height))
	display.RenderRGBA(src.Pix, f, 1, color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}, color.RGBA{0, 0, 0, 0xFF})
	if scale <= 1 {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, display.Width*scale, display.Height*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

func saveFramePNG(f *display.Frame, scale int, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	return png.Encode(out, frameImage(f, scale))
}

func saveWAV(rec *buzzer.Recorder, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	enc := wav.NewEncoder(out, rec.SampleRate(), 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rec.SampleRate()},
		Data:           rec.Samples(),
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}
