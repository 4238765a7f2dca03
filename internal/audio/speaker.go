package audio

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
)

// Config holds the speaker settings.
type Config struct {
	SampleRate int `toml:"sample_rate"`
	// Buffer is the speaker buffer length; larger is smoother but laggier.
	Buffer time.Duration `toml:"buffer"`
	// Volume is a linear gain in [0, 1]. Zero mutes.
	Volume float64 `toml:"volume"`
}

// DefaultConfig returns the default speaker settings.
func DefaultConfig() Config {
	return Config{
		SampleRate: 44100,
		Buffer:     100 * time.Millisecond,
		Volume:     0.5,
	}
}

// Speaker plays procedurally synthesized cues on the system audio device.
type Speaker struct {
	mu     sync.Mutex
	config Config
	rate   beep.SampleRate
	mixer  *beep.Mixer
	closed bool
}

// NewSpeaker opens the audio device. The returned error is not fatal to the
// game; callers fall back to Nop.
func NewSpeaker(config Config) (*Speaker, error) {
	if config.SampleRate <= 0 {
		config.SampleRate = DefaultConfig().SampleRate
	}
	if config.Buffer <= 0 {
		config.Buffer = DefaultConfig().Buffer
	}

	rate := beep.SampleRate(config.SampleRate)
	if err := speaker.Init(rate, rate.N(config.Buffer)); err != nil {
		return nil, fmt.Errorf("failed to initialize speaker: %w", err)
	}

	s := &Speaker{
		config: config,
		rate:   rate,
		mixer:  &beep.Mixer{},
	}
	speaker.Play(s.mixer)
	return s, nil
}

// Play queues the cue onto the mixer and returns immediately.
func (s *Speaker) Play(cue Cue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	streamer := Sound(cue, s.rate, s.config.Volume)
	if streamer == nil {
		return
	}
	speaker.Lock()
	s.mixer.Add(streamer)
	speaker.Unlock()
}

// Close silences the mixer. beep has no way to release the device itself.
func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	speaker.Lock()
	s.mixer.Clear()
	speaker.Unlock()
	return nil
}

// Sound synthesizes the streamer for a cue at the given rate and linear
// volume. Unknown cues return nil.
func Sound(cue Cue, rate beep.SampleRate, volume float64) beep.Streamer {
	var s beep.Streamer
	switch cue {
	case CueCleared:
		// Rising major third.
		s = beep.Seq(
			tone(659.25, 80*time.Millisecond, rate),
			tone(830.61, 120*time.Millisecond, rate),
		)
	case CueLifeLost:
		s = tone(196, 250*time.Millisecond, rate)
	case CueGameOver:
		s = beep.Seq(
			tone(392, 180*time.Millisecond, rate),
			tone(311.13, 180*time.Millisecond, rate),
			tone(261.63, 400*time.Millisecond, rate),
		)
	case CueTransition:
		s = beep.Mix(
			tone(523.25, 150*time.Millisecond, rate),
			tone(783.99, 150*time.Millisecond, rate),
		)
	default:
		return nil
	}
	return withVolume(s, volume)
}

// tone is a sine wave of fixed length with a short linear fade at both ends
// so it starts and stops without clicks.
func tone(freq float64, d time.Duration, rate beep.SampleRate) beep.Streamer {
	total := rate.N(d)
	fade := rate.N(5 * time.Millisecond)
	pos := 0
	return beep.Take(total, beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			v := math.Sin(2 * math.Pi * freq * float64(pos) / float64(rate))
			switch {
			case pos < fade:
				v *= float64(pos) / float64(fade)
			case total-pos < fade:
				v *= float64(total-pos) / float64(fade)
			}
			samples[i][0] = v
			samples[i][1] = v
			pos++
		}
		return len(samples), true
	}))
}

// withVolume applies a linear gain. effects.Volume is logarithmic, so zero
// maps to Silent.
func withVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(math.Min(vol, 1))}
}
