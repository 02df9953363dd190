package audio

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
	"github.com/rs/zerolog"
)

const sampleRate = beep.SampleRate(44100)

// Envelope timings for every note.
const (
	Attack  = 20 * time.Millisecond
	Decay   = 100 * time.Millisecond
	Sustain = 0.2
	Release = 500 * time.Millisecond
)

var (
	speakerOnce sync.Once
	speakerErr  error
)

func initSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(sampleRate, sampleRate.N(50*time.Millisecond))
	})
	return speakerErr
}

// Synth is a polyphonic triangle-wave voice on the shared speaker.
type Synth struct {
	log zerolog.Logger

	mu     sync.Mutex
	volume float64
	detune float64

	disposed atomic.Bool
}

// NewSynth opens the speaker on first use and returns a voice.
func NewSynth(log zerolog.Logger) (*Synth, error) {
	if err := initSpeaker(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAudioInit, err)
	}
	return &Synth{
		log:    log.With().Str("component", "synth").Logger(),
		volume: -10,
	}, nil
}

// SynthFactory returns a Factory producing Synth voices.
func SynthFactory(log zerolog.Logger) Factory {
	return func() (Engine, error) {
		return NewSynth(log)
	}
}

// PlayNote queues one note on the speaker mixer.
func (s *Synth) PlayNote(pitch string, d time.Duration) error {
	if s.disposed.Load() {
		return nil
	}

	midi, err := ParseNote(pitch)
	if err != nil {
		return err
	}

	s.mu.Lock()
	vol, cents := s.volume, s.detune
	s.mu.Unlock()

	freq := Detune(Frequency(midi), cents)
	total := d + Release
	var note beep.Streamer = newEnvelope(newTriangle(freq), d)
	note = &effects.Volume{
		Streamer: beep.Take(sampleRate.N(total), note),
		Base:     10,
		Volume:   vol / 20,
	}

	speaker.Play(&gate{Streamer: note, closed: &s.disposed})
	s.log.Debug().Str("pitch", pitch).Float64("freq", freq).Dur("duration", d).Msg("note")
	return nil
}

// SetVolume sets the gain in decibels for subsequent notes.
func (s *Synth) SetVolume(db float64) {
	s.mu.Lock()
	s.volume = ClampVolume(db)
	s.mu.Unlock()
}

// SetDetune sets the pitch offset in cents for subsequent notes.
func (s *Synth) SetDetune(cents float64) {
	s.mu.Lock()
	s.detune = cents
	s.mu.Unlock()
}

// Dispose cuts every note still sounding from this voice.
func (s *Synth) Dispose() {
	s.disposed.Store(true)
}

// gate ends its stream as soon as closed is set, which lets the speaker
// mixer drop it on the next buffer.
type gate struct {
	beep.Streamer
	closed *atomic.Bool
}

func (g *gate) Stream(samples [][2]float64) (int, bool) {
	if g.closed.Load() {
		return 0, false
	}
	return g.Streamer.Stream(samples)
}

type triangle struct {
	step  float64
	phase float64
}

func newTriangle(freq float64) *triangle {
	return &triangle{step: freq / float64(sampleRate)}
}

func (t *triangle) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		v := 4*math.Abs(t.phase-0.5) - 1
		samples[i][0] = v
		samples[i][1] = v
		t.phase += t.step
		t.phase -= math.Floor(t.phase)
	}
	return len(samples), true
}

func (t *triangle) Err() error { return nil }

// envelope applies attack, decay, sustain and release around a note held
// for a fixed length.
type envelope struct {
	src beep.Streamer
	pos int

	attack, decay, hold, release int
}

func newEnvelope(src beep.Streamer, held time.Duration) *envelope {
	return &envelope{
		src:     src,
		attack:  sampleRate.N(Attack),
		decay:   sampleRate.N(Decay),
		hold:    sampleRate.N(held),
		release: sampleRate.N(Release),
	}
}

// gain returns the envelope level at sample n. Release starts when the
// hold ends, from whatever level the note had reached.
func (e *envelope) gain(n int) float64 {
	if n < e.hold {
		return e.level(n)
	}
	r := float64(n-e.hold) / float64(e.release)
	if r >= 1 {
		return 0
	}
	return e.level(e.hold) * (1 - r)
}

func (e *envelope) level(n int) float64 {
	switch {
	case n < e.attack:
		return float64(n) / float64(e.attack)
	case n < e.attack+e.decay:
		p := float64(n-e.attack) / float64(e.decay)
		return 1 - p*(1-Sustain)
	default:
		return Sustain
	}
}

func (e *envelope) Stream(samples [][2]float64) (int, bool) {
	n, ok := e.src.Stream(samples)
	for i := 0; i < n; i++ {
		g := e.gain(e.pos)
		samples[i][0] *= g
		samples[i][1] *= g
		e.pos++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.src.Err() }
