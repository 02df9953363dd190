package audio

import (
	"sync"
	"time"
)

// Silent is an Engine that discards everything. Modes fall back to it when
// the output device cannot be opened.
type Silent struct{}

func (Silent) PlayNote(string, time.Duration) error { return nil }
func (Silent) SetVolume(float64)                    {}
func (Silent) SetDetune(float64)                    {}
func (Silent) Dispose()                             {}

// Note is one PlayNote call seen by a Recorder.
type Note struct {
	Pitch    string
	Duration time.Duration
}

// Recorder is an Engine that remembers what it was asked to do.
type Recorder struct {
	mu       sync.Mutex
	notes    []Note
	volume   float64
	detune   float64
	disposed bool
	err      error
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// SetError makes subsequent PlayNote calls fail with err.
func (r *Recorder) SetError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *Recorder) PlayNote(pitch string, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if r.disposed {
		return nil
	}
	r.notes = append(r.notes, Note{Pitch: pitch, Duration: d})
	return nil
}

func (r *Recorder) SetVolume(db float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.volume = db
}

func (r *Recorder) SetDetune(cents float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detune = cents
}

func (r *Recorder) Dispose() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disposed = true
}

// Notes returns a copy of the notes played so far.
func (r *Recorder) Notes() []Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Note, len(r.notes))
	copy(out, r.notes)
	return out
}

// Volume returns the last volume set.
func (r *Recorder) Volume() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.volume
}

// Detune returns the last detune set.
func (r *Recorder) Detune() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.detune
}

// Disposed reports whether Dispose was called.
func (r *Recorder) Disposed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disposed
}
