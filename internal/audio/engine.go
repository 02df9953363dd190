// Package audio plays the notes fired by gestures and word catches.
package audio

import (
	"errors"
	"time"
)

// ErrAudioInit is returned when the output device cannot be opened.
var ErrAudioInit = errors.New("audio init failed")

// Volume limits in decibels.
const (
	MinVolume = -40.0
	MaxVolume = 20.0
)

// Engine is a single synthesiser voice owned by one mode instance.
type Engine interface {
	// PlayNote sounds pitch (scientific notation, e.g. "C4") for d.
	PlayNote(pitch string, d time.Duration) error
	SetVolume(db float64)
	SetDetune(cents float64)
	// Dispose silences the voice. Calls after Dispose are no-ops.
	Dispose()
}

// Factory creates an Engine. Modes call it once during setup.
type Factory func() (Engine, error)

// ClampVolume limits db to [MinVolume, MaxVolume].
func ClampVolume(db float64) float64 {
	return min(max(db, MinVolume), MaxVolume)
}
