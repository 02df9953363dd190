// Package voice routes spoken phrases to application actions.
package voice

import "errors"

// ErrSpeechUnsupported is reported when no speech recogniser is available.
var ErrSpeechUnsupported = errors.New("speech recognition unsupported")

// Recognizer is a continuous speech recognition session. Transcripts and
// session ends are delivered back to the Bridge by whoever owns the
// session (Handle, Ended, Failed).
type Recognizer interface {
	Start() error
	Stop() error
}

// Synthesizer speaks text. Speak is fire-and-forget.
type Synthesizer interface {
	Speak(text string)
}

// Actions are the application operations a phrase can trigger. An error
// means the action was not available in the current screen and nothing
// is confirmed.
type Actions interface {
	ChooseMode(name string) error
	Instructions() ([]string, error)
	StartGame() error
	GoBack() error
	SetSound(on bool) error
	SetVoice(on bool) error
	AdjustVolume(delta float64) error
}

// Fallback handles phrases outside the global table, normally by passing
// them to the active mode. It returns the text to speak and whether the
// phrase was handled.
type Fallback func(text string) (speak string, ok bool)

type silentSynth struct{}

func (silentSynth) Speak(string) {}
