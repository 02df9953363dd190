// Package mode implements the carnival's interactive modes: the
// face-tracking word game, the hand-gesture instrument and the full-body
// placeholder.
//
// A Mode is owned by the controller loop. None of its methods are safe for
// concurrent use; the controller serialises every call.
package mode

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/ayusman/carnival/internal/audio"
	"github.com/ayusman/carnival/internal/detector"
	"github.com/ayusman/carnival/internal/store"
	"github.com/ayusman/carnival/internal/tracking"
	"github.com/rs/zerolog"
)

// Name identifies a mode.
type Name string

const (
	Face     Name = "face"
	Hand     Name = "hand"
	FullBody Name = "fullbody"
)

// Names returns every mode in menu order.
func Names() []Name {
	return []Name{Face, Hand, FullBody}
}

// ParseName returns the mode called s.
func ParseName(s string) (Name, bool) {
	for _, n := range Names() {
		if string(n) == s {
			return n, true
		}
	}
	return "", false
}

// Title is the display name of a mode.
func (n Name) Title() string {
	switch n {
	case Face:
		return "Word Catcher"
	case Hand:
		return "Hand Instrument"
	case FullBody:
		return "Full Body"
	default:
		return string(n)
	}
}

// State is a mode's lifecycle state.
type State int

const (
	Uninitialized State = iota
	Initializing
	Running
	Ended
	// Failed is the terminal error display. Only Cleanup leaves it.
	Failed
)

var stateNames = [...]string{"uninitialized", "initializing", "running", "ended", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown mode state %q", b)
}

var (
	// ErrNotRunning is returned by actions that need a running mode.
	ErrNotRunning = errors.New("mode is not running")
	// ErrNotInitializing is returned by Activate outside of setup.
	ErrNotInitializing = errors.New("mode is not initializing")
	// ErrBonusClaimed is returned when the round's bonus was already taken.
	ErrBonusClaimed = errors.New("bonus already claimed this round")
	// ErrEmptyWord is returned when a bonus claim has no word.
	ErrEmptyWord = errors.New("bonus word is empty")
)

// Size is a canvas size in pixels.
type Size struct {
	W, H float64
}

// Leaderboard receives finished scores.
type Leaderboard interface {
	Submit(e store.Entry) ([]store.Entry, error)
}

// RoundLog records finished rounds.
type RoundLog interface {
	Record(r *store.Round) error
}

// Env is everything a mode needs from its host.
type Env struct {
	Source      tracking.Source
	Audio       audio.Factory
	Leaderboard Leaderboard
	Rounds      RoundLog
	Log         zerolog.Logger
	Rand        *rand.Rand
	Canvas      Size
	GameLength  time.Duration
	Player      string
	SoundOn     bool
}

// Reply is what a mode-specific voice handler wants done.
type Reply struct {
	// Speak is confirmed back to the player.
	Speak string
	// Back asks the controller to leave the mode.
	Back bool
}

// Mode is one interactive mode instance.
type Mode interface {
	Name() Name
	State() State
	// NeedsSource reports whether setup must acquire the landmark source.
	NeedsSource() bool

	// Begin moves an uninitialized mode to initializing.
	Begin()
	// Activate hands over the resources acquired by Setup and starts the
	// mode. It fails unless the mode is initializing; the caller then
	// still owns h.
	Activate(h *Handles, now time.Time) error
	// Fail moves the mode to the terminal error display.
	Fail(err error)

	// OnFrame replaces the latest landmark frame.
	OnFrame(f detector.Frame, now time.Time)
	// OnUtterance gets voice input the global command table did not match.
	OnUtterance(text string, now time.Time) (Reply, bool)
	// Update advances the mode by one tick.
	Update(now time.Time)
	Snapshot(now time.Time) Snapshot

	SetSound(on bool)
	AdjustVolume(delta float64)

	// Cleanup releases the audio voice and all transient entities and
	// returns the mode to uninitialized from any state.
	Cleanup()
}

// New creates the mode called name.
func New(name Name, env Env) (Mode, bool) {
	switch name {
	case Face:
		return NewWordGame(env, DefaultWordConfig()), true
	case Hand:
		return NewInstrument(env), true
	case FullBody:
		return NewFullBody(env), true
	default:
		return nil, false
	}
}

func defaultEnv(env Env) Env {
	if env.Canvas.W <= 0 || env.Canvas.H <= 0 {
		env.Canvas = Size{W: 1280, H: 720}
	}
	if env.Rand == nil {
		env.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if env.GameLength <= 0 {
		env.GameLength = DefaultGameLength
	}
	if env.Player == "" {
		env.Player = "Player"
	}
	return env
}
