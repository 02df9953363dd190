package app

import (
	"github.com/ayusman/carnival/internal/mode"
	"github.com/ayusman/carnival/internal/store"
)

// Screen is the top-level page.
type Screen string

const (
	ScreenMenu         Screen = "menu"
	ScreenInstructions Screen = "instructions"
	ScreenPlaying      Screen = "playing"
)

// ModeInfo describes a selectable mode.
type ModeInfo struct {
	Name  mode.Name `json:"name"`
	Title string    `json:"title"`
}

// State is the published application state. Every publish builds a new
// value; readers never see a partially updated one.
type State struct {
	Version        uint64         `json:"version"`
	Screen         Screen         `json:"screen"`
	Modes          []ModeInfo     `json:"modes"`
	Selected       mode.Name      `json:"selected,omitempty"`
	Instructions   []string       `json:"instructions,omitempty"`
	Player         string         `json:"player"`
	Sound          bool           `json:"sound"`
	Voice          bool           `json:"voice"`
	VoiceSupported bool           `json:"voiceSupported"`
	Game           *mode.Snapshot `json:"game,omitempty"`
	Leaderboard    []store.Entry  `json:"leaderboard"`
	// Best is the personal best of the last round's player, set once a
	// round is over.
	Best           *store.Entry   `json:"best,omitempty"`
}

// Modes lists every selectable mode.
func Modes() []ModeInfo {
	names := mode.Names()
	out := make([]ModeInfo, len(names))
	for i, n := range names {
		out[i] = ModeInfo{Name: n, Title: n.Title()}
	}
	return out
}

func (c *Controller) publish() {
	c.version++
	s := &State{
		Version:        c.version,
		Screen:         c.screen,
		Modes:          Modes(),
		Selected:       c.selected,
		Player:         c.player,
		Sound:          c.sound,
		Voice:          c.bridge != nil && c.bridge.Enabled(),
		VoiceSupported: c.bridge != nil && c.bridge.Supported(),
		Leaderboard:    append([]store.Entry{}, c.leaders...),
	}
	if c.screen == ScreenInstructions && c.selected != "" {
		s.Instructions = mode.Instructions(c.selected)
	}
	if c.current != nil {
		snap := c.current.Snapshot(c.now())
		s.Game = &snap
	}
	if c.best != nil {
		best := *c.best
		s.Best = &best
	}
	c.published.Store(s)
}
