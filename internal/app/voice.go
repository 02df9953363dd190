package app

import "github.com/ayusman/carnival/internal/mode"

// voiceActions lets the voice bridge drive the controller. The bridge is
// only called from the loop, so these run the loop-side operations
// directly.
type voiceActions struct {
	c *Controller
}

func (a voiceActions) ChooseMode(name string) error { return a.c.chooseMode(name) }
func (a voiceActions) StartGame() error             { return a.c.start() }
func (a voiceActions) GoBack() error                { return a.c.back() }
func (a voiceActions) SetSound(on bool) error       { return a.c.setSound(on) }
func (a voiceActions) SetVoice(on bool) error       { return a.c.setVoice(on) }

func (a voiceActions) AdjustVolume(delta float64) error {
	return a.c.adjustVolume(delta)
}

func (a voiceActions) Instructions() ([]string, error) {
	if a.c.screen != ScreenInstructions || a.c.selected == "" {
		return nil, ErrWrongScreen
	}
	return mode.Instructions(a.c.selected), nil
}
