package app

import (
	"context"
	"strings"
)

// ChooseMode selects a mode and shows its instructions. Any running mode
// is torn down first.
func (c *Controller) ChooseMode(ctx context.Context, name string) error {
	return c.do(ctx, func() error { return c.chooseMode(name) })
}

// Start begins the chosen mode. Setup continues in the background; the
// state reports initializing until it completes.
func (c *Controller) Start(ctx context.Context) error {
	return c.do(ctx, c.start)
}

// Back tears down the current mode and returns to the menu.
func (c *Controller) Back(ctx context.Context) error {
	return c.do(ctx, c.back)
}

// Bonus claims the favourite-word bonus in the running word game.
func (c *Controller) Bonus(ctx context.Context, word string) error {
	return c.do(ctx, func() error { return c.bonus(word) })
}

// SetSound turns note playback on or off and remembers the choice.
func (c *Controller) SetSound(ctx context.Context, on bool) error {
	return c.do(ctx, func() error { return c.setSound(on) })
}

// SetVoice turns voice commands on or off and remembers the choice.
func (c *Controller) SetVoice(ctx context.Context, on bool) error {
	return c.do(ctx, func() error { return c.setVoice(on) })
}

// AdjustVolume moves the running mode's master volume by delta decibels.
func (c *Controller) AdjustVolume(ctx context.Context, delta float64) error {
	return c.do(ctx, func() error { return c.adjustVolume(delta) })
}

// SetPlayer sets the name used for new leaderboard entries.
func (c *Controller) SetPlayer(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	return c.do(ctx, func() error { return c.setPlayer(name) })
}

// Utterance routes a final speech transcript.
func (c *Controller) Utterance(text string) {
	c.post(func() { c.bridge.Handle(text) }, nil)
}

// SpeechEnded reports that the recognition session stopped.
func (c *Controller) SpeechEnded() {
	c.post(c.bridge.Ended, nil)
}

// SpeechFailed reports a transient recognition error.
func (c *Controller) SpeechFailed(err error) {
	c.post(func() { c.bridge.Failed(err) }, nil)
}

// SpeechUnsupported reports that the client has no speech recognition.
func (c *Controller) SpeechUnsupported() {
	c.post(c.bridge.MarkUnsupported, nil)
}
