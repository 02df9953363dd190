package mode

import (
	"time"

	"github.com/ayusman/carnival/internal/audio"
	"github.com/rs/zerolog"
)

// base carries the lifecycle shared by every mode.
type base struct {
	name    Name
	env     Env
	log     zerolog.Logger
	state   State
	err     *SetupError
	trigger *audio.Trigger
	soundOn bool
}

func newBase(name Name, env Env) base {
	env = defaultEnv(env)
	return base{
		name:    name,
		env:     env,
		log:     env.Log.With().Str("component", "mode").Str("mode", string(name)).Logger(),
		soundOn: env.SoundOn,
	}
}

func (b *base) Name() Name   { return b.name }
func (b *base) State() State { return b.state }

func (b *base) setState(s State) {
	if b.state == s {
		return
	}
	b.log.Info().Stringer("from", b.state).Stringer("to", s).Msg("mode state")
	b.state = s
}

func (b *base) Begin() {
	if b.state == Uninitialized {
		b.setState(Initializing)
	}
}

// activate takes ownership of h.
func (b *base) activate(h *Handles) error {
	if b.state != Initializing {
		return ErrNotInitializing
	}
	var engine audio.Engine = audio.Silent{}
	if h != nil && h.Engine != nil {
		engine = h.Engine
	}
	b.trigger = audio.NewTrigger(engine, b.soundOn, b.log)
	b.setState(Running)
	return nil
}

func (b *base) Fail(err error) {
	b.err = newSetupError(err)
	b.log.Error().Err(b.err.Err).Str("kind", string(b.err.Kind)).Msg("mode setup failed")
	b.setState(Failed)
}

// release disposes the audio voice and returns to uninitialized.
func (b *base) release() {
	if b.trigger != nil {
		b.trigger.Dispose()
		b.trigger = nil
	}
	b.err = nil
	b.setState(Uninitialized)
}

func (b *base) SetSound(on bool) {
	b.soundOn = on
	if b.trigger != nil {
		b.trigger.SetEnabled(on)
	}
}

func (b *base) AdjustVolume(delta float64) {
	if b.trigger != nil {
		b.trigger.AdjustVolume(delta)
	}
}

func (b *base) fire(pitch string, d time.Duration) {
	if b.trigger != nil {
		b.trigger.Fire(pitch, d)
	}
}

// snapshot fills the fields every mode shares.
func (b *base) snapshot() Snapshot {
	s := Snapshot{
		Mode:  b.name,
		Title: b.name.Title(),
		State: b.state,
		Sound: b.soundOn,
	}
	if b.trigger != nil {
		s.Volume = b.trigger.Volume()
	}
	if b.err != nil {
		s.Error = &ErrorView{Kind: b.err.Kind, Message: b.err.Message()}
	}
	return s
}
