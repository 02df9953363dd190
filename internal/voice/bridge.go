package voice

import "github.com/rs/zerolog"

// Result describes how a transcript was routed.
type Result struct {
	Text    string
	Phrase  string // global phrase matched, if any
	Handled bool
	Spoke   string
}

// Options configures a Bridge.
type Options struct {
	// Recognizer may be nil, in which case the bridge is unsupported and
	// every call is a no-op.
	Recognizer  Recognizer
	Synthesizer Synthesizer
	Actions     Actions
	Log         zerolog.Logger
}

// Bridge maps transcripts to actions and keeps the recognition session
// alive while enabled. It is driven from a single goroutine.
type Bridge struct {
	rec      Recognizer
	synth    Synthesizer
	actions  Actions
	fallback Fallback
	log      zerolog.Logger

	supported bool
	enabled   bool
	restarts  int
}

// NewBridge creates a bridge. An absent recognizer is reported once here.
func NewBridge(opts Options) *Bridge {
	b := &Bridge{
		rec:       opts.Recognizer,
		synth:     opts.Synthesizer,
		actions:   opts.Actions,
		log:       opts.Log.With().Str("component", "voice").Logger(),
		supported: opts.Recognizer != nil,
	}
	if b.synth == nil {
		b.synth = silentSynth{}
	}
	if !b.supported {
		b.log.Warn().Err(ErrSpeechUnsupported).Msg("voice commands unavailable")
	}
	return b
}

// Supported reports whether speech recognition is available.
func (b *Bridge) Supported() bool { return b.supported }

// Enabled reports whether the bridge is listening.
func (b *Bridge) Enabled() bool { return b.enabled }

// Restarts returns how many times the session was restarted after ending.
func (b *Bridge) Restarts() int { return b.restarts }

// SetFallback installs the handler for phrases outside the global table.
func (b *Bridge) SetFallback(f Fallback) {
	b.fallback = f
}

// MarkUnsupported disables the bridge permanently, for recognisers that
// discover they cannot run after being attached.
func (b *Bridge) MarkUnsupported() {
	if !b.supported {
		return
	}
	b.log.Warn().Err(ErrSpeechUnsupported).Msg("recogniser reported no speech support")
	b.supported = false
	b.enabled = false
}

// Enable starts listening. It returns ErrSpeechUnsupported when there is
// no recogniser.
func (b *Bridge) Enable() error {
	if !b.supported {
		return ErrSpeechUnsupported
	}
	if b.enabled {
		return nil
	}
	b.enabled = true
	if err := b.rec.Start(); err != nil {
		b.log.Warn().Err(err).Msg("recognition start failed")
	}
	b.synth.Speak("Voice commands activated")
	return nil
}

// Disable stops listening. Safe to call at any time.
func (b *Bridge) Disable() {
	if !b.supported || !b.enabled {
		return
	}
	b.enabled = false
	if err := b.rec.Stop(); err != nil {
		b.log.Warn().Err(err).Msg("recognition stop failed")
	}
	b.synth.Speak("Voice commands deactivated")
}

// Ended is called when the recognition session stops on its own. The
// session is restarted while the bridge is enabled.
func (b *Bridge) Ended() {
	if !b.supported || !b.enabled {
		return
	}
	b.restarts++
	if err := b.rec.Start(); err != nil {
		b.log.Warn().Err(err).Msg("recognition restart failed")
	}
}

// Failed logs a transient recognition error. The session end that
// follows restarts it.
func (b *Bridge) Failed(err error) {
	if !b.supported {
		return
	}
	b.log.Warn().Err(err).Msg("recognition error")
}

// Speak says text through the synthesizer if voice is supported.
func (b *Bridge) Speak(text string) {
	if !b.supported || text == "" {
		return
	}
	b.synth.Speak(text)
}

// Handle routes one transcript. Global phrases match exactly after
// normalisation; anything else goes to the fallback.
func (b *Bridge) Handle(transcript string) Result {
	text := Normalize(transcript)
	res := Result{Text: text}
	if !b.supported || !b.enabled || text == "" {
		return res
	}

	if cmd, ok := commands[text]; ok {
		res.Phrase = text
		if b.actions == nil {
			return res
		}
		say, err := cmd.run(b.actions)
		if err != nil {
			b.log.Debug().Err(err).Str("phrase", text).Msg("voice action unavailable")
			return res
		}
		if say == "" {
			say = cmd.confirm
		}
		res.Handled = true
		res.Spoke = say
		b.Speak(say)
		return res
	}

	if b.fallback != nil {
		if say, ok := b.fallback(text); ok {
			res.Handled = true
			res.Spoke = say
			b.Speak(say)
		}
	}
	return res
}
