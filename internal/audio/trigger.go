package audio

import (
	"time"

	"github.com/rs/zerolog"
)

// VolumeStep is the master adjustment applied by "volume up" / "volume down".
const VolumeStep = 5.0

// Trigger fires notes for game events through an Engine. Engine failures
// are logged and dropped so a missing note never interrupts the caller.
//
// Trigger is owned by one mode and is not safe for concurrent use.
type Trigger struct {
	engine Engine
	log    zerolog.Logger

	enabled bool
	base    float64
	offset  float64
}

// NewTrigger wraps engine. A nil engine is replaced by Silent.
func NewTrigger(engine Engine, enabled bool, log zerolog.Logger) *Trigger {
	if engine == nil {
		engine = Silent{}
	}
	return &Trigger{
		engine:  engine,
		log:     log.With().Str("component", "audio").Logger(),
		enabled: enabled,
		base:    -10,
	}
}

// Fire plays pitch for d if sound is enabled.
func (t *Trigger) Fire(pitch string, d time.Duration) {
	if !t.enabled {
		return
	}
	if err := t.engine.PlayNote(pitch, d); err != nil {
		t.log.Warn().Err(err).Str("pitch", pitch).Msg("note dropped")
	}
}

// SetEnabled turns sound on or off.
func (t *Trigger) SetEnabled(on bool) {
	t.enabled = on
}

// Enabled reports whether notes are played.
func (t *Trigger) Enabled() bool {
	return t.enabled
}

// SetVolume sets the per-event volume; the master offset is added on top.
func (t *Trigger) SetVolume(db float64) {
	t.base = db
	t.apply()
}

// AdjustVolume moves the master offset by delta decibels. The resulting
// output volume stays within [MinVolume, MaxVolume].
func (t *Trigger) AdjustVolume(delta float64) {
	t.offset = ClampVolume(t.base+t.offset+delta) - t.base
	t.apply()
}

// Volume returns the effective output volume.
func (t *Trigger) Volume() float64 {
	return ClampVolume(t.base + t.offset)
}

// SetDetune forwards cents to the engine.
func (t *Trigger) SetDetune(cents float64) {
	t.engine.SetDetune(cents)
}

// Dispose releases the engine.
func (t *Trigger) Dispose() {
	t.engine.Dispose()
}

func (t *Trigger) apply() {
	t.engine.SetVolume(t.Volume())
}
