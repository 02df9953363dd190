package mode

import (
	"strings"
	"time"

	"github.com/ayusman/carnival/internal/audio"
	"github.com/ayusman/carnival/internal/detector"
	"github.com/ayusman/carnival/internal/gesture"
	"github.com/ayusman/carnival/internal/particle"
)

// Instrument settings.
const (
	MinPitch      = -12.0
	MaxPitch      = 12.0
	StartVolume   = -10.0
	NoteLength    = 250 * time.Millisecond
	BurstSize     = 20
	TrackingLimit = time.Second
	// OctavePerHand transposes each hand index by this many semitones.
	OctavePerHand = 12
)

// GestureNotes is the note each gesture plays before per-hand transposition.
var GestureNotes = map[gesture.Gesture]string{
	gesture.OpenPalm:   "E3",
	gesture.Fist:       "G3",
	gesture.Peace:      "A3",
	gesture.Point:      "B3",
	gesture.ThumbsUp:   "C4",
	gesture.ThumbsDown: "D4",
	gesture.Three:      "E4",
	gesture.Four:       "G4",
	gesture.RockOn:     "A4",
	gesture.Unknown:    "C3",
}

// NoteFor returns the note gesture g plays on hand index hand.
func NoteFor(g gesture.Gesture, hand int) (string, error) {
	n, ok := GestureNotes[g]
	if !ok {
		n = GestureNotes[gesture.Unknown]
	}
	return audio.Transpose(n, hand*OctavePerHand)
}

// Tracking status labels.
const (
	TrackingStarting = "initializing"
	TrackingActive   = "tracking"
	TrackingLost     = "no_hand"
)

// Control is the continuous state driven by one hand's palm position.
type Control struct {
	Volume float64
	Pitch  float64
}

// Instrument is the hand mode: gestures pick notes, palm height sets the
// volume and palm x sets the detune.
type Instrument struct {
	base

	classifier *gesture.Classifier
	particles  *particle.System
	controls   [gesture.MaxHands]Control
	lastPlayed [gesture.MaxHands]gesture.Gesture

	hands    []HandView
	tracking string
	lastSeen time.Time
}

// NewInstrument creates a hand instrument.
func NewInstrument(env Env) *Instrument {
	m := &Instrument{base: newBase(Hand, env)}
	m.particles = particle.NewSystem(m.env.Rand)
	m.reset()
	return m
}

func (m *Instrument) reset() {
	m.classifier = gesture.NewClassifier(gesture.DefaultDebounce)
	m.particles.Clear()
	for i := range m.controls {
		m.controls[i] = Control{Volume: StartVolume}
	}
	m.lastPlayed = [gesture.MaxHands]gesture.Gesture{}
	m.hands = nil
	m.tracking = TrackingStarting
	m.lastSeen = time.Time{}
}

func (m *Instrument) NeedsSource() bool { return true }

func (m *Instrument) Activate(h *Handles, now time.Time) error {
	if err := m.activate(h); err != nil {
		return err
	}
	m.lastSeen = now
	return nil
}

// OnFrame classifies every hand in f. Hands beyond the tracked slots are
// ignored.
func (m *Instrument) OnFrame(f detector.Frame, now time.Time) {
	if m.state != Running {
		return
	}

	if len(f.Hands) > 0 {
		m.tracking = TrackingActive
		m.lastSeen = now
	} else {
		m.checkTracking(now)
	}

	vw, vh := f.VideoSize()
	sx, sy := m.env.Canvas.W/vw, m.env.Canvas.H/vh

	views := make([]HandView, 0, len(f.Hands))
	for i := range f.Hands {
		if i >= gesture.MaxHands {
			break
		}
		h := &f.Hands[i]
		g := m.classifier.Classify(i, h, now)
		palm := h.Palm()

		c := &m.controls[i]
		c.Volume = audio.ClampVolume(lerp(1-palm.Y/vh, audio.MinVolume, audio.MaxVolume))
		c.Pitch = clamp(lerp(palm.X/vw, MinPitch, MaxPitch), MinPitch, MaxPitch)
		if m.trigger != nil {
			m.trigger.SetVolume(c.Volume)
			m.trigger.SetDetune(c.Pitch * 100)
		}

		at := m.toCanvas(palm, sx, sy)
		note, err := NoteFor(g, i)
		if err != nil {
			m.log.Warn().Err(err).Str("gesture", string(g)).Msg("no note for gesture")
		}

		if g != gesture.None && g != m.lastPlayed[i] {
			m.lastPlayed[i] = g
			if note != "" {
				m.fire(note, NoteLength)
			}
			m.particles.Burst(BurstSize, at.X, at.Y, GestureColor(g))
		}

		pts := make([]Point, len(h.Points))
		for j, p := range h.Points {
			pts[j] = m.toCanvas(p, sx, sy)
		}
		views = append(views, HandView{
			Index:   i,
			Gesture: g,
			Palm:    at,
			Points:  pts,
			Volume:  c.Volume,
			Pitch:   c.Pitch,
			Note:    note,
			Color:   GestureColor(g).Hex(),
		})
	}
	m.hands = views
}

// toCanvas scales a video point to the canvas and mirrors it to match the
// mirrored video. Pitch reads the unmirrored palm.
func (m *Instrument) toCanvas(p detector.Point3D, sx, sy float64) Point {
	return Point{X: m.env.Canvas.W - p.X*sx, Y: p.Y * sy}
}

func (m *Instrument) checkTracking(now time.Time) {
	if m.tracking != TrackingLost && now.Sub(m.lastSeen) > TrackingLimit {
		m.tracking = TrackingLost
		m.hands = nil
	}
}

// OnUtterance handles the instrument's own phrases by substring.
func (m *Instrument) OnUtterance(text string, now time.Time) (Reply, bool) {
	switch {
	case strings.Contains(text, "start sound"):
		m.SetSound(true)
		return Reply{Speak: "Sound enabled"}, true
	case strings.Contains(text, "stop sound"):
		m.SetSound(false)
		return Reply{Speak: "Sound disabled"}, true
	case strings.Contains(text, "volume up"):
		m.AdjustVolume(audio.VolumeStep)
		return Reply{Speak: "Volume increased"}, true
	case strings.Contains(text, "volume down"):
		m.AdjustVolume(-audio.VolumeStep)
		return Reply{Speak: "Volume decreased"}, true
	case strings.Contains(text, "go back"):
		return Reply{Speak: "Going back", Back: true}, true
	}
	return Reply{}, false
}

// Update advances particles and demotes tracking after a quiet second.
func (m *Instrument) Update(now time.Time) {
	if m.state != Running {
		return
	}
	m.particles.Update()
	m.checkTracking(now)
}

// Controls returns the current per-hand controls.
func (m *Instrument) Controls() [gesture.MaxHands]Control {
	return m.controls
}

// Particles returns the number of live particles.
func (m *Instrument) Particles() int {
	return m.particles.Len()
}

func (m *Instrument) Snapshot(now time.Time) Snapshot {
	s := m.snapshot()
	if m.state != Running {
		return s
	}
	s.Tracking = m.tracking
	if len(m.hands) > 0 {
		s.Hands = append([]HandView(nil), m.hands...)
	}
	s.Particles = particleViews(m.particles.Live())
	return s
}

func (m *Instrument) Cleanup() {
	m.release()
	m.reset()
}

func lerp(t, lo, hi float64) float64 {
	return lo + t*(hi-lo)
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
