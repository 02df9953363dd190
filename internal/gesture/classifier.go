package gesture

import (
	"time"

	"github.com/ayusman/carnival/internal/detector"
)

// DefaultDebounce is the minimum time between gesture changes for one hand.
const DefaultDebounce = 500 * time.Millisecond

// MaxHands is the number of independently tracked hand slots.
const MaxHands = 2

// historySize bounds the per-hand change history.
const historySize = 32

// Change records a gesture change for one hand.
type Change struct {
	Gesture Gesture
	At      time.Time
}

type slot struct {
	current    Gesture
	lastChange time.Time
	history    []Change
}

// Classifier turns hand landmarks into debounced gestures. Each hand index
// keeps its own current gesture and debounce timer.
//
// Hand identity comes from the landmark source's ordering. No
// re-identification across frames is attempted, so if the source swaps
// the order of two hands the slots swap with it.
type Classifier struct {
	debounce time.Duration
	slots    [MaxHands]slot
}

// NewClassifier creates a Classifier. A non-positive debounce uses DefaultDebounce.
func NewClassifier(debounce time.Duration) *Classifier {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Classifier{debounce: debounce}
}

// Classify returns the gesture for the hand at index hand.
//
// Within the debounce window after the last change the previous result is
// returned without recomputing. A nil hand yields None; an index outside
// the tracked slots yields Unknown and touches no state.
func (c *Classifier) Classify(hand int, lm *detector.HandLandmarks, now time.Time) Gesture {
	if lm == nil {
		return None
	}
	if hand < 0 || hand >= MaxHands {
		return Unknown
	}

	s := &c.slots[hand]
	if !s.lastChange.IsZero() && now.Sub(s.lastChange) < c.debounce {
		return s.current
	}

	g := Identify(ReadFingers(lm))
	if g != s.current {
		s.current = g
		s.lastChange = now
		s.history = append(s.history, Change{Gesture: g, At: now})
		if len(s.history) > historySize {
			s.history = s.history[len(s.history)-historySize:]
		}
	}
	return g
}

// Current returns the last gesture produced for hand.
func (c *Classifier) Current(hand int) Gesture {
	if hand < 0 || hand >= MaxHands {
		return None
	}
	return c.slots[hand].current
}

// History returns a copy of the recorded changes for hand, oldest first.
func (c *Classifier) History(hand int) []Change {
	if hand < 0 || hand >= MaxHands {
		return nil
	}
	out := make([]Change, len(c.slots[hand].history))
	copy(out, c.slots[hand].history)
	return out
}

// Reset forgets every hand.
func (c *Classifier) Reset() {
	c.slots = [MaxHands]slot{}
}
