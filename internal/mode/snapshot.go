package mode

import (
	"github.com/ayusman/carnival/internal/gesture"
	"github.com/ayusman/carnival/internal/particle"
	"github.com/ayusman/carnival/internal/store"
)

// Snapshot is an immutable view of a mode for rendering. It is rebuilt
// every tick and never modified after it is returned.
type Snapshot struct {
	Mode    Name       `json:"mode"`
	Title   string     `json:"title"`
	State   State      `json:"state"`
	Message string     `json:"message,omitempty"`
	Error   *ErrorView `json:"error,omitempty"`

	Score     int        `json:"score"`
	Remaining int        `json:"remaining"`
	Words     []WordView `json:"words,omitempty"`
	Anchor    *Point     `json:"anchor,omitempty"`
	Bonus     bool       `json:"bonusAvailable"`

	Hands     []HandView     `json:"hands,omitempty"`
	Particles []ParticleView `json:"particles,omitempty"`
	Tracking  string         `json:"tracking,omitempty"`

	Sound       bool          `json:"sound"`
	Volume      float64       `json:"volume"`
	Leaderboard []store.Entry `json:"leaderboard,omitempty"`
}

// ErrorView is the terminal error display.
type ErrorView struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Point is a canvas position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// WordView is a falling word.
type WordView struct {
	Text  string  `json:"text"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Size  float64 `json:"size"`
	Color string  `json:"color"`
}

// HandView is one tracked hand in canvas space.
type HandView struct {
	Index   int             `json:"index"`
	Gesture gesture.Gesture `json:"gesture"`
	Palm    Point           `json:"palm"`
	Points  []Point         `json:"points"`
	Volume  float64         `json:"volume"`
	Pitch   float64         `json:"pitch"`
	Note    string          `json:"note,omitempty"`
	Color   string          `json:"color"`
}

// ParticleView is one live particle.
type ParticleView struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Alpha float64 `json:"alpha"`
	Color string  `json:"color"`
}

func particleViews(ps []particle.Particle) []ParticleView {
	if len(ps) == 0 {
		return nil
	}
	out := make([]ParticleView, len(ps))
	for i, p := range ps {
		out[i] = ParticleView{X: p.X, Y: p.Y, Alpha: p.Alpha(), Color: p.Color.Hex()}
	}
	return out
}
