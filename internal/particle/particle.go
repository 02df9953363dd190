// Package particle implements the short-lived sparks drawn around a hand
// when its gesture changes.
package particle

import (
	"math/rand/v2"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	// Gravity is added to the vertical velocity on every update.
	Gravity = 0.1
	// InitialLife is the life a particle is born with.
	InitialLife = 255.0
	// Decay is subtracted from life on every update.
	Decay = 5.0
	// MaxSpeed bounds the initial velocity on each axis.
	MaxSpeed = 2.0
	// Radius is the drawn radius in canvas pixels.
	Radius = 8.0
)

// Particle is a point with velocity, constant downward acceleration and a
// decaying life.
type Particle struct {
	X, Y   float64
	VX, VY float64
	Life   float64
	Color  colorful.Color
}

// Alive reports whether p should still be drawn.
func (p *Particle) Alive() bool {
	return p.Life > 0
}

// Alpha maps remaining life onto [0, 1] for drawing.
func (p *Particle) Alpha() float64 {
	if p.Life <= 0 {
		return 0
	}
	if p.Life >= InitialLife {
		return 1
	}
	return p.Life / InitialLife
}

// Update advances p by one frame.
func (p *Particle) Update() {
	p.VY += Gravity
	p.X += p.VX
	p.Y += p.VY
	p.Life -= Decay
}

// System owns a set of particles. It is not safe for concurrent use; the
// owning mode mutates it from the interaction loop only.
type System struct {
	rnd       *rand.Rand
	particles []Particle
}

// NewSystem creates an empty system drawing velocities from rnd. A nil rnd
// uses a randomly seeded source.
func NewSystem(rnd *rand.Rand) *System {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &System{rnd: rnd}
}

// Burst spawns n particles at (x, y) in colour c with random velocities in
// [-MaxSpeed, MaxSpeed) on each axis.
func (s *System) Burst(n int, x, y float64, c colorful.Color) {
	for i := 0; i < n; i++ {
		s.particles = append(s.particles, Particle{
			X:     x,
			Y:     y,
			VX:    (s.rnd.Float64()*2 - 1) * MaxSpeed,
			VY:    (s.rnd.Float64()*2 - 1) * MaxSpeed,
			Life:  InitialLife,
			Color: c,
		})
	}
}

// Update advances every particle one frame and drops the dead ones.
func (s *System) Update() {
	live := s.particles[:0]
	for i := range s.particles {
		p := s.particles[i]
		p.Update()
		if p.Alive() {
			live = append(live, p)
		}
	}
	clear(s.particles[len(live):])
	s.particles = live
}

// Live returns a copy of the particles still alive.
func (s *System) Live() []Particle {
	out := make([]Particle, len(s.particles))
	copy(out, s.particles)
	return out
}

// Len returns the number of live particles.
func (s *System) Len() int {
	return len(s.particles)
}

// Clear drops every particle.
func (s *System) Clear() {
	s.particles = nil
}
