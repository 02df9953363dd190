package particle

import (
	"math/rand/v2"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
)

func TestParticle_LifeDecaysByFixedStep(t *testing.T) {
	p := Particle{Life: InitialLife}
	prev := p.Life
	for i := 0; i < 10; i++ {
		p.Update()
		if prev-p.Life != Decay {
			t.Fatalf("update %d: life dropped by %v, want %v", i, prev-p.Life, Decay)
		}
		prev = p.Life
	}
}

func TestParticle_Kinematics(t *testing.T) {
	p := Particle{X: 10, Y: 10, VX: 1, VY: -1, Life: InitialLife}
	p.Update()

	if p.X != 11 {
		t.Errorf("X = %v, want 11", p.X)
	}
	wantVY := -1 + Gravity
	if p.VY != wantVY {
		t.Errorf("VY = %v, want %v", p.VY, wantVY)
	}
	if p.Y != 10+wantVY {
		t.Errorf("Y = %v, want %v", p.Y, 10+wantVY)
	}
}

func TestParticle_Alpha(t *testing.T) {
	tests := []struct {
		life float64
		want float64
	}{
		{InitialLife, 1},
		{InitialLife / 2, 0.5},
		{0, 0},
		{-5, 0},
	}
	for _, tt := range tests {
		p := Particle{Life: tt.life}
		if got := p.Alpha(); got != tt.want {
			t.Errorf("Alpha(life=%v) = %v, want %v", tt.life, got, tt.want)
		}
	}
}

func TestSystem_DeadParticlesAreDropped(t *testing.T) {
	s := NewSystem(rand.New(rand.NewPCG(1, 2)))
	s.Burst(20, 100, 100, colorful.Color{R: 1})

	if s.Len() != 20 {
		t.Fatalf("Len() = %d, want 20", s.Len())
	}

	// 255 / 5 = 51 updates take life to exactly zero.
	for i := 0; i < 50; i++ {
		s.Update()
	}
	if s.Len() != 20 {
		t.Fatalf("after 50 updates Len() = %d, want 20", s.Len())
	}
	for _, p := range s.Live() {
		if p.Life != Decay {
			t.Fatalf("life = %v, want %v", p.Life, Decay)
		}
	}

	s.Update()
	if s.Len() != 0 {
		t.Errorf("particles with life <= 0 should be dropped, %d remain", s.Len())
	}
}

func TestSystem_BurstVelocityBounds(t *testing.T) {
	s := NewSystem(rand.New(rand.NewPCG(7, 7)))
	s.Burst(200, 0, 0, colorful.Color{})

	for _, p := range s.Live() {
		if p.VX < -MaxSpeed || p.VX >= MaxSpeed || p.VY < -MaxSpeed || p.VY >= MaxSpeed {
			t.Fatalf("velocity out of range: (%v, %v)", p.VX, p.VY)
		}
		if p.Life != InitialLife {
			t.Fatalf("new particle life = %v, want %v", p.Life, InitialLife)
		}
	}
}

func TestSystem_Clear(t *testing.T) {
	s := NewSystem(nil)
	s.Burst(5, 0, 0, colorful.Color{})
	s.Clear()
	if s.Len() != 0 || len(s.Live()) != 0 {
		t.Error("Clear should drop every particle")
	}
}
