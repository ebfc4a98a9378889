package metrics

import (
	"math"

	"github.com/lbartron/Verlet/internal/particle"
	"github.com/lbartron/Verlet/internal/sim"
)

// Stability is the fraction of steps in which every particle stayed finite,
// inside the boundary and below threshold speed.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(e *sim.Engine) {
	s.samples++
	if e.Validate() != nil || !e.Contained() {
		s.violations++
		return
	}
	if s.threshold > 0 && MaxSpeedOf(e) > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// MaxSpeedOf is the fastest particle's speed in units per second.
func MaxSpeedOf(e *sim.Engine) float64 {
	dt := e.LastDt()
	if dt <= 0 {
		return 0
	}
	maxSq := 0.0
	e.ForEachBody(func(p particle.Particle) {
		if d := p.Displacement().LenSq(); d > maxSq {
			maxSq = d
		}
	})
	return math.Sqrt(maxSq) / dt
}
