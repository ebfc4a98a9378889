package integrators

import "github.com/lbartron/Verlet/internal/particle"

// Verlet is position (Störmer) Verlet: the velocity lives in the position
// history, so corrections applied to Pos or Prev by the solver carry over to
// the next step without a separate velocity to keep in sync.
type Verlet struct{}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Name() string { return "verlet" }

func (v *Verlet) Integrate(p *particle.Particle, acc particle.Vec2, dt float64) {
	disp := p.Pos.Sub(p.Prev)
	p.Prev = p.Pos
	p.Pos = p.Pos.Add(disp).Add(acc.Scale(dt * dt))
}

// DampedVerlet scales the carried displacement by Damping each step, which
// acts as a velocity-proportional drag.
type DampedVerlet struct {
	Damping float64
}

func NewDampedVerlet(damping float64) *DampedVerlet {
	if damping <= 0 || damping > 1 {
		damping = 1
	}
	return &DampedVerlet{Damping: damping}
}

func (d *DampedVerlet) Name() string { return "damped" }

func (d *DampedVerlet) Integrate(p *particle.Particle, acc particle.Vec2, dt float64) {
	disp := p.Pos.Sub(p.Prev).Scale(d.Damping)
	p.Prev = p.Pos
	p.Pos = p.Pos.Add(disp).Add(acc.Scale(dt * dt))
}
