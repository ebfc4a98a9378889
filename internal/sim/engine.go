package sim

import (
	"fmt"

	"github.com/lbartron/Verlet/internal/boundary"
	"github.com/lbartron/Verlet/internal/collision"
	"github.com/lbartron/Verlet/internal/grid"
	"github.com/lbartron/Verlet/internal/integrators"
	"github.com/lbartron/Verlet/internal/particle"
)

// Handle identifies a particle. Particles are never removed, so a handle
// stays valid until Reset.
type Handle int

// Engine owns the particle store and runs the fixed step pipeline:
// integrate, rebuild the grid and resolve contacts, constrain to the world.
type Engine struct {
	cfg       Config
	particles []particle.Particle
	grid      *grid.Grid
	solver    *collision.Solver
	integ     Integrator
	bound     Boundary
	gravity   particle.Vec2

	time   float64
	steps  int
	lastDt float64
}

// New validates cfg and allocates the grid and the particle store. A nil
// integrator selects plain Verlet and a nil boundary the world rectangle.
func New(cfg Config, integ Integrator, bound Boundary) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if integ == nil {
		integ = integrators.NewVerlet()
	}
	if bound == nil {
		bound = boundary.Rect{Width: cfg.WorldWidth, Height: cfg.WorldHeight}
	}

	return &Engine{
		cfg:       cfg,
		particles: make([]particle.Particle, 0, cfg.MaxParticles),
		grid:      grid.New(cfg.WorldWidth, cfg.WorldHeight, cfg.CellSize()),
		solver:    collision.NewSolver(cfg.Restitution),
		integ:     integ,
		bound:     bound,
		gravity:   cfg.Gravity,
	}, nil
}

func (e *Engine) Config() Config             { return e.cfg }
func (e *Engine) Count() int                 { return len(e.particles) }
func (e *Engine) Capacity() int              { return e.cfg.MaxParticles }
func (e *Engine) Time() float64              { return e.time }
func (e *Engine) Steps() int                 { return e.steps }
func (e *Engine) LastDt() float64            { return e.lastDt }
func (e *Engine) Gravity() particle.Vec2     { return e.gravity }
func (e *Engine) SetGravity(g particle.Vec2) { e.gravity = g }
func (e *Engine) Boundary() Boundary         { return e.bound }
func (e *Engine) Integrator() Integrator     { return e.integ }

// GridStats describes the last grid rebuild. It is empty when the naive
// broad phase is selected.
func (e *Engine) GridStats() grid.Stats { return e.grid.Stats() }

func (e *Engine) SolverStats() collision.Stats { return e.solver.Stats() }

// AddParticle appends a particle at rest.
func (e *Engine) AddParticle(pos particle.Vec2, radius float64, tag particle.Tag) (Handle, error) {
	if len(e.particles) >= e.cfg.MaxParticles {
		return -1, ErrCapacity
	}
	if !(radius > 0) || radius > e.cfg.MaxRadius {
		return -1, fmt.Errorf("%w: %f (max %f)", ErrInvalidRadius, radius, e.cfg.MaxRadius)
	}
	if !pos.IsValid() {
		return -1, fmt.Errorf("%w: spawn position %v", ErrInvalidState, pos)
	}
	e.particles = append(e.particles, particle.New(pos, radius, tag))
	return Handle(len(e.particles) - 1), nil
}

// SetVelocity gives a particle velocity v, in units per second, for a step
// of dt.
func (e *Engine) SetVelocity(h Handle, v particle.Vec2, dt float64) error {
	if h < 0 || int(h) >= len(e.particles) {
		return ErrInvalidHandle
	}
	e.particles[h].SetVelocity(v, dt)
	return nil
}

// Particle returns a copy of the particle behind h.
func (e *Engine) Particle(h Handle) (particle.Particle, bool) {
	if h < 0 || int(h) >= len(e.particles) {
		return particle.Particle{}, false
	}
	return e.particles[h], true
}

// ForEachParticle visits every particle in index order with the fields a
// renderer needs.
func (e *Engine) ForEachParticle(fn func(pos particle.Vec2, radius float64, tag particle.Tag)) {
	for i := range e.particles {
		p := &e.particles[i]
		fn(p.Pos, p.Radius, p.Tag)
	}
}

// ForEachBody visits a copy of every particle in index order.
func (e *Engine) ForEachBody(fn func(p particle.Particle)) {
	for _, p := range e.particles {
		fn(p)
	}
}

// Step advances the world by dt. A non-positive dt is a no-op, so no time
// passes and nothing moves.
func (e *Engine) Step(dt float64) {
	if !(dt > 0) {
		return
	}

	for i := range e.particles {
		p := &e.particles[i]
		p.Acc = e.gravity
		e.integ.Integrate(p, p.Acc, dt)
	}

	e.solver.Resolve(e.cfg.Broadphase, e.particles, e.grid)

	for i := range e.particles {
		e.bound.Constrain(&e.particles[i])
	}

	e.time += dt
	e.steps++
	e.lastDt = dt
}

// Validate reports the first particle with a non-finite position.
func (e *Engine) Validate() error {
	for i := range e.particles {
		p := &e.particles[i]
		if !p.Pos.IsValid() || !p.Prev.IsValid() {
			return SimError{
				Time:    e.time,
				Step:    e.steps,
				Message: fmt.Sprintf("particle %d has invalid position %v", i, p.Pos),
				Err:     ErrInvalidState,
			}
		}
	}
	return nil
}

// Contained reports whether every particle is inside the boundary. Boundaries
// that cannot answer are treated as containing everything.
func (e *Engine) Contained() bool {
	c, ok := e.bound.(Container)
	if !ok {
		return true
	}
	for i := range e.particles {
		if !c.Contains(&e.particles[i]) {
			return false
		}
	}
	return true
}

// Reset drops every particle and rewinds the clock. Capacity is kept.
func (e *Engine) Reset() {
	e.particles = e.particles[:0]
	e.grid.Rebuild(e.particles)
	e.time = 0
	e.steps = 0
	e.lastDt = 0
	e.gravity = e.cfg.Gravity
}
