// Package boundary keeps particles inside the world.
package boundary

import (
	"math"

	"github.com/lbartron/Verlet/internal/particle"
)

// DefaultRestitution is the fraction of a circular wall overlap removed per
// step.
const DefaultRestitution = 0.7

// Policy is a world boundary.
type Policy interface {
	Name() string
	Constrain(p *particle.Particle)
	Contains(p *particle.Particle) bool
}

// Rect clamps particles into [0, Width] x [0, Height] per axis. Velocity is
// left untouched, so a particle pressed into a wall stays against it.
type Rect struct {
	Width, Height float64
}

func (r Rect) Name() string { return "rect" }

func (r Rect) Constrain(p *particle.Particle) {
	if p.Pos.X < p.Radius {
		p.Pos.X = p.Radius
	}
	if p.Pos.X > r.Width-p.Radius {
		p.Pos.X = r.Width - p.Radius
	}
	if p.Pos.Y < p.Radius {
		p.Pos.Y = p.Radius
	}
	if p.Pos.Y > r.Height-p.Radius {
		p.Pos.Y = r.Height - p.Radius
	}
}

func (r Rect) Contains(p *particle.Particle) bool {
	return p.Pos.X >= p.Radius && p.Pos.X <= r.Width-p.Radius &&
		p.Pos.Y >= p.Radius && p.Pos.Y <= r.Height-p.Radius
}

// Circle pushes particles that cross the rim back towards the centre by
// Restitution times the overlap. It is soft: a fast particle can sit outside
// the rim for a few steps.
type Circle struct {
	Center      particle.Vec2
	Radius      float64
	Restitution float64
}

// NewCircle centres a circle of radius height/2 in the world.
func NewCircle(worldWidth, worldHeight, restitution float64) Circle {
	return Circle{
		Center:      particle.Vec2{X: worldWidth / 2, Y: worldHeight / 2},
		Radius:      worldHeight / 2,
		Restitution: restitution,
	}
}

func (c Circle) Name() string { return "circle" }

func (c Circle) Constrain(p *particle.Particle) {
	delta := p.Pos.Sub(c.Center)
	distSq := delta.LenSq()
	limit := c.Radius - p.Radius
	if distSq <= limit*limit || distSq == 0 {
		return
	}
	dist := math.Sqrt(distSq)
	normal := particle.Vec2{X: delta.X / dist, Y: delta.Y / dist}
	p.Pos = p.Pos.Sub(normal.Scale(c.Restitution * (dist - limit)))
}

func (c Circle) Contains(p *particle.Particle) bool {
	limit := c.Radius - p.Radius
	return limit >= 0 && p.Pos.DistSq(c.Center) <= limit*limit
}
