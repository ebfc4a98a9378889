package particle

import (
	"image/color"
	"math"
)

// Vec2 is a 2D vector in world units.
type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2       { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2       { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(f float64) Vec2  { return Vec2{v.X * f, v.Y * f} }
func (v Vec2) Dot(o Vec2) float64    { return v.X*o.X + v.Y*o.Y }
func (v Vec2) LenSq() float64        { return v.X*v.X + v.Y*v.Y }
func (v Vec2) Len() float64          { return math.Sqrt(v.LenSq()) }
func (v Vec2) IsValid() bool         { return isFinite(v.X) && isFinite(v.Y) }
func (v Vec2) Equal(o Vec2) bool     { return v.X == o.X && v.Y == o.Y }
func (v Vec2) DistSq(o Vec2) float64 { return v.Sub(o).LenSq() }

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Tag is the rendering attribute carried by a particle. Physics never reads it.
type Tag = color.RGBA

// Particle is a circular body. Velocity is never stored: it is the difference
// between Pos and Prev.
type Particle struct {
	Pos    Vec2
	Prev   Vec2
	Acc    Vec2
	Radius float64
	Tag    Tag
}

// New returns a particle at rest.
func New(pos Vec2, radius float64, tag Tag) Particle {
	return Particle{
		Pos:    pos,
		Prev:   pos,
		Radius: radius,
		Tag:    tag,
	}
}

// Displacement is the motion over the last step, i.e. the velocity in
// world units per step.
func (p *Particle) Displacement() Vec2 {
	return p.Pos.Sub(p.Prev)
}

// Velocity converts the displacement into world units per second.
func (p *Particle) Velocity(dt float64) Vec2 {
	if dt == 0 {
		return Vec2{}
	}
	return p.Displacement().Scale(1 / dt)
}

// SetVelocity rewrites Prev so that the next integration moves the particle
// by v*dt.
func (p *Particle) SetVelocity(v Vec2, dt float64) {
	p.Prev = p.Pos.Sub(v.Scale(dt))
}

// SetDisplacement is SetVelocity expressed in units per step.
func (p *Particle) SetDisplacement(d Vec2) {
	p.Prev = p.Pos.Sub(d)
}

// Overlaps reports whether the two circles intersect.
func (p *Particle) Overlaps(o *Particle) bool {
	r := p.Radius + o.Radius
	return p.Pos.DistSq(o.Pos) < r*r
}
