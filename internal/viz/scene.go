package viz

import (
	"github.com/lbartron/Verlet/internal/boundary"
	"github.com/lbartron/Verlet/internal/particle"
	"github.com/lbartron/Verlet/internal/sim"
)

// DrawScene renders the boundary outline and every particle of e onto c.
// Particles smaller than a sub-pixel are drawn as a single dot.
func DrawScene(c *Canvas, e *sim.Engine) Viewport {
	cfg := e.Config()
	v := Fit(cfg.WorldWidth, cfg.WorldHeight, c)

	c.Clear()
	drawBoundary(c, v, e.Boundary(), cfg.WorldWidth, cfg.WorldHeight)

	e.ForEachParticle(func(pos particle.Vec2, radius float64, _ particle.Tag) {
		x, y := v.Project(pos)
		if r := v.Length(radius); r >= 1 {
			c.FillCircle(x, y, r)
		} else {
			c.Set(x, y)
		}
	})
	return v
}

func drawBoundary(c *Canvas, v Viewport, b sim.Boundary, w, h float64) {
	switch b := b.(type) {
	case boundary.Circle:
		x, y := v.Project(b.Center)
		c.DrawCircle(x, y, v.Length(b.Radius))
	default:
		x0, y0 := v.Project(particle.Vec2{})
		x1, y1 := v.Project(particle.Vec2{X: w, Y: h})
		x1, y1 = x1-1, y1-1
		c.DrawLine(x0, y0, x1, y0)
		c.DrawLine(x1, y0, x1, y1)
		c.DrawLine(x1, y1, x0, y1)
		c.DrawLine(x0, y1, x0, y0)
	}
}
