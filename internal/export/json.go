package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/lbartron/Verlet/internal/particle"
	"github.com/lbartron/Verlet/internal/sim"
)

type Body struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
	Radius float64 `json:"radius"`
	Color  string  `json:"color"`
}

// Snapshot is the engine state at one instant.
type Snapshot struct {
	Time      float64            `json:"time"`
	Steps     int                `json:"steps"`
	Width     float64            `json:"width"`
	Height    float64            `json:"height"`
	Boundary  string             `json:"boundary"`
	Particles []Body             `json:"particles"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// Capture copies the engine's particles. Velocities use the last step's dt
// and are zero before the first step.
func Capture(e *sim.Engine, metrics map[string]float64) *Snapshot {
	cfg := e.Config()
	snap := &Snapshot{
		Time:      e.Time(),
		Steps:     e.Steps(),
		Width:     cfg.WorldWidth,
		Height:    cfg.WorldHeight,
		Particles: make([]Body, 0, e.Count()),
		Metrics:   metrics,
	}
	if n, ok := e.Boundary().(sim.Namer); ok {
		snap.Boundary = n.Name()
	}

	dt := e.LastDt()
	e.ForEachBody(func(p particle.Particle) {
		b := Body{X: p.Pos.X, Y: p.Pos.Y, Radius: p.Radius, Color: hex(p.Tag)}
		if dt > 0 {
			v := p.Velocity(dt)
			b.VX, b.VY = v.X, v.Y
		}
		snap.Particles = append(snap.Particles, b)
	})
	return snap
}

func WriteJSON(w io.Writer, snap *Snapshot) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(snap)
}

func hex(c particle.Tag) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
