package collision

import (
	"fmt"
	"math"

	"github.com/lbartron/Verlet/internal/grid"
	"github.com/lbartron/Verlet/internal/particle"
)

const (
	DefaultRestitution = 0.7

	// coincidentEpsilon is the squared distance below which two centres are
	// treated as identical and have no usable normal.
	coincidentEpsilon = 1e-12
	// coincidentNudge is the total separation applied along x to break a
	// coincident pair.
	coincidentNudge = 0.01
)

// Mode selects the broad phase.
type Mode int

const (
	ModeGrid Mode = iota
	ModeNaive
)

func (m Mode) String() string {
	switch m {
	case ModeGrid:
		return "grid"
	case ModeNaive:
		return "naive"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode maps a config name to a Mode. The empty string selects the grid.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "", "grid":
		return ModeGrid, nil
	case "naive":
		return ModeNaive, nil
	default:
		return ModeGrid, fmt.Errorf("unknown broadphase: %s", name)
	}
}

// Stats counts work done by the last pass.
type Stats struct {
	PairsTested int
	Contacts    int
	Impulses    int
}

// Solver resolves circle overlaps in place. Corrections are written straight
// into the particles, so later pairs in the same pass see earlier results.
type Solver struct {
	Restitution float64
	stats       Stats
}

func NewSolver(restitution float64) *Solver {
	return &Solver{Restitution: clamp01(restitution)}
}

func (s *Solver) Stats() Stats { return s.stats }

// SolvePair separates a and b if they overlap and removes the approaching
// part of their relative normal velocity.
func (s *Solver) SolvePair(a, b *particle.Particle) {
	if a == b {
		return
	}
	s.stats.PairsTested++

	delta := a.Pos.Sub(b.Pos)
	distSq := delta.LenSq()
	minDist := a.Radius + b.Radius
	if distSq >= minDist*minDist {
		return
	}
	s.stats.Contacts++

	if distSq < coincidentEpsilon {
		half := coincidentNudge * 0.5
		a.Pos.X += half
		b.Pos.X -= half
		a.Prev = a.Pos
		b.Prev = b.Pos
		return
	}

	dist := math.Sqrt(distSq)
	normal := particle.Vec2{X: delta.X / dist, Y: delta.Y / dist}
	corr := normal.Scale((minDist - dist) * 0.5)
	a.Pos = a.Pos.Add(corr)
	b.Pos = b.Pos.Sub(corr)

	va := a.Pos.Sub(a.Prev)
	vb := b.Pos.Sub(b.Prev)
	vn := va.Sub(vb).Dot(normal)
	if vn >= 0 {
		return
	}

	j := normal.Scale(-(1 + s.Restitution) * vn * 0.5)
	a.Prev = a.Pos.Sub(va.Add(j))
	b.Prev = b.Pos.Sub(vb.Sub(j))
	s.stats.Impulses++
}

// ResolveAll rebuilds g from ps and walks the occupied cells in ascending
// order: pairs inside the cell first, then pairs against each forward
// neighbour.
func (s *Solver) ResolveAll(ps []particle.Particle, g *grid.Grid) {
	s.stats = Stats{}
	g.Rebuild(ps)

	for _, idx := range g.Dirty() {
		cell := g.Cell(idx)
		for i := 0; i < len(cell); i++ {
			a := &ps[cell[i]]
			for j := i + 1; j < len(cell); j++ {
				s.SolvePair(a, &ps[cell[j]])
			}
		}

		col, row := g.Coords(idx)
		for _, off := range grid.ForwardOffsets {
			n, ok := g.Neighbor(col, row, off)
			if !ok || !g.IsDirty(n) {
				continue
			}
			other := g.Cell(n)
			for _, i := range cell {
				a := &ps[i]
				for _, j := range other {
					s.SolvePair(a, &ps[j])
				}
			}
		}
	}
}

// ResolveBrute tests every i < j pair. It is the reference the grid pass is
// checked against and the naive broad phase.
func (s *Solver) ResolveBrute(ps []particle.Particle) {
	s.stats = Stats{}
	for i := range ps {
		for j := i + 1; j < len(ps); j++ {
			s.SolvePair(&ps[i], &ps[j])
		}
	}
}

// Resolve dispatches on the broad phase.
func (s *Solver) Resolve(mode Mode, ps []particle.Particle, g *grid.Grid) {
	if mode == ModeNaive {
		s.ResolveBrute(ps)
		return
	}
	s.ResolveAll(ps, g)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
