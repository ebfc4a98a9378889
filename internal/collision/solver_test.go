package collision_test

import (
	"math"
	"math/rand"
	"slices"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lbartron/Verlet/internal/collision"
	"github.com/lbartron/Verlet/internal/grid"
	"github.com/lbartron/Verlet/internal/particle"
)

func body(x, y, r float64) particle.Particle {
	return particle.New(particle.Vec2{X: x, Y: y}, r, particle.Tag{})
}

func moving(x, y, dx, dy, r float64) particle.Particle {
	p := body(x, y, r)
	p.SetDisplacement(particle.Vec2{X: dx, Y: dy})
	return p
}

// isolatedPairs places one overlapping pair per lattice site, far enough
// apart that no particle touches anything outside its own pair.
func isolatedPairs(rng *rand.Rand, sites int, spacing float64) []particle.Particle {
	ps := make([]particle.Particle, 0, 2*sites*sites)
	for i := 0; i < sites; i++ {
		for j := 0; j < sites; j++ {
			cx := spacing/2 + float64(i)*spacing
			cy := spacing/2 + float64(j)*spacing
			ra := 3 + rng.Float64()*2
			rb := 3 + rng.Float64()*2
			angle := rng.Float64() * 2 * math.Pi
			d := 0.5 + rng.Float64()*(ra+rb-1)

			a := moving(cx, cy, rng.Float64()-0.5, rng.Float64()-0.5, ra)
			b := moving(cx+d*math.Cos(angle), cy+d*math.Sin(angle), rng.Float64()-0.5, rng.Float64()-0.5, rb)
			ps = append(ps, a, b)
		}
	}
	rng.Shuffle(len(ps), func(i, j int) { ps[i], ps[j] = ps[j], ps[i] })
	return ps
}

var _ = Describe("Solver", func() {
	var s *collision.Solver

	BeforeEach(func() {
		s = collision.NewSolver(collision.DefaultRestitution)
	})

	Describe("SolvePair", func() {
		It("separates an overlapping pair to exactly touching", func() {
			a := body(100, 100, 5)
			b := body(106, 100, 5)

			s.SolvePair(&a, &b)

			Expect(a.Pos.X).To(Equal(98.0))
			Expect(b.Pos.X).To(Equal(108.0))
			Expect(a.Pos.Y).To(Equal(100.0))
			Expect(b.Pos.Y).To(Equal(100.0))
			Expect(b.Pos.X - a.Pos.X).To(Equal(10.0))
			Expect((a.Pos.X + b.Pos.X) / 2).To(Equal(103.0))
		})

		It("leaves non-overlapping pairs alone", func() {
			a := moving(100, 100, 1, 0, 5)
			b := moving(110, 100, -1, 0, 5)
			ca, cb := a, b

			s.SolvePair(&a, &b)

			Expect(a).To(Equal(ca))
			Expect(b).To(Equal(cb))
			Expect(s.Stats().Contacts).To(BeZero())
		})

		It("is a no-op for a particle against itself", func() {
			a := moving(100, 100, 1, 1, 5)
			before := a

			s.SolvePair(&a, &a)

			Expect(a).To(Equal(before))
			Expect(s.Stats().PairsTested).To(BeZero())
		})

		It("applies no impulse to a separating pair", func() {
			a := moving(100, 100, -1, 0, 5)
			b := moving(108, 100, 1, 0, 5)
			prevA, prevB := a.Prev, b.Prev

			s.SolvePair(&a, &b)

			Expect(a.Prev).To(Equal(prevA))
			Expect(b.Prev).To(Equal(prevB))
			Expect(s.Stats().Impulses).To(BeZero())
			Expect(b.Pos.Sub(a.Pos).Len()).To(BeNumerically("~", 10, 1e-12))
		})

		It("reflects the approaching normal velocity scaled by restitution", func() {
			a := moving(100, 100, 1, 0, 5)
			b := moving(109, 100, -1, 0, 5)

			s.SolvePair(&a, &b)

			Expect(a.Pos.X).To(Equal(99.5))
			Expect(b.Pos.X).To(Equal(109.5))
			// post-correction approach speed is 1, so it leaves at e.
			rel := a.Displacement().Sub(b.Displacement())
			Expect(rel.X).To(BeNumerically("~", -collision.DefaultRestitution, 1e-12))
			Expect(a.Displacement().X).To(BeNumerically("~", -0.35, 1e-12))
			Expect(b.Displacement().X).To(BeNumerically("~", 0.35, 1e-12))
			Expect(s.Stats().Impulses).To(Equal(1))
		})

		It("conserves momentum for equal masses", func() {
			a := moving(100, 100, 0.7, 0.2, 5)
			b := moving(107, 103, -0.4, -0.1, 4)

			s.SolvePair(&a, &b)

			sum := a.Displacement().Add(b.Displacement())
			// positional correction shifts both displacements by equal and
			// opposite amounts, the impulse too.
			Expect(sum.X).To(BeNumerically("~", 0.3, 1e-12))
			Expect(sum.Y).To(BeNumerically("~", 0.1, 1e-12))
		})

		It("nudges coincident centres apart along x", func() {
			a := moving(50, 50, 1, 1, 5)
			b := moving(50, 50, -1, 2, 5)

			s.SolvePair(&a, &b)

			Expect(a.Pos.X).To(BeNumerically("~", 50.005, 1e-12))
			Expect(b.Pos.X).To(BeNumerically("~", 49.995, 1e-12))
			Expect(a.Pos.Y).To(Equal(50.0))
			Expect(a.Prev).To(Equal(a.Pos))
			Expect(b.Prev).To(Equal(b.Pos))
			Expect(a.Pos.IsValid()).To(BeTrue())
		})

		It("gives mirrored results when the arguments are swapped", func() {
			rng := rand.New(rand.NewSource(3))
			for i := 0; i < 200; i++ {
				a := moving(rng.Float64()*10, rng.Float64()*10, rng.Float64()-0.5, rng.Float64()-0.5, 3+rng.Float64()*2)
				b := moving(rng.Float64()*10, rng.Float64()*10, rng.Float64()-0.5, rng.Float64()-0.5, 3+rng.Float64()*2)
				a2, b2 := a, b

				s.SolvePair(&a, &b)
				s.SolvePair(&b2, &a2)

				Expect(a2).To(Equal(a))
				Expect(b2).To(Equal(b))
			}
		})

		It("never leaves an isolated pair overlapping", func() {
			rng := rand.New(rand.NewSource(9))
			for i := 0; i < 500; i++ {
				a := moving(0, 0, rng.Float64()*4-2, rng.Float64()*4-2, 3+rng.Float64()*2)
				b := moving(rng.Float64()*8-4, rng.Float64()*8-4, rng.Float64()*4-2, rng.Float64()*4-2, 3+rng.Float64()*2)

				s.SolvePair(&a, &b)

				Expect(a.Pos.Sub(b.Pos).Len()).To(BeNumerically(">=", a.Radius+b.Radius-1e-9))
			}
		})
	})

	Describe("NewSolver", func() {
		It("clamps restitution into [0, 1]", func() {
			Expect(collision.NewSolver(-1).Restitution).To(Equal(0.0))
			Expect(collision.NewSolver(3).Restitution).To(Equal(1.0))
			Expect(collision.NewSolver(0.4).Restitution).To(Equal(0.4))
		})
	})

	Describe("ResolveAll", func() {
		It("matches the brute-force pass on isolated pairs", func() {
			rng := rand.New(rand.NewSource(42))
			ps := isolatedPairs(rng, 10, 40)
			ref := slices.Clone(ps)

			g := grid.New(400, 400, grid.CellSizeFor(5, grid.DefaultCellScale))
			s.ResolveAll(ps, g)
			gridStats := s.Stats()

			brute := collision.NewSolver(collision.DefaultRestitution)
			brute.ResolveBrute(ref)

			Expect(gridStats.Contacts).To(Equal(100))
			Expect(gridStats.Contacts).To(Equal(brute.Stats().Contacts))
			Expect(gridStats.PairsTested).To(BeNumerically("<", brute.Stats().PairsTested))
			Expect(ps).To(Equal(ref))
		})

		It("tests each in-cell and forward-neighbour pair exactly once", func() {
			rng := rand.New(rand.NewSource(5))
			ps := make([]particle.Particle, 600)
			for i := range ps {
				ps[i] = body(rng.Float64()*300, rng.Float64()*200, 3+rng.Float64()*2)
			}

			g := grid.New(300, 200, grid.CellSizeFor(5, grid.DefaultCellScale))
			s.ResolveAll(ps, g)

			// the grid still holds the buckets from the start of the pass.
			want := 0
			for _, idx := range g.Dirty() {
				n := len(g.Cell(idx))
				want += n * (n - 1) / 2
				col, row := g.Coords(idx)
				for _, off := range grid.ForwardOffsets {
					if nb, ok := g.Neighbor(col, row, off); ok {
						want += n * len(g.Cell(nb))
					}
				}
			}
			Expect(s.Stats().PairsTested).To(Equal(want))
			Expect(s.Stats().Contacts).To(BeNumerically(">", 0))
		})

		It("resets the counters on every pass", func() {
			ps := []particle.Particle{body(100, 100, 5), body(106, 100, 5)}
			g := grid.New(200, 200, 15)

			s.ResolveAll(ps, g)
			Expect(s.Stats().Contacts).To(Equal(1))

			s.ResolveAll(ps, g)
			Expect(s.Stats().Contacts).To(BeZero())
			Expect(s.Stats().PairsTested).To(Equal(1))
		})

		It("is deterministic", func() {
			rng := rand.New(rand.NewSource(11))
			ps := make([]particle.Particle, 400)
			for i := range ps {
				ps[i] = moving(rng.Float64()*200, rng.Float64()*200, rng.Float64()-0.5, rng.Float64()-0.5, 4)
			}
			other := slices.Clone(ps)

			collision.NewSolver(0.7).ResolveAll(ps, grid.New(200, 200, 12))
			collision.NewSolver(0.7).ResolveAll(other, grid.New(200, 200, 12))

			Expect(ps).To(Equal(other))
		})

		It("relaxes a crowded heap over repeated passes", func() {
			rng := rand.New(rand.NewSource(13))
			ps := make([]particle.Particle, 200)
			for i := range ps {
				ps[i] = body(90+rng.Float64()*20, 90+rng.Float64()*20, 4)
			}
			g := grid.New(200, 200, 12)

			s.ResolveAll(ps, g)
			first := s.Stats().Contacts
			for i := 0; i < 200; i++ {
				s.ResolveAll(ps, g)
			}
			Expect(s.Stats().Contacts).To(BeNumerically("<", first))
			for i := range ps {
				Expect(ps[i].Pos.IsValid()).To(BeTrue())
			}
		})
	})

	DescribeTable("ParseMode",
		func(name string, want collision.Mode, ok bool) {
			got, err := collision.ParseMode(name)
			if !ok {
				Expect(err).To(HaveOccurred())
				return
			}
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
			Expect(got.String()).NotTo(BeEmpty())
		},
		Entry("default", "", collision.ModeGrid, true),
		Entry("grid", "grid", collision.ModeGrid, true),
		Entry("naive", "naive", collision.ModeNaive, true),
		Entry("unknown", "octree", collision.ModeGrid, false),
	)
})
