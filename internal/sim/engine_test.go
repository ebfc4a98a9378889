package sim_test

import (
	"errors"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lbartron/Verlet/internal/boundary"
	"github.com/lbartron/Verlet/internal/collision"
	"github.com/lbartron/Verlet/internal/particle"
	"github.com/lbartron/Verlet/internal/sim"
)

func vec(x, y float64) particle.Vec2 { return particle.Vec2{X: x, Y: y} }

func mustEngine(cfg sim.Config) *sim.Engine {
	e, err := sim.New(cfg, nil, nil)
	Expect(err).NotTo(HaveOccurred())
	return e
}

func mustAdd(e *sim.Engine, pos particle.Vec2, r float64, v particle.Vec2, dt float64) sim.Handle {
	h, err := e.AddParticle(pos, r, particle.Tag{})
	Expect(err).NotTo(HaveOccurred())
	Expect(e.SetVelocity(h, v, dt)).To(Succeed())
	return h
}

func positions(e *sim.Engine) []particle.Vec2 {
	out := make([]particle.Vec2, 0, e.Count())
	e.ForEachParticle(func(pos particle.Vec2, _ float64, _ particle.Tag) {
		out = append(out, pos)
	})
	return out
}

func kinetic(e *sim.Engine) float64 {
	sum := 0.0
	e.ForEachBody(func(p particle.Particle) {
		sum += p.Displacement().LenSq()
	})
	return sum
}

var _ = Describe("Engine", func() {
	const dt = 1.0 / 480

	var cfg sim.Config

	BeforeEach(func() {
		cfg = sim.DefaultConfig()
		cfg.MaxRadius = 10
	})

	DescribeTable("rejects invalid configs",
		func(mutate func(*sim.Config)) {
			c := sim.DefaultConfig()
			mutate(&c)
			_, err := sim.New(c, nil, nil)
			Expect(err).To(MatchError(sim.ErrInvalidConfig))
		},
		Entry("zero width", func(c *sim.Config) { c.WorldWidth = 0 }),
		Entry("negative height", func(c *sim.Config) { c.WorldHeight = -1 }),
		Entry("no capacity", func(c *sim.Config) { c.MaxParticles = 0 }),
		Entry("zero radius", func(c *sim.Config) { c.MaxRadius = 0 }),
		Entry("radius wider than world", func(c *sim.Config) { c.WorldHeight = 8 }),
		Entry("restitution above one", func(c *sim.Config) { c.Restitution = 1.5 }),
		Entry("negative restitution", func(c *sim.Config) { c.Restitution = -0.1 }),
	)

	Describe("AddParticle", func() {
		It("issues sequential handles and starts at rest", func() {
			e := mustEngine(cfg)
			for i := 0; i < 3; i++ {
				h, err := e.AddParticle(vec(100+float64(i)*30, 100), 5, particle.Tag{})
				Expect(err).NotTo(HaveOccurred())
				Expect(h).To(Equal(sim.Handle(i)))
			}
			p, ok := e.Particle(1)
			Expect(ok).To(BeTrue())
			Expect(p.Pos).To(Equal(vec(130, 100)))
			Expect(p.Prev).To(Equal(p.Pos))
			Expect(e.Count()).To(Equal(3))
		})

		It("refuses to grow past capacity", func() {
			cfg.MaxParticles = 2
			e := mustEngine(cfg)
			_, err := e.AddParticle(vec(100, 100), 5, particle.Tag{})
			Expect(err).NotTo(HaveOccurred())
			_, err = e.AddParticle(vec(200, 100), 5, particle.Tag{})
			Expect(err).NotTo(HaveOccurred())

			_, err = e.AddParticle(vec(300, 100), 5, particle.Tag{})
			Expect(errors.Is(err, sim.ErrCapacity)).To(BeTrue())
			Expect(e.Count()).To(Equal(e.Capacity()))
		})

		DescribeTable("rejects bad radii",
			func(r float64) {
				e := mustEngine(cfg)
				_, err := e.AddParticle(vec(100, 100), r, particle.Tag{})
				Expect(err).To(MatchError(sim.ErrInvalidRadius))
				Expect(e.Count()).To(BeZero())
			},
			Entry("zero", 0.0),
			Entry("negative", -3.0),
			Entry("larger than the grid allows", 11.0),
		)

		It("rejects unknown handles", func() {
			e := mustEngine(cfg)
			Expect(e.SetVelocity(0, vec(1, 1), dt)).To(MatchError(sim.ErrInvalidHandle))
			_, ok := e.Particle(-1)
			Expect(ok).To(BeFalse())
		})
	})

	Describe("Step", func() {
		It("moves nothing when dt is zero", func() {
			rng := rand.New(rand.NewSource(1))
			e := mustEngine(cfg)
			for i := 0; i < 50; i++ {
				mustAdd(e, vec(50+rng.Float64()*1800, 50+rng.Float64()*900), 5, vec(rng.Float64()*200-100, rng.Float64()*200-100), dt)
			}
			e.SetGravity(particle.Vec2{})
			before := positions(e)

			for i := 0; i < 10; i++ {
				e.Step(0)
			}

			Expect(positions(e)).To(Equal(before))
			Expect(e.Time()).To(BeZero())
			Expect(e.Steps()).To(BeZero())
		})

		It("leaves a resting, separated layout untouched", func() {
			e := mustEngine(cfg)
			e.SetGravity(particle.Vec2{})
			for i := 0; i < 20; i++ {
				_, err := e.AddParticle(vec(40+float64(i)*30, 500), 5, particle.Tag{})
				Expect(err).NotTo(HaveOccurred())
			}
			before := positions(e)

			for i := 0; i < 10; i++ {
				e.Step(dt)
			}

			Expect(positions(e)).To(Equal(before))
		})

		It("clamps a particle against the left wall at exactly its radius", func() {
			e := mustEngine(cfg)
			h := mustAdd(e, vec(50, 50), 10, vec(-1000, 0), dt)

			reached := false
			for i := 0; i < 100; i++ {
				e.Step(dt)
				p, _ := e.Particle(h)
				Expect(p.Pos.X).To(BeNumerically(">=", 10))
				if p.Pos.X == 10 {
					reached = true
				}
			}

			p, _ := e.Particle(h)
			Expect(reached).To(BeTrue())
			Expect(p.Pos.X).To(Equal(10.0))
		})

		It("keeps every particle inside the world", func() {
			rng := rand.New(rand.NewSource(2))
			cfg.WorldWidth, cfg.WorldHeight = 400, 300
			cfg.MaxRadius = 5
			e := mustEngine(cfg)
			for i := 0; i < 500; i++ {
				mustAdd(e, vec(rng.Float64()*400, rng.Float64()*300), 3+rng.Float64()*2, vec(rng.Float64()*600-300, rng.Float64()*600-300), dt)
			}

			for i := 0; i < 300; i++ {
				e.Step(dt)
				Expect(e.Contained()).To(BeTrue())
			}
			e.ForEachBody(func(p particle.Particle) {
				Expect(p.Pos.X).To(BeNumerically(">=", p.Radius))
				Expect(p.Pos.X).To(BeNumerically("<=", 400-p.Radius))
				Expect(p.Pos.Y).To(BeNumerically(">=", p.Radius))
				Expect(p.Pos.Y).To(BeNumerically("<=", 300-p.Radius))
			})
			Expect(e.Validate()).To(Succeed())
		})

		It("never gains kinetic energy through head-on contacts", func() {
			rng := rand.New(rand.NewSource(3))
			cfg.WorldWidth, cfg.WorldHeight = 4000, 4000
			cfg.Gravity = particle.Vec2{}
			e := mustEngine(cfg)

			// one pair per row, moving along x only, far from the walls.
			for row := 0; row < 20; row++ {
				y := 1000 + float64(row)*50
				x := 1800 + rng.Float64()*100
				gap := 15 + rng.Float64()*40
				va := 60 + rng.Float64()*120
				vb := -(60 + rng.Float64()*120)
				mustAdd(e, vec(x, y), 5, vec(va, 0), dt)
				mustAdd(e, vec(x+gap, y), 3+rng.Float64()*2, vec(vb, 0), dt)
			}

			prev := kinetic(e)
			contacts := 0
			for i := 0; i < 1500; i++ {
				e.Step(dt)
				contacts += e.SolverStats().Contacts
				ke := kinetic(e)
				Expect(ke).To(BeNumerically("<=", prev*(1+1e-9)+1e-12), "step %d", i)
				prev = ke
			}
			Expect(contacts).To(BeNumerically(">=", 20))
			Expect(e.Contained()).To(BeTrue())
		})

		// The positional correction becomes velocity under Verlet, so an
		// overlap larger than the approach speed injects energy.
		It("turns a resting overlap into separation velocity", func() {
			cfg.Gravity = particle.Vec2{}
			e := mustEngine(cfg)
			a := mustAdd(e, vec(500, 500), 5, particle.Vec2{}, dt)
			b := mustAdd(e, vec(506, 500), 5, particle.Vec2{}, dt)
			Expect(kinetic(e)).To(BeZero())

			e.Step(dt)

			pa, _ := e.Particle(a)
			pb, _ := e.Particle(b)
			Expect(pa.Displacement()).To(Equal(vec(-2, 0)))
			Expect(pb.Displacement()).To(Equal(vec(2, 0)))
			Expect(kinetic(e)).To(BeNumerically(">", 0))
		})

		It("is deterministic for a fixed input sequence", func() {
			build := func() *sim.Engine {
				rng := rand.New(rand.NewSource(4))
				e := mustEngine(cfg)
				for i := 0; i < 300; i++ {
					mustAdd(e, vec(800+rng.Float64()*300, 100+rng.Float64()*300), 3+rng.Float64()*2, vec(rng.Float64()*100-50, 0), dt)
				}
				return e
			}
			a, b := build(), build()

			for i := 0; i < 200; i++ {
				a.Step(dt)
				b.Step(dt)
			}
			Expect(positions(a)).To(Equal(positions(b)))
		})

		It("gives the same result with either broad phase on isolated pairs", func() {
			naiveCfg := cfg
			naiveCfg.Broadphase = collision.ModeNaive
			g, n := mustEngine(cfg), mustEngine(naiveCfg)

			for _, e := range []*sim.Engine{g, n} {
				e.SetGravity(particle.Vec2{})
				for i := 0; i < 10; i++ {
					x := 100 + float64(i)*150
					mustAdd(e, vec(x, 500), 5, vec(200, 30), dt)
					mustAdd(e, vec(x+7, 503), 5, vec(-200, -10), dt)
				}
			}

			g.Step(dt)
			n.Step(dt)
			Expect(positions(g)).To(Equal(positions(n)))
			Expect(g.SolverStats().Contacts).To(Equal(n.SolverStats().Contacts))
			Expect(g.SolverStats().PairsTested).To(BeNumerically("<", n.SolverStats().PairsTested))
		})

		It("uses the configured boundary policy", func() {
			circle := boundary.NewCircle(cfg.WorldWidth, cfg.WorldHeight, 1)
			e, err := sim.New(cfg, nil, circle)
			Expect(err).NotTo(HaveOccurred())
			h := mustAdd(e, vec(960, 540), 5, vec(0, 0), dt)
			e.SetGravity(vec(0, 2000))

			for i := 0; i < 2000; i++ {
				e.Step(dt)
			}

			p, _ := e.Particle(h)
			Expect(p.Pos.Sub(circle.Center).Len()).To(BeNumerically("~", circle.Radius-5, 1))
			Expect(p.Pos.Y).To(BeNumerically(">", 1000))
		})
	})

	Describe("Reset", func() {
		It("empties the store and rewinds the clock", func() {
			e := mustEngine(cfg)
			mustAdd(e, vec(100, 100), 5, vec(10, 0), dt)
			e.SetGravity(vec(0, 1))
			e.Step(dt)

			e.Reset()

			Expect(e.Count()).To(BeZero())
			Expect(e.Time()).To(BeZero())
			Expect(e.Steps()).To(BeZero())
			Expect(e.Gravity()).To(Equal(cfg.Gravity))
			Expect(e.Capacity()).To(Equal(cfg.MaxParticles))
		})
	})

	It("reports grid occupancy after a step", func() {
		e := mustEngine(cfg)
		mustAdd(e, vec(100, 100), 5, vec(0, 0), dt)
		mustAdd(e, vec(900, 500), 5, vec(0, 0), dt)
		e.Step(dt)

		s := e.GridStats()
		Expect(s.Particles).To(Equal(2))
		Expect(s.DirtyCells).To(Equal(2))
	})
})
