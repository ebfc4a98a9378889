// Package spawn decides when particles appear. Every spawner checks the
// engine's capacity before adding, so a full engine is never an error.
package spawn

import (
	"math/rand"

	"github.com/lbartron/Verlet/internal/particle"
	"github.com/lbartron/Verlet/internal/sim"
)

// DefaultHueCycle is the number of particles per full rainbow.
const DefaultHueCycle = 1200

// randint returns a uniform integer in [lo, hi].
func randint(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// add spawns one particle moving at v. It reports false once the engine is
// full.
func add(e *sim.Engine, pos particle.Vec2, radius float64, v particle.Vec2, dt float64) bool {
	if e.Count() >= e.Capacity() {
		return false
	}
	h, err := e.AddParticle(pos, radius, particle.Rainbow(e.Count(), DefaultHueCycle))
	if err != nil {
		return false
	}
	if v != (particle.Vec2{}) {
		_ = e.SetVelocity(h, v, dt)
	}
	return true
}

// Emitter is a fountain: every Interval seconds it fires a batch of
// particles from Origin with random radii in [MinRadius, MaxRadius] and
// integer velocities.
type Emitter struct {
	Origin     particle.Vec2
	Batch      int
	Interval   float64
	MinRadius  float64
	MaxRadius  float64
	VelX, VelY [2]int
	Dt         float64

	rng   *rand.Rand
	timer float64
}

// NewEmitter returns a fountain at origin with the classic constants: ten
// particles every 2.5 ms, radius 3 to 5, vx in [-500, 500] and vy in
// [50, 300].
func NewEmitter(origin particle.Vec2, dt float64, seed int64) *Emitter {
	return &Emitter{
		Origin:    origin,
		Batch:     10,
		Interval:  0.0025,
		MinRadius: 3,
		MaxRadius: 5,
		VelX:      [2]int{-500, 500},
		VelY:      [2]int{50, 300},
		Dt:        dt,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

func (em *Emitter) Name() string { return "fountain" }

// Spawn fires at most one batch per frame.
func (em *Emitter) Spawn(e *sim.Engine, frameTime float64) int {
	em.timer += frameTime
	if em.timer < em.Interval {
		return 0
	}
	em.timer = 0

	n := 0
	for i := 0; i < em.Batch; i++ {
		r := uniform(em.rng, em.MinRadius, em.MaxRadius)
		v := particle.Vec2{
			X: float64(randint(em.rng, em.VelX[0], em.VelX[1])),
			Y: float64(randint(em.rng, em.VelY[0], em.VelY[1])),
		}
		if !add(e, em.Origin, r, v, em.Dt) {
			break
		}
		n++
	}
	return n
}

// Rain drops particles at random x along the top edge at Rate per second.
type Rain struct {
	Rate      float64
	MinRadius float64
	MaxRadius float64
	Speed     float64
	Dt        float64

	rng  *rand.Rand
	owed float64
}

func NewRain(rate, minRadius, maxRadius, dt float64, seed int64) *Rain {
	return &Rain{
		Rate:      rate,
		MinRadius: minRadius,
		MaxRadius: maxRadius,
		Speed:     100,
		Dt:        dt,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

func (r *Rain) Name() string { return "rain" }

func (r *Rain) Spawn(e *sim.Engine, frameTime float64) int {
	r.owed += r.Rate * frameTime
	width := e.Config().WorldWidth

	n := 0
	for r.owed >= 1 {
		r.owed--
		radius := uniform(r.rng, r.MinRadius, r.MaxRadius)
		pos := particle.Vec2{X: uniform(r.rng, radius, width-radius), Y: radius}
		if !add(e, pos, radius, particle.Vec2{Y: r.Speed}, r.Dt) {
			r.owed = 0
			break
		}
		n++
	}
	return n
}

// Block places a resting lattice once, starting at Origin.
type Block struct {
	Origin     particle.Vec2
	Cols, Rows int
	Radius     float64
	Spacing    float64

	done bool
}

func NewBlock(origin particle.Vec2, cols, rows int, radius float64) *Block {
	return &Block{Origin: origin, Cols: cols, Rows: rows, Radius: radius, Spacing: 2*radius + 1}
}

func (b *Block) Name() string { return "block" }

func (b *Block) Spawn(e *sim.Engine, _ float64) int {
	if b.done {
		return 0
	}
	b.done = true

	n := 0
	for row := 0; row < b.Rows; row++ {
		for col := 0; col < b.Cols; col++ {
			pos := particle.Vec2{
				X: b.Origin.X + float64(col)*b.Spacing,
				Y: b.Origin.Y + float64(row)*b.Spacing,
			}
			if !add(e, pos, b.Radius, particle.Vec2{}, 0) {
				return n
			}
			n++
		}
	}
	return n
}

// Pair places two particles once, overlapping by 0.8 radius. NewPair(5)
// gives particles at (100, 100) and (106, 100), overlapping by 4.
type Pair struct {
	A, B   particle.Vec2
	Radius float64
	VA, VB particle.Vec2
	Dt     float64

	done bool
}

func NewPair(radius float64) *Pair {
	return &Pair{
		A:      particle.Vec2{X: 100, Y: 100},
		B:      particle.Vec2{X: 100 + radius*6/5, Y: 100},
		Radius: radius,
	}
}

func (p *Pair) Name() string { return "pair" }

func (p *Pair) Spawn(e *sim.Engine, _ float64) int {
	if p.done {
		return 0
	}
	p.done = true

	n := 0
	if add(e, p.A, p.Radius, p.VA, p.Dt) {
		n++
	}
	if add(e, p.B, p.Radius, p.VB, p.Dt) {
		n++
	}
	return n
}
