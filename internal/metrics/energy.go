package metrics

import (
	"math"

	"github.com/lbartron/Verlet/internal/particle"
	"github.com/lbartron/Verlet/internal/sim"
)

// KineticEnergy is the total unit-mass kinetic energy, with each velocity
// taken as the last step's displacement over the last dt.
func KineticEnergy(e *sim.Engine) float64 {
	dt := e.LastDt()
	if dt <= 0 {
		return 0
	}
	inv := 1 / (dt * dt)
	sum := 0.0
	e.ForEachBody(func(p particle.Particle) {
		sum += p.Displacement().LenSq()
	})
	return 0.5 * sum * inv
}

// Energy tracks kinetic energy. Value is the last observation.
type Energy struct {
	name    string
	samples int
	last    float64
	total   float64
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (m *Energy) Name() string { return m.name }

func (m *Energy) Observe(e *sim.Engine) {
	m.last = KineticEnergy(e)
	m.total += m.last
	m.samples++
}

func (m *Energy) Value() float64  { return m.last }
func (m *Energy) Sample() float64 { return m.last }

// Mean is the average over every observed step.
func (m *Energy) Mean() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

func (m *Energy) Reset() {
	m.last = 0
	m.total = 0
	m.samples = 0
}

// EnergyGain is the largest step-over-step increase in kinetic energy,
// relative to the previous step. Spawning adds energy, so steps where the
// particle count changed are skipped.
type EnergyGain struct {
	name      string
	prev      float64
	prevCount int
	maxGain   float64
	samples   int
}

func NewEnergyGain() *EnergyGain {
	return &EnergyGain{name: "energy_gain"}
}

func (m *EnergyGain) Name() string { return m.name }

func (m *EnergyGain) Observe(e *sim.Engine) {
	energy := KineticEnergy(e)
	count := e.Count()

	if m.samples > 0 && count == m.prevCount && m.prev > 0 {
		gain := (energy - m.prev) / m.prev
		m.maxGain = math.Max(m.maxGain, gain)
	}

	m.prev = energy
	m.prevCount = count
	m.samples++
}

func (m *EnergyGain) Value() float64 {
	return m.maxGain
}

func (m *EnergyGain) Reset() {
	m.prev = 0
	m.prevCount = 0
	m.maxGain = 0
	m.samples = 0
}
