package metrics

import (
	"math"

	"github.com/lbartron/Verlet/internal/sim"
)

// Contacts is the mean number of overlapping pairs resolved per step.
type Contacts struct {
	name    string
	sum     float64
	last    int
	samples int
}

func NewContacts() *Contacts {
	return &Contacts{
		name: "contacts",
	}
}

func (c *Contacts) Name() string {
	return c.name
}

func (c *Contacts) Observe(e *sim.Engine) {
	c.last = e.SolverStats().Contacts
	c.sum += float64(c.last)
	c.samples++
}

func (c *Contacts) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *Contacts) Sample() float64 { return float64(c.last) }

func (c *Contacts) Reset() {
	c.sum = 0
	c.last = 0
	c.samples = 0
}

// Occupancy is the mean fraction of grid cells holding a particle.
type Occupancy struct {
	name    string
	sum     float64
	last    float64
	samples int
}

func NewOccupancy() *Occupancy {
	return &Occupancy{
		name: "occupancy",
	}
}

func (o *Occupancy) Name() string {
	return o.name
}

func (o *Occupancy) Observe(e *sim.Engine) {
	o.last = e.GridStats().Occupancy()
	o.sum += o.last
	o.samples++
}

func (o *Occupancy) Value() float64 {
	if o.samples == 0 {
		return 0
	}
	return o.sum / float64(o.samples)
}

func (o *Occupancy) Sample() float64 { return o.last }

func (o *Occupancy) Reset() {
	o.sum = 0
	o.last = 0
	o.samples = 0
}

// MaxSpeed is the highest particle speed seen over the run.
type MaxSpeed struct {
	name string
	max  float64
	last float64
}

func NewMaxSpeed() *MaxSpeed {
	return &MaxSpeed{
		name: "max_speed",
	}
}

func (m *MaxSpeed) Name() string {
	return m.name
}

func (m *MaxSpeed) Observe(e *sim.Engine) {
	m.last = MaxSpeedOf(e)
	m.max = math.Max(m.max, m.last)
}

func (m *MaxSpeed) Value() float64  { return m.max }
func (m *MaxSpeed) Sample() float64 { return m.last }
func (m *MaxSpeed) Reset()          { m.max, m.last = 0, 0 }
