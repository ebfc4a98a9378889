package metrics

import (
	"testing"

	"github.com/lbartron/Verlet/internal/particle"
	"github.com/lbartron/Verlet/internal/sim"
)

func TestContacts(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.Gravity = particle.Vec2{}
	e, err := sim.New(cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, x := range []float64{100, 106} {
		if _, err := e.AddParticle(particle.Vec2{X: x, Y: 100}, 5, particle.Tag{}); err != nil {
			t.Fatal(err)
		}
	}

	m := NewContacts()
	e.Step(dt)
	m.Observe(e)
	if m.Sample() != 1 {
		t.Errorf("expected 1 contact, got %f", m.Sample())
	}
	e.Step(dt)
	m.Observe(e)
	if m.Value() != 0.5 {
		t.Errorf("expected mean 0.5, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestOccupancy(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.WorldWidth, cfg.WorldHeight = 150, 150
	cfg.Gravity = particle.Vec2{}
	e, err := sim.New(cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.AddParticle(particle.Vec2{X: 7, Y: 7}, 5, particle.Tag{}); err != nil {
		t.Fatal(err)
	}

	m := NewOccupancy()
	e.Step(dt)
	m.Observe(e)

	// 10x10 cells of 15, one occupied.
	if m.Value() != 0.01 {
		t.Errorf("expected occupancy 0.01, got %f", m.Value())
	}
}

func TestMaxSpeed(t *testing.T) {
	e := engine(t, particle.Vec2{X: 64}, particle.Vec2{Y: -256})
	m := NewMaxSpeed()

	e.Step(dt)
	m.Observe(e)

	if got := m.Value(); got < 256-1e-6 || got > 256+1e-6 {
		t.Errorf("expected max speed 256, got %f", got)
	}
	if MaxSpeedOf(e) != m.Sample() {
		t.Error("expected sample to be the current max speed")
	}
}

func TestStability(t *testing.T) {
	e := engine(t, particle.Vec2{X: 64})
	e.Step(dt)

	tests := []struct {
		name      string
		threshold float64
		expected  float64
	}{
		{"below threshold", 100, 1},
		{"above threshold", 10, 0},
		{"no threshold", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStability(tt.threshold)
			s.Observe(e)
			if s.Value() != tt.expected {
				t.Errorf("expected %f, got %f", tt.expected, s.Value())
			}
		})
	}

	s := NewStability(10)
	if s.Value() != 1 {
		t.Error("expected full stability with no samples")
	}
}

func TestMetricsImplementSim(t *testing.T) {
	var _ sim.Metric = NewEnergy()
	var _ sim.Metric = NewEnergyGain()
	var _ sim.Metric = NewContacts()
	var _ sim.Metric = NewOccupancy()
	var _ sim.Metric = NewMaxSpeed()
	var _ sim.Metric = NewStability(1)
	var _ sim.Sampler = NewEnergy()
	var _ sim.Sampler = NewContacts()
}
