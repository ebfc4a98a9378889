package experiment

import (
	"context"
	"fmt"

	"github.com/lbartron/Verlet/internal/config"
	"github.com/lbartron/Verlet/internal/metrics"
	"github.com/lbartron/Verlet/internal/sim"
)

// StabilitySpeed is the speed above which a step counts against stability.
const StabilitySpeed = 5000.0

type Experiment struct {
	cfg       *config.Config
	registry  *Registry
	simulator *sim.Simulator
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{
		cfg:      cfg,
		registry: NewRegistry(),
	}
}

// DefaultMetrics returns a fresh set of the standard run metrics.
func DefaultMetrics() []sim.Metric {
	return []sim.Metric{
		metrics.NewEnergy(),
		metrics.NewEnergyGain(),
		metrics.NewContacts(),
		metrics.NewOccupancy(),
		metrics.NewMaxSpeed(),
		metrics.NewStability(StabilitySpeed),
	}
}

// Setup validates the config and wires engine, spawner and metrics.
func (e *Experiment) Setup(ms []sim.Metric) error {
	if err := e.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ec, err := e.cfg.EngineConfig()
	if err != nil {
		return err
	}
	integ, err := e.registry.GetIntegrator(e.cfg.Integrator, e.cfg)
	if err != nil {
		return err
	}
	bound, err := e.registry.GetBoundary(e.cfg.Boundary, e.cfg)
	if err != nil {
		return err
	}
	spawner, err := e.registry.GetSpawner(e.cfg.Spawner.Kind, e.cfg)
	if err != nil {
		return err
	}

	engine, err := sim.New(ec, integ, bound)
	if err != nil {
		return err
	}

	e.simulator = sim.NewSimulator(engine, spawner)
	for _, m := range ms {
		e.simulator.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.cfg.RunConfig())
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

// Factory builds ensemble members from cfg, each with its own seed and a
// fresh set of default metrics.
func Factory(cfg *config.Config) sim.Factory {
	return func(seed int64) (*sim.Simulator, error) {
		c := cfg.Clone()
		c.Seed = seed
		exp := New(c)
		if err := exp.Setup(DefaultMetrics()); err != nil {
			return nil, err
		}
		return exp.GetSimulator(), nil
	}
}
