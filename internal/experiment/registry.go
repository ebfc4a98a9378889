package experiment

import (
	"fmt"
	"slices"

	"github.com/lbartron/Verlet/internal/boundary"
	"github.com/lbartron/Verlet/internal/config"
	"github.com/lbartron/Verlet/internal/integrators"
	"github.com/lbartron/Verlet/internal/particle"
	"github.com/lbartron/Verlet/internal/sim"
	"github.com/lbartron/Verlet/internal/spawn"
)

type Registry struct {
	boundaries  map[string]func(*config.Config) sim.Boundary
	integrators map[string]func(*config.Config) sim.Integrator
	spawners    map[string]func(*config.Config) sim.Spawner
}

func NewRegistry() *Registry {
	r := &Registry{
		boundaries:  make(map[string]func(*config.Config) sim.Boundary),
		integrators: make(map[string]func(*config.Config) sim.Integrator),
		spawners:    make(map[string]func(*config.Config) sim.Spawner),
	}

	r.boundaries["rect"] = func(c *config.Config) sim.Boundary {
		return boundary.Rect{Width: c.Width, Height: c.Height}
	}
	r.boundaries["circle"] = func(c *config.Config) sim.Boundary {
		return boundary.NewCircle(c.Width, c.Height, c.Restitution)
	}

	r.integrators["verlet"] = func(*config.Config) sim.Integrator { return integrators.NewVerlet() }
	r.integrators["damped"] = func(c *config.Config) sim.Integrator { return integrators.NewDampedVerlet(c.Damping) }

	r.spawners["none"] = func(*config.Config) sim.Spawner { return nil }
	r.spawners["fountain"] = func(c *config.Config) sim.Spawner {
		em := spawn.NewEmitter(particle.Vec2{X: c.Spawner.X, Y: c.Spawner.Y}, c.Dt, c.Seed)
		em.MinRadius = c.MinRadius
		em.MaxRadius = c.MaxRadius
		return em
	}
	r.spawners["rain"] = func(c *config.Config) sim.Spawner {
		return spawn.NewRain(c.Spawner.Rate, c.MinRadius, c.MaxRadius, c.Dt, c.Seed)
	}
	r.spawners["block"] = func(c *config.Config) sim.Spawner {
		return spawn.NewBlock(particle.Vec2{X: c.Spawner.X, Y: c.Spawner.Y}, c.Spawner.Cols, c.Spawner.Rows, c.MaxRadius)
	}
	r.spawners["pair"] = func(c *config.Config) sim.Spawner { return spawn.NewPair(c.MaxRadius) }

	return r
}

func (r *Registry) GetBoundary(name string, cfg *config.Config) (sim.Boundary, error) {
	fn, ok := r.boundaries[name]
	if !ok {
		return nil, fmt.Errorf("unknown boundary: %s", name)
	}
	return fn(cfg), nil
}

func (r *Registry) GetIntegrator(name string, cfg *config.Config) (sim.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(cfg), nil
}

// GetSpawner returns a nil spawner for "none" and the empty name.
func (r *Registry) GetSpawner(name string, cfg *config.Config) (sim.Spawner, error) {
	if name == "" {
		name = "none"
	}
	fn, ok := r.spawners[name]
	if !ok {
		return nil, fmt.Errorf("unknown spawner: %s", name)
	}
	return fn(cfg), nil
}

func (r *Registry) ListBoundaries() []string  { return sortedKeys(r.boundaries) }
func (r *Registry) ListIntegrators() []string { return sortedKeys(r.integrators) }
func (r *Registry) ListSpawners() []string    { return sortedKeys(r.spawners) }

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
