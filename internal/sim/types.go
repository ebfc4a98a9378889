package sim

import (
	"fmt"

	"github.com/lbartron/Verlet/internal/collision"
	"github.com/lbartron/Verlet/internal/grid"
	"github.com/lbartron/Verlet/internal/particle"
)

// Integrator advances one particle by dt under acc.
type Integrator interface {
	Integrate(p *particle.Particle, acc particle.Vec2, dt float64)
}

// Boundary keeps a particle inside the world.
type Boundary interface {
	Constrain(p *particle.Particle)
}

// Container is implemented by boundaries that can report containment.
type Container interface {
	Contains(p *particle.Particle) bool
}

// Namer is implemented by integrators and boundaries that have a config name.
type Namer interface {
	Name() string
}

// Spawner is the external collaborator that decides when particles appear.
// It must check Count against Capacity itself; AddParticle errors are not
// fatal to a run.
type Spawner interface {
	Spawn(e *Engine, frameTime float64) int
}

// Metric is updated after every physics step.
type Metric interface {
	Name() string
	Observe(e *Engine)
	Value() float64
	Reset()
}

// Sampler is implemented by metrics whose current value is recorded once per
// frame into Result.Series.
type Sampler interface {
	Sample() float64
}

type Observer interface {
	OnFrame(e *Engine, frame int)
}

type Config struct {
	WorldWidth   float64
	WorldHeight  float64
	MaxParticles int
	MaxRadius    float64
	CellScale    float64
	Gravity      particle.Vec2
	Restitution  float64
	Broadphase   collision.Mode
}

func DefaultConfig() Config {
	return Config{
		WorldWidth:   1920,
		WorldHeight:  1080,
		MaxParticles: 12000,
		MaxRadius:    5,
		CellScale:    grid.DefaultCellScale,
		Gravity:      particle.Vec2{X: 0, Y: 750},
		Restitution:  collision.DefaultRestitution,
		Broadphase:   collision.ModeGrid,
	}
}

func (c Config) Validate() error {
	if c.WorldWidth <= 0 || c.WorldHeight <= 0 {
		return fmt.Errorf("%w: world must be positive, got %.1fx%.1f", ErrInvalidConfig, c.WorldWidth, c.WorldHeight)
	}
	if c.MaxParticles <= 0 {
		return fmt.Errorf("%w: max particles must be positive, got %d", ErrInvalidConfig, c.MaxParticles)
	}
	if c.MaxRadius <= 0 {
		return fmt.Errorf("%w: max radius must be positive, got %f", ErrInvalidConfig, c.MaxRadius)
	}
	if 2*c.MaxRadius > c.WorldWidth || 2*c.MaxRadius > c.WorldHeight {
		return fmt.Errorf("%w: particles of radius %f do not fit the world", ErrInvalidConfig, c.MaxRadius)
	}
	if c.Restitution < 0 || c.Restitution > 1 {
		return fmt.Errorf("%w: restitution must be in [0, 1], got %f", ErrInvalidConfig, c.Restitution)
	}
	if !c.Gravity.IsValid() {
		return fmt.Errorf("%w: gravity must be finite", ErrInvalidConfig)
	}
	return nil
}

// CellSize is the grid edge derived from MaxRadius and CellScale.
func (c Config) CellSize() float64 {
	return grid.CellSizeFor(c.MaxRadius, c.CellScale)
}

type RunConfig struct {
	Frames        int
	FrameDt       float64
	Dt            float64
	MaxSubsteps   int
	MaxFrameTime  float64
	ValidateState bool
}

// DefaultRunConfig is ten seconds of 60 Hz frames over a 180 Hz physics tick.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Frames:        600,
		FrameDt:       1.0 / 60,
		Dt:            1.0 / 180,
		MaxSubsteps:   8,
		MaxFrameTime:  0.25,
		ValidateState: true,
	}
}

func (c RunConfig) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, c.Dt)
	}
	if c.FrameDt <= 0 {
		return fmt.Errorf("%w: frame dt must be positive, got %f", ErrInvalidConfig, c.FrameDt)
	}
	if c.Frames <= 0 {
		return fmt.Errorf("%w: frames must be positive, got %d", ErrInvalidConfig, c.Frames)
	}
	if c.MaxSubsteps < 0 {
		return fmt.Errorf("%w: max substeps must not be negative, got %d", ErrInvalidConfig, c.MaxSubsteps)
	}
	return nil
}

type Result struct {
	Times      []float64
	Counts     []int
	Series     map[string][]float64
	Metrics    map[string]float64
	StepsTaken int
	Frames     int
	Dropped    float64
	Errors     []error
}
