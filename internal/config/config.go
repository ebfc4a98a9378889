package config

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/lbartron/Verlet/internal/collision"
	"github.com/lbartron/Verlet/internal/particle"
	"github.com/lbartron/Verlet/internal/sim"
)

const (
	DefaultWidth        = 1920.0
	DefaultHeight       = 1080.0
	DefaultMaxParticles = 12000
	DefaultMinRadius    = 3.0
	DefaultMaxRadius    = 5.0
	DefaultCellScale    = 1.5
	DefaultGravity      = 750.0
	DefaultRestitution  = 0.7
	DefaultDt           = 1.0 / 180
	DefaultFrameDt      = 1.0 / 60
	DefaultSubsteps     = 8
	DefaultMaxFrameTime = 0.25
	DefaultFrames       = 600
)

type Config struct {
	Width        float64       `yaml:"width"`
	Height       float64       `yaml:"height"`
	MaxParticles int           `yaml:"max_particles"`
	MinRadius    float64       `yaml:"min_radius"`
	MaxRadius    float64       `yaml:"max_radius"`
	CellScale    float64       `yaml:"cell_scale"`
	Gravity      Vec           `yaml:"gravity"`
	Restitution  float64       `yaml:"restitution"`
	Boundary     string        `yaml:"boundary"`
	Integrator   string        `yaml:"integrator"`
	Damping      float64       `yaml:"damping"`
	Broadphase   string        `yaml:"broadphase"`
	Dt           float64       `yaml:"dt"`
	FrameDt      float64       `yaml:"frame_dt"`
	Substeps     int           `yaml:"substeps"`
	MaxFrameTime float64       `yaml:"max_frame_time"`
	Frames       int           `yaml:"frames"`
	Seed         int64         `yaml:"seed"`
	Spawner      SpawnerConfig `yaml:"spawner"`
}

type Vec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func (v Vec) Vec2() particle.Vec2 { return particle.Vec2{X: v.X, Y: v.Y} }

type SpawnerConfig struct {
	Kind string  `yaml:"kind"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	Rate float64 `yaml:"rate"`
	Cols int     `yaml:"cols"`
	Rows int     `yaml:"rows"`
}

var (
	boundaries  = []string{"rect", "circle"}
	integrators = []string{"verlet", "damped"}
	spawners    = []string{"none", "fountain", "rain", "block", "pair"}
)

func DefaultConfig() *Config {
	return &Config{
		Width:        DefaultWidth,
		Height:       DefaultHeight,
		MaxParticles: DefaultMaxParticles,
		MinRadius:    DefaultMinRadius,
		MaxRadius:    DefaultMaxRadius,
		CellScale:    DefaultCellScale,
		Gravity:      Vec{X: 0, Y: DefaultGravity},
		Restitution:  DefaultRestitution,
		Boundary:     "rect",
		Integrator:   "verlet",
		Damping:      1,
		Broadphase:   "grid",
		Dt:           DefaultDt,
		FrameDt:      DefaultFrameDt,
		Substeps:     DefaultSubsteps,
		MaxFrameTime: DefaultMaxFrameTime,
		Frames:       DefaultFrames,
		Seed:         1,
		Spawner: SpawnerConfig{
			Kind: "fountain",
			X:    DefaultWidth / 2,
			Y:    50,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns an independent copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

func (c *Config) Validate() error {
	if _, err := c.EngineConfig(); err != nil {
		return err
	}
	if err := c.RunConfig().Validate(); err != nil {
		return err
	}
	if c.MinRadius <= 0 || c.MinRadius > c.MaxRadius {
		return fmt.Errorf("min radius must be in (0, %g], got %g", c.MaxRadius, c.MinRadius)
	}
	if c.Integrator == "damped" && (c.Damping <= 0 || c.Damping > 1) {
		return fmt.Errorf("damping must be in (0, 1], got %g", c.Damping)
	}
	if !slices.Contains(boundaries, c.Boundary) {
		return fmt.Errorf("unknown boundary: %s", c.Boundary)
	}
	if !slices.Contains(integrators, c.Integrator) {
		return fmt.Errorf("unknown integrator: %s", c.Integrator)
	}
	if c.Spawner.Kind != "" && !slices.Contains(spawners, c.Spawner.Kind) {
		return fmt.Errorf("unknown spawner: %s", c.Spawner.Kind)
	}
	return nil
}

// EngineConfig maps the file format onto the engine's settings.
func (c *Config) EngineConfig() (sim.Config, error) {
	mode, err := collision.ParseMode(c.Broadphase)
	if err != nil {
		return sim.Config{}, err
	}
	ec := sim.Config{
		WorldWidth:   c.Width,
		WorldHeight:  c.Height,
		MaxParticles: c.MaxParticles,
		MaxRadius:    c.MaxRadius,
		CellScale:    c.CellScale,
		Gravity:      c.Gravity.Vec2(),
		Restitution:  c.Restitution,
		Broadphase:   mode,
	}
	if err := ec.Validate(); err != nil {
		return sim.Config{}, err
	}
	return ec, nil
}

func (c *Config) RunConfig() sim.RunConfig {
	return sim.RunConfig{
		Frames:        c.Frames,
		FrameDt:       c.FrameDt,
		Dt:            c.Dt,
		MaxSubsteps:   c.Substeps,
		MaxFrameTime:  c.MaxFrameTime,
		ValidateState: true,
	}
}
