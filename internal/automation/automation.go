package automation

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lbartron/Verlet/internal/config"
	"github.com/lbartron/Verlet/internal/experiment"
	"github.com/lbartron/Verlet/internal/sim"
)

// Params lists the numeric config fields a scenario or sweep may set.
var Params = map[string]func(c *config.Config, v float64){
	"restitution":    func(c *config.Config, v float64) { c.Restitution = v },
	"gravity_x":      func(c *config.Config, v float64) { c.Gravity.X = v },
	"gravity_y":      func(c *config.Config, v float64) { c.Gravity.Y = v },
	"damping":        func(c *config.Config, v float64) { c.Damping = v },
	"cell_scale":     func(c *config.Config, v float64) { c.CellScale = v },
	"dt":             func(c *config.Config, v float64) { c.Dt = v },
	"width":          func(c *config.Config, v float64) { c.Width = v },
	"height":         func(c *config.Config, v float64) { c.Height = v },
	"max_particles":  func(c *config.Config, v float64) { c.MaxParticles = int(v) },
	"frames":         func(c *config.Config, v float64) { c.Frames = int(v) },
	"substeps":       func(c *config.Config, v float64) { c.Substeps = int(v) },
	"spawn_rate":     func(c *config.Config, v float64) { c.Spawner.Rate = v },
	"max_frame_time": func(c *config.Config, v float64) { c.MaxFrameTime = v },
}

// ApplyParam sets one named parameter on cfg.
func ApplyParam(cfg *config.Config, name string, value float64) error {
	fn, ok := Params[name]
	if !ok {
		return fmt.Errorf("unknown parameter: %s", name)
	}
	fn(cfg, value)
	return nil
}

func ParamNames() []string {
	names := make([]string, 0, len(Params))
	for name := range Params {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single step in a scenario
type ScenarioStep struct {
	Preset     string             `yaml:"preset"`
	Spawner    string             `yaml:"spawner"`
	Boundary   string             `yaml:"boundary"`
	Integrator string             `yaml:"integrator"`
	Broadphase string             `yaml:"broadphase"`
	Frames     int                `yaml:"frames"`
	Seed       int64              `yaml:"seed"`
	Params     map[string]float64 `yaml:"params"`
	SaveAs     string             `yaml:"save_as"`
}

// StepResult pairs a finished step with the config it ran.
type StepResult struct {
	Step   ScenarioStep
	Config *config.Config
	Result *sim.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}

	return &scenario, nil
}

// Config resolves the step into a full config: preset "group/name" or the
// defaults, then names, then numeric params.
func (s ScenarioStep) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		group, name, ok := strings.Cut(s.Preset, "/")
		if !ok {
			return nil, fmt.Errorf("preset must be group/name, got %q", s.Preset)
		}
		cfg = config.GetPreset(group, name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	}

	if s.Spawner != "" {
		cfg.Spawner.Kind = s.Spawner
	}
	if s.Boundary != "" {
		cfg.Boundary = s.Boundary
	}
	if s.Integrator != "" {
		cfg.Integrator = s.Integrator
	}
	if s.Broadphase != "" {
		cfg.Broadphase = s.Broadphase
	}
	if s.Frames > 0 {
		cfg.Frames = s.Frames
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}

	names := make([]string, 0, len(s.Params))
	for k := range s.Params {
		names = append(names, k)
	}
	slices.Sort(names)
	for _, k := range names {
		if err := ApplyParam(cfg, k, s.Params[k]); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// RunScenario executes all steps in a scenario
func RunScenario(ctx context.Context, scenario *Scenario, out io.Writer) ([]StepResult, error) {
	if out == nil {
		out = io.Discard
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		fmt.Fprintf(out, "Running step %d/%d: %s (%s, %d frames)\n", i+1, len(scenario.Steps), cfg.Spawner.Kind, cfg.Boundary, cfg.Frames)

		exp := experiment.New(cfg)
		if err := exp.Setup(experiment.DefaultMetrics()); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, StepResult{Step: step, Config: cfg, Result: result})
	}

	return results, nil
}

// ParameterSweep runs simulations across a range of parameter values
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue float64
	FinalCount int
	MaxEnergy  float64
	MinEnergy  float64
	Contacts   float64
	EnergyGain float64
	Stability  float64
	Steps      int
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, out io.Writer) ([]SweepResult, error) {
	if out == nil {
		out = io.Discard
	}
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", sweep.NumSteps)
	}
	if _, ok := Params[sweep.ParamName]; !ok {
		return nil, fmt.Errorf("unknown parameter: %s", sweep.ParamName)
	}

	results := make([]SweepResult, 0, sweep.NumSteps)

	paramStep := 0.0
	if sweep.NumSteps > 1 {
		paramStep = (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)
	}

	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep

		cfg := sweep.Base.Clone()
		if err := ApplyParam(cfg, sweep.ParamName, paramVal); err != nil {
			return nil, err
		}

		exp := experiment.New(cfg)
		if err := exp.Setup(experiment.DefaultMetrics()); err != nil {
			return nil, fmt.Errorf("%s=%.4f: %w", sweep.ParamName, paramVal, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return nil, err
		}

		minE, maxE := seriesRange(result.Series["energy"])
		final := 0
		if n := len(result.Counts); n > 0 {
			final = result.Counts[n-1]
		}

		results = append(results, SweepResult{
			ParamValue: paramVal,
			FinalCount: final,
			MaxEnergy:  maxE,
			MinEnergy:  minE,
			Contacts:   result.Metrics["contacts"],
			EnergyGain: result.Metrics["energy_gain"],
			Stability:  result.Metrics["stability"],
			Steps:      result.StepsTaken,
		})

		fmt.Fprintf(out, "Sweep %d/%d: %s=%.4f\n", i+1, sweep.NumSteps, sweep.ParamName, paramVal)
	}

	return results, nil
}

func seriesRange(xs []float64) (lo, hi float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}

// MonteCarloConfig runs the same config under different seeds.
type MonteCarloConfig struct {
	Base      *config.Config
	NumTrials int
	Seed      int64
	Workers   int
}

// MonteCarloResult holds statistics from Monte Carlo runs
type MonteCarloResult struct {
	TrialID    int
	Seed       int64
	FinalCount int
	Stable     bool // no invalid state and no stability violations
}

// RunMonteCarlo executes the trials concurrently, one engine per trial.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig) ([]MonteCarloResult, error) {
	ens := sim.NewEnsemble(experiment.Factory(cfg.Base), cfg.NumTrials, cfg.Seed)
	ens.SetLimit(cfg.Workers)

	runs, err := ens.Run(ctx, cfg.Base.RunConfig())
	if err != nil {
		return nil, err
	}

	results := make([]MonteCarloResult, 0, len(runs))
	for i, r := range runs {
		final := 0
		if n := len(r.Counts); n > 0 {
			final = r.Counts[n-1]
		}
		results = append(results, MonteCarloResult{
			TrialID:    i,
			Seed:       cfg.Seed + int64(i),
			FinalCount: final,
			Stable:     len(r.Errors) == 0 && r.Metrics["stability"] == 1,
		})
	}
	return results, nil
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
