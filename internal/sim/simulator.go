package sim

import "context"

// Simulator drives an Engine through synthetic frames: advance the fixed
// step accumulator, spawn, sample metrics.
type Simulator struct {
	engine    *Engine
	spawner   Spawner
	metrics   []Metric
	observers []Observer
}

func NewSimulator(engine *Engine, spawner Spawner) *Simulator {
	return &Simulator{
		engine:    engine,
		spawner:   spawner,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) Engine() *Engine        { return s.engine }
func (s *Simulator) Metrics() []Metric      { return s.metrics }
func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Frame runs one presentation frame: as many fixed steps as acc has banked,
// then the spawner. New particles first move in the next frame. It returns
// the number of steps taken.
func (s *Simulator) Frame(acc *Accumulator, frameTime float64) int {
	n := acc.Advance(frameTime, s.step)
	if s.spawner != nil {
		s.spawner.Spawn(s.engine, frameTime)
	}
	return n
}

func (s *Simulator) step(dt float64) {
	s.engine.Step(dt)
	for _, m := range s.metrics {
		m.Observe(s.engine)
	}
}

func (s *Simulator) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	result := &Result{
		Times:   make([]float64, 0, cfg.Frames),
		Counts:  make([]int, 0, cfg.Frames),
		Series:  make(map[string][]float64),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	acc := NewAccumulator(cfg.Dt, cfg.MaxSubsteps, cfg.MaxFrameTime)

	for frame := 0; frame < cfg.Frames; frame++ {
		select {
		case <-ctx.Done():
			s.collect(result, acc)
			return result, ctx.Err()
		default:
		}

		result.StepsTaken += s.Frame(acc, cfg.FrameDt)
		result.Frames++

		result.Times = append(result.Times, s.engine.Time())
		result.Counts = append(result.Counts, s.engine.Count())
		for _, m := range s.metrics {
			if sm, ok := m.(Sampler); ok {
				result.Series[m.Name()] = append(result.Series[m.Name()], sm.Sample())
			}
		}
		for _, obs := range s.observers {
			obs.OnFrame(s.engine, frame)
		}

		if cfg.ValidateState {
			if err := s.engine.Validate(); err != nil {
				result.Errors = append(result.Errors, err)
				break
			}
		}
	}

	s.collect(result, acc)
	return result, nil
}

func (s *Simulator) collect(result *Result, acc *Accumulator) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.Dropped = acc.Dropped()
}
