package sim

import "time"

// Accumulator turns variable frame times into whole fixed steps.
type Accumulator struct {
	Dt           float64
	MaxSubsteps  int
	MaxFrameTime float64

	acc     float64
	dropped float64
}

func NewAccumulator(dt float64, maxSubsteps int, maxFrameTime float64) *Accumulator {
	return &Accumulator{Dt: dt, MaxSubsteps: maxSubsteps, MaxFrameTime: maxFrameTime}
}

// Advance adds frameTime and calls step(Dt) while a whole step is banked.
// The bank is capped at MaxFrameTime, and once MaxSubsteps steps have run in
// one call whatever is left is discarded. Zero limits disable the caps.
func (a *Accumulator) Advance(frameTime float64, step func(dt float64)) int {
	if !(a.Dt > 0) {
		return 0
	}
	if frameTime > 0 {
		a.acc += frameTime
	}
	if a.MaxFrameTime > 0 && a.acc > a.MaxFrameTime {
		a.dropped += a.acc - a.MaxFrameTime
		a.acc = a.MaxFrameTime
	}

	n := 0
	for a.acc >= a.Dt && (a.MaxSubsteps == 0 || n < a.MaxSubsteps) {
		step(a.Dt)
		a.acc -= a.Dt
		n++
	}
	if a.MaxSubsteps > 0 && n == a.MaxSubsteps {
		a.dropped += a.acc
		a.acc = 0
	}
	return n
}

// Pending is the banked time not yet stepped.
func (a *Accumulator) Pending() float64 { return a.acc }

// Dropped is the total time thrown away by the caps.
func (a *Accumulator) Dropped() float64 { return a.dropped }

// Alpha is how far the bank is into the next step, for interpolation.
func (a *Accumulator) Alpha() float64 {
	if !(a.Dt > 0) {
		return 0
	}
	return a.acc / a.Dt
}

func (a *Accumulator) Reset() {
	a.acc = 0
	a.dropped = 0
}

// Clock reports the seconds elapsed since it was last asked.
type Clock interface {
	Elapsed() float64
}

type WallClock struct {
	last time.Time
	now  func() time.Time
}

func NewWallClock() *WallClock {
	return &WallClock{last: time.Now(), now: time.Now}
}

func (c *WallClock) Elapsed() float64 {
	t := c.now()
	d := t.Sub(c.last).Seconds()
	c.last = t
	return d
}

// ManualClock returns a fixed frame time on every call.
type ManualClock struct {
	Frame float64
}

func (c ManualClock) Elapsed() float64 { return c.Frame }
