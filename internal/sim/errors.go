package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacity is returned by AddParticle once Count reaches Capacity.
	ErrCapacity = errors.New("sim: particle capacity reached")

	// ErrInvalidRadius rejects radii that are not positive or exceed the
	// radius the grid was sized for.
	ErrInvalidRadius = errors.New("sim: invalid particle radius")

	// ErrInvalidHandle is returned for handles that were never issued.
	ErrInvalidHandle = errors.New("sim: invalid particle handle")

	// ErrInvalidState indicates a particle position became NaN or Inf.
	ErrInvalidState = errors.New("sim: invalid state (NaN or Inf detected)")

	// ErrInvalidConfig wraps every configuration validation failure.
	ErrInvalidConfig = errors.New("sim: invalid config")
)

type SimError struct {
	Time    float64
	Step    int
	Message string
	Err     error
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}

func (e SimError) Unwrap() error { return e.Err }
