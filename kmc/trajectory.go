package kmc

import (
	"fmt"
	"math"
)

// Trajectory is an ordered sequence of (Configuration, holding time) pairs
// produced by the sampler. Configs[j] is held for HoldingTimes[j]; the first
// K holding times are waiting times between distinct configurations and the
// final one is the residual time up to the observation horizon. Storage is
// append-only and grows as needed; the realized event count of a run has no
// safe a-priori bound, so nothing here is capacity-limited.
type Trajectory struct {
	Configs      []Configuration
	HoldingTimes []float64
}

// NewTrajectory returns an empty trajectory with room for a few steps.
func NewTrajectory() *Trajectory {
	return &Trajectory{
		Configs:      make([]Configuration, 0, 16),
		HoldingTimes: make([]float64, 0, 16),
	}
}

// Len returns the number of recorded (configuration, holding time) pairs.
func (tr *Trajectory) Len() int {
	return len(tr.Configs)
}

// TotalTime returns the sum of all holding times, which equals the
// observation horizon for a completed sample.
func (tr *Trajectory) TotalTime() float64 {
	var total float64
	for _, dt := range tr.HoldingTimes {
		total += dt
	}
	return total
}

// Validate checks the structural invariants of a completed trajectory:
// matching slice lengths, strictly positive waiting times, a non-negative
// residual, the single-flip property for every consecutive pair, and total
// time equal to horizon within tol.
func (tr *Trajectory) Validate(horizon, tol float64) error {
	if len(tr.Configs) != len(tr.HoldingTimes) {
		return fmt.Errorf("trajectory has %d configurations but %d holding times", len(tr.Configs), len(tr.HoldingTimes))
	}
	if len(tr.Configs) == 0 {
		return fmt.Errorf("trajectory is empty")
	}
	for j, dt := range tr.HoldingTimes {
		if j < len(tr.HoldingTimes)-1 && dt <= 0 {
			return fmt.Errorf("waiting time %d is %g, must be > 0", j, dt)
		}
		if dt < 0 {
			return fmt.Errorf("residual time is %g, must be >= 0", dt)
		}
	}
	for j := 0; j+1 < len(tr.Configs); j++ {
		if _, err := FlipSiteBetween(tr.Configs[j], tr.Configs[j+1]); err != nil {
			return fmt.Errorf("step %d: %w", j, err)
		}
	}
	if total := tr.TotalTime(); math.Abs(total-horizon) > tol {
		return fmt.Errorf("holding times sum to %g, want horizon %g", total, horizon)
	}
	return nil
}
