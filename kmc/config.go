package kmc

import "fmt"

// LatticeConfig groups sampler parameters for Sample.
type LatticeConfig struct {
	Horizon float64 // total observation window T (must be > 0)
	Sites   int     // lattice size L (must be >= 1)
	Density float64 // equilibrium up-spin density c, in (0,1)
}

// Validate returns an error describing the first invalid field, if any.
func (c LatticeConfig) Validate() error {
	if c.Horizon <= 0 {
		return fmt.Errorf("LatticeConfig: Horizon must be > 0, got %g", c.Horizon)
	}
	if c.Sites < 1 {
		return fmt.Errorf("LatticeConfig: Sites must be >= 1, got %d", c.Sites)
	}
	if c.Density <= 0 || c.Density >= 1 {
		return fmt.Errorf("LatticeConfig: Density must be in (0,1), got %g", c.Density)
	}
	return nil
}

// TrainConfig groups trainer parameters for Train.
type TrainConfig struct {
	Epochs       int     // number of full passes over the trajectory
	LearningRate float64 // Adam step size
	BatchSize    int     // configurations per batch; last batch absorbs the remainder
	// AccumulateBeforeUpdate selects the update regime: true applies an
	// update every UpdatesPerAccum batches, false applies exactly one
	// update per epoch from gradients accumulated over the whole epoch.
	AccumulateBeforeUpdate bool
	UpdatesPerAccum        int     // batches per update when accumulating (must be >= 1)
	GradClipNorm           float64 // global L2 clip threshold, 0 disables clipping
}

// Validate returns an error describing the first invalid field, if any.
func (c TrainConfig) Validate() error {
	if c.Epochs < 1 {
		return fmt.Errorf("TrainConfig: Epochs must be >= 1, got %d", c.Epochs)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("TrainConfig: LearningRate must be > 0, got %g", c.LearningRate)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("TrainConfig: BatchSize must be >= 1, got %d", c.BatchSize)
	}
	if c.AccumulateBeforeUpdate && c.UpdatesPerAccum < 1 {
		return fmt.Errorf("TrainConfig: UpdatesPerAccum must be >= 1, got %d", c.UpdatesPerAccum)
	}
	if c.GradClipNorm < 0 {
		return fmt.Errorf("TrainConfig: GradClipNorm must be >= 0, got %g", c.GradClipNorm)
	}
	return nil
}
