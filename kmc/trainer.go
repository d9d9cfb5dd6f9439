package kmc

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// Trainer fits a TrainableRateModel to a single observed trajectory by
// minimizing the negated trajectory log-likelihood over batched passes.
// The trajectory and its exact log-likelihood baseline are fixed at
// construction; the model's parameters are the only mutable state.
type Trainer struct {
	Trajectory *Trajectory
	Horizon    float64
	// ExactLogLike is the sampler's ground-truth log-likelihood, reported
	// next to each epoch's value for convergence monitoring.
	ExactLogLike float64
}

// NewTrainer builds a Trainer for a completed trajectory.
func NewTrainer(traj *Trajectory, horizon, exactLogLike float64) (*Trainer, error) {
	if traj == nil || traj.Len() == 0 {
		return nil, fmt.Errorf("Trainer: trajectory is empty")
	}
	if horizon <= 0 {
		return nil, fmt.Errorf("Trainer: horizon must be > 0, got %g", horizon)
	}
	return &Trainer{Trajectory: traj, Horizon: horizon, ExactLogLike: exactLogLike}, nil
}

// batchBounds returns the [start, end) boundaries of consecutive batches of
// batchSize configurations. The last batch absorbs the remainder so that a
// short tail is never scored as its own window.
func batchBounds(total, batchSize int) [][2]int {
	n := total / batchSize
	if n == 0 {
		n = 1
	}
	bounds := make([][2]int, n)
	for b := 0; b < n; b++ {
		bounds[b] = [2]int{b * batchSize, (b + 1) * batchSize}
	}
	bounds[n-1][1] = total
	return bounds
}

// Train runs cfg.Epochs sequential passes over the trajectory and returns
// the per-epoch total negated log-likelihoods.
//
// Batches are scored in order because gradient state accumulates across
// batches between updates. With cfg.AccumulateBeforeUpdate an update is
// applied every cfg.UpdatesPerAccum batches; otherwise gradients accumulate
// over the whole epoch and exactly one update is applied at epoch end.
// A non-finite loss or gradient aborts immediately: corrupted accumulated
// gradients must never reach the parameters.
func (t *Trainer) Train(model TrainableRateModel, cfg TrainConfig, opt *Adam) ([]float64, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opt == nil {
		return nil, fmt.Errorf("Trainer: optimizer is nil")
	}

	bounds := batchBounds(t.Trajectory.Len(), cfg.BatchSize)
	losses := make([]float64, 0, cfg.Epochs)
	model.ZeroGrad()

	sinceUpdate := 0
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		var running float64

		for b, w := range bounds {
			final := b == len(bounds)-1
			loss, grad, err := ScoreWindowWithGrad(t.Trajectory, w[0], w[1], model, final)
			if err != nil {
				return losses, fmt.Errorf("epoch %d batch %d: %w", epoch, b, err)
			}
			if !isFinite(loss) || hasNonFinite(grad) {
				return losses, fmt.Errorf("epoch %d batch %d: %w", epoch, b, ErrNonFiniteLoss)
			}

			model.Backward(grad)
			running += loss
			sinceUpdate++

			if cfg.AccumulateBeforeUpdate && sinceUpdate == cfg.UpdatesPerAccum {
				if err := t.applyUpdate(model, cfg, opt, epoch, b); err != nil {
					return losses, err
				}
				sinceUpdate = 0
			}
		}

		if !cfg.AccumulateBeforeUpdate {
			if err := t.applyUpdate(model, cfg, opt, epoch, len(bounds)-1); err != nil {
				return losses, err
			}
			sinceUpdate = 0
		}

		losses = append(losses, running)
		logrus.Infof("epoch %3d: learned NLL/T=%.6f exact U/T=%.6f",
			epoch, running/t.Horizon, t.ExactLogLike/t.Horizon)
	}

	return losses, nil
}

func (t *Trainer) applyUpdate(model TrainableRateModel, cfg TrainConfig, opt *Adam, epoch, batch int) error {
	grads := model.Gradients()
	for _, g := range grads {
		if hasNonFinite(g) {
			return fmt.Errorf("epoch %d batch %d: accumulated parameter gradient: %w", epoch, batch, ErrNonFiniteLoss)
		}
	}
	ClipGradNorm(grads, cfg.GradClipNorm)
	if err := opt.Step(model.Parameters(), grads); err != nil {
		return fmt.Errorf("epoch %d batch %d: %w", epoch, batch, err)
	}
	model.ZeroGrad()
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func hasNonFinite(m *mat.Dense) bool {
	for _, v := range m.RawMatrix().Data {
		if !isFinite(v) {
			return true
		}
	}
	return false
}
