package kmc

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// RateModel produces per-site log transition rates for a batch of
// configurations. Implementations: ExactRule (closed form) and
// model.MLP (learned).
type RateModel interface {
	// LogRates returns a (len(batch), L) matrix; entry (j, i) is the log
	// of site i's flip rate in batch[j]. -Inf encodes a forbidden flip.
	LogRates(batch []Configuration) *mat.Dense
}

// TrainableRateModel is a RateModel whose parameters can be trained by
// reverse-mode differentiation.
type TrainableRateModel interface {
	RateModel

	// Backward accumulates parameter gradients for the most recent
	// LogRates call, seeded with upstream = dLoss/dLogRates.
	Backward(upstream *mat.Dense)

	// Parameters and Gradients return aligned slices of parameter and
	// accumulated-gradient matrices.
	Parameters() []*mat.Dense
	Gradients() []*mat.Dense

	// ZeroGrad clears the accumulated gradients.
	ZeroGrad()
}

// ScoreWindow computes the log-likelihood contribution of the configurations
// [start, end) of traj under m.
//
// For each step j the contribution is log r(flip_j) - dt_j * R_j, where R_j
// is the escape rate sum_i exp(logRates[j][i]). A non-final window needs the
// configuration at index end to resolve its last flip site, so it requires
// end < traj.Len(). The final window's last configuration has no successor
// and contributes only its survival term -R * dt.
//
// Scoring any partition of the trajectory into consecutive windows (final
// flag set on the last) sums to scoring the whole trajectory at once; the
// trainer's batching relies on this.
func ScoreWindow(traj *Trajectory, start, end int, m RateModel, final bool) (float64, error) {
	logLike, _, err := scoreWindow(traj, start, end, m, final, false)
	return logLike, err
}

// ScoreWindowWithGrad additionally returns the gradient of the NEGATED
// log-likelihood with respect to the window's log-rate matrix:
//
//	dLoss/dlogr[j][i] = dt_j * exp(logr[j][i]) - 1{i == flip_j}
//
// with the indicator absent on the final window's last row. This is the
// reverse-mode seed passed to TrainableRateModel.Backward.
func ScoreWindowWithGrad(traj *Trajectory, start, end int, m RateModel, final bool) (float64, *mat.Dense, error) {
	logLike, grad, err := scoreWindow(traj, start, end, m, final, true)
	return -logLike, grad, err
}

func scoreWindow(traj *Trajectory, start, end int, m RateModel, final, withGrad bool) (float64, *mat.Dense, error) {
	if start < 0 || end > traj.Len() || start >= end {
		return 0, nil, fmt.Errorf("window [%d, %d) out of range for trajectory of length %d", start, end, traj.Len())
	}
	if final && end != traj.Len() {
		return 0, nil, fmt.Errorf("final window [%d, %d) must end at trajectory length %d", start, end, traj.Len())
	}
	if !final && end == traj.Len() {
		return 0, nil, fmt.Errorf("non-final window [%d, %d) has no successor configuration", start, end)
	}

	logRates := m.LogRates(traj.Configs[start:end])
	n, sites := logRates.Dims()

	var grad *mat.Dense
	if withGrad {
		grad = mat.NewDense(n, sites, nil)
	}

	var logLike float64
	for j := 0; j < n; j++ {
		dt := traj.HoldingTimes[start+j]

		var escape float64
		for i := 0; i < sites; i++ {
			r := math.Exp(logRates.At(j, i))
			escape += r
			if withGrad {
				grad.Set(j, i, dt*r)
			}
		}
		logLike -= dt * escape

		// The last row of the final window is the residual interval:
		// survival only, no flip term.
		if final && j == n-1 {
			break
		}

		site, err := FlipSiteBetween(traj.Configs[start+j], traj.Configs[start+j+1])
		if err != nil {
			return 0, nil, fmt.Errorf("window step %d: %w", start+j, err)
		}
		logLike += logRates.At(j, site)
		if withGrad {
			grad.Set(j, site, grad.At(j, site)-1)
		}
	}

	return logLike, grad, nil
}
