package kmc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleActive returns a trajectory guaranteed to contain events, started
// from a fully excited ring (which can never freeze under the constraint).
func sampleActive(t *testing.T, sites int, horizon float64, seed int64) (*Trajectory, float64, LatticeConfig) {
	t.Helper()
	cfg := LatticeConfig{Horizon: horizon, Sites: sites, Density: 0.5}
	initial := make(Configuration, sites)
	for i := range initial {
		initial[i] = 1
	}
	traj, exactU, err := SampleFrom(initial, cfg, NewPartitionedRNG(NewSimulationKey(seed)))
	require.NoError(t, err)
	require.Greater(t, traj.Len(), 3, "need several events for windowing tests")
	return traj, exactU, cfg
}

func TestScoreWindow_ExactnessUnderMatchedModel(t *testing.T) {
	// GIVEN a trajectory and the exact rule acting as the rate model
	traj, exactU, cfg := sampleActive(t, 8, 20.0, 11)
	rule := ExactRule{C: cfg.Density}

	// WHEN the whole trajectory is scored in one final window
	got, err := ScoreWindow(traj, 0, traj.Len(), rule, true)

	// THEN it reproduces the sampler's own accounting
	require.NoError(t, err)
	assert.InDelta(t, exactU, got, 1e-9*math.Max(1, math.Abs(exactU)))
}

func TestScoreWindow_BatchAdditivity(t *testing.T) {
	traj, _, cfg := sampleActive(t, 8, 20.0, 13)
	rule := ExactRule{C: cfg.Density}

	whole, err := ScoreWindow(traj, 0, traj.Len(), rule, true)
	require.NoError(t, err)

	for _, batchSize := range []int{1, 2, 3, 7, traj.Len()} {
		var sum float64
		for _, w := range batchBounds(traj.Len(), batchSize) {
			final := w[1] == traj.Len()
			part, err := ScoreWindow(traj, w[0], w[1], rule, final)
			require.NoError(t, err)
			sum += part
		}
		assert.InEpsilon(t, whole, sum, 1e-5, "partition with batch size %d", batchSize)
	}
}

func TestScoreWindow_FinalWindow_ResidualOnlyLastRow(t *testing.T) {
	// GIVEN a single-entry frozen trajectory
	traj := &Trajectory{
		Configs:      []Configuration{{1, 1, 0}},
		HoldingTimes: []float64{4.0},
	}
	rule := ExactRule{C: 0.25}

	got, err := ScoreWindow(traj, 0, 1, rule, true)
	require.NoError(t, err)

	// THEN only the survival term -R*dt is paid
	want := -rule.EscapeRate(traj.Configs[0]) * 4.0
	assert.InDelta(t, want, got, 1e-12)
}

func TestScoreWindow_MalformedTransition_Surfaces(t *testing.T) {
	traj := chainTrajectory()
	traj.Configs[1] = traj.Configs[0].Clone() // zero-distance pair

	_, err := ScoreWindow(traj, 0, traj.Len(), ExactRule{C: 0.5}, true)
	assert.ErrorIs(t, err, ErrMalformedTransition)
}

func TestScoreWindow_WindowBounds_Validated(t *testing.T) {
	traj := chainTrajectory()
	rule := ExactRule{C: 0.5}

	_, err := ScoreWindow(traj, -1, 2, rule, false)
	assert.Error(t, err)

	_, err = ScoreWindow(traj, 2, 2, rule, false)
	assert.Error(t, err)

	// A final window must reach the end of the trajectory.
	_, err = ScoreWindow(traj, 0, 2, rule, true)
	assert.Error(t, err)

	// A non-final window must leave a successor configuration.
	_, err = ScoreWindow(traj, 0, traj.Len(), rule, false)
	assert.Error(t, err)
}

func TestScoreWindowWithGrad_MatchesScoreAndIndicator(t *testing.T) {
	traj := chainTrajectory()
	rule := ExactRule{C: 0.5}

	logLike, err := ScoreWindow(traj, 0, traj.Len(), rule, true)
	require.NoError(t, err)

	loss, grad, err := ScoreWindowWithGrad(traj, 0, traj.Len(), rule, true)
	require.NoError(t, err)
	assert.InDelta(t, -logLike, loss, 1e-12)

	// Gradient entries are dt*exp(logr) - indicator; spot-check the flip
	// site of step 0 (site 0 flips between the first two configurations).
	rates := rule.Rates(traj.Configs[0])
	dt := traj.HoldingTimes[0]
	assert.InDelta(t, dt*rates[0]-1, grad.At(0, 0), 1e-12)
	assert.InDelta(t, dt*rates[1], grad.At(0, 1), 1e-12)

	// The residual row has no indicator anywhere.
	last := traj.Len() - 1
	ratesLast := rule.Rates(traj.Configs[last])
	for i := range ratesLast {
		assert.InDelta(t, traj.HoldingTimes[last]*ratesLast[i], grad.At(last, i), 1e-12)
	}
}
