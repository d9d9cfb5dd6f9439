package kmc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSample_InvalidConfig_Errors(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(1))

	for _, cfg := range []LatticeConfig{
		{Horizon: 0, Sites: 4, Density: 0.5},
		{Horizon: 1, Sites: 0, Density: 0.5},
		{Horizon: 1, Sites: 4, Density: 0},
		{Horizon: 1, Sites: 4, Density: 1},
	} {
		_, _, err := Sample(cfg, rng)
		assert.Error(t, err, "config %+v must be rejected", cfg)
	}
}

func TestSampleFrom_FrozenLattice_SingleResidualEntry(t *testing.T) {
	// GIVEN an all-zero lattice, which the kinetic constraint makes absorbing
	cfg := LatticeConfig{Horizon: 5.0, Sites: 3, Density: 0.3}
	rng := NewPartitionedRNG(NewSimulationKey(7))

	// WHEN sampling from it
	traj, logLike, err := SampleFrom(Configuration{0, 0, 0}, cfg, rng)

	// THEN the whole window is residual time with zero log-likelihood
	require.NoError(t, err)
	assert.Equal(t, 1, traj.Len())
	assert.InDelta(t, 5.0, traj.HoldingTimes[0], 1e-12)
	assert.Equal(t, 0.0, logLike)
}

func TestSample_ConcreteScenario_InvariantsAndExactU(t *testing.T) {
	// GIVEN the reference scenario L=4, c=0.5, T=5 with a fixed seed
	cfg := LatticeConfig{Horizon: 5.0, Sites: 4, Density: 0.5}
	rng := NewPartitionedRNG(NewSimulationKey(42))

	traj, exactU, err := Sample(cfg, rng)
	require.NoError(t, err)

	// THEN holding times sum to T exactly
	assert.InDelta(t, 5.0, traj.TotalTime(), 1e-9)

	// AND every consecutive pair differs at exactly one site
	for j := 0; j+1 < traj.Len(); j++ {
		_, err := FlipSiteBetween(traj.Configs[j], traj.Configs[j+1])
		assert.NoError(t, err, "step %d violates the single-flip invariant", j)
	}

	// AND U recomputed independently from the recorded pairs matches
	rule := ExactRule{C: cfg.Density}
	var recomputed float64
	for j := 0; j < traj.Len(); j++ {
		rates := rule.Rates(traj.Configs[j])
		var escape float64
		for _, r := range rates {
			escape += r
		}
		recomputed -= traj.HoldingTimes[j] * escape
		if j+1 < traj.Len() {
			site, err := FlipSiteBetween(traj.Configs[j], traj.Configs[j+1])
			require.NoError(t, err)
			recomputed += math.Log(rates[site])
		}
	}
	assert.InDelta(t, exactU, recomputed, 1e-9)
}

func TestSample_Validate_PassesOnFreshTrajectory(t *testing.T) {
	cfg := LatticeConfig{Horizon: 20.0, Sites: 8, Density: 0.5}
	rng := NewPartitionedRNG(NewSimulationKey(3))

	traj, _, err := Sample(cfg, rng)
	require.NoError(t, err)
	assert.NoError(t, traj.Validate(cfg.Horizon, 1e-9))
}

func TestSample_Deterministic_SameSeedSameTrajectory(t *testing.T) {
	cfg := LatticeConfig{Horizon: 10.0, Sites: 6, Density: 0.4}

	trajA, uA, err := Sample(cfg, NewPartitionedRNG(NewSimulationKey(123)))
	require.NoError(t, err)
	trajB, uB, err := Sample(cfg, NewPartitionedRNG(NewSimulationKey(123)))
	require.NoError(t, err)

	assert.Equal(t, uA, uB)
	require.Equal(t, trajA.Len(), trajB.Len())
	assert.Equal(t, trajA.Configs, trajB.Configs)
	assert.Equal(t, trajA.HoldingTimes, trajB.HoldingTimes)
}

func TestSampleFrom_ActiveLattice_NeverFreezes(t *testing.T) {
	// A fully excited ring can never lose its last excitation under the
	// constraint, so the trajectory always ends with a residual interval
	// after at least one event.
	cfg := LatticeConfig{Horizon: 10.0, Sites: 8, Density: 0.5}
	rng := NewPartitionedRNG(NewSimulationKey(5))

	initial := make(Configuration, cfg.Sites)
	for i := range initial {
		initial[i] = 1
	}

	traj, _, err := SampleFrom(initial, cfg, rng)
	require.NoError(t, err)
	assert.Greater(t, traj.Len(), 1)
	assert.InDelta(t, cfg.Horizon, traj.TotalTime(), 1e-9)
}
