// Package kmc provides the continuous-time Monte Carlo engine for
// kinetically-constrained lattice spin models.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - lattice.go: Configuration (ring of discrete sites) and the single-flip diff
//   - sampler.go: the Gillespie event loop producing a Trajectory and its exact log-likelihood
//   - likelihood.go: windowed trajectory scoring against an arbitrary RateModel
//
// # Architecture
//
// The kmc package defines the RateModel interfaces and the training loop;
// learned-model implementations live in sub-packages:
//   - kmc/model/: neighborhood MLP rate model (gonum/mat, manual reverse mode)
//
// The exact kinetic-constraint rule (exact.go) doubles as a RateModel so the
// likelihood engine can be checked against the sampler's own accounting.
//
// # Key Interfaces
//
// The extension points are small interfaces:
//   - RateModel: batch of configurations -> per-site log-rate matrix
//   - TrainableRateModel: RateModel plus reverse-mode gradient accumulation
package kmc
