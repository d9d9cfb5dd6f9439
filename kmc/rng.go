package kmc

import (
	"hash/fnv"
	"math/rand/v2"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible run.
// Two runs with the same SimulationKey and identical configuration
// MUST produce bit-for-bit identical trajectories and training curves.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemLattice is the RNG subsystem for the initial configuration
	// draw. Uses the master seed directly.
	SubsystemLattice = "lattice"

	// SubsystemKMC is the RNG subsystem for the event loop (exponential
	// holding times and categorical flip-site selection).
	SubsystemKMC = "kmc"

	// SubsystemModel is the RNG subsystem for learned-model weight
	// initialization.
	SubsystemModel = "model"
)

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated random sources per
// subsystem, so e.g. changing the model width cannot perturb the sampled
// trajectory.
//
// Derivation formula:
//   - For SubsystemLattice: uses masterSeed directly
//   - For all other subsystems: masterSeed XOR fnv1a64(subsystemName)
//
// Sources are math/rand/v2 PCG generators, which is what
// gonum/stat/distuv distributions consume.
//
// Thread-safety: NOT thread-safe. Must be called from a single goroutine.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.PCG
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.PCG),
	}
}

// ForSubsystem returns a deterministically-seeded source for the named
// subsystem. The same subsystem name always returns the same source
// instance (cached). Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) rand.Source {
	if src, ok := p.subsystems[name]; ok {
		return src
	}

	derivedSeed := int64(p.key)
	if name != SubsystemLattice {
		// All non-lattice subsystems: XOR with hash for isolation.
		derivedSeed ^= fnv1a64(name)
	}

	src := rand.NewPCG(uint64(derivedSeed), uint64(derivedSeed)*0x9e3779b97f4a7c15+1)
	p.subsystems[name] = src
	return src
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
