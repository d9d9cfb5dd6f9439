package kmc

import "fmt"

// Configuration is a fixed-length assignment of discrete site states on a
// one-dimensional periodic lattice. States are in {0, ..., inputDim-1};
// the spin model uses binary states. The lattice is a ring: site 0 and site
// L-1 are neighbors.
type Configuration []int

// Clone returns an independent copy of the configuration.
func (c Configuration) Clone() Configuration {
	out := make(Configuration, len(c))
	copy(out, c)
	return out
}

// Left returns the state of site i's left neighbor on the ring.
func (c Configuration) Left(i int) int {
	return c[(i-1+len(c))%len(c)]
}

// Right returns the state of site i's right neighbor on the ring.
func (c Configuration) Right(i int) int {
	return c[(i+1)%len(c)]
}

// FlipSiteBetween returns the unique site at which a and b differ.
// Returns ErrMalformedTransition when the Hamming distance is not exactly 1,
// including the zero-distance case (identical configurations).
func FlipSiteBetween(a, b Configuration) (int, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: lattice sizes differ (%d vs %d)", ErrMalformedTransition, len(a), len(b))
	}
	site := -1
	for i := range a {
		if a[i] == b[i] {
			continue
		}
		if site >= 0 {
			return 0, fmt.Errorf("%w: sites %d and %d both differ", ErrMalformedTransition, site, i)
		}
		site = i
	}
	if site < 0 {
		return 0, fmt.Errorf("%w: configurations are identical", ErrMalformedTransition)
	}
	return site, nil
}
