package kmc

import "errors"

// ErrMalformedTransition reports a consecutive configuration pair that does
// not differ at exactly one site. The single-flip invariant is structural:
// a violation means the trajectory was corrupted or injected from outside,
// so scoring must stop rather than guess a flip site.
var ErrMalformedTransition = errors.New("malformed transition: consecutive configurations must differ at exactly one site")

// ErrNonFiniteLoss reports a NaN or Inf loss or gradient during training.
// Once a non-finite value enters the accumulated gradient the parameters are
// unrecoverable, so the trainer aborts before applying any further update.
var ErrNonFiniteLoss = errors.New("non-finite loss or gradient")
