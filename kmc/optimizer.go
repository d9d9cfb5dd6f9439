package kmc

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Adam is a first-order adaptive optimizer with explicit state. The moment
// buffers and step counter live on the struct and are threaded through the
// trainer's epoch loop, so concurrent training runs cannot share state by
// accident.
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64

	step int
	m    []*mat.Dense // first-moment estimates, aligned with params
	v    []*mat.Dense // second-moment estimates, aligned with params
}

// NewAdam returns an Adam optimizer with the usual default moments
// (beta1=0.9, beta2=0.999, eps=1e-8).
func NewAdam(learningRate float64) (*Adam, error) {
	if learningRate <= 0 {
		return nil, fmt.Errorf("Adam: learning rate must be > 0, got %g", learningRate)
	}
	return &Adam{
		LearningRate: learningRate,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-8,
	}, nil
}

// Step applies one bias-corrected Adam update to params in place.
// Moment buffers are allocated lazily on the first call and must keep the
// same shapes afterwards.
func (a *Adam) Step(params, grads []*mat.Dense) error {
	if len(params) != len(grads) {
		return fmt.Errorf("Adam: %d params but %d grads", len(params), len(grads))
	}
	if a.m == nil {
		a.m = make([]*mat.Dense, len(params))
		a.v = make([]*mat.Dense, len(params))
		for k, p := range params {
			r, c := p.Dims()
			a.m[k] = mat.NewDense(r, c, nil)
			a.v[k] = mat.NewDense(r, c, nil)
		}
	}

	a.step++
	corr1 := 1 - math.Pow(a.Beta1, float64(a.step))
	corr2 := 1 - math.Pow(a.Beta2, float64(a.step))

	for k, p := range params {
		pd := p.RawMatrix().Data
		gd := grads[k].RawMatrix().Data
		md := a.m[k].RawMatrix().Data
		vd := a.v[k].RawMatrix().Data
		if len(pd) != len(gd) {
			return fmt.Errorf("Adam: param %d has %d elements but grad has %d", k, len(pd), len(gd))
		}
		for i := range pd {
			md[i] = a.Beta1*md[i] + (1-a.Beta1)*gd[i]
			vd[i] = a.Beta2*vd[i] + (1-a.Beta2)*gd[i]*gd[i]
			mHat := md[i] / corr1
			vHat := vd[i] / corr2
			pd[i] -= a.LearningRate * mHat / (math.Sqrt(vHat) + a.Epsilon)
		}
	}
	return nil
}

// ClipGradNorm rescales grads in place so their global L2 norm does not
// exceed maxNorm. A maxNorm of 0 disables clipping. Returns the pre-clip
// norm.
func ClipGradNorm(grads []*mat.Dense, maxNorm float64) float64 {
	var sumSq float64
	for _, g := range grads {
		n := mat.Norm(g, 2)
		sumSq += n * n
	}
	total := math.Sqrt(sumSq)
	if maxNorm > 0 && total > maxNorm {
		scale := maxNorm / total
		for _, g := range grads {
			g.Scale(scale, g)
		}
	}
	return total
}
