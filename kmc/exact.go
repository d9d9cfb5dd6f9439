package kmc

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// ExactRule is the closed-form kinetic-constraint rate rule of the
// Fredrickson-Andersen spin model at density c. For site i with state s_i
// and ring neighbors s_{i-1}, s_{i+1}:
//
//	rate_i = (s_i*(1-c) + (1-s_i)*c) * (s_{i-1} + s_{i+1})
//
// A site with no excited neighbor is immobile (rate 0); the remaining cases
// yield c, 1-c, 2c or 2(1-c).
type ExactRule struct {
	C float64
}

// Rates returns the length-L vector of per-site flip rates for cfg.
func (r ExactRule) Rates(cfg Configuration) []float64 {
	rates := make([]float64, len(cfg))
	for i, s := range cfg {
		base := float64(s)*(1-r.C) + float64(1-s)*r.C
		rates[i] = base * float64(cfg.Left(i)+cfg.Right(i))
	}
	return rates
}

// EscapeRate returns the total rate of leaving cfg (sum of Rates).
func (r ExactRule) EscapeRate(cfg Configuration) float64 {
	var total float64
	for _, v := range r.Rates(cfg) {
		total += v
	}
	return total
}

// LogRates implements RateModel: element-wise log of the exact rates.
// Immobile sites map to -Inf, which exp() in the likelihood engine restores
// to a zero contribution to the escape rate.
func (r ExactRule) LogRates(batch []Configuration) *mat.Dense {
	if len(batch) == 0 {
		return &mat.Dense{}
	}
	sites := len(batch[0])
	out := mat.NewDense(len(batch), sites, nil)
	for j, cfg := range batch {
		for i, v := range r.Rates(cfg) {
			out.Set(j, i, math.Log(v))
		}
	}
	return out
}
