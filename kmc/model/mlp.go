// Package model provides learned rate models for the kmc training loop.
//
// The architecture here is deliberately small: the likelihood engine and
// trainer treat any TrainableRateModel as opaque, and a shared neighborhood
// perceptron is already expressive enough to represent the exact
// kinetic-constraint rule (which depends only on a site and its two
// neighbors).
package model

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/lattice-kmc/lattice-kmc/kmc"
)

// Config groups the MLP architecture hyperparameters.
type Config struct {
	InputDim int // number of site states (2 for the spin model)
	Window   int // neighborhood radius r; each site sees 2r+1 sites
	Hidden   int // hidden layer width
}

// Validate returns an error describing the first invalid field, if any.
func (c Config) Validate() error {
	if c.InputDim < 2 {
		return fmt.Errorf("model.Config: InputDim must be >= 2, got %d", c.InputDim)
	}
	if c.Window < 0 {
		return fmt.Errorf("model.Config: Window must be >= 0, got %d", c.Window)
	}
	if c.Hidden < 1 {
		return fmt.Errorf("model.Config: Hidden must be >= 1, got %d", c.Hidden)
	}
	return nil
}

// MLP is a two-layer perceptron shared across lattice sites. For each site
// it one-hot encodes the window of 2r+1 surrounding states (ring topology),
// maps it through a tanh hidden layer, and emits a scalar log-rate. All
// sites of all configurations in a batch are evaluated in one matrix
// multiply.
//
// Not safe for concurrent use: LogRates caches activations for Backward.
type MLP struct {
	cfg Config

	w1 *mat.Dense // (hidden, features)
	b1 *mat.Dense // (hidden, 1)
	w2 *mat.Dense // (1, hidden)
	b2 *mat.Dense // (1, 1)

	gw1 *mat.Dense
	gb1 *mat.Dense
	gw2 *mat.Dense
	gb2 *mat.Dense

	// forward cache for reverse mode
	lastX     *mat.Dense // (rows, features)
	lastA1    *mat.Dense // (rows, hidden)
	lastBatch int
	lastSites int
}

// New builds an MLP with small random initial weights drawn from src.
func New(cfg Config, src rand.Source) (*MLP, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	features := (2*cfg.Window + 1) * cfg.InputDim
	rng := rand.New(src)

	init := func(rows, cols int, scale float64) *mat.Dense {
		d := mat.NewDense(rows, cols, nil)
		data := d.RawMatrix().Data
		for i := range data {
			data[i] = rng.NormFloat64() * scale
		}
		return d
	}

	m := &MLP{
		cfg: cfg,
		w1:  init(cfg.Hidden, features, math.Sqrt(1/float64(features))),
		b1:  mat.NewDense(cfg.Hidden, 1, nil),
		w2:  init(1, cfg.Hidden, math.Sqrt(1/float64(cfg.Hidden))),
		b2:  mat.NewDense(1, 1, nil),
		gw1: mat.NewDense(cfg.Hidden, features, nil),
		gb1: mat.NewDense(cfg.Hidden, 1, nil),
		gw2: mat.NewDense(1, cfg.Hidden, nil),
		gb2: mat.NewDense(1, 1, nil),
	}
	return m, nil
}

// features one-hot encodes the 2r+1 window centered on each site of each
// configuration, one row per (configuration, site) pair.
func (m *MLP) features(batch []kmc.Configuration) *mat.Dense {
	sites := len(batch[0])
	width := 2*m.cfg.Window + 1
	x := mat.NewDense(len(batch)*sites, width*m.cfg.InputDim, nil)
	for j, cfg := range batch {
		for i := 0; i < sites; i++ {
			row := j*sites + i
			for w := 0; w < width; w++ {
				s := cfg[((i-m.cfg.Window+w)%sites+sites)%sites]
				x.Set(row, w*m.cfg.InputDim+s, 1)
			}
		}
	}
	return x
}

// LogRates implements kmc.RateModel.
func (m *MLP) LogRates(batch []kmc.Configuration) *mat.Dense {
	if len(batch) == 0 {
		return &mat.Dense{}
	}
	sites := len(batch[0])
	x := m.features(batch)
	rows, _ := x.Dims()

	var z1 mat.Dense
	z1.Mul(x, m.w1.T())
	b1 := m.b1.RawMatrix().Data
	z1.Apply(func(_, c int, v float64) float64 { return math.Tanh(v + b1[c]) }, &z1)

	var z2 mat.Dense
	z2.Mul(&z1, m.w2.T())
	bias := m.b2.At(0, 0)

	out := mat.NewDense(len(batch), sites, nil)
	outData := out.RawMatrix().Data
	for r := 0; r < rows; r++ {
		outData[r] = z2.At(r, 0) + bias
	}

	m.lastX = x
	m.lastA1 = &z1
	m.lastBatch = len(batch)
	m.lastSites = sites
	return out
}

// Backward accumulates parameter gradients for the most recent LogRates
// call, seeded with upstream = dLoss/dLogRates. Panics if no forward pass
// has been run or the upstream shape does not match it.
func (m *MLP) Backward(upstream *mat.Dense) {
	if m.lastX == nil {
		panic("model.MLP: Backward called before LogRates")
	}
	if r, c := upstream.Dims(); r != m.lastBatch || c != m.lastSites {
		panic(fmt.Sprintf("model.MLP: upstream shape (%d,%d) does not match forward (%d,%d)",
			r, c, m.lastBatch, m.lastSites))
	}

	rows := m.lastBatch * m.lastSites
	g := mat.NewDense(rows, 1, nil)
	for j := 0; j < m.lastBatch; j++ {
		for i := 0; i < m.lastSites; i++ {
			g.Set(j*m.lastSites+i, 0, upstream.At(j, i))
		}
	}

	// Output layer.
	var dW2 mat.Dense
	dW2.Mul(g.T(), m.lastA1)
	m.gw2.Add(m.gw2, &dW2)
	var gSum float64
	for _, v := range g.RawMatrix().Data {
		gSum += v
	}
	m.gb2.Set(0, 0, m.gb2.At(0, 0)+gSum)

	// Hidden layer through the tanh derivative.
	var dZ1 mat.Dense
	dZ1.Mul(g, m.w2)
	a1 := m.lastA1
	dZ1.Apply(func(r, c int, v float64) float64 {
		h := a1.At(r, c)
		return v * (1 - h*h)
	}, &dZ1)

	var dW1 mat.Dense
	dW1.Mul(dZ1.T(), m.lastX)
	m.gw1.Add(m.gw1, &dW1)

	gb1 := m.gb1.RawMatrix().Data
	for r := 0; r < rows; r++ {
		for c := range gb1 {
			gb1[c] += dZ1.At(r, c)
		}
	}
}

// Parameters implements kmc.TrainableRateModel.
func (m *MLP) Parameters() []*mat.Dense {
	return []*mat.Dense{m.w1, m.b1, m.w2, m.b2}
}

// Gradients implements kmc.TrainableRateModel.
func (m *MLP) Gradients() []*mat.Dense {
	return []*mat.Dense{m.gw1, m.gb1, m.gw2, m.gb2}
}

// ZeroGrad implements kmc.TrainableRateModel.
func (m *MLP) ZeroGrad() {
	for _, g := range m.Gradients() {
		data := g.RawMatrix().Data
		for i := range data {
			data[i] = 0
		}
	}
}
