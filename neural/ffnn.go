// Package neural provides the feedforward network behind the learned decision policy.
package neural

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// ErrDiverged is returned by Fit when an update produces non-finite values.
var ErrDiverged = errors.New("network diverged")

// gradClip bounds the output error per sample so a single large reward
// cannot blow up the weights.
const gradClip = 1.0

type layer struct {
	W *mat.Dense    // out x in
	B *mat.VecDense // out
}

// FFNN is a fully connected network with ReLU hidden layers and a linear output.
type FFNN struct {
	sizes  []int
	layers []layer
}

// NewFFNN creates a He-initialized network with the given layer sizes,
// input first and output last.
func NewFFNN(rng *rand.Rand, sizes ...int) (*FFNN, error) {
	if len(sizes) < 2 {
		return nil, fmt.Errorf("need at least input and output sizes, got %v", sizes)
	}
	for _, s := range sizes {
		if s <= 0 {
			return nil, fmt.Errorf("layer sizes must be positive, got %v", sizes)
		}
	}

	nn := &FFNN{sizes: append([]int(nil), sizes...)}
	for i := 1; i < len(sizes); i++ {
		in, out := sizes[i-1], sizes[i]
		scale := math.Sqrt(2.0 / float64(in))
		data := make([]float64, out*in)
		for j := range data {
			data[j] = rng.NormFloat64() * scale
		}
		nn.layers = append(nn.layers, layer{
			W: mat.NewDense(out, in, data),
			B: mat.NewVecDense(out, nil),
		})
	}
	return nn, nil
}

// Sizes returns the layer sizes, input first.
func (nn *FFNN) Sizes() []int {
	return append([]int(nil), nn.sizes...)
}

// NumInputs returns the input width.
func (nn *FFNN) NumInputs() int { return nn.sizes[0] }

// NumOutputs returns the output width.
func (nn *FFNN) NumOutputs() int { return nn.sizes[len(nn.sizes)-1] }

// forward runs the network and keeps every layer's pre-activation (zs)
// and activation (acts, input included) for backprop.
func (nn *FFNN) forward(x []float64) (acts, zs []*mat.VecDense) {
	a := mat.NewVecDense(len(x), append([]float64(nil), x...))
	acts = append(acts, a)

	last := len(nn.layers) - 1
	for i, l := range nn.layers {
		z := mat.NewVecDense(l.B.Len(), nil)
		z.MulVec(l.W, a)
		z.AddVec(z, l.B)
		zs = append(zs, z)

		next := mat.VecDenseCopyOf(z)
		if i < last {
			for j := 0; j < next.Len(); j++ {
				if next.AtVec(j) < 0 {
					next.SetVec(j, 0)
				}
			}
		}
		a = next
		acts = append(acts, a)
	}
	return acts, zs
}

// Forward computes the network output for x.
// x must have NumInputs elements.
func (nn *FFNN) Forward(x []float64) []float64 {
	acts, _ := nn.forward(x)
	out := acts[len(acts)-1]
	res := make([]float64, out.Len())
	for i := range res {
		res[i] = out.AtVec(i)
	}
	return res
}

// Fit takes one gradient step on the squared error between Forward(x) and target.
// On ErrDiverged the network is left in an undefined state; callers fit a Clone.
func (nn *FFNN) Fit(x, target []float64, lr float64) error {
	if len(x) != nn.NumInputs() {
		return fmt.Errorf("fit: input size %d, want %d", len(x), nn.NumInputs())
	}
	if len(target) != nn.NumOutputs() {
		return fmt.Errorf("fit: target size %d, want %d", len(target), nn.NumOutputs())
	}

	acts, zs := nn.forward(x)
	out := acts[len(acts)-1]

	delta := mat.NewVecDense(out.Len(), nil)
	for i := 0; i < out.Len(); i++ {
		e := out.AtVec(i) - target[i]
		delta.SetVec(i, math.Max(-gradClip, math.Min(gradClip, e)))
	}

	for l := len(nn.layers) - 1; l >= 0; l-- {
		ly := nn.layers[l]
		prev := acts[l]

		var grad mat.Dense
		grad.Outer(lr, delta, prev)

		// Propagate before the weights change
		var back *mat.VecDense
		if l > 0 {
			back = mat.NewVecDense(prev.Len(), nil)
			back.MulVec(ly.W.T(), delta)
			pre := zs[l-1]
			for j := 0; j < back.Len(); j++ {
				if pre.AtVec(j) <= 0 {
					back.SetVec(j, 0)
				}
			}
		}

		ly.W.Sub(ly.W, &grad)
		ly.B.AddScaledVec(ly.B, -lr, delta)
		delta = back
	}

	if !nn.finite() {
		return ErrDiverged
	}
	return nil
}

func (nn *FFNN) finite() bool {
	for _, l := range nn.layers {
		r, c := l.W.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				if v := l.W.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
					return false
				}
			}
			if v := l.B.AtVec(i); math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy of the network.
func (nn *FFNN) Clone() *FFNN {
	c := &FFNN{sizes: append([]int(nil), nn.sizes...)}
	for _, l := range nn.layers {
		c.layers = append(c.layers, layer{
			W: mat.DenseCopyOf(l.W),
			B: mat.VecDenseCopyOf(l.B),
		})
	}
	return c
}

// Weights holds flattened network weights for serialization.
type Weights struct {
	Sizes  []int          `json:"sizes"`
	Layers []LayerWeights `json:"layers"`
}

// LayerWeights holds one layer in row-major order.
type LayerWeights struct {
	W []float64 `json:"w"` // [out * in]
	B []float64 `json:"b"` // [out]
}

// MarshalWeights flattens the network weights for JSON serialization.
func (nn *FFNN) MarshalWeights() Weights {
	w := Weights{Sizes: nn.Sizes()}
	for _, l := range nn.layers {
		r, c := l.W.Dims()
		lw := LayerWeights{W: make([]float64, 0, r*c), B: make([]float64, r)}
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				lw.W = append(lw.W, l.W.At(i, j))
			}
			lw.B[i] = l.B.AtVec(i)
		}
		w.Layers = append(w.Layers, lw)
	}
	return w
}

// UnmarshalWeights rebuilds a network from flattened weights.
func UnmarshalWeights(w Weights) (*FFNN, error) {
	if len(w.Sizes) < 2 || len(w.Layers) != len(w.Sizes)-1 {
		return nil, fmt.Errorf("weights: %d layers for sizes %v", len(w.Layers), w.Sizes)
	}
	nn := &FFNN{sizes: append([]int(nil), w.Sizes...)}
	for i, lw := range w.Layers {
		in, out := w.Sizes[i], w.Sizes[i+1]
		if len(lw.W) != in*out || len(lw.B) != out {
			return nil, fmt.Errorf("weights: layer %d has %d/%d values, want %d/%d", i, len(lw.W), len(lw.B), in*out, out)
		}
		nn.layers = append(nn.layers, layer{
			W: mat.NewDense(out, in, append([]float64(nil), lw.W...)),
			B: mat.NewVecDense(out, append([]float64(nil), lw.B...)),
		})
	}
	return nn, nil
}

// SameShape reports whether the network has exactly the given layer sizes.
func (nn *FFNN) SameShape(sizes []int) bool {
	if len(sizes) != len(nn.sizes) {
		return false
	}
	for i := range sizes {
		if sizes[i] != nn.sizes[i] {
			return false
		}
	}
	return true
}
