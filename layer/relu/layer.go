// Package relu implements the rectified linear activation
package relu

import "github.com/neurlang/estimator/layer"
import "gonum.org/v1/gonum/mat"

// Relu computes max(0, x) elementwise
type Relu struct {
	y *mat.Dense
}

// New creates a new relu activation
func New() *Relu {
	return new(Relu)
}

// Params returns nil, relu has no weights
func (r *Relu) Params() []*layer.Param {
	return nil
}

// Forward clamps negative values to zero
func (r *Relu) Forward(x *mat.Dense) *mat.Dense {
	var y mat.Dense
	y.Apply(func(i, j int, v float64) float64 {
		if v > 0 {
			return v
		}
		return 0
	}, x)
	r.y = &y
	return &y
}

// Backward passes the gradient through where the output was positive
func (r *Relu) Backward(dy *mat.Dense) *mat.Dense {
	var dx mat.Dense
	dx.Apply(func(i, j int, v float64) float64 {
		if r.y.At(i, j) > 0 {
			return v
		}
		return 0
	}, dy)
	return &dx
}
