// Package layer defines the differentiable layer interface the networks are built from
package layer

import "gonum.org/v1/gonum/mat"

// Layer transforms a batch (one example per row) and propagates gradients back
type Layer interface {

	// Forward computes the layer output for input x and remembers what
	// Backward needs.
	Forward(x *mat.Dense) *mat.Dense

	// Backward takes the loss gradient with respect to the last Forward output,
	// stores the gradients of the parameters and returns the gradient with
	// respect to the last Forward input.
	Backward(dy *mat.Dense) *mat.Dense

	// Params returns the trainable parameters, nil for parameterless layers.
	Params() []*Param
}

// Param is a named trainable matrix together with its last computed gradient
type Param struct {
	Name  string
	Value *mat.Dense
	Grad  *mat.Dense
}

// NewParam allocates a zero parameter and gradient of the given shape
func NewParam(name string, rows, cols int) *Param {
	return &Param{
		Name:  name,
		Value: mat.NewDense(rows, cols, nil),
		Grad:  mat.NewDense(rows, cols, nil),
	}
}

// Size returns the number of scalars in the parameter
func (p *Param) Size() int {
	r, c := p.Value.Dims()
	return r * c
}
