package relu

import "testing"

import "gonum.org/v1/gonum/mat"

func TestRelu(t *testing.T) {
	r := New()
	y := r.Forward(mat.NewDense(1, 4, []float64{-1, 0, 2, -3}))
	if !mat.Equal(y, mat.NewDense(1, 4, []float64{0, 0, 2, 0})) {
		t.Errorf("forward %v", mat.Formatted(y))
	}
	dx := r.Backward(mat.NewDense(1, 4, []float64{5, 6, 7, 8}))
	if !mat.Equal(dx, mat.NewDense(1, 4, []float64{0, 0, 7, 0})) {
		t.Errorf("backward %v", mat.Formatted(dx))
	}
	if r.Params() != nil {
		t.Error("relu has params")
	}
}
