// Package full implements a fully connected layer
package full

import "math"
import "math/rand"

import "github.com/neurlang/estimator/layer"
import "gonum.org/v1/gonum/floats"
import "gonum.org/v1/gonum/mat"

// Full computes y = xW + b
type Full struct {
	kernel *layer.Param
	bias   *layer.Param
	x      *mat.Dense
}

// MustNew creates a new full layer and panics on bad sizes
func MustNew(name string, in, out int, rng *rand.Rand) *Full {
	o, err := New(name, in, out, rng)
	if err != nil {
		panic(err.Error())
	}
	return o
}

// New creates a new full layer mapping in features to out features. The kernel
// is drawn Glorot-uniform from rng, the bias starts at zero. A nil rng leaves
// the kernel zero, which is how linear models start.
func New(name string, in, out int, rng *rand.Rand) (o *Full, err error) {
	if in <= 0 || out <= 0 {
		return nil, errSize(in, out)
	}
	o = new(Full)
	o.kernel = layer.NewParam(name+"/kernel", in, out)
	o.bias = layer.NewParam(name+"/bias", 1, out)
	if rng != nil {
		var limit = math.Sqrt(6 / float64(in+out))
		var raw = o.kernel.Value.RawMatrix().Data
		for i := range raw {
			raw[i] = (rng.Float64()*2 - 1) * limit
		}
	}
	return
}

// In returns the number of input features
func (f *Full) In() int {
	r, _ := f.kernel.Value.Dims()
	return r
}

// Out returns the number of output features
func (f *Full) Out() int {
	_, c := f.kernel.Value.Dims()
	return c
}

// Params returns the kernel and the bias
func (f *Full) Params() []*layer.Param {
	return []*layer.Param{f.kernel, f.bias}
}

// Forward computes xW + b
func (f *Full) Forward(x *mat.Dense) *mat.Dense {
	f.x = x
	var y mat.Dense
	y.Mul(x, f.kernel.Value)
	var b = f.bias.Value.RawRowView(0)
	rows, _ := y.Dims()
	for i := 0; i < rows; i++ {
		floats.Add(y.RawRowView(i), b)
	}
	return &y
}

// Backward stores dW = xᵀdy, db = column sums of dy and returns dy Wᵀ
func (f *Full) Backward(dy *mat.Dense) *mat.Dense {
	f.kernel.Grad.Mul(f.x.T(), dy)

	var db = f.bias.Grad.RawRowView(0)
	for i := range db {
		db[i] = 0
	}
	rows, _ := dy.Dims()
	for i := 0; i < rows; i++ {
		floats.Add(db, dy.RawRowView(i))
	}

	var dx mat.Dense
	dx.Mul(dy, f.kernel.Value.T())
	return &dx
}
