// Package feedforward implements a feedforward network type
package feedforward

import "github.com/neurlang/estimator/layer"
import "gonum.org/v1/gonum/mat"

// FeedforwardNetwork is the feedforward network, a stack of layers whose last
// layer outputs one logit per class
type FeedforwardNetwork struct {
	layers []layer.Layer
}

// NewLayer adds a layer to the end of network
func (f *FeedforwardNetwork) NewLayer(l layer.Layer) {
	f.layers = append(f.layers, l)
}

// LenLayers returns the number of layers. Activations count as layers here.
func (f FeedforwardNetwork) LenLayers() int {
	return len(f.layers)
}

// Len returns the number of scalars which need to be trained inside the network.
func (f FeedforwardNetwork) Len() (o int) {
	for _, p := range f.Params() {
		o += p.Size()
	}
	return
}

// Params returns the trainable parameters of all layers in order
func (f FeedforwardNetwork) Params() (o []*layer.Param) {
	for _, l := range f.layers {
		o = append(o, l.Params()...)
	}
	return
}

// GetParam finds a parameter by name. Returns nil on failure.
func (f FeedforwardNetwork) GetParam(name string) *layer.Param {
	for _, p := range f.Params() {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Logits runs the batch x through all layers
func (f FeedforwardNetwork) Logits(x *mat.Dense) (out *mat.Dense) {
	out = x
	for _, l := range f.layers {
		out = l.Forward(out)
	}
	return
}

// Backward propagates the loss gradient with respect to the logits of the
// last Logits call, filling in the gradient of every parameter.
func (f FeedforwardNetwork) Backward(dlogits *mat.Dense) {
	var grad = dlogits
	for i := len(f.layers) - 1; i >= 0; i-- {
		grad = f.layers[i].Backward(grad)
	}
}

// Infer returns the predicted class of each row of x
func (f FeedforwardNetwork) Infer(x *mat.Dense) []int {
	return Argmax(f.Logits(x))
}
