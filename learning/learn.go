// Package learning implements the optimizers which update network weights from gradients
package learning

import "math"

import "github.com/neurlang/estimator/layer"
import "github.com/pkg/errors"

// Optimizer updates parameters in place from their gradients
type Optimizer interface {

	// Name identifies the optimizer in checkpoints and logs
	Name() string

	// Apply performs one update step using p.Grad of each parameter
	Apply(params []*layer.Param)

	// Slots returns the optimizer state kept for params (accumulators), creating
	// it when missing, so that it can be checkpointed and restored.
	Slots(params []*layer.Param) []*layer.Param
}

// New returns the named optimizer: "SGD", "Adagrad", "ProximalAdagrad" or "Ftrl"
func New(name string, h HyperParameters) (Optimizer, error) {
	switch name {
	case "SGD":
		return NewSGD(h), nil
	case "Adagrad":
		return NewAdagrad(h), nil
	case "ProximalAdagrad":
		return NewProximalAdagrad(h), nil
	case "Ftrl":
		return NewFtrl(h), nil
	}
	return nil, errors.Errorf("unknown optimizer %q", name)
}

type slots struct {
	m map[string]*layer.Param
}

func (s *slots) get(p *layer.Param, suffix string, init float64) *layer.Param {
	if s.m == nil {
		s.m = make(map[string]*layer.Param)
	}
	var name = p.Name + "/" + suffix
	if o, ok := s.m[name]; ok {
		return o
	}
	r, c := p.Value.Dims()
	o := layer.NewParam(name, r, c)
	if init != 0 {
		var raw = o.Value.RawMatrix().Data
		for i := range raw {
			raw[i] = init
		}
	}
	s.m[name] = o
	return o
}

func raw(p *layer.Param) (w, g []float64) {
	return p.Value.RawMatrix().Data, p.Grad.RawMatrix().Data
}

// SGD is plain gradient descent
type SGD struct {
	h HyperParameters
}

// NewSGD creates gradient descent, learning rate 0.01 by default
func NewSGD(h HyperParameters) *SGD {
	h = h.withDefaults(0.01, 0.1)
	h.log("SGD")
	return &SGD{h: h}
}

// Name returns "SGD"
func (o *SGD) Name() string { return "SGD" }

// Slots returns nil, SGD keeps no state
func (o *SGD) Slots([]*layer.Param) []*layer.Param { return nil }

// Apply performs w -= lr * g
func (o *SGD) Apply(params []*layer.Param) {
	for _, p := range params {
		w, g := raw(p)
		for i := range w {
			w[i] -= o.h.LearningRate * g[i]
		}
	}
}

// Adagrad scales the step of every weight by its accumulated squared gradients
type Adagrad struct {
	h HyperParameters
	s slots
}

// NewAdagrad creates adagrad, learning rate 0.05 by default
func NewAdagrad(h HyperParameters) *Adagrad {
	h = h.withDefaults(0.05, 0.1)
	h.log("Adagrad")
	return &Adagrad{h: h}
}

// Name returns "Adagrad"
func (o *Adagrad) Name() string { return "Adagrad" }

// Slots returns the accumulators
func (o *Adagrad) Slots(params []*layer.Param) (out []*layer.Param) {
	for _, p := range params {
		out = append(out, o.s.get(p, "Adagrad", o.h.InitialAccumulator))
	}
	return
}

// Apply performs acc += g², w -= lr * g / sqrt(acc)
func (o *Adagrad) Apply(params []*layer.Param) {
	for _, p := range params {
		w, g := raw(p)
		acc := o.s.get(p, "Adagrad", o.h.InitialAccumulator).Value.RawMatrix().Data
		for i := range w {
			acc[i] += g[i] * g[i]
			w[i] -= o.h.LearningRate * g[i] / math.Sqrt(acc[i])
		}
	}
}

// ProximalAdagrad is adagrad followed by the proximal step for l1 and l2 regularization
type ProximalAdagrad struct {
	h HyperParameters
	s slots
}

// NewProximalAdagrad creates proximal adagrad, learning rate 0.1 by default
func NewProximalAdagrad(h HyperParameters) *ProximalAdagrad {
	h = h.withDefaults(0.1, 0.1)
	h.log("ProximalAdagrad")
	return &ProximalAdagrad{h: h}
}

// Name returns "ProximalAdagrad"
func (o *ProximalAdagrad) Name() string { return "ProximalAdagrad" }

// Slots returns the accumulators
func (o *ProximalAdagrad) Slots(params []*layer.Param) (out []*layer.Param) {
	for _, p := range params {
		out = append(out, o.s.get(p, "ProximalAdagrad", o.h.InitialAccumulator))
	}
	return
}

// Apply performs the adagrad step then shrinks the weight towards zero
func (o *ProximalAdagrad) Apply(params []*layer.Param) {
	for _, p := range params {
		w, g := raw(p)
		acc := o.s.get(p, "ProximalAdagrad", o.h.InitialAccumulator).Value.RawMatrix().Data
		for i := range w {
			acc[i] += g[i] * g[i]
			lr := o.h.LearningRate / math.Sqrt(acc[i])
			prox := w[i] - lr*g[i]
			if o.h.L1 > 0 {
				w[i] = math.Copysign(math.Max(math.Abs(prox)-lr*o.h.L1, 0), prox) / (1 + lr*o.h.L2)
			} else {
				w[i] = prox / (1 + lr*o.h.L2)
			}
		}
	}
}

// Ftrl is follow-the-regularized-leader, the default optimizer of linear models
type Ftrl struct {
	h HyperParameters
	s slots
}

// NewFtrl creates ftrl, learning rate 0.2 and learning rate power -0.5 by default
func NewFtrl(h HyperParameters) *Ftrl {
	h = h.withDefaults(0.2, 0.1)
	h.log("Ftrl")
	return &Ftrl{h: h}
}

// Name returns "Ftrl"
func (o *Ftrl) Name() string { return "Ftrl" }

// Slots returns the accumulators followed by the linear terms
func (o *Ftrl) Slots(params []*layer.Param) (out []*layer.Param) {
	for _, p := range params {
		out = append(out, o.s.get(p, "Ftrl", o.h.InitialAccumulator))
	}
	for _, p := range params {
		out = append(out, o.s.get(p, "Ftrl_1", 0))
	}
	return
}

// Apply performs one ftrl-proximal step
func (o *Ftrl) Apply(params []*layer.Param) {
	var power = -o.h.LearningRatePower
	var lr = o.h.LearningRate
	for _, p := range params {
		w, g := raw(p)
		acc := o.s.get(p, "Ftrl", o.h.InitialAccumulator).Value.RawMatrix().Data
		lin := o.s.get(p, "Ftrl_1", 0).Value.RawMatrix().Data
		for i := range w {
			newAcc := acc[i] + g[i]*g[i]
			sigma := (math.Pow(newAcc, power) - math.Pow(acc[i], power)) / lr
			lin[i] += g[i] - sigma*w[i]
			quadratic := math.Pow(newAcc, power)/lr + 2*o.h.L2
			if math.Abs(lin[i]) > o.h.L1 {
				w[i] = (math.Copysign(o.h.L1, lin[i]) - lin[i]) / quadratic
			} else {
				w[i] = 0
			}
			acc[i] = newAcc
		}
	}
}
