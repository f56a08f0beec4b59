package learning

import (
	"io"
	"log"
	"os"
)

// SetLogger makes the optimizer log to the named file, appending
func (h *HyperParameters) SetLogger(filename string) error {
	outfile, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return err
	}
	h.l = log.New(outfile, "", log.LstdFlags)
	return nil
}

func (h *HyperParameters) logger() *log.Logger {
	if h.l == nil {
		return log.New(io.Discard, "", 0)
	}
	return h.l
}

// HyperParameters configures an optimizer. Zero fields take the defaults of the
// chosen optimizer.
type HyperParameters struct {
	LearningRate float64 // step size

	InitialAccumulator float64 // starting value of the adagrad and ftrl accumulators
	LearningRatePower  float64 // ftrl only, must be <= 0

	L1 float64 // l1 regularization strength (proximal adagrad and ftrl)
	L2 float64 // l2 regularization strength (proximal adagrad and ftrl)

	l *log.Logger
}

func (h HyperParameters) withDefaults(lr, acc float64) HyperParameters {
	if h.LearningRate <= 0 {
		h.LearningRate = lr
	}
	if h.InitialAccumulator <= 0 {
		h.InitialAccumulator = acc
	}
	if h.LearningRatePower == 0 {
		h.LearningRatePower = -0.5
	}
	return h
}

func (h HyperParameters) log(name string) {
	h.logger().Printf("optimizer=%s learning_rate=%g initial_accumulator=%g l1=%g l2=%g",
		name, h.LearningRate, h.InitialAccumulator, h.L1, h.L2)
}
