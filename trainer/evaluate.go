package trainer

import "context"
import "io"
import "math"

import "github.com/pkg/errors"

// Evaluation aggregates the metrics of an evaluation run
type Evaluation struct {
	Accuracy float64
	Loss     float64 // mean loss per example
	Examples int
	Steps    int
}

// EvalStep evaluates one batch. It returns io.EOF when the input is exhausted.
type EvalStep func(ctx context.Context) (correct, examples int, loss float64, err error)

// Evaluate runs step up to steps times, or until io.EOF when steps <= 0.
func Evaluate(ctx context.Context, steps int, step EvalStep) (e Evaluation, err error) {
	var correct int
	var lossSum float64
	for steps <= 0 || e.Steps < steps {
		if err = ctx.Err(); err != nil {
			return e, err
		}
		c, n, loss, err := step(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return e, errors.Wrapf(err, "evaluation step %d", e.Steps+1)
		}
		e.Steps++
		e.Examples += n
		correct += c
		lossSum += loss * float64(n)
	}
	if e.Examples == 0 {
		return e, errors.New("evaluation saw no examples")
	}
	e.Accuracy = float64(correct) / float64(e.Examples)
	e.Loss = lossSum / float64(e.Examples)
	return e, nil
}

// SampleSize calculates the statistically sufficient sample size
// for a given dataset size N and significance level (0-100).
func SampleSize(N int, significance byte) int {
	if N <= 1 || significance >= 100 {
		return N
	}

	z := zScoreFromAlpha(100 - significance)

	// worst case proportion
	p := 0.5
	e := float64(100-significance) * 0.01

	ss := math.Pow(z, 2) * p * (1 - p) / math.Pow(e, 2)

	// finite population correction
	corrected := ss * float64(N) / (float64(N) - 1 + ss)

	if int(corrected) > N {
		return N
	}
	return int(math.Ceil(corrected))
}

// zScoreFromAlpha returns the Z-score for a given alpha level
// Common: 90% => 1.645, 95% => 1.96, 99% => 2.576
func zScoreFromAlpha(alpha byte) float64 {
	switch {
	case alpha <= 1:
		return 2.576
	case alpha <= 5:
		return 1.96
	case alpha <= 10:
		return 1.645
	default:
		return 1.96
	}
}
