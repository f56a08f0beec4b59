// Package input builds the input functions which feed batches of examples to the estimators
package input

import "context"
import "io"

import "github.com/neurlang/estimator/datasets"
import "github.com/pkg/errors"
import "gonum.org/v1/gonum/mat"

// DefaultFeature is the feature key images are published under
const DefaultFeature = "pixels"

// DefaultBatchSize is the batch size used when none is given
const DefaultBatchSize = 40

// Batch is a group of examples: one matrix row per example for every feature,
// and the labels in the same row order
type Batch struct {
	Features map[string]*mat.Dense
	Labels   []int
}

// Len returns the number of examples in the batch
func (b Batch) Len() int {
	return len(b.Labels)
}

// Func yields the next batch. Finite input functions return io.EOF when done.
type Func func(ctx context.Context) (Batch, error)

func gather(split *datasets.Split, feature string, indices []int) Batch {
	var x = mat.NewDense(len(indices), split.Dim, nil)
	var labels = make([]int, len(indices))
	for row, i := range indices {
		copy(x.RawRowView(row), split.Images[i])
		labels[row] = split.Labels[i]
	}
	return Batch{
		Features: map[string]*mat.Dense{feature: x},
		Labels:   labels,
	}
}

// Ordered returns an input function walking split once in order, batchSize
// examples at a time. The final batch may be shorter, after it io.EOF is returned.
func Ordered(split *datasets.Split, batchSize int) (Func, error) {
	if split.Len() == 0 {
		return nil, errors.New("ordered input over an empty split")
	}
	if batchSize <= 0 {
		return nil, errors.Errorf("batch size must be > 0 (got %d)", batchSize)
	}
	var next int
	return func(ctx context.Context) (Batch, error) {
		if err := ctx.Err(); err != nil {
			return Batch{}, err
		}
		if next >= split.Len() {
			return Batch{}, io.EOF
		}
		var end = next + batchSize
		if end > split.Len() {
			end = split.Len()
		}
		var indices = make([]int, 0, end-next)
		for i := next; i < end; i++ {
			indices = append(indices, i)
		}
		next = end
		return gather(split, DefaultFeature, indices), nil
	}, nil
}
