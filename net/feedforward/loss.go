package feedforward

import "math"

import "github.com/pkg/errors"
import "gonum.org/v1/gonum/floats"
import "gonum.org/v1/gonum/mat"

// Softmax converts each row of logits into class probabilities
func Softmax(logits *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.CloneFrom(logits)
	rows, _ := out.Dims()
	for i := 0; i < rows; i++ {
		var row = out.RawRowView(i)
		var max = floats.Max(row)
		for j := range row {
			row[j] = math.Exp(row[j] - max)
		}
		floats.Scale(1/floats.Sum(row), row)
	}
	return &out
}

// Argmax returns the column of the largest value in each row
func Argmax(m *mat.Dense) []int {
	rows, _ := m.Dims()
	var o = make([]int, rows)
	for i := range o {
		o[i] = floats.MaxIdx(m.RawRowView(i))
	}
	return o
}

// SoftmaxCrossEntropy returns the mean cross-entropy loss of logits against
// labels, its gradient with respect to the logits, and how many rows the
// logits already classify correctly.
func SoftmaxCrossEntropy(logits *mat.Dense, labels []int) (loss float64, grad *mat.Dense, correct int, err error) {
	rows, cols := logits.Dims()
	if rows != len(labels) {
		return 0, nil, 0, errors.Errorf("%d logit rows for %d labels", rows, len(labels))
	}
	grad = Softmax(logits)
	var scale = 1 / float64(rows)
	for i, label := range labels {
		if label < 0 || label >= cols {
			return 0, nil, 0, errors.Errorf("label %d out of range [0, %d)", label, cols)
		}
		var row = grad.RawRowView(i)
		if floats.MaxIdx(row) == label {
			correct++
		}
		loss -= math.Log(math.Max(row[label], 1e-12))
		row[label] -= 1
		floats.Scale(scale, row)
	}
	return loss * scale, grad, correct, nil
}
