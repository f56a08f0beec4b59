// Package datasets implements the labelled example containers fed to the estimators
package datasets

import "math/rand"

import "github.com/pkg/errors"

// Split is one part of a dataset (train, validation or test). Images are
// flattened pixel vectors of length Dim, labels are class numbers.
type Split struct {
	Images  [][]float64
	Labels  []int
	Dim     int
	Classes int
}

// Sets groups the splits of a dataset
type Sets struct {
	Train      *Split
	Validation *Split
	Test       *Split
}

// NewSplit validates images and labels and wraps them in a Split
func NewSplit(images [][]float64, labels []int, dim, classes int) (*Split, error) {
	if len(images) != len(labels) {
		return nil, errors.Errorf("images and labels differ in length: %d != %d", len(images), len(labels))
	}
	if dim <= 0 {
		return nil, errors.Errorf("bad image dimension %d", dim)
	}
	if classes <= 1 {
		return nil, errors.Errorf("bad number of classes %d", classes)
	}
	for i := range images {
		if len(images[i]) != dim {
			return nil, errors.Errorf("image %d has %d values, want %d", i, len(images[i]), dim)
		}
		if labels[i] < 0 || labels[i] >= classes {
			return nil, errors.Errorf("label %d of example %d out of range [0, %d)", labels[i], i, classes)
		}
	}
	return &Split{
		Images:  images,
		Labels:  labels,
		Dim:     dim,
		Classes: classes,
	}, nil
}

// Len returns the number of examples
func (s *Split) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Labels)
}

// Example returns the i-th image and its label
func (s *Split) Example(i int) ([]float64, int) {
	return s.Images[i], s.Labels[i]
}

// Slice returns examples [from, to) sharing the underlying storage
func (s *Split) Slice(from, to int) *Split {
	return &Split{
		Images:  s.Images[from:to],
		Labels:  s.Labels[from:to],
		Dim:     s.Dim,
		Classes: s.Classes,
	}
}

// Shuffle shuffles the examples in place
func (s *Split) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(s.Labels), func(i, j int) {
		s.Labels[i], s.Labels[j] = s.Labels[j], s.Labels[i]
		s.Images[i], s.Images[j] = s.Images[j], s.Images[i]
	})
}

// Histogram counts the examples of each class
func (s *Split) Histogram() []int {
	var o = make([]int, s.Classes)
	for _, l := range s.Labels {
		o[l]++
	}
	return o
}
