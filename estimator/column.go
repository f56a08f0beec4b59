package estimator

import "github.com/neurlang/estimator/checkpoint"
import "github.com/pkg/errors"
import "gonum.org/v1/gonum/mat"

// FeatureColumn is a dense real valued feature of the input batches
type FeatureColumn struct {
	Name      string
	Dimension int
}

// RealValuedColumn returns the column named name holding dimension values per example
func RealValuedColumn(name string, dimension int) FeatureColumn {
	return FeatureColumn{Name: name, Dimension: dimension}
}

func width(columns []FeatureColumn) (n int) {
	for _, c := range columns {
		n += c.Dimension
	}
	return
}

func validColumns(columns []FeatureColumn) error {
	if len(columns) == 0 {
		return errors.New("no feature columns")
	}
	var seen = make(map[string]bool)
	for _, c := range columns {
		if c.Name == "" || c.Dimension <= 0 {
			return errors.Errorf("bad feature column %q with dimension %d", c.Name, c.Dimension)
		}
		if seen[c.Name] {
			return errors.Errorf("duplicate feature column %q", c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}

// inputLayer lays the columns of features side by side in column order
func inputLayer(columns []FeatureColumn, features map[string]*mat.Dense) (*mat.Dense, error) {
	var rows = -1
	for _, c := range columns {
		m, ok := features[c.Name]
		if !ok || m == nil {
			return nil, errors.Errorf("feature %q missing from input", c.Name)
		}
		r, d := m.Dims()
		if d != c.Dimension {
			return nil, errors.Errorf("feature %q has dimension %d, want %d", c.Name, d, c.Dimension)
		}
		if rows >= 0 && r != rows {
			return nil, errors.Errorf("feature %q has %d rows, others have %d", c.Name, r, rows)
		}
		rows = r
	}
	if len(columns) == 1 {
		return features[columns[0].Name], nil
	}
	x := mat.NewDense(rows, width(columns), nil)
	var at int
	for _, c := range columns {
		x.Slice(0, rows, at, at+c.Dimension).(*mat.Dense).Copy(features[c.Name])
		at += c.Dimension
	}
	return x, nil
}

func toCheckpoint(columns []FeatureColumn) (out []checkpoint.Column) {
	for _, c := range columns {
		out = append(out, checkpoint.Column{Name: c.Name, Dimension: c.Dimension})
	}
	return
}

func fromCheckpoint(columns []checkpoint.Column) (out []FeatureColumn) {
	for _, c := range columns {
		out = append(out, RealValuedColumn(c.Name, c.Dimension))
	}
	return
}
