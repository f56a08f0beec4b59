package feedforward

import "compress/lzw"
import "encoding/json"
import "io"
import "os"

import "github.com/neurlang/estimator/layer"
import "github.com/pkg/errors"

type paramJson struct {
	Name  string    `json:"name"`
	Shape [2]int    `json:"shape"`
	Data  []float64 `json:"data"`
}

// WriteCompressedWeightsToFile writes model weights to a lzw file
func (f FeedforwardNetwork) WriteCompressedWeightsToFile(name string) error {
	return WriteParamsToFile(name, f.Params())
}

// WriteCompressedWeights writes model weights to a writer
func (f FeedforwardNetwork) WriteCompressedWeights(w io.Writer) error {
	return WriteParams(w, f.Params())
}

// ReadCompressedWeightsFromFile reads model weights from a lzw file
func (f FeedforwardNetwork) ReadCompressedWeightsFromFile(name string) error {
	return ReadParamsFromFile(name, f.Params())
}

// ReadCompressedWeights reads model weights from a reader
func (f FeedforwardNetwork) ReadCompressedWeights(r io.Reader) error {
	return ReadParams(r, f.Params())
}

// WriteParamsToFile writes parameters to a lzw file
func WriteParamsToFile(name string, params []*layer.Param) error {
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	err = WriteParams(file, params)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return err
}

// WriteParams writes parameters as a lzw compressed json array, one parameter per line
func WriteParams(w io.Writer, params []*layer.Param) error {
	lw := lzw.NewWriter(w, lzw.LSB, 8)

	_, err := lw.Write([]byte("[\n"))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(lw)
	for i, p := range params {
		if i != 0 {
			_, err = lw.Write([]byte(",\n"))
			if err != nil {
				return err
			}
		}
		r, c := p.Value.Dims()
		data := make([]float64, 0, r*c)
		for row := 0; row < r; row++ {
			data = append(data, p.Value.RawRowView(row)...)
		}
		err = enc.Encode(paramJson{Name: p.Name, Shape: [2]int{r, c}, Data: data})
		if err != nil {
			return errors.Wrapf(err, "encoding %s", p.Name)
		}
	}
	_, err = lw.Write([]byte("]\n"))
	if err != nil {
		return err
	}
	return lw.Close()
}

// ReadParamsFromFile reads parameters from a lzw file
func ReadParamsFromFile(name string, params []*layer.Param) error {
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()
	return errors.Wrapf(ReadParams(file, params), "reading weights '%s'", name)
}

// ReadParams reads parameters written by WriteParams into params, matching them
// by name. Every parameter in params must be present with the same shape.
func ReadParams(r io.Reader, params []*layer.Param) error {
	lr := lzw.NewReader(r, lzw.LSB, 8)
	defer lr.Close()

	var stored []paramJson
	if err := json.NewDecoder(lr).Decode(&stored); err != nil {
		return errors.Wrap(err, "decoding weights")
	}
	var byName = make(map[string]*paramJson, len(stored))
	for i := range stored {
		byName[stored[i].Name] = &stored[i]
	}
	for _, p := range params {
		s, ok := byName[p.Name]
		if !ok {
			return errors.Errorf("weights for %s not found", p.Name)
		}
		r, c := p.Value.Dims()
		if s.Shape != [2]int{r, c} || len(s.Data) != r*c {
			return errors.Errorf("weights for %s have shape %v, want [%d %d]", p.Name, s.Shape, r, c)
		}
		for row := 0; row < r; row++ {
			copy(p.Value.RawRowView(row), s.Data[row*c:(row+1)*c])
		}
	}
	return nil
}
