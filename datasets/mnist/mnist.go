// Package mnist downloads, verifies and parses the MNIST handwritten digit dataset
package mnist

import "context"
import "log"
import "net/http"
import "path/filepath"

import "github.com/neurlang/estimator/datasets"
import "github.com/neurlang/estimator/parallel"
import "github.com/pkg/errors"

// DefaultSource is the mirror the archives are fetched from
const DefaultSource = "https://storage.googleapis.com/cvdf-datasets/mnist/"

// FashionSource serves Fashion-MNIST under the same file names. Use a different
// data directory when switching sources.
const FashionSource = "http://fashion-mnist.s3-website.eu-central-1.amazonaws.com/"

const inferSetImg = "t10k-images-idx3-ubyte.gz"
const inferSetVal = "t10k-labels-idx1-ubyte.gz"
const trainSetImg = "train-images-idx3-ubyte.gz"
const trainSetVal = "train-labels-idx1-ubyte.gz"
const inferDigImg = "8d422c7b0a1c1c79245a5bcf07fe86e33eeafee792b84584aec276f5a2dbc4e6"
const inferDigVal = "f7ae60f92e00ec6debd23a6088c31dbd2371eca3ffa0defaefb259924204aec6"
const trainDigImg = "440fcabf73cc546fa21475e81ea370265605f56be210a4024d2ca8f203523609"
const trainDigVal = "3552534a0a558bbed6aed32b30c495cca23d567ec52cac8be1a0730e8010255c"

// Files lists the four archives in the order they are fetched
var Files = []string{trainSetImg, trainSetVal, inferSetImg, inferSetVal}

var digests = map[string]string{
	inferSetImg: inferDigImg,
	inferSetVal: inferDigVal,
	trainSetImg: trainDigImg,
	trainSetVal: trainDigVal,
}

// ImgSize is the side of one digit image
const ImgSize = 28

// Pixels is the length of a flattened image
const Pixels = ImgSize * ImgSize

// Classes is the number of digit classes
const Classes = 10

// DefaultValidationSize is the number of training examples held out for validation
const DefaultValidationSize = 5000

// Options configures ReadDataSets
type Options struct {
	Source         string       // base URL, DefaultSource if empty
	ValidationSize int          // held out from train, DefaultValidationSize if zero, none if negative
	Client         *http.Client // http.DefaultClient if nil
	Logger         *log.Logger  // log.Default() if nil
}

func (o *Options) defaults() {
	if o.Source == "" {
		o.Source = DefaultSource
	}
	if o.ValidationSize == 0 {
		o.ValidationSize = DefaultValidationSize
	}
	if o.ValidationSize < 0 {
		o.ValidationSize = 0
	}
	if o.Client == nil {
		o.Client = http.DefaultClient
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
}

// ReadDataSets makes sure the four archives exist in dir, downloading them when
// missing, and parses them into train, validation and test splits.
func ReadDataSets(ctx context.Context, dir string, opts Options) (*datasets.Sets, error) {
	opts.defaults()

	var paths = make(map[string]string, len(Files))
	for _, name := range Files {
		path, err := Download(ctx, opts.Client, opts.Source, dir, name)
		if err != nil {
			return nil, err
		}
		if opts.Source == DefaultSource {
			if err := Verify(path, digests[name]); err != nil {
				return nil, err
			}
		}
		opts.Logger.Printf("Extracting %s", path)
		paths[name] = path
	}

	train, err := readSplit(paths[trainSetImg], paths[trainSetVal])
	if err != nil {
		return nil, err
	}
	test, err := readSplit(paths[inferSetImg], paths[inferSetVal])
	if err != nil {
		return nil, err
	}
	if opts.ValidationSize > train.Len() {
		return nil, errors.Errorf("validation size %d exceeds %d training examples", opts.ValidationSize, train.Len())
	}
	return &datasets.Sets{
		Validation: train.Slice(0, opts.ValidationSize),
		Train:      train.Slice(opts.ValidationSize, train.Len()),
		Test:       test,
	}, nil
}

func readSplit(imagesPath, labelsPath string) (*datasets.Split, error) {
	imgs, err := ReadImagesFile(imagesPath)
	if err != nil {
		return nil, err
	}
	labels, err := ReadLabelsFile(labelsPath)
	if err != nil {
		return nil, err
	}
	if imgs.Count != len(labels) {
		return nil, errors.Errorf("%s has %d images but %s has %d labels",
			filepath.Base(imagesPath), imgs.Count, filepath.Base(labelsPath), len(labels))
	}
	if imgs.Rows != ImgSize || imgs.Cols != ImgSize {
		return nil, errors.Errorf("%s: images are %dx%d, want %dx%d",
			filepath.Base(imagesPath), imgs.Rows, imgs.Cols, ImgSize, ImgSize)
	}

	var images = make([][]float64, imgs.Count)
	var ints = make([]int, imgs.Count)
	parallel.ForEach(imgs.Count, 0, func(i int) {
		images[i] = Scale(imgs.Image(i))
		ints[i] = int(labels[i])
	})
	return datasets.NewSplit(images, ints, Pixels, Classes)
}

// Scale converts raw pixel bytes to values in [0, 1]
func Scale(raw []byte) []float64 {
	var o = make([]float64, len(raw))
	for i, v := range raw {
		o[i] = float64(v) / 255
	}
	return o
}
