// Package config holds the settings of the mnist training commands.
package config

import "fmt"
import "os"
import "path/filepath"
import "time"

import "github.com/neurlang/estimator/datasets/mnist"
import "github.com/pkg/errors"

// Classifier kinds accepted by the training command
const (
	ClassifierDNN    = "dnn"
	ClassifierLinear = "linear"
	ClassifierBoth   = "both"
)

// Run directory prefixes inside ModelDir
const (
	DeepPrefix   = "deep"
	LinearPrefix = "linear"
)

// Config captures the runtime knobs for a training run.
type Config struct {
	DataDir      string
	ModelDir     string
	NumSteps     int64
	Classifier   string
	BatchSize    int
	LearningRate float64
	HiddenUnits  []int
	SourceURL    string
	Validation   int // examples held out of train, none when negative
	EvalSteps    int
	Seed         int64
	CPUProfile   string
	OptimizerLog string // optimizer settings are appended here when set
}

// Default returns the settings the training command starts from.
func Default() Config {
	return Config{
		DataDir:      "/tmp/MNIST_data",
		ModelDir:     "/tmp/tfmodels/mnist_estimators",
		NumSteps:     15000,
		Classifier:   ClassifierDNN,
		BatchSize:    40,
		LearningRate: 0.1,
		HiddenUnits:  []int{128, 32},
		SourceURL:    mnist.DefaultSource,
		Validation:   mnist.DefaultValidationSize,
		EvalSteps:    100,
	}
}

// Validate verifies the config is runnable.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir must be set")
	}
	if c.ModelDir == "" {
		return errors.New("model_dir must be set")
	}
	if c.NumSteps <= 0 {
		return errors.Errorf("num_steps must be > 0 (got %d)", c.NumSteps)
	}
	if c.BatchSize <= 0 {
		return errors.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.LearningRate <= 0 {
		return errors.Errorf("learning_rate must be > 0 (got %g)", c.LearningRate)
	}
	switch c.Classifier {
	case ClassifierDNN, ClassifierLinear, ClassifierBoth:
	default:
		return errors.Errorf("classifier must be one of dnn, linear, both (got %q)", c.Classifier)
	}
	for i, h := range c.HiddenUnits {
		if h <= 0 {
			return errors.Errorf("hidden layer %d has %d units", i, h)
		}
	}
	if c.SourceURL == "" {
		return errors.New("source_url must be set")
	}
	return nil
}

// RunDir creates and returns a fresh <base>/<kind>_<unix seconds> directory.
// When that name is taken _1, _2, ... is appended.
func RunDir(base, kind string, now time.Time) (string, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", errors.Wrapf(err, "creating model directory '%s'", base)
	}
	var name = fmt.Sprintf("%s_%d", kind, now.Unix())
	for i := 0; ; i++ {
		var dir = filepath.Join(base, name)
		if i > 0 {
			dir = fmt.Sprintf("%s_%d", dir, i)
		}
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return dir, nil
		}
		if !os.IsExist(err) {
			return "", errors.Wrapf(err, "creating run directory '%s'", dir)
		}
	}
}
