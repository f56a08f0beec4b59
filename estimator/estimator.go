// Package estimator implements canned classifiers which train, evaluate and
// predict from input functions while checkpointing to a model directory.
package estimator

import "fmt"
import "math"
import "math/rand"
import "os"
import "time"

import "github.com/google/uuid"
import "github.com/neurlang/estimator/checkpoint"
import "github.com/neurlang/estimator/layer"
import "github.com/neurlang/estimator/layer/full"
import "github.com/neurlang/estimator/layer/relu"
import "github.com/neurlang/estimator/learning"
import "github.com/neurlang/estimator/net/feedforward"
import "github.com/neurlang/estimator/trainer"
import "github.com/pkg/errors"

// Model kinds stored in checkpoints
const (
	Linear = "linear"
	DNN    = "dnn"
)

// Classifier is a softmax classifier over dense feature columns. It is not
// safe for concurrent use.
type Classifier struct {
	model   string
	columns []FeatureColumn
	classes int
	hidden  []int

	net feedforward.FeedforwardNetwork
	opt learning.Optimizer
	cfg RunConfig

	runID  string
	step   int64
	synced bool // weights match the newest checkpoint of ModelDir or are newer
}

// NewLinearClassifier creates a linear model. A nil opt selects Ftrl with
// learning rate min(0.2, 1/sqrt(len(columns))).
func NewLinearClassifier(columns []FeatureColumn, classes int, opt learning.Optimizer, cfg RunConfig) (*Classifier, error) {
	if err := validate(columns, classes); err != nil {
		return nil, err
	}
	if opt == nil {
		opt = learning.NewFtrl(learning.HyperParameters{
			LearningRate: math.Min(0.2, 1/math.Sqrt(float64(len(columns)))),
		})
	}
	c, err := newClassifier(Linear, columns, classes, nil, opt, cfg)
	if err != nil {
		return nil, err
	}
	c.net.NewLayer(full.MustNew("linear/linear_model", width(columns), classes, nil))
	return c, nil
}

// NewDNNClassifier creates a feed forward network with a relu activated layer
// per entry of hidden. A nil opt selects Adagrad with learning rate 0.05.
func NewDNNClassifier(columns []FeatureColumn, classes int, hidden []int, opt learning.Optimizer, cfg RunConfig) (*Classifier, error) {
	if err := validate(columns, classes); err != nil {
		return nil, err
	}
	if len(hidden) == 0 {
		return nil, errors.New("dnn classifier needs at least one hidden layer")
	}
	for i, h := range hidden {
		if h <= 0 {
			return nil, errors.Errorf("hidden layer %d has %d units", i, h)
		}
	}
	if opt == nil {
		opt = learning.NewAdagrad(learning.HyperParameters{})
	}
	c, err := newClassifier(DNN, columns, classes, hidden, opt, cfg)
	if err != nil {
		return nil, err
	}
	var seed = cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	var in = width(columns)
	for i, h := range hidden {
		c.net.NewLayer(full.MustNew(fmt.Sprintf("dnn/hiddenlayer_%d", i), in, h, rng))
		c.net.NewLayer(relu.New())
		in = h
	}
	c.net.NewLayer(full.MustNew("dnn/logits", in, classes, rng))
	return c, nil
}

func validate(columns []FeatureColumn, classes int) error {
	if err := validColumns(columns); err != nil {
		return err
	}
	if classes < 2 {
		return errors.Errorf("need at least 2 classes, got %d", classes)
	}
	return nil
}

func newClassifier(model string, columns []FeatureColumn, classes int, hidden []int, opt learning.Optimizer, cfg RunConfig) (*Classifier, error) {
	cfg = cfg.withDefaults()
	if cfg.ModelDir == "" {
		dir, err := os.MkdirTemp("", "estimator")
		if err != nil {
			return nil, errors.Wrap(err, "creating temporary model directory")
		}
		cfg.Logger.Printf("Using temporary folder as model directory: %s", dir)
		cfg.ModelDir = dir
	}
	return &Classifier{
		model:   model,
		columns: append([]FeatureColumn(nil), columns...),
		classes: classes,
		hidden:  append([]int(nil), hidden...),
		opt:     opt,
		cfg:     cfg,
		runID:   uuid.NewString(),
	}, nil
}

// ModelDir returns the directory holding checkpoints and summaries
func (c *Classifier) ModelDir() string {
	return c.cfg.ModelDir
}

// GlobalStep returns the number of training steps the weights have seen
func (c *Classifier) GlobalStep() int64 {
	return c.step
}

// Kind returns Linear or DNN
func (c *Classifier) Kind() string {
	return c.model
}

// state is everything a checkpoint holds: weights then optimizer slots
func (c *Classifier) state() []*layer.Param {
	params := c.net.Params()
	return append(params, c.opt.Slots(params)...)
}

func (c *Classifier) meta(step int64) checkpoint.Meta {
	return checkpoint.Meta{
		GlobalStep:  step,
		RunID:       c.runID,
		Model:       c.model,
		HiddenUnits: c.hidden,
		Classes:     c.classes,
		Columns:     toCheckpoint(c.columns),
		Optimizer:   c.opt.Name(),
		SavedAt:     time.Now().UTC(),
	}
}

// restore warm starts from the newest checkpoint once per classifier. With
// require set a model directory without checkpoints is an error.
func (c *Classifier) restore(require bool) error {
	if c.synced {
		return nil
	}
	step, err := trainer.Resume(c.cfg.ModelDir, c.state(), c.cfg.Logger)
	if err != nil {
		return err
	}
	if step == 0 && require {
		return errors.Wrapf(os.ErrNotExist, "no trained model in %s", c.cfg.ModelDir)
	}
	c.step = step
	c.synced = true
	return nil
}
