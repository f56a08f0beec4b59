package estimator

import "github.com/neurlang/estimator/checkpoint"
import "github.com/neurlang/estimator/learning"
import "github.com/pkg/errors"

// Load rebuilds the classifier saved in cfg.ModelDir from its newest
// checkpoint and restores its weights.
func Load(cfg RunConfig) (*Classifier, error) {
	prefix, err := checkpoint.Latest(cfg.ModelDir)
	if err != nil {
		return nil, err
	}
	meta, err := checkpoint.ReadMeta(prefix)
	if err != nil {
		return nil, err
	}
	opt, err := learning.New(meta.Optimizer, learning.HyperParameters{})
	if err != nil {
		return nil, err
	}
	var c *Classifier
	switch meta.Model {
	case Linear:
		c, err = NewLinearClassifier(fromCheckpoint(meta.Columns), meta.Classes, opt, cfg)
	case DNN:
		c, err = NewDNNClassifier(fromCheckpoint(meta.Columns), meta.Classes, meta.HiddenUnits, opt, cfg)
	default:
		return nil, errors.Errorf("unknown model %q in %s", meta.Model, prefix)
	}
	if err != nil {
		return nil, err
	}
	if err := c.restore(true); err != nil {
		return nil, err
	}
	return c, nil
}
