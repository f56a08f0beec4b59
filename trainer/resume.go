package trainer

import "log"
import "os"

import "github.com/neurlang/estimator/checkpoint"
import "github.com/neurlang/estimator/layer"
import "github.com/pkg/errors"

// Resume restores the newest checkpoint of dir into params and returns its
// global step. A dir without checkpoints resumes from step 0.
func Resume(dir string, params []*layer.Param, logger *log.Logger) (int64, error) {
	prefix, err := checkpoint.Latest(dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	meta, err := checkpoint.Restore(prefix, params)
	if err != nil {
		return 0, err
	}
	if logger != nil {
		logger.Printf("Restoring parameters from %s", prefix)
	}
	return meta.GlobalStep, nil
}
