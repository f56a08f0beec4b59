package trainer

import "context"
import "io"

import "github.com/pkg/errors"

// Step runs one training step and returns the batch loss. step is the global
// step the update will produce.
type Step func(ctx context.Context, step int64) (loss float64, err error)

// Hook observes the loop. A hook error stops the loop.
type Hook interface {

	// After is called once the global step reached step with the given loss
	After(ctx context.Context, step int64, loss float64) error

	// End is called after the last step of a successful loop
	End(ctx context.Context, step int64) error
}

// LoopConfig configures Loop
type LoopConfig struct {
	StartStep int64 // global step restored before the loop
	Steps     int64 // number of steps to run
	Hooks     []Hook
}

// Loop runs cfg.Steps steps starting after cfg.StartStep and returns the
// final global step. The context is checked between steps. A step returning
// io.EOF ends the loop early without error.
func Loop(ctx context.Context, cfg LoopConfig, step Step) (int64, error) {
	if cfg.Steps <= 0 {
		return cfg.StartStep, errors.Errorf("steps must be > 0 (got %d)", cfg.Steps)
	}
	var global = cfg.StartStep
	for n := int64(0); n < cfg.Steps; n++ {
		if err := ctx.Err(); err != nil {
			return global, err
		}
		loss, err := step(ctx, global+1)
		if err == io.EOF {
			break
		}
		if err != nil {
			return global, errors.Wrapf(err, "step %d", global+1)
		}
		global++
		for _, h := range cfg.Hooks {
			if err := h.After(ctx, global, loss); err != nil {
				return global, err
			}
		}
	}
	for _, h := range cfg.Hooks {
		if err := h.End(ctx, global); err != nil {
			return global, err
		}
	}
	return global, nil
}
