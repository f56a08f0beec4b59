package estimator

import "context"
import "os"

import "github.com/neurlang/estimator/checkpoint"
import "github.com/neurlang/estimator/input"
import "github.com/neurlang/estimator/net/feedforward"
import "github.com/neurlang/estimator/summary"
import "github.com/neurlang/estimator/trainer"
import "github.com/pkg/errors"

// Train runs steps optimization steps on batches from fn. Training continues
// from the newest checkpoint in the model directory, saves checkpoints along
// the way and always after the last step. Input returning io.EOF ends
// training early.
func (c *Classifier) Train(ctx context.Context, fn input.Func, steps int64) error {
	if err := os.MkdirAll(c.cfg.ModelDir, 0755); err != nil {
		return errors.Wrap(err, "creating model directory")
	}
	if err := c.restore(false); err != nil {
		return err
	}

	store, err := summary.Open(c.cfg.ModelDir, c.runID)
	if err != nil {
		return err
	}
	defer store.Close()
	writer := store.Writer(summary.Train)

	saver, err := checkpoint.NewSaver(c.cfg.ModelDir, c.cfg.KeepCheckpointMax)
	if err != nil {
		return err
	}

	var logger = c.cfg.Logger
	hooks := []trainer.Hook{
		trainer.NanHook{},
		&trainer.LoggingHook{Every: c.cfg.LogStepCountSteps, Logger: logger},
		&trainer.StepCounterHook{Every: c.cfg.LogStepCountSteps, Logger: logger, Summary: writer},
		&trainer.SummaryHook{Every: c.cfg.SaveSummarySteps, Summary: writer},
		&trainer.CheckpointHook{Every: c.cfg.SaveCheckpointsSteps, Logger: logger,
			Save: func(_ context.Context, step int64) (string, error) {
				return saver.Save(c.meta(step), c.state())
			}},
	}

	var params = c.net.Params()
	c.opt.Slots(params)
	var last float64

	end, err := trainer.Loop(ctx, trainer.LoopConfig{StartStep: c.step, Steps: steps, Hooks: hooks},
		func(ctx context.Context, _ int64) (float64, error) {
			batch, err := fn(ctx)
			if err != nil {
				return 0, err
			}
			x, err := inputLayer(c.columns, batch.Features)
			if err != nil {
				return 0, err
			}
			loss, grad, _, err := feedforward.SoftmaxCrossEntropy(c.net.Logits(x), batch.Labels)
			if err != nil {
				return 0, err
			}
			c.net.Backward(grad)
			c.opt.Apply(params)
			last = loss
			return loss, nil
		})
	c.step = end
	if err != nil {
		return err
	}
	logger.Printf("Loss for final step: %g.", last)
	return nil
}
