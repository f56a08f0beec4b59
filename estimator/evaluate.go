package estimator

import "context"

import "github.com/neurlang/estimator/input"
import "github.com/neurlang/estimator/net/feedforward"
import "github.com/neurlang/estimator/summary"
import "github.com/neurlang/estimator/trainer"
import "github.com/pkg/errors"
import "gonum.org/v1/gonum/mat"

// Metrics are the results of an evaluation
type Metrics struct {
	Accuracy   float64
	Loss       float64
	GlobalStep int64
}

// Evaluate measures the model on steps batches from fn, or on every batch
// until io.EOF when steps <= 0. A classifier that has not trained in this
// process is restored from the newest checkpoint first.
func (c *Classifier) Evaluate(ctx context.Context, fn input.Func, steps int) (Metrics, error) {
	if err := c.restore(true); err != nil {
		return Metrics{}, err
	}
	c.cfg.Logger.Printf("Starting evaluation of %s model at step %d", c.model, c.step)

	e, err := trainer.Evaluate(ctx, steps, func(ctx context.Context) (int, int, float64, error) {
		batch, err := fn(ctx)
		if err != nil {
			return 0, 0, 0, err
		}
		x, err := inputLayer(c.columns, batch.Features)
		if err != nil {
			return 0, 0, 0, err
		}
		loss, _, correct, err := feedforward.SoftmaxCrossEntropy(c.net.Logits(x), batch.Labels)
		if err != nil {
			return 0, 0, 0, err
		}
		return correct, batch.Len(), loss, nil
	})
	if err != nil {
		return Metrics{}, err
	}
	m := Metrics{Accuracy: e.Accuracy, Loss: e.Loss, GlobalStep: c.step}
	c.cfg.Logger.Printf("Saving dict for global step %d: accuracy = %g, global_step = %d, loss = %g",
		m.GlobalStep, m.Accuracy, m.GlobalStep, m.Loss)

	store, err := summary.Open(c.cfg.ModelDir, c.runID)
	if err != nil {
		return m, err
	}
	defer store.Close()
	w := store.Writer(summary.Eval)
	if err := w.Scalar(ctx, "accuracy", m.GlobalStep, m.Accuracy); err != nil {
		return m, err
	}
	return m, w.Scalar(ctx, "loss", m.GlobalStep, m.Loss)
}

// Prediction is the output of the model for one example
type Prediction struct {
	Class         int
	Probabilities []float64
}

// Predict classifies every row of features
func (c *Classifier) Predict(ctx context.Context, features map[string]*mat.Dense) ([]Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.restore(true); err != nil {
		return nil, err
	}
	x, err := inputLayer(c.columns, features)
	if err != nil {
		return nil, errors.Wrap(err, "predict")
	}
	probs := feedforward.Softmax(c.net.Logits(x))
	classes := feedforward.Argmax(probs)
	out := make([]Prediction, len(classes))
	for i := range out {
		out[i] = Prediction{Class: classes[i], Probabilities: mat.Row(nil, i, probs)}
	}
	return out, nil
}
