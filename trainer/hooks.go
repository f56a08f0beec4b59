package trainer

import "context"
import "log"
import "math"
import "time"

import "github.com/neurlang/estimator/summary"
import "github.com/pkg/errors"

// ErrNanLoss stops the loop once the loss diverged
var ErrNanLoss = errors.New("NaN loss during training")

// NanHook fails the loop on a NaN or infinite loss
type NanHook struct{}

// After checks the loss
func (NanHook) After(_ context.Context, step int64, loss float64) error {
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		return errors.Wrapf(ErrNanLoss, "step %d", step)
	}
	return nil
}

// End does nothing
func (NanHook) End(context.Context, int64) error { return nil }

// LoggingHook logs the loss on the first step and every Every steps
type LoggingHook struct {
	Every  int64
	Logger *log.Logger

	last time.Time
}

// After logs the loss when due
func (h *LoggingHook) After(_ context.Context, step int64, loss float64) error {
	if h.last.IsZero() {
		h.Logger.Printf("loss = %g, step = %d", loss, step)
		h.last = time.Now()
		return nil
	}
	if h.Every > 0 && step%h.Every == 0 {
		h.Logger.Printf("loss = %g, step = %d (%.3f sec)", loss, step, time.Since(h.last).Seconds())
		h.last = time.Now()
	}
	return nil
}

// End logs nothing
func (h *LoggingHook) End(context.Context, int64) error { return nil }

// StepCounterHook logs and records the number of steps per second every Every steps
type StepCounterHook struct {
	Every   int64
	Logger  *log.Logger
	Summary *summary.Writer

	since     time.Time
	sinceStep int64
}

// After measures the rate when due
func (h *StepCounterHook) After(ctx context.Context, step int64, _ float64) error {
	if h.since.IsZero() {
		h.since, h.sinceStep = time.Now(), step
		return nil
	}
	if h.Every <= 0 || step%h.Every != 0 {
		return nil
	}
	elapsed := time.Since(h.since).Seconds()
	if elapsed <= 0 {
		return nil
	}
	rate := float64(step-h.sinceStep) / elapsed
	h.since, h.sinceStep = time.Now(), step
	h.Logger.Printf("global_step/sec: %g", rate)
	return h.Summary.Scalar(ctx, "global_step/sec", step, rate)
}

// End does nothing
func (h *StepCounterHook) End(context.Context, int64) error { return nil }

// SummaryHook records the loss every Every steps
type SummaryHook struct {
	Every   int64
	Summary *summary.Writer
}

// After writes the loss when due
func (h *SummaryHook) After(ctx context.Context, step int64, loss float64) error {
	if h.Every <= 0 || step%h.Every != 0 {
		return nil
	}
	return h.Summary.Scalar(ctx, "loss", step, loss)
}

// End does nothing
func (h *SummaryHook) End(context.Context, int64) error { return nil }

// CheckpointHook saves every Every steps and after the last step
type CheckpointHook struct {
	Every  int64
	Save   func(ctx context.Context, step int64) (string, error)
	Logger *log.Logger

	saved int64
}

// After saves when due
func (h *CheckpointHook) After(ctx context.Context, step int64, _ float64) error {
	if h.Every <= 0 || step%h.Every != 0 {
		return nil
	}
	return h.save(ctx, step)
}

// End saves the final step unless it was just saved
func (h *CheckpointHook) End(ctx context.Context, step int64) error {
	if h.saved == step {
		return nil
	}
	return h.save(ctx, step)
}

func (h *CheckpointHook) save(ctx context.Context, step int64) error {
	path, err := h.Save(ctx, step)
	if err != nil {
		return errors.Wrapf(err, "saving checkpoint for step %d", step)
	}
	h.Logger.Printf("Saving checkpoints for %d into %s.", step, path)
	h.saved = step
	return nil
}
