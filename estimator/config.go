package estimator

import "log"
import "os"

// RunConfig controls where and how often an estimator persists its state
type RunConfig struct {
	ModelDir string // checkpoints and summaries, a temporary directory when empty

	SaveCheckpointsSteps int64 // checkpoint every this many steps, 600 by default
	SaveSummarySteps     int64 // record the loss every this many steps, 100 by default
	LogStepCountSteps    int64 // log the loss and global_step/sec every this many steps, 100 by default
	KeepCheckpointMax    int   // checkpoints kept on disk, 5 by default

	Seed int64 // weight initialization seed, random when 0

	Logger *log.Logger
}

func (c RunConfig) withDefaults() RunConfig {
	if c.SaveCheckpointsSteps <= 0 {
		c.SaveCheckpointsSteps = 600
	}
	if c.SaveSummarySteps <= 0 {
		c.SaveSummarySteps = 100
	}
	if c.LogStepCountSteps <= 0 {
		c.LogStepCountSteps = 100
	}
	if c.KeepCheckpointMax <= 0 {
		c.KeepCheckpointMax = 5
	}
	if c.Logger == nil {
		c.Logger = log.New(os.Stderr, "INFO: ", log.LstdFlags)
	}
	return c
}
