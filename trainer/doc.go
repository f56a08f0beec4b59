// Package trainer provides the training loop and evaluation orchestration behind the estimators.
// The loop runs a step function a fixed number of times and lets hooks log progress,
// record summaries, stop on a diverged loss and write checkpoints.
package trainer
