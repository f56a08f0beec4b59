// Package main provides a demo program for training a handwritten digit classifier on
// the MNIST dataset. It downloads the dataset when missing, feeds shuffled batches to
// a canned DNN or linear estimator, then evaluates on the test set and prints the
// accuracy. Checkpoints and summaries are written to a fresh run directory under
// --model_dir so that repeated runs never collide.
package main
