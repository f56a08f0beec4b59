// Package main provides a demo program for running inference with a trained MNIST digit
// classifier. It restores the newest checkpoint of a run directory written by
// train_mnist, measures the accuracy on the test set or on a statistically sufficient
// sample of it, and previews some of the misclassified digits as ascii art.
package main
