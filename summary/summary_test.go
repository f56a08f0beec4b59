package summary

import (
	"context"
	"testing"
)

func TestScalars(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := Open(dir, "run-a")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	train := s.Writer(Train)
	for step := int64(1); step <= 3; step++ {
		if err := train.Scalar(ctx, "loss", step*100, 1/float64(step)); err != nil {
			t.Fatalf("Scalar: %v", err)
		}
	}
	if err := s.Writer(Eval).Scalar(ctx, "accuracy", 300, 0.9); err != nil {
		t.Fatal(err)
	}
	if err := train.Scalar(ctx, "global_step/sec", 300, 42); err != nil {
		t.Fatal(err)
	}

	points, err := s.Scalars(ctx, Train, "loss")
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 3 || points[0].Step != 100 || points[2].Value != 1.0/3 {
		t.Errorf("bad points %+v", points)
	}
	if points[0].RunID != "run-a" {
		t.Errorf("run id %q", points[0].RunID)
	}
	tags, err := s.Tags(ctx, Train)
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 2 || tags[0] != "global_step/sec" || tags[1] != "loss" {
		t.Errorf("tags %v", tags)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	// reopening appends to the same database
	s2, err := Open(dir, "run-b")
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	s2.Writer(Eval).Scalar(ctx, "accuracy", 600, 0.95)
	points, err = s2.Scalars(ctx, Eval, "accuracy")
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 || points[1].RunID != "run-b" {
		t.Errorf("bad eval points %+v", points)
	}
}

func TestNilWriter(t *testing.T) {
	var w *Writer
	if err := w.Scalar(context.Background(), "loss", 1, 1); err != nil {
		t.Errorf("nil writer: %v", err)
	}
}
