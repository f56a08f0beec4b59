package main

import "bytes"
import "compress/gzip"
import "context"
import "encoding/binary"
import "io"
import "log"
import "os"
import "path/filepath"
import "strings"
import "testing"

import "github.com/neurlang/estimator/datasets/mnist"
import "github.com/neurlang/estimator/estimator"
import "github.com/neurlang/estimator/input"
import "github.com/pkg/errors"

func writeArchives(t *testing.T, dir string, n int) {
	t.Helper()
	var img, lbl bytes.Buffer
	binary.Write(&img, binary.BigEndian, [4]uint32{0x803, uint32(n), mnist.ImgSize, mnist.ImgSize})
	binary.Write(&lbl, binary.BigEndian, [2]uint32{0x801, uint32(n)})
	for i := 0; i < n; i++ {
		var pixels [mnist.Pixels]byte
		for c := 0; c < mnist.ImgSize; c++ {
			pixels[(i%mnist.Classes)*2*mnist.ImgSize+c] = 255
		}
		img.Write(pixels[:])
		lbl.WriteByte(byte(i % mnist.Classes))
	}
	contents := [][]byte{img.Bytes(), lbl.Bytes(), img.Bytes(), lbl.Bytes()}
	for i, name := range mnist.Files {
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		w.Write(contents[i])
		w.Close()
		if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	logger := log.New(io.Discard, "", 0)
	data, models := t.TempDir(), t.TempDir()
	writeArchives(t, data, 40)
	o := options{dataDir: data, modelDir: models, sourceURL: "http://127.0.0.1:1/", batchSize: 7, show: 2, seed: 1}

	if err := run(ctx, o, io.Discard, logger); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("empty model dir: %v", err)
	}

	sets, err := mnist.ReadDataSets(ctx, data, mnist.Options{Source: o.sourceURL, ValidationSize: -1, Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	pixels := []estimator.FeatureColumn{estimator.RealValuedColumn(input.DefaultFeature, mnist.Pixels)}
	c, err := estimator.NewLinearClassifier(pixels, mnist.Classes, nil,
		estimator.RunConfig{ModelDir: filepath.Join(models, "linear_1"), Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	q, err := input.ShuffleBatch(sets.Train, input.Options{BatchSize: 10, Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer q.Close()
	if err := c.Train(ctx, q.Func(), 5); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := run(ctx, o, &out, logger); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Linear Classifier Accuracy: ") || !strings.Contains(out.String(), "(global step 5)") {
		t.Errorf("output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "digit errors/total") {
		t.Errorf("no error table:\n%s", out.String())
	}

	out.Reset()
	o.significance = 90
	if err := run(ctx, o, &out, logger); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Sampled ") {
		t.Errorf("no sampling:\n%s", out.String())
	}
}
