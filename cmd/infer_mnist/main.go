package main

import "context"
import "fmt"
import "io"
import "log"
import "math/rand"
import "os"
import "path/filepath"
import "sort"
import "time"

import "github.com/neurlang/estimator/checkpoint"
import "github.com/neurlang/estimator/datasets"
import "github.com/neurlang/estimator/datasets/mnist"
import "github.com/neurlang/estimator/estimator"
import "github.com/neurlang/estimator/input"
import "github.com/neurlang/estimator/trainer"
import "github.com/pkg/errors"
import "github.com/spf13/cobra"

type options struct {
	dataDir      string
	modelDir     string
	sourceURL    string
	batchSize    int
	significance uint8
	show         int
	seed         int64
}

func main() {
	var o = options{
		dataDir:   "/tmp/MNIST_data",
		modelDir:  "/tmp/tfmodels/mnist_estimators",
		sourceURL: mnist.DefaultSource,
		batchSize: 100,
		show:      3,
	}
	root := &cobra.Command{
		Use:          "infer_mnist",
		Short:        "Evaluate a trained MNIST estimator on the test set",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), o, os.Stdout, log.New(os.Stderr, "INFO: ", log.LstdFlags))
		},
	}
	flags := root.Flags()
	flags.StringVar(&o.dataDir, "data_dir", o.dataDir, "directory for storing input data")
	flags.StringVar(&o.modelDir, "model_dir", o.modelDir, "run directory, or the base directory whose newest run is used")
	flags.StringVar(&o.sourceURL, "source_url", o.sourceURL, "base url of the dataset archives")
	flags.IntVar(&o.batchSize, "batch_size", o.batchSize, "examples per inference batch")
	flags.Uint8Var(&o.significance, "significance", o.significance, "evaluate a random sample sufficient at this significance (1-99), everything when 0")
	flags.IntVar(&o.show, "show", o.show, "misclassified digits to preview")
	flags.Int64Var(&o.seed, "seed", o.seed, "sampling seed, random when 0")
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, o options, out io.Writer, logger *log.Logger) error {
	if o.batchSize <= 0 {
		return errors.Errorf("batch_size must be > 0 (got %d)", o.batchSize)
	}
	dir, err := runDir(o.modelDir)
	if err != nil {
		return err
	}
	c, err := estimator.Load(estimator.RunConfig{ModelDir: dir, Logger: logger})
	if err != nil {
		return err
	}
	sets, err := mnist.ReadDataSets(ctx, o.dataDir, mnist.Options{Source: o.sourceURL, ValidationSize: -1, Logger: logger})
	if err != nil {
		return err
	}

	test := sets.Test
	if o.significance > 0 && o.significance < 100 {
		var seed = o.seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		n := trainer.SampleSize(test.Len(), o.significance)
		test.Shuffle(rand.New(rand.NewSource(seed)))
		test = test.Slice(0, n)
		fmt.Fprintf(out, "Sampled %d of %d test examples\n", n, sets.Test.Len())
	}

	fn, err := input.Ordered(test, o.batchSize)
	if err != nil {
		return err
	}
	m, err := c.Evaluate(ctx, fn, 0)
	if err != nil {
		return err
	}
	var title = "DNN"
	if c.Kind() == estimator.Linear {
		title = "Linear"
	}
	fmt.Fprintf(out, "%s Classifier Accuracy: %f (global step %d)\n", title, m.Accuracy, m.GlobalStep)

	return preview(ctx, c, test, o, out)
}

// preview prints per digit error counts and the first misclassified images
func preview(ctx context.Context, c *estimator.Classifier, test *datasets.Split, o options, out io.Writer) error {
	fn, err := input.Ordered(test, o.batchSize)
	if err != nil {
		return err
	}
	var wrong = make([]int, test.Classes)
	var shown int
	for {
		batch, err := fn(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		predictions, err := c.Predict(ctx, batch.Features)
		if err != nil {
			return err
		}
		x := batch.Features[input.DefaultFeature]
		for i, p := range predictions {
			if p.Class == batch.Labels[i] {
				continue
			}
			wrong[batch.Labels[i]]++
			if shown < o.show {
				shown++
				fmt.Fprintf(out, "\nlabel %d predicted %d (p=%.3f)\n", batch.Labels[i], p.Class, p.Probabilities[p.Class])
				fmt.Fprint(out, mnist.Ascii(mnist.Downscale(x.RawRowView(i))))
			}
		}
	}
	total := test.Histogram()
	fmt.Fprintln(out, "\ndigit errors/total")
	for d := range wrong {
		fmt.Fprintf(out, "%d %d/%d\n", d, wrong[d], total[d])
	}
	return nil
}

// runDir returns dir when it holds checkpoints, otherwise its newest
// subdirectory that does.
func runDir(dir string) (string, error) {
	if _, err := checkpoint.Latest(dir); err == nil {
		return dir, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.Wrapf(err, "reading model directory '%s'", dir)
	}
	type run struct {
		path string
		mod  time.Time
	}
	var runs []run
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		fi, err := os.Stat(filepath.Join(path, checkpoint.IndexFile))
		if err != nil {
			continue
		}
		runs = append(runs, run{path, fi.ModTime()})
	}
	if len(runs) == 0 {
		return "", errors.Wrapf(os.ErrNotExist, "no checkpoints under '%s'", dir)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].mod.After(runs[j].mod) })
	return runs[0].path, nil
}
