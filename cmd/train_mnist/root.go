package main

import "context"
import "fmt"
import "log"
import "os"
import "os/signal"
import "syscall"
import "time"

import "github.com/neurlang/estimator/config"
import "github.com/neurlang/estimator/datasets"
import "github.com/neurlang/estimator/datasets/mnist"
import "github.com/neurlang/estimator/estimator"
import "github.com/neurlang/estimator/input"
import "github.com/neurlang/estimator/learning"
import "github.com/neurlang/estimator/parallel"
import "github.com/spf13/cobra"

func execute() error {
	var cfg = config.Default()
	var fashion bool

	root := &cobra.Command{
		Use:          "train_mnist",
		Short:        "Train and evaluate canned estimators on MNIST",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if fashion {
				cfg.SourceURL = mnist.FashionSource
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			stop, err := startCPUProfile(cfg.CPUProfile)
			if err != nil {
				return err
			}
			defer stop()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return run(ctx, cfg, log.New(os.Stderr, "INFO: ", log.LstdFlags))
		},
	}

	flags := root.Flags()
	flags.StringVar(&cfg.DataDir, "data_dir", cfg.DataDir, "directory for storing input data")
	flags.StringVar(&cfg.ModelDir, "model_dir", cfg.ModelDir, "base directory for checkpoints and summaries")
	flags.Int64Var(&cfg.NumSteps, "num_steps", cfg.NumSteps, "number of training steps to run")
	flags.StringVar(&cfg.Classifier, "classifier", cfg.Classifier, "classifier to run: dnn, linear or both")
	flags.IntVar(&cfg.BatchSize, "batch_size", cfg.BatchSize, "examples per training and evaluation batch")
	flags.Float64Var(&cfg.LearningRate, "learning_rate", cfg.LearningRate, "learning rate of the dnn optimizer")
	flags.IntSliceVar(&cfg.HiddenUnits, "hidden_units", cfg.HiddenUnits, "units of each dnn hidden layer")
	flags.StringVar(&cfg.SourceURL, "source_url", cfg.SourceURL, "base url of the dataset archives")
	flags.IntVar(&cfg.Validation, "validation_size", cfg.Validation, "train examples held out for validation, none when negative")
	flags.BoolVar(&fashion, "fashion", false, "use the Fashion-MNIST archives")
	flags.IntVar(&cfg.EvalSteps, "eval_steps", cfg.EvalSteps, "evaluation batches, the whole test set when <= 0")
	flags.Int64Var(&cfg.Seed, "seed", cfg.Seed, "seed for shuffling and initialization, random when 0")
	flags.StringVar(&cfg.CPUProfile, "cpuprofile", cfg.CPUProfile, "write a cpu profile to this file")
	flags.StringVar(&cfg.OptimizerLog, "optimizer_log", cfg.OptimizerLog, "append the optimizer settings to this file")

	return root.Execute()
}

func run(ctx context.Context, cfg config.Config, logger *log.Logger) error {
	logger.Printf("cpu=%q threads=%d features=%q", parallel.Brand(), parallel.Threads(), parallel.Features())

	fmt.Println("Downloading and reading data sets...")
	sets, err := mnist.ReadDataSets(ctx, cfg.DataDir, mnist.Options{Source: cfg.SourceURL, ValidationSize: cfg.Validation, Logger: logger})
	if err != nil {
		return err
	}
	logger.Printf("train=%d validation=%d test=%d", sets.Train.Len(), sets.Validation.Len(), sets.Test.Len())

	if cfg.Classifier == config.ClassifierLinear || cfg.Classifier == config.ClassifierBoth {
		fmt.Println("\n-----Running linear classifier...")
		if err := runLinear(ctx, cfg, sets, logger); err != nil {
			return err
		}
	}
	if cfg.Classifier == config.ClassifierDNN || cfg.Classifier == config.ClassifierBoth {
		fmt.Println("\n---- Running DNN classifier...")
		if err := runDNN(ctx, cfg, sets, logger); err != nil {
			return err
		}
	}
	return nil
}

var pixels = []estimator.FeatureColumn{estimator.RealValuedColumn(input.DefaultFeature, mnist.Pixels)}

func runLinear(ctx context.Context, cfg config.Config, sets *datasets.Sets, logger *log.Logger) error {
	dir, err := config.RunDir(cfg.ModelDir, config.LinearPrefix, time.Now())
	if err != nil {
		return err
	}
	logger.Printf("model_dir=%s", dir)
	// zero learning rate keeps the Ftrl default
	opt, err := optimizer(cfg, "Ftrl", 0)
	if err != nil {
		return err
	}
	c, err := estimator.NewLinearClassifier(pixels, mnist.Classes, opt,
		estimator.RunConfig{ModelDir: dir, Seed: cfg.Seed, Logger: logger})
	if err != nil {
		return err
	}
	if err := train(ctx, c, cfg, sets.Train); err != nil {
		return err
	}
	fmt.Println("Finished training.")

	m, err := evaluate(ctx, c, cfg, sets.Test)
	if err != nil {
		return err
	}
	fmt.Printf("Linear Classifier Accuracy: %f\n", m.Accuracy)
	return nil
}

func runDNN(ctx context.Context, cfg config.Config, sets *datasets.Sets, logger *log.Logger) error {
	dir, err := config.RunDir(cfg.ModelDir, config.DeepPrefix, time.Now())
	if err != nil {
		return err
	}
	logger.Printf("model_dir=%s", dir)
	opt, err := optimizer(cfg, "ProximalAdagrad", cfg.LearningRate)
	if err != nil {
		return err
	}
	c, err := estimator.NewDNNClassifier(pixels, mnist.Classes, cfg.HiddenUnits, opt,
		estimator.RunConfig{ModelDir: dir, Seed: cfg.Seed, Logger: logger})
	if err != nil {
		return err
	}
	if err := train(ctx, c, cfg, sets.Train); err != nil {
		return err
	}
	fmt.Println("Finished running the deep training via the train() method")

	fmt.Println("\n---Evaluating DNN classifier accuracy...")
	m, err := evaluate(ctx, c, cfg, sets.Test)
	if err != nil {
		return err
	}
	fmt.Printf("DNN Classifier Accuracy: %f\n", m.Accuracy)
	return nil
}

func optimizer(cfg config.Config, name string, rate float64) (learning.Optimizer, error) {
	var h = learning.HyperParameters{LearningRate: rate}
	if cfg.OptimizerLog != "" {
		if err := h.SetLogger(cfg.OptimizerLog); err != nil {
			return nil, err
		}
	}
	return learning.New(name, h)
}

func train(ctx context.Context, c *estimator.Classifier, cfg config.Config, split *datasets.Split) error {
	q, err := input.ShuffleBatch(split, input.Options{BatchSize: cfg.BatchSize, Seed: cfg.Seed})
	if err != nil {
		return err
	}
	defer q.Close()
	return c.Train(ctx, q.Func(), cfg.NumSteps)
}

func evaluate(ctx context.Context, c *estimator.Classifier, cfg config.Config, split *datasets.Split) (estimator.Metrics, error) {
	if cfg.EvalSteps <= 0 {
		fn, err := input.Ordered(split, cfg.BatchSize)
		if err != nil {
			return estimator.Metrics{}, err
		}
		return c.Evaluate(ctx, fn, 0)
	}
	q, err := input.ShuffleBatch(split, input.Options{BatchSize: cfg.BatchSize, Seed: cfg.Seed})
	if err != nil {
		return estimator.Metrics{}, err
	}
	defer q.Close()
	return c.Evaluate(ctx, q.Func(), cfg.EvalSteps)
}
