package input

import "context"
import "math/rand"
import "sync"
import "sync/atomic"
import "time"

import "github.com/neurlang/estimator/datasets"
import "github.com/pkg/errors"

// ErrClosed is returned by Dequeue after Close
var ErrClosed = errors.New("input queue closed")

// Options configures a shuffling batch queue
type Options struct {
	BatchSize       int    // examples per batch, DefaultBatchSize if zero
	Capacity        int    // buffered examples, 8*BatchSize if zero
	MinAfterDequeue int    // examples left in the buffer after a batch, 4*BatchSize if zero, none if negative
	Seed            int64  // time based if zero
	Threads         int    // producer goroutines, 1 if zero
	Feature         string // feature key, DefaultFeature if empty
}

// defaults fills the zero fields. A default never contradicts an explicit
// field: MinAfterDequeue shrinks to fit a given Capacity and Capacity grows
// to fit a given MinAfterDequeue.
func (o *Options) defaults() {
	if o.BatchSize == 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.MinAfterDequeue == 0 {
		o.MinAfterDequeue = 4 * o.BatchSize
		if o.Capacity != 0 {
			o.MinAfterDequeue = max(min(o.MinAfterDequeue, o.Capacity-o.BatchSize), 0)
		}
	}
	if o.MinAfterDequeue < 0 {
		o.MinAfterDequeue = 0
	}
	if o.Capacity == 0 {
		o.Capacity = max(8*o.BatchSize, o.BatchSize+o.MinAfterDequeue)
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	if o.Threads <= 0 {
		o.Threads = 1
	}
	if o.Feature == "" {
		o.Feature = DefaultFeature
	}
}

func (o *Options) validate(n int) error {
	if o.BatchSize <= 0 {
		return errors.Errorf("batch size must be > 0 (got %d)", o.BatchSize)
	}
	if o.BatchSize > n {
		return errors.Errorf("batch size %d exceeds the %d examples of the split", o.BatchSize, n)
	}
	if o.MinAfterDequeue < 0 {
		return errors.Errorf("min after dequeue must be >= 0 (got %d)", o.MinAfterDequeue)
	}
	if o.Capacity < o.BatchSize+o.MinAfterDequeue {
		return errors.Errorf("capacity %d cannot hold a batch of %d plus %d remaining examples",
			o.Capacity, o.BatchSize, o.MinAfterDequeue)
	}
	return nil
}

// Queue is a shuffling queue over one split. Producers enqueue the example
// indices of the split pass after pass, forever. Before every batch the
// buffer is topped up to Capacity and BatchSize examples are drawn from it
// uniformly at random, so at least MinAfterDequeue examples stay behind to
// mix with the next pass. With one producer thread the batches are a pure
// function of Seed.
type Queue struct {
	split *datasets.Split
	opts  Options

	in  chan int
	out chan []int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	epochs atomic.Int64
}

// ShuffleBatch starts a shuffling queue over split
func ShuffleBatch(split *datasets.Split, opts Options) (*Queue, error) {
	opts.defaults()
	if err := opts.validate(split.Len()); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		split:  split,
		opts:   opts,
		in:     make(chan int, opts.BatchSize),
		out:    make(chan []int),
		ctx:    ctx,
		cancel: cancel,
	}
	for t := 0; t < opts.Threads; t++ {
		q.wg.Add(1)
		go q.produce(rand.New(rand.NewSource(opts.Seed + int64(t))))
	}
	q.wg.Add(1)
	go q.shuffle(rand.New(rand.NewSource(^opts.Seed)))
	return q, nil
}

func (q *Queue) produce(rng *rand.Rand) {
	defer q.wg.Done()
	for {
		for _, i := range rng.Perm(q.split.Len()) {
			select {
			case <-q.ctx.Done():
				return
			case q.in <- i:
			}
		}
		q.epochs.Add(1)
	}
}

func (q *Queue) shuffle(rng *rand.Rand) {
	defer q.wg.Done()
	var buf = make([]int, 0, q.opts.Capacity)
	for {
		for len(buf) < q.opts.Capacity {
			select {
			case <-q.ctx.Done():
				return
			case i := <-q.in:
				buf = append(buf, i)
			}
		}
		var batch = make([]int, q.opts.BatchSize)
		for k := range batch {
			j := rng.Intn(len(buf))
			batch[k] = buf[j]
			buf[j] = buf[len(buf)-1]
			buf = buf[:len(buf)-1]
		}
		select {
		case <-q.ctx.Done():
			return
		case q.out <- batch:
		}
	}
}

// Dequeue blocks until the next batch is ready
func (q *Queue) Dequeue(ctx context.Context) (Batch, error) {
	select {
	case <-ctx.Done():
		return Batch{}, ctx.Err()
	case <-q.ctx.Done():
		return Batch{}, ErrClosed
	case indices := <-q.out:
		return gather(q.split, q.opts.Feature, indices), nil
	}
}

// Func returns Dequeue as an input function
func (q *Queue) Func() Func {
	return q.Dequeue
}

// Epochs reports how many complete passes over the split have been enqueued
func (q *Queue) Epochs() int64 {
	return q.epochs.Load()
}

// BatchSize returns the configured batch size
func (q *Queue) BatchSize() int {
	return q.opts.BatchSize
}

// Close stops the producers and waits for them to exit
func (q *Queue) Close() {
	q.cancel()
	q.wg.Wait()
}
