package async

import (
	"context"
	"sync"
)

// Job is a unit of work executed on the dispatcher's goroutine.
type Job func(ctx context.Context) error

// Dispatcher serializes work onto a single goroutine. It exists to bridge
// foreign concurrency domains - an HTTP handler running on an arbitrary
// server goroutine can Submit work that must execute where the Discord
// session lives, without sharing any state beyond the dispatch channel.
//
// Submission is decoupled from completion: Submit fails fast when the queue
// is full or the dispatcher is stopped, and returns a Future the caller may
// await with a bounded timeout to surface scheduling problems early. The
// job's real completion can take as long as it needs.
type Dispatcher struct {
	jobs chan dispatchItem

	stopOnce sync.Once
	stopped  chan struct{}
	drained  chan struct{}
}

type dispatchItem struct {
	ctx    context.Context
	job    Job
	future *Future[struct{}]
}

const defaultQueueSize = 64

// NewDispatcher creates a dispatcher with the given queue capacity.
// Non-positive sizes fall back to a sensible default.
func NewDispatcher(queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Dispatcher{
		jobs:    make(chan dispatchItem, queueSize),
		stopped: make(chan struct{}),
		drained: make(chan struct{}),
	}
}

// Run drains the queue until ctx is canceled or Stop is called.
// It must be called exactly once, from the goroutine that owns the
// single-threaded domain (typically the bot's main goroutine).
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.drained)
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stopped:
			return
		case item := <-d.jobs:
			item.future.run(item.ctx, item.job)
		}
	}
}

func (f *Future[U]) run(ctx context.Context, job func(ctx context.Context) error) {
	defer close(f.done)
	if err := ctx.Err(); err != nil {
		var zero U
		f.complete(zero, err)
		return
	}
	var zero U
	f.complete(zero, job(ctx))
}

// Submit enqueues a job for execution on the dispatcher goroutine.
// It never blocks: a full queue returns ErrQueueFull immediately, which is
// the backpressure signal for external-facing callers. The returned Future
// completes when the job has actually run.
func (d *Dispatcher) Submit(ctx context.Context, job Job) (*Future[struct{}], error) {
	if job == nil {
		return nil, ErrNilJob
	}

	item := dispatchItem{
		ctx:    ctx,
		job:    job,
		future: &Future[struct{}]{done: make(chan struct{})},
	}

	select {
	case <-d.stopped:
		return nil, ErrDispatcherStopped
	default:
	}

	select {
	case d.jobs <- item:
		return item.future, nil
	default:
		return nil, ErrQueueFull
	}
}

// Stop terminates the dispatcher. Queued jobs that have not started are
// abandoned; their futures never complete, so callers relying on outcomes
// should use AwaitWithTimeout. Safe to call multiple times.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.stopped) })
}

// Done returns a channel closed once Run has returned.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.drained
}
