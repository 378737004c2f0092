package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrQueueClosed is returned for tasks that were still pending when the queue stopped.
var ErrQueueClosed = errors.New("ratelimit: queue closed")

// Task is a unit of work dispatched by a Queue.
type Task func(ctx context.Context) error

// QueueOptions configures a Queue.
type QueueOptions struct {
	// MinDelay is the minimum spacing between the start of two dispatches.
	MinDelay time.Duration
	// Timeout bounds a single dispatched task. Zero disables it.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Queue runs tasks one at a time, in enqueue order, with at least MinDelay
// between the start of consecutive dispatches.
//
// A single drain goroutine owns the dispatch clock. Pending tasks are held in
// an unbounded FIFO; Enqueue never blocks and never drops a task.
type Queue struct {
	minDelay time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	pending []*queuedTask
	closed  bool

	wake     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// Only read and written by the drain goroutine.
	lastDispatch time.Time
}

type queuedTask struct {
	ctx    context.Context
	run    Task
	future *Future
}

// Future resolves with the outcome of one enqueued task.
type Future struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) resolve(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done is closed once the task has finished or was abandoned.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Err returns the task's error. Only meaningful after Done is closed.
func (f *Future) Err() error {
	<-f.done
	return f.err
}

// Wait blocks until the task resolves or ctx is done.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NewQueue creates a queue and starts its drain goroutine.
func NewQueue(opts QueueOptions) *Queue {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	q := &Queue{
		minDelay: opts.MinDelay,
		timeout:  opts.Timeout,
		logger:   logger,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	q.wg.Add(1)
	go q.drain()

	return q
}

// Enqueue appends a task and returns its future.
// If ctx is done before the task's turn, the task is not dispatched and the
// future resolves with ctx.Err().
func (q *Queue) Enqueue(ctx context.Context, task Task) *Future {
	f := newFuture()

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		f.resolve(ErrQueueClosed)
		return f
	}
	q.pending = append(q.pending, &queuedTask{ctx: ctx, run: task, future: f})
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}

	return f
}

// Do enqueues fn on q and waits for its result.
func Do[T any](ctx context.Context, q *Queue, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	f := q.Enqueue(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})

	if err := f.Wait(ctx); err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// Len reports the number of tasks waiting for dispatch.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Stop halts the drain goroutine. Tasks still pending resolve with ErrQueueClosed.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		q.mu.Unlock()
		close(q.done)
	})
	q.wg.Wait()
}

func (q *Queue) drain() {
	defer q.wg.Done()

	for {
		task, ok := q.next()
		if !ok {
			select {
			case <-q.wake:
				continue
			case <-q.done:
				q.failPending()
				return
			}
		}

		select {
		case <-q.done:
			task.future.resolve(ErrQueueClosed)
			q.failPending()
			return
		default:
		}

		q.dispatch(task)
	}
}

func (q *Queue) next() (*queuedTask, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil, false
	}
	task := q.pending[0]
	q.pending[0] = nil
	q.pending = q.pending[1:]
	return task, true
}

func (q *Queue) failPending() {
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, task := range pending {
		task.future.resolve(ErrQueueClosed)
	}
}

func (q *Queue) dispatch(task *queuedTask) {
	if err := task.ctx.Err(); err != nil {
		task.future.resolve(err)
		return
	}

	if !q.lastDispatch.IsZero() {
		if wait := q.minDelay - time.Since(q.lastDispatch); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-task.ctx.Done():
				timer.Stop()
				task.future.resolve(task.ctx.Err())
				return
			case <-q.done:
				timer.Stop()
				task.future.resolve(ErrQueueClosed)
				return
			}
		}
	}

	q.lastDispatch = time.Now()
	q.logger.Debug("dispatching queued task", "pending", q.Len())

	ctx, cancel := task.ctx, context.CancelFunc(func() {})
	if q.timeout > 0 {
		ctx, cancel = context.WithTimeout(task.ctx, q.timeout)
	}
	defer cancel()

	result := make(chan error, 1)
	go func() {
		result <- task.run(ctx)
	}()

	// A task that ignores its context must not hold up the rest of the queue.
	select {
	case err := <-result:
		task.future.resolve(err)
	case <-ctx.Done():
		q.logger.Warn("queued task abandoned", "error", ctx.Err())
		task.future.resolve(ctx.Err())
	case <-q.done:
		task.future.resolve(ErrQueueClosed)
	}
}
