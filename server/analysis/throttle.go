package analysis

import (
	"context"
	"sync"
	"time"

	"github.com/mattermost/mattermost/server/public/pluginapi"
	"github.com/pkg/errors"
)

const (
	// DefaultMinGap is the minimum delay separating the start of
	// consecutive provider calls. It protects the rate-limited external
	// quota at the cost of latency under load.
	DefaultMinGap = 500 * time.Millisecond

	// DefaultTaskTimeout bounds each provider call so a hung call cannot
	// stall the queue indefinitely.
	DefaultTaskTimeout = 60 * time.Second

	// queueCapacity is the number of tasks that can wait without blocking
	// the submitter
	queueCapacity = 64
)

// TaskFunc is a unit of work executed on the throttle queue's worker.
type TaskFunc func(ctx context.Context) (any, error)

type taskResult struct {
	value any
	err   error
}

type task struct {
	fn   TaskFunc
	done chan taskResult
}

// Queue serializes all external provider calls process-wide. Tasks execute
// strictly one at a time in submission order, with at least the configured
// minimum gap between consecutive task starts. A failure or panic in one
// task is isolated to its submitter and never poisons the worker loop.
type Queue struct {
	log     pluginapi.LogService
	gap     time.Duration
	timeout time.Duration

	tasks     chan *task
	stop      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewQueue creates a throttle queue and starts its single worker goroutine.
func NewQueue(log pluginapi.LogService, gap, timeout time.Duration) *Queue {
	if gap <= 0 {
		gap = DefaultMinGap
	}
	if timeout <= 0 {
		timeout = DefaultTaskTimeout
	}

	q := &Queue{
		log:     log,
		gap:     gap,
		timeout: timeout,
		tasks:   make(chan *task, queueCapacity),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	go q.worker()

	return q
}

// Do submits fn to the queue and blocks until it has run. Once enqueued a
// task is never cancelled; the per-task timeout inside the worker bounds how
// long the submitter can be held. ctx only gates admission to the queue.
func (q *Queue) Do(ctx context.Context, fn TaskFunc) (any, error) {
	t := &task{
		fn:   fn,
		done: make(chan taskResult, 1),
	}

	select {
	case q.tasks <- t:
	case <-q.stop:
		return nil, ErrQueueClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-t.done:
		return res.value, res.err
	case <-q.stopped:
		// Worker exited; drain may already have answered this task.
		select {
		case res := <-t.done:
			return res.value, res.err
		default:
			return nil, ErrQueueClosed
		}
	}
}

// Close shuts the queue down. Queued tasks that have not started fail with
// ErrQueueClosed. Close blocks until the worker has exited and is safe to
// call multiple times.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.stop)
	})
	<-q.stopped
}

// worker is the queue's single consumer. It enforces the minimum gap before
// each task start and isolates task failures.
func (q *Queue) worker() {
	defer close(q.stopped)

	for {
		select {
		case <-q.stop:
			q.drain()
			return
		case t := <-q.tasks:
			// Enforce the minimum gap between task starts.
			select {
			case <-q.stop:
				t.done <- taskResult{err: ErrQueueClosed}
				q.drain()
				return
			case <-time.After(q.gap):
			}

			t.done <- q.execute(t.fn)
		}
	}
}

// drain fails every task still waiting in the channel.
func (q *Queue) drain() {
	for {
		select {
		case t := <-q.tasks:
			t.done <- taskResult{err: ErrQueueClosed}
		default:
			return
		}
	}
}

// execute runs one task under the per-task deadline, converting panics into
// errors so they cannot take down the worker loop.
func (q *Queue) execute(fn TaskFunc) (res taskResult) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("Throttled task panicked", "panic", r)
			res = taskResult{err: errors.Errorf("task panicked: %v", r)}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	value, err := fn(ctx)
	return taskResult{value: value, err: err}
}
