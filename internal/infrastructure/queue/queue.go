package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/servimarket/session-service/internal/pkg/metrics"
)

const defaultBuffer = 64

// ErrStopped is returned by Submit once the queue's context has been cancelled.
var ErrStopped = errors.New("queue stopped")

type job struct {
	ctx  context.Context
	fn   func(ctx context.Context)
	done chan struct{}
}

// Queue runs jobs on a single owner goroutine in submission order, so no two
// jobs ever overlap.
type Queue struct {
	jobs    chan job
	stopped chan struct{}
	once    sync.Once
	log     zerolog.Logger
}

// New creates a Queue with room for buffer pending jobs.
// If buffer <= 0, defaultBuffer is used.
func New(buffer int, log zerolog.Logger) *Queue {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Queue{
		jobs:    make(chan job, buffer),
		stopped: make(chan struct{}),
		log:     log,
	}
}

// Start launches the owner goroutine. It stops when ctx is cancelled.
// Calling Start more than once has no effect.
func (q *Queue) Start(ctx context.Context) {
	q.once.Do(func() {
		go q.run(ctx)
	})
}

// Submit enqueues fn and waits for it to finish. If ctx ends before fn is
// enqueued, fn never runs. If ctx ends after that, Submit returns ctx.Err()
// and fn still runs; its result is discarded by the caller.
//
// fn receives a context carrying ctx's values that is cancelled only when the
// queue stops.
func (q *Queue) Submit(ctx context.Context, fn func(ctx context.Context)) error {
	j := job{ctx: context.WithoutCancel(ctx), fn: fn, done: make(chan struct{})}

	select {
	case <-q.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	case q.jobs <- j:
		metrics.QueueDepth.Inc()
	}

	select {
	case <-j.done:
		return nil
	case <-q.stopped:
		return ErrStopped
	case <-ctx.Done():
		q.log.Debug().Err(ctx.Err()).Msg("caller abandoned queued job")
		return ctx.Err()
	}
}

func (q *Queue) run(ctx context.Context) {
	defer close(q.stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-q.jobs:
			metrics.QueueDepth.Dec()
			q.exec(ctx, j)
		}
	}
}

func (q *Queue) exec(runCtx context.Context, j job) {
	defer close(j.done)
	defer func() {
		if r := recover(); r != nil {
			q.log.Error().Interface("panic", r).Msg("queued job panicked")
		}
	}()

	jobCtx, cancel := context.WithCancel(j.ctx)
	defer cancel()
	stop := context.AfterFunc(runCtx, cancel)
	defer stop()

	j.fn(jobCtx)
}
