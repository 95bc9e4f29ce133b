// Package worker drains the journal queue into the history store.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Lianues/LeiNaoArena/internal/adapters/mq/queue"
	"github.com/Lianues/LeiNaoArena/pkg/logger"
	"github.com/Lianues/LeiNaoArena/pkg/metrics"
)

const defaultWorkerCount = 2

// Event abstracts what workers read off the queue.
type Event = queue.Event

// Appender persists journal events.
type Appender interface {
	AppendHistory(ctx context.Context, e Event) error
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
	Len(ctx context.Context) int
}

// Worker consumes journal events until its queue closes or the context
// is canceled.
type Worker struct {
	queue    queue.Queue
	appender Appender
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Worker.
type Option func(*Worker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWorker creates a journal worker with configuration options.
func NewWorker(q queue.Queue, appender Appender, opts ...Option) *Worker {
	w := &Worker{
		queue:    q,
		appender: appender,
		name:     "journal-worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("journal"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the worker loop.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := w.process(ctx, e); err != nil {
				w.logger.Error(ctx, "journal write failed",
					logger.String("event_id", e.EventID),
					logger.String("session_id", e.SessionID),
					logger.Error(err),
				)
			}
			metrics.UpdateJournalDepth(w.queue.Len(ctx))
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker shutdown timed out: %w", ctx.Err())
	}
}

func (w *Worker) process(ctx context.Context, e Event) error {
	if err := w.appender.AppendHistory(ctx, e); err != nil {
		metrics.RecordJournalError()
		return fmt.Errorf("append outcome %s: %w", e.EventID, err)
	}
	metrics.RecordJournalWrite()
	return nil
}

// Pool manages a fixed set of journal workers on one queue.
type Pool struct {
	workers []*Worker
	logger  logger.Logger
}

// NewPool creates workerCount workers draining q into appender.
func NewPool(workerCount int, q queue.Queue, appender Appender) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	p := &Pool{
		workers: make([]*Worker, workerCount),
		logger:  logger.Get().Named("journal-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewWorker(q, appender, WithName("journal-"+strconv.Itoa(i)))
	}
	return p
}

// Start launches all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop shuts all workers down, bounded by timeout.
func (p *Pool) Stop(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for _, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil {
			p.logger.Warn(ctx, "worker did not stop cleanly", logger.String("worker", w.name), logger.Error(err))
		}
	}
}
