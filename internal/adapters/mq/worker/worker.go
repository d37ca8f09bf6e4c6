// Package worker drains the sample queue into the journal and nudges the
// trainer's debouncer after every arrival.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/SuperSonnix71/Xnake/internal/adapters/mq/queue"
	"github.com/SuperSonnix71/Xnake/pkg/logger"
	"github.com/SuperSonnix71/Xnake/pkg/metrics"
)

// Default worker configuration.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
)

// Event is what workers read off the queue.
type Event = queue.Event

// Recorder persists labeled samples. Implemented by the sample journal.
type Recorder interface {
	Append(s Event) error
	Count() int
}

// Notifier learns that new samples landed. Implemented by the trainer's
// debouncer.
type Notifier interface {
	Poke()
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker persists sample events.
type Worker struct {
	queue    Queue
	recorder Recorder
	notifier Notifier
	name     string

	shutdown chan struct{}
	done     chan struct{}

	log logger.Logger
}

// New creates a worker with configuration options.
func New(q Queue, recorder Recorder, notifier Notifier, opts ...Option) *Worker {
	w := &Worker{
		queue:    q,
		recorder: recorder,
		notifier: notifier,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run processes events until ctx is canceled, Shutdown is called, or the
// queue closes.
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
				w.log.Error(ctx, "sample persistence failed", logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker, waiting for the in-flight event.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.log.Warn(ctx, "worker shutdown timed out", logger.String("worker", w.name))
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *Worker) process(ctx context.Context, e Event) error {
	if err := w.recorder.Append(e); err != nil {
		metrics.RecordErrorByComponent("worker", "journal_append")
		return fmt.Errorf("append sample for %s: %w", e.PlayerID, err)
	}
	metrics.UpdateTrainingSamples(w.recorder.Count())

	if w.notifier != nil {
		w.notifier.Poke()
	}
	w.log.Debug(ctx, "sample persisted",
		logger.String("player", e.PlayerID),
		logger.Bool("cheat", e.Cheat),
	)
	return nil
}

// Pool manages a fixed set of workers over one queue.
type Pool struct {
	workers []*Worker
	log     logger.Logger
}

// NewPool creates workerCount workers; non-positive counts size the pool
// from the CPU count.
func NewPool(workerCount int, q Queue, recorder Recorder, notifier Notifier, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	p := &Pool{workers: make([]*Worker, workerCount), log: logger.Nop()}
	for i := range p.workers {
		p.workers[i] = New(q, recorder, notifier,
			append(opts, WithName("worker-"+strconv.Itoa(i)))...)
	}
	return p
}

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown stops all workers, sharing the deadline.
func (p *Pool) Shutdown(ctx context.Context) error {
	var firstErr error
	for _, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Size reports the number of workers in the pool.
func (p *Pool) Size() int { return len(p.workers) }
