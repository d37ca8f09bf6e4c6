// Package sched periodically decides whether accumulated edge cases justify
// a retraining run. A run is triggered only when enough new edge cases
// arrived since the last trigger, the cooldown since the last completed run
// has elapsed, and the trainer is not already busy.
package sched

import (
	"context"
	"sync"
	"time"

	"github.com/SuperSonnix71/Xnake/internal/ml/train"
	"github.com/SuperSonnix71/Xnake/pkg/logger"
)

// Defaults for the retraining policy.
const (
	DefaultPeriod        = 30 * time.Minute
	DefaultCooldown      = 2 * time.Hour
	DefaultEdgeThreshold = 10
)

// EdgeCounter reports how many edge cases have been journaled in total.
type EdgeCounter interface {
	Count() int
}

// TrainerControl is the slice of the trainer the scheduler needs.
type TrainerControl interface {
	Request(reason string) bool
	State() train.State
}

// Scheduler drives periodic retraining checks.
type Scheduler struct {
	edges   EdgeCounter
	trainer TrainerControl

	period    time.Duration
	cooldown  time.Duration
	threshold int
	log       logger.Logger
	now       func() time.Time

	mu        sync.Mutex
	lastCount int
	lastDone  time.Time
}

// Option applies a configuration option to the Scheduler.
type Option func(*Scheduler)

// WithPeriod sets the check interval.
func WithPeriod(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.period = d
		}
	}
}

// WithCooldown sets the minimum spacing between triggered runs.
func WithCooldown(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.cooldown = d
		}
	}
}

// WithEdgeThreshold sets how many new edge cases justify a run.
func WithEdgeThreshold(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.threshold = n
		}
	}
}

// WithLogger sets the scheduler's logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a scheduler over the edge-case journal and trainer.
func New(edges EdgeCounter, trainer TrainerControl, opts ...Option) *Scheduler {
	s := &Scheduler{
		edges:     edges,
		trainer:   trainer,
		period:    DefaultPeriod,
		cooldown:  DefaultCooldown,
		threshold: DefaultEdgeThreshold,
		log:       logger.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	// Pre-existing edge cases do not count toward the first trigger; only
	// cases arriving while the service runs do.
	s.lastCount = edges.Count()
	return s
}

// Run blocks, checking on every period tick until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}

// Check applies the trigger policy once. Returns whether a run was requested.
func (s *Scheduler) Check(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := s.edges.Count()
	delta := count - s.lastCount
	now := s.now()

	if delta < s.threshold {
		return false
	}
	if !s.lastDone.IsZero() && now.Sub(s.lastDone) < s.cooldown {
		s.log.Debug(ctx, "retrain deferred by cooldown",
			logger.Int("new_edge_cases", delta))
		return false
	}
	if s.trainer.State() != train.StateIdle {
		s.log.Debug(ctx, "retrain deferred, trainer busy",
			logger.Int("new_edge_cases", delta))
		return false
	}

	if !s.trainer.Request("edge-case accumulation") {
		return false
	}
	s.log.Info(ctx, "retrain triggered",
		logger.Int("new_edge_cases", delta),
		logger.Int("total_edge_cases", count))
	s.lastCount = count
	return true
}

// MarkCompletion records that a training run just finished. The cooldown is
// measured from this point, not from when the run was requested; the trainer's
// after-run hook calls it for every run, scheduled or not.
func (s *Scheduler) MarkCompletion() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastDone = s.now()
}
