// Package predict serves inference requests against the currently active
// model bundle. The active bundle swaps atomically, so a retrain publishing
// a new model never stalls or torn-reads an in-flight prediction.
package predict

import (
	"sync/atomic"
	"time"

	"github.com/SuperSonnix71/Xnake/internal/domain/types"
	"github.com/SuperSonnix71/Xnake/internal/ml/model"
	"github.com/SuperSonnix71/Xnake/pkg/metrics"
)

// NeutralProbability is returned while no model has been trained yet. It
// sits exactly between the uncertainty thresholds, so the arbiter treats
// the model as abstaining.
const NeutralProbability = 0.5

// DefaultSlots bounds concurrent inference.
const DefaultSlots = 64

// Engine holds the active bundle and a concurrency cap on inference.
type Engine struct {
	active atomic.Pointer[model.Bundle]
	slots  chan struct{}
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithSlots sets the maximum number of concurrent inferences.
func WithSlots(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.slots = make(chan struct{}, n)
		}
	}
}

// NewEngine creates an engine with no active model.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{slots: make(chan struct{}, DefaultSlots)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Publish swaps in a new active bundle. Safe to call concurrently with
// Predict; in-flight predictions finish on the bundle they started with.
func (e *Engine) Publish(b *model.Bundle) {
	e.active.Store(b)
	if b != nil {
		metrics.UpdateActiveModel(b.Metrics.F1, b.Metrics.Accuracy)
	}
}

// Active returns the current bundle, or nil before the first training run.
func (e *Engine) Active() *model.Bundle {
	return e.active.Load()
}

// Predict scores a raw feature vector. Without an active model it returns
// the neutral probability so the caller's thresholds read it as abstention.
func (e *Engine) Predict(raw types.FeatureVector) float64 {
	b := e.active.Load()
	if b == nil {
		return NeutralProbability
	}

	e.slots <- struct{}{}
	defer func() { <-e.slots }()

	start := time.Now()
	p := b.Predict(raw)
	metrics.RecordInferenceLatency(float64(time.Since(start).Microseconds()) / 1000)
	return p
}
