// Package train runs the background retraining worker for the shadow model:
// snapshot the labeled samples, bootstrap with synthetic data when thin,
// fit a fresh network, evaluate it, and activate it only when it does not
// regress the live model. At most one run executes at a time; requests
// arriving mid-run coalesce into a single follow-up run.
package train

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/SuperSonnix71/Xnake/internal/domain/features"
	"github.com/SuperSonnix71/Xnake/internal/domain/types"
	"github.com/SuperSonnix71/Xnake/internal/ml/model"
	"github.com/SuperSonnix71/Xnake/pkg/logger"
	"github.com/SuperSonnix71/Xnake/pkg/metrics"
)

// State of the trainer's run loop.
type State int32

// Trainer states. A request against a running trainer marks it pending; the
// loop drains the pending flag with one more run before going idle.
const (
	StateIdle State = iota
	StateRunning
	StateRunningPending
)

// String implements fmt.Stringer for status reporting.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateRunningPending:
		return "running_pending"
	default:
		return "unknown"
	}
}

// Activation gate: a candidate may trail the active model by at most this
// much on F1 and accuracy.
const DefaultMaxRegression = 0.02

// Defaults for the sample floor and validation split.
const (
	DefaultMinSamples = 100
	valFraction       = 0.2
)

// SampleSource provides the labeled sample snapshot.
type SampleSource interface {
	All() ([]types.TrainingSample, error)
	Count() int
}

// EventSink records training-run outcomes.
type EventSink interface {
	Append(ev types.TrainingEvent) error
}

// ModelStore persists and activates trained bundles.
type ModelStore interface {
	Save(b *model.Bundle) error
	Activate(version string) error
}

// Publisher swaps the serving model and exposes the current one.
type Publisher interface {
	Publish(b *model.Bundle)
	Active() *model.Bundle
}

// Trainer coordinates training runs.
type Trainer struct {
	state atomic.Int32

	// ctx is canceled by Stop; runs abort at the next epoch boundary and
	// new requests are refused.
	ctx  context.Context
	stop context.CancelFunc

	samples SampleSource
	events  EventSink
	store   ModelStore
	engine  Publisher

	cfg           model.TrainConfig
	minSamples    int
	maxRegression float64
	log           logger.Logger
	now           func() time.Time
	afterRun      func(types.TrainingEvent, error)
}

// Option applies a configuration option to the Trainer.
type Option func(*Trainer)

// WithTrainConfig sets the optimization parameters.
func WithTrainConfig(cfg model.TrainConfig) Option {
	return func(t *Trainer) { t.cfg = cfg }
}

// WithMinSamples sets the floor below which synthetic samples pad the set.
func WithMinSamples(n int) Option {
	return func(t *Trainer) {
		if n > 0 {
			t.minSamples = n
		}
	}
}

// WithMaxRegression sets the activation gate tolerance.
func WithMaxRegression(r float64) Option {
	return func(t *Trainer) {
		if r >= 0 {
			t.maxRegression = r
		}
	}
}

// WithLogger sets the trainer's logger.
func WithLogger(l logger.Logger) Option {
	return func(t *Trainer) {
		if l != nil {
			t.log = l
		}
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Trainer) {
		if now != nil {
			t.now = now
		}
	}
}

// WithAfterRun installs a hook invoked after every run. Tests use it to
// synchronize on run completion.
func WithAfterRun(fn func(types.TrainingEvent, error)) Option {
	return func(t *Trainer) { t.afterRun = fn }
}

// New creates a trainer over the given collaborators.
func New(samples SampleSource, events EventSink, store ModelStore, engine Publisher, opts ...Option) *Trainer {
	t := &Trainer{
		samples:       samples,
		events:        events,
		store:         store,
		engine:        engine,
		cfg:           model.DefaultTrainConfig(),
		minSamples:    DefaultMinSamples,
		maxRegression: DefaultMaxRegression,
		log:           logger.Nop(),
		now:           time.Now,
	}
	t.ctx, t.stop = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Stop shuts the trainer down. An in-flight run aborts at the next epoch
// boundary without saving or activating anything, and subsequent requests
// are refused.
func (t *Trainer) Stop() {
	t.stop()
}

// State returns the current run-loop state.
func (t *Trainer) State() State {
	return State(t.state.Load())
}

// Request asks for a training run. If the trainer is idle a run starts
// immediately; if one is in flight the request coalesces into a single
// follow-up run. Returns false when a follow-up is already queued or the
// trainer has been stopped.
func (t *Trainer) Request(reason string) bool {
	if t.ctx.Err() != nil {
		return false
	}
	for {
		switch State(t.state.Load()) {
		case StateIdle:
			if t.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
				go t.loop(reason)
				return true
			}
		case StateRunning:
			if t.state.CompareAndSwap(int32(StateRunning), int32(StateRunningPending)) {
				return true
			}
		case StateRunningPending:
			return false
		}
	}
}

func (t *Trainer) loop(reason string) {
	ctx := t.ctx
	for {
		ev, err := t.runOnce(ctx, reason)
		if err != nil {
			metrics.RecordTrainingFailure()
			t.log.Error(ctx, "training run failed", logger.Error(err), logger.String("reason", reason))
		}
		if t.afterRun != nil {
			t.afterRun(ev, err)
		}

		if ctx.Err() == nil && t.state.CompareAndSwap(int32(StateRunningPending), int32(StateRunning)) {
			reason = "coalesced request"
			continue
		}
		t.state.CompareAndSwap(int32(StateRunningPending), int32(StateIdle))
		t.state.CompareAndSwap(int32(StateRunning), int32(StateIdle))
		return
	}
}

func (t *Trainer) runOnce(ctx context.Context, reason string) (types.TrainingEvent, error) {
	started := t.now()
	metrics.RecordTrainingRun()
	t.log.Info(ctx, "training run started", logger.String("reason", reason))

	real, err := t.samples.All()
	if err != nil {
		return types.TrainingEvent{}, fmt.Errorf("load samples: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return types.TrainingEvent{}, fmt.Errorf("training interrupted: %w", err)
	}
	metrics.UpdateTrainingSamples(len(real))

	set := real
	synthetic := 0
	if len(set) < t.minSamples {
		synthetic = t.minSamples - len(set)
		set = append(append([]types.TrainingSample{}, set...), SyntheticSamples(synthetic, t.cfg.Seed)...)
	}
	if len(set) < 2 {
		return types.TrainingEvent{}, ErrNotEnoughSamples
	}

	inputs := make([]types.FeatureVector, len(set))
	labels := make([]float64, len(set))
	for i, s := range set {
		inputs[i] = s.Features
		if s.Cheat {
			labels[i] = 1
		}
	}

	means, stds := features.Stats(inputs)
	for i := range inputs {
		inputs[i] = features.Normalize(inputs[i], means, stds)
	}

	rng := rand.New(rand.NewSource(t.cfg.Seed))
	rng.Shuffle(len(inputs), func(i, j int) {
		inputs[i], inputs[j] = inputs[j], inputs[i]
		labels[i], labels[j] = labels[j], labels[i]
	})

	valN := int(float64(len(inputs)) * valFraction)
	if valN < 1 {
		valN = 1
	}
	trainX, valX := inputs[valN:], inputs[:valN]
	trainY, valY := labels[valN:], labels[:valN]

	net := model.NewNetwork(t.cfg.Seed)
	net.Train(ctx, trainX, trainY, t.cfg)
	if err := ctx.Err(); err != nil {
		// Shut down mid-run: the partially trained network is discarded.
		return types.TrainingEvent{}, fmt.Errorf("training interrupted: %w", err)
	}

	var trainMetrics, valMetrics types.ModelMetrics
	var g errgroup.Group
	g.Go(func() error {
		trainMetrics = model.Evaluate(net, trainX, trainY)
		return nil
	})
	g.Go(func() error {
		valMetrics = model.Evaluate(net, valX, valY)
		return nil
	})
	_ = g.Wait()

	valMetrics.TrainSamples = len(trainX)
	valMetrics.Epochs = t.cfg.Epochs

	version := fmt.Sprintf("%s-%s", started.UTC().Format("20060102-150405"), uuid.NewString()[:8])
	bundle := &model.Bundle{
		Version:   version,
		Net:       net,
		Means:     means,
		Stds:      stds,
		Metrics:   valMetrics,
		TrainedAt: started.UTC(),
	}
	if err := t.store.Save(bundle); err != nil {
		return types.TrainingEvent{}, fmt.Errorf("save model %s: %w", version, err)
	}

	activated, gateReason := t.gate(valMetrics)
	if activated {
		if err := t.store.Activate(version); err != nil {
			return types.TrainingEvent{}, fmt.Errorf("activate model %s: %w", version, err)
		}
		t.engine.Publish(bundle)
	}

	duration := t.now().Sub(started)
	metrics.RecordTrainingDuration(duration.Seconds())

	ev := types.TrainingEvent{
		Version:     version,
		StartedAt:   started.UTC(),
		DurationSec: duration.Seconds(),
		Samples:     len(real),
		Synthetic:   synthetic,
		Metrics:     valMetrics,
		Activated:   activated,
		Reason:      gateReason,
	}
	if err := t.events.Append(ev); err != nil {
		return ev, fmt.Errorf("journal training event: %w", err)
	}

	t.log.Info(ctx, "training run finished",
		logger.String("version", version),
		logger.Float64("val_f1", valMetrics.F1),
		logger.Float64("val_accuracy", valMetrics.Accuracy),
		logger.Float64("train_f1", trainMetrics.F1),
		logger.Bool("activated", activated),
		logger.Int("samples", len(real)),
		logger.Int("synthetic", synthetic),
	)
	t.logImportance(ctx, net, valX, valY)

	return ev, nil
}

// gate decides whether the candidate may replace the active model.
func (t *Trainer) gate(candidate types.ModelMetrics) (bool, string) {
	active := t.engine.Active()
	if active == nil {
		return true, "first model"
	}
	if candidate.F1 < active.Metrics.F1-t.maxRegression {
		return false, fmt.Sprintf("f1 regressed: %.3f vs active %.3f", candidate.F1, active.Metrics.F1)
	}
	if candidate.Accuracy < active.Metrics.Accuracy-t.maxRegression {
		return false, fmt.Sprintf("accuracy regressed: %.3f vs active %.3f", candidate.Accuracy, active.Metrics.Accuracy)
	}
	return true, ""
}

// logImportance estimates per-feature permutation importance on the
// validation split and logs the strongest features. Diagnostic only.
func (t *Trainer) logImportance(ctx context.Context, net *model.Network, valX []types.FeatureVector, valY []float64) {
	if len(valX) < 10 {
		return
	}
	base := model.Evaluate(net, valX, valY).Accuracy
	rng := rand.New(rand.NewSource(t.cfg.Seed))

	type imp struct {
		name  string
		delta float64
	}
	imps := make([]imp, 0, types.FeatureCount)
	shuffled := make([]types.FeatureVector, len(valX))
	for f := 0; f < types.FeatureCount; f++ {
		copy(shuffled, valX)
		perm := rng.Perm(len(valX))
		for i := range shuffled {
			v := shuffled[i]
			v[f] = valX[perm[i]][f]
			shuffled[i] = v
		}
		acc := model.Evaluate(net, shuffled, valY).Accuracy
		imps = append(imps, imp{name: types.FeatureNames[f], delta: base - acc})
	}

	sort.Slice(imps, func(i, j int) bool { return imps[i].delta > imps[j].delta })
	top := imps
	if len(top) > 3 {
		top = top[:3]
	}
	for _, im := range top {
		t.log.Debug(ctx, "feature importance",
			logger.String("feature", im.name),
			logger.Float64("accuracy_drop", im.delta),
		)
	}
}
