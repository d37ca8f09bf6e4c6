// Package pipeline orchestrates a score submission end to end: admission,
// rule detectors, deterministic replay, feature extraction, shadow-model
// inference, edge-case arbitration, persistence, and the training-sample
// queue. Rule and replay verdicts alone decide acceptance; the model only
// observes.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/SuperSonnix71/Xnake/internal/adapters/mq/queue"
	"github.com/SuperSonnix71/Xnake/internal/adapters/repository"
	"github.com/SuperSonnix71/Xnake/internal/domain/detect"
	"github.com/SuperSonnix71/Xnake/internal/domain/features"
	"github.com/SuperSonnix71/Xnake/internal/domain/game"
	"github.com/SuperSonnix71/Xnake/internal/domain/ratelimit"
	"github.com/SuperSonnix71/Xnake/internal/domain/session"
	"github.com/SuperSonnix71/Xnake/internal/domain/types"
	"github.com/SuperSonnix71/Xnake/internal/ml/arbiter"
	"github.com/SuperSonnix71/Xnake/internal/ml/predict"
	"github.com/SuperSonnix71/Xnake/pkg/logger"
	"github.com/SuperSonnix71/Xnake/pkg/metrics"
)

// Default admission bounds.
const (
	DefaultMaxScore  = 10_000
	DefaultMaxFrames = 10_000
)

// Result is the outcome of one submission.
type Result struct {
	Accepted    bool
	Verdict     types.Verdict
	Best        repository.BestResult
	Probability float64
	Replayed    bool
}

// Pipeline wires the submission stages together.
type Pipeline struct {
	limiter  *ratelimit.Limiter
	sessions *session.Registry
	chain    *detect.Chain
	rules    game.Rules
	engine   *predict.Engine
	arbiter  *arbiter.Arbiter
	store    repository.Store
	samples  queue.Queue

	maxScore  int
	maxFrames int
	log       logger.Logger
	now       func() time.Time
}

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithMaxScore sets the admission cap on claimed scores.
func WithMaxScore(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxScore = n
		}
	}
}

// WithMaxFrames sets the admission cap on claimed frame counts.
func WithMaxFrames(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxFrames = n
		}
	}
}

// WithLogger sets the pipeline's logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// New assembles the pipeline from its collaborators.
func New(
	limiter *ratelimit.Limiter,
	sessions *session.Registry,
	chain *detect.Chain,
	rules game.Rules,
	engine *predict.Engine,
	arb *arbiter.Arbiter,
	store repository.Store,
	samples queue.Queue,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		limiter:   limiter,
		sessions:  sessions,
		chain:     chain,
		rules:     rules,
		engine:    engine,
		arbiter:   arb,
		store:     store,
		samples:   samples,
		maxScore:  DefaultMaxScore,
		maxFrames: DefaultMaxFrames,
		log:       logger.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Submit runs one submission through every stage. A cheat detection returns
// a rejected Result with a nil error; errors mean the submission could not
// be judged at all.
func (p *Pipeline) Submit(ctx context.Context, sub *types.Submission) (Result, error) {
	if err := p.validate(sub); err != nil {
		metrics.RecordErrorByComponent("pipeline", "validation")
		return Result{}, err
	}

	if !p.limiter.Allow(sub.PlayerID) {
		return Result{}, fmt.Errorf("%w: player %s", ErrRateLimited, sub.PlayerID)
	}

	sess := p.sessions.Get(sub.PlayerID)
	verdict := p.chain.Check(sub, sess)

	replayed := false
	if verdict.Legit && !isEmptyGame(sub) {
		start := p.now()
		res := game.Replay(sub, p.rules)
		metrics.RecordReplayDuration(float64(time.Since(start).Microseconds()) / 1000)
		metrics.RecordReplayFrames(res.Frames)
		verdict = res.Verdict
		replayed = true

		if !verdict.Legit {
			p.log.Info(ctx, "replay diverged",
				logger.String("player", sub.PlayerID),
				logger.String("reason", verdict.Reason),
				logger.Any("frames", res.FrameLog),
			)
		}
	}

	feats := features.Extract(sub)
	prob := predict.NeutralProbability
	// Games under the arbitration score gate skip inference entirely; their
	// probability stays neutral.
	if p.engine.Active() != nil && sub.Score >= p.arbiter.MinScore() {
		prob = p.engine.Predict(feats)
		if _, err := p.arbiter.Classify(sub, verdict, prob, feats); err != nil {
			// Arbitration is advisory; a journaling failure must not block
			// the verdict.
			p.log.Error(ctx, "edge-case journaling failed", logger.Error(err))
			metrics.RecordErrorByComponent("pipeline", "arbitration")
		}
	}

	// The session is consumed either way; replaying a result against the
	// same seed is not allowed.
	p.sessions.End(sub.PlayerID)

	result := Result{Verdict: verdict, Probability: prob, Replayed: replayed}
	if verdict.Legit {
		best, err := p.store.UpsertBest(ctx, sub.PlayerID, sub.Score)
		if err != nil {
			return Result{}, fmt.Errorf("persist score: %w", err)
		}
		result.Accepted = true
		result.Best = best
		metrics.RecordSubmission("accepted")
	} else {
		if err := p.store.RecordCheat(ctx, types.CheatRecord{
			PlayerID:  sub.PlayerID,
			Kind:      verdict.Kind,
			Reason:    verdict.Reason,
			Score:     sub.Score,
			CreatedAt: p.now().UTC(),
		}); err != nil {
			return Result{}, fmt.Errorf("persist cheat: %w", err)
		}
		metrics.RecordSubmission("rejected")
		metrics.RecordCheat(string(verdict.Kind))
	}

	p.enqueueSample(ctx, sub, verdict, feats)
	return result, nil
}

func (p *Pipeline) validate(sub *types.Submission) error {
	switch {
	case sub.PlayerID == "":
		return fmt.Errorf("%w: missing player id", ErrValidation)
	case sub.Score < 0 || sub.Score > p.maxScore:
		return fmt.Errorf("%w: score %d out of range", ErrValidation, sub.Score)
	case sub.SpeedLevel < 1:
		return fmt.Errorf("%w: speed level %d must be positive", ErrValidation, sub.SpeedLevel)
	case sub.FoodEaten < 0:
		return fmt.Errorf("%w: negative food count", ErrValidation)
	case sub.DurationSec < 0:
		return fmt.Errorf("%w: negative duration", ErrValidation)
	case sub.TotalFrames < 0 || sub.TotalFrames > p.maxFrames:
		return fmt.Errorf("%w: frame count %d out of range", ErrValidation, sub.TotalFrames)
	}
	return nil
}

// isEmptyGame reports an instant death: nothing scored, nothing moved.
// There is nothing to replay; the zero score is accepted as-is.
func isEmptyGame(sub *types.Submission) bool {
	return sub.Score == 0 && sub.FoodEaten == 0 && len(sub.Moves) == 0
}

func (p *Pipeline) enqueueSample(ctx context.Context, sub *types.Submission, verdict types.Verdict, feats types.FeatureVector) {
	sample := types.TrainingSample{
		PlayerID:  sub.PlayerID,
		Cheat:     !verdict.Legit,
		Kind:      verdict.Kind,
		Features:  feats,
		Series:    features.Series(sub.Moves),
		Timestamp: p.now().UTC(),
	}
	if !p.samples.Enqueue(ctx, sample) {
		p.log.Warn(ctx, "sample queue full, dropping observation",
			logger.String("player", sub.PlayerID))
	}
}
