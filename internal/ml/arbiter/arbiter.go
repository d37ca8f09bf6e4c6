// Package arbiter compares rule verdicts with shadow-model probabilities and
// journals their disagreements as edge cases. The model runs in shadow mode:
// nothing here ever overturns a rule verdict, the output feeds retraining
// and operator review only.
package arbiter

import (
	"time"

	"github.com/google/uuid"

	"github.com/SuperSonnix71/Xnake/internal/domain/types"
	"github.com/SuperSonnix71/Xnake/pkg/metrics"
)

// Default decision thresholds and the score gate below which games are too
// short to be worth arbitrating.
const (
	DefaultLowThreshold  = 0.3
	DefaultHighThreshold = 0.7
	DefaultMinScore      = 50
)

// Journal persists edge cases. Implemented by the JSONL edge-case log.
type Journal interface {
	Append(ec types.EdgeCase) error
}

// Arbiter classifies rule/model disagreements.
type Arbiter struct {
	journal  Journal
	low      float64
	high     float64
	minScore int
	now      func() time.Time
}

// Option applies a configuration option to the Arbiter.
type Option func(*Arbiter)

// WithThresholds sets the uncertain band [low, high].
func WithThresholds(low, high float64) Option {
	return func(a *Arbiter) {
		if low > 0 && high > low && high < 1 {
			a.low = low
			a.high = high
		}
	}
}

// WithMinScore sets the score gate for arbitration.
func WithMinScore(n int) Option {
	return func(a *Arbiter) {
		if n >= 0 {
			a.minScore = n
		}
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Arbiter) {
		if now != nil {
			a.now = now
		}
	}
}

// New creates an arbiter writing to journal.
func New(journal Journal, opts ...Option) *Arbiter {
	a := &Arbiter{
		journal:  journal,
		low:      DefaultLowThreshold,
		high:     DefaultHighThreshold,
		minScore: DefaultMinScore,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// MinScore returns the score gate below which games are not arbitrated.
// The pipeline shares it to skip inference on the same games.
func (a *Arbiter) MinScore() int {
	return a.minScore
}

// Classify maps a (rule verdict, probability) pair onto the disagreement
// table. It returns nil when rules and model agree, or when the game scored
// below the gate. A non-nil edge case has already been journaled.
//
// Callers must not invoke Classify before a model is active; the neutral
// no-model probability would land every submission in the uncertain band.
func (a *Arbiter) Classify(sub *types.Submission, rules types.Verdict, prob float64, feats types.FeatureVector) (*types.EdgeCase, error) {
	if sub.Score < a.minScore {
		return nil, nil
	}

	rulesCheat := !rules.Legit
	var (
		edgeType   types.EdgeType
		shouldFlag bool
	)
	switch {
	case rulesCheat && prob < a.low:
		edgeType = types.EdgeRulesPositiveMLNegative
	case !rulesCheat && prob > a.high:
		edgeType = types.EdgeRulesNegativeMLPositive
		shouldFlag = true
	case rulesCheat && prob <= a.high:
		edgeType = types.EdgeMLUncertainRulesPositive
	case !rulesCheat && prob >= a.low:
		edgeType = types.EdgeMLUncertainRulesNegative
		shouldFlag = true
	default:
		// Rules and model agree confidently.
		return nil, nil
	}

	ruleVerdict := "legit"
	if rulesCheat {
		ruleVerdict = "cheat"
	}
	ec := types.EdgeCase{
		ID:            uuid.NewString(),
		PlayerID:      sub.PlayerID,
		Score:         sub.Score,
		RuleVerdict:   ruleVerdict,
		MLProbability: prob,
		EdgeType:      edgeType,
		ShouldFlag:    shouldFlag,
		Features:      feats,
		Timestamp:     a.now(),
	}

	if err := a.journal.Append(ec); err != nil {
		return nil, err
	}
	metrics.RecordEdgeCase(string(edgeType))
	return &ec, nil
}
