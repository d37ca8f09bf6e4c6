// Package detect implements the layered rule detectors that screen a
// submission before the replay engine runs.
//
// Detectors execute in a fixed order and the first to fire short-circuits
// the rest. Each produces a Verdict value; nothing in this package returns
// an error or talks to storage.
package detect

import (
	"fmt"
	"math"

	"github.com/SuperSonnix71/Xnake/internal/domain/types"
)

// Default tolerances. All overridable via options.
const (
	defaultPauseGapMS         = 10_000
	defaultPauseGapLimit      = 1
	defaultHeartbeatTolerance = 0.30
	defaultBotMovesPerFood    = 4.0
	defaultBotMinScore        = 1000

	speedFloorLevel  = 5
	speedFloorFactor = 1.5

	heartbeatMinScore     = 100
	heartbeatMinFloorMS   = 200.0
	wallPerfDivergenceMS  = 5_000
	minGlobalMSPerFrame   = 40.0
	maxGlobalMSPerFrame   = 200.0

	lowFoodCutoff    = 2
	lowFoodTolerance = 20
)

// Chain runs the ordered detectors with calibrated tolerances.
type Chain struct {
	pauseGapMS         int64
	pauseGapLimit      int
	heartbeatTolerance float64
	botMovesPerFood    float64
	botMinScore        int
}

// Option applies a configuration option to the Chain.
type Option func(*Chain)

// WithPauseGap sets the suspicious inter-move gap and how many gaps fire the
// pause-abuse detector.
func WithPauseGap(gapMS int64, limit int) Option {
	return func(c *Chain) {
		if gapMS > 0 {
			c.pauseGapMS = gapMS
		}
		if limit > 0 {
			c.pauseGapLimit = limit
		}
	}
}

// WithHeartbeatTolerance sets the relative band for heartbeat timing checks.
func WithHeartbeatTolerance(tol float64) Option {
	return func(c *Chain) {
		if tol > 0 {
			c.heartbeatTolerance = tol
		}
	}
}

// WithBotHeuristic sets the score gate and moves-per-food ratio for the bot
// detector.
func WithBotHeuristic(minScore int, movesPerFood float64) Option {
	return func(c *Chain) {
		if minScore > 0 {
			c.botMinScore = minScore
		}
		if movesPerFood > 0 {
			c.botMovesPerFood = movesPerFood
		}
	}
}

// NewChain creates a detector chain with default tolerances.
func NewChain(opts ...Option) *Chain {
	c := &Chain{
		pauseGapMS:         defaultPauseGapMS,
		pauseGapLimit:      defaultPauseGapLimit,
		heartbeatTolerance: defaultHeartbeatTolerance,
		botMovesPerFood:    defaultBotMovesPerFood,
		botMinScore:        defaultBotMinScore,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check runs every detector except replay, in order, short-circuiting on the
// first cheat verdict. sess is the live session for the player, or nil.
func (c *Chain) Check(sub *types.Submission, sess *types.Session) types.Verdict {
	checks := []func() types.Verdict{
		func() types.Verdict { return c.ScoreVsFood(sub) },
		func() types.Verdict { return c.SpeedFloor(sub) },
		func() types.Verdict { return c.SessionSeed(sub, sess) },
		func() types.Verdict { return c.MissingMoves(sub) },
		func() types.Verdict { return c.PauseAbuse(sub) },
		func() types.Verdict { return c.Bot(sub) },
		func() types.Verdict { return c.Heartbeat(sub) },
	}
	for _, check := range checks {
		if v := check(); !v.Legit {
			return v
		}
	}
	return types.LegitVerdict()
}

// ScoreVsFood enforces score == foodEaten*10, with a small tolerance only at
// very low food counts.
func (c *Chain) ScoreVsFood(sub *types.Submission) types.Verdict {
	tol := 0
	if sub.FoodEaten <= lowFoodCutoff {
		tol = lowFoodTolerance
	}
	if diff := sub.Score - sub.FoodEaten*10; diff > tol || diff < -tol {
		return types.CheatVerdict(types.CheatScoreMismatch,
			fmt.Sprintf("score %d does not match foodEaten %d x 10", sub.Score, sub.FoodEaten))
	}
	return types.LegitVerdict()
}

// SpeedFloor rejects games claiming a high speed level in implausibly little
// time.
func (c *Chain) SpeedFloor(sub *types.Submission) types.Verdict {
	if sub.SpeedLevel > speedFloorLevel && float64(sub.DurationSec) < float64(sub.SpeedLevel)*speedFloorFactor {
		return types.CheatVerdict(types.CheatSpeedHack,
			fmt.Sprintf("speed level %d unreachable in %ds", sub.SpeedLevel, sub.DurationSec))
	}
	return types.LegitVerdict()
}

// SessionSeed requires a live session whose seed matches the submission.
func (c *Chain) SessionSeed(sub *types.Submission, sess *types.Session) types.Verdict {
	if sess == nil {
		return types.CheatVerdict(types.CheatInvalidSession, "no live game session for player")
	}
	if sess.Seed != sub.Seed {
		return types.CheatVerdict(types.CheatInvalidSession,
			fmt.Sprintf("seed mismatch: session issued %d, client sent %d", sess.Seed, sub.Seed))
	}
	return types.LegitVerdict()
}

// MissingMoves rejects scoring games with an empty move log.
func (c *Chain) MissingMoves(sub *types.Submission) types.Verdict {
	if sub.Score > 0 && len(sub.Moves) == 0 {
		return types.CheatVerdict(types.CheatMissingMoves,
			fmt.Sprintf("score %d with no recorded moves", sub.Score))
	}
	return types.LegitVerdict()
}

// PauseAbuse scans consecutive moves for suspicious idle gaps.
func (c *Chain) PauseAbuse(sub *types.Submission) types.Verdict {
	gaps := 0
	var worst int64
	for i := 1; i < len(sub.Moves); i++ {
		gap := sub.Moves[i].TimeMS - sub.Moves[i-1].TimeMS
		if gap > c.pauseGapMS {
			gaps++
			if gap > worst {
				worst = gap
			}
		}
	}
	if gaps >= c.pauseGapLimit {
		return types.CheatVerdict(types.CheatPauseAbuse,
			fmt.Sprintf("%d suspicious gap(s), longest %.1fs", gaps, float64(worst)/1000))
	}
	return types.LegitVerdict()
}

// Bot flags high-scoring games with machine-like move efficiency.
func (c *Chain) Bot(sub *types.Submission) types.Verdict {
	if sub.Score <= c.botMinScore {
		return types.LegitVerdict()
	}
	food := sub.FoodEaten
	if food < 1 {
		food = 1
	}
	ratio := float64(len(sub.Moves)) / float64(food)
	if ratio > c.botMovesPerFood {
		return types.CheatVerdict(types.CheatBotUsage,
			fmt.Sprintf("moves per food %.2f exceeds %.2f at score %d", ratio, c.botMovesPerFood, sub.Score))
	}
	return types.LegitVerdict()
}

// Heartbeat cross-checks the heartbeat log against frame timing. It abstains
// below the score gate or with fewer than two heartbeats.
func (c *Chain) Heartbeat(sub *types.Submission) types.Verdict {
	if sub.Score < heartbeatMinScore || len(sub.Heartbeats) < 2 {
		return types.LegitVerdict()
	}

	for i := 1; i < len(sub.Heartbeats); i++ {
		prev, cur := sub.Heartbeats[i-1], sub.Heartbeats[i]

		frameDelta := float64(cur.Frame - prev.Frame)
		if frameDelta <= 0 {
			continue
		}
		avgSpeed := float64(prev.SpeedMS+cur.SpeedMS) / 2
		expected := frameDelta * avgSpeed
		observed := float64(cur.TimeMS - prev.TimeMS)
		band := math.Max(heartbeatMinFloorMS, expected*c.heartbeatTolerance)
		if math.Abs(observed-expected) > band {
			return types.CheatVerdict(types.CheatTimingManipulation,
				fmt.Sprintf("heartbeat %d: observed %.0fms vs expected %.0fms over %d frames", i, observed, expected, int(frameDelta)))
		}

		if div := math.Abs(float64(cur.TimeMS - cur.PerfMS)); div > wallPerfDivergenceMS {
			return types.CheatVerdict(types.CheatTimingManipulation,
				fmt.Sprintf("heartbeat %d: wall/monotonic clocks diverge by %.0fms", i, div))
		}
	}

	first, last := sub.Heartbeats[0], sub.Heartbeats[len(sub.Heartbeats)-1]
	if frames := last.Frame - first.Frame; frames > 0 {
		msPerFrame := float64(last.TimeMS-first.TimeMS) / float64(frames)
		if msPerFrame < minGlobalMSPerFrame || msPerFrame > maxGlobalMSPerFrame {
			return types.CheatVerdict(types.CheatTimingManipulation,
				fmt.Sprintf("global pace %.1fms/frame outside [%.0f, %.0f]", msPerFrame, minGlobalMSPerFrame, maxGlobalMSPerFrame))
		}
	}

	return types.LegitVerdict()
}
