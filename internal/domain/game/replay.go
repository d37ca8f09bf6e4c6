package game

import (
	"fmt"
	"math"

	"github.com/SuperSonnix71/Xnake/internal/domain/types"
)

// Frame-log capping: a diverging replay keeps the opening frames, the most
// recent frames and every food event so an operator can see where it went
// wrong without shipping megabytes.
const (
	logHeadFrames = 5
	logTailFrames = 5
	extraFrames   = 10 // grace frames past the client's reported total
)

// Score tolerance applies only to near-empty games where the client may have
// raced the final food against game over.
const (
	lowFoodCutoff    = 2
	lowFoodTolerance = 20
)

// Result is the outcome of a replay verification. It is a pure value:
// replaying the same submission always yields the same Result.
type Result struct {
	Verdict     types.Verdict
	Score       int
	FoodEaten   int
	DurationSec int
	Frames      int
	DeathCause  string
	FrameLog    []string
}

// Replay re-executes the full game from (seed, moves) and verifies the
// submitted score, food count and duration to frame-level precision.
func Replay(sub *types.Submission, rules Rules) Result {
	sim := NewSimulator(sub.Seed, rules)

	var (
		head []string
		tail []string
		food []string
	)
	note := func(s string) {
		if len(head) < logHeadFrames {
			head = append(head, s)
			return
		}
		tail = append(tail, s)
		if len(tail) > logTailFrames {
			tail = tail[1:]
		}
	}

	maxFrames := sub.TotalFrames + extraFrames
	if maxFrames > rules.MaxFrames {
		maxFrames = rules.MaxFrames
	}

	moveIdx := 0
	lastFood := 0
	for frame := 1; frame <= maxFrames; frame++ {
		var turn *types.Direction
		// Consume every move stamped at or before this frame; only an exact
		// frame match steers, stale entries are dropped.
		for moveIdx < len(sub.Moves) && sub.Moves[moveIdx].Frame <= frame {
			if sub.Moves[moveIdx].Frame == frame {
				d := sub.Moves[moveIdx].Direction
				turn = &d
			}
			moveIdx++
		}

		alive := sim.Step(turn)
		note(fmt.Sprintf("frame %d: head=%v dir=%d score=%d", frame, sim.Head(), sim.Direction(), sim.Score()))
		if sim.FoodEaten() > lastFood {
			lastFood = sim.FoodEaten()
			food = append(food, fmt.Sprintf("frame %d: food %d eaten at %v, speed now %dms", frame, lastFood, sim.Head(), sim.SpeedMS()))
		}
		if !alive {
			note(fmt.Sprintf("frame %d: died (%s)", frame, sim.DeathCause()))
			break
		}
	}

	frameLog := make([]string, 0, len(head)+len(food)+len(tail))
	frameLog = append(frameLog, head...)
	frameLog = append(frameLog, food...)
	frameLog = append(frameLog, tail...)

	res := Result{
		Score:       sim.Score(),
		FoodEaten:   sim.FoodEaten(),
		DurationSec: int(sim.ClockMS() / 1000),
		Frames:      sim.Frame(),
		DeathCause:  sim.DeathCause(),
		FrameLog:    frameLog,
	}
	res.Verdict = verify(sub, res)
	return res
}

// verify checks the three replay invariants: score, food count, duration.
func verify(sub *types.Submission, res Result) types.Verdict {
	scoreTol := 0
	if sub.FoodEaten <= lowFoodCutoff {
		scoreTol = lowFoodTolerance
	}
	if abs(res.Score-sub.Score) > scoreTol {
		return types.CheatVerdict(types.CheatReplayFail,
			fmt.Sprintf("Score mismatch: replay calculated %d, client sent %d", res.Score, sub.Score))
	}

	if res.FoodEaten != sub.FoodEaten {
		return types.CheatVerdict(types.CheatReplayFail,
			fmt.Sprintf("Food mismatch: replay calculated %d, client sent %d", res.FoodEaten, sub.FoodEaten))
	}

	durTol := math.Max(10, float64(sub.DurationSec)*0.20)
	if math.Abs(float64(res.DurationSec-sub.DurationSec)) > durTol {
		return types.CheatVerdict(types.CheatReplayFail,
			fmt.Sprintf("Duration mismatch: replay calculated %ds, client sent %ds", res.DurationSec, sub.DurationSec))
	}

	return types.LegitVerdict()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
