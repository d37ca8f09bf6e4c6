package train

import (
	"math/rand"
	"time"

	"github.com/SuperSonnix71/Xnake/internal/domain/features"
	"github.com/SuperSonnix71/Xnake/internal/domain/game"
	"github.com/SuperSonnix71/Xnake/internal/domain/types"
	"github.com/SuperSonnix71/Xnake/internal/gametest"
)

// Synthetic archetypes used to bootstrap training before enough real
// verdicts exist. Each generator plays a full game with the pilot and then
// perturbs the move/heartbeat logs so the extracted features land in that
// archetype's region: cheats compress the clock, move like a metronome,
// insert pauses, or drift the monotonic clock, while the skill tiers keep
// honest timing with decreasing human jitter. Everything derives from the
// caller's rng, so a bootstrap run is reproducible.
type archetype struct {
	kind  types.CheatKind // empty for the skill tiers
	cheat bool
	gen   func(rng *rand.Rand) *types.Submission
}

var syntheticRules = game.DefaultRules()

// pilotGame plays one clean game from an rng-drawn seed.
func pilotGame(rng *rand.Rand, food int) *types.Submission {
	return gametest.Play("synthetic", rng.Uint32(), food, syntheticRules)
}

// humanize adds gaussian timing noise to the logs, keeping both clocks
// monotonic and the heartbeat wall/perf clocks agreeing.
func humanize(sub *types.Submission, rng *rand.Rand, sdMS float64) {
	var last int64
	for i := range sub.Moves {
		t := sub.Moves[i].TimeMS + int64(rng.NormFloat64()*sdMS)
		if t < last {
			t = last
		}
		sub.Moves[i].TimeMS = t
		last = t
	}
	last = 0
	for i := range sub.Heartbeats {
		t := sub.Heartbeats[i].TimeMS + int64(rng.NormFloat64()*sdMS)
		if t < last {
			t = last
		}
		sub.Heartbeats[i].TimeMS = t
		sub.Heartbeats[i].PerfMS = t
		last = t
	}
}

// compressClock scales every timestamp by factor: a speed hack runs the game
// loop faster than the wall clock allows.
func compressClock(sub *types.Submission, factor float64) {
	for i := range sub.Moves {
		sub.Moves[i].TimeMS = int64(float64(sub.Moves[i].TimeMS) * factor)
	}
	for i := range sub.Heartbeats {
		t := int64(float64(sub.Heartbeats[i].TimeMS) * factor)
		sub.Heartbeats[i].TimeMS = t
		sub.Heartbeats[i].PerfMS = t
	}
	sub.DurationSec = int(float64(sub.DurationSec) * factor)
}

// metronome rewrites the logs onto a perfectly even cadence. No human input
// has zero timing variance.
func metronome(sub *types.Submission, periodMS int64) {
	for i := range sub.Moves {
		sub.Moves[i].TimeMS = int64(i+1) * periodMS
	}
	for i := range sub.Heartbeats {
		t := int64(i+1) * 1000
		sub.Heartbeats[i].TimeMS = t
		sub.Heartbeats[i].PerfMS = t
	}
}

// insertGap shifts everything after afterMS by gapMS, an idle pause in the
// middle of the game.
func insertGap(sub *types.Submission, afterMS, gapMS int64) {
	for i := range sub.Moves {
		if sub.Moves[i].TimeMS > afterMS {
			sub.Moves[i].TimeMS += gapMS
		}
	}
	for i := range sub.Heartbeats {
		if sub.Heartbeats[i].TimeMS > afterMS {
			sub.Heartbeats[i].TimeMS += gapMS
			sub.Heartbeats[i].PerfMS += gapMS
		}
	}
	sub.DurationSec += int(gapMS / 1000)
}

// skewPerf drifts the monotonic clock away from the wall clock, growing to
// maxDriftMS by the last heartbeat.
func skewPerf(sub *types.Submission, maxDriftMS int64) {
	n := int64(len(sub.Heartbeats))
	if n == 0 {
		return
	}
	for i := range sub.Heartbeats {
		sub.Heartbeats[i].PerfMS = sub.Heartbeats[i].TimeMS + maxDriftMS*int64(i+1)/n
	}
}

var archetypes = []archetype{
	{kind: types.CheatSpeedHack, cheat: true, gen: func(rng *rand.Rand) *types.Submission {
		sub := pilotGame(rng, 4+rng.Intn(5))
		humanize(sub, rng, 30)
		compressClock(sub, 0.3+rng.Float64()*0.2)
		return sub
	}},
	{kind: types.CheatBotUsage, cheat: true, gen: func(rng *rand.Rand) *types.Submission {
		sub := pilotGame(rng, 6+rng.Intn(6))
		metronome(sub, 140+rng.Int63n(20))
		return sub
	}},
	{kind: types.CheatPauseAbuse, cheat: true, gen: func(rng *rand.Rand) *types.Submission {
		sub := pilotGame(rng, 2+rng.Intn(4))
		humanize(sub, rng, 60)
		pauses := 3 + rng.Intn(3)
		if n := len(sub.Heartbeats) - 1; pauses > n {
			pauses = n
		}
		if pauses > 0 {
			// Each pause lands in a distinct heartbeat interval.
			for _, c := range rng.Perm(len(sub.Heartbeats) - 1)[:pauses] {
				insertGap(sub, sub.Heartbeats[c].TimeMS, 3000+rng.Int63n(5000))
			}
		}
		return sub
	}},
	{kind: types.CheatTimingManipulation, cheat: true, gen: func(rng *rand.Rand) *types.Submission {
		sub := pilotGame(rng, 3+rng.Intn(5))
		humanize(sub, rng, 50)
		skewPerf(sub, 4000+rng.Int63n(5000))
		return sub
	}},
	// Beginner: short games, sloppy timing.
	{cheat: false, gen: func(rng *rand.Rand) *types.Submission {
		sub := pilotGame(rng, 1+rng.Intn(3))
		humanize(sub, rng, 100)
		return sub
	}},
	// Intermediate.
	{cheat: false, gen: func(rng *rand.Rand) *types.Submission {
		sub := pilotGame(rng, 3+rng.Intn(4))
		humanize(sub, rng, 55)
		return sub
	}},
	// Expert: long games, tight but still human timing.
	{cheat: false, gen: func(rng *rand.Rand) *types.Submission {
		sub := pilotGame(rng, 6+rng.Intn(4))
		humanize(sub, rng, 25)
		return sub
	}},
}

// SyntheticSamples generates n labeled samples by rotating through the
// archetypes, alternating cheat and legit so the bootstrap set stays
// balanced. Each sample carries the features and the series tensor extracted
// from its generated game. The same seed yields the same samples.
func SyntheticSamples(n int, seed int64) []types.TrainingSample {
	rng := rand.New(rand.NewSource(seed))

	var cheats, legits []archetype
	for _, a := range archetypes {
		if a.cheat {
			cheats = append(cheats, a)
		} else {
			legits = append(legits, a)
		}
	}

	out := make([]types.TrainingSample, 0, n)
	for i := 0; i < n; i++ {
		var a archetype
		if i%2 == 0 {
			a = cheats[(i/2)%len(cheats)]
		} else {
			a = legits[(i/2)%len(legits)]
		}
		sub := a.gen(rng)
		out = append(out, types.TrainingSample{
			PlayerID:  "synthetic",
			Cheat:     a.cheat,
			Kind:      a.kind,
			Features:  features.Extract(sub),
			Series:    features.Series(sub.Moves),
			Synthetic: true,
			Timestamp: time.Unix(0, 0).UTC(),
		})
	}
	return out
}
