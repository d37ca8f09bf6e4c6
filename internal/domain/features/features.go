// Package features turns a submission into the fixed 12-element behavioral
// feature vector consumed by the shadow model, plus the optional time-series
// tensor for the hybrid variant.
//
// Every feature resolves to 0 on missing or degenerate input; no NaN ever
// leaves this package.
package features

import (
	"math"

	"github.com/SuperSonnix71/Xnake/internal/domain/types"
)

const (
	// expectedHeartbeatMS is the nominal heartbeat interval.
	expectedHeartbeatMS = 1000.0
	// consistencyScaleMS normalizes heartbeat jitter into [0,1].
	consistencyScaleMS = 500.0
	// pauseGapMS is the heartbeat gap counted as a pause.
	pauseGapMS = 2000.0
	// burstMS is the move delta counted as a burst.
	burstMS = 100.0
	// epsilon guards divisions by a zero duration.
	epsilon = 1e-9
)

// Extract computes the 12 features in their fixed order.
func Extract(sub *types.Submission) types.FeatureVector {
	var v types.FeatureVector

	moveDeltas := moveTimeDeltas(sub.Moves)
	food := math.Max(float64(sub.FoodEaten), 1)

	v[0] = mean(moveDeltas)
	v[1] = variance(moveDeltas)
	v[2] = float64(len(sub.Moves)) / food
	v[3] = directionEntropy(sub.Moves)
	v[4] = heartbeatConsistency(sub.Heartbeats)
	v[5] = float64(sub.Score) / math.Max(float64(sub.DurationSec), epsilon)
	v[6] = frameTimingDeviation(sub.Moves)
	v[7] = pauseGapCount(sub.Heartbeats)
	v[8] = speedProgression(sub.Heartbeats)
	v[9] = burstRate(moveDeltas)
	v[10] = performanceDrift(sub.Heartbeats)
	v[11] = meanHeartbeatSpeed(sub.Heartbeats) / food

	for i := range v {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			v[i] = 0
		}
	}
	return v
}

// Normalize z-scores v in place using the supplied per-feature stats.
// A non-positive std zeroes the feature rather than dividing by it.
func Normalize(v types.FeatureVector, means, stds [types.FeatureCount]float64) types.FeatureVector {
	var out types.FeatureVector
	for i := range v {
		if stds[i] <= 0 {
			out[i] = 0
			continue
		}
		out[i] = (v[i] - means[i]) / stds[i]
	}
	return out
}

// Stats computes per-feature mean and population std over a sample set.
func Stats(samples []types.FeatureVector) (means, stds [types.FeatureCount]float64) {
	if len(samples) == 0 {
		return means, stds
	}
	n := float64(len(samples))
	for _, s := range samples {
		for i, x := range s {
			means[i] += x
		}
	}
	for i := range means {
		means[i] /= n
	}
	for _, s := range samples {
		for i, x := range s {
			d := x - means[i]
			stds[i] += d * d
		}
	}
	for i := range stds {
		stds[i] = math.Sqrt(stds[i] / n)
	}
	return means, stds
}

// SeriesLen is the fixed number of steps in the time-series tensor.
const SeriesLen = 50

// Series builds the SeriesLen x 3 tensor from the first SeriesLen moves,
// one row per move: the direction scaled into [0,1], the time delta to the
// previous move in seconds, and the absolute frame in thousands. Short logs
// are right-padded with zero rows. The tensor is stored with training
// samples for the offline hybrid model.
func Series(moves []types.Move) [][]float64 {
	out := make([][]float64, SeriesLen)
	for i := range out {
		out[i] = make([]float64, 3)
	}

	n := len(moves)
	if n > SeriesLen {
		n = SeriesLen
	}
	for i := 0; i < n; i++ {
		var dt int64
		if i > 0 {
			dt = moves[i].TimeMS - moves[i-1].TimeMS
		}
		out[i][0] = float64(moves[i].Direction) / 3
		out[i][1] = float64(dt) / 1000
		out[i][2] = float64(moves[i].Frame) / 1000
	}
	return out
}

func moveTimeDeltas(moves []types.Move) []float64 {
	if len(moves) < 2 {
		return nil
	}
	deltas := make([]float64, 0, len(moves)-1)
	for i := 1; i < len(moves); i++ {
		deltas = append(deltas, float64(moves[i].TimeMS-moves[i-1].TimeMS))
	}
	return deltas
}

func directionEntropy(moves []types.Move) float64 {
	if len(moves) == 0 {
		return 0
	}
	var counts [4]float64
	for _, m := range moves {
		if m.Direction.IsValid() {
			counts[m.Direction]++
		}
	}
	total := float64(len(moves))
	entropy := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := c / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}

func heartbeatConsistency(beats []types.Heartbeat) float64 {
	if len(beats) < 2 {
		return 0
	}
	devs := make([]float64, 0, len(beats)-1)
	for i := 1; i < len(beats); i++ {
		interval := float64(beats[i].TimeMS - beats[i-1].TimeMS)
		devs = append(devs, math.Abs(interval-expectedHeartbeatMS))
	}
	return 1 - math.Min(1, stdev(devs)/consistencyScaleMS)
}

func frameTimingDeviation(moves []types.Move) float64 {
	if len(moves) < 2 {
		return 0
	}
	rates := make([]float64, 0, len(moves)-1)
	for i := 1; i < len(moves); i++ {
		df := float64(moves[i].Frame - moves[i-1].Frame)
		if df <= 0 {
			continue
		}
		rates = append(rates, float64(moves[i].TimeMS-moves[i-1].TimeMS)/df)
	}
	return stdev(rates)
}

func pauseGapCount(beats []types.Heartbeat) float64 {
	count := 0.0
	for i := 1; i < len(beats); i++ {
		if float64(beats[i].TimeMS-beats[i-1].TimeMS) > pauseGapMS {
			count++
		}
	}
	return count
}

func speedProgression(beats []types.Heartbeat) float64 {
	sum := 0.0
	for i := 1; i < len(beats); i++ {
		if d := beats[i-1].SpeedMS - beats[i].SpeedMS; d > 0 {
			sum += float64(d)
		}
	}
	return sum
}

func burstRate(deltas []float64) float64 {
	if len(deltas) == 0 {
		return 0
	}
	bursts := 0.0
	for _, d := range deltas {
		if d < burstMS {
			bursts++
		}
	}
	return bursts / float64(len(deltas))
}

func performanceDrift(beats []types.Heartbeat) float64 {
	if len(beats) == 0 {
		return 0
	}
	sum := 0.0
	for _, hb := range beats {
		sum += math.Abs(float64(hb.TimeMS - hb.PerfMS))
	}
	return sum / float64(len(beats))
}

func meanHeartbeatSpeed(beats []types.Heartbeat) float64 {
	if len(beats) == 0 {
		return 0
	}
	sum := 0.0
	for _, hb := range beats {
		sum += float64(hb.SpeedMS)
	}
	return sum / float64(len(beats))
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// variance is the population variance.
func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return sum / float64(len(xs))
}

func stdev(xs []float64) float64 {
	return math.Sqrt(variance(xs))
}
