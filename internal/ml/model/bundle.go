package model

import (
	"time"

	"github.com/SuperSonnix71/Xnake/internal/domain/features"
	"github.com/SuperSonnix71/Xnake/internal/domain/types"
)

// Bundle packages a trained network with the normalization statistics it was
// trained under. Raw feature vectors must be z-scored with these exact stats
// or the network sees inputs from a different distribution than it learned.
type Bundle struct {
	Version   string                           `json:"version"`
	Net       *Network                         `json:"network"`
	Means     [types.FeatureCount]float64      `json:"means"`
	Stds      [types.FeatureCount]float64      `json:"stds"`
	Metrics   types.ModelMetrics               `json:"metrics"`
	TrainedAt time.Time                        `json:"trained_at"`
}

// Predict normalizes the raw vector with the bundle's stats and runs
// inference, returning the cheat probability.
func (b *Bundle) Predict(raw types.FeatureVector) float64 {
	return b.Net.Predict(features.Normalize(raw, b.Means, b.Stds))
}

// classification threshold for evaluation.
const decisionThreshold = 0.5

// Evaluate scores the network against a labeled validation set.
func Evaluate(n *Network, inputs []types.FeatureVector, labels []float64) types.ModelMetrics {
	var tp, tn, fp, fn float64
	for i, x := range inputs {
		pred := n.Predict(x) >= decisionThreshold
		actual := labels[i] >= decisionThreshold
		switch {
		case pred && actual:
			tp++
		case pred && !actual:
			fp++
		case !pred && actual:
			fn++
		default:
			tn++
		}
	}

	m := types.ModelMetrics{ValSamples: len(inputs)}
	total := tp + tn + fp + fn
	if total > 0 {
		m.Accuracy = (tp + tn) / total
	}
	if tp+fp > 0 {
		m.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		m.Recall = tp / (tp + fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}
