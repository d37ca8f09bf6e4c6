// Package model implements the dense classifier behind the shadow detector:
// a 12-32-16-1 network with ReLU hidden layers, a sigmoid output, and Adam
// training on binary cross-entropy. Everything is seeded, so a training run
// over the same samples reproduces the same weights.
package model

import (
	"math"
	"math/rand"

	"github.com/SuperSonnix71/Xnake/internal/domain/types"
)

// Layer widths.
const (
	InputSize   = types.FeatureCount
	Hidden1Size = 32
	Hidden2Size = 16
)

// Network holds the learned parameters. The JSON form is the on-disk model
// format; field shapes are rows x cols with rows indexing the output units.
type Network struct {
	W1 [][]float64 `json:"w1"` // Hidden1Size x InputSize
	B1 []float64   `json:"b1"`
	W2 [][]float64 `json:"w2"` // Hidden2Size x Hidden1Size
	B2 []float64   `json:"b2"`
	W3 [][]float64 `json:"w3"` // 1 x Hidden2Size
	B3 []float64   `json:"b3"`
}

// NewNetwork creates a network with He-initialized weights from the seed.
func NewNetwork(seed int64) *Network {
	rng := rand.New(rand.NewSource(seed))
	return &Network{
		W1: heInit(rng, Hidden1Size, InputSize),
		B1: make([]float64, Hidden1Size),
		W2: heInit(rng, Hidden2Size, Hidden1Size),
		B2: make([]float64, Hidden2Size),
		W3: heInit(rng, 1, Hidden2Size),
		B3: make([]float64, 1),
	}
}

func heInit(rng *rand.Rand, rows, cols int) [][]float64 {
	scale := math.Sqrt(2 / float64(cols))
	w := make([][]float64, rows)
	for i := range w {
		w[i] = make([]float64, cols)
		for j := range w[i] {
			w[i][j] = rng.NormFloat64() * scale
		}
	}
	return w
}

// Predict runs inference on a normalized feature vector and returns the
// cheat probability in (0,1). Dropout is inactive outside training.
func (n *Network) Predict(x types.FeatureVector) float64 {
	h1 := make([]float64, Hidden1Size)
	for i := range h1 {
		s := n.B1[i]
		for j := 0; j < InputSize; j++ {
			s += n.W1[i][j] * x[j]
		}
		h1[i] = relu(s)
	}

	h2 := make([]float64, Hidden2Size)
	for i := range h2 {
		s := n.B2[i]
		for j := 0; j < Hidden1Size; j++ {
			s += n.W2[i][j] * h1[j]
		}
		h2[i] = relu(s)
	}

	s := n.B3[0]
	for j := 0; j < Hidden2Size; j++ {
		s += n.W3[0][j] * h2[j]
	}
	return sigmoid(s)
}

func relu(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
