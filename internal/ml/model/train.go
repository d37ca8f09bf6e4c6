package model

import (
	"context"
	"math"
	"math/rand"

	"github.com/SuperSonnix71/Xnake/internal/domain/types"
)

// TrainConfig controls one optimization run.
type TrainConfig struct {
	Epochs       int
	BatchSize    int
	LearningRate float64
	Dropout      float64
	Seed         int64
}

// DefaultTrainConfig returns the production training parameters.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Epochs:       50,
		BatchSize:    32,
		LearningRate: 0.001,
		Dropout:      0.3,
		Seed:         42,
	}
}

// Adam optimizer constants.
const (
	adamBeta1 = 0.9
	adamBeta2 = 0.999
	adamEps   = 1e-8
)

// adamState holds first and second moment estimates shaped like the network.
type adamState struct {
	mW1, vW1, mW2, vW2, mW3, vW3 [][]float64
	mB1, vB1, mB2, vB2, mB3, vB3 []float64
	step                         int
}

func newAdamState() *adamState {
	return &adamState{
		mW1: zeros2(Hidden1Size, InputSize), vW1: zeros2(Hidden1Size, InputSize),
		mW2: zeros2(Hidden2Size, Hidden1Size), vW2: zeros2(Hidden2Size, Hidden1Size),
		mW3: zeros2(1, Hidden2Size), vW3: zeros2(1, Hidden2Size),
		mB1: make([]float64, Hidden1Size), vB1: make([]float64, Hidden1Size),
		mB2: make([]float64, Hidden2Size), vB2: make([]float64, Hidden2Size),
		mB3: make([]float64, 1), vB3: make([]float64, 1),
	}
}

func zeros2(rows, cols int) [][]float64 {
	w := make([][]float64, rows)
	for i := range w {
		w[i] = make([]float64, cols)
	}
	return w
}

// grads accumulates one mini-batch of gradients.
type grads struct {
	w1, w2, w3 [][]float64
	b1, b2, b3 []float64
}

func newGrads() *grads {
	return &grads{
		w1: zeros2(Hidden1Size, InputSize),
		w2: zeros2(Hidden2Size, Hidden1Size),
		w3: zeros2(1, Hidden2Size),
		b1: make([]float64, Hidden1Size),
		b2: make([]float64, Hidden2Size),
		b3: make([]float64, 1),
	}
}

// Train fits the network on labeled, normalized feature vectors and returns
// the mean training loss of the last completed epoch. labels are 0 or 1.
// Cancellation is checked between epochs only; a canceled ctx stops the run
// at the next epoch boundary.
func (n *Network) Train(ctx context.Context, inputs []types.FeatureVector, labels []float64, cfg TrainConfig) float64 {
	if len(inputs) == 0 || len(inputs) != len(labels) {
		return 0
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 0.001
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	opt := newAdamState()
	order := make([]int, len(inputs))
	for i := range order {
		order[i] = i
	}

	var lastLoss float64
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		if ctx.Err() != nil {
			break
		}
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		epochLoss := 0.0
		for start := 0; start < len(order); start += cfg.BatchSize {
			end := start + cfg.BatchSize
			if end > len(order) {
				end = len(order)
			}
			batch := order[start:end]

			g := newGrads()
			for _, idx := range batch {
				epochLoss += n.backprop(inputs[idx], labels[idx], cfg.Dropout, rng, g)
			}
			n.applyAdam(opt, g, cfg.LearningRate, len(batch))
		}
		lastLoss = epochLoss / float64(len(order))
	}
	return lastLoss
}

// backprop runs one forward/backward pass with inverted dropout on the
// hidden layers and adds the gradients into g. Returns the sample's BCE loss.
func (n *Network) backprop(x types.FeatureVector, label, dropout float64, rng *rand.Rand, g *grads) float64 {
	keep := 1 - dropout

	z1 := make([]float64, Hidden1Size)
	h1 := make([]float64, Hidden1Size)
	mask1 := make([]float64, Hidden1Size)
	for i := range h1 {
		s := n.B1[i]
		for j := 0; j < InputSize; j++ {
			s += n.W1[i][j] * x[j]
		}
		z1[i] = s
		h1[i] = relu(s)
		mask1[i] = 1
		if dropout > 0 {
			if rng.Float64() < dropout {
				mask1[i] = 0
			} else {
				mask1[i] = 1 / keep
			}
			h1[i] *= mask1[i]
		}
	}

	z2 := make([]float64, Hidden2Size)
	h2 := make([]float64, Hidden2Size)
	mask2 := make([]float64, Hidden2Size)
	for i := range h2 {
		s := n.B2[i]
		for j := 0; j < Hidden1Size; j++ {
			s += n.W2[i][j] * h1[j]
		}
		z2[i] = s
		h2[i] = relu(s)
		mask2[i] = 1
		if dropout > 0 {
			if rng.Float64() < dropout {
				mask2[i] = 0
			} else {
				mask2[i] = 1 / keep
			}
			h2[i] *= mask2[i]
		}
	}

	zOut := n.B3[0]
	for j := 0; j < Hidden2Size; j++ {
		zOut += n.W3[0][j] * h2[j]
	}
	pred := sigmoid(zOut)
	loss := bce(pred, label)

	// Sigmoid plus BCE collapses to a linear output delta.
	dOut := pred - label
	g.b3[0] += dOut
	d2 := make([]float64, Hidden2Size)
	for j := 0; j < Hidden2Size; j++ {
		g.w3[0][j] += dOut * h2[j]
		d2[j] = dOut * n.W3[0][j] * mask2[j]
		if z2[j] <= 0 {
			d2[j] = 0
		}
	}

	d1 := make([]float64, Hidden1Size)
	for i := 0; i < Hidden2Size; i++ {
		g.b2[i] += d2[i]
		for j := 0; j < Hidden1Size; j++ {
			g.w2[i][j] += d2[i] * h1[j]
			d1[j] += d2[i] * n.W2[i][j]
		}
	}
	for j := 0; j < Hidden1Size; j++ {
		d1[j] *= mask1[j]
		if z1[j] <= 0 {
			d1[j] = 0
		}
	}

	for i := 0; i < Hidden1Size; i++ {
		g.b1[i] += d1[i]
		for j := 0; j < InputSize; j++ {
			g.w1[i][j] += d1[i] * x[j]
		}
	}

	return loss
}

func bce(pred, label float64) float64 {
	const eps = 1e-12
	p := math.Min(math.Max(pred, eps), 1-eps)
	return -(label*math.Log(p) + (1-label)*math.Log(1-p))
}

func (n *Network) applyAdam(opt *adamState, g *grads, lr float64, batch int) {
	opt.step++
	scale := 1 / float64(batch)
	c1 := 1 - math.Pow(adamBeta1, float64(opt.step))
	c2 := 1 - math.Pow(adamBeta2, float64(opt.step))

	update2 := func(w, grad, m, v [][]float64) {
		for i := range w {
			for j := range w[i] {
				gij := grad[i][j] * scale
				m[i][j] = adamBeta1*m[i][j] + (1-adamBeta1)*gij
				v[i][j] = adamBeta2*v[i][j] + (1-adamBeta2)*gij*gij
				w[i][j] -= lr * (m[i][j] / c1) / (math.Sqrt(v[i][j]/c2) + adamEps)
			}
		}
	}
	update1 := func(b, grad, m, v []float64) {
		for i := range b {
			gi := grad[i] * scale
			m[i] = adamBeta1*m[i] + (1-adamBeta1)*gi
			v[i] = adamBeta2*v[i] + (1-adamBeta2)*gi*gi
			b[i] -= lr * (m[i] / c1) / (math.Sqrt(v[i]/c2) + adamEps)
		}
	}

	update2(n.W1, g.w1, opt.mW1, opt.vW1)
	update2(n.W2, g.w2, opt.mW2, opt.vW2)
	update2(n.W3, g.w3, opt.mW3, opt.vW3)
	update1(n.B1, g.b1, opt.mB1, opt.vB1)
	update1(n.B2, g.b2, opt.mB2, opt.vB2)
	update1(n.B3, g.b3, opt.mB3, opt.vB3)
}
