package model

import (
	"math"
	"math/rand"
)

// Deterministic training: the split and any shuffling derive from a fixed
// seed so a retrain over identical data reproduces the same model.
const trainSeed = 42

const (
	learningRate = 0.5
	epochs       = 300
	l2Penalty    = 1e-4
)

// logistic is a binary logistic-regression classifier over sparse
// vectors, fitted with full-batch gradient descent and class-balanced
// sample weights (positives are the minority class in this domain).
type logistic struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func dot(w []float64, x sparseVec) float64 {
	var s float64
	for i, v := range x {
		s += w[i] * v
	}
	return s
}

// balancedWeights mirrors class_weight="balanced": n / (2 * n_class).
func balancedWeights(labels []bool) (posW, negW float64) {
	var pos, neg float64
	for _, y := range labels {
		if y {
			pos++
		} else {
			neg++
		}
	}
	n := pos + neg
	if pos > 0 {
		posW = n / (2 * pos)
	}
	if neg > 0 {
		negW = n / (2 * neg)
	}
	return posW, negW
}

func fitLogistic(xs []sparseVec, ys []bool, dim int) *logistic {
	m := &logistic{Weights: make([]float64, dim)}
	if len(xs) == 0 || dim == 0 {
		return m
	}

	posW, negW := balancedWeights(ys)
	n := float64(len(xs))

	for epoch := 0; epoch < epochs; epoch++ {
		grad := make(map[int]float64)
		var gradBias float64

		for i, x := range xs {
			p := sigmoid(dot(m.Weights, x) + m.Bias)
			target := 0.0
			w := negW
			if ys[i] {
				target = 1.0
				w = posW
			}
			err := w * (p - target)
			for j, v := range x {
				grad[j] += err * v
			}
			gradBias += err
		}

		for j, g := range grad {
			m.Weights[j] -= learningRate * (g/n + l2Penalty*m.Weights[j])
		}
		m.Bias -= learningRate * gradBias / n
	}

	return m
}

// prob returns P(positive | x).
func (m *logistic) prob(x sparseVec) float64 {
	return sigmoid(dot(m.Weights, x) + m.Bias)
}

// stratifiedSplit returns train/test index sets with testFrac of each
// label class held out, shuffled deterministically. A class too small to
// spare an example stays entirely in the training split.
func stratifiedSplit(labels []bool, testFrac float64, seed int64) (train, test []int) {
	rng := rand.New(rand.NewSource(seed))

	var pos, neg []int
	for i, y := range labels {
		if y {
			pos = append(pos, i)
		} else {
			neg = append(neg, i)
		}
	}

	for _, group := range [][]int{neg, pos} {
		rng.Shuffle(len(group), func(a, b int) { group[a], group[b] = group[b], group[a] })
		k := int(math.Round(float64(len(group)) * testFrac))
		if k >= len(group) {
			k = len(group) - 1
		}
		if k < 1 && len(group) >= 3 {
			k = 1
		}
		if k < 0 {
			k = 0
		}
		test = append(test, group[:k]...)
		train = append(train, group[k:]...)
	}
	return train, test
}
