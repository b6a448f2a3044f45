package learner

import (
	"fmt"
	"math"
	"math/rand"

	"stockout-service/internal/feature"
)

// LogisticLearner trains an L2-regularized logistic regression by seeded
// SGD. It is the in-tree default implementation of the Learner boundary;
// anything that can score sparse rows can replace it.
type LogisticLearner struct {
	Epochs       int
	LearningRate float64
	L2           float64
	Seed         int64
}

// NewLogisticLearner returns a learner with the default hyperparameters.
func NewLogisticLearner(seed int64) *LogisticLearner {
	return &LogisticLearner{
		Epochs:       40,
		LearningRate: 0.1,
		L2:           1e-4,
		Seed:         seed,
	}
}

type logisticParams struct {
	Bias    float64   `json:"bias"`
	Weights []float64 `json:"weights"`
}

// LogisticModel is a fitted logistic regression over the sparse feature
// space.
type LogisticModel struct {
	params logisticParams
}

// Fit implements Learner. Training is deterministic for a fixed seed: the
// row visit order is reshuffled per epoch from a single seeded source.
func (l *LogisticLearner) Fit(x *feature.Sparse, y []int) (Model, error) {
	if x.Rows() != len(y) {
		return nil, fmt.Errorf("matrix has %d rows but %d labels", x.Rows(), len(y))
	}
	if x.Rows() == 0 {
		return nil, fmt.Errorf("cannot fit on an empty matrix")
	}

	params := logisticParams{Weights: make([]float64, x.Cols())}
	rng := rand.New(rand.NewSource(l.Seed))
	order := make([]int, x.Rows())
	for i := range order {
		order[i] = i
	}

	lr := l.LearningRate
	for epoch := 0; epoch < l.Epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		for _, i := range order {
			idx, vals := x.Row(i)
			pred := sigmoid(dot(params, idx, vals))
			grad := pred - float64(y[i])

			params.Bias -= lr * grad
			for k, col := range idx {
				params.Weights[col] -= lr * (grad*vals[k] + l.L2*params.Weights[col])
			}
		}
		lr *= 0.99
	}

	return &LogisticModel{params: params}, nil
}

// PredictProba implements Model.
func (m *LogisticModel) PredictProba(x *feature.Sparse) []float64 {
	probs := make([]float64, x.Rows())
	for i := range probs {
		idx, vals := x.Row(i)
		probs[i] = sigmoid(dot(m.params, idx, vals))
	}
	return probs
}

// Encode implements Model.
func (m *LogisticModel) Encode() ([]byte, error) {
	return encodeModel(typeLogistic, m.params)
}

func dot(p logisticParams, idx []int, vals []float64) float64 {
	z := p.Bias
	for k, col := range idx {
		if col < len(p.Weights) {
			z += p.Weights[col] * vals[k]
		}
	}
	return z
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
