// Package learner defines the opaque classifier boundary: something that
// consumes a feature matrix and label vector and yields per-row
// probability scores. The training algorithm behind it is interchangeable.
package learner

import (
	"encoding/json"
	"fmt"

	"stockout-service/internal/feature"
)

// Model scores feature rows.
type Model interface {
	// PredictProba returns one probability in [0, 1] per matrix row.
	PredictProba(x *feature.Sparse) []float64
	// Encode serializes the model for the artifact store.
	Encode() ([]byte, error)
}

// Learner fits a Model to a labeled feature matrix.
type Learner interface {
	Fit(x *feature.Sparse, y []int) (Model, error)
}

// envelope wraps serialized models with their type for decoding.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

const typeLogistic = "logistic"

func encodeModel(modelType string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal model payload: %w", err)
	}
	return json.Marshal(envelope{Type: modelType, Payload: raw})
}

// Decode reconstructs a serialized model.
func Decode(data []byte) (Model, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model envelope: %w", err)
	}

	switch env.Type {
	case typeLogistic:
		var params logisticParams
		if err := json.Unmarshal(env.Payload, &params); err != nil {
			return nil, fmt.Errorf("failed to unmarshal logistic model: %w", err)
		}
		return &LogisticModel{params: params}, nil
	default:
		return nil, fmt.Errorf("unknown model type: %s", env.Type)
	}
}
