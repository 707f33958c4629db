package utils

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// ModelWeights is the on-disk record of a network's learned parameters: one
// row-major matrix per layer transition for each field.
type ModelWeights struct {
	Weights [][][]float64 `json:"weights"`
	Biases  [][][]float64 `json:"biases"`
}

// SaveWeights saves model weights to a JSON file
func SaveWeights(filepath string, weights *ModelWeights) error {
	data, err := json.Marshal(weights)
	if err != nil {
		return errors.Wrap(err, "failed to marshal weights")
	}
	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write weights file")
	}
	return nil
}

// LoadWeights loads model weights from a JSON file
func LoadWeights(filepath string) (*ModelWeights, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read weights file")
	}
	var weights ModelWeights
	if err := json.Unmarshal(data, &weights); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal weights")
	}
	return &weights, nil
}
