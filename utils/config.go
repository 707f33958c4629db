package utils

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Config holds training configuration. Activation names are resolved by
// m.ActivatorFor and are not checked by ValidateConfig.
type Config struct {
	Architecture []int
	LearningRate float64
	Epochs       int
	Activation   string
	Seed         uint64
	Output       string
}

// ParseArchitecture parses architecture string into slice of integers.
// Sizes may be separated by spaces or commas: "2 3 1" and "2,3,1" are equivalent.
func ParseArchitecture(archStr string) ([]int, error) {
	archParts := strings.FieldsFunc(archStr, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	arch := make([]int, len(archParts))
	for i, s := range archParts {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing layer %d", i)
		}
		arch[i] = n
	}
	return arch, nil
}

// ValidateConfig validates training configuration
func ValidateConfig(config *Config) error {
	if len(config.Architecture) < 2 {
		return errors.New("architecture must have at least 2 layers (input and output)")
	}

	for i, n := range config.Architecture {
		if n <= 0 {
			return errors.Errorf("layer %d must have a positive size, got %d", i, n)
		}
	}

	if config.LearningRate <= 0 || math.IsNaN(config.LearningRate) || math.IsInf(config.LearningRate, 0) {
		return errors.New("learning rate must be positive")
	}

	if config.Epochs < 0 {
		return errors.New("epochs must not be negative")
	}

	return nil
}
