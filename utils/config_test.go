package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArchitecture(t *testing.T) {
	for _, in := range []string{"2 3 1", "2,3,1", " 2, 3 ,1 "} {
		arch, err := ParseArchitecture(in)
		require.NoError(t, err, in)
		assert.Equal(t, []int{2, 3, 1}, arch, in)
	}

	_, err := ParseArchitecture("2 x 1")
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	valid := Config{
		Architecture: []int{2, 3, 1},
		LearningRate: 0.5,
		Epochs:       3000,
		Activation:   "sigmoid",
	}
	require.NoError(t, ValidateConfig(&valid))

	cases := map[string]func(c *Config){
		"one layer":     func(c *Config) { c.Architecture = []int{2} },
		"zero width":    func(c *Config) { c.Architecture = []int{2, 0, 1} },
		"zero rate":     func(c *Config) { c.LearningRate = 0 },
		"negative rate": func(c *Config) { c.LearningRate = -0.1 },
		"epochs":        func(c *Config) { c.Epochs = -1 },
	}
	for name, mutate := range cases {
		c := valid
		c.Architecture = append([]int(nil), valid.Architecture...)
		mutate(&c)
		assert.Error(t, ValidateConfig(&c), name)
	}
}

func TestValidateConfigLeavesActivationToLookup(t *testing.T) {
	c := Config{
		Architecture: []int{2, 1},
		LearningRate: 0.1,
		Activation:   "softplus",
	}
	assert.NoError(t, ValidateConfig(&c))
}
