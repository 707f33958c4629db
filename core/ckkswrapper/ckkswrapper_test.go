package ckkswrapper

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeContextRoundTrip(t *testing.T) {
	h, err := NewHeContext()
	require.NoError(t, err)

	vals := []float64{3.1415926535, -0.5, 0, 42}
	ct, err := h.EncryptVector(vals)
	require.NoError(t, err)
	assert.Equal(t, h.Params.MaxLevel(), ct.Level())

	got, err := h.DecryptVector(ct, len(vals))
	require.NoError(t, err)
	for i := range vals {
		assert.InDelta(t, vals[i], got[i], 1e-6, "slot %d", i)
	}

	diff, err := h.Divergence(ct, vals)
	require.NoError(t, err)
	assert.Less(t, diff, 1e-6)
}

func TestHeContextRejectsOversizedVectors(t *testing.T) {
	h, err := NewHeContext()
	require.NoError(t, err)

	_, err = h.EncryptVector(make([]float64, h.Params.MaxSlots()+1))
	assert.Error(t, err)
}

func TestServerKitRotations(t *testing.T) {
	h, err := NewHeContext()
	require.NoError(t, err)

	vals := []float64{1, 2, 3, 4, 5}
	kit := h.GenServerKit(InnerSumRotations(len(vals)))

	ct, err := h.EncryptVector(vals)
	require.NoError(t, err)
	for _, k := range InnerSumRotations(len(vals)) {
		rotated, err := kit.Evaluator.RotateNew(ct, k)
		require.NoError(t, err)
		require.NoError(t, kit.Evaluator.Add(ct, rotated, ct))
	}

	got, err := h.DecryptVector(ct, 1)
	require.NoError(t, err)
	if math.Abs(got[0]-15) > 1e-5 {
		t.Fatalf("inner sum = %f, want 15", got[0])
	}
}

func TestInnerSumRotations(t *testing.T) {
	assert.Empty(t, InnerSumRotations(1))
	assert.Equal(t, []int{1}, InnerSumRotations(2))
	assert.Equal(t, []int{1, 2}, InnerSumRotations(3))
	assert.Equal(t, []int{1, 2, 4}, InnerSumRotations(8))
	assert.Equal(t, []int{1, 2, 4, 8}, InnerSumRotations(9))
}
