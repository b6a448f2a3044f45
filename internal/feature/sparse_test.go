package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDenseSkipsZeros(t *testing.T) {
	m := FromDense([][]float64{
		{1, 0, 3},
		{0, 0, 0},
		{0, 5, 0},
	}, 3)

	assert.Equal(t, 3, m.Rows())
	assert.Equal(t, 3, m.Cols())
	assert.Equal(t, 3, m.NNZ())

	assert.Equal(t, 1.0, m.At(0, 0))
	assert.Equal(t, 0.0, m.At(0, 1))
	assert.Equal(t, 3.0, m.At(0, 2))
	assert.Equal(t, 5.0, m.At(2, 1))
}

func TestHStack(t *testing.T) {
	left := FromDense([][]float64{{1, 2}, {3, 4}}, 2)
	right := FromDense([][]float64{{5}, {6}}, 1)

	stacked, err := HStack(left, right)
	require.NoError(t, err)

	assert.Equal(t, 2, stacked.Rows())
	assert.Equal(t, 3, stacked.Cols())
	assert.Equal(t, 2.0, stacked.At(0, 1))
	assert.Equal(t, 5.0, stacked.At(0, 2))
	assert.Equal(t, 6.0, stacked.At(1, 2))
}

func TestHStackRowMismatch(t *testing.T) {
	left := FromDense([][]float64{{1}}, 1)
	right := FromDense([][]float64{{1}, {2}}, 1)

	_, err := HStack(left, right)
	assert.Error(t, err)
}

func TestSelectRowsWithRepeats(t *testing.T) {
	m := FromDense([][]float64{{1}, {2}, {3}}, 1)

	sub := m.SelectRows([]int{2, 0, 2})

	assert.Equal(t, 3, sub.Rows())
	assert.Equal(t, 3.0, sub.At(0, 0))
	assert.Equal(t, 1.0, sub.At(1, 0))
	assert.Equal(t, 3.0, sub.At(2, 0))
}
