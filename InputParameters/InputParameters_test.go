package InputParameters

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	fileInput := []byte(`
Title: Two level p-multigrid
Dimension: 2
Operator: diffusion
Levels:
  - NumberNodes1D: 5
    NumberQuadraturePoints1D: 5
  - NumberNodes1D: 3
    NumberQuadraturePoints1D: 5
Smoother: Jacobi
SmootherParameters: [1.0]
PreSmooth: 1
PostSmooth: 1
`)
	var input LFAParameters
	require.NoError(t, input.Parse(fileInput))
	input.Print()
	assert.Equal(t, 2, input.NumberLevels())
	assert.Equal(t, 5, input.Levels[0].NumberNodes1D)
	assert.Equal(t, 1, input.Levels[1].FineElements1D)
	assert.Equal(t, []float64{1, 1}, input.Mesh)
	assert.Equal(t, "P", input.Coarsening)
	assert.Equal(t, "jacobi", input.Smoother)
	assert.Equal(t, []float64{1}, input.SmootherParameters)
	assert.Equal(t, 16, input.Samples)
}

func TestParseErrors(t *testing.T) {
	for _, fileInput := range []string{
		"Dimension: 4\nLevels: [{NumberNodes1D: 3, NumberQuadraturePoints1D: 3}]",
		"Dimension: 1\nMesh: [1, 1]\nLevels: [{NumberNodes1D: 3, NumberQuadraturePoints1D: 3}]",
		"Dimension: 1",
		"Dimension: 1\nCoarsening: Q\nLevels: [{NumberNodes1D: 3, NumberQuadraturePoints1D: 3}]",
		"Dimension: 1\nPreSmooth: -1\nLevels: [{NumberNodes1D: 3, NumberQuadraturePoints1D: 3}]",
		"Dimension: 1\nTheta: [1, 2]\nLevels: [{NumberNodes1D: 3, NumberQuadraturePoints1D: 3}]",
	} {
		var input LFAParameters
		err := input.Parse([]byte(fileInput))
		assert.Truef(t, errors.Is(err, ErrInvalidParameters), "input %q: %v", fileInput, err)
	}
	var input LFAParameters
	assert.Error(t, input.Parse([]byte("Dimension: [")))
}
