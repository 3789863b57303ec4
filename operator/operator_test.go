package operator

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/notargets/golfa/basis"
	"github.com/notargets/golfa/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDiffusion1D(t *testing.T, opts ...GalleryOption) *Operator {
	mesh, err := NewMesh1D(1)
	require.NoError(t, err)
	op, err := NewGalleryOperator("diffusion", 3, 4, mesh, opts...)
	require.NoError(t, err)
	return op
}

func assertMatrix(t *testing.T, expected [][]float64, A utils.Matrix, tol float64) {
	nr, nc := A.Dims()
	require.Equal(t, len(expected), nr)
	for i, row := range expected {
		require.Equal(t, len(row), nc)
		for j, val := range row {
			assert.InDeltaf(t, val, A.At(i, j), tol, "entry (%d,%d)", i, j)
		}
	}
}

func TestDiffusionElementMatrix(t *testing.T) {
	op := newDiffusion1D(t)
	assertMatrix(t, [][]float64{
		{7. / 3, -8. / 3, 1. / 3},
		{-8. / 3, 16. / 3, -8. / 3},
		{1. / 3, -8. / 3, 7. / 3},
	}, op.ElementMatrix(), 1e-12)
	assert.True(t, op.ElementMatrix().IsReadOnly())
	assert.InDeltaSlice(t, []float64{14. / 3, 16. / 3}, op.Diagonal().DataCopy(), 1e-12)
	assert.InDeltaSlice(t, []float64{2, 1, 2}, op.Multiplicity().DataCopy(), 1e-14)
}

func TestDiffusionSymbols(t *testing.T) {
	op := newDiffusion1D(t)
	{ // At θ = π the two modes decouple
		S, err := op.ComputeSymbols([]float64{math.Pi})
		require.NoError(t, err)
		assert.InDelta(t, 4, real(S.At(0, 0)), 1e-12)
		assert.InDelta(t, 16./3, real(S.At(1, 1)), 1e-12)
		assert.InDelta(t, 0, cmplx.Abs(S.At(0, 1)), 1e-12)
		assert.InDelta(t, 0, cmplx.Abs(S.At(1, 0)), 1e-12)
	}
	{
		S, err := op.ComputeSymbols([]float64{math.Pi / 2})
		require.NoError(t, err)
		assert.InDelta(t, 14./3, real(S.At(0, 0)), 1e-12)
		assert.InDelta(t, -8*math.Sqrt2/3, real(S.At(0, 1)), 1e-12)
		assert.InDelta(t, 0, imag(S.At(0, 1)), 1e-12)
	}
	{ // Hermitian at any frequency in 2D
		mesh, err := NewMesh2D(1, 2)
		require.NoError(t, err)
		op2, err := NewGalleryOperator("diffusion", 4, 5, mesh)
		require.NoError(t, err)
		S, err := op2.ComputeSymbols([]float64{0.3, -1.7})
		require.NoError(t, err)
		n, _ := S.Dims()
		assert.Equal(t, 9, n)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				assert.InDelta(t, 0, cmplx.Abs(S.At(i, j)-cmplx.Conj(S.At(j, i))), 1e-12)
			}
		}
		min, err := S.MinRealEigenvalue()
		require.NoError(t, err)
		assert.True(t, min > 0)
	}
	{ // Singular at θ = 0, the constant mode is in the kernel
		S, err := op.ComputeSymbols([]float64{0})
		require.NoError(t, err)
		_, err = S.Inverse()
		assert.True(t, errors.Is(err, utils.ErrSingular))
	}
}

func TestMassSymbols(t *testing.T) {
	mesh, err := NewMesh2D(2, 0.5)
	require.NoError(t, err)
	op, err := NewGalleryOperator("mass", 3, 4, mesh)
	require.NoError(t, err)
	S, err := op.ComputeSymbols([]float64{0, 0})
	require.NoError(t, err)
	var sum complex128
	for _, val := range S.Data() {
		sum += val
	}
	// Constants integrate to the element area
	assert.InDelta(t, 1, real(sum), 1e-12)
	assert.InDelta(t, 0, imag(sum), 1e-12)

	mult := op.Multiplicity().DataCopy()
	assert.InDeltaSlice(t, []float64{4, 2, 4, 2, 1, 2, 4, 2, 4}, mult, 1e-14)
}

func TestOperatorComponentsAndMacro(t *testing.T) {
	{ // Two components are two decoupled copies
		op := newDiffusion1D(t, WithComponents(2))
		S, err := op.ComputeSymbols([]float64{math.Pi})
		require.NoError(t, err)
		n, _ := S.Dims()
		require.Equal(t, 4, n)
		expected := []float64{4, 16. / 3, 4, 16. / 3}
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if i == j {
					assert.InDelta(t, expected[i], real(S.At(i, j)), 1e-12)
				} else {
					assert.InDelta(t, 0, cmplx.Abs(S.At(i, j)), 1e-12)
				}
			}
		}
	}
	{ // Two linear sub-elements of length 1/2
		mesh, err := NewMesh1D(1)
		require.NoError(t, err)
		op, err := NewGalleryOperator("diffusion", 2, 2, mesh, WithFineElements(2))
		require.NoError(t, err)
		assertMatrix(t, [][]float64{
			{2, -2, 0},
			{-2, 4, -2},
			{0, -2, 2},
		}, op.ElementMatrix(), 1e-12)
		assert.InDeltaSlice(t, []float64{-0.5, 0, 0.5}, op.InputCoordinates().Col(0).DataCopy(), 1e-14)
	}
}

func TestCoordinates(t *testing.T) {
	mesh, err := NewMesh1D(2)
	require.NoError(t, err)
	op, err := NewGalleryOperator("mass", 3, 3, mesh)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-1, 0, 1}, op.OutputCoordinates().Col(0).DataCopy(), 1e-14)
	assert.Equal(t, []float64{2}, Lengths(op.InputCoordinates()))
	delta := op.NodeCoordinateDifferences()
	ni, nj, nk := delta.Dims()
	assert.Equal(t, []int{3, 3, 1}, []int{ni, nj, nk})
	assert.InDelta(t, 1, delta.At(0, 2, 0), 1e-14)
	assert.InDelta(t, -0.5, delta.At(1, 0, 0), 1e-14)
	assert.True(t, delta.IsReadOnly())
}

func TestOperatorErrors(t *testing.T) {
	var err error
	_, err = NewMesh2D(1, -1)
	assert.True(t, errors.Is(err, ErrInvalidMesh))

	mesh, err := NewMesh1D(1)
	require.NoError(t, err)
	_, err = NewGalleryOperator("advection", 3, 3, mesh)
	assert.True(t, errors.Is(err, ErrUnknownGalleryOperator))
	_, err = NewGalleryOperator("mass", 1, 3, mesh)
	assert.True(t, errors.Is(err, basis.ErrInvalidBasis))

	b, err := basis.NewTensorH1LagrangeBasis(3, 3, 1, 1)
	require.NoError(t, err)
	_, err = NewOperatorField(b, []EvaluationMode{Interpolation, QuadratureWeights})
	assert.True(t, errors.Is(err, ErrQuadratureWeightsMode))
	_, err = NewOperatorField(b, nil)
	assert.True(t, errors.Is(err, ErrInvalidField))

	u, err := NewOperatorField(b, []EvaluationMode{Interpolation})
	require.NoError(t, err)
	w, err := NewOperatorField(b, []EvaluationMode{QuadratureWeights})
	require.NoError(t, err)
	identity := func(in [][]float64) [][]float64 { return [][]float64{in[0]} }
	_, err = NewOperator(identity, mesh, []*OperatorField{u}, []*OperatorField{w})
	assert.True(t, errors.Is(err, ErrQuadratureWeightsMode))
	_, err = NewOperator(identity, mesh, []*OperatorField{w}, []*OperatorField{u})
	assert.True(t, errors.Is(err, ErrInvalidField))
	_, err = NewOperator(identity, mesh, nil, []*OperatorField{u})
	assert.True(t, errors.Is(err, ErrInvalidField))
	tooMany := func(in [][]float64) [][]float64 { return [][]float64{in[0], in[0]} }
	_, err = NewOperator(tooMany, mesh, []*OperatorField{u}, []*OperatorField{u})
	assert.True(t, errors.Is(err, ErrInvalidWeakForm))

	mesh2D, err := NewMesh2D(1, 1)
	require.NoError(t, err)
	_, err = NewOperator(identity, mesh2D, []*OperatorField{u}, []*OperatorField{u})
	assert.True(t, errors.Is(err, ErrDimension))

	op, err := NewOperator(identity, mesh, []*OperatorField{u}, []*OperatorField{u})
	require.NoError(t, err)
	_, err = op.ComputeSymbols([]float64{1, 2})
	assert.True(t, errors.Is(err, ErrDimension))
	_, err = op.ComputeSymbols([]float64{math.NaN()})
	assert.True(t, errors.Is(err, ErrDimension))
}
