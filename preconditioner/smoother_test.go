package preconditioner

import (
	"errors"
	"math"
	"testing"

	"github.com/notargets/golfa/basis"
	"github.com/notargets/golfa/operator"
	"github.com/notargets/golfa/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDiffusion(t *testing.T, dimension, numberNodes1D, numberQuadraturePoints1D int,
	opts ...operator.GalleryOption) *operator.Operator {
	var (
		mesh operator.Mesh
		err  error
	)
	switch dimension {
	case 1:
		mesh, err = operator.NewMesh1D(1)
	case 2:
		mesh, err = operator.NewMesh2D(1, 1)
	case 3:
		mesh, err = operator.NewMesh3D(1, 1, 1)
	}
	require.NoError(t, err)
	op, err := operator.NewGalleryOperator("diffusion", numberNodes1D, numberQuadraturePoints1D, mesh, opts...)
	require.NoError(t, err)
	return op
}

func constantTheta(dimension int, th float64) (theta []float64) {
	theta = make([]float64, dimension)
	for k := range theta {
		theta[k] = th
	}
	return
}

func TestJacobi(t *testing.T) {
	op := newDiffusion(t, 1, 3, 4)
	s, err := NewJacobi(op)
	require.NoError(t, err)
	assert.True(t, s.Operator() == op)
	assert.InDeltaSlice(t, []float64{3. / 14, 3. / 16}, s.OperatorDiagonalInverse().DataCopy(), 1e-12)
	{
		S, err := s.ComputeSymbols([]float64{1}, []float64{math.Pi})
		require.NoError(t, err)
		lambda, err := S.MaxRealEigenvalue()
		require.NoError(t, err)
		assert.InDelta(t, 1./7, lambda, 1e-12)
	}
	{ // No relaxation at all, including the frequencies where A vanishes
		for _, th := range []float64{0, math.Pi, -math.Pi, 1.3, -2} {
			S, err := s.ComputeSymbols([]float64{0}, []float64{th})
			require.NoError(t, err)
			assert.Truef(t, S.EqualApprox(utils.NewCIdentity(2), 1e-15), "θ = %v", th)
		}
		s2, err := NewJacobi(newDiffusion(t, 2, 3, 3))
		require.NoError(t, err)
		for _, theta := range [][]float64{{0, 0}, {math.Pi, -math.Pi}, {0, 2}} {
			S, err := s2.ComputeSymbols([]float64{0}, theta)
			require.NoError(t, err)
			assert.Truef(t, S.EqualApprox(utils.NewCIdentity(4), 1e-15), "θ = %v", theta)
		}
	}
	{
		_, err := s.ComputeSymbols(nil, []float64{1})
		assert.True(t, errors.Is(err, ErrInvalidParameters))
		_, err = s.ComputeSymbols([]float64{1, 2}, []float64{1})
		assert.True(t, errors.Is(err, ErrInvalidParameters))
		_, err = s.ComputeSymbols([]float64{1}, []float64{1, 1})
		assert.True(t, errors.Is(err, ErrDimension))
	}
	_, err = NewJacobi(nil)
	assert.True(t, errors.Is(err, ErrNilOperator))
}

func TestJacobiZeroDiagonal(t *testing.T) {
	mesh, err := operator.NewMesh1D(1)
	require.NoError(t, err)
	b, err := basis.NewTensorH1LagrangeBasis(3, 3, 1, 1)
	require.NoError(t, err)
	u, err := operator.NewOperatorField(b, []operator.EvaluationMode{operator.Interpolation}, "u")
	require.NoError(t, err)
	v, err := operator.NewOperatorField(b, []operator.EvaluationMode{operator.Interpolation}, "v")
	require.NoError(t, err)
	zero := func(in [][]float64) [][]float64 { return [][]float64{make([]float64, len(in[0]))} }
	op, err := operator.NewOperator(zero, mesh, []*operator.OperatorField{u}, []*operator.OperatorField{v})
	require.NoError(t, err)
	s, err := NewJacobi(op)
	require.NoError(t, err)
	_, err = s.ComputeSymbols([]float64{1}, []float64{1})
	assert.True(t, errors.Is(err, utils.ErrSingular))
	S, err := s.ComputeSymbols([]float64{0}, []float64{1})
	require.NoError(t, err)
	assert.True(t, S.EqualApprox(utils.NewCIdentity(2), 0))
}

func TestIdentity(t *testing.T) {
	op := newDiffusion(t, 2, 3, 3)
	s, err := NewIdentity(op)
	require.NoError(t, err)
	S, err := s.ComputeSymbols(nil, []float64{0.1, 0.2})
	require.NoError(t, err)
	assert.True(t, S.EqualApprox(utils.NewCIdentity(4), 0))
	_, err = s.ComputeSymbols([]float64{1}, []float64{0.1, 0.2})
	assert.True(t, errors.Is(err, ErrInvalidParameters))
}

func TestChebyshev(t *testing.T) {
	op := newDiffusion(t, 1, 3, 4)
	theta := []float64{2.1}
	{ // Degree one is Jacobi weighted by 1/θc
		s, err := NewChebyshev(op, WithEigenvalueBounds(0.5, 2))
		require.NoError(t, err)
		S, err := s.ComputeSymbols([]float64{1}, theta)
		require.NoError(t, err)
		j, err := NewJacobi(op)
		require.NoError(t, err)
		J, err := j.ComputeSymbols([]float64{1 / 1.25}, theta)
		require.NoError(t, err)
		assert.True(t, S.EqualApprox(J, 1e-12))
	}
	{ // Degree two is (2σ²Y² - I)/(2σ² - 1), Y = I - D⁻¹A/θc
		var (
			thetaC = 1.25
			sigma  = thetaC / 0.75
			c2     = 2 * sigma * sigma
		)
		s, err := NewChebyshev(op, WithEigenvalueBounds(0.5, 2))
		require.NoError(t, err)
		S, err := s.ComputeSymbols([]float64{2}, theta)
		require.NoError(t, err)
		j, err := NewJacobi(op)
		require.NoError(t, err)
		Y, err := j.ComputeSymbols([]float64{1 / thetaC}, theta)
		require.NoError(t, err)
		expected := Y.Mul(Y).Scale(complex(c2, 0)).Subtract(utils.NewCIdentity(2)).Scale(complex(1/(c2-1), 0))
		assert.True(t, S.EqualApprox(expected, 1e-12))
	}
	{ // Bounds estimated from the sampled spectrum of D⁻¹A
		s, err := NewChebyshev(op)
		require.NoError(t, err)
		min, max, err := s.EigenvalueBounds()
		require.NoError(t, err)
		assert.InDelta(t, 1.1*2.1165696155424847, max, 1e-9)
		assert.InDelta(t, 0.1*2.1165696155424847, min, 1e-9)
		for _, k := range []float64{1, 2, 3} {
			S, err := s.ComputeSymbols([]float64{k}, []float64{math.Pi})
			require.NoError(t, err)
			rho, err := S.SpectralRadius()
			require.NoError(t, err)
			assert.Truef(t, rho < 1, "degree %v: spectral radius %v", k, rho)
		}
	}
	{
		s, err := NewChebyshev(op)
		require.NoError(t, err)
		for _, p := range [][]float64{nil, {0}, {1.5}, {1, 2}} {
			_, err = s.ComputeSymbols(p, theta)
			assert.True(t, errors.Is(err, ErrInvalidParameters))
		}
		_, err = NewChebyshev(op, WithEigenvalueBounds(2, 1))
		assert.True(t, errors.Is(err, ErrInvalidParameters))
		_, err = NewChebyshev(op, WithLowerFraction(1.5))
		assert.True(t, errors.Is(err, ErrInvalidParameters))
		_, err = NewChebyshev(op, WithUpperScale(0.5))
		assert.True(t, errors.Is(err, ErrInvalidParameters))
		_, err = NewChebyshev(op, WithEigenvalueSamples(0))
		assert.True(t, errors.Is(err, ErrInvalidParameters))
	}
}
