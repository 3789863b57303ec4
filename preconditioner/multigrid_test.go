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

// newPMultigrid builds a two level p-multigrid on diffusion with Jacobi
// smoothing, from coarseNodes1D to fineNodes1D per direction
func newPMultigrid(t *testing.T, dimension, coarseNodes1D, fineNodes1D, numberQuadraturePoints1D int) *Multigrid {
	var (
		fine   = newDiffusion(t, dimension, fineNodes1D, numberQuadraturePoints1D)
		coarse = newDiffusion(t, dimension, coarseNodes1D, numberQuadraturePoints1D)
	)
	smoother, err := NewJacobi(fine)
	require.NoError(t, err)
	pb, err := basis.NewTensorH1LagrangePProlongationBasis(coarseNodes1D, fineNodes1D, 1, dimension)
	require.NoError(t, err)
	mg, err := NewPMultigrid(fine, Direct(coarse), smoother, []*basis.TensorBasis{pb})
	require.NoError(t, err)
	return mg
}

func TestPMultigridReference(t *testing.T) {
	expected := []float64{0.64, 0.9082562365654528, 1.4359882222222669}
	for d := 1; d <= 3; d++ {
		mg := newPMultigrid(t, d, 3, 5, 5)
		M, err := mg.ComputeSymbols([]float64{1}, []int{1, 1}, constantTheta(d, math.Pi))
		require.NoError(t, err)
		lambda, err := M.MaxRealEigenvalue()
		require.NoError(t, err)
		assert.InDeltaf(t, expected[d-1], lambda, 1e-10, "dimension %d", d)
	}
}

func TestHMultigrid(t *testing.T) {
	var (
		fine   = newDiffusion(t, 1, 2, 2, operator.WithFineElements(2))
		coarse = newDiffusion(t, 1, 2, 2)
	)
	smoother, err := NewJacobi(fine)
	require.NoError(t, err)
	hb, err := basis.NewTensorH1LagrangeHProlongationBasis(2, 1, 1, 2)
	require.NoError(t, err)
	mg, err := NewHMultigrid(fine, Direct(coarse), smoother, []*basis.TensorBasis{hb})
	require.NoError(t, err)
	assert.Equal(t, HCoarsening, mg.Coarsening())
	// Two-grid linear elements with ω = 2/3 and one pre and post sweep
	for _, th := range []float64{math.Pi, math.Pi / 3, 2} {
		M, err := mg.ComputeSymbols([]float64{2. / 3}, []int{1, 1}, []float64{th})
		require.NoError(t, err)
		rho, err := M.SpectralRadius()
		require.NoError(t, err)
		assert.InDeltaf(t, 1./9, rho, 1e-12, "θ = %v", th)
	}
}

func rowSums(mg *Multigrid) (sums []float64) {
	P := mg.ProlongationMatrix()
	nr, _ := P.Dims()
	sums = make([]float64, nr)
	P.DoNonZero(func(i, j int, v float64) {
		sums[i] += v
	})
	return
}

func TestProlongationMatrix(t *testing.T) {
	{
		mg := newPMultigrid(t, 1, 3, 5, 5)
		assert.InDeltaSlice(t, []float64{0.5, 1, 1, 1, 0.5}, rowSums(mg), 1e-12)
		nf, nc := mg.ProlongationMatrix().Dims()
		assert.Equal(t, []int{5, 3}, []int{nf, nc})
	}
	{ // Element vertices are shared by four elements, edges by two
		mg := newPMultigrid(t, 2, 2, 3, 3)
		assert.InDeltaSlice(t,
			[]float64{0.25, 0.5, 0.25, 0.5, 1, 0.5, 0.25, 0.5, 0.25},
			rowSums(mg), 1e-12)
		mult := mg.FineOperator().Multiplicity()
		sums := rowSums(mg)
		for i := range sums {
			assert.InDelta(t, 1/mult.AtVec(i), sums[i], 1e-12)
		}
	}
	{ // At θ = 0 the prolongation symbol is the mode mapped matrix
		mg := newPMultigrid(t, 2, 3, 4, 4)
		S, err := mg.ComputeSymbolsProlongation([]float64{0, 0})
		require.NoError(t, err)
		expected := mg.FineOperator().RowModeMap().Mul(mg.ProlongationMatrix()).
			Mul(mg.CoarseLevel().ColumnModeMap())
		assert.True(t, S.EqualApprox(utils.NewCMatrixFromReal(expected), 1e-12))
	}
	{
		mg := newPMultigrid(t, 2, 2, 3, 3)
		delta := mg.NodeCoordinateDifferences()
		ni, nj, nk := delta.Dims()
		assert.Equal(t, []int{9, 4, 2}, []int{ni, nj, nk})
		// Coarse vertex (1,1) seen from the fine center node (0,0)
		assert.InDelta(t, 0.5, delta.At(4, 3, 0), 1e-14)
		assert.InDelta(t, 0.5, delta.At(4, 3, 1), 1e-14)
	}
}

func TestMultigridComposition(t *testing.T) {
	var (
		theta = []float64{math.Pi / 3, -2}
		p     = []float64{0.8}
	)
	{ // Without smoothing only the coarse grid correction is left
		mg := newPMultigrid(t, 2, 3, 5, 5)
		M, err := mg.ComputeSymbols(p, []int{0, 0}, theta)
		require.NoError(t, err)
		Af, err := mg.FineOperator().ComputeSymbols(theta)
		require.NoError(t, err)
		Ac, err := mg.CoarseLevel().Operator().ComputeSymbols(theta)
		require.NoError(t, err)
		AcInv, err := Ac.Inverse()
		require.NoError(t, err)
		P, err := mg.ComputeSymbolsProlongation(theta)
		require.NoError(t, err)
		R, err := mg.ComputeSymbolsRestriction(theta)
		require.NoError(t, err)
		n, _ := Af.Dims()
		expected := utils.NewCIdentity(n).Subtract(P.Mul(AcInv).Mul(R).Mul(Af))
		assert.True(t, M.EqualApprox(expected, 1e-12))
	}
	{ // Three levels equal the two step composition
		var (
			fine   = newDiffusion(t, 2, 5, 5)
			middle = newDiffusion(t, 2, 3, 5)
			coarse = newDiffusion(t, 2, 2, 5)
			v      = []int{1, 2}
		)
		middleSmoother, err := NewJacobi(middle)
		require.NoError(t, err)
		pb1, err := basis.NewTensorH1LagrangePProlongationBasis(2, 3, 1, 2)
		require.NoError(t, err)
		lower, err := NewPMultigrid(middle, Direct(coarse), middleSmoother, []*basis.TensorBasis{pb1})
		require.NoError(t, err)

		fineSmoother, err := NewJacobi(fine)
		require.NoError(t, err)
		pb2, err := basis.NewTensorH1LagrangePProlongationBasis(3, 5, 1, 2)
		require.NoError(t, err)
		upper, err := NewPMultigrid(fine, Nested(lower), fineSmoother, []*basis.TensorBasis{pb2})
		require.NoError(t, err)
		assert.True(t, upper.CoarseLevel().IsNested())
		assert.True(t, upper.CoarseLevel().Operator() == middle)

		M, err := upper.ComputeSymbols(p, v, theta)
		require.NoError(t, err)

		Af, err := fine.ComputeSymbols(theta)
		require.NoError(t, err)
		S, err := fineSmoother.ComputeSymbols(p, theta)
		require.NoError(t, err)
		Mlower, err := lower.ComputeSymbols(p, v, theta)
		require.NoError(t, err)
		Am, err := middle.ComputeSymbols(theta)
		require.NoError(t, err)
		AmInv, err := Am.Inverse()
		require.NoError(t, err)
		P, err := upper.ComputeSymbolsProlongation(theta)
		require.NoError(t, err)
		R, err := upper.ComputeSymbolsRestriction(theta)
		require.NoError(t, err)
		nm, _ := Mlower.Dims()
		nf, _ := Af.Dims()
		AcInv := utils.NewCIdentity(nm).Subtract(Mlower).Mul(AmInv)
		correction := utils.NewCIdentity(nf).Subtract(P.Mul(AcInv).Mul(R).Mul(Af))
		expected := S.Pow(v[1]).Mul(correction).Mul(S.Pow(v[0]))
		assert.True(t, M.EqualApprox(expected, 1e-10))

		// An inexact coarse solve changes the result
		direct, err := NewPMultigrid(fine, Direct(middle), fineSmoother, []*basis.TensorBasis{pb2})
		require.NoError(t, err)
		Mdirect, err := direct.ComputeSymbols(p, v, theta)
		require.NoError(t, err)
		assert.False(t, M.EqualApprox(Mdirect, 1e-6))
	}
}

func TestMultigridErrors(t *testing.T) {
	var (
		fine   = newDiffusion(t, 2, 5, 5)
		coarse = newDiffusion(t, 2, 3, 5)
		other  = newDiffusion(t, 2, 5, 5)
	)
	smoother, err := NewJacobi(fine)
	require.NoError(t, err)
	pb, err := basis.NewTensorH1LagrangePProlongationBasis(3, 5, 1, 2)
	require.NoError(t, err)
	bases := []*basis.TensorBasis{pb}

	_, err = NewPMultigrid(nil, Direct(coarse), smoother, bases)
	assert.True(t, errors.Is(err, ErrNilOperator))

	otherSmoother, err := NewJacobi(other)
	require.NoError(t, err)
	_, err = NewPMultigrid(fine, Direct(coarse), otherSmoother, bases)
	assert.True(t, errors.Is(err, ErrSmootherOperatorMismatch))
	_, err = NewPMultigrid(fine, Direct(coarse), nil, bases)
	assert.True(t, errors.Is(err, ErrSmootherOperatorMismatch))

	_, err = NewPMultigrid(fine, CoarseLevel{}, smoother, bases)
	assert.True(t, errors.Is(err, ErrUnsupportedCoarseOperator))

	_, err = NewPMultigrid(fine, Direct(coarse), smoother, []*basis.TensorBasis{pb, pb})
	assert.True(t, errors.Is(err, ErrFieldCountMismatch))
	_, err = NewPMultigrid(fine, Direct(coarse), smoother, nil)
	assert.True(t, errors.Is(err, ErrFieldCountMismatch))

	pb1D, err := basis.NewTensorH1LagrangePProlongationBasis(3, 5, 1, 1)
	require.NoError(t, err)
	_, err = NewPMultigrid(fine, Direct(coarse), smoother, []*basis.TensorBasis{pb1D})
	assert.True(t, errors.Is(err, ErrDimension))

	hb, err := basis.NewTensorH1LagrangeHProlongationBasis(3, 1, 2, 2)
	require.NoError(t, err)
	_, err = NewPMultigrid(fine, Direct(coarse), smoother, []*basis.TensorBasis{hb})
	assert.True(t, errors.Is(err, ErrProlongationBasis))
	_, err = NewHMultigrid(fine, Direct(coarse), smoother, bases)
	assert.True(t, errors.Is(err, ErrProlongationBasis))

	pbWrong, err := basis.NewTensorH1LagrangePProlongationBasis(2, 5, 1, 2)
	require.NoError(t, err)
	_, err = NewPMultigrid(fine, Direct(coarse), smoother, []*basis.TensorBasis{pbWrong})
	assert.True(t, errors.Is(err, ErrProlongationBasis))

	mg, err := NewPMultigrid(fine, Direct(coarse), smoother, bases)
	require.NoError(t, err)
	theta := []float64{1, 1}
	for _, v := range [][]int{nil, {1}, {1, 1, 1}, {-1, 1}} {
		_, err = mg.ComputeSymbols([]float64{1}, v, theta)
		assert.True(t, errors.Is(err, ErrInvalidSmoothCounts))
	}
	_, err = mg.ComputeSymbols([]float64{1}, []int{1, 1}, []float64{1})
	assert.True(t, errors.Is(err, ErrDimension))
	_, err = mg.ComputeSymbolsProlongation([]float64{1, 1, 1})
	assert.True(t, errors.Is(err, ErrDimension))
	_, err = mg.ComputeSymbolsRestriction(nil)
	assert.True(t, errors.Is(err, ErrDimension))
	_, err = mg.ComputeSymbols(nil, []int{1, 1}, theta)
	assert.True(t, errors.Is(err, ErrInvalidParameters))
	// The coarse diffusion symbol is singular at θ = 0
	_, err = mg.ComputeSymbols([]float64{1}, []int{1, 1}, []float64{0, 0})
	assert.True(t, errors.Is(err, utils.ErrSingular))
}
