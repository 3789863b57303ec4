package preconditioner

import (
	"fmt"
	"math/cmplx"

	"github.com/james-bowman/sparse"
	"github.com/notargets/golfa/basis"
	"github.com/notargets/golfa/operator"
	"github.com/notargets/golfa/utils"
	"gonum.org/v1/gonum/floats"
)

type Coarsening uint8

const (
	PCoarsening Coarsening = iota // Lower polynomial degree on the same element
	HCoarsening                   // Same degree on a coarser mesh
)

func (c Coarsening) String() string {
	switch c {
	case PCoarsening:
		return "p-multigrid"
	case HCoarsening:
		return "h-multigrid"
	}
	return "unknown"
}

// Multigrid is a two level cycle: pre-smoothing, coarse grid correction
// through prolongation and restriction, post-smoothing. The coarse level may
// itself be a multigrid, giving a cycle of any depth.
type Multigrid struct {
	coarsening                Coarsening
	fineOperator              *operator.Operator
	coarseLevel               CoarseLevel
	smoother                  Smoother
	prolongationBases         []*basis.TensorBasis
	prolongationMatrix        utils.Memo[*sparse.CSR]
	nodeCoordinateDifferences utils.Memo[utils.Tensor3]
}

// NewPMultigrid coarsens by polynomial degree, one PProlongation basis per
// output field of the fine operator
func NewPMultigrid(fine *operator.Operator, coarse CoarseLevel, smoother Smoother,
	prolongationBases []*basis.TensorBasis) (mg *Multigrid, err error) {
	return newMultigrid(PCoarsening, fine, coarse, smoother, prolongationBases)
}

// NewHMultigrid coarsens by element size, one HProlongation basis per output
// field of the fine operator
func NewHMultigrid(fine *operator.Operator, coarse CoarseLevel, smoother Smoother,
	prolongationBases []*basis.TensorBasis) (mg *Multigrid, err error) {
	return newMultigrid(HCoarsening, fine, coarse, smoother, prolongationBases)
}

func newMultigrid(coarsening Coarsening, fine *operator.Operator, coarse CoarseLevel, smoother Smoother,
	prolongationBases []*basis.TensorBasis) (mg *Multigrid, err error) {
	if fine == nil {
		err = fmt.Errorf("%w: fine operator", ErrNilOperator)
		return
	}
	if smoother == nil || smoother.Operator() != fine {
		err = ErrSmootherOperatorMismatch
		return
	}
	if err = coarse.validate(); err != nil {
		return
	}
	var (
		fineOutputs   = fine.Outputs()
		coarseOutputs = coarse.Outputs()
		basisType     = basis.PProlongation
	)
	if coarsening == HCoarsening {
		basisType = basis.HProlongation
	}
	if len(prolongationBases) != len(fineOutputs) || len(prolongationBases) != len(coarseOutputs) {
		err = fmt.Errorf("%w: %d prolongation bases, %d fine and %d coarse output fields",
			ErrFieldCountMismatch, len(prolongationBases), len(fineOutputs), len(coarseOutputs))
		return
	}
	if coarse.Dimension() != fine.Dimension() {
		err = fmt.Errorf("%w: coarse dimension %d, fine dimension %d", ErrDimension, coarse.Dimension(), fine.Dimension())
		return
	}
	for i, b := range prolongationBases {
		switch {
		case b == nil:
			err = fmt.Errorf("%w: basis %d is nil", ErrProlongationBasis, i)
		case b.Dimension() != fine.Dimension():
			err = fmt.Errorf("%w: prolongation basis %d has dimension %d, fine operator has %d",
				ErrDimension, i, b.Dimension(), fine.Dimension())
		case b.Type() != basisType:
			err = fmt.Errorf("%w: %v needs %v bases, basis %d is %v",
				ErrProlongationBasis, coarsening, basisType, i, b.Type())
		case b.NumberComponents()*b.NumberQuadraturePoints() != fineOutputs[i].NumberNodes():
			err = fmt.Errorf("%w: basis %d prolongates to %d nodes, fine field has %d", ErrProlongationBasis,
				i, b.NumberComponents()*b.NumberQuadraturePoints(), fineOutputs[i].NumberNodes())
		case b.NumberComponents()*b.NumberNodes() != coarseOutputs[i].NumberNodes():
			err = fmt.Errorf("%w: basis %d prolongates from %d nodes, coarse field has %d", ErrProlongationBasis,
				i, b.NumberComponents()*b.NumberNodes(), coarseOutputs[i].NumberNodes())
		}
		if err != nil {
			return
		}
	}
	mg = &Multigrid{
		coarsening:        coarsening,
		fineOperator:      fine,
		coarseLevel:       coarse,
		smoother:          smoother,
		prolongationBases: append([]*basis.TensorBasis(nil), prolongationBases...),
	}
	return
}

func (mg *Multigrid) Coarsening() Coarsening           { return mg.coarsening }
func (mg *Multigrid) FineOperator() *operator.Operator { return mg.fineOperator }
func (mg *Multigrid) CoarseLevel() CoarseLevel         { return mg.coarseLevel }
func (mg *Multigrid) Smoother() Smoother               { return mg.smoother }
func (mg *Multigrid) Dimension() int                   { return mg.fineOperator.Dimension() }

func (mg *Multigrid) ProlongationBases() []*basis.TensorBasis {
	return append([]*basis.TensorBasis(nil), mg.prolongationBases...)
}

// ProlongationMatrix places the interpolation of every field and component
// on the block diagonal and scales row i by 1/multiplicity_i of the fine
// operator, so nodes shared through periodicity are not counted twice. The
// returned matrix is shared and must not be modified.
func (mg *Multigrid) ProlongationMatrix() *sparse.CSR {
	return mg.prolongationMatrix.Get(func() *sparse.CSR {
		var nf, nc int
		for _, b := range mg.prolongationBases {
			nf += b.NumberComponents() * b.NumberQuadraturePoints()
			nc += b.NumberComponents() * b.NumberNodes()
		}
		blocks := utils.NewDOK(nf, nc)
		var i0, j0 int
		for _, b := range mg.prolongationBases {
			for c := 0; c < b.NumberComponents(); c++ {
				blocks.SetBlock(i0, j0, b.Interpolation())
				i0 += b.NumberQuadraturePoints()
				j0 += b.NumberNodes()
			}
		}
		blocks.SetReadOnly("prolongationBlocks")
		invMultiplicity := mg.fineOperator.Multiplicity().Copy().Reciprocal()
		P := sparse.NewCSR(nf, nc, nil, nil, nil)
		P.Mul(sparse.NewDIA(nf, nf, invMultiplicity.DataCopy()), blocks.ToCSR())
		return P
	})
}

// NodeCoordinateDifferences holds (coarse_j - fine_i)/length in direction k
// at [i, j, k], lengths taken from the coarse input coordinates
func (mg *Multigrid) NodeCoordinateDifferences() utils.Tensor3 {
	return mg.nodeCoordinateDifferences.Get(func() (T utils.Tensor3) {
		coarse := mg.coarseLevel.InputCoordinates()
		T = operator.CoordinateDifferences(mg.fineOperator.OutputCoordinates(), coarse, operator.Lengths(coarse))
		T.SetReadOnly("nodeCoordinateDifferences")
		return
	})
}

func (mg *Multigrid) checkTheta(theta []float64) (err error) {
	return checkTheta(mg.fineOperator, theta)
}

// phasedProlongation returns P ∘ e^{sign·iθ·Δ}
func (mg *Multigrid) phasedProlongation(theta []float64, sign float64) (Pθ utils.CMatrix) {
	var (
		P     = mg.ProlongationMatrix()
		delta = mg.NodeCoordinateDifferences()
	)
	Pθ = utils.NewCMatrix(P.Dims())
	P.DoNonZero(func(i, j int, val float64) {
		phase := floats.Dot(theta, delta.Fiber(i, j))
		Pθ.Set(i, j, complex(val, 0)*cmplx.Exp(complex(0, sign*phase)))
	})
	return
}

// ComputeSymbolsProlongation maps coarse modes to fine modes,
// fineRowModeMap · (P ∘ e^{iθ·Δ}) · coarseColumnModeMap
func (mg *Multigrid) ComputeSymbolsProlongation(theta []float64) (S utils.CMatrix, err error) {
	if err = mg.checkTheta(theta); err != nil {
		return
	}
	S = utils.NewCMatrixFromReal(mg.fineOperator.RowModeMap()).
		Mul(mg.phasedProlongation(theta, 1)).
		MulReal(mg.coarseLevel.ColumnModeMap())
	return
}

// ComputeSymbolsRestriction maps fine modes to coarse modes,
// coarseRowModeMap · (P ∘ e^{-iθ·Δ})ᵀ · fineColumnModeMap
func (mg *Multigrid) ComputeSymbolsRestriction(theta []float64) (S utils.CMatrix, err error) {
	if err = mg.checkTheta(theta); err != nil {
		return
	}
	S = utils.NewCMatrixFromReal(mg.coarseLevel.RowModeMap()).
		Mul(mg.phasedProlongation(theta, -1).Transpose()).
		MulReal(mg.fineOperator.ColumnModeMap())
	return
}

// ComputeSymbols returns the error propagation symbol of the cycle,
// S^v[1] · (I - P · A_c⁻¹ · R · A_f) · S^v[0], with parameters passed to the
// smoother of this and every nested level
func (mg *Multigrid) ComputeSymbols(parameters []float64, v []int, theta []float64) (M utils.CMatrix, err error) {
	if len(v) != 2 || v[0] < 0 || v[1] < 0 {
		err = fmt.Errorf("%w: have %v", ErrInvalidSmoothCounts, v)
		return
	}
	if err = mg.checkTheta(theta); err != nil {
		return
	}
	var (
		Af, S, AcInv, P, R utils.CMatrix
	)
	if Af, err = mg.fineOperator.ComputeSymbols(theta); err != nil {
		return
	}
	if S, err = mg.smoother.ComputeSymbols(parameters, theta); err != nil {
		return
	}
	if AcInv, err = mg.coarseLevel.inverseSymbols(parameters, v, theta); err != nil {
		return
	}
	if P, err = mg.ComputeSymbolsProlongation(theta); err != nil {
		return
	}
	if R, err = mg.ComputeSymbolsRestriction(theta); err != nil {
		return
	}
	n, _ := Af.Dims()
	correction := utils.NewCIdentity(n).Subtract(P.Mul(AcInv).Mul(R).Mul(Af))
	M = S.Pow(v[1]).Mul(correction).Mul(S.Pow(v[0]))
	return
}
