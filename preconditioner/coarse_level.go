package preconditioner

import (
	"fmt"

	"github.com/notargets/golfa/operator"
	"github.com/notargets/golfa/utils"
)

// CoarseLevel is the coarse grid of a multigrid, either an operator solved
// exactly or another multigrid whose fine operator is the coarse operator
type CoarseLevel struct {
	direct *operator.Operator
	nested *Multigrid
}

func Direct(op *operator.Operator) CoarseLevel { return CoarseLevel{direct: op} }
func Nested(mg *Multigrid) CoarseLevel         { return CoarseLevel{nested: mg} }

func (cl CoarseLevel) validate() (err error) {
	if (cl.direct == nil) == (cl.nested == nil) {
		err = fmt.Errorf("%w: exactly one of a direct operator or a nested multigrid is required",
			ErrUnsupportedCoarseOperator)
	}
	return
}

func (cl CoarseLevel) IsNested() bool { return cl.nested != nil }

// Operator is the operator discretized on the coarse level
func (cl CoarseLevel) Operator() *operator.Operator {
	if cl.nested != nil {
		return cl.nested.FineOperator()
	}
	return cl.direct
}

func (cl CoarseLevel) Outputs() []*operator.OperatorField { return cl.Operator().Outputs() }
func (cl CoarseLevel) RowModeMap() utils.Matrix           { return cl.Operator().RowModeMap() }
func (cl CoarseLevel) ColumnModeMap() utils.Matrix        { return cl.Operator().ColumnModeMap() }
func (cl CoarseLevel) InputCoordinates() utils.Matrix     { return cl.Operator().InputCoordinates() }
func (cl CoarseLevel) Dimension() int                     { return cl.Operator().Dimension() }

// inverseSymbols approximates A_c(θ)⁻¹: exact for a direct level, and
// (I - M(θ)) A_c(θ)⁻¹ for a nested multigrid with error propagation M
func (cl CoarseLevel) inverseSymbols(parameters []float64, v []int, theta []float64) (Ainv utils.CMatrix, err error) {
	if err = cl.validate(); err != nil {
		return
	}
	var A utils.CMatrix
	if A, err = cl.Operator().ComputeSymbols(theta); err != nil {
		return
	}
	if Ainv, err = A.Inverse(); err != nil {
		err = fmt.Errorf("coarse operator: %w", err)
		return
	}
	if cl.nested == nil {
		return
	}
	var M utils.CMatrix
	if M, err = cl.nested.ComputeSymbols(parameters, v, theta); err != nil {
		return
	}
	n, _ := M.Dims()
	Ainv = utils.NewCIdentity(n).Subtract(M).Mul(Ainv)
	return
}
