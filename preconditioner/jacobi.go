package preconditioner

import (
	"fmt"

	"github.com/notargets/golfa/operator"
	"github.com/notargets/golfa/utils"
)

// Jacobi is point Jacobi relaxation weighted by ω
type Jacobi struct {
	op                      *operator.Operator
	operatorDiagonalInverse utils.Memo[utils.Vector]
}

func NewJacobi(op *operator.Operator) (s *Jacobi, err error) {
	if op == nil {
		err = ErrNilOperator
		return
	}
	s = &Jacobi{op: op}
	return
}

func (s *Jacobi) Operator() *operator.Operator { return s.op }

// OperatorDiagonalInverse is the elementwise reciprocal of the operator
// diagonal, infinite where the diagonal vanishes
func (s *Jacobi) OperatorDiagonalInverse() utils.Vector {
	return s.operatorDiagonalInverse.Get(func() utils.Vector {
		return diagonalInverse(s.op)
	})
}

func diagonalInverse(op *operator.Operator) (Dinv utils.Vector) {
	Dinv = op.Diagonal().Copy().Reciprocal()
	Dinv.SetReadOnly("operatorDiagonalInverse")
	return
}

func checkDiagonal(Dinv utils.Vector) (err error) {
	if utils.IsNonFinite(Dinv) {
		err = fmt.Errorf("zero operator diagonal entry: %w", utils.ErrSingular)
	}
	return
}

// ComputeSymbols returns I - ω D⁻¹ A(θ) for parameters = [ω]
func (s *Jacobi) ComputeSymbols(parameters, theta []float64) (S utils.CMatrix, err error) {
	if len(parameters) != 1 {
		err = fmt.Errorf("%w: Jacobi takes one weight, have %v", ErrInvalidParameters, parameters)
		return
	}
	if err = checkTheta(s.op, theta); err != nil {
		return
	}
	if parameters[0] == 0 {
		S = utils.NewCIdentity(numberModes(s.op))
		return
	}
	Dinv := s.OperatorDiagonalInverse()
	if err = checkDiagonal(Dinv); err != nil {
		return
	}
	var A utils.CMatrix
	if A, err = s.op.ComputeSymbols(theta); err != nil {
		return
	}
	scale := Dinv.Copy().Scale(-parameters[0]).DataCopy()
	S = A.ScaleRows(scale).Add(utils.NewCIdentity(len(scale)))
	return
}
