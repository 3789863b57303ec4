package preconditioner

import (
	"fmt"

	"github.com/notargets/golfa/operator"
	"github.com/notargets/golfa/utils"
)

// Smoother is a relaxation bound to one operator whose error propagation
// symbol can be evaluated at a frequency
type Smoother interface {
	ComputeSymbols(parameters, theta []float64) (utils.CMatrix, error)
	Operator() *operator.Operator
}

func checkTheta(op *operator.Operator, theta []float64) (err error) {
	if len(theta) != op.Dimension() {
		err = fmt.Errorf("%w: have %d frequencies for dimension %d", ErrDimension, len(theta), op.Dimension())
	}
	return
}

func numberModes(op *operator.Operator) (n int) {
	n, _ = op.RowModeMap().Dims()
	return
}

// Identity does nothing, so a multigrid using it exposes the bare coarse
// grid correction
type Identity struct {
	op *operator.Operator
}

func NewIdentity(op *operator.Operator) (s *Identity, err error) {
	if op == nil {
		err = ErrNilOperator
		return
	}
	s = &Identity{op: op}
	return
}

func (s *Identity) Operator() *operator.Operator { return s.op }

func (s *Identity) ComputeSymbols(parameters, theta []float64) (S utils.CMatrix, err error) {
	if len(parameters) != 0 {
		err = fmt.Errorf("%w: identity takes no parameters, have %v", ErrInvalidParameters, parameters)
		return
	}
	if err = checkTheta(s.op, theta); err != nil {
		return
	}
	S = utils.NewCIdentity(numberModes(s.op))
	return
}
