package preconditioner

import "errors"

var (
	ErrNilOperator               = errors.New("preconditioner: nil operator")
	ErrSmootherOperatorMismatch  = errors.New("preconditioner: smoother is not bound to the fine operator")
	ErrUnsupportedCoarseOperator = errors.New("preconditioner: coarse level must be an operator or a multigrid")
	ErrFieldCountMismatch        = errors.New("preconditioner: prolongation bases do not match the operator fields")
	ErrProlongationBasis         = errors.New("preconditioner: prolongation basis does not fit the operator fields")
	ErrDimension                 = errors.New("preconditioner: dimension mismatch")
	ErrInvalidParameters         = errors.New("preconditioner: invalid smoother parameters")
	ErrInvalidSmoothCounts       = errors.New("preconditioner: smoothing counts must be two non-negative integers")
)
