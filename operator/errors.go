package operator

import "errors"

var (
	ErrQuadratureWeightsMode  = errors.New("operator: quadrature weights must be the only evaluation mode of a field")
	ErrInvalidField           = errors.New("operator: invalid operator field")
	ErrInvalidMesh            = errors.New("operator: invalid mesh")
	ErrDimension              = errors.New("operator: dimension mismatch")
	ErrInvalidWeakForm        = errors.New("operator: weak form output does not match the output fields")
	ErrUnknownGalleryOperator = errors.New("operator: unknown gallery operator")
)
