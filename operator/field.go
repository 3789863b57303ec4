package operator

import (
	"fmt"

	"github.com/notargets/golfa/basis"
)

type EvaluationMode uint8

const (
	Interpolation EvaluationMode = iota
	Gradient
	QuadratureWeights
)

func (em EvaluationMode) String() string {
	switch em {
	case Interpolation:
		return "Interpolation"
	case Gradient:
		return "Gradient"
	case QuadratureWeights:
		return "QuadratureWeights"
	}
	return fmt.Sprintf("EvaluationMode(%d)", uint8(em))
}

// width is the number of values one component produces at a quadrature point
func (em EvaluationMode) width(dimension int) int {
	if em == Gradient {
		return dimension
	}
	return 1
}

// OperatorField binds a basis to the evaluation modes the weak form sees
type OperatorField struct {
	basis           *basis.TensorBasis
	evaluationModes []EvaluationMode
	name            string
}

func NewOperatorField(b *basis.TensorBasis, modes []EvaluationMode, name ...string) (f *OperatorField, err error) {
	switch {
	case b == nil:
		err = fmt.Errorf("%w: nil basis", ErrInvalidField)
		return
	case len(modes) == 0:
		err = fmt.Errorf("%w: no evaluation modes", ErrInvalidField)
		return
	}
	for _, mode := range modes {
		switch mode {
		case Interpolation, Gradient:
		case QuadratureWeights:
			if len(modes) != 1 {
				err = ErrQuadratureWeightsMode
				return
			}
		default:
			err = fmt.Errorf("%w: unknown evaluation mode %v", ErrInvalidField, mode)
			return
		}
	}
	f = &OperatorField{
		basis:           b,
		evaluationModes: append([]EvaluationMode(nil), modes...),
	}
	if len(name) != 0 {
		f.name = name[0]
	}
	return
}

func (f *OperatorField) Basis() *basis.TensorBasis { return f.basis }
func (f *OperatorField) Name() string              { return f.name }

func (f *OperatorField) EvaluationModes() []EvaluationMode {
	return append([]EvaluationMode(nil), f.evaluationModes...)
}

// IsWeights reports a field that only carries quadrature weights
func (f *OperatorField) IsWeights() bool {
	return f.evaluationModes[0] == QuadratureWeights
}

// NumberNodes counts the nodes of every component
func (f *OperatorField) NumberNodes() int {
	return f.basis.NumberComponents() * f.basis.NumberNodes()
}

// NumberValues is the length of the value vector this field exchanges with
// the weak form at one quadrature point
func (f *OperatorField) NumberValues() (n int) {
	if f.IsWeights() {
		return 1
	}
	for _, mode := range f.evaluationModes {
		n += f.basis.NumberComponents() * mode.width(f.basis.Dimension())
	}
	return
}
