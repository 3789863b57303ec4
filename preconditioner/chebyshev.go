package preconditioner

import (
	"context"
	"fmt"
	"math"

	"github.com/notargets/golfa/operator"
	"github.com/notargets/golfa/sweep"
	"github.com/notargets/golfa/utils"
)

// Chebyshev is Chebyshev polynomial relaxation on D⁻¹A, damping the
// interval [λmin, λmax] of its spectrum
type Chebyshev struct {
	op                      *operator.Operator
	lowerFraction           float64
	upperScale              float64
	samples                 int
	bounds                  *[2]float64
	operatorDiagonalInverse utils.Memo[utils.Vector]
	eigenvalueBounds        utils.Memo[eigenvalueBounds]
}

type eigenvalueBounds struct {
	min, max float64
	err      error
}

type ChebyshevOption func(*Chebyshev)

// WithLowerFraction sets λmin as a fraction of the estimated λmax, default 0.1
func WithLowerFraction(f float64) ChebyshevOption {
	return func(s *Chebyshev) {
		s.lowerFraction = f
	}
}

// WithUpperScale inflates the estimated λmax, default 1.1
func WithUpperScale(f float64) ChebyshevOption {
	return func(s *Chebyshev) {
		s.upperScale = f
	}
}

// WithEigenvalueSamples sets the frequencies per direction sampled to
// estimate λmax of D⁻¹A, default 8
func WithEigenvalueSamples(n int) ChebyshevOption {
	return func(s *Chebyshev) {
		s.samples = n
	}
}

// WithEigenvalueBounds fixes [λmin, λmax] in place of the estimate
func WithEigenvalueBounds(min, max float64) ChebyshevOption {
	return func(s *Chebyshev) {
		s.bounds = &[2]float64{min, max}
	}
}

func NewChebyshev(op *operator.Operator, opts ...ChebyshevOption) (s *Chebyshev, err error) {
	if op == nil {
		err = ErrNilOperator
		return
	}
	s = &Chebyshev{
		op:            op,
		lowerFraction: 0.1,
		upperScale:    1.1,
		samples:       8,
	}
	for _, opt := range opts {
		opt(s)
	}
	switch {
	case s.bounds != nil && !(0 < s.bounds[0] && s.bounds[0] < s.bounds[1]):
		err = fmt.Errorf("%w: eigenvalue bounds %v must satisfy 0 < min < max", ErrInvalidParameters, *s.bounds)
	case !(0 < s.lowerFraction && s.lowerFraction < 1):
		err = fmt.Errorf("%w: lower fraction %v must lie in (0,1)", ErrInvalidParameters, s.lowerFraction)
	case !(s.upperScale >= 1):
		err = fmt.Errorf("%w: upper scale %v must be at least 1", ErrInvalidParameters, s.upperScale)
	case s.samples < 1:
		err = fmt.Errorf("%w: %d eigenvalue samples", ErrInvalidParameters, s.samples)
	}
	if err != nil {
		s = nil
	}
	return
}

func (s *Chebyshev) Operator() *operator.Operator { return s.op }

func (s *Chebyshev) OperatorDiagonalInverse() utils.Vector {
	return s.operatorDiagonalInverse.Get(func() utils.Vector {
		return diagonalInverse(s.op)
	})
}

// EigenvalueBounds returns the interval of D⁻¹A's spectrum the polynomial
// damps, estimated once over a frequency grid
func (s *Chebyshev) EigenvalueBounds() (min, max float64, err error) {
	b := s.eigenvalueBounds.Get(func() (b eigenvalueBounds) {
		if s.bounds != nil {
			b.min, b.max = s.bounds[0], s.bounds[1]
			return
		}
		grid, err := sweep.Grid(s.op.Dimension(), s.samples)
		if err != nil {
			b.err = err
			return
		}
		r, err := sweep.Run(context.Background(), s.preconditionedOperator, grid,
			sweep.WithMetric(sweep.MaxRealEigenvalue))
		if err != nil {
			b.err = fmt.Errorf("estimating eigenvalue bounds: %w", err)
			return
		}
		b.max = s.upperScale * r.Max
		b.min = s.lowerFraction * r.Max
		return
	})
	return b.min, b.max, b.err
}

// preconditionedOperator is D⁻¹A(θ)
func (s *Chebyshev) preconditionedOperator(theta []float64) (B utils.CMatrix, err error) {
	Dinv := s.OperatorDiagonalInverse()
	if err = checkDiagonal(Dinv); err != nil {
		return
	}
	if B, err = s.op.ComputeSymbols(theta); err != nil {
		return
	}
	B = B.ScaleRows(Dinv.DataCopy())
	return
}

// ComputeSymbols returns the error propagation symbol of parameters = [k]
// Chebyshev iterations, T_k(σ(I - D⁻¹A/θc)) / T_k(σ) evaluated with the three
// term recurrence
func (s *Chebyshev) ComputeSymbols(parameters, theta []float64) (S utils.CMatrix, err error) {
	if len(parameters) != 1 || parameters[0] < 1 || parameters[0] != math.Trunc(parameters[0]) {
		err = fmt.Errorf("%w: Chebyshev takes one integer degree >= 1, have %v", ErrInvalidParameters, parameters)
		return
	}
	if err = checkTheta(s.op, theta); err != nil {
		return
	}
	var (
		k                    = int(parameters[0])
		lambdaMin, lambdaMax float64
		B                    utils.CMatrix
	)
	if lambdaMin, lambdaMax, err = s.EigenvalueBounds(); err != nil {
		return
	}
	if B, err = s.preconditionedOperator(theta); err != nil {
		return
	}
	var (
		n      = numberModes(s.op)
		I      = utils.NewCIdentity(n)
		thetaC = (lambdaMax + lambdaMin) / 2
		delta  = (lambdaMax - lambdaMin) / 2
		sigma  = thetaC / delta
		rho    = 1 / sigma
		Y      = utils.NewCIdentity(n).Subtract(B.Scale(complex(1/thetaC, 0)))
		Eprev  = I
	)
	S = Y.Copy()
	for i := 1; i < k; i++ {
		rhoNext := 1 / (2*sigma - rho)
		next := Y.Mul(S).Scale(complex(2*sigma, 0)).Subtract(Eprev.Copy().Scale(complex(rho, 0)))
		Eprev, S = S, next.Scale(complex(rhoNext, 0))
		rho = rhoNext
	}
	return
}
