package basis

import (
	"errors"
	"fmt"

	"github.com/notargets/golfa/utils"
)

var (
	// ErrInvalidBasis is returned for node, quadrature, component,
	// dimension or element counts that do not describe a basis
	ErrInvalidBasis = errors.New("basis: invalid basis parameters")
)

type BasisType uint8

const (
	H1Lagrange BasisType = iota
	H1LagrangeMacro
	PProlongation
	HProlongation
)

func (bt BasisType) String() string {
	switch bt {
	case H1Lagrange:
		return "H1Lagrange"
	case H1LagrangeMacro:
		return "H1LagrangeMacro"
	case PProlongation:
		return "PProlongation"
	case HProlongation:
		return "HProlongation"
	}
	return "Unknown"
}

// TensorBasis is a tensor product finite element basis on [-1,1]^d. For the
// prolongation types the "nodes" are the coarse nodes and the "quadrature
// points" are the fine nodes, so Interpolation maps coarse to fine.
//
// All counts and matrices are per component, a basis with several components
// repeats the scalar basis for each of them.
type TensorBasis struct {
	basisType                                  BasisType
	numberNodes1D, numberQuadraturePoints1D    int
	numberComponents, dimension, numberElement int
	nodes1D, quadraturePoints1D                utils.Vector
	quadratureWeights1D                        utils.Vector
	interpolation1D, gradient1D                utils.Matrix
	interpolation, gradient                    utils.Matrix
	nodes, quadraturePoints                    utils.Matrix
	quadratureWeights                          utils.Vector
	modeMap                                    utils.Matrix
}

type basisConfig struct {
	collocated bool
}

type BasisOption func(*basisConfig)

// WithCollocatedQuadrature uses Gauss-Lobatto points and weights for the
// quadrature rule in place of Gauss points
func WithCollocatedQuadrature() BasisOption {
	return func(c *basisConfig) {
		c.collocated = true
	}
}

// NewTensorH1LagrangeBasis builds a Lagrange basis on Gauss-Lobatto nodes
func NewTensorH1LagrangeBasis(numberNodes1D, numberQuadraturePoints1D,
	numberComponents, dimension int, opts ...BasisOption) (tb *TensorBasis, err error) {
	return NewTensorH1LagrangeMacroBasis(numberNodes1D, numberQuadraturePoints1D,
		numberComponents, dimension, 1, opts...)
}

// NewTensorH1LagrangeMacroBasis builds a Lagrange basis on a macro element
// made of numberElements1D sub-elements in each direction, sharing the
// interface nodes between neighboring sub-elements
func NewTensorH1LagrangeMacroBasis(numberNodes1D, numberQuadraturePoints1D,
	numberComponents, dimension, numberElements1D int, opts ...BasisOption) (tb *TensorBasis, err error) {
	var (
		cfg = &basisConfig{}
	)
	for _, opt := range opts {
		opt(cfg)
	}
	if err = validate(numberNodes1D, numberComponents, dimension, numberElements1D); err != nil {
		return
	}
	if numberQuadraturePoints1D < 1 {
		err = fmt.Errorf("%w: number of quadrature points %d must be at least 1",
			ErrInvalidBasis, numberQuadraturePoints1D)
		return
	}
	r := JacobiGL(0, 0, numberNodes1D-1)
	var q, w utils.Vector
	if cfg.collocated {
		if numberQuadraturePoints1D < 2 {
			err = fmt.Errorf("%w: collocated quadrature needs at least 2 points", ErrInvalidBasis)
			return
		}
		q = JacobiGL(0, 0, numberQuadraturePoints1D-1)
		w = LobattoWeights(q)
	} else {
		q, w = JacobiGQ(0, 0, numberQuadraturePoints1D-1)
	}
	interp, grad := LagrangeInterpolation1D(r, q)

	tb = &TensorBasis{
		basisType:        H1Lagrange,
		numberComponents: numberComponents,
		dimension:        dimension,
		numberElement:    numberElements1D,
	}
	if numberElements1D == 1 {
		tb.nodes1D, tb.quadraturePoints1D, tb.quadratureWeights1D = r, q, w
		tb.interpolation1D, tb.gradient1D = interp, grad
	} else {
		tb.basisType = H1LagrangeMacro
		tb.nodes1D = macroPoints(r, numberElements1D, true)
		tb.quadraturePoints1D = macroPoints(q, numberElements1D, false)
		tb.quadratureWeights1D = macroWeights(w, numberElements1D)
		tb.interpolation1D = macroMatrix(interp, numberElements1D, 1)
		tb.gradient1D = macroMatrix(grad, numberElements1D, float64(numberElements1D))
	}
	tb.numberNodes1D = tb.nodes1D.Len()
	tb.numberQuadraturePoints1D = tb.quadraturePoints1D.Len()
	tb.finish()
	return
}

// NewTensorH1LagrangePProlongationBasis interpolates from a coarse Lagrange
// basis to a finer Lagrange basis of higher degree on the same element
func NewTensorH1LagrangePProlongationBasis(numberCoarseNodes1D, numberFineNodes1D,
	numberComponents, dimension int) (tb *TensorBasis, err error) {
	if err = validate(numberCoarseNodes1D, numberComponents, dimension, 1); err != nil {
		return
	}
	if numberFineNodes1D < 2 {
		err = fmt.Errorf("%w: number of fine nodes %d must be at least 2",
			ErrInvalidBasis, numberFineNodes1D)
		return
	}
	var (
		rc = JacobiGL(0, 0, numberCoarseNodes1D-1)
		rf = JacobiGL(0, 0, numberFineNodes1D-1)
	)
	interp, grad := LagrangeInterpolation1D(rc, rf)
	tb = &TensorBasis{
		basisType:                PProlongation,
		numberNodes1D:            numberCoarseNodes1D,
		numberQuadraturePoints1D: numberFineNodes1D,
		numberComponents:         numberComponents,
		dimension:                dimension,
		numberElement:            1,
		nodes1D:                  rc,
		quadraturePoints1D:       rf,
		quadratureWeights1D:      LobattoWeights(rf),
		interpolation1D:          interp,
		gradient1D:               grad,
	}
	tb.finish()
	return
}

// NewTensorH1LagrangeHProlongationBasis interpolates from a coarse Lagrange
// element to the macro element made of numberFineElements1D sub-elements of
// the same degree in each direction
func NewTensorH1LagrangeHProlongationBasis(numberCoarseNodes1D, numberComponents,
	dimension, numberFineElements1D int) (tb *TensorBasis, err error) {
	return NewTensorH1LagrangeMacroHProlongationBasis(numberCoarseNodes1D, numberComponents,
		dimension, 1, numberFineElements1D)
}

// NewTensorH1LagrangeMacroHProlongationBasis interpolates between two macro
// elements of the same degree, numberCoarseElements1D coarse sub-elements
// each split into numberFineElements1D/numberCoarseElements1D fine ones
func NewTensorH1LagrangeMacroHProlongationBasis(numberNodes1D, numberComponents,
	dimension, numberCoarseElements1D, numberFineElements1D int) (tb *TensorBasis, err error) {
	if err = validate(numberNodes1D, numberComponents, dimension, numberFineElements1D); err != nil {
		return
	}
	if numberCoarseElements1D < 1 || numberFineElements1D%numberCoarseElements1D != 0 {
		err = fmt.Errorf("%w: %d coarse sub-elements do not divide %d fine sub-elements",
			ErrInvalidBasis, numberCoarseElements1D, numberFineElements1D)
		return
	}
	var (
		ratio = numberFineElements1D / numberCoarseElements1D
		r     = JacobiGL(0, 0, numberNodes1D-1)
		rf    = macroPoints(r, ratio, true)
	)
	interp, grad := LagrangeInterpolation1D(r, rf)
	var (
		rows  = ratio * (numberNodes1D - 1)
		nodes = macroPoints(r, numberCoarseElements1D, true)
		pts   = macroPoints(r, numberFineElements1D, true)
		I1    = utils.NewMatrix(pts.Len(), nodes.Len())
		G1    = utils.NewMatrix(pts.Len(), nodes.Len())
	)
	// Rows at coarse sub-element interfaces are written twice, with equal
	// values for the interpolation
	for e := 0; e < numberCoarseElements1D; e++ {
		I1.SetBlock(e*rows, e*(numberNodes1D-1), interp)
		G1.SetBlock(e*rows, e*(numberNodes1D-1), grad)
	}
	G1.Scale(float64(numberCoarseElements1D))
	tb = &TensorBasis{
		basisType:                HProlongation,
		numberNodes1D:            nodes.Len(),
		numberQuadraturePoints1D: pts.Len(),
		numberComponents:         numberComponents,
		dimension:                dimension,
		numberElement:            numberFineElements1D,
		nodes1D:                  nodes,
		quadraturePoints1D:       pts,
		quadratureWeights1D:      utils.NewVector(pts.Len()).Set(2. / float64(pts.Len())),
		interpolation1D:          I1,
		gradient1D:               G1,
	}
	tb.finish()
	return
}

func validate(numberNodes1D, numberComponents, dimension, numberElements1D int) (err error) {
	switch {
	case numberNodes1D < 2:
		err = fmt.Errorf("%w: number of nodes %d must be at least 2", ErrInvalidBasis, numberNodes1D)
	case numberComponents < 1:
		err = fmt.Errorf("%w: number of components %d must be at least 1", ErrInvalidBasis, numberComponents)
	case dimension < 1 || dimension > 3:
		err = fmt.Errorf("%w: dimension %d must be 1, 2 or 3", ErrInvalidBasis, dimension)
	case numberElements1D < 1:
		err = fmt.Errorf("%w: number of sub-elements %d must be at least 1", ErrInvalidBasis, numberElements1D)
	}
	return
}

// macroPoints maps points on [-1,1] into each of the ne sub-intervals of
// [-1,1], dropping the duplicated interface point when shared is set
func macroPoints(r utils.Vector, ne int, shared bool) (R utils.Vector) {
	var (
		n   = r.Len()
		h   = 2. / float64(ne)
		pts []float64
	)
	for e := 0; e < ne; e++ {
		left := -1. + float64(e)*h
		for i := 0; i < n; i++ {
			if shared && e > 0 && i == 0 {
				continue
			}
			pts = append(pts, left+(r.AtVec(i)+1.)*h/2.)
		}
	}
	R = utils.NewVector(len(pts), pts)
	return
}

// macroWeights repeats the weights on each sub-interval, scaled to its length
func macroWeights(w utils.Vector, ne int) (W utils.Vector) {
	var (
		n = w.Len()
	)
	W = utils.NewVector(n * ne)
	for e := 0; e < ne; e++ {
		for i := 0; i < n; i++ {
			W.SetVec(e*n+i, w.AtVec(i)/float64(ne))
		}
	}
	return
}

// macroMatrix places the sub-element matrix A (nq x nn) on the block diagonal
// of ne sub-elements, overlapping the shared node columns
func macroMatrix(A utils.Matrix, ne int, scale float64) (R utils.Matrix) {
	var (
		nq, nn = A.Dims()
	)
	R = utils.NewMatrix(nq*ne, (nn-1)*ne+1)
	for e := 0; e < ne; e++ {
		R.SetBlock(e*nq, e*(nn-1), A)
	}
	R.Scale(scale)
	return
}

// finish builds the tensor product quantities from the 1D ones
func (tb *TensorBasis) finish() {
	var (
		d       = tb.dimension
		interp  = make([]utils.Matrix, d)
		weights = make([]utils.Matrix, d)
	)
	for k := 0; k < d; k++ {
		interp[k] = tb.interpolation1D
		weights[k] = utils.NewMatrix(tb.numberQuadraturePoints1D, 1, tb.quadratureWeights1D.DataCopy())
	}
	tb.interpolation = tensor(interp)
	tb.interpolation.SetReadOnly("interpolation")

	nq, nn := tb.interpolation.Dims()
	tb.gradient = utils.NewMatrix(d*nq, nn)
	for k := 0; k < d; k++ {
		ops := make([]utils.Matrix, d)
		copy(ops, interp)
		ops[k] = tb.gradient1D
		tb.gradient.SetBlock(k*nq, 0, tensor(ops))
	}
	tb.gradient.SetReadOnly("gradient")

	tb.quadratureWeights = tensor(weights).Col(0)
	tb.quadratureWeights.SetReadOnly("quadratureWeights")

	tb.nodes = tensorPoints(tb.nodes1D, d)
	tb.nodes.SetReadOnly("nodes")
	tb.quadraturePoints = tensorPoints(tb.quadraturePoints1D, d)
	tb.quadraturePoints.SetReadOnly("quadraturePoints")

	modes1D := make([]utils.Matrix, d)
	for k := 0; k < d; k++ {
		modes1D[k] = modeMap1D(tb.numberNodes1D)
	}
	tb.modeMap = tensor(modes1D)
	tb.modeMap.SetReadOnly("modeMap")

	tb.interpolation1D.SetReadOnly("interpolation1D")
	tb.gradient1D.SetReadOnly("gradient1D")
	tb.nodes1D.SetReadOnly("nodes1D")
	tb.quadraturePoints1D.SetReadOnly("quadraturePoints1D")
	tb.quadratureWeights1D.SetReadOnly("quadratureWeights1D")
}

// tensor returns ops[d-1] ⊗ ... ⊗ ops[0], the first direction varies fastest
func tensor(ops []utils.Matrix) (R utils.Matrix) {
	R = ops[len(ops)-1].Copy()
	for k := len(ops) - 2; k >= 0; k-- {
		R = R.Kron(ops[k])
	}
	return
}

func tensorPoints(r utils.Vector, d int) (X utils.Matrix) {
	var (
		n      = r.Len()
		nTotal = 1
	)
	for k := 0; k < d; k++ {
		nTotal *= n
	}
	X = utils.NewMatrix(nTotal, d)
	for ind := 0; ind < nTotal; ind++ {
		stride := 1
		for k := 0; k < d; k++ {
			X.Set(ind, k, r.AtVec((ind/stride)%n))
			stride *= n
		}
	}
	return
}

// modeMap1D folds the last node of a periodic 1D element onto the first
func modeMap1D(n int) (M utils.Matrix) {
	M = utils.NewMatrix(n-1, n)
	for i := 0; i < n; i++ {
		M.Set(i%(n-1), i, 1)
	}
	return
}

func (tb *TensorBasis) Type() BasisType               { return tb.basisType }
func (tb *TensorBasis) Dimension() int                { return tb.dimension }
func (tb *TensorBasis) NumberComponents() int         { return tb.numberComponents }
func (tb *TensorBasis) NumberNodes1D() int            { return tb.numberNodes1D }
func (tb *TensorBasis) NumberQuadraturePoints1D() int { return tb.numberQuadraturePoints1D }
func (tb *TensorBasis) NumberElements1D() int         { return tb.numberElement }

// NumberNodes is the number of nodes of one component
func (tb *TensorBasis) NumberNodes() (n int) {
	n, _ = tb.nodes.Dims()
	return
}

// NumberQuadraturePoints is the number of quadrature points, or fine nodes
// for a prolongation basis
func (tb *TensorBasis) NumberQuadraturePoints() (n int) {
	n, _ = tb.quadraturePoints.Dims()
	return
}

func (tb *TensorBasis) NumberModes() (n int) {
	n, _ = tb.modeMap.Dims()
	return
}

// Interpolation maps nodal values to quadrature point values
func (tb *TensorBasis) Interpolation() utils.Matrix { return tb.interpolation }

// Gradient stacks the reference derivative in each direction, one block of
// NumberQuadraturePoints rows per direction
func (tb *TensorBasis) Gradient() utils.Matrix { return tb.gradient }

func (tb *TensorBasis) QuadratureWeights() utils.Vector { return tb.quadratureWeights }
func (tb *TensorBasis) Nodes() utils.Matrix             { return tb.nodes }
func (tb *TensorBasis) QuadraturePoints() utils.Matrix  { return tb.quadraturePoints }
func (tb *TensorBasis) Nodes1D() utils.Vector           { return tb.nodes1D }
func (tb *TensorBasis) Interpolation1D() utils.Matrix   { return tb.interpolation1D }

// ModeMap folds nodes identified by periodicity onto Fourier modes
func (tb *TensorBasis) ModeMap() utils.Matrix { return tb.modeMap }
