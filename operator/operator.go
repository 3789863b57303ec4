package operator

import (
	"fmt"
	"math/cmplx"

	"github.com/notargets/golfa/utils"
	"gonum.org/v1/gonum/floats"
)

// WeakForm is the pointwise action of an operator. It receives, for each
// input field, the values at one quadrature point and returns, for each
// output field, the values to be tested against that field's basis. Values of
// a field are laid out mode by mode, then component by component, then by
// direction for gradients. A quadrature weights field receives one value,
// the mapped weight w·|J|.
//
// The analysis assumes the weak form is linear in every field other than the
// quadrature weights.
type WeakForm func(inputs [][]float64) (outputs [][]float64)

// Operator is the element-level finite element operator whose Fourier
// symbol is analyzed. Derived quantities are computed on first use and are
// safe to read concurrently afterwards.
type Operator struct {
	weakForm WeakForm
	mesh     Mesh
	inputs   []*OperatorField
	outputs  []*OperatorField

	elementMatrix             utils.Memo[utils.Matrix]
	diagonal                  utils.Memo[utils.Vector]
	multiplicity              utils.Memo[utils.Vector]
	rowModeMap                utils.Memo[utils.Matrix]
	columnModeMap             utils.Memo[utils.Matrix]
	inputCoordinates          utils.Memo[utils.Matrix]
	outputCoordinates         utils.Memo[utils.Matrix]
	nodeCoordinateDifferences utils.Memo[utils.Tensor3]
}

func NewOperator(weakForm WeakForm, mesh Mesh, inputs, outputs []*OperatorField) (op *Operator, err error) {
	if weakForm == nil {
		err = fmt.Errorf("%w: nil weak form", ErrInvalidWeakForm)
		return
	}
	if mesh.Dimension() == 0 {
		err = fmt.Errorf("%w: mesh is not initialized", ErrInvalidMesh)
		return
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		err = fmt.Errorf("%w: an operator needs input and output fields, have %d inputs and %d outputs",
			ErrInvalidField, len(inputs), len(outputs))
		return
	}
	var (
		numberQuadraturePoints = -1
		active                 int
	)
	check := func(f *OperatorField, label string, i int) error {
		if f == nil {
			return fmt.Errorf("%w: %s field %d is nil", ErrInvalidField, label, i)
		}
		if d := f.Basis().Dimension(); d != mesh.Dimension() {
			return fmt.Errorf("%w: %s field %d has dimension %d, mesh has dimension %d",
				ErrDimension, label, i, d, mesh.Dimension())
		}
		nq := f.Basis().NumberQuadraturePoints()
		if numberQuadraturePoints < 0 {
			numberQuadraturePoints = nq
		}
		if nq != numberQuadraturePoints {
			return fmt.Errorf("%w: %s field %d has %d quadrature points, expected %d",
				ErrInvalidField, label, i, nq, numberQuadraturePoints)
		}
		return nil
	}
	for i, f := range inputs {
		if err = check(f, "input", i); err != nil {
			return
		}
		if !f.IsWeights() {
			active++
		}
	}
	if active == 0 {
		err = fmt.Errorf("%w: no input field other than quadrature weights", ErrInvalidField)
		return
	}
	for i, f := range outputs {
		if err = check(f, "output", i); err != nil {
			return
		}
		if f.IsWeights() {
			err = fmt.Errorf("output field %d: %w", i, ErrQuadratureWeightsMode)
			return
		}
	}
	op = &Operator{
		weakForm: weakForm,
		mesh:     mesh,
		inputs:   append([]*OperatorField(nil), inputs...),
		outputs:  append([]*OperatorField(nil), outputs...),
	}
	// Probe once with zero input so a malformed weak form fails here
	if err = op.checkWeakForm(op.pointValues(0)); err != nil {
		op = nil
	}
	return
}

func (op *Operator) Mesh() Mesh         { return op.mesh }
func (op *Operator) Dimension() int     { return op.mesh.Dimension() }
func (op *Operator) WeakForm() WeakForm { return op.weakForm }

func (op *Operator) Inputs() []*OperatorField {
	return append([]*OperatorField(nil), op.inputs...)
}

func (op *Operator) Outputs() []*OperatorField {
	return append([]*OperatorField(nil), op.outputs...)
}

// NumberInputNodes counts the nodes of every input field other than the
// quadrature weights
func (op *Operator) NumberInputNodes() (n int) {
	for _, f := range op.inputs {
		if !f.IsWeights() {
			n += f.NumberNodes()
		}
	}
	return
}

func (op *Operator) NumberOutputNodes() (n int) {
	for _, f := range op.outputs {
		n += f.NumberNodes()
	}
	return
}

// pointValues allocates the weak form inputs at quadrature point q, active
// fields zeroed and weights fields set to the mapped quadrature weight
func (op *Operator) pointValues(q int) (in [][]float64) {
	in = make([][]float64, len(op.inputs))
	for i, f := range op.inputs {
		in[i] = make([]float64, f.NumberValues())
		if f.IsWeights() {
			in[i][0] = f.Basis().QuadratureWeights().AtVec(q) * op.mesh.Jacobian()
		}
	}
	return
}

func (op *Operator) checkWeakForm(in [][]float64) (err error) {
	out := op.weakForm(in)
	if len(out) != len(op.outputs) {
		return fmt.Errorf("%w: weak form returned %d outputs for %d output fields",
			ErrInvalidWeakForm, len(out), len(op.outputs))
	}
	for i, f := range op.outputs {
		if len(out[i]) != f.NumberValues() {
			return fmt.Errorf("%w: output %d has %d values, field expects %d",
				ErrInvalidWeakForm, i, len(out[i]), f.NumberValues())
		}
	}
	return
}

// ElementMatrix is Bᵀ·D·B, B evaluating every field at every quadrature
// point on the mesh element and D the pointwise weak form
func (op *Operator) ElementMatrix() utils.Matrix {
	return op.elementMatrix.Get(func() (E utils.Matrix) {
		var (
			nq      = op.inputs[0].Basis().NumberQuadraturePoints()
			Bin     = op.evaluation(op.inputs)
			Bout    = op.evaluation(op.outputs)
			nInVal  = countValues(op.inputs)
			nOutVal = countValues(op.outputs)
			D       = utils.NewMatrix(nq*nOutVal, nq*nInVal)
		)
		for q := 0; q < nq; q++ {
			for b := 0; b < nInVal; b++ {
				in := op.pointValues(q)
				setSlot(op.inputs, in, b)
				out := op.weakForm(in)
				a := 0
				for _, vals := range out {
					for _, val := range vals {
						D.Set(q*nOutVal+a, q*nInVal+b, val)
						a++
					}
				}
			}
		}
		E = Bout.Transpose().Mul(D.Mul(Bin))
		E.SetReadOnly("elementMatrix")
		return
	})
}

func countValues(fields []*OperatorField) (n int) {
	for _, f := range fields {
		if !f.IsWeights() {
			n += f.NumberValues()
		}
	}
	return
}

// setSlot sets value b of the concatenated active field values to one
func setSlot(fields []*OperatorField, in [][]float64, b int) {
	for i, f := range fields {
		if f.IsWeights() {
			continue
		}
		if b < f.NumberValues() {
			in[i][b] = 1
			return
		}
		b -= f.NumberValues()
	}
}

// evaluation stacks the basis operators of the active fields, mapped to the
// mesh element. Row q·nValues + slot holds the value of slot at quadrature
// point q, columns run over the concatenated field nodes.
func (op *Operator) evaluation(fields []*OperatorField) (B utils.Matrix) {
	var (
		nq      = fields[0].Basis().NumberQuadraturePoints()
		nValues = countValues(fields)
		nNodes  int
		d       = op.Dimension()
	)
	for _, f := range fields {
		if !f.IsWeights() {
			nNodes += f.NumberNodes()
		}
	}
	B = utils.NewMatrix(nq*nValues, nNodes)
	var slot0, col0 int
	for _, f := range fields {
		if f.IsWeights() {
			continue
		}
		var (
			b     = f.Basis()
			nc    = b.NumberComponents()
			nn    = b.NumberNodes()
			slot  = slot0
			inter = b.Interpolation()
			grad  = b.Gradient()
		)
		for _, mode := range f.evaluationModes {
			w := mode.width(d)
			for c := 0; c < nc; c++ {
				for k := 0; k < w; k++ {
					for q := 0; q < nq; q++ {
						row := q*nValues + slot + c*w + k
						for j := 0; j < nn; j++ {
							var val float64
							switch mode {
							case Interpolation:
								val = inter.At(q, j)
							case Gradient:
								val = grad.At(k*nq+q, j) * 2 / op.mesh.Extent(k)
							}
							B.Set(row, col0+c*nn+j, val)
						}
					}
				}
			}
			slot += nc * w
		}
		slot0 += f.NumberValues()
		col0 += f.NumberNodes()
	}
	return
}

// RowModeMap folds output nodes onto output Fourier modes
func (op *Operator) RowModeMap() utils.Matrix {
	return op.rowModeMap.Get(func() (R utils.Matrix) {
		R = modeMap(op.outputs)
		R.SetReadOnly("rowModeMap")
		return
	})
}

// ColumnModeMap expands input Fourier modes onto input nodes
func (op *Operator) ColumnModeMap() utils.Matrix {
	return op.columnModeMap.Get(func() (C utils.Matrix) {
		C = modeMap(op.inputs).Transpose()
		C.SetReadOnly("columnModeMap")
		return
	})
}

// modeMap is the block diagonal of the basis mode maps, one block per
// component of every active field
func modeMap(fields []*OperatorField) (M utils.Matrix) {
	var nr, nc int
	for _, f := range fields {
		if f.IsWeights() {
			continue
		}
		nr += f.Basis().NumberComponents() * f.Basis().NumberModes()
		nc += f.NumberNodes()
	}
	M = utils.NewMatrix(nr, nc)
	var i0, j0 int
	for _, f := range fields {
		if f.IsWeights() {
			continue
		}
		b := f.Basis()
		for c := 0; c < b.NumberComponents(); c++ {
			M.SetBlock(i0, j0, b.ModeMap())
			i0 += b.NumberModes()
			j0 += b.NumberNodes()
		}
	}
	return
}

// InputCoordinates are the element coordinates of every input node
func (op *Operator) InputCoordinates() utils.Matrix {
	return op.inputCoordinates.Get(func() (X utils.Matrix) {
		X = op.coordinates(op.inputs)
		X.SetReadOnly("inputCoordinates")
		return
	})
}

func (op *Operator) OutputCoordinates() utils.Matrix {
	return op.outputCoordinates.Get(func() (X utils.Matrix) {
		X = op.coordinates(op.outputs)
		X.SetReadOnly("outputCoordinates")
		return
	})
}

func (op *Operator) coordinates(fields []*OperatorField) (X utils.Matrix) {
	var (
		d = op.Dimension()
		n int
	)
	for _, f := range fields {
		if !f.IsWeights() {
			n += f.NumberNodes()
		}
	}
	X = utils.NewMatrix(n, d)
	var i0 int
	for _, f := range fields {
		if f.IsWeights() {
			continue
		}
		nodes := f.Basis().Nodes()
		for c := 0; c < f.Basis().NumberComponents(); c++ {
			X.SetBlock(i0, 0, nodes)
			i0 += f.Basis().NumberNodes()
		}
	}
	for k := 0; k < d; k++ {
		half := op.mesh.Extent(k) / 2
		for i := 0; i < n; i++ {
			X.Set(i, k, X.At(i, k)*half)
		}
	}
	return
}

// Lengths returns the extent of a coordinate array in each direction
func Lengths(X utils.Matrix) (lengths []float64) {
	_, d := X.Dims()
	lengths = make([]float64, d)
	for k := 0; k < d; k++ {
		col := X.Col(k).DataCopy()
		lengths[k] = floats.Max(col) - floats.Min(col)
	}
	return
}

// NodeCoordinateDifferences holds (input_j - output_i)/length in direction k
// at [i, j, k], the phase offsets of the symbol
func (op *Operator) NodeCoordinateDifferences() utils.Tensor3 {
	return op.nodeCoordinateDifferences.Get(func() (T utils.Tensor3) {
		T = CoordinateDifferences(op.OutputCoordinates(), op.InputCoordinates(), Lengths(op.InputCoordinates()))
		T.SetReadOnly("nodeCoordinateDifferences")
		return
	})
}

// CoordinateDifferences returns [i, j, k] = (to[j,k] - from[i,k]) / lengths[k]
func CoordinateDifferences(from, to utils.Matrix, lengths []float64) (T utils.Tensor3) {
	var (
		ni, d = from.Dims()
		nj, _ = to.Dims()
	)
	T = utils.NewTensor3(ni, nj, d)
	for i := 0; i < ni; i++ {
		for j := 0; j < nj; j++ {
			for k := 0; k < d; k++ {
				T.Set(i, j, k, (to.At(j, k)-from.At(i, k))/lengths[k])
			}
		}
	}
	return
}

// PhaseScale returns A ∘ e^{sign·iθ·Δ}
func PhaseScale(A utils.Matrix, delta utils.Tensor3, theta []float64, sign float64) (S utils.CMatrix) {
	var (
		nr, nc = A.Dims()
	)
	S = utils.NewCMatrix(nr, nc)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			a := A.At(i, j)
			if a == 0 {
				continue
			}
			phase := floats.Dot(theta, delta.Fiber(i, j))
			S.Set(i, j, complex(a, 0)*cmplx.Exp(complex(0, sign*phase)))
		}
	}
	return
}

// ComputeSymbols returns rowModeMap · (E ∘ e^{iθ·Δ}) · columnModeMap, the
// symbol of the operator at frequency θ
func (op *Operator) ComputeSymbols(theta []float64) (S utils.CMatrix, err error) {
	if len(theta) != op.Dimension() {
		err = fmt.Errorf("%w: have %d frequencies for dimension %d", ErrDimension, len(theta), op.Dimension())
		return
	}
	if utils.IsNonFinite(theta) {
		err = fmt.Errorf("%w: frequency %v is not finite", ErrDimension, theta)
		return
	}
	P := PhaseScale(op.ElementMatrix(), op.NodeCoordinateDifferences(), theta, 1)
	S = utils.NewCMatrixFromReal(op.RowModeMap()).Mul(P).MulReal(op.ColumnModeMap())
	return
}

// Diagonal is the diagonal of rowModeMap · diag(E) · columnModeMap
func (op *Operator) Diagonal() utils.Vector {
	return op.diagonal.Get(func() (D utils.Vector) {
		var (
			E      = op.ElementMatrix()
			R      = op.RowModeMap()
			C      = op.ColumnModeMap()
			nr, nc = E.Dims()
			nm, _  = R.Dims()
			_, nmc = C.Dims()
			n      = min(nr, nc)
		)
		D = utils.NewVector(min(nm, nmc))
		for a := 0; a < D.Len(); a++ {
			var sum float64
			for i := 0; i < n; i++ {
				sum += R.At(a, i) * E.At(i, i) * C.At(i, a)
			}
			D.SetVec(a, sum)
		}
		D.SetReadOnly("diagonal")
		return
	})
}

// Multiplicity counts, for every output node, the nodes of the element that
// the periodic extension identifies with it
func (op *Operator) Multiplicity() utils.Vector {
	return op.multiplicity.Get(func() (M utils.Vector) {
		var (
			R     = op.RowModeMap()
			nm, _ = R.Dims()
		)
		perMode := R.SumRows()
		M = utils.NewVector(op.NumberOutputNodes())
		for i := 0; i < M.Len(); i++ {
			var sum float64
			for a := 0; a < nm; a++ {
				sum += R.At(a, i) * perMode.AtVec(a)
			}
			M.SetVec(i, sum)
		}
		M.SetReadOnly("multiplicity")
		return
	})
}
