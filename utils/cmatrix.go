package utils

import (
	"fmt"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/lapack"
	"gonum.org/v1/gonum/lapack/lapack64"
	"gonum.org/v1/gonum/mat"
)

// CMatrix is a dense complex matrix, used for Fourier symbols
type CMatrix struct {
	M *mat.CDense
}

func NewCMatrix(nr, nc int, dataO ...[]complex128) (R CMatrix) {
	if len(dataO) != 0 {
		if len(dataO[0]) != nr*nc {
			err := fmt.Errorf("mismatch in allocation: NewCMatrix nr,nc = %v,%v, len(data[0]) = %v\n", nr, nc, len(dataO[0]))
			panic(err)
		}
		return CMatrix{mat.NewCDense(nr, nc, dataO[0])}
	}
	return CMatrix{mat.NewCDense(nr, nc, make([]complex128, nr*nc))}
}

func NewCIdentity(n int) (R CMatrix) {
	R = NewCMatrix(n, n)
	for i := 0; i < n; i++ {
		R.M.Set(i, i, 1)
	}
	return
}

// NewCMatrixFromReal promotes a real matrix
func NewCMatrixFromReal(A mat.Matrix) (R CMatrix) {
	nr, nc := A.Dims()
	R = NewCMatrix(nr, nc)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			R.M.Set(i, j, complex(A.At(i, j), 0))
		}
	}
	return
}

func (m CMatrix) Dims() (r, c int)             { return m.M.Dims() }
func (m CMatrix) At(i, j int) complex128       { return m.M.At(i, j) }
func (m CMatrix) RawCMatrix() cblas128.General { return m.M.RawCMatrix() }
func (m CMatrix) Data() []complex128           { return m.M.RawCMatrix().Data }

func (m CMatrix) Set(i, j int, v complex128) CMatrix { // Changes receiver
	m.M.Set(i, j, v)
	return m
}

func (m CMatrix) Copy() (R CMatrix) { // Does not change receiver
	var (
		nr, nc = m.Dims()
		data   = make([]complex128, nr*nc)
	)
	copy(data, m.Data())
	return NewCMatrix(nr, nc, data)
}

func (m CMatrix) Transpose() (R CMatrix) { // Does not change receiver
	var (
		nr, nc = m.Dims()
	)
	R = NewCMatrix(nc, nr)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			R.M.Set(j, i, m.M.At(i, j))
		}
	}
	return
}

func (m CMatrix) Mul(A CMatrix) (R CMatrix) { // Does not change receiver
	var (
		nrM, ncM = m.Dims()
		nrA, ncA = A.Dims()
	)
	if ncM != nrA {
		panic(fmt.Errorf("dimension mismatch in CMatrix.Mul: %dx%d times %dx%d", nrM, ncM, nrA, ncA))
	}
	R = NewCMatrix(nrM, ncA)
	cblas128.Gemm(blas.NoTrans, blas.NoTrans, 1, m.RawCMatrix(), A.RawCMatrix(), 0, R.RawCMatrix())
	return
}

// MulReal returns m * A for a real matrix A
func (m CMatrix) MulReal(A mat.Matrix) (R CMatrix) { // Does not change receiver
	return m.Mul(NewCMatrixFromReal(A))
}

func (m CMatrix) Add(A CMatrix) CMatrix { // Changes receiver
	var (
		dataA = A.Data()
		dataM = m.Data()
	)
	m.checkSameShape(A)
	for i, val := range dataA {
		dataM[i] += val
	}
	return m
}

func (m CMatrix) Subtract(A CMatrix) CMatrix { // Changes receiver
	var (
		dataA = A.Data()
		dataM = m.Data()
	)
	m.checkSameShape(A)
	for i, val := range dataA {
		dataM[i] -= val
	}
	return m
}

func (m CMatrix) Scale(a complex128) CMatrix { // Changes receiver
	var (
		data = m.Data()
	)
	for i := range data {
		data[i] *= a
	}
	return m
}

// ScaleRows multiplies row i by s[i], i.e. diag(s) * m
func (m CMatrix) ScaleRows(s []float64) CMatrix { // Changes receiver
	var (
		nr, nc = m.Dims()
	)
	if len(s) != nr {
		panic(fmt.Errorf("ScaleRows: length of scale %d does not match rows %d", len(s), nr))
	}
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			m.M.Set(i, j, m.M.At(i, j)*complex(s[i], 0))
		}
	}
	return m
}

// Pow returns m^p for p >= 0, m^0 is the exact identity
func (m CMatrix) Pow(p int) (R CMatrix) { // Does not change receiver
	var (
		nr, nc = m.Dims()
	)
	if nr != nc {
		panic(fmt.Errorf("Pow requires a square matrix, have %dx%d", nr, nc))
	}
	if p < 0 {
		panic(fmt.Errorf("Pow requires a non-negative exponent, have %d", p))
	}
	R = NewCIdentity(nr)
	base := m.Copy()
	for p > 0 {
		if p&1 == 1 {
			R = R.Mul(base)
		}
		p >>= 1
		if p > 0 {
			base = base.Mul(base)
		}
	}
	return
}

// Embed returns the real 2n x 2n matrix [[Re, -Im], [Im, Re]]
func (m CMatrix) Embed() (E Matrix) {
	var (
		nr, nc = m.Dims()
	)
	E = NewMatrix(2*nr, 2*nc)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			v := m.M.At(i, j)
			E.M.Set(i, j, real(v))
			E.M.Set(i, j+nc, -imag(v))
			E.M.Set(i+nr, j, imag(v))
			E.M.Set(i+nr, j+nc, real(v))
		}
	}
	return
}

// Inverse inverts through the LU factorization of the real embedding. A
// reciprocal condition number below NODETOL is reported as singular.
func (m CMatrix) Inverse() (R CMatrix, err error) {
	var (
		nr, nc = m.Dims()
	)
	if nr != nc {
		err = fmt.Errorf("unable to invert a %dx%d matrix: %w", nr, nc, ErrSingular)
		return
	}
	var (
		n     = 2 * nr
		E     = m.Embed().RawMatrix()
		iPiv  = make([]int, n)
		work  = make([]float64, 4*n)
		iwork = make([]int, n)
	)
	anorm := lapack64.Lange(lapack.MaxColumnSum, E, work)
	if anorm == 0 {
		err = fmt.Errorf("unable to invert a zero symbol: %w", ErrSingular)
		return
	}
	if ok := lapack64.Getrf(E, iPiv); !ok {
		err = fmt.Errorf("unable to invert symbol: %w", ErrSingular)
		return
	}
	if rcond := lapack64.Gecon(lapack.MaxColumnSum, E, anorm, work, iwork); rcond < NODETOL {
		err = fmt.Errorf("unable to invert symbol, reciprocal condition number %g: %w", rcond, ErrSingular)
		return
	}
	work = make([]float64, n*n)
	if ok := lapack64.Getri(E, iPiv, work, n*n); !ok {
		err = fmt.Errorf("unable to invert symbol: %w", ErrSingular)
		return
	}
	R = NewCMatrix(nr, nr)
	for i := 0; i < nr; i++ {
		for j := 0; j < nr; j++ {
			R.M.Set(i, j, complex(E.Data[i*E.Stride+j], E.Data[(i+nr)*E.Stride+j]))
		}
	}
	return
}

// Eigenvalues returns the real parts and the moduli of the eigenvalues,
// each sorted ascending. The eigenvalues are taken from the real embedding,
// whose spectrum is λ ∪ conj(λ), so every value appears twice there and one
// of each adjacent pair is kept.
func (m CMatrix) Eigenvalues() (re, mod []float64, err error) {
	var (
		nr, nc = m.Dims()
		eig    mat.Eigen
	)
	if nr != nc {
		err = fmt.Errorf("eigenvalues only defined for square matrices, have %dx%d", nr, nc)
		return
	}
	if ok := eig.Factorize(m.Embed().M, mat.EigenNone); !ok {
		err = fmt.Errorf("eigenvalue decomposition failed")
		return
	}
	values := eig.Values(nil)
	reAll := make([]float64, len(values))
	modAll := make([]float64, len(values))
	for i, val := range values {
		reAll[i] = real(val)
		modAll[i] = cmplx.Abs(val)
	}
	sort.Float64s(reAll)
	sort.Float64s(modAll)
	re = make([]float64, nr)
	mod = make([]float64, nr)
	for i := 0; i < nr; i++ {
		re[i] = reAll[2*i]
		mod[i] = modAll[2*i]
	}
	return
}

func (m CMatrix) MaxRealEigenvalue() (max float64, err error) {
	var re []float64
	if re, _, err = m.Eigenvalues(); err != nil {
		return
	}
	max = re[len(re)-1]
	return
}

func (m CMatrix) MinRealEigenvalue() (min float64, err error) {
	var re []float64
	if re, _, err = m.Eigenvalues(); err != nil {
		return
	}
	min = re[0]
	return
}

func (m CMatrix) SpectralRadius() (rho float64, err error) {
	var mod []float64
	if _, mod, err = m.Eigenvalues(); err != nil {
		return
	}
	rho = mod[len(mod)-1]
	return
}

// EqualApprox compares entrywise with an absolute tolerance
func (m CMatrix) EqualApprox(A CMatrix, tol float64) bool {
	var (
		nrM, ncM = m.Dims()
		nrA, ncA = A.Dims()
	)
	if nrM != nrA || ncM != ncA {
		return false
	}
	dataA := A.Data()
	for i, val := range m.Data() {
		if cmplx.Abs(val-dataA[i]) > tol {
			return false
		}
	}
	return true
}

func (m CMatrix) checkSameShape(A CMatrix) {
	var (
		nrM, ncM = m.Dims()
		nrA, ncA = A.Dims()
	)
	if nrM != nrA || ncM != ncA {
		panic(fmt.Errorf("dimension mismatch: %dx%d and %dx%d", nrM, ncM, nrA, ncA))
	}
}
