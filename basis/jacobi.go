package basis

import (
	"fmt"
	"math"

	"github.com/notargets/golfa/utils"
	"gonum.org/v1/gonum/mat"
)

func gamma0(alpha, beta float64) float64 {
	ab1 := alpha + beta + 1.
	a1 := alpha + 1.
	b1 := beta + 1.
	return math.Gamma(a1) * math.Gamma(b1) * math.Pow(2, ab1) / ab1 / math.Gamma(ab1)
}

func gamma1(alpha, beta float64) float64 {
	ab := alpha + beta
	a1 := alpha + 1.
	b1 := beta + 1.
	return a1 * b1 * gamma0(alpha, beta) / (ab + 3.0)
}

// JacobiGL returns the N+1 Gauss-Lobatto points of the Jacobi polynomial
// P_N^(alpha,beta) on [-1,1]
func JacobiGL(alpha, beta float64, N int) (X utils.Vector) {
	var (
		x = make([]float64, N+1)
	)
	x[0], x[N] = -1, 1
	if N > 1 {
		xint, _ := JacobiGQ(alpha+1, beta+1, N-2)
		copy(x[1:N], xint.RawVector().Data)
	}
	X = utils.NewVector(N+1, x)
	return
}

// JacobiGQ returns the N+1 Gauss quadrature points and weights of the Jacobi
// polynomial P_N^(alpha,beta), computed with Golub-Welsch
func JacobiGQ(alpha, beta float64, N int) (X, W utils.Vector) {
	var (
		h1 = make([]float64, N+1)
		JJ = mat.NewSymDense(N+1, nil)
	)
	if N == 0 {
		X = utils.NewVector(1, []float64{-(alpha - beta) / (alpha + beta + 2.)})
		W = utils.NewVector(1, []float64{gamma0(alpha, beta)})
		return
	}
	for i := 0; i < N+1; i++ {
		h1[i] = 2*float64(i) + alpha + beta
	}
	// main diagonal: (beta^2-alpha^2)/(h1+2)/h1
	fac := -(alpha*alpha - beta*beta)
	for i := 0; i < N+1; i++ {
		JJ.SetSym(i, i, fac/(h1[i]*(h1[i]+2.)))
	}
	if alpha+beta < 10*1.e-16 {
		JJ.SetSym(0, 0, 0)
	}
	// first off diagonal
	for i := 0; i < N; i++ {
		ip1 := float64(i + 1)
		val := 2. / (h1[i] + 2.)
		val *= math.Sqrt(ip1 * (ip1 + alpha + beta) * (ip1 + alpha) * (ip1 + beta) / ((h1[i] + 1.) * (h1[i] + 3.)))
		JJ.SetSym(i, i+1, val)
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(JJ, true); !ok {
		panic("eigenvalue decomposition failed")
	}
	X = utils.NewVector(N+1, eig.Values(nil))

	VV := mat.NewDense(N+1, N+1, nil)
	eig.VectorsTo(VV)
	w := make([]float64, N+1)
	for j := range w {
		v := VV.At(0, j)
		w[j] = v * v * gamma0(alpha, beta)
	}
	W = utils.NewVector(N+1, w)
	return
}

// LobattoWeights returns the Gauss-Lobatto-Legendre quadrature weights for
// the points r, 2/(N(N+1) P_N(r)^2)
func LobattoWeights(r utils.Vector) (W utils.Vector) {
	var (
		N  = r.Len() - 1
		fN = float64(N)
		w  = make([]float64, N+1)
	)
	for i := range w {
		x := r.AtVec(i)
		p0, p1 := 1., x
		for n := 2; n <= N; n++ {
			fn := float64(n)
			p0, p1 = p1, ((2*fn-1)*x*p1-(fn-1)*p0)/fn
		}
		if N == 0 {
			p1 = 1
		}
		w[i] = 2. / (fN * (fN + 1) * p1 * p1)
	}
	W = utils.NewVector(N+1, w)
	return
}

// JacobiP evaluates the normalized Jacobi polynomial P_N^(alpha,beta) at r
func JacobiP(r utils.Vector, alpha, beta float64, N int) (p []float64) {
	var (
		Nc = r.Len()
		ab = alpha + beta
	)
	PL := mat.NewDense(N+1, Nc, nil)
	rg := 1. / math.Sqrt(gamma0(alpha, beta))
	for i := 0; i < Nc; i++ {
		PL.Set(0, i, rg)
	}
	if N == 0 {
		return PL.RawRowView(0)
	}
	rg1 := 1. / math.Sqrt(gamma1(alpha, beta))
	for i := 0; i < Nc; i++ {
		PL.Set(1, i, rg1*((ab+2.0)*r.AtVec(i)/2.0+(alpha-beta)/2.0))
	}
	if N == 1 {
		return PL.RawRowView(1)
	}
	a1 := alpha + 1.
	b1 := beta + 1.
	ab1 := ab + 1.
	aold := 2.0 * math.Sqrt(a1*b1/(ab+3.0)) / (ab + 2.0)
	for i := 0; i < N-1; i++ {
		ip1 := float64(i + 1)
		ip2 := ip1 + 1
		h1 := 2.0*ip1 + ab
		anew := 2.0 / (h1 + 2.0) * math.Sqrt(ip2*(ip1+ab1)*(ip1+a1)*(ip1+b1)/(h1+1.0)/(h1+3.0))
		bnew := -(alpha*alpha - beta*beta) / h1 / (h1 + 2.0)
		for j := 0; j < Nc; j++ {
			PL.Set(i+2, j, (-aold*PL.At(i, j)+(r.AtVec(j)-bnew)*PL.At(i+1, j))/anew)
		}
		aold = anew
	}
	return PL.RawRowView(N)
}

func GradJacobiP(r utils.Vector, alpha, beta float64, N int) (p []float64) {
	if N == 0 {
		p = make([]float64, r.Len())
		return
	}
	p = JacobiP(r, alpha+1, beta+1, N-1)
	fN := float64(N)
	fac := math.Sqrt(fN * (fN + alpha + beta + 1))
	for i, val := range p {
		p[i] = val * fac
	}
	return
}

func Vandermonde1D(N int, R utils.Vector) (V utils.Matrix) {
	V = utils.NewMatrix(R.Len(), N+1)
	for j := 0; j < N+1; j++ {
		col := JacobiP(R, 0, 0, j)
		for i, val := range col {
			V.Set(i, j, val)
		}
	}
	return
}

func GradVandermonde1D(R utils.Vector, N int) (Vr utils.Matrix) {
	Vr = utils.NewMatrix(R.Len(), N+1)
	for j := 0; j < N+1; j++ {
		col := GradJacobiP(R, 0, 0, j)
		for i, val := range col {
			Vr.Set(i, j, val)
		}
	}
	return
}

// LagrangeInterpolation1D returns the matrices evaluating the Lagrange
// polynomials on nodes, and their derivatives, at points: V(points) V(nodes)^-1
func LagrangeInterpolation1D(nodes, points utils.Vector) (I, G utils.Matrix) {
	var (
		N    = nodes.Len() - 1
		err  error
		Vinv utils.Matrix
	)
	if Vinv, err = Vandermonde1D(N, nodes).Inverse(); err != nil {
		panic(fmt.Errorf("unable to invert Vandermonde matrix: %w", err))
	}
	I = Vandermonde1D(N, points).Mul(Vinv)
	G = GradVandermonde1D(points, N).Mul(Vinv)
	return
}
