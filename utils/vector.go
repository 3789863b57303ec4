package utils

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type Vector struct {
	V        *mat.VecDense
	readOnly bool
	name     string
}

func NewVector(n int, dataO ...[]float64) (R Vector) {
	var v *mat.VecDense
	if len(dataO) != 0 {
		if len(dataO[0]) != n {
			panic(fmt.Errorf("mismatch in allocation: NewVector n = %v, len(data[0]) = %v", n, len(dataO[0])))
		}
		v = mat.NewVecDense(n, dataO[0])
	} else {
		v = mat.NewVecDense(n, make([]float64, n))
	}
	R = Vector{
		v,
		false,
		"unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (v Vector) Dims() (r, c int)         { return v.V.Dims() }
func (v Vector) At(i, j int) float64      { return v.V.At(i, j) }
func (v Vector) T() mat.Matrix            { return v.V.T() }
func (v Vector) AtVec(i int) float64      { return v.V.AtVec(i) }
func (v Vector) RawVector() blas64.Vector { return v.V.RawVector() }
func (v Vector) Len() int                 { return v.V.Len() }
func (v Vector) IsReadOnly() bool         { return v.readOnly }

// DataCopy returns a copy of the vector contents
func (v Vector) DataCopy() (r []float64) {
	r = make([]float64, v.Len())
	copy(r, v.V.RawVector().Data)
	return
}

func (v *Vector) SetReadOnly(name ...string) Vector {
	if len(name) != 0 {
		v.name = name[0]
	}
	v.readOnly = true
	return *v
}

func (v Vector) Copy() Vector { // Does not change receiver
	return NewVector(v.Len(), v.DataCopy())
}

// Set fills the vector with val
func (v Vector) Set(val float64) Vector { // Changes receiver
	v.checkWritable()
	for i := range v.V.RawVector().Data {
		v.V.SetVec(i, val)
	}
	return v
}

func (v Vector) SetVec(i int, val float64) Vector { // Changes receiver
	v.checkWritable()
	v.V.SetVec(i, val)
	return v
}

func (v Vector) Apply(f func(float64) float64) Vector { // Changes receiver
	var (
		data = v.V.RawVector().Data
	)
	v.checkWritable()
	for i, val := range data {
		data[i] = f(val)
	}
	return v
}

// Reciprocal replaces each entry with its inverse
func (v Vector) Reciprocal() Vector { // Changes receiver
	return v.Apply(func(x float64) float64 { return 1. / x })
}

func (v Vector) Scale(a float64) Vector { // Changes receiver
	v.checkWritable()
	floats.Scale(a, v.V.RawVector().Data)
	return v
}

func (v Vector) Sum() float64 { return floats.Sum(v.V.RawVector().Data) }
func (v Vector) Min() float64 { return floats.Min(v.V.RawVector().Data) }
func (v Vector) Max() float64 { return floats.Max(v.V.RawVector().Data) }

func (v Vector) checkWritable() {
	if v.readOnly {
		err := fmt.Errorf("attempt to write to a read only vector named: \"%v\"", v.name)
		panic(err)
	}
}
