package utils

import "fmt"

// Tensor3 is a dense rank three array stored with the last index fastest
type Tensor3 struct {
	Ni, Nj, Nk int
	data       []float64
	readOnly   bool
	name       string
}

func NewTensor3(ni, nj, nk int) (R Tensor3) {
	R = Tensor3{
		Ni:   ni,
		Nj:   nj,
		Nk:   nk,
		data: make([]float64, ni*nj*nk),
		name: "unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

func (t Tensor3) Dims() (ni, nj, nk int)  { return t.Ni, t.Nj, t.Nk }
func (t Tensor3) At(i, j, k int) float64 { return t.data[t.index(i, j, k)] }
func (t Tensor3) IsReadOnly() bool       { return t.readOnly }

// Fiber returns a copy of the values along the last index at (i, j)
func (t Tensor3) Fiber(i, j int) (r []float64) {
	var (
		ind = t.index(i, j, 0)
	)
	r = make([]float64, t.Nk)
	copy(r, t.data[ind:ind+t.Nk])
	return
}

func (t Tensor3) Set(i, j, k int, val float64) Tensor3 { // Changes receiver
	t.checkWritable()
	t.data[t.index(i, j, k)] = val
	return t
}

func (t *Tensor3) SetReadOnly(name ...string) Tensor3 {
	if len(name) != 0 {
		t.name = name[0]
	}
	t.readOnly = true
	return *t
}

func (t Tensor3) index(i, j, k int) int {
	if i < 0 || i >= t.Ni || j < 0 || j >= t.Nj || k < 0 || k >= t.Nk {
		panic(fmt.Errorf("index (%d,%d,%d) out of bounds for tensor of size (%d,%d,%d)",
			i, j, k, t.Ni, t.Nj, t.Nk))
	}
	return k + t.Nk*(j+t.Nj*i)
}

func (t Tensor3) checkWritable() {
	if t.readOnly {
		err := fmt.Errorf("attempt to write to a read only tensor named: \"%v\"", t.name)
		panic(err)
	}
}
