package operator

import "fmt"

// Mesh describes the extents of one periodic element in each direction
type Mesh struct {
	dimension int
	extents   [3]float64
}

func NewMesh1D(dx float64) (m Mesh, err error) {
	return newMesh(dx)
}

func NewMesh2D(dx, dy float64) (m Mesh, err error) {
	return newMesh(dx, dy)
}

func NewMesh3D(dx, dy, dz float64) (m Mesh, err error) {
	return newMesh(dx, dy, dz)
}

func newMesh(extents ...float64) (m Mesh, err error) {
	for k, ext := range extents {
		if !(ext > 0) {
			err = fmt.Errorf("%w: extent %v in direction %d must be positive", ErrInvalidMesh, ext, k)
			return
		}
		m.extents[k] = ext
	}
	m.dimension = len(extents)
	return
}

func (m Mesh) Dimension() int { return m.dimension }
func (m Mesh) Dx() float64    { return m.extents[0] }
func (m Mesh) Dy() float64    { return m.extents[1] }
func (m Mesh) Dz() float64    { return m.extents[2] }

// Extent returns the element length in direction k
func (m Mesh) Extent(k int) float64 { return m.extents[k] }

// Jacobian is the determinant of the map from [-1,1]^d onto the element
func (m Mesh) Jacobian() (detJ float64) {
	detJ = 1
	for k := 0; k < m.dimension; k++ {
		detJ *= m.extents[k] / 2
	}
	return
}
