package operator

import (
	"fmt"
	"sort"

	"github.com/notargets/golfa/basis"
)

type galleryConfig struct {
	fineElements int
	components   int
	basisOpts    []basis.BasisOption
}

type GalleryOption func(*galleryConfig)

// WithFineElements discretizes the element as a macro element of ne
// sub-elements per direction, the fine level of an h-multigrid
func WithFineElements(ne int) GalleryOption {
	return func(c *galleryConfig) {
		c.fineElements = ne
	}
}

// WithComponents applies the operator to each of n independent components
func WithComponents(n int) GalleryOption {
	return func(c *galleryConfig) {
		c.components = n
	}
}

func WithCollocatedQuadrature() GalleryOption {
	return func(c *galleryConfig) {
		c.basisOpts = append(c.basisOpts, basis.WithCollocatedQuadrature())
	}
}

var gallery = map[string]func(b *basis.TensorBasis, mesh Mesh) (*Operator, error){
	"mass":      newMass,
	"diffusion": newDiffusion,
}

// GalleryOperators lists the names NewGalleryOperator accepts
func GalleryOperators() (names []string) {
	for name := range gallery {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

// NewGalleryOperator builds a named operator on an H1 Lagrange basis with
// numberNodes1D nodes and numberQuadraturePoints1D quadrature points per
// direction, of the mesh's dimension
func NewGalleryOperator(name string, numberNodes1D, numberQuadraturePoints1D int, mesh Mesh,
	opts ...GalleryOption) (op *Operator, err error) {
	var (
		cfg = &galleryConfig{fineElements: 1, components: 1}
		b   *basis.TensorBasis
	)
	for _, opt := range opts {
		opt(cfg)
	}
	build, ok := gallery[name]
	if !ok {
		err = fmt.Errorf("%w: %q, choose from %v", ErrUnknownGalleryOperator, name, GalleryOperators())
		return
	}
	if mesh.Dimension() == 0 {
		err = fmt.Errorf("%w: mesh is not initialized", ErrInvalidMesh)
		return
	}
	if cfg.fineElements == 1 {
		b, err = basis.NewTensorH1LagrangeBasis(numberNodes1D, numberQuadraturePoints1D,
			cfg.components, mesh.Dimension(), cfg.basisOpts...)
	} else {
		b, err = basis.NewTensorH1LagrangeMacroBasis(numberNodes1D, numberQuadraturePoints1D,
			cfg.components, mesh.Dimension(), cfg.fineElements, cfg.basisOpts...)
	}
	if err != nil {
		return
	}
	return build(b, mesh)
}

func newMass(b *basis.TensorBasis, mesh Mesh) (op *Operator, err error) {
	var (
		u, v, w *OperatorField
	)
	if u, err = NewOperatorField(b, []EvaluationMode{Interpolation}, "u"); err != nil {
		return
	}
	if w, err = NewOperatorField(b, []EvaluationMode{QuadratureWeights}, "quadrature weights"); err != nil {
		return
	}
	if v, err = NewOperatorField(b, []EvaluationMode{Interpolation}, "v"); err != nil {
		return
	}
	massWeakForm := func(in [][]float64) (out [][]float64) {
		var (
			u, wt = in[0], in[1][0]
			v     = make([]float64, len(u))
		)
		for i := range u {
			v[i] = u[i] * wt
		}
		return [][]float64{v}
	}
	return NewOperator(massWeakForm, mesh, []*OperatorField{u, w}, []*OperatorField{v})
}

func newDiffusion(b *basis.TensorBasis, mesh Mesh) (op *Operator, err error) {
	var (
		du, dv, w *OperatorField
	)
	if du, err = NewOperatorField(b, []EvaluationMode{Gradient}, "gradient of u"); err != nil {
		return
	}
	if w, err = NewOperatorField(b, []EvaluationMode{QuadratureWeights}, "quadrature weights"); err != nil {
		return
	}
	if dv, err = NewOperatorField(b, []EvaluationMode{Gradient}, "gradient of v"); err != nil {
		return
	}
	diffusionWeakForm := func(in [][]float64) (out [][]float64) {
		var (
			du, wt = in[0], in[1][0]
			dv     = make([]float64, len(du))
		)
		for i := range du {
			dv[i] = du[i] * wt
		}
		return [][]float64{dv}
	}
	return NewOperator(diffusionWeakForm, mesh, []*OperatorField{du, w}, []*OperatorField{dv})
}
